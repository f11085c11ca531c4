// Package amount holds the tolerant decimal handling shared by every
// invoicing calculation.
//
// Amounts typed into forms arrive incomplete all the time ("", "12,", "abc").
// None of that is an error here: anything that does not parse as a number is
// treated as zero so totals, references and barcodes can always be produced.
package amount

import (
	"bytes"
	"encoding/json"
	"math"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// MaxScale is the number of decimals kept from parsed input.
const MaxScale = 18

var (
	hundred = decimal.NewFromInt(100)
	half    = decimal.New(5, -1)

	// MaxMagnitude bounds every parsed value. Anything at or above it in
	// absolute value is treated as zero.
	MaxMagnitude = decimal.New(1, 15)
)

// ParseOrZero converts v to a decimal. Unparsable input, NaN, infinities and
// values outside MaxMagnitude become zero. It never panics.
func ParseOrZero(v any) decimal.Decimal {
	return bounded(parse(v))
}

// bounded rejects values whose exponent would make later arithmetic
// allocate huge integers ("1e999999999") and drops digits beyond MaxScale.
func bounded(d decimal.Decimal) decimal.Decimal {
	exp := d.Exponent()
	if exp > 0 && int64(d.NumDigits())+int64(exp) > 16 {
		return decimal.Zero
	}
	if exp < -MaxScale {
		if int64(d.NumDigits())+int64(exp) < -MaxScale {
			return decimal.Zero
		}
		d = d.Truncate(MaxScale)
	}
	if d.Abs().GreaterThanOrEqual(MaxMagnitude) {
		return decimal.Zero
	}
	return d
}

func parse(v any) decimal.Decimal {
	switch x := v.(type) {
	case nil:
		return decimal.Zero
	case decimal.Decimal:
		return x
	case *decimal.Decimal:
		if x == nil {
			return decimal.Zero
		}
		return *x
	case string:
		return parseString(x)
	case json.Number:
		return parseString(x.String())
	case float64:
		return fromFloat(x)
	case float32:
		return fromFloat(float64(x))
	case int:
		return decimal.NewFromInt(int64(x))
	case int8:
		return decimal.NewFromInt(int64(x))
	case int16:
		return decimal.NewFromInt(int64(x))
	case int32:
		return decimal.NewFromInt(int64(x))
	case int64:
		return decimal.NewFromInt(x)
	case uint:
		return fromUint(uint64(x))
	case uint8:
		return decimal.NewFromInt(int64(x))
	case uint16:
		return decimal.NewFromInt(int64(x))
	case uint32:
		return decimal.NewFromInt(int64(x))
	case uint64:
		return fromUint(x)
	case bool:
		if x {
			return decimal.NewFromInt(1)
		}
		return decimal.Zero
	default:
		return decimal.Zero
	}
}

func fromUint(u uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(u), 0)
}

func fromFloat(f float64) decimal.Decimal {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(f)
}

// parseString accepts "12.5", "12,5", "1 234,50" and "1.234,50".
func parseString(s string) decimal.Decimal {
	cleaned := strings.TrimSpace(s)
	if cleaned == "" {
		return decimal.Zero
	}

	cleaned = strings.ReplaceAll(cleaned, " ", "")
	cleaned = strings.ReplaceAll(cleaned, "\u00a0", "")
	cleaned = strings.TrimSuffix(cleaned, "€")

	if strings.Contains(cleaned, ",") {
		if strings.Contains(cleaned, ".") {
			cleaned = strings.ReplaceAll(cleaned, ".", "")
		}
		if strings.Count(cleaned, ",") > 1 {
			return decimal.Zero
		}
		cleaned = strings.Replace(cleaned, ",", ".", 1)
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// Round2 rounds to whole cents, halves towards positive infinity:
// round(x*100)/100.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Shift(2).Add(half).Floor().Shift(-2)
}

// Cents returns d as whole cents using the same rounding as Round2.
func Cents(d decimal.Decimal) int64 {
	return d.Shift(2).Add(half).Floor().IntPart()
}

// FromCents is the inverse of Cents.
func FromCents(c int64) decimal.Decimal {
	return decimal.New(c, -2)
}

// Percent returns rate/100.
func Percent(rate decimal.Decimal) decimal.Decimal {
	return rate.Div(hundred)
}

// Display formats d the way amounts are printed on invoices: comma as the
// decimal separator, at most two decimals, no trailing zeros.
func Display(d decimal.Decimal) string {
	s := Round2(d).StringFixed(2)
	if strings.Contains(s, ".") {
		s = strings.TrimRight(s, "0")
		s = strings.TrimSuffix(s, ".")
	}
	if s == "-0" {
		s = "0"
	}
	return strings.Replace(s, ".", ",", 1)
}

// Flex is a decimal that decodes from any JSON value through ParseOrZero
// and encodes as a JSON number.
type Flex struct {
	decimal.Decimal
}

// NewFlex wraps d.
func NewFlex(d decimal.Decimal) Flex {
	return Flex{Decimal: d}
}

// UnmarshalJSON implements json.Unmarshaler. It never fails.
func (f *Flex) UnmarshalJSON(b []byte) error {
	var v any
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		f.Decimal = decimal.Zero
		return nil
	}
	f.Decimal = ParseOrZero(v)
	return nil
}

// MarshalJSON implements json.Marshaler.
func (f Flex) MarshalJSON() ([]byte, error) {
	return []byte(f.Decimal.String()), nil
}
