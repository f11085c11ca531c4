// Package reference computes Finnish creditor references (viitenumero).
//
// A reference is the invoice number, zero-padded to at least four digits,
// followed by a check digit. The check digit weights the digits 7, 3, 1, 7,
// 3, 1, ... from the right and takes the distance of the weighted sum to the
// next multiple of ten.
package reference

import (
	"strconv"
	"strings"

	"github.com/LeeviJ/triolasku-sub000/internal/amount"
)

// MinBaseLength is the minimum width of the reference without its check digit.
const MinBaseLength = 4

// MaxLength is the longest reference a bank accepts, check digit included.
const MaxLength = 20

var weights = [3]int{7, 3, 1}

// FromInvoiceNumber returns the reference for an invoice number. Negative
// numbers are treated as zero.
func FromInvoiceNumber(n int64) string {
	if n < 0 {
		n = 0
	}
	base := strconv.FormatInt(n, 10)
	if len(base) < MinBaseLength {
		base = strings.Repeat("0", MinBaseLength-len(base)) + base
	}
	return base + strconv.Itoa(CheckDigit(base))
}

// FromInput coerces v to an invoice number (fractions are dropped) and
// returns its reference. Non-numeric input and numbers that do not fit an
// int64 give "00000".
func FromInput(v any) string {
	n := amount.ParseOrZero(v).BigInt()
	if !n.IsInt64() {
		return FromInvoiceNumber(0)
	}
	return FromInvoiceNumber(n.Int64())
}

// CheckDigit computes the check digit for a base of decimal digits. Non-digit
// characters are ignored.
func CheckDigit(base string) int {
	sum := 0
	w := 0
	for i := len(base) - 1; i >= 0; i-- {
		c := base[i]
		if c < '0' || c > '9' {
			continue
		}
		sum += int(c-'0') * weights[w%3]
		w++
	}
	return (10 - sum%10) % 10
}

// Valid reports whether ref is a well-formed reference: digits only (spaces
// allowed), 4 to 20 digits, correct check digit.
func Valid(ref string) bool {
	digits := strings.ReplaceAll(ref, " ", "")
	if len(digits) < 4 || len(digits) > MaxLength {
		return false
	}
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return false
		}
	}
	last := len(digits) - 1
	return CheckDigit(digits[:last]) == int(digits[last]-'0')
}

// Format groups the digits of ref in fives counted from the right, the way
// references are printed on invoices: "1234561" becomes "12 34561".
func Format(ref string) string {
	digits := strings.ReplaceAll(ref, " ", "")
	if len(digits) <= 5 {
		return digits
	}

	var b strings.Builder
	head := len(digits) % 5
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < len(digits); i += 5 {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(digits[i : i+5])
	}
	return b.String()
}

// Normalize strips spaces and leading zeros so references written by banks
// and by invoices can be compared. An all-zero reference normalizes to "0".
func Normalize(ref string) string {
	digits := strings.ReplaceAll(strings.TrimSpace(ref), " ", "")
	digits = strings.TrimLeft(digits, "0")
	if digits == "" {
		return "0"
	}
	return digits
}
