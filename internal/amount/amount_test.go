package amount

import (
	"encoding/json"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestParseOrZero(t *testing.T) {
	ptr := decimal.RequireFromString("7.25")
	var nilPtr *decimal.Decimal

	tests := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, "0"},
		{"empty string", "", "0"},
		{"whitespace", "   ", "0"},
		{"garbage", "abc", "0"},
		{"trailing garbage", "12abc", "0"},
		{"dot decimal", "12.5", "12.5"},
		{"comma decimal", "12,5", "12.5"},
		{"thousands space", "1 234,50", "1234.5"},
		{"thousands dot", "1.234,50", "1234.5"},
		{"two commas", "1,2,3", "0"},
		{"euro sign", "10,00 €", "10"},
		{"negative", "-3.5", "-3.5"},
		{"lone minus", "-", "0"},
		{"int", 42, "42"},
		{"int64", int64(-7), "-7"},
		{"uint64", uint64(9), "9"},
		{"float", 25.5, "25.5"},
		{"NaN", math.NaN(), "0"},
		{"+Inf", math.Inf(1), "0"},
		{"json number", json.Number("13.5"), "13.5"},
		{"decimal", decimal.NewFromInt(14), "14"},
		{"decimal pointer", &ptr, "7.25"},
		{"nil decimal pointer", nilPtr, "0"},
		{"true", true, "1"},
		{"unsupported", []int{1}, "0"},
		{"exponent", "1,5e2", "150"},
		{"huge exponent", "1e999999999", "0"},
		{"huge negative exponent", "1e-999999999", "0"},
		{"zero with huge exponent", "0e999999999", "0"},
		{"at magnitude limit", "1000000000000000", "0"},
		{"below magnitude limit", "999999999999999,99", "999999999999999.99"},
		{"large int64", int64(math.MaxInt64), "0"},
		{"large uint64", uint64(math.MaxUint64), "0"},
		{"large float", 1e300, "0"},
		{"extra decimals truncated", "0.12345678901234567890123", "0.123456789012345678"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseOrZero(tt.in)
			if !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("ParseOrZero(%v) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseOrZeroHugeExponentIsFast(t *testing.T) {
	inputs := []string{"1e999999999", "-1e999999999", "9.99e2147483647", "1e-2147483648"}
	start := time.Now()
	for _, in := range inputs {
		d := ParseOrZero(in)
		if !d.IsZero() {
			t.Errorf("ParseOrZero(%q) = %s, want 0", in, d)
		}
		if c := Cents(d); c != 0 {
			t.Errorf("Cents(ParseOrZero(%q)) = %d, want 0", in, c)
		}
		_ = Round2(d)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("parsing huge exponents took %s", elapsed)
	}

	var f Flex
	if err := json.Unmarshal([]byte(`"1e999999999"`), &f); err != nil || !f.IsZero() {
		t.Errorf("Flex = %s, %v; want 0", f.Decimal, err)
	}
}

func TestRound2(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"125.5", "125.5"},
		{"1.005", "1.01"},
		{"1.004999", "1"},
		{"2.675", "2.68"},
		{"-1.005", "-1"},
		{"-1.006", "-1.01"},
		{"-0.005", "0"},
		{"0", "0"},
	}

	for _, tt := range tests {
		got := Round2(decimal.RequireFromString(tt.in))
		if !got.Equal(decimal.RequireFromString(tt.want)) {
			t.Errorf("Round2(%s) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestCents(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"100", 10000},
		{"0.015", 2},
		{"235.5", 23550},
		{"-12.345", -1234},
	}

	for _, tt := range tests {
		if got := Cents(decimal.RequireFromString(tt.in)); got != tt.want {
			t.Errorf("Cents(%s) = %d, want %d", tt.in, got, tt.want)
		}
	}

	if got := FromCents(23550); !got.Equal(decimal.RequireFromString("235.5")) {
		t.Errorf("FromCents(23550) = %s", got)
	}
}

func TestDisplay(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"25.50", "25,5"},
		{"100.00", "100"},
		{"0.05", "0,05"},
		{"1234.567", "1234,57"},
		{"-3.10", "-3,1"},
		{"0", "0"},
	}

	for _, tt := range tests {
		if got := Display(decimal.RequireFromString(tt.in)); got != tt.want {
			t.Errorf("Display(%s) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFlexJSON(t *testing.T) {
	var payload struct {
		A Flex `json:"a"`
		B Flex `json:"b"`
		C Flex `json:"c"`
		D Flex `json:"d"`
		E Flex `json:"e"`
	}

	in := `{"a": 2, "b": "12,5", "c": null, "d": "oops", "e": {"x": 1}}`
	if err := json.Unmarshal([]byte(in), &payload); err != nil {
		t.Fatalf("Unmarshal returned error: %v", err)
	}

	checks := map[string]struct {
		got  Flex
		want string
	}{
		"a": {payload.A, "2"},
		"b": {payload.B, "12.5"},
		"c": {payload.C, "0"},
		"d": {payload.D, "0"},
		"e": {payload.E, "0"},
	}
	for field, c := range checks {
		if !c.got.Equal(decimal.RequireFromString(c.want)) {
			t.Errorf("field %s = %s, want %s", field, c.got, c.want)
		}
	}

	out, err := json.Marshal(NewFlex(decimal.RequireFromString("25.50")))
	if err != nil {
		t.Fatalf("Marshal returned error: %v", err)
	}
	if string(out) != "25.5" {
		t.Errorf("Marshal = %s, want 25.5", out)
	}
}

func ExampleDisplay() {
	fmt.Println(Display(decimal.RequireFromString("25.50")))
	fmt.Println(Display(decimal.RequireFromString("100.00")))
	// Output:
	// 25,5
	// 100
}
