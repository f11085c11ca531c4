package vat

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/LeeviJ/triolasku-sub000/internal/amount"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestGrossFromNet(t *testing.T) {
	tests := []struct {
		net, rate, want string
	}{
		{"100", "25.5", "125.5"},
		{"100", "0", "100"},
		{"19.99", "14", "22.79"},
		{"0.01", "25.5", "0.01"},
		{"10", "13.5", "11.35"},
	}

	for _, tt := range tests {
		got := GrossFromNet(d(tt.net), d(tt.rate))
		if !got.Equal(d(tt.want)) {
			t.Errorf("GrossFromNet(%s, %s) = %s, want %s", tt.net, tt.rate, got, tt.want)
		}
	}
}

func TestNetFromGross(t *testing.T) {
	tests := []struct {
		gross, rate, want string
	}{
		{"125.5", "25.5", "100"},
		{"114", "14", "100"},
		{"10", "25.5", "7.97"},
		{"50", "-100", "0"},
	}

	for _, tt := range tests {
		got := NetFromGross(d(tt.gross), d(tt.rate))
		if !got.Equal(d(tt.want)) {
			t.Errorf("NetFromGross(%s, %s) = %s, want %s", tt.gross, tt.rate, got, tt.want)
		}
	}
}

func TestAmount(t *testing.T) {
	tests := []struct {
		net, rate, want string
	}{
		{"100", "25.5", "25.5"},
		{"100", "10", "10"},
		{"0.99", "25.5", "0.25"},
		{"3.33", "14", "0.47"},
		{"200", "0", "0"},
	}

	for _, tt := range tests {
		got := Amount(d(tt.net), d(tt.rate))
		if !got.Equal(d(tt.want)) {
			t.Errorf("Amount(%s, %s) = %s, want %s", tt.net, tt.rate, got, tt.want)
		}
	}
}

func TestTolerantInput(t *testing.T) {
	inputs := []any{"", "abc", nil, "NaN", "--1", []string{"x"}}

	for _, in := range inputs {
		zero := amount.ParseOrZero(in)
		if got := GrossFromNet(zero, d("25.5")); !got.IsZero() {
			t.Errorf("GrossFromNet(%v) = %s, want 0", in, got)
		}
		if got := NetFromGross(zero, zero); !got.IsZero() {
			t.Errorf("NetFromGross(%v) = %s, want 0", in, got)
		}
		if got := Amount(d("100"), zero); !got.IsZero() {
			t.Errorf("Amount(100, %v) = %s, want 0", in, got)
		}
	}

	// String input coerces like a number.
	if got := GrossFromNet(amount.ParseOrZero("100"), amount.ParseOrZero("25,5")); !got.Equal(d("125.5")) {
		t.Errorf("GrossFromNet(\"100\", \"25,5\") = %s, want 125.5", got)
	}
}

func TestRoundTrip(t *testing.T) {
	tolerance := d("0.01")
	rates := append(FinnishRates(), d("24"), d("7.5"), d("100"))

	for cents := int64(0); cents <= 200000; cents += 137 {
		net := amount.FromCents(cents)
		for _, rate := range rates {
			back := NetFromGross(GrossFromNet(net, rate), rate)
			if back.Sub(net).Abs().GreaterThan(tolerance) {
				t.Fatalf("round trip of %s at %s%% gave %s", net, rate, back)
			}
		}
	}
}

func TestIsConfigured(t *testing.T) {
	rates := FinnishRates()
	if !IsConfigured(d("25.50"), rates) {
		t.Error("25.50 should match 25.5")
	}
	if IsConfigured(d("24"), rates) {
		t.Error("24 is not a current Finnish rate")
	}
}

func TestKey(t *testing.T) {
	if Key(d("25.50")) != Key(d("25.5")) {
		t.Errorf("Key(25.50)=%q Key(25.5)=%q", Key(d("25.50")), Key(d("25.5")))
	}
	if Key(d("10.0")) != "10" {
		t.Errorf("Key(10.0) = %q, want \"10\"", Key(d("10.0")))
	}
}
