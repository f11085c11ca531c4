// Package vat converts between net and gross prices and computes VAT
// amounts. Every result is rounded to whole cents; intermediate products are
// not.
package vat

import (
	"github.com/shopspring/decimal"

	"github.com/LeeviJ/triolasku-sub000/internal/amount"
)

var one = decimal.NewFromInt(1)

// GrossFromNet returns round2(net * (1 + rate/100)).
func GrossFromNet(net, rate decimal.Decimal) decimal.Decimal {
	return amount.Round2(net.Mul(one.Add(amount.Percent(rate))))
}

// NetFromGross returns round2(gross / (1 + rate/100)). A divisor of zero
// (rate -100) yields zero.
func NetFromGross(gross, rate decimal.Decimal) decimal.Decimal {
	divisor := one.Add(amount.Percent(rate))
	if divisor.IsZero() {
		return decimal.Zero
	}
	return amount.Round2(gross.Div(divisor))
}

// Amount returns the VAT on net: round2(net * rate/100).
func Amount(net, rate decimal.Decimal) decimal.Decimal {
	return amount.Round2(net.Mul(amount.Percent(rate)))
}

// Round2 rounds to cents. See amount.Round2.
func Round2(d decimal.Decimal) decimal.Decimal {
	return amount.Round2(d)
}

// FinnishRates returns the Finnish rate set, highest first.
func FinnishRates() []decimal.Decimal {
	return []decimal.Decimal{
		decimal.RequireFromString("25.5"),
		decimal.NewFromInt(14),
		decimal.RequireFromString("13.5"),
		decimal.NewFromInt(10),
		decimal.Zero,
	}
}

// IsConfigured reports whether rate is one of rates, compared numerically.
func IsConfigured(rate decimal.Decimal, rates []decimal.Decimal) bool {
	for _, r := range rates {
		if r.Equal(rate) {
			return true
		}
	}
	return false
}

// Key is the canonical map key for a rate: "25.5", "25.50" and "25.500" all
// become "25.5".
func Key(rate decimal.Decimal) string {
	return rate.String()
}
