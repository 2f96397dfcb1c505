// Package money provides fixed-precision currency arithmetic in integer
// minor units (cents). Monetary values are never stored or compared as
// binary floating point; rate multiplications go through shopspring/decimal
// and are rounded half up exactly once.
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Money is a monetary amount in minor units (cents).
type Money int64

// Zero is the zero amount.
const Zero Money = 0

// FromDecimal converts a major-unit decimal value (e.g. 12.345) to minor
// units, rounding half up to the cent.
func FromDecimal(d decimal.Decimal) Money {
	return Money(d.Shift(2).Round(0).IntPart())
}

// Decimal returns the amount as a major-unit decimal (cents 1234 -> 12.34).
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(int64(m), -2)
}

// Add returns m + n.
func (m Money) Add(n Money) Money { return m + n }

// Sub returns m - n.
func (m Money) Sub(n Money) Money { return m - n }

// Mul returns the amount multiplied by an integer quantity.
func (m Money) Mul(qty int) Money { return m * Money(qty) }

// MulRate multiplies the amount by an arbitrary decimal rate (such as a tax
// rate of 0.085) and rounds half up to the minor unit.
//
// decimal.Round rounds half away from zero, which is identical to
// round-half-up for the non-negative amounts this engine works with.
func (m Money) MulRate(rate decimal.Decimal) Money {
	return Money(decimal.NewFromInt(int64(m)).Mul(rate).Round(0).IntPart())
}

// Percent returns pct percent of the amount, rounded half up.
func (m Money) Percent(pct decimal.Decimal) Money {
	return m.MulRate(pct.Div(decimal.NewFromInt(100)))
}

// IsNegative reports whether the amount is below zero.
func (m Money) IsNegative() bool { return m < 0 }

// Min returns the smaller of a and b.
func Min(a, b Money) Money {
	if a < b {
		return a
	}
	return b
}

// String formats the amount as a major-unit string, e.g. "12.34".
func (m Money) String() string {
	sign := ""
	v := int64(m)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}
