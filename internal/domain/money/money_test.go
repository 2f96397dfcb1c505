package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFromDecimal(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Money
	}{
		{"whole amount", "12.00", 1200},
		{"cents", "12.34", 1234},
		{"rounds half up", "0.005", 1},
		{"rounds sub-cent down", "10.004", 1000},
		{"zero", "0", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FromDecimal(decimal.RequireFromString(tt.in)))
		})
	}
}

func TestMulRate(t *testing.T) {
	rate := decimal.RequireFromString("0.085")

	// 2370 * 0.085 = 201.45 -> 201
	assert.Equal(t, Money(201), Money(2370).MulRate(rate))
	// 1000 * 0.085 = 85 exactly
	assert.Equal(t, Money(85), Money(1000).MulRate(rate))
	// half rounds up: 100 * 0.085 = 8.5 -> 9
	assert.Equal(t, Money(9), Money(100).MulRate(rate))
}

func TestPercent(t *testing.T) {
	assert.Equal(t, Money(230), Money(2300).Percent(decimal.NewFromInt(10)))
	// 15% of 333 = 49.95 -> 50
	assert.Equal(t, Money(50), Money(333).Percent(decimal.NewFromInt(15)))
	// half up: 10% of 5 = 0.5 -> 1
	assert.Equal(t, Money(1), Money(5).Percent(decimal.NewFromInt(10)))
}

func TestString(t *testing.T) {
	assert.Equal(t, "12.34", Money(1234).String())
	assert.Equal(t, "0.05", Money(5).String())
	assert.Equal(t, "-1.50", Money(-150).String())
}

func TestDecimalRoundTrip(t *testing.T) {
	m := Money(2971)
	assert.Equal(t, m, FromDecimal(m.Decimal()))
}
