package cart

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/localeats/ordering/internal/domain/money"
)

var taxRate = decimal.RequireFromString("0.085")

func TestItemTotal(t *testing.T) {
	tests := []struct {
		name string
		item Item
		want money.Money
	}{
		{
			name: "plain item",
			item: Item{UnitPrice: 1000, Quantity: 2},
			want: 2000,
		},
		{
			name: "with addon",
			item: Item{UnitPrice: 1000, Addons: []Option{{Name: "extra cheese", Price: 150}}, Quantity: 2},
			want: 2300,
		},
		{
			name: "with size adjustment",
			item: Item{UnitPrice: 1000, Size: &Size{Name: "large", Adjustment: 200}, Quantity: 1},
			want: 1200,
		},
		{
			name: "with priced modification",
			item: Item{UnitPrice: 1000, Modifications: []Option{{Name: "gluten-free base", Price: 100}}, Quantity: 3},
			want: 3300,
		},
		{
			name: "everything combined",
			item: Item{
				UnitPrice:     1000,
				Size:          &Size{Name: "large", Adjustment: 200},
				Addons:        []Option{{Name: "bacon", Price: 150}, {Name: "egg", Price: 100}},
				Modifications: []Option{{Name: "spicy", Price: 0}},
				Quantity:      2,
			},
			want: 2900,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ItemTotal(tt.item))
		})
	}
}

func TestComputeTotals(t *testing.T) {
	// Worked example: one item at 10.00 with a 1.50 add-on, quantity 2.
	items := []Item{
		{UnitPrice: 1000, Addons: []Option{{Name: "extra", Price: 150}}, Quantity: 2},
	}

	got := ComputeTotals(items, 300, 400, 230, taxRate)

	assert.Equal(t, money.Money(2300), got.Subtotal)
	assert.Equal(t, money.Money(230), got.DiscountAmount)
	assert.Equal(t, money.Money(300), got.DeliveryFee)
	// round((2300-230+300) * 0.085) = round(201.45) = 201
	assert.Equal(t, money.Money(201), got.Tax)
	assert.Equal(t, money.Money(400), got.Tip)
	assert.Equal(t, money.Money(2971), got.GrandTotal)
}

func TestComputeTotals_GrandTotalIdentity(t *testing.T) {
	items := []Item{
		{UnitPrice: 745, Quantity: 3},
		{UnitPrice: 1299, Addons: []Option{{Name: "x", Price: 37}}, Quantity: 2},
	}

	got := ComputeTotals(items, 250, 199, 333, taxRate)

	want := got.Subtotal - got.DiscountAmount + got.DeliveryFee + got.Tax + got.Tip
	assert.Equal(t, want, got.GrandTotal)
}

func TestComputeTotals_Idempotent(t *testing.T) {
	items := []Item{{UnitPrice: 999, Quantity: 7}}

	first := ComputeTotals(items, 300, 150, 500, taxRate)
	second := ComputeTotals(items, 300, 150, 500, taxRate)

	assert.Equal(t, first, second)
}

func TestComputeTotals_DiscountNeverExceedsSubtotal(t *testing.T) {
	items := []Item{{UnitPrice: 500, Quantity: 1}}

	got := ComputeTotals(items, 0, 0, 10_000, taxRate)

	assert.Equal(t, money.Money(500), got.DiscountAmount)
	assert.Equal(t, money.Money(0), got.GrandTotal)
}

func TestComputeTotals_TipNotTaxed(t *testing.T) {
	items := []Item{{UnitPrice: 1000, Quantity: 1}}

	noTip := ComputeTotals(items, 0, 0, 0, taxRate)
	bigTip := ComputeTotals(items, 0, 10_000, 0, taxRate)

	assert.Equal(t, noTip.Tax, bigTip.Tax)
	assert.Equal(t, noTip.GrandTotal+10_000, bigTip.GrandTotal)
}

func TestComputeTotals_PickupHasNoFee(t *testing.T) {
	items := []Item{{UnitPrice: 1000, Quantity: 1}}

	got := ComputeTotals(items, 0, 0, 0, taxRate)

	assert.Equal(t, money.Money(0), got.DeliveryFee)
	// round(1000 * 0.085) = 85
	assert.Equal(t, money.Money(85), got.Tax)
	assert.Equal(t, money.Money(1085), got.GrandTotal)
}

func TestSignature(t *testing.T) {
	a := Item{MenuItemID: "m1", Addons: []Option{{Name: "bacon"}, {Name: "egg"}}}
	b := Item{MenuItemID: "m1", Addons: []Option{{Name: "egg"}, {Name: "bacon"}}}
	c := Item{MenuItemID: "m1", Addons: []Option{{Name: "bacon"}}}
	d := Item{MenuItemID: "m1", Size: &Size{Name: "large"}, Addons: []Option{{Name: "bacon"}, {Name: "egg"}}}

	assert.Equal(t, a.Signature(), b.Signature(), "addon order must not matter")
	assert.NotEqual(t, a.Signature(), c.Signature())
	assert.NotEqual(t, a.Signature(), d.Signature())
}
