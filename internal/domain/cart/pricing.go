package cart

import (
	"github.com/shopspring/decimal"

	"github.com/localeats/ordering/internal/domain/money"
)

// Totals holds every derived monetary field of a cart. Each field is rounded
// exactly once; recomputation on unchanged input is idempotent.
type Totals struct {
	Subtotal       money.Money
	DiscountAmount money.Money
	DeliveryFee    money.Money
	Tax            money.Money
	Tip            money.Money
	GrandTotal     money.Money
}

// ItemTotal returns the line total:
// (unit price + size adjustment + options) × quantity.
func ItemTotal(it Item) money.Money {
	unit := it.UnitPrice
	if it.Size != nil {
		unit = unit.Add(it.Size.Adjustment)
	}
	for _, a := range it.Addons {
		unit = unit.Add(a.Price)
	}
	for _, m := range it.Modifications {
		unit = unit.Add(m.Price)
	}
	return unit.Mul(it.Quantity)
}

// Subtotal sums line totals over all items.
func Subtotal(items []Item) money.Money {
	var sum money.Money
	for _, it := range items {
		sum += ItemTotal(it)
	}
	return sum
}

// ComputeTotals derives all cart totals:
//
//	subtotal   = Σ ItemTotal
//	discount   = min(discountAmount, subtotal)
//	tax        = round((subtotal − discount + deliveryFee) × taxRate)
//	grandTotal = subtotal − discount + deliveryFee + tax + tip
//
// The tip is never taxed. A discount never exceeds the subtotal.
func ComputeTotals(items []Item, deliveryFee, tip, discountAmount money.Money, taxRate decimal.Decimal) Totals {
	subtotal := Subtotal(items)

	disc := discountAmount
	if disc.IsNegative() {
		disc = 0
	}
	disc = money.Min(disc, subtotal)

	taxable := subtotal.Sub(disc).Add(deliveryFee)
	tax := taxable.MulRate(taxRate)

	return Totals{
		Subtotal:       subtotal,
		DiscountAmount: disc,
		DeliveryFee:    deliveryFee,
		Tax:            tax,
		Tip:            tip,
		GrandTotal:     subtotal.Sub(disc).Add(deliveryFee).Add(tax).Add(tip),
	}
}
