// Package discount implements restaurant-scoped discount codes and the
// evaluator that validates them against a cart.
package discount

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/localeats/ordering/internal/domain/money"
)

// Type enumerates the supported discount strategies.
type Type string

const (
	// TypePercentage discounts a percentage of the eligible subtotal.
	TypePercentage Type = "percentage"
	// TypeFixed discounts a fixed amount, capped at the eligible subtotal.
	TypeFixed Type = "fixed_amount"
)

// Reason identifies why a discount was refused. Reasons are surfaced
// verbatim to the UI so the caller can render a precise message.
type Reason string

const (
	ReasonNotFound        Reason = "not_found"
	ReasonExpired         Reason = "expired"
	ReasonNotYetValid     Reason = "not_yet_valid"
	ReasonNotValidToday   Reason = "not_valid_today"
	ReasonMinimumNotMet   Reason = "minimum_not_met"
	ReasonWrongRestaurant Reason = "wrong_restaurant"
	ReasonRedemptionLimit Reason = "redemption_limit"
)

// Error is a refusal with a machine-readable reason code.
type Error struct {
	Reason Reason
}

func (e *Error) Error() string {
	return fmt.Sprintf("discount refused: %s", e.Reason)
}

// Rule defines a single discount code and its eligibility constraints.
// Rules are always scoped to one restaurant, never global.
type Rule struct {
	ID           string
	RestaurantID string
	Code         string
	Type         Type
	Value        decimal.Decimal
	Description  string
	Active       bool
	StartDate    *time.Time
	EndDate      *time.Time
	// ValidDays restricts redemption to certain weekdays. Empty means all days.
	ValidDays []time.Weekday
	// MinimumOrder is the minimum cart subtotal. Zero means no minimum.
	MinimumOrder money.Money
	// MaxPerUser caps redemptions per user. Zero means unlimited.
	MaxPerUser int
	// TotalLimit caps redemptions across all users. Zero means unlimited.
	TotalLimit int
	// ExcludedItems lists menu item IDs that do not count toward the
	// discount base.
	ExcludedItems []string
}

// Applied is the result of a successful evaluation, bound to the cart it was
// computed for. Amount is recomputed whenever the cart changes.
type Applied struct {
	DiscountID string          `json:"discount_id"`
	Code       string          `json:"code"`
	Type       Type            `json:"type"`
	Value      decimal.Decimal `json:"value"`
	Amount     money.Money     `json:"computed_amount"`
}

// Item is a cart line as seen by the evaluator.
type Item struct {
	MenuItemID string
	LineTotal  money.Money
}

// Basket is the cart context a code is evaluated against.
type Basket struct {
	UserID       string
	RestaurantID string
	Items        []Item
}

// Subtotal returns the sum of all line totals.
func (b Basket) Subtotal() money.Money {
	var sum money.Money
	for _, it := range b.Items {
		sum += it.LineTotal
	}
	return sum
}

// Repository provides lookup of discount rules by code.
type Repository interface {
	// FindByCode returns the rule for code, or (*Error){ReasonNotFound}
	// when no such code exists.
	FindByCode(ctx context.Context, code string) (*Rule, error)
}

// RedemptionCounter reports how many times a discount has been redeemed.
// Counts come from the order-history store, not from this package.
type RedemptionCounter interface {
	RedemptionCounts(ctx context.Context, userID, discountID string) (user, total int, err error)
}

// Amount computes the discount value against the given base.
// A discount never exceeds the base it is computed on.
func Amount(typ Type, value decimal.Decimal, base money.Money) money.Money {
	var amount money.Money
	switch typ {
	case TypePercentage:
		amount = base.Percent(value)
	case TypeFixed:
		amount = money.Min(money.FromDecimal(value), base)
	}
	if amount.IsNegative() {
		return money.Zero
	}
	return money.Min(amount, base)
}
