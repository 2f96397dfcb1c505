// Package cart owns the per-user shopping cart aggregate: its item list,
// restaurant binding, order type, and recomputed totals.
package cart

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/localeats/ordering/internal/domain/discount"
	"github.com/localeats/ordering/internal/domain/money"
)

// OrderType selects the fulfillment branch an order will follow.
type OrderType string

const (
	OrderTypeDelivery OrderType = "delivery"
	OrderTypePickup   OrderType = "pickup"
)

// Valid reports whether t is a known order type.
func (t OrderType) Valid() bool {
	return t == OrderTypeDelivery || t == OrderTypePickup
}

// Option is a priced customization (add-on or modification) on a cart item.
type Option struct {
	Name  string      `json:"name"`
	Price money.Money `json:"price"`
}

// Size is an optional size selection with a price adjustment.
type Size struct {
	Name       string      `json:"name"`
	Adjustment money.Money `json:"price_adjustment"`
}

// Item is a single cart line. Items are owned exclusively by the cart that
// contains them and are destroyed on removal or clear.
type Item struct {
	// LineID addresses the line in mutation requests. Assigned on add.
	LineID              string      `json:"line_id"`
	MenuItemID          string      `json:"menu_item_id"`
	Name                string      `json:"name"`
	UnitPrice           money.Money `json:"unit_price"`
	Size                *Size       `json:"selected_size,omitempty"`
	Addons              []Option    `json:"addons,omitempty"`
	Modifications       []Option    `json:"modifications,omitempty"`
	SpecialInstructions string      `json:"special_instructions,omitempty"`
	Quantity            int         `json:"quantity"`
}

// Signature is the item's identity within a cart: menu item plus the full
// customization set. Two lines with equal signatures are merged by summing
// quantities instead of duplicated.
func (i Item) Signature() string {
	var b strings.Builder
	b.WriteString(i.MenuItemID)
	b.WriteByte('|')
	if i.Size != nil {
		b.WriteString(i.Size.Name)
	}
	b.WriteByte('|')
	b.WriteString(optionNames(i.Addons))
	b.WriteByte('|')
	b.WriteString(optionNames(i.Modifications))
	return b.String()
}

func optionNames(opts []Option) string {
	names := make([]string, len(opts))
	for i, o := range opts {
		names[i] = o.Name
	}
	sort.Strings(names)
	return strings.Join(names, ",")
}

// Cart is the mutable pre-checkout aggregate for one user. An empty cart
// carries no restaurant binding.
type Cart struct {
	UserID          string            `json:"user_id"`
	RestaurantID    string            `json:"restaurant_id,omitempty"`
	Items           []Item            `json:"items"`
	OrderType       OrderType         `json:"order_type,omitempty"`
	DeliveryAddress string            `json:"delivery_address,omitempty"`
	Discount        *discount.Applied `json:"applied_discount,omitempty"`
	Tip             money.Money       `json:"tip"`
	Subtotal        money.Money       `json:"subtotal"`
	DeliveryFee     money.Money       `json:"delivery_fee"`
	Tax             money.Money       `json:"tax"`
	GrandTotal      money.Money       `json:"grand_total"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// IsEmpty reports whether the cart holds no items.
func (c *Cart) IsEmpty() bool { return len(c.Items) == 0 }

// DiscountAmount returns the applied discount magnitude, or zero.
func (c *Cart) DiscountAmount() money.Money {
	if c.Discount == nil {
		return 0
	}
	return c.Discount.Amount
}

// ValidationError rejects a malformed mutation before any state changes.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// ConflictError signals that an item from another restaurant was added to a
// non-empty cart. The caller must confirm replacement explicitly; the store
// never resolves the conflict silently.
type ConflictError struct {
	CartRestaurantID string
	ItemRestaurantID string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("cart is bound to restaurant %s, cannot add item from restaurant %s without replacing the cart",
		e.CartRestaurantID, e.ItemRestaurantID)
}
