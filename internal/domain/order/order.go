// Package order holds the immutable checked-out order and the state machine
// that drives it through fulfillment.
package order

import (
	"fmt"
	"time"

	"github.com/localeats/ordering/internal/domain/cart"
	"github.com/localeats/ordering/internal/domain/money"
)

// Status is an order's fulfillment state.
type Status string

const (
	StatusReceived       Status = "order_received"
	StatusPreparing      Status = "preparing"
	StatusReady          Status = "ready"
	StatusOutForDelivery Status = "out_for_delivery"
	StatusDelivered      Status = "delivered"
	StatusCancelled      Status = "cancelled"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusReceived, StatusPreparing, StatusReady, StatusOutForDelivery,
		StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transition is permitted from s.
func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// Item is an immutable copy of a cart line frozen at checkout. It decouples
// historical orders from later menu price changes.
type Item struct {
	MenuItemID          string        `json:"menu_item_id"`
	Name                string        `json:"name"`
	UnitPrice           money.Money   `json:"unit_price"`
	Size                *cart.Size    `json:"selected_size,omitempty"`
	Addons              []cart.Option `json:"addons,omitempty"`
	Modifications       []cart.Option `json:"modifications,omitempty"`
	SpecialInstructions string        `json:"special_instructions,omitempty"`
	Quantity            int           `json:"quantity"`
	LineTotal           money.Money   `json:"line_total"`
}

// Timestamps records when each status was entered. A nil field means the
// order never reached that status.
type Timestamps struct {
	Received         *time.Time `json:"received,omitempty"`
	PreparingStarted *time.Time `json:"preparing_started,omitempty"`
	Ready            *time.Time `json:"ready,omitempty"`
	OutForDelivery   *time.Time `json:"out_for_delivery,omitempty"`
	Delivered        *time.Time `json:"delivered,omitempty"`
	Cancelled        *time.Time `json:"cancelled,omitempty"`
}

// Order is the frozen snapshot of a cart at checkout plus its lifecycle
// state. Orders are never deleted; history is append-only.
type Order struct {
	ID              string
	UserID          string
	RestaurantID    string
	Type            cart.OrderType
	DeliveryAddress string
	Items           []Item

	Subtotal       money.Money
	DiscountAmount money.Money
	DiscountID     string
	DiscountCode   string
	DeliveryFee    money.Money
	Tax            money.Money
	Tip            money.Money
	GrandTotal     money.Money

	// PaymentMethodID is an opaque reference into the payment collaborator.
	PaymentMethodID string

	Status             Status
	Timestamps         Timestamps
	CancellationReason string
	CreatedAt          time.Time
}

// InvalidTransitionError rejects an out-of-order lifecycle change. The order
// is left unchanged.
type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition from %s to %s", e.From, e.To)
}

// CancellationReasonError rejects a cancellation with no reason given.
type CancellationReasonError struct{}

func (*CancellationReasonError) Error() string {
	return "cancellation requires a non-empty reason"
}

// next returns the single forward successor of s for the given order type.
// The pickup/delivery branch is fixed at creation: pickup orders pass
// through ready, delivery orders through out_for_delivery.
func next(s Status, t cart.OrderType) Status {
	switch s {
	case StatusReceived:
		return StatusPreparing
	case StatusPreparing:
		if t == cart.OrderTypePickup {
			return StatusReady
		}
		return StatusOutForDelivery
	case StatusReady, StatusOutForDelivery:
		return StatusDelivered
	}
	return ""
}

// CanTransition reports whether the order may move to the given status.
func (o *Order) CanTransition(to Status) bool {
	if o.Status.Terminal() {
		return false
	}
	if to == StatusCancelled {
		return true
	}
	return next(o.Status, o.Type) == to
}

// Transition advances the order to the given status, stamping the matching
// timestamp. Transitions are strictly forward, no skipping or reversal;
// cancellation is reachable from any non-terminal state and requires a
// non-empty reason. On failure the order is unchanged.
func (o *Order) Transition(to Status, reason string, now time.Time) error {
	if !o.CanTransition(to) {
		return &InvalidTransitionError{From: o.Status, To: to}
	}
	if to == StatusCancelled {
		if reason == "" {
			return &CancellationReasonError{}
		}
		o.CancellationReason = reason
	}

	o.Status = to
	o.stamp(to, now)
	return nil
}

func (o *Order) stamp(s Status, now time.Time) {
	t := now
	switch s {
	case StatusReceived:
		o.Timestamps.Received = &t
	case StatusPreparing:
		o.Timestamps.PreparingStarted = &t
	case StatusReady:
		o.Timestamps.Ready = &t
	case StatusOutForDelivery:
		o.Timestamps.OutForDelivery = &t
	case StatusDelivered:
		o.Timestamps.Delivered = &t
	case StatusCancelled:
		o.Timestamps.Cancelled = &t
	}
}
