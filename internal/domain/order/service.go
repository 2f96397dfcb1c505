package order

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/localeats/ordering/internal/domain/cart"
	"github.com/localeats/ordering/internal/domain/menu"
	"github.com/localeats/ordering/internal/domain/money"
)

// Sentinel errors for checkout validation.
var (
	ErrEmptyCart = errors.New("cart is empty")
	ErrNotFound  = errors.New("order not found")
)

// MinimumOrderNotMetError blocks checkout when the cart subtotal is below
// the restaurant's minimum. It never blocks cart mutation.
type MinimumOrderNotMetError struct {
	Minimum  money.Money
	Subtotal money.Money
}

func (e *MinimumOrderNotMetError) Error() string {
	return fmt.Sprintf("order minimum is %s, cart subtotal is %s", e.Minimum, e.Subtotal)
}

// Repository defines persistence operations for orders.
type Repository interface {
	// CreateAndClearCart persists the order and deletes the user's cart in
	// one transaction. Either both happen or neither does.
	CreateAndClearCart(ctx context.Context, o *Order) error
	Get(ctx context.Context, id string) (*Order, error)
	ListByUser(ctx context.Context, userID string) ([]Order, error)
	// UpdateStatus persists the order's status, timestamps, and
	// cancellation reason.
	UpdateStatus(ctx context.Context, o *Order) error
}

// Service drives checkout and lifecycle transitions.
type Service struct {
	orders Repository
	carts  cart.Repository
	menu   menu.Repository
	locks  *cart.UserLocks
	now    func() time.Time
}

// NewService creates the order service. The UserLocks instance must be the
// one the cart service uses, so checkout serializes with cart mutation.
func NewService(
	orders Repository,
	carts cart.Repository,
	catalog menu.Repository,
	locks *cart.UserLocks,
) *Service {
	return &Service{
		orders: orders,
		carts:  carts,
		menu:   catalog,
		locks:  locks,
		now:    time.Now,
	}
}

// CheckoutRequest carries the caller's checkout input. The payment method
// reference is opaque to this engine.
type CheckoutRequest struct {
	PaymentMethodID string
}

// Checkout freezes the user's cart into an order and clears the cart
// atomically. The cart must be non-empty, have an order type, and for
// delivery an address; the restaurant's minimum order amount is enforced
// here and only here.
func (s *Service) Checkout(ctx context.Context, userID string, req CheckoutRequest) (*Order, error) {
	release := s.locks.Acquire(userID)
	defer release()

	c, err := s.carts.Load(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "load cart")
	}
	if c.IsEmpty() {
		return nil, ErrEmptyCart
	}
	if !c.OrderType.Valid() {
		return nil, &cart.ValidationError{Field: "order_type", Message: "must be set before checkout"}
	}
	if c.OrderType == cart.OrderTypeDelivery && c.DeliveryAddress == "" {
		return nil, &cart.ValidationError{Field: "delivery_address", Message: "required for delivery orders"}
	}
	if req.PaymentMethodID == "" {
		return nil, &cart.ValidationError{Field: "payment_method_id", Message: "must not be empty"}
	}

	r, err := s.menu.GetRestaurant(ctx, c.RestaurantID)
	if err != nil {
		return nil, errors.Wrap(err, "lookup restaurant")
	}
	if r.MinimumOrder > 0 && c.Subtotal < r.MinimumOrder {
		return nil, &MinimumOrderNotMetError{Minimum: r.MinimumOrder, Subtotal: c.Subtotal}
	}

	o := freeze(c, req.PaymentMethodID, s.now())
	if err := s.orders.CreateAndClearCart(ctx, o); err != nil {
		return nil, errors.Wrap(err, "create order")
	}
	return o, nil
}

// Get returns a single order.
func (s *Service) Get(ctx context.Context, id string) (*Order, error) {
	return s.orders.Get(ctx, id)
}

// ListByUser returns the user's order history, newest first.
func (s *Service) ListByUser(ctx context.Context, userID string) ([]Order, error) {
	return s.orders.ListByUser(ctx, userID)
}

// UpdateStatus applies a lifecycle transition and persists it. Rejected
// transitions leave the stored order untouched.
func (s *Service) UpdateStatus(ctx context.Context, orderID string, to Status, reason string) (*Order, error) {
	if !to.Valid() {
		return nil, &InvalidTransitionError{To: to}
	}

	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if err := o.Transition(to, reason, s.now()); err != nil {
		return nil, err
	}

	if err := s.orders.UpdateStatus(ctx, o); err != nil {
		return nil, errors.Wrap(err, "persist status")
	}
	return o, nil
}

// freeze copies the priced cart into an immutable order snapshot in the
// order_received state.
func freeze(c *cart.Cart, paymentMethodID string, now time.Time) *Order {
	items := make([]Item, len(c.Items))
	for i, it := range c.Items {
		items[i] = Item{
			MenuItemID:          it.MenuItemID,
			Name:                it.Name,
			UnitPrice:           it.UnitPrice,
			Size:                it.Size,
			Addons:              it.Addons,
			Modifications:       it.Modifications,
			SpecialInstructions: it.SpecialInstructions,
			Quantity:            it.Quantity,
			LineTotal:           cart.ItemTotal(it),
		}
	}

	o := &Order{
		ID:              uuid.New().String(),
		UserID:          c.UserID,
		RestaurantID:    c.RestaurantID,
		Type:            c.OrderType,
		DeliveryAddress: c.DeliveryAddress,
		Items:           items,
		Subtotal:        c.Subtotal,
		DiscountAmount:  c.DiscountAmount(),
		DeliveryFee:     c.DeliveryFee,
		Tax:             c.Tax,
		Tip:             c.Tip,
		GrandTotal:      c.GrandTotal,
		PaymentMethodID: paymentMethodID,
		Status:          StatusReceived,
		CreatedAt:       now,
	}
	if c.Discount != nil {
		o.DiscountID = c.Discount.DiscountID
		o.DiscountCode = c.Discount.Code
	}
	o.stamp(StatusReceived, now)
	return o
}
