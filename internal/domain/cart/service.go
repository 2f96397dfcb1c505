package cart

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/localeats/ordering/internal/domain/discount"
	"github.com/localeats/ordering/internal/domain/menu"
	"github.com/localeats/ordering/internal/domain/money"
)

// Repository defines persistence for cart aggregates.
type Repository interface {
	// Load returns the user's cart, or a fresh empty cart when none is stored.
	Load(ctx context.Context, userID string) (*Cart, error)
	Save(ctx context.Context, c *Cart) error
}

// Service is the authoritative cart store. Every mutation is a single
// transaction: load, validate, mutate, re-validate the discount, recompute
// totals, persist, return the new snapshot.
type Service struct {
	carts     Repository
	menu      menu.Repository
	discounts discount.Evaluator
	locks     *UserLocks
	taxRate   decimal.Decimal
	now       func() time.Time
}

// NewService creates the cart service with its collaborators. The same
// UserLocks instance must be shared with the checkout path so cart mutation
// and checkout serialize against each other.
func NewService(
	carts Repository,
	catalog menu.Repository,
	discounts discount.Evaluator,
	locks *UserLocks,
	taxRate decimal.Decimal,
) *Service {
	return &Service{
		carts:     carts,
		menu:      catalog,
		discounts: discounts,
		locks:     locks,
		taxRate:   taxRate,
		now:       time.Now,
	}
}

// Result is the outcome of a cart mutation.
type Result struct {
	Cart *Cart
	// DiscountRemoved is set when a previously applied discount stopped
	// validating after this mutation and was dropped. RemovedReason carries
	// the evaluator's reason so the caller can notify the user.
	DiscountRemoved bool
	RemovedReason   discount.Reason
}

// ErrItemNotFound is returned when a line ID does not exist in the cart.
var ErrItemNotFound = errors.New("cart item not found")

// AddItemRequest describes an item to add. Unit price and name come from the
// catalog, never from the client.
type AddItemRequest struct {
	RestaurantID        string
	MenuItemID          string
	Quantity            int
	Size                *Size
	Addons              []Option
	Modifications       []Option
	SpecialInstructions string
	// ReplaceCart confirms clearing a cart bound to a different restaurant.
	// Without it, a cross-restaurant add fails with *ConflictError.
	ReplaceCart bool
}

// UpdateItemRequest modifies an existing line. Nil fields are left unchanged.
type UpdateItemRequest struct {
	Quantity            *int
	SpecialInstructions *string
}

// Get returns the current cart snapshot without mutating it.
func (s *Service) Get(ctx context.Context, userID string) (*Cart, error) {
	return s.carts.Load(ctx, userID)
}

// AddItem adds a menu item to the cart, enforcing single-restaurant
// exclusivity. Lines with identical customization merge by summing
// quantities.
func (s *Service) AddItem(ctx context.Context, userID string, req AddItemRequest) (*Result, error) {
	if req.Quantity < 1 {
		return nil, &ValidationError{Field: "quantity", Message: "must be at least 1"}
	}

	release := s.locks.Acquire(userID)
	defer release()

	c, err := s.carts.Load(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "load cart")
	}

	mi, err := s.menu.GetItem(ctx, req.MenuItemID)
	if err != nil {
		return nil, errors.Wrap(err, "lookup menu item")
	}
	if !mi.Available {
		return nil, &ValidationError{Field: "menu_item_id", Message: "item is currently unavailable"}
	}
	if mi.RestaurantID != req.RestaurantID {
		return nil, &ValidationError{Field: "restaurant_id", Message: "item does not belong to this restaurant"}
	}

	if !c.IsEmpty() && c.RestaurantID != req.RestaurantID {
		if !req.ReplaceCart {
			return nil, &ConflictError{
				CartRestaurantID: c.RestaurantID,
				ItemRestaurantID: req.RestaurantID,
			}
		}
		s.reset(c)
	}
	if c.IsEmpty() {
		c.RestaurantID = req.RestaurantID
	}

	item := Item{
		LineID:              uuid.New().String(),
		MenuItemID:          mi.ID,
		Name:                mi.Name,
		UnitPrice:           mi.Price,
		Size:                req.Size,
		Addons:              req.Addons,
		Modifications:       req.Modifications,
		SpecialInstructions: req.SpecialInstructions,
		Quantity:            req.Quantity,
	}

	if existing := findBySignature(c, item.Signature()); existing != nil {
		existing.Quantity += req.Quantity
	} else {
		c.Items = append(c.Items, item)
	}

	return s.finish(ctx, c)
}

// UpdateItem changes a line's quantity or special instructions. A quantity
// of zero or less removes the line.
func (s *Service) UpdateItem(ctx context.Context, userID, lineID string, req UpdateItemRequest) (*Result, error) {
	release := s.locks.Acquire(userID)
	defer release()

	c, err := s.carts.Load(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "load cart")
	}

	idx := findLine(c, lineID)
	if idx < 0 {
		return nil, ErrItemNotFound
	}

	if req.Quantity != nil {
		if *req.Quantity <= 0 {
			c.Items = append(c.Items[:idx], c.Items[idx+1:]...)
			return s.finish(ctx, c)
		}
		c.Items[idx].Quantity = *req.Quantity
	}
	if req.SpecialInstructions != nil {
		c.Items[idx].SpecialInstructions = *req.SpecialInstructions
	}

	return s.finish(ctx, c)
}

// RemoveItem deletes a line from the cart.
func (s *Service) RemoveItem(ctx context.Context, userID, lineID string) (*Result, error) {
	release := s.locks.Acquire(userID)
	defer release()

	c, err := s.carts.Load(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "load cart")
	}

	idx := findLine(c, lineID)
	if idx < 0 {
		return nil, ErrItemNotFound
	}
	c.Items = append(c.Items[:idx], c.Items[idx+1:]...)

	return s.finish(ctx, c)
}

// Clear empties the cart and drops all bindings.
func (s *Service) Clear(ctx context.Context, userID string) (*Result, error) {
	release := s.locks.Acquire(userID)
	defer release()

	c, err := s.carts.Load(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "load cart")
	}
	s.reset(c)

	return s.finish(ctx, c)
}

// SetOrderType switches between delivery and pickup. The delivery fee only
// applies to delivery carts; pickup carts carry a zero fee.
func (s *Service) SetOrderType(ctx context.Context, userID string, t OrderType) (*Result, error) {
	if !t.Valid() {
		return nil, &ValidationError{Field: "order_type", Message: "must be delivery or pickup"}
	}

	release := s.locks.Acquire(userID)
	defer release()

	c, err := s.carts.Load(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "load cart")
	}
	c.OrderType = t

	return s.finish(ctx, c)
}

// SetDeliveryAddress records the delivery address on the cart.
func (s *Service) SetDeliveryAddress(ctx context.Context, userID, address string) (*Result, error) {
	if address == "" {
		return nil, &ValidationError{Field: "delivery_address", Message: "must not be empty"}
	}

	release := s.locks.Acquire(userID)
	defer release()

	c, err := s.carts.Load(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "load cart")
	}
	c.DeliveryAddress = address

	return s.finish(ctx, c)
}

// SetTip records the tip amount. Tips are not taxed.
func (s *Service) SetTip(ctx context.Context, userID string, tip money.Money) (*Result, error) {
	if tip.IsNegative() {
		return nil, &ValidationError{Field: "tip", Message: "must not be negative"}
	}

	release := s.locks.Acquire(userID)
	defer release()

	c, err := s.carts.Load(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "load cart")
	}
	c.Tip = tip

	return s.finish(ctx, c)
}

// ApplyDiscount evaluates a code against the cart and applies it. Discount
// errors are returned with their reason code intact.
func (s *Service) ApplyDiscount(ctx context.Context, userID, code string) (*Result, error) {
	if code == "" {
		return nil, &ValidationError{Field: "code", Message: "must not be empty"}
	}

	release := s.locks.Acquire(userID)
	defer release()

	c, err := s.carts.Load(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "load cart")
	}
	if c.IsEmpty() {
		return nil, &ValidationError{Field: "code", Message: "cart is empty"}
	}

	applied, err := s.discounts.Evaluate(ctx, basketOf(c), code)
	if err != nil {
		return nil, err
	}
	c.Discount = applied

	return s.finish(ctx, c)
}

// RemoveDiscount drops the applied discount. It always succeeds.
func (s *Service) RemoveDiscount(ctx context.Context, userID string) (*Result, error) {
	release := s.locks.Acquire(userID)
	defer release()

	c, err := s.carts.Load(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "load cart")
	}
	c.Discount = nil

	return s.finish(ctx, c)
}

// finish re-validates the discount, recomputes all totals, persists the cart
// and returns the snapshot. Every mutation funnels through here.
func (s *Service) finish(ctx context.Context, c *Cart) (*Result, error) {
	res := &Result{Cart: c}

	if c.IsEmpty() {
		s.reset(c)
	}

	// A discount can stop validating after a cart change, e.g. the subtotal
	// dropping below the rule's minimum. It is then removed automatically
	// and the caller is told why.
	if c.Discount != nil {
		applied, err := s.discounts.Evaluate(ctx, basketOf(c), c.Discount.Code)
		if err != nil {
			var de *discount.Error
			if !errors.As(err, &de) {
				return nil, errors.Wrap(err, "revalidate discount")
			}
			c.Discount = nil
			res.DiscountRemoved = true
			res.RemovedReason = de.Reason
		} else {
			c.Discount = applied
		}
	}

	fee, err := s.deliveryFee(ctx, c)
	if err != nil {
		return nil, err
	}

	totals := ComputeTotals(c.Items, fee, c.Tip, c.DiscountAmount(), s.taxRate)
	c.Subtotal = totals.Subtotal
	c.DeliveryFee = totals.DeliveryFee
	c.Tax = totals.Tax
	c.GrandTotal = totals.GrandTotal
	if c.Discount != nil {
		c.Discount.Amount = totals.DiscountAmount
	}
	c.UpdatedAt = s.now()

	if err := s.carts.Save(ctx, c); err != nil {
		return nil, errors.Wrap(err, "save cart")
	}
	return res, nil
}

// deliveryFee resolves the restaurant's fee for delivery carts, zero
// otherwise.
func (s *Service) deliveryFee(ctx context.Context, c *Cart) (money.Money, error) {
	if c.OrderType != OrderTypeDelivery || c.RestaurantID == "" {
		return 0, nil
	}
	r, err := s.menu.GetRestaurant(ctx, c.RestaurantID)
	if err != nil {
		return 0, errors.Wrap(err, "lookup restaurant")
	}
	return r.DeliveryFee, nil
}

// reset drops items and every binding. An empty cart carries no restaurant,
// order type, address, discount, or tip.
func (s *Service) reset(c *Cart) {
	c.Items = nil
	c.RestaurantID = ""
	c.OrderType = ""
	c.DeliveryAddress = ""
	c.Discount = nil
	c.Tip = 0
}

func basketOf(c *Cart) discount.Basket {
	items := make([]discount.Item, len(c.Items))
	for i, it := range c.Items {
		items[i] = discount.Item{
			MenuItemID: it.MenuItemID,
			LineTotal:  ItemTotal(it),
		}
	}
	return discount.Basket{
		UserID:       c.UserID,
		RestaurantID: c.RestaurantID,
		Items:        items,
	}
}

func findLine(c *Cart, lineID string) int {
	for i := range c.Items {
		if c.Items[i].LineID == lineID {
			return i
		}
	}
	return -1
}

func findBySignature(c *Cart, sig string) *Item {
	for i := range c.Items {
		if c.Items[i].Signature() == sig {
			return &c.Items[i]
		}
	}
	return nil
}
