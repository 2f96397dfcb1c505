// Package reorder rebuilds a cart seed from a historical order.
package reorder

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/localeats/ordering/internal/domain/cart"
	"github.com/localeats/ordering/internal/domain/menu"
	"github.com/localeats/ordering/internal/domain/order"
)

// Seed is the reconstructed cart content. Items carry current menu prices:
// this is a new cart, not a refund of the old one, so price drift since the
// original order is expected. Omitted counts items that no longer exist on
// the menu (or are unavailable) so the caller can tell the user.
type Seed struct {
	RestaurantID string      `json:"restaurant_id"`
	Items        []cart.Item `json:"items"`
	Omitted      int         `json:"omitted_items"`
}

// Service reconstructs carts from past orders.
type Service struct {
	orders order.Repository
	menu   menu.Repository
}

// NewService creates a reorder service.
func NewService(orders order.Repository, catalog menu.Repository) *Service {
	return &Service{orders: orders, menu: catalog}
}

// Rebuild fetches the order and copies each historical line back into cart
// shape, repricing from the current menu in a single batch lookup.
// Applying the seed to a live cart goes through the cart service and is
// subject to its restaurant-conflict policy.
func (s *Service) Rebuild(ctx context.Context, orderID string) (*Seed, error) {
	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(o.Items))
	for i, it := range o.Items {
		ids[i] = it.MenuItemID
	}

	current, err := s.menu.GetItems(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "lookup menu items")
	}
	byID := make(map[string]menu.Item, len(current))
	for _, mi := range current {
		byID[mi.ID] = mi
	}

	seed := &Seed{RestaurantID: o.RestaurantID}
	for _, it := range o.Items {
		mi, ok := byID[it.MenuItemID]
		if !ok || !mi.Available {
			seed.Omitted++
			continue
		}
		seed.Items = append(seed.Items, cart.Item{
			MenuItemID:          it.MenuItemID,
			Name:                mi.Name,
			UnitPrice:           mi.Price,
			Size:                it.Size,
			Addons:              it.Addons,
			Modifications:       it.Modifications,
			SpecialInstructions: it.SpecialInstructions,
			Quantity:            it.Quantity,
		})
	}
	return seed, nil
}
