// Package menu defines the catalog collaborator consumed by the cart and
// reorder services. The engine only reads from it.
package menu

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/localeats/ordering/internal/domain/money"
)

// ErrNotFound is returned when a requested menu item or restaurant
// does not exist.
var ErrNotFound = errors.New("not found")

// Item is a purchasable menu entry.
type Item struct {
	ID           string
	RestaurantID string
	Name         string
	Price        money.Money
	Category     string
	Available    bool
}

// Restaurant carries the per-restaurant pricing parameters the engine needs.
type Restaurant struct {
	ID           string
	Name         string
	DeliveryFee  money.Money
	MinimumOrder money.Money
}

// Repository defines read operations against the catalog.
type Repository interface {
	GetItem(ctx context.Context, id string) (*Item, error)
	// GetItems fetches a batch of items in one query. Missing IDs are
	// simply absent from the result, not an error.
	GetItems(ctx context.Context, ids []string) ([]Item, error)
	ListByRestaurant(ctx context.Context, restaurantID string) ([]Item, error)
	GetRestaurant(ctx context.Context, id string) (*Restaurant, error)
}
