package reorder

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localeats/ordering/internal/domain/cart"
	"github.com/localeats/ordering/internal/domain/menu"
	"github.com/localeats/ordering/internal/domain/money"
	"github.com/localeats/ordering/internal/domain/order"
)

type mockOrderRepo struct {
	order *order.Order
}

func (m *mockOrderRepo) CreateAndClearCart(_ context.Context, _ *order.Order) error { return nil }
func (m *mockOrderRepo) ListByUser(_ context.Context, _ string) ([]order.Order, error) {
	return nil, nil
}
func (m *mockOrderRepo) UpdateStatus(_ context.Context, _ *order.Order) error { return nil }

func (m *mockOrderRepo) Get(_ context.Context, _ string) (*order.Order, error) {
	if m.order == nil {
		return nil, order.ErrNotFound
	}
	return m.order, nil
}

type mockMenu struct {
	items map[string]menu.Item
}

func (m *mockMenu) GetItem(_ context.Context, id string) (*menu.Item, error) {
	it, ok := m.items[id]
	if !ok {
		return nil, menu.ErrNotFound
	}
	return &it, nil
}

func (m *mockMenu) GetItems(_ context.Context, ids []string) ([]menu.Item, error) {
	var out []menu.Item
	for _, id := range ids {
		if it, ok := m.items[id]; ok {
			out = append(out, it)
		}
	}
	return out, nil
}

func (m *mockMenu) ListByRestaurant(_ context.Context, _ string) ([]menu.Item, error) {
	return nil, nil
}

func (m *mockMenu) GetRestaurant(_ context.Context, _ string) (*menu.Restaurant, error) {
	return nil, menu.ErrNotFound
}

func historicalOrder() *order.Order {
	return &order.Order{
		ID:           "o1",
		UserID:       "u1",
		RestaurantID: "r1",
		Items: []order.Item{
			{
				MenuItemID: "m1",
				Name:       "Margherita",
				UnitPrice:  1000, // price at order time
				Addons:     []cart.Option{{Name: "extra cheese", Price: 150}},
				Quantity:   2,
			},
			{MenuItemID: "m2", Name: "Tiramisu", UnitPrice: 650, Quantity: 1},
			{MenuItemID: "m3", Name: "Retired Dish", UnitPrice: 900, Quantity: 1},
		},
	}
}

func TestRebuild(t *testing.T) {
	catalog := &mockMenu{items: map[string]menu.Item{
		// Price went up since the original order.
		"m1": {ID: "m1", RestaurantID: "r1", Name: "Margherita", Price: 1100, Available: true},
		"m2": {ID: "m2", RestaurantID: "r1", Name: "Tiramisu", Price: 650, Available: true},
		// m3 is gone from the menu.
	}}
	svc := NewService(&mockOrderRepo{order: historicalOrder()}, catalog)

	seed, err := svc.Rebuild(context.Background(), "o1")
	require.NoError(t, err)

	assert.Equal(t, "r1", seed.RestaurantID)
	assert.Equal(t, 1, seed.Omitted)
	require.Len(t, seed.Items, 2)

	// Current price wins; customization and quantity survive.
	assert.Equal(t, money.Money(1100), seed.Items[0].UnitPrice)
	assert.Equal(t, 2, seed.Items[0].Quantity)
	assert.Equal(t, []cart.Option{{Name: "extra cheese", Price: 150}}, seed.Items[0].Addons)
}

func TestRebuild_UnavailableItemOmitted(t *testing.T) {
	catalog := &mockMenu{items: map[string]menu.Item{
		"m1": {ID: "m1", RestaurantID: "r1", Name: "Margherita", Price: 1000, Available: false},
		"m2": {ID: "m2", RestaurantID: "r1", Name: "Tiramisu", Price: 650, Available: true},
	}}
	svc := NewService(&mockOrderRepo{order: historicalOrder()}, catalog)

	seed, err := svc.Rebuild(context.Background(), "o1")
	require.NoError(t, err)

	assert.Equal(t, 2, seed.Omitted)
	require.Len(t, seed.Items, 1)
	assert.Equal(t, "m2", seed.Items[0].MenuItemID)
}

func TestRebuild_UnknownOrder(t *testing.T) {
	svc := NewService(&mockOrderRepo{}, &mockMenu{})

	_, err := svc.Rebuild(context.Background(), "missing")

	assert.ErrorIs(t, err, order.ErrNotFound)
}
