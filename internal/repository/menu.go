package repository

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/localeats/ordering/internal/domain/menu"
)

// MenuRepository reads the menu catalog: restaurants and their items.
type MenuRepository struct {
	pool *pgxpool.Pool
}

func NewMenuRepository(pool *pgxpool.Pool) *MenuRepository {
	return &MenuRepository{pool: pool}
}

const menuItemColumns = `id, restaurant_id, name, price_cents, category, available`

func scanMenuItem(row pgx.Row) (menu.Item, error) {
	var item menu.Item
	err := row.Scan(
		&item.ID,
		&item.RestaurantID,
		&item.Name,
		&item.Price,
		&item.Category,
		&item.Available,
	)
	return item, err
}

func (r *MenuRepository) GetItem(ctx context.Context, id string) (*menu.Item, error) {
	item, err := scanMenuItem(r.pool.QueryRow(ctx,
		`SELECT `+menuItemColumns+` FROM menu_items WHERE id = $1`, id,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, menu.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "query menu item")
	}
	return &item, nil
}

// GetItems fetches a batch of items by ID. Unknown IDs are simply absent
// from the result.
func (r *MenuRepository) GetItems(ctx context.Context, ids []string) ([]menu.Item, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+menuItemColumns+` FROM menu_items WHERE id = ANY($1)`, ids,
	)
	if err != nil {
		return nil, errors.Wrap(err, "query menu items")
	}
	defer rows.Close()

	return collectMenuItems(rows)
}

func (r *MenuRepository) ListByRestaurant(ctx context.Context, restaurantID string) ([]menu.Item, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+menuItemColumns+` FROM menu_items WHERE restaurant_id = $1 ORDER BY category, name`,
		restaurantID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "query restaurant menu")
	}
	defer rows.Close()

	return collectMenuItems(rows)
}

func collectMenuItems(rows pgx.Rows) ([]menu.Item, error) {
	var items []menu.Item
	for rows.Next() {
		item, err := scanMenuItem(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan menu item")
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate menu items")
	}
	return items, nil
}

func (r *MenuRepository) GetRestaurant(ctx context.Context, id string) (*menu.Restaurant, error) {
	var rest menu.Restaurant
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, delivery_fee_cents, minimum_order_cents FROM restaurants WHERE id = $1`, id,
	).Scan(&rest.ID, &rest.Name, &rest.DeliveryFee, &rest.MinimumOrder)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, menu.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "query restaurant")
	}
	return &rest, nil
}
