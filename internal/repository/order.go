package repository

import (
	"context"
	"encoding/json"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/localeats/ordering/internal/domain/order"
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
// Order items and status timestamps are serialized to JSONB columns.
type OrderRepository struct {
	pool *pgxpool.Pool
}

func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

const orderColumns = `id, user_id, restaurant_id, order_type, delivery_address, items,
	subtotal_cents, discount_cents, discount_id, discount_code,
	delivery_fee_cents, tax_cents, tip_cents, grand_total_cents,
	payment_method_id, status, status_timestamps, cancellation_reason, created_at`

// CreateAndClearCart inserts the order and deletes the user's cart in a
// single transaction, so checkout either fully succeeds or leaves the cart
// untouched.
func (r *OrderRepository) CreateAndClearCart(ctx context.Context, o *order.Order) error {
	items, err := json.Marshal(o.Items)
	if err != nil {
		return errors.Wrap(err, "encode order items")
	}
	stamps, err := json.Marshal(o.Timestamps)
	if err != nil {
		return errors.Wrap(err, "encode status timestamps")
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "begin transaction")
	}
	defer tx.Rollback(ctx)

	var discountID *string
	if o.DiscountID != "" {
		discountID = &o.DiscountID
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO orders (id, user_id, restaurant_id, order_type, delivery_address, items,
			subtotal_cents, discount_cents, discount_id, discount_code,
			delivery_fee_cents, tax_cents, tip_cents, grand_total_cents,
			payment_method_id, status, status_timestamps, cancellation_reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`,
		o.ID, o.UserID, o.RestaurantID, o.Type, o.DeliveryAddress, items,
		o.Subtotal, o.DiscountAmount, discountID, o.DiscountCode,
		o.DeliveryFee, o.Tax, o.Tip, o.GrandTotal,
		o.PaymentMethodID, o.Status, stamps, o.CancellationReason, o.CreatedAt,
	)
	if err != nil {
		return errors.Wrap(err, "insert order")
	}

	if _, err := tx.Exec(ctx, `DELETE FROM carts WHERE user_id = $1`, o.UserID); err != nil {
		return errors.Wrap(err, "clear cart")
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.Wrap(err, "commit transaction")
	}

	return nil
}

func scanOrder(row pgx.Row) (*order.Order, error) {
	var (
		o          order.Order
		items      []byte
		stamps     []byte
		discountID *string
	)
	err := row.Scan(
		&o.ID, &o.UserID, &o.RestaurantID, &o.Type, &o.DeliveryAddress, &items,
		&o.Subtotal, &o.DiscountAmount, &discountID, &o.DiscountCode,
		&o.DeliveryFee, &o.Tax, &o.Tip, &o.GrandTotal,
		&o.PaymentMethodID, &o.Status, &stamps, &o.CancellationReason, &o.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if discountID != nil {
		o.DiscountID = *discountID
	}
	if err := json.Unmarshal(items, &o.Items); err != nil {
		return nil, errors.Wrap(err, "decode order items")
	}
	if err := json.Unmarshal(stamps, &o.Timestamps); err != nil {
		return nil, errors.Wrap(err, "decode status timestamps")
	}

	return &o, nil
}

func (r *OrderRepository) Get(ctx context.Context, id string) (*order.Order, error) {
	o, err := scanOrder(r.pool.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1`, id,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, order.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "query order")
	}
	return o, nil
}

func (r *OrderRepository) ListByUser(ctx context.Context, userID string) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "query orders")
	}
	defer rows.Close()

	var out []order.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan order")
		}
		out = append(out, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate orders")
	}

	return out, nil
}

func (r *OrderRepository) UpdateStatus(ctx context.Context, o *order.Order) error {
	stamps, err := json.Marshal(o.Timestamps)
	if err != nil {
		return errors.Wrap(err, "encode status timestamps")
	}

	tag, err := r.pool.Exec(ctx, `
		UPDATE orders
		SET status = $2, status_timestamps = $3, cancellation_reason = $4
		WHERE id = $1`,
		o.ID, o.Status, stamps, o.CancellationReason,
	)
	if err != nil {
		return errors.Wrap(err, "update order status")
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}

	return nil
}
