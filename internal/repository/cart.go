package repository

import (
	"context"
	"encoding/json"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/localeats/ordering/internal/domain/cart"
)

// CartRepository persists cart aggregates as single JSONB documents,
// keyed by user.
type CartRepository struct {
	pool *pgxpool.Pool
}

func NewCartRepository(pool *pgxpool.Pool) *CartRepository {
	return &CartRepository{pool: pool}
}

// Load returns the user's cart, or a fresh empty cart when none is stored.
func (r *CartRepository) Load(ctx context.Context, userID string) (*cart.Cart, error) {
	var data []byte
	err := r.pool.QueryRow(ctx,
		`SELECT data FROM carts WHERE user_id = $1`, userID,
	).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return &cart.Cart{UserID: userID}, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "query cart")
	}

	var c cart.Cart
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, errors.Wrap(err, "decode cart")
	}
	c.UserID = userID

	return &c, nil
}

func (r *CartRepository) Save(ctx context.Context, c *cart.Cart) error {
	data, err := json.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "encode cart")
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO carts (user_id, data, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id)
		DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`,
		c.UserID, data, c.UpdatedAt,
	)
	if err != nil {
		return errors.Wrap(err, "save cart")
	}

	return nil
}
