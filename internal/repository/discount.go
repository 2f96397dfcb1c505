package repository

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/localeats/ordering/internal/domain/discount"
	"github.com/localeats/ordering/internal/domain/order"
)

// DiscountRepository reads discount rules and counts redemptions from the
// order history.
type DiscountRepository struct {
	pool *pgxpool.Pool
}

func NewDiscountRepository(pool *pgxpool.Pool) *DiscountRepository {
	return &DiscountRepository{pool: pool}
}

// FindByCode looks a rule up by its code, case-insensitively.
func (r *DiscountRepository) FindByCode(ctx context.Context, code string) (*discount.Rule, error) {
	var (
		rule discount.Rule
		days []int32
	)
	err := r.pool.QueryRow(ctx, `
		SELECT id, restaurant_id, code, discount_type, value, description, active,
		       start_date, end_date, valid_days, minimum_order_cents,
		       max_per_user, total_limit, excluded_items
		FROM discounts
		WHERE UPPER(code) = UPPER($1)`, code,
	).Scan(
		&rule.ID,
		&rule.RestaurantID,
		&rule.Code,
		&rule.Type,
		&rule.Value,
		&rule.Description,
		&rule.Active,
		&rule.StartDate,
		&rule.EndDate,
		&days,
		&rule.MinimumOrder,
		&rule.MaxPerUser,
		&rule.TotalLimit,
		&rule.ExcludedItems,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &discount.Error{Reason: discount.ReasonNotFound}
	}
	if err != nil {
		return nil, errors.Wrap(err, "query discount")
	}

	rule.ValidDays = make([]time.Weekday, len(days))
	for i, d := range days {
		rule.ValidDays[i] = time.Weekday(d)
	}

	return &rule, nil
}

// RedemptionCounts reports how many non-cancelled orders redeemed the
// discount, for the given user and overall.
func (r *DiscountRepository) RedemptionCounts(ctx context.Context, userID, discountID string) (user, total int, err error) {
	err = r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FILTER (WHERE user_id = $1), COUNT(*)
		FROM orders
		WHERE discount_id = $2 AND status <> $3`,
		userID, discountID, order.StatusCancelled,
	).Scan(&user, &total)
	if err != nil {
		return 0, 0, errors.Wrap(err, "count redemptions")
	}
	return user, total, nil
}
