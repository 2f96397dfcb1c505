// Command seed-db loads development fixture data: restaurants, menu items,
// and discount rules.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/localeats/ordering/internal/repository"
)

func main() {
	var databaseURL string
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL string) error {
	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedRestaurants(ctx, pool); err != nil {
		return errors.Wrap(err, "seed restaurants")
	}
	if err := seedMenuItems(ctx, pool); err != nil {
		return errors.Wrap(err, "seed menu items")
	}
	if err := seedDiscounts(ctx, pool); err != nil {
		return errors.Wrap(err, "seed discounts")
	}

	return nil
}

type restaurantSeed struct {
	id, name     string
	deliveryFee  int64
	minimumOrder int64
}

func seedRestaurants(ctx context.Context, pool *pgxpool.Pool) error {
	restaurants := []restaurantSeed{
		{"rest_trattoria", "Trattoria Da Enzo", 300, 1500},
		{"rest_bangkok", "Bangkok Corner", 250, 1000},
		{"rest_taqueria", "Taqueria El Norte", 200, 0},
	}

	slog.Info("upserting restaurants", slog.Int("count", len(restaurants)))

	for _, r := range restaurants {
		_, err := pool.Exec(ctx, `
			INSERT INTO restaurants (id, name, delivery_fee_cents, minimum_order_cents)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name,
				delivery_fee_cents = EXCLUDED.delivery_fee_cents,
				minimum_order_cents = EXCLUDED.minimum_order_cents`,
			r.id, r.name, r.deliveryFee, r.minimumOrder,
		)
		if err != nil {
			return errors.Wrapf(err, "upsert restaurant %s", r.id)
		}
		slog.Info("upserted restaurant", slog.String("id", r.id), slog.String("name", r.name))
	}
	return nil
}

type menuItemSeed struct {
	id, restaurantID, name, category string
	priceCents                       int64
	available                        bool
}

func seedMenuItems(ctx context.Context, pool *pgxpool.Pool) error {
	items := []menuItemSeed{
		{"item_margherita", "rest_trattoria", "Pizza Margherita", "pizza", 1200, true},
		{"item_diavola", "rest_trattoria", "Pizza Diavola", "pizza", 1450, true},
		{"item_tiramisu", "rest_trattoria", "Tiramisu", "dessert", 650, true},
		{"item_pad_thai", "rest_bangkok", "Pad Thai", "noodles", 1400, true},
		{"item_green_curry", "rest_bangkok", "Green Curry", "curry", 1500, true},
		{"item_mango_rice", "rest_bangkok", "Mango Sticky Rice", "dessert", 700, false},
		{"item_tacos_pastor", "rest_taqueria", "Tacos al Pastor", "tacos", 950, true},
		{"item_quesadilla", "rest_taqueria", "Quesadilla", "antojitos", 850, true},
	}

	slog.Info("upserting menu items", slog.Int("count", len(items)))

	for _, it := range items {
		_, err := pool.Exec(ctx, `
			INSERT INTO menu_items (id, restaurant_id, name, price_cents, category, available)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (id) DO UPDATE SET
				restaurant_id = EXCLUDED.restaurant_id,
				name = EXCLUDED.name,
				price_cents = EXCLUDED.price_cents,
				category = EXCLUDED.category,
				available = EXCLUDED.available`,
			it.id, it.restaurantID, it.name, it.priceCents, it.category, it.available,
		)
		if err != nil {
			return errors.Wrapf(err, "upsert menu item %s", it.id)
		}
		slog.Info("upserted menu item", slog.String("id", it.id), slog.String("name", it.name))
	}
	return nil
}

func seedDiscounts(ctx context.Context, pool *pgxpool.Pool) error {
	weekdayLunch := []int{1, 2, 3, 4, 5}
	everyDay := []int{}

	type discountSeed struct {
		id, restaurantID, code string
		discountType           string
		value                  decimal.Decimal
		description            string
		validDays              []int
		minimumOrderCents      int64
		maxPerUser, totalLimit int
		startDate, endDate     *time.Time
		excludedItems          []string
	}

	endOfYear := time.Date(2026, time.December, 31, 23, 59, 59, 0, time.UTC)

	discounts := []discountSeed{
		{
			id: "disc_welcome", restaurantID: "rest_trattoria", code: "WELCOME10",
			discountType: "percentage", value: decimal.NewFromInt(10),
			description: "10% off your first orders", validDays: everyDay,
			maxPerUser: 3, excludedItems: []string{},
		},
		{
			id: "disc_lunch", restaurantID: "rest_bangkok", code: "LUNCHDEAL",
			discountType: "fixed_amount", value: decimal.NewFromInt(3),
			description: "3.00 off weekday lunch orders over 12.00",
			validDays:   weekdayLunch, minimumOrderCents: 1200,
			excludedItems: []string{},
		},
		{
			id: "disc_holiday", restaurantID: "rest_taqueria", code: "FIESTA26",
			discountType: "percentage", value: decimal.NewFromInt(15),
			description: "15% off through the end of the year, quesadillas excluded",
			validDays:   everyDay, endDate: &endOfYear, totalLimit: 500,
			excludedItems: []string{"item_quesadilla"},
		},
	}

	slog.Info("upserting discounts", slog.Int("count", len(discounts)))

	for _, d := range discounts {
		_, err := pool.Exec(ctx, `
			INSERT INTO discounts (id, restaurant_id, code, discount_type, value, description,
				active, start_date, end_date, valid_days, minimum_order_cents,
				max_per_user, total_limit, excluded_items)
			VALUES ($1, $2, $3, $4, $5, $6, TRUE, $7, $8, $9, $10, $11, $12, $13)
			ON CONFLICT (id) DO UPDATE SET
				restaurant_id = EXCLUDED.restaurant_id,
				code = EXCLUDED.code,
				discount_type = EXCLUDED.discount_type,
				value = EXCLUDED.value,
				description = EXCLUDED.description,
				active = EXCLUDED.active,
				start_date = EXCLUDED.start_date,
				end_date = EXCLUDED.end_date,
				valid_days = EXCLUDED.valid_days,
				minimum_order_cents = EXCLUDED.minimum_order_cents,
				max_per_user = EXCLUDED.max_per_user,
				total_limit = EXCLUDED.total_limit,
				excluded_items = EXCLUDED.excluded_items`,
			d.id, d.restaurantID, d.code, d.discountType, d.value, d.description,
			d.startDate, d.endDate, d.validDays, d.minimumOrderCents,
			d.maxPerUser, d.totalLimit, d.excludedItems,
		)
		if err != nil {
			return errors.Wrapf(err, "upsert discount %s", d.code)
		}
		slog.Info("upserted discount", slog.String("code", d.code), slog.String("description", d.description))
	}
	return nil
}
