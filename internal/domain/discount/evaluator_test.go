package discount

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localeats/ordering/internal/domain/money"
)

type mockRuleRepo struct {
	rule *Rule
	err  error
}

func (m *mockRuleRepo) FindByCode(_ context.Context, _ string) (*Rule, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.rule, nil
}

type mockRedemptions struct {
	user  int
	total int
	err   error
}

func (m *mockRedemptions) RedemptionCounts(_ context.Context, _, _ string) (int, int, error) {
	return m.user, m.total, m.err
}

func TestRuleEvaluator_Evaluate(t *testing.T) {
	// Sunday noon.
	fixedNow := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	past := fixedNow.Add(-24 * time.Hour)
	future := fixedNow.Add(24 * time.Hour)

	basket := Basket{
		UserID:       "u1",
		RestaurantID: "r1",
		Items: []Item{
			{MenuItemID: "m1", LineTotal: 2300},
		},
	}

	base := Rule{
		ID:           "d1",
		RestaurantID: "r1",
		Code:         "SAVE10",
		Type:         TypePercentage,
		Value:        decimal.NewFromInt(10),
		Active:       true,
	}

	tests := []struct {
		name        string
		rule        func() Rule
		redemptions mockRedemptions
		basket      Basket
		wantAmount  money.Money
		wantReason  Reason
	}{
		{
			name:       "active percentage code",
			rule:       func() Rule { return base },
			basket:     basket,
			wantAmount: 230,
		},
		{
			name: "inactive code behaves like unknown",
			rule: func() Rule {
				r := base
				r.Active = false
				return r
			},
			basket:     basket,
			wantReason: ReasonNotFound,
		},
		{
			name: "not yet valid",
			rule: func() Rule {
				r := base
				r.StartDate = &future
				return r
			},
			basket:     basket,
			wantReason: ReasonNotYetValid,
		},
		{
			name: "expired",
			rule: func() Rule {
				r := base
				r.EndDate = &past
				return r
			},
			basket:     basket,
			wantReason: ReasonExpired,
		},
		{
			name: "inside validity window",
			rule: func() Rule {
				r := base
				r.StartDate = &past
				r.EndDate = &future
				return r
			},
			basket:     basket,
			wantAmount: 230,
		},
		{
			name: "wrong day of week",
			rule: func() Rule {
				r := base
				r.ValidDays = []time.Weekday{time.Monday, time.Tuesday}
				return r
			},
			basket:     basket,
			wantReason: ReasonNotValidToday,
		},
		{
			name: "valid day of week",
			rule: func() Rule {
				r := base
				r.ValidDays = []time.Weekday{time.Sunday}
				return r
			},
			basket:     basket,
			wantAmount: 230,
		},
		{
			name: "below minimum order",
			rule: func() Rule {
				r := base
				r.MinimumOrder = 2500
				return r
			},
			basket:     basket,
			wantReason: ReasonMinimumNotMet,
		},
		{
			name: "minimum order met exactly",
			rule: func() Rule {
				r := base
				r.MinimumOrder = 2300
				return r
			},
			basket:     basket,
			wantAmount: 230,
		},
		{
			name: "different restaurant",
			rule: func() Rule {
				r := base
				r.RestaurantID = "r2"
				return r
			},
			basket:     basket,
			wantReason: ReasonWrongRestaurant,
		},
		{
			name: "per-user limit reached",
			rule: func() Rule {
				r := base
				r.MaxPerUser = 2
				return r
			},
			redemptions: mockRedemptions{user: 2, total: 5},
			basket:      basket,
			wantReason:  ReasonRedemptionLimit,
		},
		{
			name: "global limit reached",
			rule: func() Rule {
				r := base
				r.TotalLimit = 100
				return r
			},
			redemptions: mockRedemptions{user: 0, total: 100},
			basket:      basket,
			wantReason:  ReasonRedemptionLimit,
		},
		{
			name: "under both limits",
			rule: func() Rule {
				r := base
				r.MaxPerUser = 2
				r.TotalLimit = 100
				return r
			},
			redemptions: mockRedemptions{user: 1, total: 50},
			basket:      basket,
			wantAmount:  230,
		},
		{
			name: "excluded item shrinks the discount base",
			rule: func() Rule {
				r := base
				r.ExcludedItems = []string{"m2"}
				return r
			},
			basket: Basket{
				UserID:       "u1",
				RestaurantID: "r1",
				Items: []Item{
					{MenuItemID: "m1", LineTotal: 2000},
					{MenuItemID: "m2", LineTotal: 1000},
				},
			},
			// 10% of 2000, not of 3000.
			wantAmount: 200,
		},
		{
			name: "fixed discount capped at eligible base",
			rule: func() Rule {
				r := base
				r.Type = TypeFixed
				r.Value = decimal.NewFromInt(50)
				return r
			},
			basket:     basket,
			wantAmount: 2300,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule := tt.rule()
			red := tt.redemptions
			e := NewRuleEvaluator(&mockRuleRepo{rule: &rule}, &red)
			e.now = func() time.Time { return fixedNow }

			got, err := e.Evaluate(context.Background(), tt.basket, rule.Code)

			if tt.wantReason != "" {
				var de *Error
				require.ErrorAs(t, err, &de)
				assert.Equal(t, tt.wantReason, de.Reason)
				assert.Nil(t, got)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, tt.wantAmount, got.Amount)
			assert.Equal(t, rule.ID, got.DiscountID)
		})
	}
}

func TestRuleEvaluator_UnknownCode(t *testing.T) {
	e := NewRuleEvaluator(&mockRuleRepo{err: &Error{Reason: ReasonNotFound}}, &mockRedemptions{})

	_, err := e.Evaluate(context.Background(), Basket{RestaurantID: "r1"}, "BOGUS")

	var de *Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, ReasonNotFound, de.Reason)
}

func TestRuleEvaluator_RepoFailure(t *testing.T) {
	e := NewRuleEvaluator(&mockRuleRepo{err: errors.New("connection reset")}, &mockRedemptions{})

	_, err := e.Evaluate(context.Background(), Basket{RestaurantID: "r1"}, "SAVE10")

	require.Error(t, err)
	var de *Error
	assert.False(t, errors.As(err, &de))
}

func TestAmount(t *testing.T) {
	tests := []struct {
		name  string
		typ   Type
		value string
		base  money.Money
		want  money.Money
	}{
		{"percentage", TypePercentage, "10", 2300, 230},
		{"percentage rounds half up", TypePercentage, "15", 333, 50},
		{"fixed under base", TypeFixed, "5", 2300, 500},
		{"fixed capped at base", TypeFixed, "50", 2300, 2300},
		{"zero base", TypePercentage, "10", 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Amount(tt.typ, decimal.RequireFromString(tt.value), tt.base)
			assert.Equal(t, tt.want, got)
		})
	}
}
