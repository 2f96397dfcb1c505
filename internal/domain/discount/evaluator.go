package discount

import (
	"context"
	"time"

	"github.com/go-faster/errors"

	"github.com/localeats/ordering/internal/domain/money"
)

// Evaluator validates a discount code against a basket and returns the
// applied discount.
type Evaluator interface {
	Evaluate(ctx context.Context, basket Basket, code string) (*Applied, error)
}

// RuleEvaluator implements Evaluator by looking up rules from a Repository
// and checking redemption limits against the order-history collaborator.
type RuleEvaluator struct {
	rules       Repository
	redemptions RedemptionCounter
	now         func() time.Time
}

// NewRuleEvaluator creates a RuleEvaluator backed by the given collaborators.
func NewRuleEvaluator(rules Repository, redemptions RedemptionCounter) *RuleEvaluator {
	return &RuleEvaluator{
		rules:       rules,
		redemptions: redemptions,
		now:         time.Now,
	}
}

// Evaluate runs the validation chain in a fixed order and short-circuits on
// the first failure:
//
//  1. code exists, is active, and the current date is inside its window
//  2. current weekday is allowed
//  3. cart subtotal meets the rule's minimum
//  4. cart restaurant matches the rule's restaurant
//  5. per-user and global redemption limits are not exhausted
//
// Excluded items never fail validation; they shrink the base the discount is
// computed on.
func (e *RuleEvaluator) Evaluate(ctx context.Context, basket Basket, code string) (*Applied, error) {
	rule, err := e.rules.FindByCode(ctx, code)
	if err != nil {
		var de *Error
		if errors.As(err, &de) {
			return nil, de
		}
		return nil, errors.Wrap(err, "lookup discount")
	}
	if !rule.Active {
		return nil, &Error{Reason: ReasonNotFound}
	}

	now := e.now()
	if rule.StartDate != nil && now.Before(*rule.StartDate) {
		return nil, &Error{Reason: ReasonNotYetValid}
	}
	if rule.EndDate != nil && now.After(*rule.EndDate) {
		return nil, &Error{Reason: ReasonExpired}
	}

	if !validToday(rule.ValidDays, now.Weekday()) {
		return nil, &Error{Reason: ReasonNotValidToday}
	}

	subtotal := basket.Subtotal()
	if rule.MinimumOrder > 0 && subtotal < rule.MinimumOrder {
		return nil, &Error{Reason: ReasonMinimumNotMet}
	}

	if basket.RestaurantID != rule.RestaurantID {
		return nil, &Error{Reason: ReasonWrongRestaurant}
	}

	if rule.MaxPerUser > 0 || rule.TotalLimit > 0 {
		user, total, err := e.redemptions.RedemptionCounts(ctx, basket.UserID, rule.ID)
		if err != nil {
			return nil, errors.Wrap(err, "redemption counts")
		}
		if rule.MaxPerUser > 0 && user >= rule.MaxPerUser {
			return nil, &Error{Reason: ReasonRedemptionLimit}
		}
		if rule.TotalLimit > 0 && total >= rule.TotalLimit {
			return nil, &Error{Reason: ReasonRedemptionLimit}
		}
	}

	base := subtotal - excludedTotal(rule, basket.Items)

	return &Applied{
		DiscountID: rule.ID,
		Code:       rule.Code,
		Type:       rule.Type,
		Value:      rule.Value,
		Amount:     Amount(rule.Type, rule.Value, base),
	}, nil
}

// validToday reports whether day is allowed. An empty list allows all days.
func validToday(days []time.Weekday, day time.Weekday) bool {
	if len(days) == 0 {
		return true
	}
	for _, d := range days {
		if d == day {
			return true
		}
	}
	return false
}

// excludedTotal sums line totals of items named in the rule's exclusion list.
func excludedTotal(rule *Rule, items []Item) money.Money {
	if len(rule.ExcludedItems) == 0 {
		return 0
	}
	excluded := make(map[string]struct{}, len(rule.ExcludedItems))
	for _, id := range rule.ExcludedItems {
		excluded[id] = struct{}{}
	}
	var sum money.Money
	for _, it := range items {
		if _, ok := excluded[it.MenuItemID]; ok {
			sum += it.LineTotal
		}
	}
	return sum
}
