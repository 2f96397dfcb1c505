package order

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localeats/ordering/internal/domain/cart"
)

func newOrder(t cart.OrderType, status Status) *Order {
	return &Order{ID: "o1", Type: t, Status: status}
}

func TestTransition_DeliveryHappyPath(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	o := newOrder(cart.OrderTypeDelivery, StatusReceived)

	steps := []struct {
		to    Status
		stamp func() *time.Time
	}{
		{StatusPreparing, func() *time.Time { return o.Timestamps.PreparingStarted }},
		{StatusOutForDelivery, func() *time.Time { return o.Timestamps.OutForDelivery }},
		{StatusDelivered, func() *time.Time { return o.Timestamps.Delivered }},
	}
	for _, step := range steps {
		now = now.Add(5 * time.Minute)
		require.NoError(t, o.Transition(step.to, "", now))
		assert.Equal(t, step.to, o.Status)
		require.NotNil(t, step.stamp())
		assert.Equal(t, now, *step.stamp())
	}
}

func TestTransition_PickupHappyPath(t *testing.T) {
	now := time.Now()
	o := newOrder(cart.OrderTypePickup, StatusReceived)

	require.NoError(t, o.Transition(StatusPreparing, "", now))
	require.NoError(t, o.Transition(StatusReady, "", now))
	require.NoError(t, o.Transition(StatusDelivered, "", now))

	assert.Equal(t, StatusDelivered, o.Status)
	assert.NotNil(t, o.Timestamps.Ready)
	assert.Nil(t, o.Timestamps.OutForDelivery)
}

func TestTransition_BranchIsFixedByOrderType(t *testing.T) {
	now := time.Now()

	// A pickup order never goes out for delivery.
	pickup := newOrder(cart.OrderTypePickup, StatusPreparing)
	err := pickup.Transition(StatusOutForDelivery, "", now)
	var ite *InvalidTransitionError
	require.ErrorAs(t, err, &ite)
	assert.Equal(t, StatusPreparing, pickup.Status)

	// And a delivery order never becomes ready for pickup.
	delivery := newOrder(cart.OrderTypeDelivery, StatusPreparing)
	require.ErrorAs(t, delivery.Transition(StatusReady, "", now), &ite)
}

func TestTransition_NoSkippingOrReversal(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name string
		from Status
		to   Status
	}{
		{"skip preparing", StatusReceived, StatusOutForDelivery},
		{"skip to delivered", StatusReceived, StatusDelivered},
		{"delivered before preparing", StatusReceived, StatusDelivered},
		{"reverse to received", StatusPreparing, StatusReceived},
		{"reverse from delivery leg", StatusOutForDelivery, StatusPreparing},
		{"same state", StatusPreparing, StatusPreparing},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := newOrder(cart.OrderTypeDelivery, tt.from)
			err := o.Transition(tt.to, "", now)
			var ite *InvalidTransitionError
			require.ErrorAs(t, err, &ite)
			assert.Equal(t, tt.from, o.Status, "failed transition must not change the order")
			assert.Equal(t, tt.from, ite.From)
			assert.Equal(t, tt.to, ite.To)
		})
	}
}

func TestTransition_CancelFromAnyNonTerminalState(t *testing.T) {
	now := time.Now()
	for _, from := range []Status{StatusReceived, StatusPreparing, StatusReady, StatusOutForDelivery} {
		t.Run(string(from), func(t *testing.T) {
			o := newOrder(cart.OrderTypeDelivery, from)
			require.NoError(t, o.Transition(StatusCancelled, "customer request", now))
			assert.Equal(t, StatusCancelled, o.Status)
			assert.Equal(t, "customer request", o.CancellationReason)
			assert.NotNil(t, o.Timestamps.Cancelled)
		})
	}
}

func TestTransition_CancelRequiresReason(t *testing.T) {
	o := newOrder(cart.OrderTypeDelivery, StatusPreparing)

	err := o.Transition(StatusCancelled, "", time.Now())

	var cre *CancellationReasonError
	require.ErrorAs(t, err, &cre)
	assert.Equal(t, StatusPreparing, o.Status)
}

func TestTransition_TerminalStatesAreFinal(t *testing.T) {
	now := time.Now()
	for _, terminal := range []Status{StatusDelivered, StatusCancelled} {
		for _, to := range []Status{StatusReceived, StatusPreparing, StatusReady, StatusOutForDelivery, StatusDelivered, StatusCancelled} {
			o := newOrder(cart.OrderTypeDelivery, terminal)
			err := o.Transition(to, "reason", now)
			var ite *InvalidTransitionError
			assert.ErrorAs(t, err, &ite, "%s -> %s must be rejected", terminal, to)
		}
	}
}
