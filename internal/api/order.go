package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"

	"github.com/localeats/ordering/internal/domain/cart"
	"github.com/localeats/ordering/internal/domain/money"
	"github.com/localeats/ordering/internal/domain/order"
)

// orderView is the wire shape of an order. Monetary fields are minor units.
type orderView struct {
	ID                 string           `json:"id"`
	RestaurantID       string           `json:"restaurant_id"`
	OrderType          cart.OrderType   `json:"order_type"`
	DeliveryAddress    string           `json:"delivery_address,omitempty"`
	Items              []order.Item     `json:"items"`
	Subtotal           money.Money      `json:"subtotal"`
	DiscountAmount     money.Money      `json:"discount_amount"`
	DiscountCode       string           `json:"discount_code,omitempty"`
	DeliveryFee        money.Money      `json:"delivery_fee"`
	Tax                money.Money      `json:"tax"`
	Tip                money.Money      `json:"tip"`
	GrandTotal         money.Money      `json:"grand_total"`
	Status             order.Status     `json:"status"`
	Timestamps         order.Timestamps `json:"timestamps"`
	CancellationReason string           `json:"cancellation_reason,omitempty"`
	CreatedAt          time.Time        `json:"created_at"`
}

func viewOf(o *order.Order) orderView {
	return orderView{
		ID:                 o.ID,
		RestaurantID:       o.RestaurantID,
		OrderType:          o.Type,
		DeliveryAddress:    o.DeliveryAddress,
		Items:              o.Items,
		Subtotal:           o.Subtotal,
		DiscountAmount:     o.DiscountAmount,
		DiscountCode:       o.DiscountCode,
		DeliveryFee:        o.DeliveryFee,
		Tax:                o.Tax,
		Tip:                o.Tip,
		GrandTotal:         o.GrandTotal,
		Status:             o.Status,
		Timestamps:         o.Timestamps,
		CancellationReason: o.CancellationReason,
		CreatedAt:          o.CreatedAt,
	}
}

func (h *Handler) checkout(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var body struct {
		PaymentMethodID string `json:"payment_method_id"`
	}
	if err := decode(r, &body); err != nil {
		writeError(r, w, err)
		return
	}

	ctx, span := h.tracer.Start(r.Context(), "Checkout")
	defer span.End()

	o, err := h.orders.Checkout(ctx, userID, order.CheckoutRequest{
		PaymentMethodID: body.PaymentMethodID,
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		writeError(r, w, err)
		return
	}

	span.SetAttributes(attribute.String("order.id", o.ID))
	h.ordersPlaced.Add(ctx, 1, metric.WithAttributes(
		attribute.String("order.type", string(o.Type)),
	))
	writeJSON(r, w, http.StatusCreated, viewOf(o))
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	orders, err := h.orders.ListByUser(r.Context(), userID)
	if err != nil {
		writeError(r, w, err)
		return
	}

	views := make([]orderView, len(orders))
	for i := range orders {
		views[i] = viewOf(&orders[i])
	}
	writeJSON(r, w, http.StatusOK, struct {
		Orders []orderView `json:"orders"`
	}{Orders: views})
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.userID(w, r); !ok {
		return
	}

	o, err := h.orders.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(r, w, err)
		return
	}
	writeJSON(r, w, http.StatusOK, viewOf(o))
}

func (h *Handler) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.userID(w, r); !ok {
		return
	}

	var body struct {
		Status string `json:"status"`
		Reason string `json:"reason,omitempty"`
	}
	if err := decode(r, &body); err != nil {
		writeError(r, w, err)
		return
	}

	o, err := h.orders.UpdateStatus(r.Context(), mux.Vars(r)["id"], order.Status(body.Status), body.Reason)
	if err != nil {
		writeError(r, w, err)
		return
	}
	writeJSON(r, w, http.StatusOK, viewOf(o))
}

// reorderOrder rebuilds a cart seed from a past order, repriced from the
// current menu. The seed is returned to the client; applying it goes through
// the normal add-item flow with its conflict policy.
func (h *Handler) reorderOrder(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.userID(w, r); !ok {
		return
	}

	seed, err := h.reorders.Rebuild(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(r, w, err)
		return
	}
	writeJSON(r, w, http.StatusOK, seed)
}
