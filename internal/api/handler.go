// Package api exposes the ordering engine over HTTP. Handlers are thin:
// they decode requests, call the domain services, and map domain errors to
// status codes.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/gorilla/mux"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/localeats/ordering/internal/domain/cart"
	"github.com/localeats/ordering/internal/domain/discount"
	"github.com/localeats/ordering/internal/domain/menu"
	"github.com/localeats/ordering/internal/domain/order"
	"github.com/localeats/ordering/internal/domain/reorder"
)

// userIDHeader carries the caller's identity. Authentication happens
// upstream; by the time a request reaches this service the header is
// trusted.
const userIDHeader = "X-User-ID"

// Handler wires the domain services to HTTP routes.
type Handler struct {
	carts    *cart.Service
	orders   *order.Service
	reorders *reorder.Service
	menu     menu.Repository

	tracer       trace.Tracer
	ordersPlaced metric.Int64Counter
}

func NewHandler(
	carts *cart.Service,
	orders *order.Service,
	reorders *reorder.Service,
	catalog menu.Repository,
	tp trace.TracerProvider,
	mp metric.MeterProvider,
) *Handler {
	ordersPlaced, err := mp.Meter("ordering/api").Int64Counter("orders.placed",
		metric.WithDescription("Orders successfully placed"),
	)
	if err != nil {
		otel.Handle(err)
	}
	return &Handler{
		carts:        carts,
		orders:       orders,
		reorders:     reorders,
		menu:         catalog,
		tracer:       tp.Tracer("ordering/api"),
		ordersPlaced: ordersPlaced,
	}
}

// Routes registers all API routes on the router.
func (h *Handler) Routes(r *mux.Router) {
	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/cart", h.getCart).Methods(http.MethodGet)
	api.HandleFunc("/cart", h.clearCart).Methods(http.MethodDelete)
	api.HandleFunc("/cart/items", h.addItem).Methods(http.MethodPost)
	api.HandleFunc("/cart/items/{id}", h.updateItem).Methods(http.MethodPatch)
	api.HandleFunc("/cart/items/{id}", h.removeItem).Methods(http.MethodDelete)
	api.HandleFunc("/cart/discount", h.applyDiscount).Methods(http.MethodPost)
	api.HandleFunc("/cart/discount", h.removeDiscount).Methods(http.MethodDelete)
	api.HandleFunc("/cart/order-type", h.setOrderType).Methods(http.MethodPost)
	api.HandleFunc("/cart/address", h.setAddress).Methods(http.MethodPost)
	api.HandleFunc("/cart/tip", h.setTip).Methods(http.MethodPost)

	api.HandleFunc("/orders", h.checkout).Methods(http.MethodPost)
	api.HandleFunc("/orders", h.listOrders).Methods(http.MethodGet)
	api.HandleFunc("/orders/{id}", h.getOrder).Methods(http.MethodGet)
	api.HandleFunc("/orders/{id}", h.updateOrderStatus).Methods(http.MethodPatch)
	api.HandleFunc("/orders/{id}/reorder", h.reorderOrder).Methods(http.MethodPost)

	api.HandleFunc("/restaurants/{id}/menu", h.restaurantMenu).Methods(http.MethodGet)
}

// userID extracts the caller identity, writing a 400 when absent.
func (h *Handler) userID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := r.Header.Get(userIDHeader)
	if id == "" {
		writeJSON(r, w, http.StatusBadRequest, errorBody{
			Error: "missing " + userIDHeader + " header",
		})
		return "", false
	}
	return id, true
}

type errorBody struct {
	Error  string `json:"error"`
	Field  string `json:"field,omitempty"`
	Reason string `json:"reason,omitempty"`
}

func writeJSON(r *http.Request, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zctx.From(r.Context()).Error("encode response", zap.Error(err))
	}
}

// writeError maps domain errors onto status codes: validation 400, discount
// reasons 422, restaurant conflict and invalid transitions 409, unknown
// resources 404, everything else 500.
func writeError(r *http.Request, w http.ResponseWriter, err error) {
	var (
		ve *cart.ValidationError
		de *discount.Error
		ce *cart.ConflictError
		te *order.InvalidTransitionError
		re *order.CancellationReasonError
		me *order.MinimumOrderNotMetError
	)

	switch {
	case errors.As(err, &ve):
		writeJSON(r, w, http.StatusBadRequest, errorBody{Error: ve.Error(), Field: ve.Field})
	case errors.As(err, &de):
		status := http.StatusUnprocessableEntity
		if de.Reason == discount.ReasonNotFound {
			status = http.StatusNotFound
		}
		writeJSON(r, w, status, errorBody{Error: de.Error(), Reason: string(de.Reason)})
	case errors.As(err, &ce):
		writeJSON(r, w, http.StatusConflict, errorBody{Error: ce.Error()})
	case errors.As(err, &te):
		writeJSON(r, w, http.StatusConflict, errorBody{Error: te.Error()})
	case errors.As(err, &re):
		writeJSON(r, w, http.StatusBadRequest, errorBody{Error: re.Error(), Field: "reason"})
	case errors.As(err, &me):
		writeJSON(r, w, http.StatusUnprocessableEntity, errorBody{Error: me.Error(), Reason: "minimum_not_met"})
	case errors.Is(err, cart.ErrItemNotFound),
		errors.Is(err, order.ErrNotFound),
		errors.Is(err, menu.ErrNotFound):
		writeJSON(r, w, http.StatusNotFound, errorBody{Error: err.Error()})
	case errors.Is(err, order.ErrEmptyCart):
		writeJSON(r, w, http.StatusUnprocessableEntity, errorBody{Error: err.Error()})
	default:
		zctx.From(r.Context()).Error("request failed", zap.Error(err))
		writeJSON(r, w, http.StatusInternalServerError, errorBody{Error: "internal error"})
	}
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return &cart.ValidationError{Field: "body", Message: "malformed JSON"}
	}
	return nil
}
