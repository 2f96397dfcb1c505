package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/localeats/ordering/internal/domain/cart"
	"github.com/localeats/ordering/internal/domain/money"
)

// cartResponse is the body of every cart read and mutation. When a mutation
// caused an applied discount to stop validating, the discount is dropped and
// the removal is reported alongside the recomputed cart.
type cartResponse struct {
	Cart            *cart.Cart `json:"cart"`
	DiscountRemoved bool       `json:"discount_removed,omitempty"`
	RemovedReason   string     `json:"discount_removed_reason,omitempty"`
}

func resultResponse(res *cart.Result) cartResponse {
	return cartResponse{
		Cart:            res.Cart,
		DiscountRemoved: res.DiscountRemoved,
		RemovedReason:   string(res.RemovedReason),
	}
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	c, err := h.carts.Get(r.Context(), userID)
	if err != nil {
		writeError(r, w, err)
		return
	}
	writeJSON(r, w, http.StatusOK, cartResponse{Cart: c})
}

func (h *Handler) clearCart(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	res, err := h.carts.Clear(r.Context(), userID)
	if err != nil {
		writeError(r, w, err)
		return
	}
	writeJSON(r, w, http.StatusOK, resultResponse(res))
}

type addItemBody struct {
	RestaurantID        string        `json:"restaurant_id"`
	MenuItemID          string        `json:"menu_item_id"`
	Quantity            int           `json:"quantity"`
	Size                *cart.Size    `json:"selected_size,omitempty"`
	Addons              []cart.Option `json:"addons,omitempty"`
	Modifications       []cart.Option `json:"modifications,omitempty"`
	SpecialInstructions string        `json:"special_instructions,omitempty"`
	ReplaceCart         bool          `json:"replace_cart,omitempty"`
}

func (h *Handler) addItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var body addItemBody
	if err := decode(r, &body); err != nil {
		writeError(r, w, err)
		return
	}

	res, err := h.carts.AddItem(r.Context(), userID, cart.AddItemRequest{
		RestaurantID:        body.RestaurantID,
		MenuItemID:          body.MenuItemID,
		Quantity:            body.Quantity,
		Size:                body.Size,
		Addons:              body.Addons,
		Modifications:       body.Modifications,
		SpecialInstructions: body.SpecialInstructions,
		ReplaceCart:         body.ReplaceCart,
	})
	if err != nil {
		writeError(r, w, err)
		return
	}
	writeJSON(r, w, http.StatusOK, resultResponse(res))
}

type updateItemBody struct {
	Quantity            *int    `json:"quantity,omitempty"`
	SpecialInstructions *string `json:"special_instructions,omitempty"`
}

func (h *Handler) updateItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var body updateItemBody
	if err := decode(r, &body); err != nil {
		writeError(r, w, err)
		return
	}

	res, err := h.carts.UpdateItem(r.Context(), userID, mux.Vars(r)["id"], cart.UpdateItemRequest{
		Quantity:            body.Quantity,
		SpecialInstructions: body.SpecialInstructions,
	})
	if err != nil {
		writeError(r, w, err)
		return
	}
	writeJSON(r, w, http.StatusOK, resultResponse(res))
}

func (h *Handler) removeItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	res, err := h.carts.RemoveItem(r.Context(), userID, mux.Vars(r)["id"])
	if err != nil {
		writeError(r, w, err)
		return
	}
	writeJSON(r, w, http.StatusOK, resultResponse(res))
}

func (h *Handler) applyDiscount(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var body struct {
		Code string `json:"code"`
	}
	if err := decode(r, &body); err != nil {
		writeError(r, w, err)
		return
	}

	res, err := h.carts.ApplyDiscount(r.Context(), userID, body.Code)
	if err != nil {
		writeError(r, w, err)
		return
	}
	writeJSON(r, w, http.StatusOK, resultResponse(res))
}

func (h *Handler) removeDiscount(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	res, err := h.carts.RemoveDiscount(r.Context(), userID)
	if err != nil {
		writeError(r, w, err)
		return
	}
	writeJSON(r, w, http.StatusOK, resultResponse(res))
}

func (h *Handler) setOrderType(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var body struct {
		OrderType string `json:"order_type"`
	}
	if err := decode(r, &body); err != nil {
		writeError(r, w, err)
		return
	}

	res, err := h.carts.SetOrderType(r.Context(), userID, cart.OrderType(body.OrderType))
	if err != nil {
		writeError(r, w, err)
		return
	}
	writeJSON(r, w, http.StatusOK, resultResponse(res))
}

func (h *Handler) setAddress(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var body struct {
		Address string `json:"address"`
	}
	if err := decode(r, &body); err != nil {
		writeError(r, w, err)
		return
	}

	res, err := h.carts.SetDeliveryAddress(r.Context(), userID, body.Address)
	if err != nil {
		writeError(r, w, err)
		return
	}
	writeJSON(r, w, http.StatusOK, resultResponse(res))
}

func (h *Handler) setTip(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var body struct {
		Tip money.Money `json:"tip"`
	}
	if err := decode(r, &body); err != nil {
		writeError(r, w, err)
		return
	}

	res, err := h.carts.SetTip(r.Context(), userID, body.Tip)
	if err != nil {
		writeError(r, w, err)
		return
	}
	writeJSON(r, w, http.StatusOK, resultResponse(res))
}
