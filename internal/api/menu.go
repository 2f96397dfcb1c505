package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/localeats/ordering/internal/domain/money"
)

type menuItemView struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Price     money.Money `json:"price"`
	Category  string      `json:"category,omitempty"`
	Available bool        `json:"available"`
}

// restaurantMenu lists a restaurant's menu. Unavailable items are included
// so clients can render them greyed out.
func (h *Handler) restaurantMenu(w http.ResponseWriter, r *http.Request) {
	items, err := h.menu.ListByRestaurant(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(r, w, err)
		return
	}

	views := make([]menuItemView, len(items))
	for i, it := range items {
		views[i] = menuItemView{
			ID:        it.ID,
			Name:      it.Name,
			Price:     it.Price,
			Category:  it.Category,
			Available: it.Available,
		}
	}
	writeJSON(r, w, http.StatusOK, struct {
		Items []menuItemView `json:"items"`
	}{Items: views})
}
