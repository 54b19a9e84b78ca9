// internal/adapters/in/http/handlers/order_handler.go
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	usecase "github.com/ErnestIssa/vornify-server-sub000/internal/application/usecase"
	cartdom "github.com/ErnestIssa/vornify-server-sub000/internal/domain/cartsession"
	discountdom "github.com/ErnestIssa/vornify-server-sub000/internal/domain/discount"
	"github.com/ErnestIssa/vornify-server-sub000/internal/domain/lifecycle"
	orderdom "github.com/ErnestIssa/vornify-server-sub000/internal/domain/order"
)

// OrderHandler serves order placement and lookup. Placing an order is the
// completion event that settles the customer's cart, checkout and payment
// lifecycle records.
type OrderHandler struct {
	uc *usecase.OrderUsecase
}

func NewOrderHandler(uc *usecase.OrderUsecase) http.Handler {
	return &OrderHandler{uc: uc}
}

func (h *OrderHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	path := r.URL.Path
	switch {
	case r.Method == http.MethodPost && (path == "/orders" || path == "/orders/"):
		h.place(w, r)
	case r.Method == http.MethodGet && (path == "/orders" || path == "/orders/"):
		h.listByEmail(w, r)
	case r.Method == http.MethodGet && strings.HasPrefix(path, "/orders/"):
		h.get(w, r, pathTail(path, "/orders/"))
	default:
		notFound(w)
	}
}

// POST /orders
func (h *OrderHandler) place(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email         string             `json:"email"`
		OwnerID       string             `json:"ownerId"`
		Items         []cartdom.LineItem `json:"items"`
		Currency      string             `json:"currency"`
		DiscountCode  string             `json:"discountCode"`
		CheckoutToken string             `json:"checkoutToken"`
	}
	if err := decodeJSON(r, &body); err != nil {
		badRequest(w, "invalid json body")
		return
	}

	o, err := h.uc.PlaceOrder(r.Context(), usecase.PlaceOrderInput{
		Email:         body.Email,
		OwnerID:       body.OwnerID,
		Items:         body.Items,
		Currency:      body.Currency,
		DiscountCode:  body.DiscountCode,
		CheckoutToken: body.CheckoutToken,
	})
	if err != nil {
		writeOrderErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, o)
}

// GET /orders/{id}
func (h *OrderHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	if id == "" {
		badRequest(w, "invalid id")
		return
	}
	o, err := h.uc.Get(r.Context(), id)
	if err != nil {
		writeOrderErr(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(o)
}

// GET /orders?email=...
func (h *OrderHandler) listByEmail(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.URL.Query().Get("email"))
	if email == "" {
		badRequest(w, "email query parameter is required")
		return
	}
	items, err := h.uc.ListByEmail(r.Context(), email)
	if err != nil {
		writeOrderErr(w, err)
		return
	}
	if items == nil {
		items = []*orderdom.Order{}
	}
	_ = json.NewEncoder(w).Encode(items)
}

func writeOrderErr(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, orderdom.ErrInvalidOrder):
		code = http.StatusBadRequest
	case errors.Is(err, orderdom.ErrNotFound), errors.Is(err, lifecycle.ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, discountdom.ErrAlreadyUsed), errors.Is(err, discountdom.ErrExpired):
		code = http.StatusConflict
	case errors.Is(err, discountdom.ErrInvalidCode):
		code = http.StatusBadRequest
	}
	writeJSON(w, code, map[string]string{"error": err.Error()})
}
