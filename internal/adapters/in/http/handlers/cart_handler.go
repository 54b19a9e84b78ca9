// internal/adapters/in/http/handlers/cart_handler.go
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	usecase "github.com/ErnestIssa/vornify-server-sub000/internal/application/usecase"
	cartdom "github.com/ErnestIssa/vornify-server-sub000/internal/domain/cartsession"
	"github.com/ErnestIssa/vornify-server-sub000/internal/domain/lifecycle"
)

// CartHandler serves /cart endpoints: the storefront reports basket mutations
// here, and reads the live basket back on page load.
type CartHandler struct {
	activity *usecase.ActivityUsecase
	carts    cartdom.Repository
}

func NewCartHandler(activity *usecase.ActivityUsecase, carts cartdom.Repository) http.Handler {
	return &CartHandler{activity: activity, carts: carts}
}

func (h *CartHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/cart/activity":
		h.recordActivity(w, r)
	case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/cart/"):
		h.get(w, r, pathTail(r.URL.Path, "/cart/"))
	case r.Method == http.MethodDelete && strings.HasPrefix(r.URL.Path, "/cart/"):
		h.clear(w, r, pathTail(r.URL.Path, "/cart/"))
	default:
		notFound(w)
	}
}

// POST /cart/activity
// body: {"ownerId": "...", "items": [{productId, name, qty, unitPrice}, ...]}
func (h *CartHandler) recordActivity(w http.ResponseWriter, r *http.Request) {
	var body struct {
		OwnerID string             `json:"ownerId"`
		Items   []cartdom.LineItem `json:"items"`
	}
	if err := decodeJSON(r, &body); err != nil {
		badRequest(w, "invalid json body")
		return
	}

	s, err := h.activity.RecordCartActivity(r.Context(), body.OwnerID, body.Items)
	if err != nil {
		writeCartErr(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(s)
}

// GET /cart/{ownerId}
func (h *CartHandler) get(w http.ResponseWriter, r *http.Request, ownerID string) {
	if ownerID == "" {
		badRequest(w, "invalid ownerId")
		return
	}
	s, err := h.carts.GetByOwnerID(r.Context(), ownerID)
	if err != nil {
		writeCartErr(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(s)
}

// DELETE /cart/{ownerId}
func (h *CartHandler) clear(w http.ResponseWriter, r *http.Request, ownerID string) {
	if ownerID == "" {
		badRequest(w, "invalid ownerId")
		return
	}
	if err := h.carts.Clear(r.Context(), ownerID, time.Now()); err != nil {
		writeCartErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

func writeCartErr(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, cartdom.ErrInvalidSession), errors.Is(err, cartdom.ErrInvalidItem):
		code = http.StatusBadRequest
	case errors.Is(err, lifecycle.ErrNotFound):
		code = http.StatusNotFound
	}
	writeJSON(w, code, map[string]string{"error": err.Error()})
}
