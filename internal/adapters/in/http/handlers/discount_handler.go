// internal/adapters/in/http/handlers/discount_handler.go
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	usecase "github.com/ErnestIssa/vornify-server-sub000/internal/application/usecase"
	discountdom "github.com/ErnestIssa/vornify-server-sub000/internal/domain/discount"
	"github.com/ErnestIssa/vornify-server-sub000/internal/domain/lifecycle"
)

// DiscountHandler serves discount-code redemption.
type DiscountHandler struct {
	uc *usecase.DiscountUsecase
}

func NewDiscountHandler(uc *usecase.DiscountUsecase) http.Handler {
	return &DiscountHandler{uc: uc}
}

func (h *DiscountHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/discounts/redeem":
		h.redeem(w, r)
	default:
		notFound(w)
	}
}

// POST /discounts/redeem
// body: {"code": "VORN-AB12CD"}
func (h *DiscountHandler) redeem(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Code string `json:"code"`
	}
	if err := decodeJSON(r, &body); err != nil {
		badRequest(w, "invalid json body")
		return
	}

	c, err := h.uc.Redeem(r.Context(), body.Code)
	if err != nil {
		writeDiscountErr(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{
		"code":    c.Code,
		"percent": c.Percent,
	})
}

func writeDiscountErr(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, discountdom.ErrInvalidCode):
		code = http.StatusBadRequest
	case errors.Is(err, lifecycle.ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, discountdom.ErrAlreadyUsed), errors.Is(err, discountdom.ErrExpired):
		code = http.StatusConflict
	}
	writeJSON(w, code, map[string]string{"error": err.Error()})
}
