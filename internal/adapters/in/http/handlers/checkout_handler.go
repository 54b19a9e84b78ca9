// internal/adapters/in/http/handlers/checkout_handler.go
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/shopspring/decimal"

	usecase "github.com/ErnestIssa/vornify-server-sub000/internal/application/usecase"
	cartdom "github.com/ErnestIssa/vornify-server-sub000/internal/domain/cartsession"
	checkoutdom "github.com/ErnestIssa/vornify-server-sub000/internal/domain/checkout"
)

// CheckoutHandler records checkout-form activity. The storefront posts here as
// the customer types, so an abandoned form leaves a recoverable record behind.
type CheckoutHandler struct {
	activity *usecase.ActivityUsecase
}

func NewCheckoutHandler(activity *usecase.ActivityUsecase) http.Handler {
	return &CheckoutHandler{activity: activity}
}

func (h *CheckoutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/checkout/activity":
		h.recordActivity(w, r)
	default:
		notFound(w)
	}
}

// POST /checkout/activity
// body: {"email": "...", "items": [...], "total": "129.00", "customer": {...}}
// All fields except email are optional; present fields merge into the pending record.
func (h *CheckoutHandler) recordActivity(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string                        `json:"email"`
		Items    []cartdom.LineItem            `json:"items"`
		Total    decimal.Decimal               `json:"total"`
		Customer *checkoutdom.CustomerSnapshot `json:"customer"`
	}
	if err := decodeJSON(r, &body); err != nil {
		badRequest(w, "invalid json body")
		return
	}

	c, err := h.activity.RecordCheckoutActivity(r.Context(), body.Email, usecase.CheckoutPayload{
		Items:    body.Items,
		Total:    body.Total,
		Customer: body.Customer,
	})
	if err != nil {
		writeCheckoutErr(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(c)
}

func writeCheckoutErr(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, checkoutdom.ErrInvalidEmail), errors.Is(err, checkoutdom.ErrInvalidCheckout):
		code = http.StatusBadRequest
	case errors.Is(err, checkoutdom.ErrCompleted):
		code = http.StatusConflict
	}
	writeJSON(w, code, map[string]string{"error": err.Error()})
}
