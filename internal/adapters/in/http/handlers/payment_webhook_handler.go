// internal/adapters/in/http/handlers/payment_webhook_handler.go
package handlers

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	usecase "github.com/ErnestIssa/vornify-server-sub000/internal/application/usecase"
)

// PaymentWebhookHandler receives payment provider callbacks. A failed event
// opens (or refreshes) a payment-failure record; a succeeded event settles any
// pending record for the order.
//
// TODO: verify the provider signature once the webhook secret is provisioned.
type PaymentWebhookHandler struct {
	uc *usecase.PaymentUsecase
}

func NewPaymentWebhookHandler(uc *usecase.PaymentUsecase) http.Handler {
	return &PaymentWebhookHandler{uc: uc}
}

type paymentWebhookInput struct {
	Event   string          `json:"event"` // "payment.failed" | "payment.succeeded"
	OrderID string          `json:"orderId"`
	Email   string          `json:"email"`
	Amount  decimal.Decimal `json:"amount"`
	Reason  string          `json:"reason"`
}

func (h *PaymentWebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	const maxBody = 1 << 20
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		badRequest(w, "failed to read body")
		return
	}
	_ = r.Body.Close()

	var in paymentWebhookInput
	if err := json.Unmarshal(body, &in); err != nil {
		badRequest(w, "invalid json body")
		return
	}
	if strings.TrimSpace(in.OrderID) == "" {
		badRequest(w, "orderId is required")
		return
	}

	switch in.Event {
	case "payment.failed":
		rec, err := h.uc.HandlePaymentFailed(r.Context(), in.OrderID, in.Email, in.Amount, in.Reason)
		if err != nil {
			log.Printf("[payment_webhook] failed event error orderId=%s: %v", in.OrderID, err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "recorded", "retryToken": rec.RetryToken})

	case "payment.succeeded":
		if err := h.uc.HandlePaymentSucceeded(r.Context(), in.OrderID); err != nil {
			log.Printf("[payment_webhook] succeeded event error orderId=%s: %v", in.OrderID, err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "settled"})

	default:
		badRequest(w, "unknown event")
	}
}
