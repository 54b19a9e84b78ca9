// internal/adapters/in/http/handlers/recovery_handler.go
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	usecase "github.com/ErnestIssa/vornify-server-sub000/internal/application/usecase"
)

// RecoveryHandler resolves the tokens embedded in recovery mails. The
// storefront calls these when a customer follows an abandoned-checkout or
// payment-retry link, and restores the session from the response.
type RecoveryHandler struct {
	recovery *usecase.RecoveryUsecase
}

func NewRecoveryHandler(recovery *usecase.RecoveryUsecase) http.Handler {
	return &RecoveryHandler{recovery: recovery}
}

func (h *RecoveryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	switch {
	case strings.HasPrefix(r.URL.Path, "/recover/checkout/"):
		h.checkout(w, r, pathTail(r.URL.Path, "/recover/checkout/"))
	case strings.HasPrefix(r.URL.Path, "/recover/payment/"):
		h.payment(w, r, pathTail(r.URL.Path, "/recover/payment/"))
	default:
		notFound(w)
	}
}

// GET /recover/checkout/{token}
func (h *RecoveryHandler) checkout(w http.ResponseWriter, r *http.Request, token string) {
	c, err := h.recovery.RecoverCheckout(r.Context(), token)
	if err != nil {
		writeRecoveryErr(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(c)
}

// GET /recover/payment/{token}
func (h *RecoveryHandler) payment(w http.ResponseWriter, r *http.Request, token string) {
	rec, err := h.recovery.RecoverPaymentRetry(r.Context(), token)
	if err != nil {
		writeRecoveryErr(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(rec)
}

// Recovery links arrive from old mails, so the two expected failures get
// friendly bodies the storefront can show as-is.
func writeRecoveryErr(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, usecase.ErrRecoveryTokenEmpty):
		code = http.StatusBadRequest
	case errors.Is(err, usecase.ErrRecoveryNotFound):
		code = http.StatusNotFound
	case errors.Is(err, usecase.ErrRecoveryCompleted):
		code = http.StatusGone
	}
	writeJSON(w, code, map[string]string{"error": err.Error()})
}
