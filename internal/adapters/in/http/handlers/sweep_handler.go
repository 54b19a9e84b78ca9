// internal/adapters/in/http/handlers/sweep_handler.go
package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	usecase "github.com/ErnestIssa/vornify-server-sub000/internal/application/usecase"
)

// SweepHandler exposes a manual trigger for the abandonment sweeps. Cloud
// Scheduler (or an operator) POSTs here; the cron runner covers the steady
// state.
type SweepHandler struct {
	sweep     *usecase.SweepUsecase
	discounts *usecase.DiscountUsecase
}

func NewSweepHandler(sweep *usecase.SweepUsecase, discounts *usecase.DiscountUsecase) http.Handler {
	return &SweepHandler{sweep: sweep, discounts: discounts}
}

func (h *SweepHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	ctx := r.Context()
	out := map[string]any{}

	// Each pass runs independently: one failing pass never blocks the others.
	if res, err := h.sweep.SweepCarts(ctx); err != nil {
		log.Printf("[sweep_handler] carts: %v", err)
		out["carts"] = map[string]string{"error": err.Error()}
	} else {
		out["carts"] = res
	}

	if res, err := h.sweep.SweepCheckouts(ctx); err != nil {
		log.Printf("[sweep_handler] checkouts: %v", err)
		out["checkouts"] = map[string]string{"error": err.Error()}
	} else {
		out["checkouts"] = res
	}

	if res, err := h.sweep.SweepPaymentFailures(ctx); err != nil {
		log.Printf("[sweep_handler] payment failures: %v", err)
		out["paymentFailures"] = map[string]string{"error": err.Error()}
	} else {
		out["paymentFailures"] = res
	}

	if res, err := h.discounts.SweepReminders(ctx); err != nil {
		log.Printf("[sweep_handler] discount reminders: %v", err)
		out["discountReminders"] = map[string]string{"error": err.Error()}
	} else {
		out["discountReminders"] = res
	}

	if n, err := h.discounts.SweepExpiry(ctx); err != nil {
		log.Printf("[sweep_handler] discount expiry: %v", err)
		out["discountExpiry"] = map[string]string{"error": err.Error()}
	} else {
		out["discountExpiry"] = map[string]int{"expired": n}
	}

	_ = json.NewEncoder(w).Encode(out)
}
