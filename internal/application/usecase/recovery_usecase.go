// internal/application/usecase/recovery_usecase.go
package usecase

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	checkoutdom "github.com/ErnestIssa/vornify-server-sub000/internal/domain/checkout"
	"github.com/ErnestIssa/vornify-server-sub000/internal/domain/lifecycle"
	pfdom "github.com/ErnestIssa/vornify-server-sub000/internal/domain/paymentfailure"
)

var (
	ErrRecoveryTokenEmpty = errors.New("recovery: token is empty")
	// ErrRecoveryNotFound / ErrRecoveryCompleted are the two expected,
	// user-visible outcomes — distinct friendly states, not generic failures.
	ErrRecoveryNotFound  = errors.New("recovery: no checkout for this link")
	ErrRecoveryCompleted = errors.New("recovery: this checkout was already completed")
)

// RecoveryUsecase turns an inbound recovery-link click back into a live
// checkout. It must never resurrect a completed record: a stale mail followed
// after payment returns ErrRecoveryCompleted and performs no write.
type RecoveryUsecase struct {
	checkouts checkoutdom.Repository
	failures  pfdom.Repository
	now       func() time.Time
}

func NewRecoveryUsecase(checkouts checkoutdom.Repository, failures pfdom.Repository) *RecoveryUsecase {
	return &RecoveryUsecase{
		checkouts: checkouts,
		failures:  failures,
		now:       time.Now,
	}
}

// RecoverCheckout re-activates the checkout behind token and returns its
// snapshot so the caller can re-hydrate the session. Safe to call repeatedly:
// each call refreshes activity and bumps the counter.
func (u *RecoveryUsecase) RecoverCheckout(ctx context.Context, token string) (*checkoutdom.Checkout, error) {
	t := strings.TrimSpace(token)
	if t == "" {
		return nil, ErrRecoveryTokenEmpty
	}

	c, err := u.checkouts.Recover(ctx, t, u.now())
	if err != nil {
		switch {
		case errors.Is(err, lifecycle.ErrNotFound):
			return nil, ErrRecoveryNotFound
		case errors.Is(err, checkoutdom.ErrCompleted), errors.Is(err, lifecycle.ErrAlreadyTerminal):
			return nil, ErrRecoveryCompleted
		}
		return nil, err
	}

	log.Printf("[recovery_uc] checkout recovered token=%s email=%s count=%d", t, c.Email, c.RecoveryCount)
	return c, nil
}

// RecoverPaymentRetry resolves a payment-retry token the same way.
func (u *RecoveryUsecase) RecoverPaymentRetry(ctx context.Context, retryToken string) (*pfdom.Record, error) {
	t := strings.TrimSpace(retryToken)
	if t == "" {
		return nil, ErrRecoveryTokenEmpty
	}

	r, err := u.failures.Recover(ctx, t, u.now())
	if err != nil {
		switch {
		case errors.Is(err, lifecycle.ErrNotFound):
			return nil, ErrRecoveryNotFound
		case errors.Is(err, pfdom.ErrCompleted), errors.Is(err, lifecycle.ErrAlreadyTerminal):
			return nil, ErrRecoveryCompleted
		}
		return nil, err
	}

	log.Printf("[recovery_uc] payment retry recovered token=%s orderId=%s count=%d", t, r.OrderID, r.RecoveryCount)
	return r, nil
}
