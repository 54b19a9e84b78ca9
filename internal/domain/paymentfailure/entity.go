// internal/domain/paymentfailure/entity.go
package paymentfailure

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ErnestIssa/vornify-server-sub000/internal/domain/lifecycle"
)

var (
	ErrInvalidRecord = errors.New("paymentfailure: invalid")
	ErrCompleted     = errors.New("paymentfailure: already completed")
)

// Record captures a failed payment attempt for an existing order.
// Same status/emailSent shape as an abandoned checkout, but it references the
// failed order instead of carrying a pre-order cart snapshot.
//   - docId = retry token
type Record struct {
	RetryToken     string           `json:"retryToken"`
	OrderID        string           `json:"orderId"`
	Email          string           `json:"email"`
	Amount         decimal.Decimal  `json:"amount"`
	FailureReason  string           `json:"failureReason,omitempty"`
	Status         lifecycle.Status `json:"status"`
	EmailSent      bool             `json:"emailSent"`
	CreatedAt      time.Time        `json:"createdAt"`
	LastActivityAt time.Time        `json:"lastActivityAt"`
	RecoveryCount  int              `json:"recoveryCount"`
}

// New creates a pending payment-failure record.
func New(retryToken, orderID, email string, amount decimal.Decimal, reason string, now time.Time) (*Record, error) {
	r := &Record{
		RetryToken:     strings.TrimSpace(retryToken),
		OrderID:        strings.TrimSpace(orderID),
		Email:          strings.ToLower(strings.TrimSpace(email)),
		Amount:         amount,
		FailureReason:  strings.TrimSpace(reason),
		Status:         lifecycle.StatusPending,
		CreatedAt:      now.UTC(),
		LastActivityAt: now.UTC(),
	}
	if err := r.validate(); err != nil {
		return nil, err
	}
	return r, nil
}

// Touch refreshes the activity clock (retry attempt observed).
func (r *Record) Touch(now time.Time) error {
	if r == nil {
		return ErrInvalidRecord
	}
	if r.Status.Terminal() {
		return ErrCompleted
	}
	r.LastActivityAt = now.UTC()
	return nil
}

// Recover marks the retry link as followed. Completed records never reopen.
func (r *Record) Recover(now time.Time) error {
	if r == nil {
		return ErrInvalidRecord
	}
	if r.Status == lifecycle.StatusCompleted {
		return ErrCompleted
	}
	if !r.Status.CanTransition(lifecycle.StatusRecovered) {
		return ErrInvalidRecord
	}
	r.Status = lifecycle.StatusRecovered
	r.RecoveryCount++
	r.LastActivityAt = now.UTC()
	return nil
}

// Complete records that the payment eventually went through. Idempotent.
func (r *Record) Complete() error {
	if r == nil {
		return ErrInvalidRecord
	}
	if r.Status == lifecycle.StatusCompleted {
		return nil
	}
	if !r.Status.CanTransition(lifecycle.StatusCompleted) {
		return ErrInvalidRecord
	}
	r.Status = lifecycle.StatusCompleted
	return nil
}

// IdleFor returns the gap since the last recorded activity.
func (r *Record) IdleFor(now time.Time) time.Duration {
	if r == nil || r.LastActivityAt.IsZero() {
		return 0
	}
	return now.Sub(r.LastActivityAt)
}

func (r *Record) validate() error {
	if r == nil {
		return ErrInvalidRecord
	}
	if r.RetryToken == "" || r.OrderID == "" || r.Email == "" {
		return ErrInvalidRecord
	}
	if !r.Status.Valid() || r.Amount.IsNegative() || r.RecoveryCount < 0 {
		return ErrInvalidRecord
	}
	if r.CreatedAt.IsZero() || r.LastActivityAt.IsZero() {
		return ErrInvalidRecord
	}
	return nil
}
