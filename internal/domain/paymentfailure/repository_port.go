// internal/domain/paymentfailure/repository_port.go
package paymentfailure

import (
	"context"
	"time"
)

// Repository is a persistence port for payment-failure records.
//
// Storage (Firestore):
// - collection: payment_failures
// - docId: retry token
//
// Conditional-update semantics mirror checkout.Repository.
type Repository interface {
	GetByToken(ctx context.Context, retryToken string) (*Record, error)

	// FindPendingByOrderID returns the live pending record for the order,
	// or (nil, lifecycle.ErrNotFound).
	FindPendingByOrderID(ctx context.Context, orderID string) (*Record, error)

	Create(ctx context.Context, r *Record) error
	Save(ctx context.Context, r *Record) error

	// ListRetryCandidates returns pending, email-not-sent records with
	// lastActivityAt <= cutoff (grace window already applied by the caller).
	ListRetryCandidates(ctx context.Context, cutoff time.Time) ([]*Record, error)

	// MarkEmailSent sets emailSent=true where still false and not terminal.
	// lifecycle.ErrConflictSkipped otherwise.
	MarkEmailSent(ctx context.Context, retryToken string, sentAt time.Time) error

	// Recover applies the recovered transition transactionally, rejecting
	// completed records with paymentfailure.ErrCompleted.
	Recover(ctx context.Context, retryToken string, now time.Time) (*Record, error)

	// Complete marks the record completed. Idempotent.
	Complete(ctx context.Context, retryToken string) error
}
