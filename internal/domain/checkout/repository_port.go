// internal/domain/checkout/repository_port.go
package checkout

import (
	"context"
	"time"
)

// Repository is a persistence port for abandoned checkouts.
//
// Storage (Firestore):
// - collection: abandoned_checkouts
// - docId: recovery token
//
// The conditional methods (MarkEmailSent, Recover, Complete) must re-check
// their precondition against the stored document at write time and return
// lifecycle.ErrConflictSkipped / checkout.ErrCompleted when it no longer holds.
// That write-time check — not the sweep's read — is the at-most-once guard.
type Repository interface {
	// GetByToken returns (nil, lifecycle.ErrNotFound) when absent.
	GetByToken(ctx context.Context, token string) (*Checkout, error)

	// FindPendingByEmail returns the live pending checkout for the email,
	// or (nil, lifecycle.ErrNotFound). Upsert key for the activity recorder.
	FindPendingByEmail(ctx context.Context, email string) (*Checkout, error)

	// Create stores a new checkout under docId = c.ID.
	Create(ctx context.Context, c *Checkout) error

	// Save overwrites the full document (live-interaction writer only).
	Save(ctx context.Context, c *Checkout) error

	// ListAbandonmentCandidates returns pending, email-not-sent checkouts with
	// lastActivityAt <= cutoff.
	ListAbandonmentCandidates(ctx context.Context, cutoff time.Time) ([]*Checkout, error)

	// MarkEmailSent sets emailSent=true where emailSent is still false and the
	// status is still not terminal. lifecycle.ErrConflictSkipped otherwise.
	MarkEmailSent(ctx context.Context, token string, sentAt time.Time) error

	// Recover applies the recovered transition transactionally: re-reads the
	// document, rejects completed records with checkout.ErrCompleted, bumps
	// recoveryCount, refreshes lastActivityAt, and returns the updated record.
	Recover(ctx context.Context, token string, now time.Time) (*Checkout, error)

	// Complete marks the checkout completed. Idempotent; never downgrades.
	Complete(ctx context.Context, token string) error
}
