// internal/domain/discount/repository_port.go
package discount

import (
	"context"
	"time"
)

// Repository is a persistence port for discount codes.
//
// Storage (Firestore):
// - collection: discount_codes
// - docId: email (natural key, one live code per subscriber)
// - codes are never deleted (kept for analytics)
//
// Redeem and MarkReminderSent must re-check their precondition at write time
// (compare-and-set): two racing Redeem calls yield exactly one success.
type Repository interface {
	// GetByEmail returns (nil, lifecycle.ErrNotFound) when absent.
	GetByEmail(ctx context.Context, email string) (*Code, error)

	// GetByCode looks a code up by its unique code string.
	GetByCode(ctx context.Context, code string) (*Code, error)

	// Create stores a new code. Fails if the email already holds one.
	Create(ctx context.Context, c *Code) error

	// ListReminderCandidates returns unused, reminder-not-sent codes with
	// issuedAt <= issuedCutoff and expiresAt > now.
	ListReminderCandidates(ctx context.Context, issuedCutoff, now time.Time) ([]*Code, error)

	// MarkReminderSent sets reminderSent=true where still false, the code is
	// unused and now < expiresAt. lifecycle.ErrConflictSkipped otherwise.
	MarkReminderSent(ctx context.Context, email string, now time.Time) error

	// Redeem conditionally sets used=true, usedAt=now where used is still
	// false and now < expiresAt. Returns discount.ErrAlreadyUsed or
	// discount.ErrExpired when the terminal check fails at write time.
	Redeem(ctx context.Context, code string, now time.Time) (*Code, error)

	// MarkExpired sets the informational expired flag on unused codes whose
	// deadline has passed. Returns the number of codes flagged.
	MarkExpired(ctx context.Context, now time.Time) (int, error)
}
