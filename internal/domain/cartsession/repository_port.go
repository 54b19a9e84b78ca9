// internal/domain/cartsession/repository_port.go
package cartsession

import (
	"context"
	"time"
)

// Repository is a persistence port for cart sessions.
//
// Storage (Firestore):
// - collection: cart_sessions
// - docId: ownerId
//
// MarkNotified is the at-most-once guard for abandonment mails: it must apply
// only if notifiedAt is still unset AND updatedAt has not moved since the sweep
// read the session — a compare-and-set at write time, not at read time.
type Repository interface {
	// GetByOwnerID returns (nil, lifecycle.ErrNotFound) when absent.
	GetByOwnerID(ctx context.Context, ownerID string) (*Session, error)

	// Upsert saves the session under docId = session.OwnerID.
	Upsert(ctx context.Context, s *Session) error

	// ListAbandonmentCandidates returns sessions with items, no notifiedAt,
	// and updatedAt <= cutoff.
	ListAbandonmentCandidates(ctx context.Context, cutoff time.Time) ([]*Session, error)

	// MarkNotified conditionally sets notifiedAt = sentAt where notifiedAt is
	// still nil and updatedAt is still lastSeenActivity. Returns
	// lifecycle.ErrConflictSkipped when the condition no longer holds.
	MarkNotified(ctx context.Context, ownerID string, lastSeenActivity, sentAt time.Time) error

	// Clear empties the basket (used when an order consumes the cart).
	Clear(ctx context.Context, ownerID string, now time.Time) error
}
