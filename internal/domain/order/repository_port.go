// internal/domain/order/repository_port.go
package order

import (
	"context"
	"time"
)

// Repository is a persistence port for placed orders.
// Storage (Firestore): collection orders, docId = order id.
type Repository interface {
	GetByID(ctx context.Context, id string) (*Order, error)
	Create(ctx context.Context, o *Order) error
	ListByEmail(ctx context.Context, email string) ([]*Order, error)

	// ExistsForEmailSince reports whether an order for email was created after
	// since. The sweep uses this to detect that a completion superseded an
	// apparently idle cart or checkout.
	ExistsForEmailSince(ctx context.Context, email string, since time.Time) (bool, error)
}

// ArchiveRepository mirrors completed orders into the reporting database.
// Writes are best-effort: an archive failure never fails the order flow.
type ArchiveRepository interface {
	Archive(ctx context.Context, o *Order) error
}
