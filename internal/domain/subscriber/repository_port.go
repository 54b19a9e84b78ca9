// internal/domain/subscriber/repository_port.go
package subscriber

import "context"

// Repository is a persistence port for newsletter subscribers.
// Storage (Firestore): collection subscribers, docId = email.
type Repository interface {
	GetByEmail(ctx context.Context, email string) (*Subscriber, error)
	Upsert(ctx context.Context, s *Subscriber) error
}
