// internal/domain/user/repository_port.go
package user

import "context"

// Repository is a persistence port for storefront accounts.
// Storage (Firestore): collection users, docId = user id; email is unique.
type Repository interface {
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Create(ctx context.Context, u *User) error
	Save(ctx context.Context, u *User) error
}
