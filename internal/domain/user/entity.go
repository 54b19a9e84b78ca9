// internal/domain/user/entity.go
package user

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrInvalidUser = errors.New("user: invalid")
	ErrNotFound    = errors.New("user: not found")
	ErrDuplicate   = errors.New("user: email already registered")
)

// User is a storefront account. PasswordHash is a bcrypt hash, never the
// plaintext password.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name,omitempty"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func New(id, email, name, passwordHash string, now time.Time) (*User, error) {
	u := &User{
		ID:           strings.TrimSpace(id),
		Email:        strings.ToLower(strings.TrimSpace(email)),
		Name:         strings.TrimSpace(name),
		PasswordHash: passwordHash,
		CreatedAt:    now.UTC(),
		UpdatedAt:    now.UTC(),
	}
	if u.ID == "" || u.Email == "" || u.PasswordHash == "" {
		return nil, ErrInvalidUser
	}
	return u, nil
}
