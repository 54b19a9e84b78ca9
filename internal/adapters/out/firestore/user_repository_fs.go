// internal/adapters/out/firestore/user_repository_fs.go
package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	gfs "cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	userdom "github.com/ErnestIssa/vornify-server-sub000/internal/domain/user"
)

const usersCol = "users"

// UserRepositoryFS implements user.Repository using Firestore.
type UserRepositoryFS struct {
	Client *gfs.Client
}

func NewUserRepositoryFS(client *gfs.Client) *UserRepositoryFS {
	return &UserRepositoryFS{Client: client}
}

func (r *UserRepositoryFS) col() *gfs.CollectionRef {
	return r.Client.Collection(usersCol)
}

func (r *UserRepositoryFS) GetByID(ctx context.Context, id string) (*userdom.User, error) {
	if r == nil || r.Client == nil {
		return nil, errors.New("user_repository_fs: firestore client is nil")
	}
	uid := strings.TrimSpace(id)
	if uid == "" {
		return nil, errors.New("user_repository_fs: id is empty")
	}

	snap, err := r.col().Doc(uid).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, userdom.ErrNotFound
		}
		return nil, err
	}
	return decodeUser(uid, snap.Data()), nil
}

func (r *UserRepositoryFS) GetByEmail(ctx context.Context, email string) (*userdom.User, error) {
	if r == nil || r.Client == nil {
		return nil, errors.New("user_repository_fs: firestore client is nil")
	}
	e := strings.ToLower(strings.TrimSpace(email))
	if e == "" {
		return nil, errors.New("user_repository_fs: email is empty")
	}

	iter := r.col().Query.Where("email", "==", e).Limit(1).Documents(ctx)
	defer iter.Stop()

	snap, err := iter.Next()
	if err != nil {
		if errors.Is(err, iterator.Done) {
			return nil, userdom.ErrNotFound
		}
		return nil, err
	}
	return decodeUser(snap.Ref.ID, snap.Data()), nil
}

func (r *UserRepositoryFS) Create(ctx context.Context, u *userdom.User) error {
	if r == nil || r.Client == nil {
		return errors.New("user_repository_fs: firestore client is nil")
	}
	if u == nil || strings.TrimSpace(u.ID) == "" {
		return errors.New("user_repository_fs: user or id is empty")
	}
	_, err := r.col().Doc(u.ID).Create(ctx, encodeUser(u))
	return err
}

func (r *UserRepositoryFS) Save(ctx context.Context, u *userdom.User) error {
	if r == nil || r.Client == nil {
		return errors.New("user_repository_fs: firestore client is nil")
	}
	if u == nil || strings.TrimSpace(u.ID) == "" {
		return errors.New("user_repository_fs: user or id is empty")
	}
	_, err := r.col().Doc(u.ID).Set(ctx, encodeUser(u))
	return err
}

type userDoc struct {
	Email        string    `firestore:"email"`
	Name         string    `firestore:"name,omitempty"`
	PasswordHash string    `firestore:"passwordHash"`
	CreatedAt    time.Time `firestore:"createdAt"`
	UpdatedAt    time.Time `firestore:"updatedAt"`
}

func encodeUser(u *userdom.User) userDoc {
	return userDoc{
		Email:        u.Email,
		Name:         u.Name,
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func decodeUser(id string, data map[string]any) *userdom.User {
	u := &userdom.User{ID: id}
	if data == nil {
		return u
	}
	u.Email = asString(data["email"])
	u.Name = asString(data["name"])
	u.PasswordHash = asString(data["passwordHash"])
	if t, ok := asTime(data["createdAt"]); ok {
		u.CreatedAt = t
	}
	if t, ok := asTime(data["updatedAt"]); ok {
		u.UpdatedAt = t
	}
	return u
}
