// internal/adapters/out/firestore/subscriber_repository_fs.go
package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	gfs "cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	subdom "github.com/ErnestIssa/vornify-server-sub000/internal/domain/subscriber"
)

const subscribersCol = "subscribers"

// SubscriberRepositoryFS implements subscriber.Repository using Firestore.
// docId = email.
type SubscriberRepositoryFS struct {
	Client *gfs.Client
}

func NewSubscriberRepositoryFS(client *gfs.Client) *SubscriberRepositoryFS {
	return &SubscriberRepositoryFS{Client: client}
}

func (r *SubscriberRepositoryFS) col() *gfs.CollectionRef {
	return r.Client.Collection(subscribersCol)
}

func (r *SubscriberRepositoryFS) GetByEmail(ctx context.Context, email string) (*subdom.Subscriber, error) {
	if r == nil || r.Client == nil {
		return nil, errors.New("subscriber_repository_fs: firestore client is nil")
	}
	e := strings.ToLower(strings.TrimSpace(email))
	if e == "" {
		return nil, errors.New("subscriber_repository_fs: email is empty")
	}

	snap, err := r.col().Doc(e).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, subdom.ErrNotFound
		}
		return nil, err
	}

	data := snap.Data()
	s := &subdom.Subscriber{Email: e}
	s.Source = asString(data["source"])
	if t, ok := asTime(data["subscribedAt"]); ok {
		s.SubscribedAt = t
	}
	s.UnsubscribedAt = asTimePtr(data["unsubscribedAt"])
	return s, nil
}

func (r *SubscriberRepositoryFS) Upsert(ctx context.Context, s *subdom.Subscriber) error {
	if r == nil || r.Client == nil {
		return errors.New("subscriber_repository_fs: firestore client is nil")
	}
	if s == nil || strings.TrimSpace(s.Email) == "" {
		return errors.New("subscriber_repository_fs: subscriber or email is empty")
	}

	doc := struct {
		Source         string     `firestore:"source,omitempty"`
		SubscribedAt   time.Time  `firestore:"subscribedAt"`
		UnsubscribedAt *time.Time `firestore:"unsubscribedAt"`
	}{
		Source:         s.Source,
		SubscribedAt:   s.SubscribedAt,
		UnsubscribedAt: s.UnsubscribedAt,
	}
	_, err := r.col().Doc(s.Email).Set(ctx, doc)
	return err
}
