// internal/adapters/out/firestore/cartsession_repository_fs.go
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

	cartdom "github.com/ErnestIssa/vornify-server-sub000/internal/domain/cartsession"
	"github.com/ErnestIssa/vornify-server-sub000/internal/domain/lifecycle"
)

const cartSessionsCol = "cart_sessions"

// CartSessionRepositoryFS implements cartsession.Repository using Firestore.
//
// Collection design:
// - collection: cart_sessions
// - docId: ownerId (source of truth; the id field inside the doc is advisory)
type CartSessionRepositoryFS struct {
	Client *gfs.Client
}

func NewCartSessionRepositoryFS(client *gfs.Client) *CartSessionRepositoryFS {
	return &CartSessionRepositoryFS{Client: client}
}

func (r *CartSessionRepositoryFS) col() *gfs.CollectionRef {
	return r.Client.Collection(cartSessionsCol)
}

func (r *CartSessionRepositoryFS) GetByOwnerID(ctx context.Context, ownerID string) (*cartdom.Session, error) {
	if r == nil || r.Client == nil {
		return nil, errors.New("cartsession_repository_fs: firestore client is nil")
	}
	oid := strings.TrimSpace(ownerID)
	if oid == "" {
		return nil, errors.New("cartsession_repository_fs: ownerID is empty")
	}

	snap, err := r.col().Doc(oid).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, lifecycle.ErrNotFound
		}
		return nil, err
	}

	s := decodeCartSession(snap.Data())
	s.OwnerID = oid
	return s, nil
}

func (r *CartSessionRepositoryFS) Upsert(ctx context.Context, s *cartdom.Session) error {
	if r == nil || r.Client == nil {
		return errors.New("cartsession_repository_fs: firestore client is nil")
	}
	if s == nil || strings.TrimSpace(s.OwnerID) == "" {
		return errors.New("cartsession_repository_fs: session or ownerID is empty")
	}
	_, err := r.col().Doc(s.OwnerID).Set(ctx, encodeCartSession(s))
	return err
}

func (r *CartSessionRepositoryFS) ListAbandonmentCandidates(ctx context.Context, cutoff time.Time) ([]*cartdom.Session, error) {
	if r == nil || r.Client == nil {
		return nil, errors.New("cartsession_repository_fs: firestore client is nil")
	}

	// Query on updatedAt only; the notifiedAt / empty-basket filters run
	// client-side (no composite index on a nullable field needed).
	iter := r.col().Query.Where("updatedAt", "<=", cutoff.UTC()).Documents(ctx)
	defer iter.Stop()

	var out []*cartdom.Session
	for {
		snap, err := iter.Next()
		if err != nil {
			if errors.Is(err, iterator.Done) {
				break
			}
			return nil, err
		}
		s := decodeCartSession(snap.Data())
		s.OwnerID = snap.Ref.ID
		if s.NotifiedAt != nil || len(s.Items) == 0 {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

// MarkNotified is the compare-and-set behind the notification gate: the write
// applies only if notifiedAt is still unset AND the activity clock has not
// moved since the sweep read the session.
func (r *CartSessionRepositoryFS) MarkNotified(ctx context.Context, ownerID string, lastSeenActivity, sentAt time.Time) error {
	if r == nil || r.Client == nil {
		return errors.New("cartsession_repository_fs: firestore client is nil")
	}
	oid := strings.TrimSpace(ownerID)
	if oid == "" {
		return errors.New("cartsession_repository_fs: ownerID is empty")
	}

	ref := r.col().Doc(oid)
	return r.Client.RunTransaction(ctx, func(ctx context.Context, tx *gfs.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return lifecycle.ErrNotFound
			}
			return err
		}
		data := snap.Data()
		if asTimePtr(data["notifiedAt"]) != nil {
			return lifecycle.ErrConflictSkipped
		}
		if updatedAt, ok := asTime(data["updatedAt"]); !ok || !updatedAt.Equal(lastSeenActivity.UTC()) {
			// Activity resumed between listing and decision.
			return lifecycle.ErrConflictSkipped
		}
		return tx.Update(ref, []gfs.Update{
			{Path: "notifiedAt", Value: sentAt.UTC()},
		})
	})
}

func (r *CartSessionRepositoryFS) Clear(ctx context.Context, ownerID string, now time.Time) error {
	if r == nil || r.Client == nil {
		return errors.New("cartsession_repository_fs: firestore client is nil")
	}
	oid := strings.TrimSpace(ownerID)
	if oid == "" {
		return errors.New("cartsession_repository_fs: ownerID is empty")
	}

	_, err := r.col().Doc(oid).Update(ctx, []gfs.Update{
		{Path: "items", Value: []cartItemDoc{}},
		{Path: "updatedAt", Value: now.UTC()},
		{Path: "notifiedAt", Value: nil},
	})
	if status.Code(err) == codes.NotFound {
		// Nothing to clear; treated as success (idempotent).
		return nil
	}
	return err
}

// -----------------------------------------
// Firestore DTO
// -----------------------------------------

type cartItemDoc struct {
	ProductID string `firestore:"productId"`
	Name      string `firestore:"name"`
	Qty       int    `firestore:"qty"`
	UnitPrice string `firestore:"unitPrice"`
}

type cartSessionDoc struct {
	Items      []cartItemDoc `firestore:"items"`
	CreatedAt  time.Time     `firestore:"createdAt"`
	UpdatedAt  time.Time     `firestore:"updatedAt"`
	NotifiedAt *time.Time    `firestore:"notifiedAt"`
}

func encodeCartSession(s *cartdom.Session) cartSessionDoc {
	items := make([]cartItemDoc, 0, len(s.Items))
	for _, it := range s.Items {
		items = append(items, cartItemDoc{
			ProductID: it.ProductID,
			Name:      it.Name,
			Qty:       it.Qty,
			UnitPrice: it.UnitPrice.StringFixed(2),
		})
	}
	return cartSessionDoc{
		Items:      items,
		CreatedAt:  s.CreatedAt,
		UpdatedAt:  s.UpdatedAt,
		NotifiedAt: s.NotifiedAt,
	}
}

func decodeCartSession(data map[string]any) *cartdom.Session {
	s := &cartdom.Session{Items: []cartdom.LineItem{}}
	if data == nil {
		return s
	}
	if t, ok := asTime(data["createdAt"]); ok {
		s.CreatedAt = t
	}
	if t, ok := asTime(data["updatedAt"]); ok {
		s.UpdatedAt = t
	}
	s.NotifiedAt = asTimePtr(data["notifiedAt"])

	raw, _ := data["items"].([]any)
	for _, v := range raw {
		m, ok := v.(map[string]any)
		if !ok {
			continue
		}
		item := cartdom.LineItem{
			ProductID: strings.TrimSpace(asString(m["productId"])),
			Name:      strings.TrimSpace(asString(m["name"])),
			Qty:       asInt(m["qty"]),
			UnitPrice: asDecimal(m["unitPrice"]),
		}
		if item.ProductID == "" || item.Qty <= 0 {
			continue
		}
		s.Items = append(s.Items, item)
	}
	return s
}
