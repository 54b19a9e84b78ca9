// internal/adapters/out/firestore/discount_repository_fs.go
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

	ddom "github.com/ErnestIssa/vornify-server-sub000/internal/domain/discount"
	"github.com/ErnestIssa/vornify-server-sub000/internal/domain/lifecycle"
)

const discountCodesCol = "discount_codes"

// DiscountRepositoryFS implements discount.Repository using Firestore.
//
// Collection design:
// - collection: discount_codes
// - docId: email (one live code per subscriber)
// - "code" field is unique and queried for redemption
// - documents are never deleted (kept for analytics)
type DiscountRepositoryFS struct {
	Client *gfs.Client
}

func NewDiscountRepositoryFS(client *gfs.Client) *DiscountRepositoryFS {
	return &DiscountRepositoryFS{Client: client}
}

func (r *DiscountRepositoryFS) col() *gfs.CollectionRef {
	return r.Client.Collection(discountCodesCol)
}

func (r *DiscountRepositoryFS) GetByEmail(ctx context.Context, email string) (*ddom.Code, error) {
	if r == nil || r.Client == nil {
		return nil, errors.New("discount_repository_fs: firestore client is nil")
	}
	e := strings.ToLower(strings.TrimSpace(email))
	if e == "" {
		return nil, errors.New("discount_repository_fs: email is empty")
	}

	snap, err := r.col().Doc(e).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, lifecycle.ErrNotFound
		}
		return nil, err
	}
	return decodeDiscountCode(e, snap.Data()), nil
}

func (r *DiscountRepositoryFS) GetByCode(ctx context.Context, code string) (*ddom.Code, error) {
	if r == nil || r.Client == nil {
		return nil, errors.New("discount_repository_fs: firestore client is nil")
	}
	cd := strings.ToUpper(strings.TrimSpace(code))
	if cd == "" {
		return nil, errors.New("discount_repository_fs: code is empty")
	}

	iter := r.col().Query.Where("code", "==", cd).Limit(1).Documents(ctx)
	defer iter.Stop()

	snap, err := iter.Next()
	if err != nil {
		if errors.Is(err, iterator.Done) {
			return nil, lifecycle.ErrNotFound
		}
		return nil, err
	}
	return decodeDiscountCode(snap.Ref.ID, snap.Data()), nil
}

func (r *DiscountRepositoryFS) Create(ctx context.Context, c *ddom.Code) error {
	if r == nil || r.Client == nil {
		return errors.New("discount_repository_fs: firestore client is nil")
	}
	if c == nil || strings.TrimSpace(c.Email) == "" {
		return errors.New("discount_repository_fs: code or email is empty")
	}
	// Create (not Set): the email natural key must not be silently replaced.
	_, err := r.col().Doc(c.Email).Create(ctx, encodeDiscountCode(c))
	return err
}

func (r *DiscountRepositoryFS) ListReminderCandidates(ctx context.Context, issuedCutoff, now time.Time) ([]*ddom.Code, error) {
	if r == nil || r.Client == nil {
		return nil, errors.New("discount_repository_fs: firestore client is nil")
	}

	// One range filter per query in Firestore: issuedAt drives the query and
	// the expiry / flags are filtered client-side.
	iter := r.col().Query.
		Where("used", "==", false).
		Where("reminderSent", "==", false).
		Where("issuedAt", "<=", issuedCutoff.UTC()).
		Documents(ctx)
	defer iter.Stop()

	var out []*ddom.Code
	for {
		snap, err := iter.Next()
		if err != nil {
			if errors.Is(err, iterator.Done) {
				break
			}
			return nil, err
		}
		c := decodeDiscountCode(snap.Ref.ID, snap.Data())
		if c.IsExpired(now) {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (r *DiscountRepositoryFS) MarkReminderSent(ctx context.Context, email string, now time.Time) error {
	if r == nil || r.Client == nil {
		return errors.New("discount_repository_fs: firestore client is nil")
	}
	e := strings.ToLower(strings.TrimSpace(email))
	if e == "" {
		return errors.New("discount_repository_fs: email is empty")
	}

	ref := r.col().Doc(e)
	return r.Client.RunTransaction(ctx, func(ctx context.Context, tx *gfs.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return lifecycle.ErrNotFound
			}
			return err
		}
		c := decodeDiscountCode(e, snap.Data())
		if c.ReminderSent || c.Used {
			return lifecycle.ErrConflictSkipped
		}
		if c.IsExpired(now) {
			// Expiry wins over an unsent reminder.
			return lifecycle.ErrConflictSkipped
		}
		return tx.Update(ref, []gfs.Update{
			{Path: "reminderSent", Value: true},
		})
	})
}

// Redeem is the compare-and-set behind redemption: used flips false→true only
// while unexpired, so two racing calls end with exactly one success.
func (r *DiscountRepositoryFS) Redeem(ctx context.Context, code string, now time.Time) (*ddom.Code, error) {
	if r == nil || r.Client == nil {
		return nil, errors.New("discount_repository_fs: firestore client is nil")
	}

	c, err := r.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	ref := r.col().Doc(c.Email)
	var out *ddom.Code
	err = r.Client.RunTransaction(ctx, func(ctx context.Context, tx *gfs.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return lifecycle.ErrNotFound
			}
			return err
		}
		cur := decodeDiscountCode(c.Email, snap.Data())
		if err := cur.Redeem(now); err != nil {
			return err
		}
		out = cur
		return tx.Update(ref, []gfs.Update{
			{Path: "used", Value: true},
			{Path: "usedAt", Value: cur.UsedAt},
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *DiscountRepositoryFS) MarkExpired(ctx context.Context, now time.Time) (int, error) {
	if r == nil || r.Client == nil {
		return 0, errors.New("discount_repository_fs: firestore client is nil")
	}

	iter := r.col().Query.
		Where("used", "==", false).
		Where("expired", "==", false).
		Where("expiresAt", "<=", now.UTC()).
		Documents(ctx)
	defer iter.Stop()

	flagged := 0
	for {
		snap, err := iter.Next()
		if err != nil {
			if errors.Is(err, iterator.Done) {
				break
			}
			return flagged, err
		}
		if _, err := snap.Ref.Update(ctx, []gfs.Update{{Path: "expired", Value: true}}); err != nil {
			// Informational flag only; keep going.
			continue
		}
		flagged++
	}
	return flagged, nil
}

// -----------------------------------------
// Firestore DTO
// -----------------------------------------

type discountCodeDoc struct {
	Code         string     `firestore:"code"`
	Percent      int        `firestore:"percent"`
	IssuedAt     time.Time  `firestore:"issuedAt"`
	ExpiresAt    time.Time  `firestore:"expiresAt"`
	Used         bool       `firestore:"used"`
	UsedAt       *time.Time `firestore:"usedAt"`
	ReminderSent bool       `firestore:"reminderSent"`
	Expired      bool       `firestore:"expired"`
}

func encodeDiscountCode(c *ddom.Code) discountCodeDoc {
	return discountCodeDoc{
		Code:         c.Code,
		Percent:      c.Percent,
		IssuedAt:     c.IssuedAt,
		ExpiresAt:    c.ExpiresAt,
		Used:         c.Used,
		UsedAt:       c.UsedAt,
		ReminderSent: c.ReminderSent,
		Expired:      c.Expired,
	}
}

func decodeDiscountCode(email string, data map[string]any) *ddom.Code {
	c := &ddom.Code{Email: email}
	if data == nil {
		return c
	}
	c.Code = strings.TrimSpace(asString(data["code"]))
	c.Percent = asInt(data["percent"])
	if t, ok := asTime(data["issuedAt"]); ok {
		c.IssuedAt = t
	}
	if t, ok := asTime(data["expiresAt"]); ok {
		c.ExpiresAt = t
	}
	c.Used = asBool(data["used"])
	c.UsedAt = asTimePtr(data["usedAt"])
	c.ReminderSent = asBool(data["reminderSent"])
	c.Expired = asBool(data["expired"])
	return c
}
