// internal/adapters/out/firestore/checkout_repository_fs.go
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
	checkoutdom "github.com/ErnestIssa/vornify-server-sub000/internal/domain/checkout"
	"github.com/ErnestIssa/vornify-server-sub000/internal/domain/lifecycle"
)

const abandonedCheckoutsCol = "abandoned_checkouts"

// CheckoutRepositoryFS implements checkout.Repository using Firestore.
//
// Collection design:
// - collection: abandoned_checkouts
// - docId: recovery token
// - upsert key during live interaction: (email, status=pending)
//
// The conditional methods run inside RunTransaction so the precondition is
// re-checked against the stored document at write time — this is the only
// hard requirement the reconciliation core places on the store.
type CheckoutRepositoryFS struct {
	Client *gfs.Client
}

func NewCheckoutRepositoryFS(client *gfs.Client) *CheckoutRepositoryFS {
	return &CheckoutRepositoryFS{Client: client}
}

func (r *CheckoutRepositoryFS) col() *gfs.CollectionRef {
	return r.Client.Collection(abandonedCheckoutsCol)
}

func (r *CheckoutRepositoryFS) GetByToken(ctx context.Context, token string) (*checkoutdom.Checkout, error) {
	if r == nil || r.Client == nil {
		return nil, errors.New("checkout_repository_fs: firestore client is nil")
	}
	t := strings.TrimSpace(token)
	if t == "" {
		return nil, errors.New("checkout_repository_fs: token is empty")
	}

	snap, err := r.col().Doc(t).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, lifecycle.ErrNotFound
		}
		return nil, err
	}
	return decodeCheckout(t, snap.Data()), nil
}

func (r *CheckoutRepositoryFS) FindPendingByEmail(ctx context.Context, email string) (*checkoutdom.Checkout, error) {
	if r == nil || r.Client == nil {
		return nil, errors.New("checkout_repository_fs: firestore client is nil")
	}
	e := strings.ToLower(strings.TrimSpace(email))
	if e == "" {
		return nil, errors.New("checkout_repository_fs: email is empty")
	}

	iter := r.col().Query.
		Where("email", "==", e).
		Where("status", "==", string(lifecycle.StatusPending)).
		Limit(1).
		Documents(ctx)
	defer iter.Stop()

	snap, err := iter.Next()
	if err != nil {
		if errors.Is(err, iterator.Done) {
			return nil, lifecycle.ErrNotFound
		}
		return nil, err
	}
	return decodeCheckout(snap.Ref.ID, snap.Data()), nil
}

func (r *CheckoutRepositoryFS) Create(ctx context.Context, c *checkoutdom.Checkout) error {
	if r == nil || r.Client == nil {
		return errors.New("checkout_repository_fs: firestore client is nil")
	}
	if c == nil || strings.TrimSpace(c.ID) == "" {
		return errors.New("checkout_repository_fs: checkout or token is empty")
	}
	_, err := r.col().Doc(c.ID).Create(ctx, encodeCheckout(c))
	return err
}

func (r *CheckoutRepositoryFS) Save(ctx context.Context, c *checkoutdom.Checkout) error {
	if r == nil || r.Client == nil {
		return errors.New("checkout_repository_fs: firestore client is nil")
	}
	if c == nil || strings.TrimSpace(c.ID) == "" {
		return errors.New("checkout_repository_fs: checkout or token is empty")
	}
	_, err := r.col().Doc(c.ID).Set(ctx, encodeCheckout(c))
	return err
}

func (r *CheckoutRepositoryFS) ListAbandonmentCandidates(ctx context.Context, cutoff time.Time) ([]*checkoutdom.Checkout, error) {
	if r == nil || r.Client == nil {
		return nil, errors.New("checkout_repository_fs: firestore client is nil")
	}

	iter := r.col().Query.
		Where("status", "==", string(lifecycle.StatusPending)).
		Where("emailSent", "==", false).
		Where("lastActivityAt", "<=", cutoff.UTC()).
		Documents(ctx)
	defer iter.Stop()

	var out []*checkoutdom.Checkout
	for {
		snap, err := iter.Next()
		if err != nil {
			if errors.Is(err, iterator.Done) {
				break
			}
			return nil, err
		}
		out = append(out, decodeCheckout(snap.Ref.ID, snap.Data()))
	}
	return out, nil
}

// MarkEmailSent flips emailSent where it is still false and the status is
// still not terminal. Matched-zero is reported as lifecycle.ErrConflictSkipped.
func (r *CheckoutRepositoryFS) MarkEmailSent(ctx context.Context, token string, sentAt time.Time) error {
	if r == nil || r.Client == nil {
		return errors.New("checkout_repository_fs: firestore client is nil")
	}
	t := strings.TrimSpace(token)
	if t == "" {
		return errors.New("checkout_repository_fs: token is empty")
	}

	ref := r.col().Doc(t)
	return r.Client.RunTransaction(ctx, func(ctx context.Context, tx *gfs.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return lifecycle.ErrNotFound
			}
			return err
		}
		data := snap.Data()
		if asBool(data["emailSent"]) {
			return lifecycle.ErrConflictSkipped
		}
		if lifecycle.Status(asString(data["status"])).Terminal() {
			return lifecycle.ErrConflictSkipped
		}
		return tx.Update(ref, []gfs.Update{
			{Path: "emailSent", Value: true},
			{Path: "notifiedAt", Value: sentAt.UTC()},
		})
	})
}

// Recover applies the recovered transition transactionally and returns the
// updated record. Completed checkouts are rejected with checkout.ErrCompleted
// and no write happens.
func (r *CheckoutRepositoryFS) Recover(ctx context.Context, token string, now time.Time) (*checkoutdom.Checkout, error) {
	if r == nil || r.Client == nil {
		return nil, errors.New("checkout_repository_fs: firestore client is nil")
	}
	t := strings.TrimSpace(token)
	if t == "" {
		return nil, errors.New("checkout_repository_fs: token is empty")
	}

	ref := r.col().Doc(t)
	var out *checkoutdom.Checkout
	err := r.Client.RunTransaction(ctx, func(ctx context.Context, tx *gfs.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return lifecycle.ErrNotFound
			}
			return err
		}
		c := decodeCheckout(t, snap.Data())
		if err := c.Recover(now); err != nil {
			return err
		}
		out = c
		return tx.Update(ref, []gfs.Update{
			{Path: "status", Value: string(c.Status)},
			{Path: "recoveryCount", Value: c.RecoveryCount},
			{Path: "lastActivityAt", Value: c.LastActivityAt},
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Complete marks the checkout completed. Idempotent; an already completed
// record is left untouched.
func (r *CheckoutRepositoryFS) Complete(ctx context.Context, token string) error {
	if r == nil || r.Client == nil {
		return errors.New("checkout_repository_fs: firestore client is nil")
	}
	t := strings.TrimSpace(token)
	if t == "" {
		return errors.New("checkout_repository_fs: token is empty")
	}

	ref := r.col().Doc(t)
	return r.Client.RunTransaction(ctx, func(ctx context.Context, tx *gfs.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return lifecycle.ErrNotFound
			}
			return err
		}
		if lifecycle.Status(asString(snap.Data()["status"])) == lifecycle.StatusCompleted {
			return nil
		}
		return tx.Update(ref, []gfs.Update{
			{Path: "status", Value: string(lifecycle.StatusCompleted)},
		})
	})
}

// -----------------------------------------
// Firestore DTO
// -----------------------------------------

type customerDoc struct {
	FirstName string `firestore:"firstName,omitempty"`
	LastName  string `firestore:"lastName,omitempty"`
	Phone     string `firestore:"phone,omitempty"`
	Address   string `firestore:"address,omitempty"`
	City      string `firestore:"city,omitempty"`
	PostCode  string `firestore:"postCode,omitempty"`
	Country   string `firestore:"country,omitempty"`
}

type checkoutDoc struct {
	Email          string        `firestore:"email"`
	Items          []cartItemDoc `firestore:"items"`
	Total          string        `firestore:"total"`
	Customer       *customerDoc  `firestore:"customer,omitempty"`
	Status         string        `firestore:"status"`
	EmailSent      bool          `firestore:"emailSent"`
	NotifiedAt     *time.Time    `firestore:"notifiedAt"`
	CreatedAt      time.Time     `firestore:"createdAt"`
	LastActivityAt time.Time     `firestore:"lastActivityAt"`
	RecoveryCount  int           `firestore:"recoveryCount"`
}

func encodeCheckout(c *checkoutdom.Checkout) checkoutDoc {
	items := make([]cartItemDoc, 0, len(c.Items))
	for _, it := range c.Items {
		items = append(items, cartItemDoc{
			ProductID: it.ProductID,
			Name:      it.Name,
			Qty:       it.Qty,
			UnitPrice: it.UnitPrice.StringFixed(2),
		})
	}
	doc := checkoutDoc{
		Email:          c.Email,
		Items:          items,
		Total:          c.Total.StringFixed(2),
		Status:         string(c.Status),
		EmailSent:      c.EmailSent,
		CreatedAt:      c.CreatedAt,
		LastActivityAt: c.LastActivityAt,
		RecoveryCount:  c.RecoveryCount,
	}
	if c.Customer != nil {
		doc.Customer = &customerDoc{
			FirstName: c.Customer.FirstName,
			LastName:  c.Customer.LastName,
			Phone:     c.Customer.Phone,
			Address:   c.Customer.Address,
			City:      c.Customer.City,
			PostCode:  c.Customer.PostCode,
			Country:   c.Customer.Country,
		}
	}
	return doc
}

func decodeCheckout(token string, data map[string]any) *checkoutdom.Checkout {
	c := &checkoutdom.Checkout{
		ID:     token,
		Status: lifecycle.StatusPending,
		Items:  []cartdom.LineItem{},
	}
	if data == nil {
		return c
	}

	c.Email = strings.TrimSpace(asString(data["email"]))
	c.Total = asDecimal(data["total"])
	if st := lifecycle.Status(asString(data["status"])); st.Valid() {
		c.Status = st
	}
	c.EmailSent = asBool(data["emailSent"])
	c.RecoveryCount = asInt(data["recoveryCount"])
	if t, ok := asTime(data["createdAt"]); ok {
		c.CreatedAt = t
	}
	if t, ok := asTime(data["lastActivityAt"]); ok {
		c.LastActivityAt = t
	}

	if raw, ok := data["items"].([]any); ok {
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
			c.Items = append(c.Items, item)
		}
	}

	if m, ok := data["customer"].(map[string]any); ok {
		c.Customer = &checkoutdom.CustomerSnapshot{
			FirstName: asString(m["firstName"]),
			LastName:  asString(m["lastName"]),
			Phone:     asString(m["phone"]),
			Address:   asString(m["address"]),
			City:      asString(m["city"]),
			PostCode:  asString(m["postCode"]),
			Country:   asString(m["country"]),
		}
	}
	return c
}
