// internal/adapters/out/firestore/paymentfailure_repository_fs.go
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

	"github.com/ErnestIssa/vornify-server-sub000/internal/domain/lifecycle"
	pfdom "github.com/ErnestIssa/vornify-server-sub000/internal/domain/paymentfailure"
)

const paymentFailuresCol = "payment_failures"

// PaymentFailureRepositoryFS implements paymentfailure.Repository.
// Same transactional shape as CheckoutRepositoryFS, keyed by retry token.
type PaymentFailureRepositoryFS struct {
	Client *gfs.Client
}

func NewPaymentFailureRepositoryFS(client *gfs.Client) *PaymentFailureRepositoryFS {
	return &PaymentFailureRepositoryFS{Client: client}
}

func (r *PaymentFailureRepositoryFS) col() *gfs.CollectionRef {
	return r.Client.Collection(paymentFailuresCol)
}

func (r *PaymentFailureRepositoryFS) GetByToken(ctx context.Context, retryToken string) (*pfdom.Record, error) {
	if r == nil || r.Client == nil {
		return nil, errors.New("paymentfailure_repository_fs: firestore client is nil")
	}
	t := strings.TrimSpace(retryToken)
	if t == "" {
		return nil, errors.New("paymentfailure_repository_fs: retryToken is empty")
	}

	snap, err := r.col().Doc(t).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, lifecycle.ErrNotFound
		}
		return nil, err
	}
	return decodePaymentFailure(t, snap.Data()), nil
}

func (r *PaymentFailureRepositoryFS) FindPendingByOrderID(ctx context.Context, orderID string) (*pfdom.Record, error) {
	if r == nil || r.Client == nil {
		return nil, errors.New("paymentfailure_repository_fs: firestore client is nil")
	}
	oid := strings.TrimSpace(orderID)
	if oid == "" {
		return nil, errors.New("paymentfailure_repository_fs: orderID is empty")
	}

	iter := r.col().Query.
		Where("orderId", "==", oid).
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
	return decodePaymentFailure(snap.Ref.ID, snap.Data()), nil
}

func (r *PaymentFailureRepositoryFS) Create(ctx context.Context, rec *pfdom.Record) error {
	if r == nil || r.Client == nil {
		return errors.New("paymentfailure_repository_fs: firestore client is nil")
	}
	if rec == nil || strings.TrimSpace(rec.RetryToken) == "" {
		return errors.New("paymentfailure_repository_fs: record or retryToken is empty")
	}
	_, err := r.col().Doc(rec.RetryToken).Create(ctx, encodePaymentFailure(rec))
	return err
}

func (r *PaymentFailureRepositoryFS) Save(ctx context.Context, rec *pfdom.Record) error {
	if r == nil || r.Client == nil {
		return errors.New("paymentfailure_repository_fs: firestore client is nil")
	}
	if rec == nil || strings.TrimSpace(rec.RetryToken) == "" {
		return errors.New("paymentfailure_repository_fs: record or retryToken is empty")
	}
	_, err := r.col().Doc(rec.RetryToken).Set(ctx, encodePaymentFailure(rec))
	return err
}

func (r *PaymentFailureRepositoryFS) ListRetryCandidates(ctx context.Context, cutoff time.Time) ([]*pfdom.Record, error) {
	if r == nil || r.Client == nil {
		return nil, errors.New("paymentfailure_repository_fs: firestore client is nil")
	}

	iter := r.col().Query.
		Where("status", "==", string(lifecycle.StatusPending)).
		Where("emailSent", "==", false).
		Where("lastActivityAt", "<=", cutoff.UTC()).
		Documents(ctx)
	defer iter.Stop()

	var out []*pfdom.Record
	for {
		snap, err := iter.Next()
		if err != nil {
			if errors.Is(err, iterator.Done) {
				break
			}
			return nil, err
		}
		out = append(out, decodePaymentFailure(snap.Ref.ID, snap.Data()))
	}
	return out, nil
}

func (r *PaymentFailureRepositoryFS) MarkEmailSent(ctx context.Context, retryToken string, sentAt time.Time) error {
	if r == nil || r.Client == nil {
		return errors.New("paymentfailure_repository_fs: firestore client is nil")
	}
	t := strings.TrimSpace(retryToken)
	if t == "" {
		return errors.New("paymentfailure_repository_fs: retryToken is empty")
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

func (r *PaymentFailureRepositoryFS) Recover(ctx context.Context, retryToken string, now time.Time) (*pfdom.Record, error) {
	if r == nil || r.Client == nil {
		return nil, errors.New("paymentfailure_repository_fs: firestore client is nil")
	}
	t := strings.TrimSpace(retryToken)
	if t == "" {
		return nil, errors.New("paymentfailure_repository_fs: retryToken is empty")
	}

	ref := r.col().Doc(t)
	var out *pfdom.Record
	err := r.Client.RunTransaction(ctx, func(ctx context.Context, tx *gfs.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return lifecycle.ErrNotFound
			}
			return err
		}
		rec := decodePaymentFailure(t, snap.Data())
		if err := rec.Recover(now); err != nil {
			return err
		}
		out = rec
		return tx.Update(ref, []gfs.Update{
			{Path: "status", Value: string(rec.Status)},
			{Path: "recoveryCount", Value: rec.RecoveryCount},
			{Path: "lastActivityAt", Value: rec.LastActivityAt},
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *PaymentFailureRepositoryFS) Complete(ctx context.Context, retryToken string) error {
	if r == nil || r.Client == nil {
		return errors.New("paymentfailure_repository_fs: firestore client is nil")
	}
	t := strings.TrimSpace(retryToken)
	if t == "" {
		return errors.New("paymentfailure_repository_fs: retryToken is empty")
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

type paymentFailureDoc struct {
	OrderID        string     `firestore:"orderId"`
	Email          string     `firestore:"email"`
	Amount         string     `firestore:"amount"`
	FailureReason  string     `firestore:"failureReason,omitempty"`
	Status         string     `firestore:"status"`
	EmailSent      bool       `firestore:"emailSent"`
	NotifiedAt     *time.Time `firestore:"notifiedAt"`
	CreatedAt      time.Time  `firestore:"createdAt"`
	LastActivityAt time.Time  `firestore:"lastActivityAt"`
	RecoveryCount  int        `firestore:"recoveryCount"`
}

func encodePaymentFailure(rec *pfdom.Record) paymentFailureDoc {
	return paymentFailureDoc{
		OrderID:        rec.OrderID,
		Email:          rec.Email,
		Amount:         rec.Amount.StringFixed(2),
		FailureReason:  rec.FailureReason,
		Status:         string(rec.Status),
		EmailSent:      rec.EmailSent,
		CreatedAt:      rec.CreatedAt,
		LastActivityAt: rec.LastActivityAt,
		RecoveryCount:  rec.RecoveryCount,
	}
}

func decodePaymentFailure(token string, data map[string]any) *pfdom.Record {
	rec := &pfdom.Record{
		RetryToken: token,
		Status:     lifecycle.StatusPending,
	}
	if data == nil {
		return rec
	}
	rec.OrderID = strings.TrimSpace(asString(data["orderId"]))
	rec.Email = strings.TrimSpace(asString(data["email"]))
	rec.Amount = asDecimal(data["amount"])
	rec.FailureReason = asString(data["failureReason"])
	if st := lifecycle.Status(asString(data["status"])); st.Valid() {
		rec.Status = st
	}
	rec.EmailSent = asBool(data["emailSent"])
	rec.RecoveryCount = asInt(data["recoveryCount"])
	if t, ok := asTime(data["createdAt"]); ok {
		rec.CreatedAt = t
	}
	if t, ok := asTime(data["lastActivityAt"]); ok {
		rec.LastActivityAt = t
	}
	return rec
}
