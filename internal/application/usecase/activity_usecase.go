// internal/application/usecase/activity_usecase.go
package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	cartdom "github.com/ErnestIssa/vornify-server-sub000/internal/domain/cartsession"
	checkoutdom "github.com/ErnestIssa/vornify-server-sub000/internal/domain/checkout"
	"github.com/ErnestIssa/vornify-server-sub000/internal/domain/lifecycle"
	pfdom "github.com/ErnestIssa/vornify-server-sub000/internal/domain/paymentfailure"
)

var (
	ErrActivityOwnerEmpty = errors.New("activity: ownerId is empty")
	ErrActivityEmailEmpty = errors.New("activity: email is empty")
)

// ActivityUsecase is the only writer during live interaction: each user action
// upserts its lifecycle record and refreshes lastActivityAt. It never decides
// abandonment itself — it only refreshes the clock the sweep consults.
type ActivityUsecase struct {
	carts     cartdom.Repository
	checkouts checkoutdom.Repository
	failures  pfdom.Repository
	now       func() time.Time
}

func NewActivityUsecase(carts cartdom.Repository, checkouts checkoutdom.Repository, failures pfdom.Repository) *ActivityUsecase {
	return &ActivityUsecase{
		carts:     carts,
		checkouts: checkouts,
		failures:  failures,
		now:       time.Now,
	}
}

// RecordCartActivity replaces the basket contents for ownerID, creating the
// session on first touch. Replaying the same payload yields the same state.
func (u *ActivityUsecase) RecordCartActivity(ctx context.Context, ownerID string, items []cartdom.LineItem) (*cartdom.Session, error) {
	oid := strings.TrimSpace(ownerID)
	if oid == "" {
		return nil, ErrActivityOwnerEmpty
	}

	now := u.now()

	s, err := u.carts.GetByOwnerID(ctx, oid)
	if err != nil {
		if !errors.Is(err, lifecycle.ErrNotFound) {
			return nil, err
		}
		s, err = cartdom.New(oid, items, now)
		if err != nil {
			return nil, err
		}
	} else {
		if err := s.SetItems(items, now); err != nil {
			return nil, err
		}
	}

	if err := u.carts.Upsert(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// CheckoutPayload is one checkout-stage save. Absent fields never blank out
// present stored ones.
type CheckoutPayload struct {
	Items    []cartdom.LineItem
	Total    decimal.Decimal
	Customer *checkoutdom.CustomerSnapshot
}

// RecordCheckoutActivity upserts the pending checkout for email
// (key: email + status=pending) and refreshes its activity clock.
func (u *ActivityUsecase) RecordCheckoutActivity(ctx context.Context, email string, payload CheckoutPayload) (*checkoutdom.Checkout, error) {
	e := strings.ToLower(strings.TrimSpace(email))
	if e == "" {
		return nil, ErrActivityEmailEmpty
	}

	now := u.now()

	c, err := u.checkouts.FindPendingByEmail(ctx, e)
	if err != nil {
		if !errors.Is(err, lifecycle.ErrNotFound) {
			return nil, err
		}
		token := uuid.NewString()
		c, err = checkoutdom.New(token, e, payload.Items, payload.Total, payload.Customer, now)
		if err != nil {
			return nil, err
		}
		if err := u.checkouts.Create(ctx, c); err != nil {
			return nil, err
		}
		return c, nil
	}

	if err := c.Merge(payload.Items, payload.Total, payload.Customer, now); err != nil {
		return nil, err
	}
	if err := u.checkouts.Save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// RecordPaymentFailure creates (or refreshes) the retry record for a failed
// payment attempt on orderID.
func (u *ActivityUsecase) RecordPaymentFailure(ctx context.Context, orderID, email string, amount decimal.Decimal, reason string) (*pfdom.Record, error) {
	oid := strings.TrimSpace(orderID)
	if oid == "" {
		return nil, ErrActivityOwnerEmpty
	}

	now := u.now()

	r, err := u.failures.FindPendingByOrderID(ctx, oid)
	if err != nil {
		if !errors.Is(err, lifecycle.ErrNotFound) {
			return nil, err
		}
		token := uuid.NewString()
		r, err = pfdom.New(token, oid, email, amount, reason, now)
		if err != nil {
			return nil, err
		}
		if err := u.failures.Create(ctx, r); err != nil {
			return nil, err
		}
		return r, nil
	}

	// 既存レコードは clock の更新のみ（payload は初回失敗時のスナップショット）
	if err := r.Touch(now); err != nil {
		return nil, err
	}
	if err := u.failures.Save(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}
