// internal/application/usecase/payment_usecase.go
package usecase

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ErnestIssa/vornify-server-sub000/internal/domain/lifecycle"
	pfdom "github.com/ErnestIssa/vornify-server-sub000/internal/domain/paymentfailure"
)

var ErrPaymentOrderIDEmpty = errors.New("payment: orderId is empty")

// PaymentUsecase consumes payment-provider webhook events and keeps the
// payment-failure lifecycle records in step with them.
type PaymentUsecase struct {
	activity *ActivityUsecase
	failures pfdom.Repository
	now      func() time.Time
}

func NewPaymentUsecase(activity *ActivityUsecase, failures pfdom.Repository) *PaymentUsecase {
	return &PaymentUsecase{
		activity: activity,
		failures: failures,
		now:      time.Now,
	}
}

// HandlePaymentFailed records a failed attempt. Repeats for the same order
// only refresh the activity clock on the existing record.
func (u *PaymentUsecase) HandlePaymentFailed(ctx context.Context, orderID, email string, amount decimal.Decimal, reason string) (*pfdom.Record, error) {
	if strings.TrimSpace(orderID) == "" {
		return nil, ErrPaymentOrderIDEmpty
	}
	return u.activity.RecordPaymentFailure(ctx, orderID, email, amount, reason)
}

// HandlePaymentSucceeded completes the pending failure record for the order,
// if one exists. Idempotent: success without a record is a no-op.
func (u *PaymentUsecase) HandlePaymentSucceeded(ctx context.Context, orderID string) error {
	oid := strings.TrimSpace(orderID)
	if oid == "" {
		return ErrPaymentOrderIDEmpty
	}

	r, err := u.failures.FindPendingByOrderID(ctx, oid)
	if err != nil {
		if errors.Is(err, lifecycle.ErrNotFound) {
			return nil
		}
		return err
	}

	if err := u.failures.Complete(ctx, r.RetryToken); err != nil {
		return err
	}
	log.Printf("[payment_uc] payment succeeded, retry record completed orderId=%s token=%s", oid, r.RetryToken)
	return nil
}
