// internal/application/usecase/payment_usecase_test.go
package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ErnestIssa/vornify-server-sub000/internal/domain/lifecycle"
)

func newPaymentFixture() (*PaymentUsecase, *fakePaymentFailureRepo) {
	carts := newFakeCartRepo()
	checkouts := newFakeCheckoutRepo()
	failures := newFakePaymentFailureRepo()
	activity := NewActivityUsecase(carts, checkouts, failures)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	activity.now = func() time.Time { return base }
	uc := NewPaymentUsecase(activity, failures)
	uc.now = func() time.Time { return base }
	return uc, failures
}

func TestHandlePaymentFailed(t *testing.T) {
	uc, _ := newPaymentFixture()
	amount := decimal.RequireFromString("899.00")

	r, err := uc.HandlePaymentFailed(context.Background(), "order-1", "anna@example.com", amount, "card_declined")
	if err != nil {
		t.Fatal(err)
	}
	if r.RetryToken == "" || r.Status != lifecycle.StatusPending {
		t.Fatalf("record = %+v", r)
	}

	t.Run("repeat failure reuses the record", func(t *testing.T) {
		again, err := uc.HandlePaymentFailed(context.Background(), "order-1", "anna@example.com", amount, "timeout")
		if err != nil {
			t.Fatal(err)
		}
		if again.RetryToken != r.RetryToken {
			t.Errorf("tokens differ: %s vs %s", again.RetryToken, r.RetryToken)
		}
	})

	t.Run("empty order id", func(t *testing.T) {
		if _, err := uc.HandlePaymentFailed(context.Background(), " ", "a@b.se", amount, ""); !errors.Is(err, ErrPaymentOrderIDEmpty) {
			t.Fatalf("err = %v", err)
		}
	})
}

func TestHandlePaymentSucceeded(t *testing.T) {
	uc, failures := newPaymentFixture()
	amount := decimal.RequireFromString("899.00")

	r, err := uc.HandlePaymentFailed(context.Background(), "order-1", "anna@example.com", amount, "card_declined")
	if err != nil {
		t.Fatal(err)
	}

	if err := uc.HandlePaymentSucceeded(context.Background(), "order-1"); err != nil {
		t.Fatal(err)
	}
	got, _ := failures.GetByToken(context.Background(), r.RetryToken)
	if got.Status != lifecycle.StatusCompleted {
		t.Errorf("status = %s, want completed", got.Status)
	}

	t.Run("success without a record is a no-op", func(t *testing.T) {
		if err := uc.HandlePaymentSucceeded(context.Background(), "order-unknown"); err != nil {
			t.Fatal(err)
		}
	})

	t.Run("repeat success is a no-op", func(t *testing.T) {
		if err := uc.HandlePaymentSucceeded(context.Background(), "order-1"); err != nil {
			t.Fatal(err)
		}
	})
}
