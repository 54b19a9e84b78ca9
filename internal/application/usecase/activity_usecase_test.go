// internal/application/usecase/activity_usecase_test.go
package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	checkoutdom "github.com/ErnestIssa/vornify-server-sub000/internal/domain/checkout"
	"github.com/ErnestIssa/vornify-server-sub000/internal/domain/lifecycle"
)

var activityBase = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newActivityFixture() (*ActivityUsecase, *fakeCartRepo, *fakeCheckoutRepo, *fakePaymentFailureRepo) {
	carts := newFakeCartRepo()
	checkouts := newFakeCheckoutRepo()
	failures := newFakePaymentFailureRepo()
	uc := NewActivityUsecase(carts, checkouts, failures)
	uc.now = func() time.Time { return activityBase }
	return uc, carts, checkouts, failures
}

func TestRecordCartActivity(t *testing.T) {
	uc, carts, _, _ := newActivityFixture()

	s, err := uc.RecordCartActivity(context.Background(), "anna@example.com", sweepItems())
	if err != nil {
		t.Fatal(err)
	}
	if len(s.Items) != 1 || !s.UpdatedAt.Equal(activityBase) {
		t.Errorf("session = %+v", s)
	}

	t.Run("later touch refreshes the clock and the notify window", func(t *testing.T) {
		// Simulate a sent abandonment mail, then renewed activity.
		carts.mu.Lock()
		sent := activityBase.Add(30 * time.Minute)
		carts.sessions["anna@example.com"].NotifiedAt = &sent
		carts.mu.Unlock()

		later := activityBase.Add(45 * time.Minute)
		uc.now = func() time.Time { return later }

		s, err := uc.RecordCartActivity(context.Background(), "anna@example.com", sweepItems())
		if err != nil {
			t.Fatal(err)
		}
		if !s.UpdatedAt.Equal(later) || s.NotifiedAt != nil {
			t.Errorf("session = %+v, want refreshed clock and cleared notifiedAt", s)
		}
	})

	t.Run("empty owner", func(t *testing.T) {
		if _, err := uc.RecordCartActivity(context.Background(), " ", nil); !errors.Is(err, ErrActivityOwnerEmpty) {
			t.Fatalf("err = %v", err)
		}
	})
}

func TestRecordCheckoutActivity(t *testing.T) {
	uc, _, checkouts, _ := newActivityFixture()

	payload := CheckoutPayload{
		Items:    sweepItems(),
		Total:    decimal.RequireFromString("499.00"),
		Customer: &checkoutdom.CustomerSnapshot{FirstName: "Anna"},
	}

	c, err := uc.RecordCheckoutActivity(context.Background(), "Anna@Example.com", payload)
	if err != nil {
		t.Fatal(err)
	}
	if c.ID == "" {
		t.Fatal("no recovery token assigned")
	}
	token := c.ID

	t.Run("same email upserts the same record", func(t *testing.T) {
		later := activityBase.Add(5 * time.Minute)
		uc.now = func() time.Time { return later }

		c, err := uc.RecordCheckoutActivity(context.Background(), "anna@example.com", CheckoutPayload{
			Customer: &checkoutdom.CustomerSnapshot{City: "Lund"},
		})
		if err != nil {
			t.Fatal(err)
		}
		if c.ID != token {
			t.Errorf("token changed across saves: %s vs %s", c.ID, token)
		}
		if c.Customer.FirstName != "Anna" || c.Customer.City != "Lund" {
			t.Errorf("customer = %+v, want merged", c.Customer)
		}
		if !c.LastActivityAt.Equal(later) {
			t.Errorf("LastActivityAt = %s", c.LastActivityAt)
		}
	})

	t.Run("completed checkout starts a fresh one", func(t *testing.T) {
		if err := checkouts.Complete(context.Background(), token); err != nil {
			t.Fatal(err)
		}
		c, err := uc.RecordCheckoutActivity(context.Background(), "anna@example.com", payload)
		if err != nil {
			t.Fatal(err)
		}
		if c.ID == token {
			t.Error("completed checkout was reused")
		}
		if c.Status != lifecycle.StatusPending {
			t.Errorf("status = %s", c.Status)
		}
	})

	t.Run("empty email", func(t *testing.T) {
		if _, err := uc.RecordCheckoutActivity(context.Background(), "", payload); !errors.Is(err, ErrActivityEmailEmpty) {
			t.Fatalf("err = %v", err)
		}
	})
}

func TestRecordPaymentFailure(t *testing.T) {
	uc, _, _, failures := newActivityFixture()
	amount := decimal.RequireFromString("899.00")

	r, err := uc.RecordPaymentFailure(context.Background(), "order-1", "anna@example.com", amount, "card_declined")
	if err != nil {
		t.Fatal(err)
	}
	if r.RetryToken == "" || r.Status != lifecycle.StatusPending {
		t.Fatalf("record = %+v", r)
	}
	token := r.RetryToken

	t.Run("repeat failure touches the existing record", func(t *testing.T) {
		later := activityBase.Add(10 * time.Minute)
		uc.now = func() time.Time { return later }

		r, err := uc.RecordPaymentFailure(context.Background(), "order-1", "anna@example.com", amount, "insufficient_funds")
		if err != nil {
			t.Fatal(err)
		}
		if r.RetryToken != token {
			t.Errorf("new record created for the same order: %s vs %s", r.RetryToken, token)
		}
		if !r.LastActivityAt.Equal(later) {
			t.Errorf("LastActivityAt = %s", r.LastActivityAt)
		}
		// Payload stays the first-failure snapshot.
		if r.FailureReason != "card_declined" {
			t.Errorf("reason = %q", r.FailureReason)
		}
	})

	t.Run("failure after completion opens a fresh record", func(t *testing.T) {
		if err := failures.Complete(context.Background(), token); err != nil {
			t.Fatal(err)
		}
		r, err := uc.RecordPaymentFailure(context.Background(), "order-1", "anna@example.com", amount, "card_declined")
		if err != nil {
			t.Fatal(err)
		}
		if r.RetryToken == token {
			t.Error("completed record was reopened")
		}
		if r.Status != lifecycle.StatusPending {
			t.Errorf("status = %s", r.Status)
		}
	})

	t.Run("empty order id", func(t *testing.T) {
		if _, err := uc.RecordPaymentFailure(context.Background(), "", "a@b.se", amount, ""); !errors.Is(err, ErrActivityOwnerEmpty) {
			t.Fatalf("err = %v", err)
		}
	})
}
