// internal/application/usecase/sweep_usecase_test.go
package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	cartdom "github.com/ErnestIssa/vornify-server-sub000/internal/domain/cartsession"
	checkoutdom "github.com/ErnestIssa/vornify-server-sub000/internal/domain/checkout"
	"github.com/ErnestIssa/vornify-server-sub000/internal/domain/lifecycle"
	orderdom "github.com/ErnestIssa/vornify-server-sub000/internal/domain/order"
	pfdom "github.com/ErnestIssa/vornify-server-sub000/internal/domain/paymentfailure"
	userdom "github.com/ErnestIssa/vornify-server-sub000/internal/domain/user"
)

var sweepBase = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func sweepItems() []cartdom.LineItem {
	return []cartdom.LineItem{
		{ProductID: "p1", Name: "Hoodie", Qty: 1, UnitPrice: decimal.RequireFromString("499.00")},
	}
}

type sweepFixture struct {
	carts      *fakeCartRepo
	checkouts  *fakeCheckoutRepo
	failures   *fakePaymentFailureRepo
	orders     *fakeOrderRepo
	users      *fakeUserRepo
	dispatcher *fakeDispatcher
	uc         *SweepUsecase
}

func newSweepFixture(t *testing.T, now time.Time) *sweepFixture {
	t.Helper()
	f := &sweepFixture{
		carts:      newFakeCartRepo(),
		checkouts:  newFakeCheckoutRepo(),
		failures:   newFakePaymentFailureRepo(),
		orders:     newFakeOrderRepo(),
		users:      newFakeUserRepo(),
		dispatcher: &fakeDispatcher{},
	}
	cfg := SweepConfig{
		CartIdleThreshold:     30 * time.Minute,
		CheckoutIdleThreshold: time.Hour,
		PaymentRetryGrace:     15 * time.Minute,
		RecoveryBaseURL:       "https://shop.vornify.se",
	}
	clk := newTestClock(now)
	gate := NewNotificationGate(f.dispatcher)
	gate.now = clk.now
	f.uc = NewSweepUsecase(f.carts, f.checkouts, f.failures, f.orders, f.users, gate, cfg)
	f.uc.now = clk.now
	return f
}

func (f *sweepFixture) addCart(t *testing.T, owner string, updatedAt time.Time) {
	t.Helper()
	s, err := cartdom.New(owner, sweepItems(), updatedAt)
	if err != nil {
		t.Fatal(err)
	}
	if err := f.carts.Upsert(context.Background(), s); err != nil {
		t.Fatal(err)
	}
}

func (f *sweepFixture) addCheckout(t *testing.T, token, email string, lastActivity time.Time) {
	t.Helper()
	c, err := checkoutdom.New(token, email, sweepItems(), decimal.RequireFromString("499.00"), nil, lastActivity)
	if err != nil {
		t.Fatal(err)
	}
	if err := f.checkouts.Create(context.Background(), c); err != nil {
		t.Fatal(err)
	}
}

func (f *sweepFixture) addFailure(t *testing.T, token, orderID, email string, lastActivity time.Time) {
	t.Helper()
	r, err := pfdom.New(token, orderID, email, decimal.RequireFromString("899.00"), "card_declined", lastActivity)
	if err != nil {
		t.Fatal(err)
	}
	if err := f.failures.Create(context.Background(), r); err != nil {
		t.Fatal(err)
	}
}

func (f *sweepFixture) addUser(t *testing.T, id, email string) {
	t.Helper()
	u, err := userdom.New(id, email, "", "x-hash", sweepBase)
	if err != nil {
		t.Fatal(err)
	}
	if err := f.users.Create(context.Background(), u); err != nil {
		t.Fatal(err)
	}
}

func (f *sweepFixture) addOrder(t *testing.T, id, email string, createdAt time.Time) {
	t.Helper()
	o, err := orderdom.New(id, "VN-TEST", email, "", sweepItems(), decimal.RequireFromString("499.00"), "SEK", createdAt)
	if err != nil {
		t.Fatal(err)
	}
	if err := f.orders.Create(context.Background(), o); err != nil {
		t.Fatal(err)
	}
}

func TestSweepCartsNotifiesOnce(t *testing.T) {
	now := sweepBase.Add(31 * time.Minute)
	f := newSweepFixture(t, now)
	f.addCart(t, "anna@example.com", sweepBase)

	res, err := f.uc.SweepCarts(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.Scanned != 1 || res.Notified != 1 {
		t.Fatalf("first sweep: %s", res)
	}
	if f.dispatcher.sentCount() != 1 {
		t.Fatalf("sent = %d, want 1", f.dispatcher.sentCount())
	}
	if m := f.dispatcher.sentTo(0); m.Kind != MailAbandonedCart || m.To != "anna@example.com" {
		t.Errorf("mail = %+v", m)
	}

	// Second pass: the notified session is no longer a candidate.
	res, err = f.uc.SweepCarts(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.Scanned != 0 || f.dispatcher.sentCount() != 1 {
		t.Errorf("second sweep resent: %s sent=%d", res, f.dispatcher.sentCount())
	}
}

func TestSweepCartsConcurrentSweepersSendOnce(t *testing.T) {
	now := sweepBase.Add(time.Hour)
	f := newSweepFixture(t, now)
	f.addCart(t, "anna@example.com", sweepBase)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = f.uc.SweepCarts(context.Background())
		}()
	}
	wg.Wait()

	if got := f.dispatcher.sentCount(); got != 1 {
		t.Fatalf("concurrent sweeps sent %d mail(s), want exactly 1", got)
	}
}

func TestSweepCartsActivityRaceSkips(t *testing.T) {
	now := sweepBase.Add(31 * time.Minute)
	f := newSweepFixture(t, now)
	f.addCart(t, "anna@example.com", sweepBase)

	// The customer comes back between the listing and the conditional write.
	f.carts.onList = func() {
		f.carts.mu.Lock()
		s := f.carts.sessions["anna@example.com"]
		s.UpdatedAt = now.Add(-time.Second)
		f.carts.mu.Unlock()
	}

	res, err := f.uc.SweepCarts(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.Notified != 0 || res.Skipped != 1 {
		t.Errorf("race not absorbed: %s", res)
	}
	if f.dispatcher.sentCount() != 0 {
		t.Error("mail sent to a customer who had resumed activity")
	}
}

func TestSweepCartsOwnerResolution(t *testing.T) {
	now := sweepBase.Add(time.Hour)

	t.Run("account owner resolved through user store", func(t *testing.T) {
		f := newSweepFixture(t, now)
		f.addUser(t, "user-1", "berit@example.com")
		f.addCart(t, "user-1", sweepBase)

		res, err := f.uc.SweepCarts(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		if res.Notified != 1 {
			t.Fatalf("res = %s", res)
		}
		if m := f.dispatcher.sentTo(0); m.To != "berit@example.com" {
			t.Errorf("mail to %q", m.To)
		}
	})

	t.Run("anonymous owner skipped", func(t *testing.T) {
		f := newSweepFixture(t, now)
		f.addCart(t, "guest-42", sweepBase)

		res, err := f.uc.SweepCarts(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		if res.Skipped != 1 || res.Notified != 0 || res.Errored != 0 {
			t.Errorf("res = %s", res)
		}
	})
}

func TestSweepCartsPerRecordIsolation(t *testing.T) {
	now := sweepBase.Add(time.Hour)
	f := newSweepFixture(t, now)
	f.users.errOn = "user-broken"
	f.addCart(t, "user-broken", sweepBase)
	f.addCart(t, "anna@example.com", sweepBase)

	res, err := f.uc.SweepCarts(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.Scanned != 2 || res.Notified != 1 || res.Errored != 1 {
		t.Errorf("one bad record disturbed the batch: %s", res)
	}
}

func TestSweepCartsSupersededByOrder(t *testing.T) {
	now := sweepBase.Add(time.Hour)
	f := newSweepFixture(t, now)
	f.addCart(t, "anna@example.com", sweepBase)
	f.addOrder(t, "o1", "anna@example.com", sweepBase.Add(10*time.Minute))

	res, err := f.uc.SweepCarts(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.Notified != 0 || res.Skipped != 1 {
		t.Errorf("res = %s", res)
	}
	if f.dispatcher.sentCount() != 0 {
		t.Error("abandonment mail sent for an already-placed order")
	}
	// The basket was consumed; future scans must not revisit it.
	s, err := f.carts.GetByOwnerID(context.Background(), "anna@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if len(s.Items) != 0 {
		t.Errorf("cart not cleared: %v", s.Items)
	}
}

func TestSweepCheckouts(t *testing.T) {
	now := sweepBase.Add(61 * time.Minute)

	t.Run("idle checkout gets one recovery mail", func(t *testing.T) {
		f := newSweepFixture(t, now)
		f.addCheckout(t, "tok-1", "anna@example.com", sweepBase)

		res, err := f.uc.SweepCheckouts(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		if res.Notified != 1 {
			t.Fatalf("res = %s", res)
		}
		m := f.dispatcher.sentTo(0)
		if m.Kind != MailCheckoutRecovery {
			t.Errorf("kind = %s", m.Kind)
		}
		if url, _ := m.Data["recoveryUrl"].(string); url != "https://shop.vornify.se/checkout/recover?token=tok-1" {
			t.Errorf("recoveryUrl = %q", url)
		}

		c, _ := f.checkouts.GetByToken(context.Background(), "tok-1")
		if !c.EmailSent {
			t.Error("emailSent not flipped")
		}

		res, _ = f.uc.SweepCheckouts(context.Background())
		if res.Notified != 0 || f.dispatcher.sentCount() != 1 {
			t.Errorf("second sweep resent: %s", res)
		}
	})

	t.Run("completion supersedes the idle record", func(t *testing.T) {
		f := newSweepFixture(t, now)
		f.addCheckout(t, "tok-1", "anna@example.com", sweepBase)
		f.addOrder(t, "o1", "anna@example.com", sweepBase.Add(5*time.Minute))

		res, err := f.uc.SweepCheckouts(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		if res.Notified != 0 || res.Skipped != 1 {
			t.Errorf("res = %s", res)
		}
		c, _ := f.checkouts.GetByToken(context.Background(), "tok-1")
		if c.Status != lifecycle.StatusCompleted {
			t.Errorf("status = %s, want completed", c.Status)
		}
	})

	t.Run("dispatch failure keeps the flag", func(t *testing.T) {
		f := newSweepFixture(t, now)
		f.dispatcher.fail = true
		f.addCheckout(t, "tok-1", "anna@example.com", sweepBase)

		res, err := f.uc.SweepCheckouts(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		if res.Errored != 1 {
			t.Fatalf("res = %s", res)
		}
		c, _ := f.checkouts.GetByToken(context.Background(), "tok-1")
		if !c.EmailSent {
			t.Error("flag rolled back after dispatch failure")
		}
		// No retry on later sweeps: missed-mail beats duplicate-mail.
		res, _ = f.uc.SweepCheckouts(context.Background())
		if res.Scanned != 0 {
			t.Errorf("failed record re-entered the batch: %s", res)
		}
	})
}

func TestSweepPaymentFailures(t *testing.T) {
	t.Run("inside grace window nothing fires", func(t *testing.T) {
		f := newSweepFixture(t, sweepBase.Add(10*time.Minute))
		f.addFailure(t, "retry-1", "o1", "anna@example.com", sweepBase)

		res, err := f.uc.SweepPaymentFailures(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		if res.Scanned != 0 || f.dispatcher.sentCount() != 0 {
			t.Errorf("res = %s sent=%d", res, f.dispatcher.sentCount())
		}
	})

	t.Run("past grace one retry mail", func(t *testing.T) {
		f := newSweepFixture(t, sweepBase.Add(16*time.Minute))
		f.addFailure(t, "retry-1", "o1", "anna@example.com", sweepBase)

		res, err := f.uc.SweepPaymentFailures(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		if res.Notified != 1 {
			t.Fatalf("res = %s", res)
		}
		m := f.dispatcher.sentTo(0)
		if m.Kind != MailPaymentRetry {
			t.Errorf("kind = %s", m.Kind)
		}
		if url, _ := m.Data["retryUrl"].(string); url != "https://shop.vornify.se/payment/recover?token=retry-1" {
			t.Errorf("retryUrl = %q", url)
		}
	})

	t.Run("payment succeeded elsewhere completes the record", func(t *testing.T) {
		f := newSweepFixture(t, sweepBase.Add(time.Hour))
		f.addFailure(t, "retry-1", "o1", "anna@example.com", sweepBase)
		f.addOrder(t, "o2", "anna@example.com", sweepBase.Add(30*time.Minute))

		res, err := f.uc.SweepPaymentFailures(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		if res.Notified != 0 || res.Skipped != 1 {
			t.Errorf("res = %s", res)
		}
		r, _ := f.failures.GetByToken(context.Background(), "retry-1")
		if r.Status != lifecycle.StatusCompleted {
			t.Errorf("status = %s, want completed", r.Status)
		}
	})
}
