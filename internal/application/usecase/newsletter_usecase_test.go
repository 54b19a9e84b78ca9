// internal/application/usecase/newsletter_usecase_test.go
package usecase

import (
	"context"
	"errors"
	"testing"
	"time"
)

var newsletterBase = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newNewsletterFixture() (*NewsletterUsecase, *fakeSubscriberRepo, *fakeDiscountRepo, *fakeDispatcher) {
	subs := newFakeSubscriberRepo()
	codes := newFakeDiscountRepo()
	d := &fakeDispatcher{}
	clk := newTestClock(newsletterBase)
	gate := NewNotificationGate(d)
	gate.now = clk.now
	discounts := NewDiscountUsecase(codes, gate, DiscountConfig{Percent: 10})
	discounts.now = clk.now
	uc := NewNewsletterUsecase(subs, discounts, d)
	uc.now = clk.now
	return uc, subs, codes, d
}

func TestSubscribe(t *testing.T) {
	uc, _, codes, d := newNewsletterFixture()

	s, err := uc.Subscribe(context.Background(), "Anna@Example.com", "footer")
	if err != nil {
		t.Fatal(err)
	}
	if s.Email != "anna@example.com" || !s.Active() {
		t.Errorf("subscriber = %+v", s)
	}

	// First signup: one code, one welcome mail.
	code, err := codes.GetByEmail(context.Background(), "anna@example.com")
	if err != nil {
		t.Fatalf("no welcome code issued: %v", err)
	}
	if d.sentCount() != 1 {
		t.Fatalf("sent = %d", d.sentCount())
	}
	if m := d.sentTo(0); m.Kind != MailDiscountWelcome || m.Data["code"] != code.Code {
		t.Errorf("mail = %+v", m)
	}

	t.Run("repeat signup issues nothing new", func(t *testing.T) {
		if _, err := uc.Subscribe(context.Background(), "anna@example.com", "popup"); err != nil {
			t.Fatal(err)
		}
		if d.sentCount() != 1 {
			t.Errorf("welcome mail resent, sent = %d", d.sentCount())
		}
	})

	t.Run("empty email", func(t *testing.T) {
		if _, err := uc.Subscribe(context.Background(), " ", ""); !errors.Is(err, ErrNewsletterEmailEmpty) {
			t.Fatalf("err = %v", err)
		}
	})
}

func TestResubscribeAfterUnsubscribe(t *testing.T) {
	uc, subs, _, d := newNewsletterFixture()

	if _, err := uc.Subscribe(context.Background(), "anna@example.com", "footer"); err != nil {
		t.Fatal(err)
	}
	if err := uc.Unsubscribe(context.Background(), "anna@example.com"); err != nil {
		t.Fatal(err)
	}
	s, _ := subs.GetByEmail(context.Background(), "anna@example.com")
	if s.Active() {
		t.Fatal("still active after unsubscribe")
	}

	later := newsletterBase.Add(48 * time.Hour)
	uc.now = func() time.Time { return later }
	s, err := uc.Subscribe(context.Background(), "anna@example.com", "popup")
	if err != nil {
		t.Fatal(err)
	}
	if !s.Active() || !s.SubscribedAt.Equal(later) {
		t.Errorf("subscriber = %+v, want re-activated", s)
	}
	// No second welcome code or mail on re-activation.
	if d.sentCount() != 1 {
		t.Errorf("sent = %d, want 1", d.sentCount())
	}
}

func TestUnsubscribeIdempotent(t *testing.T) {
	uc, _, _, _ := newNewsletterFixture()

	// Unknown email is already gone.
	if err := uc.Unsubscribe(context.Background(), "ghost@example.com"); err != nil {
		t.Fatal(err)
	}

	if _, err := uc.Subscribe(context.Background(), "anna@example.com", ""); err != nil {
		t.Fatal(err)
	}
	if err := uc.Unsubscribe(context.Background(), "anna@example.com"); err != nil {
		t.Fatal(err)
	}
	if err := uc.Unsubscribe(context.Background(), "anna@example.com"); err != nil {
		t.Fatal(err)
	}
}
