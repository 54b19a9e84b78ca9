// internal/application/usecase/newsletter_usecase.go
package usecase

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/ErnestIssa/vornify-server-sub000/internal/domain/lifecycle"
	subdom "github.com/ErnestIssa/vornify-server-sub000/internal/domain/subscriber"
)

var ErrNewsletterEmailEmpty = errors.New("newsletter: email is empty")

// NewsletterUsecase handles signups. A first subscription issues the welcome
// discount code and sends the welcome mail (plain send, no gate: issuance is
// already idempotent per subscriber).
type NewsletterUsecase struct {
	subscribers subdom.Repository
	discounts   *DiscountUsecase
	dispatcher  Dispatcher
	now         func() time.Time
}

func NewNewsletterUsecase(subscribers subdom.Repository, discounts *DiscountUsecase, dispatcher Dispatcher) *NewsletterUsecase {
	return &NewsletterUsecase{
		subscribers: subscribers,
		discounts:   discounts,
		dispatcher:  dispatcher,
		now:         time.Now,
	}
}

// Subscribe upserts the subscriber and, on first signup, issues the welcome
// code. Re-subscribing after an unsubscribe re-activates without a new code.
func (u *NewsletterUsecase) Subscribe(ctx context.Context, email, source string) (*subdom.Subscriber, error) {
	e := strings.ToLower(strings.TrimSpace(email))
	if e == "" {
		return nil, ErrNewsletterEmailEmpty
	}

	now := u.now()

	s, err := u.subscribers.GetByEmail(ctx, e)
	if err != nil {
		if !errors.Is(err, subdom.ErrNotFound) && !errors.Is(err, lifecycle.ErrNotFound) {
			return nil, err
		}
		s, err = subdom.New(e, source, now)
		if err != nil {
			return nil, err
		}
	} else if !s.Active() {
		s.UnsubscribedAt = nil
		s.SubscribedAt = now.UTC()
	}

	if err := u.subscribers.Upsert(ctx, s); err != nil {
		return nil, err
	}

	if u.discounts != nil {
		code, created, err := u.discounts.Issue(ctx, e)
		if err != nil {
			// Signup succeeded; a failed code issue is loud but not fatal.
			log.Printf("[newsletter_uc] WARN: code issue failed email=%s err=%v", e, err)
			return s, nil
		}
		if created && u.dispatcher != nil {
			res := u.dispatcher.Send(ctx, MailDiscountWelcome, e, map[string]any{
				"code":      code.Code,
				"percent":   code.Percent,
				"expiresAt": code.ExpiresAt.Format(time.RFC3339),
			})
			if !res.Success {
				log.Printf("[newsletter_uc] WARN: welcome mail failed email=%s err=%s", e, res.Err)
			}
		}
	}

	return s, nil
}

// Unsubscribe is idempotent; unknown emails are treated as already gone.
func (u *NewsletterUsecase) Unsubscribe(ctx context.Context, email string) error {
	e := strings.ToLower(strings.TrimSpace(email))
	if e == "" {
		return ErrNewsletterEmailEmpty
	}

	s, err := u.subscribers.GetByEmail(ctx, e)
	if err != nil {
		if errors.Is(err, subdom.ErrNotFound) || errors.Is(err, lifecycle.ErrNotFound) {
			return nil
		}
		return err
	}

	s.Unsubscribe(u.now())
	return u.subscribers.Upsert(ctx, s)
}
