// internal/application/usecase/discount_usecase.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	ddom "github.com/ErnestIssa/vornify-server-sub000/internal/domain/discount"
	"github.com/ErnestIssa/vornify-server-sub000/internal/domain/lifecycle"
)

var (
	ErrDiscountEmailEmpty = errors.New("discount: email is empty")
	ErrDiscountCodeEmpty  = errors.New("discount: code is empty")
)

// DiscountConfig holds the time-boxed incentive policy.
type DiscountConfig struct {
	Percent       int           // e.g. 10
	Lifetime      time.Duration // 14 days
	ReminderDelay time.Duration // 7 days
}

// DiscountUsecase manages issuance, the 7-day reminder, 14-day expiry and the
// terminal used state. Independent of the cart/checkout sweep but built on the
// same conditional-update-then-act pattern.
type DiscountUsecase struct {
	codes ddom.Repository
	gate  *NotificationGate
	cfg   DiscountConfig
	now   func() time.Time
}

func NewDiscountUsecase(codes ddom.Repository, gate *NotificationGate, cfg DiscountConfig) *DiscountUsecase {
	if cfg.Percent <= 0 {
		cfg.Percent = 10
	}
	if cfg.Lifetime <= 0 {
		cfg.Lifetime = ddom.DefaultLifetime
	}
	if cfg.ReminderDelay <= 0 {
		cfg.ReminderDelay = ddom.DefaultReminderDelay
	}
	return &DiscountUsecase{
		codes: codes,
		gate:  gate,
		cfg:   cfg,
		now:   time.Now,
	}
}

// Issue creates a code for email unless one already exists (idempotent per
// subscriber: the existing code is returned unchanged).
func (u *DiscountUsecase) Issue(ctx context.Context, email string) (*ddom.Code, bool, error) {
	e := strings.ToLower(strings.TrimSpace(email))
	if e == "" {
		return nil, false, ErrDiscountEmailEmpty
	}

	existing, err := u.codes.GetByEmail(ctx, e)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, lifecycle.ErrNotFound) {
		return nil, false, err
	}

	code, err := ddom.New(e, generateCode(), u.cfg.Percent, u.now(), u.cfg.Lifetime)
	if err != nil {
		return nil, false, err
	}
	if err := u.codes.Create(ctx, code); err != nil {
		return nil, false, err
	}

	log.Printf("[discount_uc] issued code=%s email=%s expiresAt=%s", code.Code, e, code.ExpiresAt.Format(time.RFC3339))
	return code, true, nil
}

// Redeem resolves a code at checkout. Expiry is evaluated lazily here against
// the stored deadline — never against the informational expired flag — so
// rejection does not depend on a sweep having run. The repository applies the
// used flag as a compare-and-set: a race yields exactly one success.
func (u *DiscountUsecase) Redeem(ctx context.Context, code string) (*ddom.Code, error) {
	cd := strings.ToUpper(strings.TrimSpace(code))
	if cd == "" {
		return nil, ErrDiscountCodeEmpty
	}
	return u.codes.Redeem(ctx, cd, u.now())
}

// SweepReminders dispatches the 7-day reminder for eligible codes.
func (u *DiscountUsecase) SweepReminders(ctx context.Context) (SweepResult, error) {
	var res SweepResult
	if u == nil || u.codes == nil || u.gate == nil {
		return res, ErrSweepNotConfigured
	}

	now := u.now()
	issuedCutoff := now.Add(-u.cfg.ReminderDelay)
	candidates, err := u.codes.ListReminderCandidates(ctx, issuedCutoff, now)
	if err != nil {
		return res, fmt.Errorf("discount: list reminder candidates: %w", err)
	}

	for _, c := range candidates {
		res.Scanned++

		// Decision-time re-check; expiry wins over an unsent reminder.
		if !c.ReminderEligible(u.now(), u.cfg.ReminderDelay) {
			res.Skipped++
			continue
		}

		email := c.Email
		mark := func(ctx context.Context, sentAt time.Time) error {
			return u.codes.MarkReminderSent(ctx, email, sentAt)
		}
		data := map[string]any{
			"code":      c.Code,
			"percent":   c.Percent,
			"expiresAt": c.ExpiresAt.Format(time.RFC3339),
		}
		outcome, err := u.gate.TryNotify(ctx, mark, MailDiscountReminder, email, data)
		switch outcome {
		case OutcomeSent:
			res.Notified++
		case OutcomeAlreadyHandled:
			if err != nil {
				res.Errored++
				continue
			}
			res.Skipped++
		case OutcomeDispatchFailed:
			res.Errored++
		}
	}

	log.Printf("[discount_uc] reminder sweep done %s", res)
	return res, nil
}

// SweepExpiry flags unused codes past their deadline. Informational only:
// redemption never reads the flag.
func (u *DiscountUsecase) SweepExpiry(ctx context.Context) (int, error) {
	if u == nil || u.codes == nil {
		return 0, ErrSweepNotConfigured
	}
	n, err := u.codes.MarkExpired(ctx, u.now())
	if err != nil {
		return 0, fmt.Errorf("discount: expiry sweep: %w", err)
	}
	if n > 0 {
		log.Printf("[discount_uc] expiry sweep flagged %d code(s)", n)
	}
	return n, nil
}

// generateCode builds a short human-enterable code like "VORN-7FD2A9".
func generateCode() string {
	raw := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return "VORN-" + raw[:6]
}
