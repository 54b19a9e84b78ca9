// internal/application/usecase/sweep_usecase.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	cartdom "github.com/ErnestIssa/vornify-server-sub000/internal/domain/cartsession"
	checkoutdom "github.com/ErnestIssa/vornify-server-sub000/internal/domain/checkout"
	"github.com/ErnestIssa/vornify-server-sub000/internal/domain/lifecycle"
	orderdom "github.com/ErnestIssa/vornify-server-sub000/internal/domain/order"
	pfdom "github.com/ErnestIssa/vornify-server-sub000/internal/domain/paymentfailure"
	userdom "github.com/ErnestIssa/vornify-server-sub000/internal/domain/user"
)

// SweepResult aggregates one sweep cycle over one record type.
type SweepResult struct {
	Scanned  int `json:"scanned"`
	Notified int `json:"notified"`
	Skipped  int `json:"skipped"`
	Errored  int `json:"errored"`
}

func (r SweepResult) String() string {
	return fmt.Sprintf("scanned=%d notified=%d skipped=%d errored=%d", r.Scanned, r.Notified, r.Skipped, r.Errored)
}

// SweepConfig carries the time boundaries. Always durations relative to stored
// timestamps — never absolute deadlines computed once and drifting.
type SweepConfig struct {
	CartIdleThreshold     time.Duration // e.g. 30m
	CheckoutIdleThreshold time.Duration // e.g. 1h
	PaymentRetryGrace     time.Duration // e.g. 2h
	RecoveryBaseURL       string        // storefront URL the recovery links point at
}

// SweepUsecase is the periodic batch side of the reconciliation core: it scans
// idle records and pushes each candidate through the notification gate. The
// gate's conditional write — not the scan — is the at-most-once guard, so the
// sweep is free to race live user activity.
type SweepUsecase struct {
	carts     cartdom.Repository
	checkouts checkoutdom.Repository
	failures  pfdom.Repository
	orders    orderdom.Repository
	users     userdom.Repository
	gate      *NotificationGate
	cfg       SweepConfig
	now       func() time.Time
}

func NewSweepUsecase(
	carts cartdom.Repository,
	checkouts checkoutdom.Repository,
	failures pfdom.Repository,
	orders orderdom.Repository,
	users userdom.Repository,
	gate *NotificationGate,
	cfg SweepConfig,
) *SweepUsecase {
	return &SweepUsecase{
		carts:     carts,
		checkouts: checkouts,
		failures:  failures,
		orders:    orders,
		users:     users,
		gate:      gate,
		cfg:       cfg,
		now:       time.Now,
	}
}

var ErrSweepNotConfigured = errors.New("sweep: usecase is not configured")

// SweepCarts scans idle cart sessions. Per-record failures are counted and
// skipped; one bad record never aborts the batch.
func (u *SweepUsecase) SweepCarts(ctx context.Context) (SweepResult, error) {
	var res SweepResult
	if u == nil || u.carts == nil || u.gate == nil {
		return res, ErrSweepNotConfigured
	}

	cutoff := u.now().Add(-u.cfg.CartIdleThreshold)
	sessions, err := u.carts.ListAbandonmentCandidates(ctx, cutoff)
	if err != nil {
		return res, fmt.Errorf("sweep: list cart candidates: %w", err)
	}

	for _, s := range sessions {
		res.Scanned++
		now := u.now()

		// Re-read the idle gap at decision time: activity may have resumed
		// since the listing. This narrows the race; the gate closes it.
		if !s.AbandonmentEligible(now, u.cfg.CartIdleThreshold) {
			res.Skipped++
			continue
		}

		email, err := u.resolveOwnerEmail(ctx, s.OwnerID)
		if err != nil {
			log.Printf("[sweep] cart owner=%s resolve error: %v", s.OwnerID, err)
			res.Errored++
			continue
		}
		if email == "" {
			// Anonymous session: nothing to mail.
			res.Skipped++
			continue
		}

		superseded, err := u.orderedSince(ctx, email, s.UpdatedAt)
		if err != nil {
			res.Errored++
			continue
		}
		if superseded {
			// An order consumed this basket; clear it so future scans stop here.
			if cErr := u.carts.Clear(ctx, s.OwnerID, now); cErr != nil {
				log.Printf("[sweep] cart owner=%s clear error: %v", s.OwnerID, cErr)
			}
			res.Skipped++
			continue
		}

		lastActivity := s.UpdatedAt
		mark := func(ctx context.Context, sentAt time.Time) error {
			return u.carts.MarkNotified(ctx, s.OwnerID, lastActivity, sentAt)
		}
		data := map[string]any{
			"items": s.Items,
			"total": s.Total().StringFixed(2),
		}
		outcome, err := u.gate.TryNotify(ctx, mark, MailAbandonedCart, email, data)
		u.tally(&res, outcome, err, "cart", s.OwnerID)
	}

	log.Printf("[sweep] carts done %s", res)
	return res, nil
}

// SweepCheckouts scans captured-but-unpaid checkouts.
func (u *SweepUsecase) SweepCheckouts(ctx context.Context) (SweepResult, error) {
	var res SweepResult
	if u == nil || u.checkouts == nil || u.gate == nil {
		return res, ErrSweepNotConfigured
	}

	cutoff := u.now().Add(-u.cfg.CheckoutIdleThreshold)
	candidates, err := u.checkouts.ListAbandonmentCandidates(ctx, cutoff)
	if err != nil {
		return res, fmt.Errorf("sweep: list checkout candidates: %w", err)
	}

	for _, c := range candidates {
		res.Scanned++
		now := u.now()

		if c.EmailSent || c.Status.Terminal() {
			res.Skipped++
			continue
		}
		if c.IdleFor(now) < u.cfg.CheckoutIdleThreshold {
			res.Skipped++
			continue
		}

		superseded, err := u.orderedSince(ctx, c.Email, c.LastActivityAt)
		if err != nil {
			res.Errored++
			continue
		}
		if superseded {
			// Completion arrived through another path; mark it so future
			// scans stop re-evaluating this record.
			if mErr := u.checkouts.Complete(ctx, c.ID); mErr != nil {
				log.Printf("[sweep] checkout token=%s complete error: %v", c.ID, mErr)
			}
			res.Skipped++
			continue
		}

		token := c.ID
		mark := func(ctx context.Context, sentAt time.Time) error {
			return u.checkouts.MarkEmailSent(ctx, token, sentAt)
		}
		data := map[string]any{
			"items":       c.Items,
			"total":       c.Total.StringFixed(2),
			"recoveryUrl": u.recoveryURL("checkout", token),
		}
		outcome, err := u.gate.TryNotify(ctx, mark, MailCheckoutRecovery, c.Email, data)
		u.tally(&res, outcome, err, "checkout", token)
	}

	log.Printf("[sweep] checkouts done %s", res)
	return res, nil
}

// SweepPaymentFailures scans failed payments past the grace window.
func (u *SweepUsecase) SweepPaymentFailures(ctx context.Context) (SweepResult, error) {
	var res SweepResult
	if u == nil || u.failures == nil || u.gate == nil {
		return res, ErrSweepNotConfigured
	}

	cutoff := u.now().Add(-u.cfg.PaymentRetryGrace)
	candidates, err := u.failures.ListRetryCandidates(ctx, cutoff)
	if err != nil {
		return res, fmt.Errorf("sweep: list payment-failure candidates: %w", err)
	}

	for _, r := range candidates {
		res.Scanned++
		now := u.now()

		if r.EmailSent || r.Status.Terminal() {
			res.Skipped++
			continue
		}
		if r.IdleFor(now) < u.cfg.PaymentRetryGrace {
			res.Skipped++
			continue
		}

		superseded, err := u.orderedSince(ctx, r.Email, r.LastActivityAt)
		if err != nil {
			res.Errored++
			continue
		}
		if superseded {
			if mErr := u.failures.Complete(ctx, r.RetryToken); mErr != nil {
				log.Printf("[sweep] payment-failure token=%s complete error: %v", r.RetryToken, mErr)
			}
			res.Skipped++
			continue
		}

		token := r.RetryToken
		mark := func(ctx context.Context, sentAt time.Time) error {
			return u.failures.MarkEmailSent(ctx, token, sentAt)
		}
		data := map[string]any{
			"orderId":  r.OrderID,
			"amount":   r.Amount.StringFixed(2),
			"reason":   r.FailureReason,
			"retryUrl": u.recoveryURL("payment", token),
		}
		outcome, err := u.gate.TryNotify(ctx, mark, MailPaymentRetry, r.Email, data)
		u.tally(&res, outcome, err, "payment-failure", token)
	}

	log.Printf("[sweep] payment failures done %s", res)
	return res, nil
}

// ----------------------------
// helpers
// ----------------------------

func (u *SweepUsecase) tally(res *SweepResult, outcome GateOutcome, err error, kind, id string) {
	switch outcome {
	case OutcomeSent:
		res.Notified++
	case OutcomeAlreadyHandled:
		if err != nil {
			// Store failure on this record only; the batch continues.
			log.Printf("[sweep] %s id=%s gate error: %v", kind, id, err)
			res.Errored++
			return
		}
		res.Skipped++
	case OutcomeDispatchFailed:
		res.Errored++
	}
}

// orderedSince checks whether a completion superseded an apparently idle
// record. Read-only reconciliation: related records are never joint-written.
func (u *SweepUsecase) orderedSince(ctx context.Context, email string, since time.Time) (bool, error) {
	if u.orders == nil || strings.TrimSpace(email) == "" {
		return false, nil
	}
	ok, err := u.orders.ExistsForEmailSince(ctx, email, since)
	if err != nil {
		log.Printf("[sweep] order lookup email=%s error: %v", email, err)
		return false, err
	}
	return ok, nil
}

// resolveOwnerEmail maps a cart owner to a mail address. Owners that are raw
// email addresses pass through; account ids are looked up.
func (u *SweepUsecase) resolveOwnerEmail(ctx context.Context, ownerID string) (string, error) {
	oid := strings.TrimSpace(ownerID)
	if strings.Contains(oid, "@") {
		return strings.ToLower(oid), nil
	}
	if u.users == nil {
		return "", nil
	}
	usr, err := u.users.GetByID(ctx, oid)
	if err != nil {
		if errors.Is(err, userdom.ErrNotFound) || errors.Is(err, lifecycle.ErrNotFound) {
			return "", nil
		}
		return "", err
	}
	return usr.Email, nil
}

func (u *SweepUsecase) recoveryURL(flow, token string) string {
	base := strings.TrimRight(strings.TrimSpace(u.cfg.RecoveryBaseURL), "/")
	if base == "" {
		base = "https://shop.vornify.se"
	}
	return fmt.Sprintf("%s/%s/recover?token=%s", base, flow, token)
}
