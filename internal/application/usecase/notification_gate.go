// internal/application/usecase/notification_gate.go
package usecase

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/ErnestIssa/vornify-server-sub000/internal/domain/lifecycle"
)

// MailKind names a SendGrid dynamic template.
type MailKind string

const (
	MailAbandonedCart     MailKind = "abandoned_cart"
	MailCheckoutRecovery  MailKind = "checkout_recovery"
	MailPaymentRetry      MailKind = "payment_retry"
	MailOrderConfirmation MailKind = "order_confirmation"
	MailDiscountWelcome   MailKind = "discount_welcome"
	MailDiscountReminder  MailKind = "discount_reminder"
)

// DispatchResult carries the transport outcome. Failures are data, never panics.
type DispatchResult struct {
	Success   bool
	MessageID string
	Err       string
}

// Dispatcher is the outbound mail port (SendGrid in production).
type Dispatcher interface {
	Send(ctx context.Context, kind MailKind, to string, data map[string]any) DispatchResult
}

// GateOutcome classifies a TryNotify call.
type GateOutcome string

const (
	// OutcomeSent: flag flipped and mail handed to the transport.
	OutcomeSent GateOutcome = "sent"
	// OutcomeAlreadyHandled: a concurrent writer won the race or the record
	// turned terminal. The normal at-most-once skip, not an error.
	OutcomeAlreadyHandled GateOutcome = "already-handled"
	// OutcomeDispatchFailed: flag flipped but the transport failed. The flag is
	// NOT rolled back: repeated send failures beat duplicate sends.
	OutcomeDispatchFailed GateOutcome = "dispatch-failed"
)

// markFunc performs the conditional mark-as-sent write for one record. It must
// return lifecycle.ErrConflictSkipped when the precondition no longer holds.
type markFunc func(ctx context.Context, sentAt time.Time) error

// NotificationGate is the at-most-once guard around dispatch: only a
// successful conditional write may trigger a send.
type NotificationGate struct {
	dispatcher Dispatcher
	now        func() time.Time
}

func NewNotificationGate(dispatcher Dispatcher) *NotificationGate {
	return &NotificationGate{
		dispatcher: dispatcher,
		now:        time.Now,
	}
}

var ErrGateDispatcherMissing = errors.New("notification_gate: dispatcher is not configured")

// TryNotify runs mark, and dispatches only if the conditional write succeeded.
func (g *NotificationGate) TryNotify(ctx context.Context, mark markFunc, kind MailKind, to string, data map[string]any) (GateOutcome, error) {
	if g == nil || g.dispatcher == nil {
		return OutcomeDispatchFailed, ErrGateDispatcherMissing
	}

	sentAt := g.now().UTC()
	if err := mark(ctx, sentAt); err != nil {
		if errors.Is(err, lifecycle.ErrConflictSkipped) || errors.Is(err, lifecycle.ErrAlreadyTerminal) {
			log.Printf("[notification_gate] skip kind=%s to=%s reason=already-handled", kind, to)
			return OutcomeAlreadyHandled, nil
		}
		return OutcomeAlreadyHandled, err
	}

	res := g.dispatcher.Send(ctx, kind, to, data)
	if !res.Success {
		// Customer will not receive an expected mail: log loud, keep the flag.
		log.Printf("[notification_gate] ERROR: dispatch failed after state flip kind=%s to=%s err=%s", kind, to, res.Err)
		return OutcomeDispatchFailed, lifecycle.ErrDispatchFailed
	}

	log.Printf("[notification_gate] sent kind=%s to=%s messageId=%s", kind, to, res.MessageID)
	return OutcomeSent, nil
}
