// internal/domain/checkout/entity.go
package checkout

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ErnestIssa/vornify-server-sub000/internal/domain/cartsession"
	"github.com/ErnestIssa/vornify-server-sub000/internal/domain/lifecycle"
)

var (
	ErrInvalidCheckout = errors.New("checkout: invalid")
	ErrInvalidEmail    = errors.New("checkout: invalid email")
	ErrCompleted       = errors.New("checkout: already completed")
)

// CustomerSnapshot is the optional customer/shipping capture taken as the
// checkout form is filled in. The live-activity writer merges fields and never
// blanks a stored one.
type CustomerSnapshot struct {
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Address   string `json:"address,omitempty"`
	City      string `json:"city,omitempty"`
	PostCode  string `json:"postCode,omitempty"`
	Country   string `json:"country,omitempty"`
}

// Checkout is a pre-payment snapshot of an in-progress checkout.
//   - docId = opaque recovery token
//   - upsert key during live interaction: (email, status=pending)
//   - EmailSent flips false→true exactly once per record
type Checkout struct {
	ID             string                 `json:"id"` // recovery token
	Email          string                 `json:"email"`
	Items          []cartsession.LineItem `json:"items"`
	Total          decimal.Decimal        `json:"total"`
	Customer       *CustomerSnapshot      `json:"customer,omitempty"`
	Status         lifecycle.Status       `json:"status"`
	EmailSent      bool                   `json:"emailSent"`
	CreatedAt      time.Time              `json:"createdAt"`
	LastActivityAt time.Time              `json:"lastActivityAt"`
	RecoveryCount  int                    `json:"recoveryCount"`
}

// New creates a pending checkout. token is the Firestore docId (recovery token).
func New(token, email string, items []cartsession.LineItem, total decimal.Decimal, customer *CustomerSnapshot, now time.Time) (*Checkout, error) {
	c := &Checkout{
		ID:             strings.TrimSpace(token),
		Email:          normalizeEmail(email),
		Items:          items,
		Total:          total,
		Customer:       customer,
		Status:         lifecycle.StatusPending,
		EmailSent:      false,
		CreatedAt:      now.UTC(),
		LastActivityAt: now.UTC(),
		RecoveryCount:  0,
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Merge folds non-empty fields of in into c and refreshes the activity clock.
// A present stored field is never overwritten by an absent incoming one,
// so replaying the same payload is idempotent.
func (c *Checkout) Merge(items []cartsession.LineItem, total decimal.Decimal, customer *CustomerSnapshot, now time.Time) error {
	if c == nil {
		return ErrInvalidCheckout
	}
	if c.Status.Terminal() {
		return ErrCompleted
	}
	if len(items) > 0 {
		c.Items = items
	}
	if !total.IsZero() {
		c.Total = total
	}
	if customer != nil {
		if c.Customer == nil {
			c.Customer = &CustomerSnapshot{}
		}
		mergeNonEmpty(&c.Customer.FirstName, customer.FirstName)
		mergeNonEmpty(&c.Customer.LastName, customer.LastName)
		mergeNonEmpty(&c.Customer.Phone, customer.Phone)
		mergeNonEmpty(&c.Customer.Address, customer.Address)
		mergeNonEmpty(&c.Customer.City, customer.City)
		mergeNonEmpty(&c.Customer.PostCode, customer.PostCode)
		mergeNonEmpty(&c.Customer.Country, customer.Country)
	}
	c.LastActivityAt = now.UTC()
	return c.validate()
}

// Recover transitions to recovered (no-op if already recovered), bumps the
// recovery counter and refreshes activity. A completed checkout must never be
// reopened — callers get ErrCompleted and no write happens.
func (c *Checkout) Recover(now time.Time) error {
	if c == nil {
		return ErrInvalidCheckout
	}
	if c.Status == lifecycle.StatusCompleted {
		return ErrCompleted
	}
	if !c.Status.CanTransition(lifecycle.StatusRecovered) {
		return ErrInvalidCheckout
	}
	c.Status = lifecycle.StatusRecovered
	c.RecoveryCount++
	c.LastActivityAt = now.UTC()
	return nil
}

// Complete marks the checkout completed (order confirmed paid). Idempotent.
func (c *Checkout) Complete() error {
	if c == nil {
		return ErrInvalidCheckout
	}
	if c.Status == lifecycle.StatusCompleted {
		return nil
	}
	if !c.Status.CanTransition(lifecycle.StatusCompleted) {
		return ErrInvalidCheckout
	}
	c.Status = lifecycle.StatusCompleted
	return nil
}

// IdleFor returns the gap since the last recorded activity.
func (c *Checkout) IdleFor(now time.Time) time.Duration {
	if c == nil || c.LastActivityAt.IsZero() {
		return 0
	}
	return now.Sub(c.LastActivityAt)
}

func (c *Checkout) validate() error {
	if c == nil {
		return ErrInvalidCheckout
	}
	if strings.TrimSpace(c.ID) == "" {
		return ErrInvalidCheckout
	}
	if !validEmail(c.Email) {
		return ErrInvalidEmail
	}
	if !c.Status.Valid() {
		return ErrInvalidCheckout
	}
	if c.CreatedAt.IsZero() || c.LastActivityAt.IsZero() {
		return ErrInvalidCheckout
	}
	if c.RecoveryCount < 0 {
		return ErrInvalidCheckout
	}
	if c.Total.IsNegative() {
		return ErrInvalidCheckout
	}
	return nil
}

func mergeNonEmpty(dst *string, src string) {
	if s := strings.TrimSpace(src); s != "" {
		*dst = s
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validEmail(email string) bool {
	e := strings.TrimSpace(email)
	at := strings.Index(e, "@")
	return at > 0 && at < len(e)-1 && !strings.ContainsAny(e, " \t")
}
