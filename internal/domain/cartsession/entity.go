// internal/domain/cartsession/entity.go
package cartsession

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidSession = errors.New("cartsession: invalid")
	ErrInvalidItem    = errors.New("cartsession: invalid line item")
)

// LineItem is one line in a customer's basket.
type LineItem struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Qty       int             `json:"qty"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

// Session represents the customer's current basket.
//   - docId = ownerId (one live session per owner)
//   - NotifiedAt is set once an abandonment mail for the current idle period went out;
//     any later mutation clears it so a fresh idle period can be detected again.
type Session struct {
	OwnerID    string     `json:"ownerId"`
	Items      []LineItem `json:"items"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
	NotifiedAt *time.Time `json:"notifiedAt,omitempty"`
}

// New creates a session for ownerID. items can be nil (empty basket).
func New(ownerID string, items []LineItem, now time.Time) (*Session, error) {
	oid := strings.TrimSpace(ownerID)
	if oid == "" {
		return nil, ErrInvalidSession
	}
	s := &Session{
		OwnerID:   oid,
		Items:     cloneItems(items),
		CreatedAt: now.UTC(),
		UpdatedAt: now.UTC(),
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// SetItems replaces the basket contents and refreshes the activity clock.
// A mutation after a sent notification clears NotifiedAt (new idle period).
func (s *Session) SetItems(items []LineItem, now time.Time) error {
	if s == nil {
		return ErrInvalidSession
	}
	s.Items = cloneItems(items)
	s.touch(now)
	return s.validate()
}

// Total sums qty * unitPrice over all lines.
func (s *Session) Total() decimal.Decimal {
	total := decimal.Zero
	if s == nil {
		return total
	}
	for _, it := range s.Items {
		total = total.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Qty))))
	}
	return total
}

// IdleFor returns how long the session has gone without a mutation.
func (s *Session) IdleFor(now time.Time) time.Duration {
	if s == nil || s.UpdatedAt.IsZero() {
		return 0
	}
	return now.Sub(s.UpdatedAt)
}

// AbandonmentEligible reports whether the session qualifies for an abandonment
// notification: non-empty, idle past threshold, not yet notified for this idle period.
func (s *Session) AbandonmentEligible(now time.Time, idleThreshold time.Duration) bool {
	if s == nil || len(s.Items) == 0 {
		return false
	}
	if s.NotifiedAt != nil {
		return false
	}
	return s.IdleFor(now) >= idleThreshold
}

func (s *Session) touch(now time.Time) {
	s.UpdatedAt = now.UTC()
	s.NotifiedAt = nil
}

func (s *Session) validate() error {
	if s == nil || strings.TrimSpace(s.OwnerID) == "" {
		return ErrInvalidSession
	}
	if s.CreatedAt.IsZero() || s.UpdatedAt.IsZero() {
		return ErrInvalidSession
	}
	if s.UpdatedAt.Before(s.CreatedAt) {
		return ErrInvalidSession
	}
	for _, it := range s.Items {
		if strings.TrimSpace(it.ProductID) == "" || it.Qty <= 0 || it.UnitPrice.IsNegative() {
			return ErrInvalidItem
		}
	}
	return nil
}

func cloneItems(src []LineItem) []LineItem {
	if len(src) == 0 {
		return []LineItem{}
	}
	out := make([]LineItem, 0, len(src))
	for _, it := range src {
		it.ProductID = strings.TrimSpace(it.ProductID)
		it.Name = strings.TrimSpace(it.Name)
		if it.ProductID == "" || it.Qty <= 0 {
			continue
		}
		out = append(out, it)
	}
	return out
}
