// internal/domain/discount/entity.go
package discount

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrInvalidCode = errors.New("discount: invalid code")
	ErrAlreadyUsed = errors.New("discount: code already used")
	ErrExpired     = errors.New("discount: code expired")
)

// Policy constants. Durations are always applied relative to the stored
// issuedAt, never captured as absolute deadlines computed elsewhere.
const (
	DefaultLifetime      = 14 * 24 * time.Hour
	DefaultReminderDelay = 7 * 24 * time.Hour
)

// Code is a single-use, time-boxed incentive tied to a subscriber.
//   - natural key: email (one live code per subscriber)
//   - Expired is informational only: redemption compares times directly and
//     never depends on a sweep having run.
type Code struct {
	Email        string     `json:"email"`
	Code         string     `json:"code"`
	Percent      int        `json:"percent"`
	IssuedAt     time.Time  `json:"issuedAt"`
	ExpiresAt    time.Time  `json:"expiresAt"`
	Used         bool       `json:"used"`
	UsedAt       *time.Time `json:"usedAt,omitempty"`
	ReminderSent bool       `json:"reminderSent"`
	Expired      bool       `json:"expired"`
}

// New issues a code for email with the given lifetime (DefaultLifetime if 0).
func New(email, code string, percent int, now time.Time, lifetime time.Duration) (*Code, error) {
	e := strings.ToLower(strings.TrimSpace(email))
	cd := strings.ToUpper(strings.TrimSpace(code))
	if e == "" || cd == "" || percent <= 0 || percent > 100 {
		return nil, ErrInvalidCode
	}
	if lifetime <= 0 {
		lifetime = DefaultLifetime
	}
	issued := now.UTC()
	return &Code{
		Email:     e,
		Code:      cd,
		Percent:   percent,
		IssuedAt:  issued,
		ExpiresAt: issued.Add(lifetime),
	}, nil
}

// IsExpired compares against the stored deadline; the informational Expired
// flag is deliberately not consulted.
func (c *Code) IsExpired(now time.Time) bool {
	if c == nil {
		return true
	}
	return !now.Before(c.ExpiresAt)
}

// ReminderEligible reports whether the 7-day reminder may fire now.
// Expiry takes precedence: a code past expiresAt never triggers a reminder,
// even with reminderSent=false.
func (c *Code) ReminderEligible(now time.Time, reminderDelay time.Duration) bool {
	if c == nil || c.Used || c.ReminderSent {
		return false
	}
	if c.IsExpired(now) {
		return false
	}
	if reminderDelay <= 0 {
		reminderDelay = DefaultReminderDelay
	}
	return now.Sub(c.IssuedAt) >= reminderDelay
}

// Redeem flips the code to used. Terminal checks run in precedence order:
// a used code reports ErrAlreadyUsed, an expired one ErrExpired.
func (c *Code) Redeem(now time.Time) error {
	if c == nil {
		return ErrInvalidCode
	}
	if c.Used {
		return ErrAlreadyUsed
	}
	if c.IsExpired(now) {
		return ErrExpired
	}
	used := now.UTC()
	c.Used = true
	c.UsedAt = &used
	return nil
}
