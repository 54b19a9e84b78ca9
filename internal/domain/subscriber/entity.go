// internal/domain/subscriber/entity.go
package subscriber

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrInvalidSubscriber = errors.New("subscriber: invalid")
	ErrNotFound          = errors.New("subscriber: not found")
)

// Subscriber is a newsletter signup. The first subscription for an email also
// issues a welcome discount code (handled in the usecase layer).
type Subscriber struct {
	Email          string     `json:"email"`
	Source         string     `json:"source,omitempty"`
	SubscribedAt   time.Time  `json:"subscribedAt"`
	UnsubscribedAt *time.Time `json:"unsubscribedAt,omitempty"`
}

func New(email, source string, now time.Time) (*Subscriber, error) {
	e := strings.ToLower(strings.TrimSpace(email))
	if e == "" || !strings.Contains(e, "@") {
		return nil, ErrInvalidSubscriber
	}
	return &Subscriber{
		Email:        e,
		Source:       strings.TrimSpace(source),
		SubscribedAt: now.UTC(),
	}, nil
}

// Active reports whether the subscriber still receives mail.
func (s *Subscriber) Active() bool {
	return s != nil && s.UnsubscribedAt == nil
}

// Unsubscribe is idempotent.
func (s *Subscriber) Unsubscribe(now time.Time) {
	if s == nil || s.UnsubscribedAt != nil {
		return
	}
	t := now.UTC()
	s.UnsubscribedAt = &t
}
