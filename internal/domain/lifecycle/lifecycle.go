// internal/domain/lifecycle/lifecycle.go
package lifecycle

import "errors"

// Shared outcome taxonomy for checkout / payment-failure / discount flows.
// ErrConflictSkipped is a normal outcome (another writer won the race), not a failure:
// callers log it at low severity and move on.
var (
	ErrNotFound        = errors.New("lifecycle: record not found")
	ErrAlreadyTerminal = errors.New("lifecycle: record is in a terminal state")
	ErrConflictSkipped = errors.New("lifecycle: conditional update matched no record")
	ErrDispatchFailed  = errors.New("lifecycle: notification dispatch failed")
)

// Status is the recovery-flow state shared by abandoned checkouts and
// payment-failure records.
//
// 遷移は単調: pending → recovered → completed / pending → completed のみ。
type Status string

const (
	StatusPending   Status = "pending"
	StatusRecovered Status = "recovered"
	StatusCompleted Status = "completed"
)

// Valid reports whether s is one of the known states.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusRecovered, StatusCompleted:
		return true
	}
	return false
}

// Terminal reports whether no further transition is permitted from s.
func (s Status) Terminal() bool {
	return s == StatusCompleted
}

// CanTransition reports whether s → next keeps the status monotonic.
// Self transitions are allowed (recover on an already recovered record is a no-op).
func (s Status) CanTransition(next Status) bool {
	if !s.Valid() || !next.Valid() {
		return false
	}
	if s == next {
		return true
	}
	switch s {
	case StatusPending:
		return next == StatusRecovered || next == StatusCompleted
	case StatusRecovered:
		return next == StatusCompleted
	}
	return false
}
