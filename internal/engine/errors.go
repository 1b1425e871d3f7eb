package engine

import (
	"errors"
	"fmt"
	"time"
)

type Kind string

const (
	KindValidation Kind = "validation"
	KindConflict   Kind = "conflict"
	KindCooldown   Kind = "cooldown"
	KindNotFound   Kind = "not_found"
)

// Error is a local precondition failure. Store failures are never wrapped in
// one.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil && e.Message != "" {
		return e.Message + ": " + e.Err.Error()
	}
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// CooldownError reports the exact instant a decision can be rolled again.
type CooldownError struct {
	DecisionID string
	ResumeAt   time.Time
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("decision is cooling down until %s", e.ResumeAt.UTC().Format(time.RFC3339))
}

// Remaining is the wait left at now, never negative.
func (e *CooldownError) Remaining(now time.Time) time.Duration {
	if d := e.ResumeAt.Sub(now); d > 0 {
		return d
	}
	return 0
}

func Validationf(format string, args ...any) error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func NotFoundf(format string, args ...any) error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func Conflictf(format string, args ...any) error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of err, or "" for errors that did not originate
// from a local check.
func KindOf(err error) Kind {
	var cd *CooldownError
	if errors.As(err, &cd) {
		return KindCooldown
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
