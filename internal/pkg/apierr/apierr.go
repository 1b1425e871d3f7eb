package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/yungbote/aleator-backend/internal/engine"
	apperrors "github.com/yungbote/aleator-backend/internal/pkg/errors"
)

// Error is an error already decided on its HTTP status and public code.
type Error struct {
	Status int
	Code   string
	Err    error
	// ResumeAt and RetryAfter are set for cooldown refusals.
	ResumeAt   *time.Time
	RetryAfter time.Duration
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

// Internal reports whether the cause must not be shown to the caller.
func (e *Error) Internal() bool { return e.Status >= http.StatusInternalServerError }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

// From classifies err. Errors that are not engine or auth failures become a
// 500 with code "internal".
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	var cd *engine.CooldownError
	if errors.As(err, &cd) {
		at := cd.ResumeAt.UTC()
		return &Error{
			Status:     http.StatusTooManyRequests,
			Code:       "cooldown",
			Err:        err,
			ResumeAt:   &at,
			RetryAfter: cd.Remaining(time.Now()),
		}
	}
	if errors.Is(err, apperrors.ErrUnauthorized) {
		return New(http.StatusUnauthorized, "unauthorized", err)
	}
	if errors.Is(err, apperrors.ErrLimitReached) {
		return New(http.StatusBadRequest, "limit_reached", err)
	}
	switch engine.KindOf(err) {
	case engine.KindValidation:
		return New(http.StatusBadRequest, "validation", err)
	case engine.KindNotFound:
		return New(http.StatusNotFound, "not_found", err)
	case engine.KindConflict:
		return New(http.StatusConflict, "conflict", err)
	}
	return New(http.StatusInternalServerError, "internal", err)
}
