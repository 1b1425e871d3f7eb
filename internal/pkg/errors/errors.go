package errors

import "errors"

var (
	// ErrUnauthorized means the request carries no authenticated owner.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrLimitReached is wrapped by per-owner quota failures.
	ErrLimitReached = errors.New("limit reached")
)
