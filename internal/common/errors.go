// Package common defines shared constants and sentinel errors used across
// tunepin components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Validation errors: the request shape is wrong and nothing has been
	// asked of the store yet.
	ErrorInvalidRequest = errors.New("invalid request")
	ErrorAlreadyExists  = errors.New("already exists")
)
