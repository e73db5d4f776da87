// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels across repo/service layers.
var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized indicates a missing, malformed or rejected credential.
	// All credential failures collapse to this sentinel at the HTTP boundary.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrValidation indicates malformed input (empty key/value, oversized
	// name, malformed public key).
	ErrValidation = errors.New("validation")

	// ErrAlreadyExists indicates a unique constraint violation (e.g. a
	// concurrent insert won the active-key slot).
	ErrAlreadyExists = errors.New("already exists")
)
