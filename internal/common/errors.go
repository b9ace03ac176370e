// Package common defines shared sentinel errors used across the engine
// layers of Sentinel Solo. Callers should use errors.Is to match these
// values; repositories and services wrap them with context via %w.
package common

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks malformed or constraint-violating input.
	// Non-retryable; the caller must correct the input.
	ErrValidation = errors.New("validation error")

	// ErrNotFound marks a referenced id that is not visible in the caller's
	// scope. Truly absent and merely out-of-scope rows are reported the same
	// way so that existence does not leak across owners.
	ErrNotFound = errors.New("not found")

	// ErrPermission marks an operation that requires admin elevation the
	// caller lacks.
	ErrPermission = errors.New("permission denied")

	// ErrInvalidOperation marks a structurally disallowed mutation:
	// cycle-inducing move/merge, admin self-delete, logging time on a root.
	ErrInvalidOperation = errors.New("invalid operation")

	// ErrStoreUnavailable marks a transient backend failure. The caller may
	// retry; the engine itself applies no retry policy.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrCorruptSnapshot marks an import document that failed referential
	// validation. The prior dataset is left intact.
	ErrCorruptSnapshot = errors.New("corrupt snapshot")

	// ErrUnauthorized marks a failed authentication attempt.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidToken marks an invalid or revoked session token.
	ErrInvalidToken = errors.New("invalid token")
)

// Validationf returns an ErrValidation wrapped with the violated constraint.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// StoreErr wraps a backend driver failure as ErrStoreUnavailable so callers
// can distinguish retryable store trouble from domain errors.
func StoreErr(err error) error {
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}
