package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrValidation   = errors.New("validation failed")
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrStorage      = errors.New("storage unavailable")
)

// Validation rejects a request before any write is attempted.
func Validation(field, reason string) error {
	return fmt.Errorf("%w: %s %s", ErrValidation, field, reason)
}

func NotFound(kind, id string) error {
	return fmt.Errorf("%w: %s %q", ErrNotFound, kind, id)
}

func Unauthorized(reason string) error {
	return fmt.Errorf("%w: %s", ErrUnauthorized, reason)
}

// Storage wraps a persistence failure. Safe to retry; the send path has no
// partial-success state, so a retry can at worst duplicate a message.
func Storage(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrStorage, op, err)
}

func IsValidation(err error) bool   { return errors.Is(err, ErrValidation) }
func IsNotFound(err error) bool     { return errors.Is(err, ErrNotFound) }
func IsUnauthorized(err error) bool { return errors.Is(err, ErrUnauthorized) }
func IsStorage(err error) bool      { return errors.Is(err, ErrStorage) }
