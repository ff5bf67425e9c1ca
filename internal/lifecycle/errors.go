package lifecycle

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when an operation references an unknown reminder id
	ErrNotFound = errors.New("reminder not found")
	// ErrStoreUnavailable wraps transient failures reaching the persistent store
	ErrStoreUnavailable = errors.New("reminder store unavailable")
	// ErrIllegalTransition is returned for an event that has no edge from the current status
	ErrIllegalTransition = errors.New("illegal status transition")
)

// ValidationError describes malformed or missing input at creation time
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// IsValidation reports whether err is (or wraps) a *ValidationError
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Unavailable wraps a store error so callers can match it with ErrStoreUnavailable
func Unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
}
