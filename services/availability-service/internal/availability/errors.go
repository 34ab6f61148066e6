package availability

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when the customer or schedule backing a request does not exist.
	ErrNotFound = errors.New("not found")
	// ErrValidation marks malformed input: bad intervals, clock times, periods or durations.
	ErrValidation = errors.New("validation failed")
)

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// NotFound wraps ErrNotFound with the kind and identifier of the missing record.
func NotFound(what, id string) error {
	return fmt.Errorf("%s %q: %w", what, id, ErrNotFound)
}
