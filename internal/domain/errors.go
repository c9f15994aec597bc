package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation matches every *ValidationError through errors.Is.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidID marks an identifier that is not a UUID. The API treats it
	// like a missing record.
	ErrInvalidID = errors.New("invalid ID")

	ErrInvalidEmail = errors.New("invalid email format")

	// ErrUnauthorized is returned when a request has no authenticated user.
	ErrUnauthorized = errors.New("unauthorized operation")
)

// ValidationError describes a single invalid field.
// It unwraps to the sentinel passed as Err so callers can use errors.Is.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

// NewValidationError creates a ValidationError for field. A nil err defaults
// to ErrValidation.
func NewValidationError(field, message string, err error) *ValidationError {
	if err == nil {
		err = ErrValidation
	}
	return &ValidationError{Field: field, Message: message, Err: err}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Is reports true for ErrValidation regardless of the wrapped sentinel.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
