package store

import (
	"errors"
	"fmt"
)

// Errors reported by every store implementation. Callers match them with
// errors.Is; implementations may wrap them with driver detail.
var (
	// ErrNotFound is the parent of the entity-specific not-found errors.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is the parent of the uniqueness violations.
	ErrDuplicate = errors.New("entity already exists")

	// ErrInvalidEntity wraps a domain validation error found before writing.
	ErrInvalidEntity = errors.New("invalid entity")

	ErrUserNotFound = fmt.Errorf("%w: user", ErrNotFound)

	// ErrTaskNotFound also covers a task that exists under another owner.
	ErrTaskNotFound = fmt.Errorf("%w: task", ErrNotFound)

	ErrJobNotFound = fmt.Errorf("%w: job", ErrNotFound)

	ErrEmailExists = fmt.Errorf("%w: email", ErrDuplicate)
)

// IsNotFoundError reports whether err is any not-found error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDuplicateError reports whether err is any uniqueness violation.
func IsDuplicateError(err error) bool {
	return errors.Is(err, ErrDuplicate)
}
