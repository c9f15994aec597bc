package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/tasks-api/internal/domain"
)

// UserStore persists accounts. Emails are unique after
// domain.NormalizeEmail; lookups miss with ErrUserNotFound.
type UserStore interface {
	// Create fails with ErrEmailExists for a taken address and with
	// ErrInvalidEntity when the user has no HashedPassword.
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// Delete removes the user together with all of their tasks.
	Delete(ctx context.Context, id uuid.UUID) error
}
