package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/tasks-api/internal/domain"
	"github.com/phrazzld/tasks-api/internal/events"
	"github.com/phrazzld/tasks-api/internal/platform/logger"
	"github.com/phrazzld/tasks-api/internal/redact"
	"github.com/phrazzld/tasks-api/internal/service/auth"
	"github.com/phrazzld/tasks-api/internal/store"
)

// UserService provides the user account lifecycle.
type UserService interface {
	// Register validates and creates a user, then publishes user.registered.
	// Returns store.ErrEmailExists if the email is taken.
	Register(ctx context.Context, name, email, password string) (*domain.User, error)

	// Authenticate checks an email/password pair.
	// Returns ErrInvalidCredentials for an unknown email or a wrong password.
	Authenticate(ctx context.Context, email, password string) (*domain.User, error)

	// GetUser retrieves a user by their ID
	GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error)

	// DeleteUser removes the user with all their tasks, publishes user.deleted
	// and returns the removed user.
	DeleteUser(ctx context.Context, userID uuid.UUID) (*domain.User, error)
}

// UserServiceImpl implements the UserService interface
type UserServiceImpl struct {
	userStore store.UserStore
	hasher    auth.PasswordHasher
	verifier  auth.PasswordVerifier
	emitter   events.EventEmitter
	logger    *slog.Logger
}

// NewUserService creates a new UserService.
// It returns validation errors if any of the required dependencies are nil.
func NewUserService(
	userStore store.UserStore,
	hasher auth.PasswordHasher,
	verifier auth.PasswordVerifier,
	emitter events.EventEmitter,
	logger *slog.Logger,
) (*UserServiceImpl, error) {
	if userStore == nil {
		return nil, domain.NewValidationError("userStore", "cannot be nil", domain.ErrValidation)
	}
	if hasher == nil {
		return nil, domain.NewValidationError("hasher", "cannot be nil", domain.ErrValidation)
	}
	if verifier == nil {
		return nil, domain.NewValidationError("verifier", "cannot be nil", domain.ErrValidation)
	}
	if emitter == nil {
		return nil, domain.NewValidationError("emitter", "cannot be nil", domain.ErrValidation)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &UserServiceImpl{
		userStore: userStore,
		hasher:    hasher,
		verifier:  verifier,
		emitter:   emitter,
		logger:    logger.With(slog.String("component", "user_service")),
	}, nil
}

// Register implements UserService.Register
func (s *UserServiceImpl) Register(ctx context.Context, name, email, password string) (*domain.User, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	user, err := domain.NewUser(name, email, password)
	if err != nil {
		log.Debug("rejected invalid registration", slog.String("error", err.Error()))
		return nil, domain.NewValidationError("", err.Error(), err)
	}

	hash, err := s.hasher.Hash(user.Password)
	if err != nil {
		log.Error("failed to hash password", slog.String("error", err.Error()))
		return nil, NewServiceError("user", "register", err)
	}
	user.HashedPassword = hash
	user.Password = ""

	if err := s.userStore.Create(ctx, user); err != nil {
		if errors.Is(err, store.ErrEmailExists) {
			log.Debug("attempted to register an existing email")
		} else {
			log.Error("failed to save user", slog.String("error", redact.Error(err)))
		}
		return nil, NewServiceError("user", "register", err)
	}

	log.Info("user registered", slog.String("user_id", user.ID.String()))
	s.publish(ctx, events.TypeUserRegistered, user)
	return user, nil
}

// Authenticate implements UserService.Authenticate
func (s *UserServiceImpl) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	user, err := s.userStore.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			log.Debug("login attempt for unknown email")
			return nil, ErrInvalidCredentials
		}
		log.Error("failed to look up user for login", slog.String("error", redact.Error(err)))
		return nil, NewServiceError("user", "authenticate", err)
	}

	if err := s.verifier.Compare(user.HashedPassword, password); err != nil {
		log.Debug("login attempt with wrong password", slog.String("user_id", user.ID.String()))
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// GetUser implements UserService.GetUser
func (s *UserServiceImpl) GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	user, err := s.userStore.GetByID(ctx, userID)
	if err != nil {
		if !errors.Is(err, store.ErrUserNotFound) {
			logger.FromContextOrDefault(ctx, s.logger).Error("failed to retrieve user",
				slog.String("user_id", userID.String()),
				slog.String("error", redact.Error(err)))
		}
		return nil, NewServiceError("user", "get", err)
	}
	return user, nil
}

// DeleteUser implements UserService.DeleteUser
func (s *UserServiceImpl) DeleteUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := s.userStore.Delete(ctx, userID); err != nil {
		if !errors.Is(err, store.ErrUserNotFound) {
			log.Error("failed to delete user",
				slog.String("user_id", userID.String()),
				slog.String("error", redact.Error(err)))
		}
		return nil, NewServiceError("user", "delete", err)
	}

	log.Info("user deleted", slog.String("user_id", userID.String()))
	s.publish(ctx, events.TypeUserDeleted, user)
	return user, nil
}

// publish emits a user lifecycle event. Failures are logged and never
// reach the caller; notification delivery is best effort.
func (s *UserServiceImpl) publish(ctx context.Context, eventType string, user *domain.User) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	event, err := events.NewEvent(eventType, events.UserPayload{
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.Name,
	})
	if err != nil {
		log.Error("failed to build event",
			slog.String("event_type", eventType),
			slog.String("error", err.Error()))
		return
	}

	if err := s.emitter.EmitEvent(ctx, event); err != nil {
		log.Error("failed to emit event",
			slog.String("event_type", eventType),
			slog.String("event_id", event.ID.String()),
			slog.String("error", redact.Error(err)))
	}
}

var _ UserService = (*UserServiceImpl)(nil)
