package service_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/tasks-api/internal/domain"
	"github.com/phrazzld/tasks-api/internal/events"
	"github.com/phrazzld/tasks-api/internal/mocks"
	"github.com/phrazzld/tasks-api/internal/service"
	"github.com/phrazzld/tasks-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testPassword = "correct-horse-battery"

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newUserService(t *testing.T, userStore store.UserStore, emitter *mocks.MockEventEmitter) *service.UserServiceImpl {
	t.Helper()
	verifier := &mocks.MockPasswordVerifier{CompareFn: mocks.MatchHashed}
	svc, err := service.NewUserService(userStore, verifier, verifier, emitter, testLogger())
	require.NoError(t, err)
	return svc
}

func TestNewUserService_NilDependencies(t *testing.T) {
	verifier := &mocks.MockPasswordVerifier{}
	emitter := &mocks.MockEventEmitter{}
	userStore := mocks.NewMockUserStore()

	_, err := service.NewUserService(nil, verifier, verifier, emitter, nil)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = service.NewUserService(userStore, nil, verifier, emitter, nil)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = service.NewUserService(userStore, verifier, nil, emitter, nil)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = service.NewUserService(userStore, verifier, verifier, nil, nil)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestUserService_Register(t *testing.T) {
	t.Run("successful registration", func(t *testing.T) {
		userStore := mocks.NewMockUserStore()
		emitter := &mocks.MockEventEmitter{}
		svc := newUserService(t, userStore, emitter)

		user, err := svc.Register(context.Background(), "  Ada  ", "Ada@Example.com ", testPassword)

		require.NoError(t, err)
		assert.Equal(t, "Ada", user.Name)
		assert.Equal(t, "ada@example.com", user.Email)
		assert.Equal(t, "hashed:"+testPassword, user.HashedPassword)
		assert.Empty(t, user.Password, "plaintext must be cleared before storing")
		assert.Equal(t, user.ID, userStore.LastUserID)

		registered := emitter.EventsOfType(events.TypeUserRegistered)
		require.Len(t, registered, 1, "exactly one welcome event")
		assert.Len(t, emitter.Events(), 1)

		var payload events.UserPayload
		require.NoError(t, registered[0].UnmarshalPayload(&payload))
		assert.Equal(t, user.ID, payload.UserID)
		assert.Equal(t, "ada@example.com", payload.Email)
		assert.Equal(t, "Ada", payload.Name)
	})

	t.Run("invalid input is a validation error", func(t *testing.T) {
		emitter := &mocks.MockEventEmitter{}
		svc := newUserService(t, mocks.NewMockUserStore(), emitter)

		_, err := svc.Register(context.Background(), "Ada", "not-an-email", testPassword)
		assert.ErrorIs(t, err, domain.ErrValidation)
		assert.ErrorIs(t, err, domain.ErrInvalidEmail)

		_, err = svc.Register(context.Background(), "Ada", "ada@example.com", "short")
		assert.ErrorIs(t, err, domain.ErrPasswordTooShort)

		assert.Empty(t, emitter.Events())
	})

	t.Run("duplicate email", func(t *testing.T) {
		userStore := mocks.NewMockUserStore()
		emitter := &mocks.MockEventEmitter{}
		svc := newUserService(t, userStore, emitter)

		_, err := svc.Register(context.Background(), "Ada", "ada@example.com", testPassword)
		require.NoError(t, err)

		_, err = svc.Register(context.Background(), "Other", "ADA@example.com", testPassword)
		assert.ErrorIs(t, err, store.ErrEmailExists)
		assert.Len(t, emitter.Events(), 1)
	})

	t.Run("emit failure does not fail registration", func(t *testing.T) {
		emitter := &mocks.MockEventEmitter{Err: errors.New("queue full")}
		svc := newUserService(t, mocks.NewMockUserStore(), emitter)

		user, err := svc.Register(context.Background(), "Ada", "ada@example.com", testPassword)

		require.NoError(t, err)
		assert.NotNil(t, user)
	})

	t.Run("store failure is wrapped", func(t *testing.T) {
		userStore := new(mocks.TestifyMockUserStore)
		dbErr := errors.New("connection reset")
		userStore.On("Create", mock.Anything, mock.AnythingOfType("*domain.User")).Return(dbErr)
		svc := newUserService(t, userStore, &mocks.MockEventEmitter{})

		_, err := svc.Register(context.Background(), "Ada", "ada@example.com", testPassword)

		require.Error(t, err)
		assert.ErrorIs(t, err, dbErr)
		var serviceErr *service.ServiceError
		require.ErrorAs(t, err, &serviceErr)
		assert.Equal(t, "register", serviceErr.Op)
		userStore.AssertExpectations(t)
	})
}

func TestUserService_Authenticate(t *testing.T) {
	userStore := mocks.NewMockUserStore()
	svc := newUserService(t, userStore, &mocks.MockEventEmitter{})
	registered, err := svc.Register(context.Background(), "Ada", "ada@example.com", testPassword)
	require.NoError(t, err)

	t.Run("valid credentials", func(t *testing.T) {
		user, err := svc.Authenticate(context.Background(), "ADA@example.com", testPassword)
		require.NoError(t, err)
		assert.Equal(t, registered.ID, user.ID)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Authenticate(context.Background(), "ada@example.com", "wrong-password-123")
		assert.ErrorIs(t, err, service.ErrInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := svc.Authenticate(context.Background(), "nobody@example.com", testPassword)
		assert.ErrorIs(t, err, service.ErrInvalidCredentials)
	})

	t.Run("store failure", func(t *testing.T) {
		failing := new(mocks.TestifyMockUserStore)
		failing.On("GetByEmail", mock.Anything, "ada@example.com").Return(nil, errors.New("timeout"))
		failingSvc := newUserService(t, failing, &mocks.MockEventEmitter{})

		_, err := failingSvc.Authenticate(context.Background(), "ada@example.com", testPassword)

		require.Error(t, err)
		assert.NotErrorIs(t, err, service.ErrInvalidCredentials)
		failing.AssertExpectations(t)
	})
}

func TestUserService_DeleteUser(t *testing.T) {
	userID := uuid.New()
	existing := &domain.User{
		ID:             userID,
		Name:           "Ada",
		Email:          "ada@example.com",
		HashedPassword: "hashed:" + testPassword,
		CreatedAt:      time.Now().Add(-24 * time.Hour),
		UpdatedAt:      time.Now().Add(-24 * time.Hour),
	}

	t.Run("successful delete", func(t *testing.T) {
		userStore := new(mocks.TestifyMockUserStore)
		userStore.On("GetByID", mock.Anything, userID).Return(existing, nil)
		userStore.On("Delete", mock.Anything, userID).Return(nil)
		emitter := &mocks.MockEventEmitter{}
		svc := newUserService(t, userStore, emitter)

		deleted, err := svc.DeleteUser(context.Background(), userID)

		require.NoError(t, err)
		assert.Equal(t, existing, deleted)
		cancelled := emitter.EventsOfType(events.TypeUserDeleted)
		require.Len(t, cancelled, 1, "exactly one cancellation event")
		userStore.AssertExpectations(t)
	})

	t.Run("user not found", func(t *testing.T) {
		userStore := new(mocks.TestifyMockUserStore)
		userStore.On("GetByID", mock.Anything, userID).Return(nil, store.ErrUserNotFound)
		emitter := &mocks.MockEventEmitter{}
		svc := newUserService(t, userStore, emitter)

		_, err := svc.DeleteUser(context.Background(), userID)

		assert.ErrorIs(t, err, store.ErrUserNotFound)
		assert.Empty(t, emitter.Events())
		userStore.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("delete failure emits nothing", func(t *testing.T) {
		userStore := new(mocks.TestifyMockUserStore)
		userStore.On("GetByID", mock.Anything, userID).Return(existing, nil)
		userStore.On("Delete", mock.Anything, userID).Return(errors.New("deadlock"))
		emitter := &mocks.MockEventEmitter{}
		svc := newUserService(t, userStore, emitter)

		_, err := svc.DeleteUser(context.Background(), userID)

		require.Error(t, err)
		assert.Empty(t, emitter.Events())
	})
}

func TestUserService_GetUser(t *testing.T) {
	userStore := mocks.NewMockUserStore()
	svc := newUserService(t, userStore, &mocks.MockEventEmitter{})
	registered, err := svc.Register(context.Background(), "Ada", "ada@example.com", testPassword)
	require.NoError(t, err)

	user, err := svc.GetUser(context.Background(), registered.ID)
	require.NoError(t, err)
	assert.Equal(t, registered.Email, user.Email)

	_, err = svc.GetUser(context.Background(), uuid.New())
	assert.ErrorIs(t, err, store.ErrUserNotFound)
}
