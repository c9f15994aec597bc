package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/phrazzld/tasks-api/internal/api/shared"
	"github.com/phrazzld/tasks-api/internal/domain"
	"github.com/phrazzld/tasks-api/internal/platform/logger"
	"github.com/phrazzld/tasks-api/internal/redact"
	"github.com/phrazzld/tasks-api/internal/service/auth"
	"github.com/phrazzld/tasks-api/internal/store"
)

// Missing, malformed and revoked credentials share one message.
const (
	unauthenticatedMessage = "Please authenticate."
	expiredMessage         = "Token expired"
	authFailureMessage     = "Authentication error"
)

// AuthMiddleware guards the /tasks and /users routes.
type AuthMiddleware struct {
	jwtService auth.JWTService
	userStore  store.UserStore
}

func NewAuthMiddleware(jwtService auth.JWTService, userStore store.UserStore) *AuthMiddleware {
	return &AuthMiddleware{jwtService: jwtService, userStore: userStore}
}

// bearerToken returns the token of an "Authorization: Bearer <token>" header.
func bearerToken(r *http.Request) (string, bool) {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || token == "" || strings.ContainsRune(token, ' ') {
		return "", false
	}
	return token, true
}

// Authenticate admits requests whose access token names a user that still
// exists. The user and its ID are added to the context for handlers.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		log := logger.FromContextOrDefault(ctx, nil)

		token, ok := bearerToken(r)
		if !ok {
			shared.RespondWithError(w, r, http.StatusUnauthorized, unauthenticatedMessage)
			return
		}

		claims, err := m.jwtService.ValidateToken(ctx, token)
		switch {
		case err == nil:
		case errors.Is(err, auth.ErrExpiredToken):
			shared.RespondWithError(w, r, http.StatusUnauthorized, expiredMessage)
			return
		case errors.Is(err, auth.ErrInvalidToken),
			errors.Is(err, auth.ErrWrongTokenType),
			errors.Is(err, auth.ErrTokenNotYetValid):
			shared.RespondWithError(w, r, http.StatusUnauthorized, unauthenticatedMessage)
			return
		default:
			log.Error("token validation failed unexpectedly", slog.String("error", redact.Error(err)))
			shared.RespondWithError(w, r, http.StatusInternalServerError, authFailureMessage)
			return
		}

		// Deleting an account revokes its outstanding tokens.
		user, err := m.userStore.GetByID(ctx, claims.UserID)
		switch {
		case errors.Is(err, store.ErrUserNotFound):
			shared.RespondWithError(w, r, http.StatusUnauthorized, unauthenticatedMessage)
			return
		case err != nil:
			log.Error("failed to load token owner",
				slog.String("user_id", claims.UserID.String()),
				slog.String("error", redact.Error(err)))
			shared.RespondWithError(w, r, http.StatusInternalServerError, authFailureMessage)
			return
		}

		ctx = context.WithValue(ctx, shared.UserIDContextKey, user.ID)
		ctx = context.WithValue(ctx, shared.UserContextKey, user)
		ctx = logger.WithLogger(ctx, log.With(slog.String("user_id", user.ID.String())))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetUserID returns the authenticated user's ID, if any.
func GetUserID(r *http.Request) (uuid.UUID, bool) {
	id, ok := r.Context().Value(shared.UserIDContextKey).(uuid.UUID)
	return id, ok
}

// GetUser returns the authenticated user, if any.
func GetUser(r *http.Request) (*domain.User, bool) {
	user, ok := r.Context().Value(shared.UserContextKey).(*domain.User)
	return user, ok && user != nil
}
