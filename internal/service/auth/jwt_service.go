package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Token types carried in the "type" claim. A refresh token is never accepted
// where an access token is expected, and the reverse.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// JWTService issues and checks the bearer tokens used by the /tasks and
// /users routes. Validation failures are reported with the sentinel errors
// in errors.go; callers map all of them to 401.
type JWTService interface {
	GenerateToken(ctx context.Context, userID uuid.UUID) (string, error)
	ValidateToken(ctx context.Context, tokenString string) (*Claims, error)

	// GenerateRefreshToken issues a longer-lived token accepted only by
	// ValidateRefreshToken.
	GenerateRefreshToken(ctx context.Context, userID uuid.UUID) (string, error)
	ValidateRefreshToken(ctx context.Context, tokenString string) (*Claims, error)

	AccessTokenLifetime() time.Duration
}

// Claims is the validated content of a token.
type Claims struct {
	UserID    uuid.UUID
	TokenType string
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
	ID        string // jti, unique per issued token
}
