package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/tasks-api/internal/config"
	"github.com/phrazzld/tasks-api/internal/platform/logger"
)

// clockSkew is the leeway applied to exp and iat during validation.
const clockSkew = 2 * time.Minute

// hmacJWTService signs tokens with HS256 and a shared secret.
type hmacJWTService struct {
	signingKey      []byte
	accessLifetime  time.Duration
	refreshLifetime time.Duration
	now             func() time.Time
}

type tokenClaims struct {
	UserID    uuid.UUID `json:"uid"`
	TokenType string    `json:"type"`
	jwt.RegisteredClaims
}

var _ JWTService = (*hmacJWTService)(nil)

// NewJWTService builds the token service from the auth settings. The secret
// must be at least 32 characters.
func NewJWTService(cfg config.AuthConfig) (JWTService, error) {
	return newHMACJWTService(cfg, time.Now)
}

func newHMACJWTService(cfg config.AuthConfig, now func() time.Time) (*hmacJWTService, error) {
	if len(cfg.JWTSecret) < 32 {
		return nil, fmt.Errorf("jwt secret must be at least 32 characters")
	}
	if cfg.TokenLifetimeMinutes <= 0 || cfg.RefreshTokenLifetimeMinutes <= 0 {
		return nil, fmt.Errorf("token lifetimes must be positive")
	}

	return &hmacJWTService{
		signingKey:      []byte(cfg.JWTSecret),
		accessLifetime:  time.Duration(cfg.TokenLifetimeMinutes) * time.Minute,
		refreshLifetime: time.Duration(cfg.RefreshTokenLifetimeMinutes) * time.Minute,
		now:             now,
	}, nil
}

func (s *hmacJWTService) GenerateToken(ctx context.Context, userID uuid.UUID) (string, error) {
	return s.sign(ctx, userID, TokenTypeAccess, s.accessLifetime)
}

func (s *hmacJWTService) GenerateRefreshToken(ctx context.Context, userID uuid.UUID) (string, error) {
	return s.sign(ctx, userID, TokenTypeRefresh, s.refreshLifetime)
}

func (s *hmacJWTService) AccessTokenLifetime() time.Duration {
	return s.accessLifetime
}

func (s *hmacJWTService) sign(ctx context.Context, userID uuid.UUID, tokenType string, ttl time.Duration) (string, error) {
	issuedAt := s.now()
	claims := tokenClaims{
		UserID:    userID,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(ttl)),
			ID:        uuid.New().String(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signingKey)
	if err != nil {
		logger.FromContextOrDefault(ctx, nil).Error("failed to sign token",
			slog.String("token_type", tokenType),
			slog.String("user_id", userID.String()),
			slog.String("error", err.Error()))
		return "", fmt.Errorf("sign %s token: %w", tokenType, err)
	}
	return signed, nil
}

func (s *hmacJWTService) ValidateToken(ctx context.Context, tokenString string) (*Claims, error) {
	return s.validate(ctx, tokenString, TokenTypeAccess, ErrInvalidToken, ErrExpiredToken, ErrTokenNotYetValid)
}

func (s *hmacJWTService) ValidateRefreshToken(ctx context.Context, tokenString string) (*Claims, error) {
	return s.validate(ctx, tokenString, TokenTypeRefresh,
		ErrInvalidRefreshToken, ErrExpiredRefreshToken, ErrInvalidRefreshToken)
}

func (s *hmacJWTService) validate(
	ctx context.Context,
	tokenString string,
	wantType string,
	errInvalid, errExpired, errNotYetValid error,
) (*Claims, error) {
	log := logger.FromContextOrDefault(ctx, nil)
	reject := func(reason string, err error) (*Claims, error) {
		log.Debug("token rejected",
			slog.String("token_type", wantType),
			slog.String("reason", reason))
		return nil, err
	}

	claims := &tokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, s.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithLeeway(clockSkew),
		jwt.WithTimeFunc(s.now),
	)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return reject("expired", errExpired)
	case errors.Is(err, jwt.ErrTokenNotValidYet):
		return reject("not yet valid", errNotYetValid)
	case errors.Is(err, jwt.ErrTokenMalformed):
		return reject("malformed", errInvalid)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return reject("bad signature", errInvalid)
	case err != nil:
		return reject(fmt.Sprintf("%T", err), errInvalid)
	case !token.Valid:
		return reject("invalid", errInvalid)
	case claims.TokenType != wantType:
		return reject("token type "+claims.TokenType, ErrWrongTokenType)
	case claims.UserID == uuid.Nil || claims.ExpiresAt == nil || claims.IssuedAt == nil:
		return reject("missing claims", errInvalid)
	}

	return &Claims{
		UserID:    claims.UserID,
		TokenType: claims.TokenType,
		Subject:   claims.Subject,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
		ID:        claims.ID,
	}, nil
}

func (s *hmacJWTService) keyFunc(token *jwt.Token) (any, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
	}
	return s.signingKey, nil
}
