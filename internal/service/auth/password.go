package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// PasswordVerifier checks a login attempt against a stored hash. Any
// non-nil result means the password is wrong or the hash is unusable.
type PasswordVerifier interface {
	Compare(hashedPassword, password string) error
}

// PasswordHasher produces the hash stored at registration.
type PasswordHasher interface {
	Hash(password string) (string, error)
}

// BcryptVerifier is both halves, backed by bcrypt.
type BcryptVerifier struct {
	cost int
}

var (
	_ PasswordVerifier = (*BcryptVerifier)(nil)
	_ PasswordHasher   = (*BcryptVerifier)(nil)
)

// NewBcryptVerifier uses cost, or bcrypt.DefaultCost when cost is outside
// bcrypt's accepted range. Tests pass bcrypt.MinCost to stay fast.
func NewBcryptVerifier(cost int) *BcryptVerifier {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptVerifier{cost: cost}
}

func (v *BcryptVerifier) Compare(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

func (v *BcryptVerifier) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), v.cost)
	if err != nil {
		return "", fmt.Errorf("bcrypt hash: %w", err)
	}
	return string(hash), nil
}
