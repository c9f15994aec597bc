package domain

import (
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrEmptyUserID         = errors.New("user ID cannot be empty")
	ErrEmptyUserName       = errors.New("name cannot be empty")
	ErrEmptyEmail          = errors.New("email cannot be empty")
	ErrEmptyPassword       = errors.New("password cannot be empty")
	ErrEmptyHashedPassword = errors.New("hashed password cannot be empty")
	ErrPasswordTooShort    = errors.New("password must be at least 12 characters long")
	ErrPasswordTooLong     = errors.New("password must be at most 72 characters long")
)

// Password length bounds. bcrypt silently truncates input past 72 bytes.
const (
	MinPasswordLength = 12
	MaxPasswordLength = 72
)

// User is an account. Tasks reference it through their Owner field.
//
// Password holds the plaintext only between NewUser and hashing; stores
// persist HashedPassword and refuse a user without one.
type User struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Password       string    `json:"-"`
	HashedPassword string    `json:"-"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// NormalizeEmail is the canonical form used for storage and lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NewUser builds a validated user with a fresh ID. The caller must hash the
// password before saving.
func NewUser(name, email, password string) (*User, error) {
	now := time.Now().UTC()
	u := &User{
		ID:        uuid.New(),
		Name:      strings.TrimSpace(name),
		Email:     NormalizeEmail(email),
		Password:  password,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := u.Validate(); err != nil {
		return nil, err
	}
	return u, nil
}

// Validate returns the first failing rule. A user loaded from storage has
// no plaintext password, only a hash.
func (u *User) Validate() error {
	switch {
	case u.ID == uuid.Nil:
		return ErrEmptyUserID
	case strings.TrimSpace(u.Name) == "":
		return ErrEmptyUserName
	case u.Email == "":
		return ErrEmptyEmail
	case !isEmailAddress(u.Email):
		return ErrInvalidEmail
	case u.Password == "" && u.HashedPassword == "":
		return ErrEmptyPassword
	case u.Password == "":
		return nil
	case len(u.Password) < MinPasswordLength:
		return ErrPasswordTooShort
	case len(u.Password) > MaxPasswordLength:
		return ErrPasswordTooLong
	}
	return nil
}

// isEmailAddress accepts a bare addr-spec whose domain has a dot,
// rejecting display-name forms like "Ada <ada@example.com>".
func isEmailAddress(email string) bool {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || addr.Name != "" {
		return false
	}
	domain := email[strings.LastIndexByte(email, '@')+1:]
	return strings.Contains(strings.Trim(domain, "."), ".")
}
