package mocks

import "errors"

const hashPrefix = "hashed:"

var errPasswordMismatch = errors.New("password mismatch")

// MockPasswordVerifier stands in for bcrypt. Hash is reversible
// ("hashed:" + password) so tests can predict stored values.
type MockPasswordVerifier struct {
	// ShouldSucceed is the Compare result when CompareFn is nil.
	ShouldSucceed bool
	CompareFn     func(hashed, password string) error
}

func (m *MockPasswordVerifier) Compare(hashed, password string) error {
	switch {
	case m.CompareFn != nil:
		return m.CompareFn(hashed, password)
	case m.ShouldSucceed:
		return nil
	default:
		return errPasswordMismatch
	}
}

func (m *MockPasswordVerifier) Hash(password string) (string, error) {
	return hashPrefix + password, nil
}

// MatchHashed accepts exactly the values produced by Hash. Use it as
// CompareFn when a test registers and then logs in.
func MatchHashed(hashed, password string) error {
	if hashed != hashPrefix+password {
		return errPasswordMismatch
	}
	return nil
}
