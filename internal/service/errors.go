package service

import "errors"

// ErrInvalidCredentials is returned by Authenticate for an unknown email and
// for a wrong password alike.
var ErrInvalidCredentials = errors.New("invalid email or password")

// ServiceError records which use case an unexpected store failure came from.
// The cause stays reachable through errors.Is and errors.As, which is how
// the API layer still tells a missing task from a broken database.
type ServiceError struct {
	Service string
	Op      string
	Err     error
}

func (e *ServiceError) Error() string {
	msg := e.Service + " " + e.Op + " failed"
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ServiceError) Unwrap() error { return e.Err }

// NewServiceError wraps err as a failure of service's op.
func NewServiceError(service, op string, err error) *ServiceError {
	return &ServiceError{Service: service, Op: op, Err: err}
}
