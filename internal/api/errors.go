package api

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/tasks-api/internal/api/shared"
	"github.com/phrazzld/tasks-api/internal/domain"
	"github.com/phrazzld/tasks-api/internal/service"
	"github.com/phrazzld/tasks-api/internal/service/auth"
	"github.com/phrazzld/tasks-api/internal/store"
)

const unexpectedErrorMessage = "An unexpected error occurred"

// errorKind is one row of the error-to-response table. The first row whose
// target matches with errors.Is wins, so specific errors precede their
// parents (ErrTaskNotFound before ErrNotFound).
type errorKind struct {
	target  error
	status  int
	message string
}

var errorKinds = []errorKind{
	{auth.ErrExpiredToken, http.StatusUnauthorized, "Token expired"},
	{auth.ErrInvalidToken, http.StatusUnauthorized, "Invalid token"},
	{auth.ErrTokenNotYetValid, http.StatusUnauthorized, "Invalid token"},
	{auth.ErrMissingToken, http.StatusUnauthorized, "Invalid token"},
	{auth.ErrInvalidRefreshToken, http.StatusUnauthorized, "Invalid refresh token"},
	{auth.ErrExpiredRefreshToken, http.StatusUnauthorized, "Invalid refresh token"},
	{auth.ErrWrongTokenType, http.StatusUnauthorized, "Invalid refresh token"},
	{service.ErrInvalidCredentials, http.StatusUnauthorized, "Invalid email or password"},
	{domain.ErrUnauthorized, http.StatusUnauthorized, "Please authenticate."},

	// A malformed id can never name a task, so it reads as a miss.
	{domain.ErrInvalidID, http.StatusNotFound, "Task not found"},
	{store.ErrUserNotFound, http.StatusNotFound, "User not found"},
	{store.ErrTaskNotFound, http.StatusNotFound, "Task not found"},
	{store.ErrNotFound, http.StatusNotFound, "Resource not found"},

	{store.ErrEmailExists, http.StatusConflict, "Email already exists"},

	{shared.ErrUnknownField, http.StatusBadRequest, "Invalid fields."},
	{domain.ErrValidation, http.StatusBadRequest, "Validation error"},
	{store.ErrInvalidEntity, http.StatusBadRequest, "Invalid entity data"},
}

func classify(err error) (errorKind, bool) {
	for _, k := range errorKinds {
		if errors.Is(err, k.target) {
			return k, true
		}
	}
	return errorKind{}, false
}

// MapErrorToStatusCode returns the HTTP status for err; unrecognised
// errors are 500.
func MapErrorToStatusCode(err error) int {
	if k, ok := classify(err); ok {
		return k.status
	}
	return http.StatusInternalServerError
}

// GetSafeErrorMessage returns the client-facing message for err. Only
// domain validation errors contribute their own text.
func GetSafeErrorMessage(err error) string {
	k, ok := classify(err)
	if !ok {
		return unexpectedErrorMessage
	}
	var validationErr *domain.ValidationError
	if k.target == domain.ErrValidation && errors.As(err, &validationErr) {
		return validationErr.Error()
	}
	return k.message
}

// HandleAPIError writes the status code and safe message for err and logs
// the redacted error. A non-empty message replaces the safe message.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, message string) {
	if message == "" {
		message = GetSafeErrorMessage(err)
	}
	shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), message, err)
}

var validationTagMessages = map[string]string{
	"required": "required field",
	"email":    "invalid email format",
	"min":      "too short",
	"max":      "too long",
	"oneof":    "invalid value",
}

// SanitizeValidationError describes the first failed struct tag without
// echoing the rejected value.
func SanitizeValidationError(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return "Validation error"
	}

	fe := fieldErrs[0]
	msg, ok := validationTagMessages[fe.Tag()]
	if !ok {
		msg = "validation failed"
	}
	return "Invalid " + fe.Field() + ": " + msg
}
