package service

import "errors"

// Service-level errors. The HTTP layer maps these to status codes; anything
// not in this set renders as a generic internal failure.
var (
	// ErrInvalidCredentials is returned for both unknown email and wrong
	// password. The single message resists user enumeration.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrUnauthenticated is returned when a bearer token is missing,
	// malformed, expired, forged, or revoked. Deliberately uniform.
	ErrUnauthenticated = errors.New("authentication required")
)

// ValidationError reports missing or malformed request input. Its message
// is safe to return to clients.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// NewValidationError creates a ValidationError with the given message.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{Message: message}
}

// IsValidationError reports whether err is a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
