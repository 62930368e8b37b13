package identity

import (
	"errors"
	"fmt"
)

// ErrConfig indicates missing or invalid provider configuration. It is
// surfaced to the admin as a visible failure, never silently skipped.
var ErrConfig = errors.New("invalid provider configuration")

// ErrProviderNotActive is returned when an authorization attempt is made
// through a provider other than the configured active one.
var ErrProviderNotActive = errors.New("provider is not the active provider")

// ErrProviderNotFound is returned for an unknown provider id.
var ErrProviderNotFound = errors.New("provider not found")

// AuthError is an authentication failure reported by the provider. The
// message is the provider-configured user-facing string; the attempt routes
// to the retry prompt, never an automatic re-redirect.
type AuthError struct {
	Code    string
	Message string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed (%s): %s", e.Code, e.Message)
}

// NewAuthError builds an AuthError using the provider's configured strings.
func NewAuthError(cfg Config, code string) *AuthError {
	return &AuthError{Code: code, Message: cfg.ErrorMessage(code)}
}

func configErrorf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrConfig, fmt.Sprintf(format, args...))
}
