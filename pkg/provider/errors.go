package provider

import (
	"errors"
	"fmt"
	"net/http"
)

// Common errors for provider operations.
var (
	// ErrNotFound indicates a record was not found.
	ErrNotFound = errors.New("record not found")

	// ErrUnauthorized indicates authentication failed.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrProviderUnavailable indicates the provider API is unreachable.
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrNotAuthenticated indicates a record mutation was attempted before the
	// target zone was authenticated.
	ErrNotAuthenticated = errors.New("zone not authenticated")
)

// AuthenticationError is returned when the provider rejects the account
// credentials while probing a zone.
type AuthenticationError struct {
	Zone    string
	Message string
}

func (e *AuthenticationError) Error() string {
	if e.Zone != "" {
		return fmt.Sprintf("authentication failed for %s: %s", e.Zone, e.Message)
	}
	return "authentication failed: " + e.Message
}

// Is makes AuthenticationError match ErrUnauthorized.
func (e *AuthenticationError) Is(target error) bool {
	return target == ErrUnauthorized
}

// HTTPError is returned for non-2xx responses and transport failures.
// StatusCode is 0 when no response was received.
type HTTPError struct {
	StatusCode int
	Status     string
	URL        string
	Err        error // Underlying transport error, if any
}

func (e *HTTPError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("Connection Error: %v for url: %s", e.Err, e.URL)
	}

	class := "Server"
	if e.StatusCode < 500 {
		class = "Client"
	}

	reason := e.Status
	if reason == "" {
		reason = http.StatusText(e.StatusCode)
	}

	return fmt.Sprintf("%d %s Error: %s for url: %s", e.StatusCode, class, reason, e.URL)
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

// Is makes transport failures match ErrProviderUnavailable and 401/403
// responses match ErrUnauthorized.
func (e *HTTPError) Is(target error) bool {
	switch target {
	case ErrProviderUnavailable:
		return e.StatusCode == 0 || e.StatusCode >= 500
	case ErrUnauthorized:
		return e.IsUnauthorized()
	}
	return false
}

// IsUnauthorized reports whether the response was 401-class.
func (e *HTTPError) IsUnauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// ConfigError represents a configuration error.
type ConfigError struct {
	Field   string
	Value   string
	Message string
}

func (e *ConfigError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("configuration error: %s=%q: %s", e.Field, e.Value, e.Message)
	}
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Message)
}

// ErrConfigMissing creates an error for a missing required configuration field.
func ErrConfigMissing(field string) error {
	return &ConfigError{
		Field:   field,
		Message: "required but not set",
	}
}

// ErrConfigInvalid creates an error for an invalid configuration value.
func ErrConfigInvalid(field, value, message string) error {
	return &ConfigError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// IsConfigError returns true if the error is a configuration error.
func IsConfigError(err error) bool {
	var configErr *ConfigError
	return errors.As(err, &configErr)
}

// ProviderError wraps an error with provider context.
type ProviderError struct {
	Provider  string
	Operation string
	Err       error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s: %s: %v", e.Provider, e.Operation, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// WrapError wraps an error with provider context.
func WrapError(provider, operation string, err error) error {
	if err == nil {
		return nil
	}
	return &ProviderError{
		Provider:  provider,
		Operation: operation,
		Err:       err,
	}
}

// IsNotFound returns true if the error indicates a record was not found.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsUnauthorized returns true if the error indicates authentication failed.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// IsProviderUnavailable returns true if the error indicates the provider is unreachable.
func IsProviderUnavailable(err error) bool {
	return errors.Is(err, ErrProviderUnavailable)
}

// AsAuthenticationError extracts an *AuthenticationError from err's chain.
func AsAuthenticationError(err error) (*AuthenticationError, bool) {
	var authErr *AuthenticationError
	if errors.As(err, &authErr) {
		return authErr, true
	}
	return nil, false
}

// AsHTTPError extracts an *HTTPError from err's chain.
func AsHTTPError(err error) (*HTTPError, bool) {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr, true
	}
	return nil, false
}
