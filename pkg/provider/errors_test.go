package provider

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestHTTPError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *HTTPError
		expected string
	}{
		{
			name:     "unauthorized",
			err:      &HTTPError{StatusCode: http.StatusUnauthorized, URL: "https://api.test/api.php"},
			expected: "401 Client Error: Unauthorized for url: https://api.test/api.php",
		},
		{
			name:     "server error with status text",
			err:      &HTTPError{StatusCode: http.StatusBadGateway, Status: "Bad Gateway", URL: "https://api.test/"},
			expected: "502 Server Error: Bad Gateway for url: https://api.test/",
		},
		{
			name:     "transport failure",
			err:      &HTTPError{URL: "https://api.test/", Err: errors.New("connection refused")},
			expected: "Connection Error: connection refused for url: https://api.test/",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("got %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestHTTPError_Is(t *testing.T) {
	unauthorized := fmt.Errorf("authenticating: %w", &HTTPError{StatusCode: http.StatusForbidden})
	if !IsUnauthorized(unauthorized) {
		t.Error("expected 403 to match ErrUnauthorized")
	}
	if IsProviderUnavailable(unauthorized) {
		t.Error("403 should not match ErrProviderUnavailable")
	}

	transport := &HTTPError{Err: errors.New("timeout")}
	if !IsProviderUnavailable(transport) {
		t.Error("expected transport failure to match ErrProviderUnavailable")
	}

	if _, ok := AsHTTPError(unauthorized); !ok {
		t.Error("expected AsHTTPError to find wrapped error")
	}
}

func TestAuthenticationError(t *testing.T) {
	err := fmt.Errorf("probe: %w", &AuthenticationError{Zone: "example.com", Message: "invalid credentials"})

	if !IsUnauthorized(err) {
		t.Error("expected AuthenticationError to match ErrUnauthorized")
	}

	authErr, ok := AsAuthenticationError(err)
	if !ok {
		t.Fatal("expected AsAuthenticationError to succeed")
	}
	if authErr.Zone != "example.com" {
		t.Errorf("unexpected zone: %s", authErr.Zone)
	}
	if !strings.Contains(err.Error(), "authentication failed for example.com") {
		t.Errorf("unexpected message: %s", err.Error())
	}
}

func TestWrapError(t *testing.T) {
	if WrapError("dinahosting", "add", nil) != nil {
		t.Error("expected nil for nil error")
	}

	err := WrapError("dinahosting", "delete", ErrNotFound)
	if !IsNotFound(err) {
		t.Error("expected wrapped ErrNotFound to be detected")
	}
	if err.Error() != "provider dinahosting: delete: record not found" {
		t.Errorf("unexpected message: %s", err.Error())
	}
}

func TestConfigError(t *testing.T) {
	missing := ErrConfigMissing("username")
	if missing.Error() != "configuration error: username: required but not set" {
		t.Errorf("unexpected message: %s", missing.Error())
	}

	invalid := ErrConfigInvalid("ttl", "abc", "must be an integer")
	if invalid.Error() != `configuration error: ttl="abc": must be an integer` {
		t.Errorf("unexpected message: %s", invalid.Error())
	}

	if !IsConfigError(fmt.Errorf("loading: %w", invalid)) {
		t.Error("expected IsConfigError to detect wrapped error")
	}
}
