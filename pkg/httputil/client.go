// Package httputil provides the shared HTTP client used by dinadns provider adapters.
package httputil

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Default HTTP client configuration values.
const (
	// DefaultTimeout is the default HTTP client timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultUserAgent is used when no custom user agent is specified.
	DefaultUserAgent = "dinadns/1.0"
)

// redactedParams are query parameters never written to logs.
var redactedParams = []string{"password", "pass", "token", "apikey"}

// ClientConfig contains configuration for creating an HTTP client.
type ClientConfig struct {
	// Timeout is the HTTP client timeout. Defaults to 30 seconds.
	Timeout time.Duration

	// UserAgent is the User-Agent header to set on requests.
	// Defaults to "dinadns/1.0" if not specified.
	UserAgent string

	// Transport overrides the base round tripper (http.DefaultTransport).
	Transport http.RoundTripper

	// Logger enables debug logging for HTTP requests.
	// If nil, no debug logging is performed.
	Logger *slog.Logger
}

// loggingTransport sets the User-Agent header and logs requests at debug
// level with credentials removed from the URL.
type loggingTransport struct {
	base      http.RoundTripper
	userAgent string
	logger    *slog.Logger
}

// RoundTrip implements http.RoundTripper.
func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" && t.userAgent != "" {
		// RoundTrippers must not modify the caller's request.
		req = req.Clone(req.Context())
		req.Header.Set("User-Agent", t.userAgent)
	}

	if t.logger == nil {
		return t.base.RoundTrip(req)
	}

	target := RedactURL(req.URL)
	t.logger.Debug("HTTP request",
		slog.String("method", req.Method),
		slog.String("url", target),
	)

	start := time.Now()
	resp, err := t.base.RoundTrip(req)
	if err != nil {
		t.logger.Debug("HTTP request failed",
			slog.String("method", req.Method),
			slog.String("url", target),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	t.logger.Debug("HTTP response",
		slog.String("method", req.Method),
		slog.String("url", target),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(start)),
	)

	return resp, nil
}

// NewClient creates an HTTP client with the specified configuration.
// If cfg is nil, defaults are used.
func NewClient(cfg *ClientConfig) *http.Client {
	if cfg == nil {
		cfg = &ClientConfig{}
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	base := cfg.Transport
	if base == nil {
		base = http.DefaultTransport
	}

	return &http.Client{
		Timeout: timeout,
		Transport: &loggingTransport{
			base:      base,
			userAgent: userAgent,
			logger:    cfg.Logger,
		},
	}
}

// DefaultClient returns a new HTTP client with default settings.
// Equivalent to NewClient(nil).
func DefaultClient() *http.Client {
	return NewClient(nil)
}

// RedactURL renders u without user info and with secret query values masked.
func RedactURL(u *url.URL) string {
	if u == nil {
		return ""
	}

	clean := *u
	clean.User = nil

	query := clean.Query()
	changed := false
	for key := range query {
		for _, secret := range redactedParams {
			if strings.EqualFold(key, secret) {
				query.Set(key, "REDACTED")
				changed = true
			}
		}
	}
	if changed {
		clean.RawQuery = query.Encode()
	}

	return clean.String()
}
