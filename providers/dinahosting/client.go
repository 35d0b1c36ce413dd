// Package dinahosting implements the dinadns provider adapter for the Dinahosting API.
package dinahosting

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/antonholmquist/jason"

	"gitlab.bluewillows.net/root/dinadns/pkg/httputil"
	"gitlab.bluewillows.net/root/dinadns/pkg/provider"
)

// DefaultEndpoint is the Dinahosting API URL.
const DefaultEndpoint = "https://dinahosting.com/special/api.php"

// Dinahosting API response codes.
const (
	CodeSuccess            = 1000
	CodeAuthentication     = 2200
	CodeAuthorization      = 2201
	CodeObjectDoesNotExist = 2303
)

// API commands used by the client.
const (
	commandZoneGetAll    = "Domain_Zone_GetAll"
	commandZoneAddTXT    = "Domain_Zone_AddTypeTXT"
	commandZoneDeleteTXT = "Domain_Zone_DeleteTypeTXT"
)

// APIError is an error reported inside a Dinahosting response envelope.
type APIError struct {
	Command string
	Code    int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s failed with code %d: %s", e.Command, e.Code, e.Message)
}

// IsAuthError reports whether the code means the account credentials were rejected.
func (e *APIError) IsAuthError() bool {
	return e.Code == CodeAuthentication || e.Code == CodeAuthorization
}

// TXTRecord is a TXT entry as returned by Domain_Zone_GetAll.
type TXTRecord struct {
	Hostname string
	Text     string
}

// Client is a Dinahosting API client.
type Client struct {
	endpoint   string
	username   string
	password   string
	httpClient *http.Client
	logger     *slog.Logger
}

// ClientOption is a functional option for configuring the Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithEndpoint sets a custom API endpoint (useful for testing).
func WithEndpoint(endpoint string) ClientOption {
	return func(c *Client) {
		if endpoint != "" {
			c.endpoint = endpoint
		}
	}
}

// NewClient creates a new Dinahosting API client.
func NewClient(username, password string, opts ...ClientOption) *Client {
	c := &Client{
		endpoint:   DefaultEndpoint,
		username:   username,
		password:   password,
		httpClient: httputil.DefaultClient(),
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// call performs one API command and returns the parsed response envelope.
// Non-2xx responses and transport failures are returned as *provider.HTTPError,
// envelope errors as *APIError.
func (c *Client) call(ctx context.Context, command string, params url.Values) (*jason.Object, error) {
	if params == nil {
		params = url.Values{}
	}
	params.Set("command", command)
	params.Set("responseType", "Json")

	reqURL, err := url.Parse(c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("parsing endpoint: %w", err)
	}
	reqURL.RawQuery = params.Encode()

	c.logger.Debug("making API request",
		slog.String("command", command),
		slog.String("domain", params.Get("domain")),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.SetBasicAuth(c.username, c.password)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("executing request: %w", ctxErr)
		}
		return nil, &provider.HTTPError{URL: httputil.RedactURL(reqURL), Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &provider.HTTPError{
			StatusCode: resp.StatusCode,
			Status:     strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode))),
			URL:        httputil.RedactURL(reqURL),
		}
	}

	obj, err := jason.NewObjectFromBytes(bytes.TrimSpace(body))
	if err != nil {
		return nil, fmt.Errorf("parsing response JSON: %w", err)
	}

	code, err := obj.GetInt64("responseCode")
	if err != nil {
		return nil, fmt.Errorf("parsing response code: %w", err)
	}

	if code != CodeSuccess {
		return nil, &APIError{
			Command: command,
			Code:    int(code),
			Message: envelopeMessage(obj),
		}
	}

	return obj, nil
}

// envelopeMessage extracts the most specific error text from a response.
func envelopeMessage(obj *jason.Object) string {
	if errs, err := obj.GetObjectArray("errors"); err == nil {
		var msgs []string
		for _, e := range errs {
			if msg, err := e.GetString("message"); err == nil && msg != "" {
				msgs = append(msgs, msg)
			}
		}
		if len(msgs) > 0 {
			return strings.Join(msgs, "; ")
		}
	}

	if msg, err := obj.GetString("message"); err == nil && msg != "" {
		return msg
	}
	return "unknown error"
}

// GetZone fetches the records of zone. It doubles as the ownership probe:
// it only succeeds for zones managed by the account.
func (c *Client) GetZone(ctx context.Context, zone string) ([]TXTRecord, error) {
	params := url.Values{}
	params.Set("domain", zone)

	obj, err := c.call(ctx, commandZoneGetAll, params)
	if err != nil {
		return nil, err
	}

	entries, err := obj.GetObjectArray("data")
	if err != nil {
		// Zones without records return no data array.
		return nil, nil
	}

	var records []TXTRecord
	for _, entry := range entries {
		rtype, _ := entry.GetString("type")
		if !strings.EqualFold(rtype, string(provider.RecordTypeTXT)) {
			continue
		}
		hostname, _ := entry.GetString("hostname")
		text, _ := entry.GetString("text")
		records = append(records, TXTRecord{Hostname: hostname, Text: text})
	}

	c.logger.Debug("retrieved zone",
		slog.String("zone", zone),
		slog.Int("txt_records", len(records)),
	)

	return records, nil
}

// AddTXTRecord creates a TXT record. hostname is relative to zone.
// A ttl of 0 leaves the provider default in place.
func (c *Client) AddTXTRecord(ctx context.Context, zone, hostname, text string, ttl int) error {
	params := url.Values{}
	params.Set("domain", zone)
	params.Set("hostname", hostname)
	params.Set("text", text)
	if ttl > 0 {
		params.Set("ttl", strconv.Itoa(ttl))
	}

	if _, err := c.call(ctx, commandZoneAddTXT, params); err != nil {
		return fmt.Errorf("adding TXT record for %s: %w", hostname, err)
	}

	c.logger.Info("added TXT record",
		slog.String("hostname", hostname),
		slog.String("zone", zone),
		slog.Int("ttl", ttl),
	)

	return nil
}

// DeleteTXTRecord removes a TXT record. hostname is relative to zone.
func (c *Client) DeleteTXTRecord(ctx context.Context, zone, hostname, text string) error {
	params := url.Values{}
	params.Set("domain", zone)
	params.Set("hostname", hostname)
	params.Set("value", text)

	if _, err := c.call(ctx, commandZoneDeleteTXT, params); err != nil {
		return fmt.Errorf("deleting TXT record for %s: %w", hostname, err)
	}

	c.logger.Info("deleted TXT record",
		slog.String("hostname", hostname),
		slog.String("zone", zone),
	)

	return nil
}
