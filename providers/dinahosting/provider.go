package dinahosting

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"gitlab.bluewillows.net/root/dinadns/pkg/provider"
)

// TypeName is the registry name of this provider.
const TypeName = "dinahosting"

// ZoneNotFoundError reports that the bound zone is not managed by the account.
// Its text ends in "not found" and names the zone, which is what zone
// resolution keys on to move to the next candidate.
type ZoneNotFoundError struct {
	Zone string
	Err  error
}

func (e *ZoneNotFoundError) Error() string {
	return "Domain " + e.Zone + " not found"
}

func (e *ZoneNotFoundError) Unwrap() error {
	return e.Err
}

// Provider is the Dinahosting adapter. It implements provider.API.
type Provider struct {
	client     *Client
	clientOpts []ClientOption
	ttl        int
	logger     *slog.Logger

	zone          string
	authenticated bool
}

// ProviderOption is a functional option for configuring the Provider.
type ProviderOption func(*Provider)

// WithProviderLogger sets a custom logger for the provider.
func WithProviderLogger(logger *slog.Logger) ProviderOption {
	return func(p *Provider) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithClientOptions passes options through to the API client.
func WithClientOptions(opts ...ClientOption) ProviderOption {
	return func(p *Provider) {
		p.clientOpts = append(p.clientOpts, opts...)
	}
}

// New creates a new, unbound Dinahosting adapter.
func New(config *Config, opts ...ProviderOption) (*Provider, error) {
	if config == nil {
		return nil, fmt.Errorf("config is required")
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	p := &Provider{
		ttl:    config.TTL,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(p)
	}

	// Create the API client with the same logger
	clientOpts := append([]ClientOption{WithEndpoint(config.Endpoint), WithLogger(p.logger)}, p.clientOpts...)
	p.client = NewClient(config.Username, config.Password, clientOpts...)

	return p, nil
}

// NewFromEnv creates a new Dinahosting adapter from environment variables.
func NewFromEnv(opts ...ProviderOption) (*Provider, error) {
	config, err := LoadConfig()
	if err != nil {
		return nil, err
	}

	return New(config, opts...)
}

// Name returns "dinahosting".
func (p *Provider) Name() string {
	return TypeName
}

// SetZone binds the session to zone and drops any previous authentication.
func (p *Provider) SetZone(zone string) {
	p.zone = normalizeZone(zone)
	p.authenticated = false
}

// Zone returns the currently bound zone.
func (p *Provider) Zone() string {
	return p.zone
}

// TTL returns the TTL applied to created records.
func (p *Provider) TTL() int {
	return p.ttl
}

// Authenticate confirms the bound zone belongs to the account.
func (p *Provider) Authenticate(ctx context.Context) error {
	if p.zone == "" {
		return fmt.Errorf("authenticate: no zone bound")
	}

	_, err := p.client.GetZone(ctx, p.zone)
	if err != nil {
		return p.translateProbeError(err)
	}

	p.authenticated = true
	p.logger.Debug("authenticated zone", slog.String("zone", p.zone))
	return nil
}

// translateProbeError maps envelope errors from the ownership probe onto the
// failure kinds zone resolution distinguishes.
func (p *Provider) translateProbeError(err error) error {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return err
	}

	switch {
	case apiErr.IsAuthError():
		return &provider.AuthenticationError{Zone: p.zone, Message: apiErr.Message}
	case apiErr.Code == CodeObjectDoesNotExist:
		return &ZoneNotFoundError{Zone: p.zone, Err: apiErr}
	default:
		return apiErr
	}
}

// AddTXTRecord creates a TXT record in an authenticated zone.
func (p *Provider) AddTXTRecord(ctx context.Context, zone, recordName, value string) error {
	record := provider.TXTRecord(normalizeZone(zone), recordName, value, p.ttl)
	if err := p.requireAuthenticated(record.Zone); err != nil {
		return provider.WrapError(TypeName, "add TXT record", err)
	}

	hostname := provider.RelativeName(record.Hostname, record.Zone)
	if err := p.client.AddTXTRecord(ctx, record.Zone, hostname, record.Value, record.TTL); err != nil {
		return provider.WrapError(TypeName, "add TXT record", err)
	}

	return nil
}

// DeleteTXTRecord removes a TXT record from an authenticated zone.
// A record that does not exist yields an error matching provider.ErrNotFound.
func (p *Provider) DeleteTXTRecord(ctx context.Context, zone, recordName, value string) error {
	record := provider.TXTRecord(normalizeZone(zone), recordName, value, 0)
	if err := p.requireAuthenticated(record.Zone); err != nil {
		return provider.WrapError(TypeName, "delete TXT record", err)
	}

	hostname := provider.RelativeName(record.Hostname, record.Zone)
	err := p.client.DeleteTXTRecord(ctx, record.Zone, hostname, record.Value)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Code == CodeObjectDoesNotExist {
			err = fmt.Errorf("%w: %s TXT %q", provider.ErrNotFound, record.Hostname, record.Value)
		}
		return provider.WrapError(TypeName, "delete TXT record", err)
	}

	return nil
}

func (p *Provider) requireAuthenticated(zone string) error {
	if !p.authenticated || zone != p.zone {
		return fmt.Errorf("%w: %s", provider.ErrNotAuthenticated, zone)
	}
	return nil
}

func normalizeZone(zone string) string {
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(zone)), ".")
}

var _ provider.API = (*Provider)(nil)
