// Package acme exposes dinadns as a lego DNS challenge provider.
package acme

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-acme/lego/v4/challenge"
	"github.com/go-acme/lego/v4/challenge/dns01"

	authn "gitlab.bluewillows.net/root/dinadns/internal/challenge"
	"gitlab.bluewillows.net/root/dinadns/internal/config"
	"gitlab.bluewillows.net/root/dinadns/internal/credentials"
	"gitlab.bluewillows.net/root/dinadns/pkg/httputil"
	"gitlab.bluewillows.net/root/dinadns/pkg/provider"
	"gitlab.bluewillows.net/root/dinadns/providers/dinahosting"
)

// Config is used to configure the creation of the DNSProvider.
type Config struct {
	Username string
	Password string
	TTL      int
	Endpoint string // Dinahosting API URL; DefaultEndpoint when empty

	PropagationTimeout time.Duration
	PollingInterval    time.Duration
	HTTPTimeout        time.Duration
	UserAgent          string

	Logger *slog.Logger
}

// NewDefaultConfig returns a default configuration for the DNSProvider.
func NewDefaultConfig() *Config {
	return &Config{
		PropagationTimeout: config.DefaultPropagationTimeout,
		PollingInterval:    config.DefaultPropagationInterval,
		HTTPTimeout:        config.DefaultHTTPTimeout,
	}
}

// DNSProvider implements challenge.Provider and challenge.ProviderTimeout.
type DNSProvider struct {
	config *Config
	auth   *authn.Authenticator
}

// NewDNSProvider returns a DNSProvider configured from the environment:
// DINADNS_CONFIG and DINADNS_* settings, with credentials from the file in
// DINADNS_CREDENTIALS or from DINADNS_USERNAME/DINADNS_PASSWORD.
func NewDNSProvider() (*DNSProvider, error) {
	rt, err := config.Load("")
	if err != nil {
		return nil, fmt.Errorf("dinadns: %w", err)
	}

	var creds *credentials.Credentials
	if rt.CredentialsPath != "" {
		creds, err = credentials.Load(rt.CredentialsPath, dinahosting.TypeName)
	} else {
		creds, err = credentials.FromEnv()
	}
	if err != nil {
		return nil, fmt.Errorf("dinadns: %w", err)
	}

	cfg := NewDefaultConfig()
	cfg.Username = creds.Username
	cfg.Password = creds.Password
	cfg.TTL = creds.TTL
	if rt.TTL > 0 {
		cfg.TTL = rt.TTL
	}
	cfg.Endpoint = rt.Endpoint
	cfg.PropagationTimeout = rt.Propagation.Timeout
	cfg.PollingInterval = rt.Propagation.Interval
	cfg.HTTPTimeout = rt.HTTPTimeout
	cfg.UserAgent = rt.UserAgent

	return NewDNSProviderConfig(cfg)
}

// NewDNSProviderConfig returns a DNSProvider for the given configuration.
func NewDNSProviderConfig(cfg *Config) (*DNSProvider, error) {
	if cfg == nil {
		return nil, errors.New("dinadns: the configuration of the DNS provider is nil")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	registry := provider.NewRegistry(logger)
	registry.RegisterFactory(dinahosting.TypeName, dinahosting.Factory())

	factoryCfg := provider.FactoryConfig{
		Username: cfg.Username,
		Password: cfg.Password,
		TTL:      cfg.TTL,
		Settings: map[string]string{"ENDPOINT": cfg.Endpoint},
		HTTP: provider.HTTPConfig{
			Timeout:   cfg.HTTPTimeout,
			UserAgent: userAgent(cfg.UserAgent),
			Logger:    logger,
		},
	}

	// Fail on bad credentials configuration now rather than at Present.
	if _, err := registry.New(dinahosting.TypeName, factoryCfg); err != nil {
		return nil, fmt.Errorf("dinadns: %w", err)
	}

	build, err := registry.Builder(dinahosting.TypeName, factoryCfg)
	if err != nil {
		return nil, fmt.Errorf("dinadns: %w", err)
	}

	auth, err := authn.New(build, authn.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("dinadns: %w", err)
	}

	return &DNSProvider{config: cfg, auth: auth}, nil
}

// Present creates a TXT record to fulfil the dns-01 challenge.
func (d *DNSProvider) Present(domain, token, keyAuth string) error {
	fqdn, value := dns01.GetRecord(domain, keyAuth)

	if err := d.auth.Perform(context.Background(), domain, fqdn, value); err != nil {
		return fmt.Errorf("dinadns: %w", err)
	}
	return nil
}

// CleanUp removes the TXT record matching the specified parameters.
func (d *DNSProvider) CleanUp(domain, token, keyAuth string) error {
	fqdn, value := dns01.GetRecord(domain, keyAuth)

	if err := d.auth.Cleanup(context.Background(), domain, fqdn, value); err != nil {
		return fmt.Errorf("dinadns: %w", err)
	}
	return nil
}

// Timeout returns the timeout and interval to use when checking for DNS propagation.
func (d *DNSProvider) Timeout() (timeout, interval time.Duration) {
	return d.config.PropagationTimeout, d.config.PollingInterval
}

func userAgent(ua string) string {
	if ua != "" {
		return ua
	}
	return httputil.DefaultUserAgent + " (lego)"
}

var (
	_ challenge.Provider        = (*DNSProvider)(nil)
	_ challenge.ProviderTimeout = (*DNSProvider)(nil)
)
