// Package config handles loading and validation of dinadns configuration.
//
// Settings are layered: built-in defaults, then the YAML file named by
// DINADNS_CONFIG (or the --config flag), then DINADNS_* environment
// variables. The CLI applies its flags last and calls Validate again.
package config

import (
	"time"
)

// Configuration defaults.
const (
	DefaultLogLevel            = "info"
	DefaultLogFormat           = "text"
	DefaultProvider            = "dinahosting"
	DefaultPropagationMode     = PropagationSleep
	DefaultPropagationSeconds  = 30 * time.Second
	DefaultPropagationTimeout  = 2 * time.Minute
	DefaultPropagationInterval = 5 * time.Second
	DefaultHTTPTimeout         = 30 * time.Second
)

// Propagation modes.
const (
	PropagationSleep = "sleep"
	PropagationDNS   = "dns"
	PropagationDoH   = "doh"
)

// Config holds the runtime configuration.
type Config struct {
	// Logging configuration
	LogLevel  string // debug, info, warn, error
	LogFormat string // json, text

	// Provider selection and credentials
	Provider        string // registry type name
	CredentialsPath string // INI/TOML/YAML credentials file; env credentials when empty
	TTL             int    // 0 keeps the credentials/provider default
	Endpoint        string // API URL override

	Propagation PropagationConfig

	// HTTP client
	HTTPTimeout time.Duration
	UserAgent   string

	// MetricsTextfile is where metrics are written after each run. Empty disables.
	MetricsTextfile string
}

// PropagationConfig controls how perform waits for the TXT record to be visible.
type PropagationConfig struct {
	Mode         string        // sleep, dns, doh
	Seconds      time.Duration // fixed wait for sleep mode
	Timeout      time.Duration // upper bound for dns and doh modes
	Interval     time.Duration // poll interval for dns and doh modes
	Nameservers  []string      // dns mode; resolv.conf when empty
	DoHProviders []string      // doh mode; cloudflare, google, quad9, dnspod
}

// Defaults returns a Config populated with default values.
func Defaults() *Config {
	return &Config{
		LogLevel:  DefaultLogLevel,
		LogFormat: DefaultLogFormat,
		Provider:  DefaultProvider,
		Propagation: PropagationConfig{
			Mode:         DefaultPropagationMode,
			Seconds:      DefaultPropagationSeconds,
			Timeout:      DefaultPropagationTimeout,
			Interval:     DefaultPropagationInterval,
			DoHProviders: []string{"cloudflare"},
		},
		HTTPTimeout: DefaultHTTPTimeout,
	}
}
