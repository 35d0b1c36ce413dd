package config

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// FileConfig represents the YAML configuration file structure.
// This mirrors the runtime Config but uses YAML-friendly types.
//
//	logging:
//	  level: debug
//	  format: json
//	provider:
//	  type: dinahosting
//	  credentials: /etc/letsencrypt/dinahosting.ini
//	  ttl: 60
//	propagation:
//	  mode: dns
//	  timeout: 3m
//	  nameservers: [ns1.dinahosting.com, ns2.dinahosting.com]
type FileConfig struct {
	Logging     *FileLoggingConfig     `yaml:"logging,omitempty"`
	Provider    *FileProviderConfig    `yaml:"provider,omitempty"`
	Propagation *FilePropagationConfig `yaml:"propagation,omitempty"`
	HTTP        *FileHTTPConfig        `yaml:"http,omitempty"`
	Metrics     *FileMetricsConfig     `yaml:"metrics,omitempty"`
}

// FileLoggingConfig holds logging settings.
type FileLoggingConfig struct {
	Level  string `yaml:"level,omitempty"`  // debug, info, warn, error
	Format string `yaml:"format,omitempty"` // json, text
}

// FileProviderConfig holds provider selection and credentials location.
type FileProviderConfig struct {
	Type        string `yaml:"type,omitempty"`
	Credentials string `yaml:"credentials,omitempty"`
	TTL         *int   `yaml:"ttl,omitempty"` // Pointer to distinguish unset from 0
	Endpoint    string `yaml:"endpoint,omitempty"`
}

// FilePropagationConfig holds propagation wait settings.
// Durations use Go duration format; seconds also accepts a bare integer.
type FilePropagationConfig struct {
	Mode         string   `yaml:"mode,omitempty"`
	Seconds      string   `yaml:"seconds,omitempty"`
	Timeout      string   `yaml:"timeout,omitempty"`
	Interval     string   `yaml:"interval,omitempty"`
	Nameservers  []string `yaml:"nameservers,omitempty"`
	DoHProviders []string `yaml:"doh_providers,omitempty"`
}

// FileHTTPConfig holds HTTP client settings.
type FileHTTPConfig struct {
	Timeout   string `yaml:"timeout,omitempty"`
	UserAgent string `yaml:"user_agent,omitempty"`
}

// FileMetricsConfig holds metrics export settings.
type FileMetricsConfig struct {
	Textfile string `yaml:"textfile,omitempty"`
}

// envVarPattern matches ${VAR} or ${VAR:-default} syntax.
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// InterpolateEnvVars replaces ${VAR} patterns with environment variable values.
// Supports ${VAR:-default} syntax for default values.
func InterpolateEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}
		varName := groups[1]
		defaultValue := ""
		if len(groups) >= 3 {
			defaultValue = groups[2]
		}

		if value := os.Getenv(varName); value != "" {
			return value
		}
		return defaultValue
	})
}

// interpolateEnvVars interpolates environment variables in all string fields.
func (c *FileConfig) interpolateEnvVars() {
	if c.Logging != nil {
		c.Logging.Level = InterpolateEnvVars(c.Logging.Level)
		c.Logging.Format = InterpolateEnvVars(c.Logging.Format)
	}

	if c.Provider != nil {
		c.Provider.Type = InterpolateEnvVars(c.Provider.Type)
		c.Provider.Credentials = InterpolateEnvVars(c.Provider.Credentials)
		c.Provider.Endpoint = InterpolateEnvVars(c.Provider.Endpoint)
	}

	if c.Propagation != nil {
		p := c.Propagation
		p.Mode = InterpolateEnvVars(p.Mode)
		p.Seconds = InterpolateEnvVars(p.Seconds)
		p.Timeout = InterpolateEnvVars(p.Timeout)
		p.Interval = InterpolateEnvVars(p.Interval)
		for i := range p.Nameservers {
			p.Nameservers[i] = InterpolateEnvVars(p.Nameservers[i])
		}
		for i := range p.DoHProviders {
			p.DoHProviders[i] = InterpolateEnvVars(p.DoHProviders[i])
		}
	}

	if c.HTTP != nil {
		c.HTTP.Timeout = InterpolateEnvVars(c.HTTP.Timeout)
		c.HTTP.UserAgent = InterpolateEnvVars(c.HTTP.UserAgent)
	}

	if c.Metrics != nil {
		c.Metrics.Textfile = InterpolateEnvVars(c.Metrics.Textfile)
	}
}

// LoadFile reads and parses a YAML configuration file.
// Environment variables in ${VAR} format are interpolated.
func LoadFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg FileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing YAML config: %w", err)
	}

	// Interpolate environment variables in all string fields
	cfg.interpolateEnvVars()

	return &cfg, nil
}
