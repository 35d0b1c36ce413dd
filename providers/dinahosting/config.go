package dinahosting

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"gitlab.bluewillows.net/root/dinadns/pkg/provider"
)

// Config holds Dinahosting-specific configuration.
type Config struct {
	Username string // API username
	Password string // API password
	Endpoint string // API URL (defaults to DefaultEndpoint)
	TTL      int    // Record TTL, 0 for provider default
}

// Validate checks that all required configuration is present.
// Every problem is reported, not just the first.
func (c *Config) Validate() error {
	var errs []error

	if c.Username == "" {
		errs = append(errs, provider.ErrConfigMissing("USERNAME"))
	}
	if c.Password == "" {
		errs = append(errs, provider.ErrConfigMissing("PASSWORD"))
	}
	if c.TTL < 0 {
		errs = append(errs, provider.ErrConfigInvalid("TTL", strconv.Itoa(c.TTL), "must be non-negative"))
	}
	if c.Endpoint != "" {
		if u, err := url.Parse(c.Endpoint); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, provider.ErrConfigInvalid("ENDPOINT", c.Endpoint, "must be an absolute URL"))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("dinahosting config validation failed: %w", errors.Join(errs...))
	}

	return nil
}

// LoadConfig loads Dinahosting configuration from environment variables.
//
// Supported settings:
//   - DINADNS_DINAHOSTING_USERNAME: API username (required)
//   - DINADNS_DINAHOSTING_PASSWORD: API password (required, supports _FILE suffix for Docker secrets)
//   - DINADNS_DINAHOSTING_ENDPOINT: API URL (optional)
//   - DINADNS_DINAHOSTING_TTL: Record TTL (optional)
func LoadConfig() (*Config, error) {
	const prefix = "DINADNS_DINAHOSTING_"

	return LoadConfigFromMap(map[string]string{
		"USERNAME": os.Getenv(prefix + "USERNAME"),
		"PASSWORD": getEnvOrFile(prefix+"PASSWORD", prefix+"PASSWORD_FILE"),
		"ENDPOINT": os.Getenv(prefix + "ENDPOINT"),
		"TTL":      os.Getenv(prefix + "TTL"),
	})
}

// LoadConfigFromMap creates a Config from a map of key-value pairs.
//
// Required keys: USERNAME, PASSWORD
// Optional keys: ENDPOINT, TTL
func LoadConfigFromMap(configMap map[string]string) (*Config, error) {
	config := &Config{
		Username: strings.TrimSpace(configMap["USERNAME"]),
		Password: configMap["PASSWORD"],
		Endpoint: strings.TrimSpace(configMap["ENDPOINT"]),
	}

	if ttlStr := strings.TrimSpace(configMap["TTL"]); ttlStr != "" {
		ttl, err := strconv.Atoi(ttlStr)
		if err != nil {
			return nil, provider.ErrConfigInvalid("TTL", ttlStr, "must be an integer")
		}
		config.TTL = ttl
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	if config.Endpoint == "" {
		config.Endpoint = DefaultEndpoint
	}

	return config, nil
}

// getEnvOrFile retrieves a value from either a direct environment variable
// or a file path specified by the file key (Docker secrets pattern).
// If both are set, the file takes precedence.
func getEnvOrFile(directKey, fileKey string) string {
	if filePath := os.Getenv(fileKey); filePath != "" {
		content, err := os.ReadFile(filePath)
		if err == nil {
			return strings.TrimSpace(string(content))
		}
	}

	return os.Getenv(directKey)
}
