package config

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"
)

// Load builds the configuration from defaults, the YAML file at path and
// DINADNS_* environment variables, in that order of precedence (env wins).
// When path is empty, DINADNS_CONFIG is consulted; no file is not an error.
// Every problem found is reported in a single *ValidationError.
func Load(path string) (*Config, error) {
	if path == "" {
		path = getEnv("DINADNS_CONFIG")
	}

	cfg := Defaults()
	var errs []string

	if path != "" {
		fileCfg, err := LoadFile(path)
		if err != nil {
			errs = append(errs, "config file: "+err.Error())
		} else {
			slog.Debug("loaded configuration from file", slog.String("path", path))
			errs = append(errs, fileCfg.apply(cfg)...)
		}
	}

	errs = append(errs, applyEnv(cfg)...)
	errs = append(errs, cfg.validate()...)

	if len(errs) > 0 {
		return nil, &ValidationError{Errors: errs}
	}

	return cfg, nil
}

// apply copies every value set in the file onto cfg.
func (c *FileConfig) apply(cfg *Config) []string {
	var errs []string

	if c.Logging != nil {
		if c.Logging.Level != "" {
			cfg.LogLevel = strings.ToLower(c.Logging.Level)
		}
		if c.Logging.Format != "" {
			cfg.LogFormat = strings.ToLower(c.Logging.Format)
		}
	}

	if c.Provider != nil {
		if c.Provider.Type != "" {
			cfg.Provider = strings.ToLower(c.Provider.Type)
		}
		if c.Provider.Credentials != "" {
			cfg.CredentialsPath = c.Provider.Credentials
		}
		if c.Provider.TTL != nil {
			cfg.TTL = *c.Provider.TTL
		}
		if c.Provider.Endpoint != "" {
			cfg.Endpoint = c.Provider.Endpoint
		}
	}

	if p := c.Propagation; p != nil {
		if p.Mode != "" {
			cfg.Propagation.Mode = strings.ToLower(p.Mode)
		}
		errs = appendDuration(errs, "propagation.seconds", p.Seconds, &cfg.Propagation.Seconds)
		errs = appendDuration(errs, "propagation.timeout", p.Timeout, &cfg.Propagation.Timeout)
		errs = appendDuration(errs, "propagation.interval", p.Interval, &cfg.Propagation.Interval)
		if len(p.Nameservers) > 0 {
			cfg.Propagation.Nameservers = cleanList(p.Nameservers)
		}
		if len(p.DoHProviders) > 0 {
			cfg.Propagation.DoHProviders = cleanList(p.DoHProviders)
		}
	}

	if c.HTTP != nil {
		errs = appendDuration(errs, "http.timeout", c.HTTP.Timeout, &cfg.HTTPTimeout)
		if c.HTTP.UserAgent != "" {
			cfg.UserAgent = c.HTTP.UserAgent
		}
	}

	if c.Metrics != nil && c.Metrics.Textfile != "" {
		cfg.MetricsTextfile = c.Metrics.Textfile
	}

	return errs
}

// applyEnv overrides cfg with DINADNS_* environment variables that are set.
func applyEnv(cfg *Config) []string {
	var errs []string

	if v := getEnv("DINADNS_LOG_LEVEL"); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	if v := getEnv("DINADNS_LOG_FORMAT"); v != "" {
		cfg.LogFormat = strings.ToLower(v)
	}
	if v := getEnv("DINADNS_PROVIDER"); v != "" {
		cfg.Provider = strings.ToLower(v)
	}
	if v := getEnv("DINADNS_CREDENTIALS"); v != "" {
		cfg.CredentialsPath = v
	}
	if v := getEnv("DINADNS_TTL"); v != "" {
		ttl, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			errs = append(errs, fmt.Sprintf("DINADNS_TTL: invalid integer %q", v))
		} else {
			cfg.TTL = ttl
		}
	}
	if v := getEnv("DINADNS_ENDPOINT"); v != "" {
		cfg.Endpoint = v
	}

	if v := getEnv("DINADNS_PROPAGATION_MODE"); v != "" {
		cfg.Propagation.Mode = strings.ToLower(v)
	}
	errs = appendDuration(errs, "DINADNS_PROPAGATION_SECONDS", getEnv("DINADNS_PROPAGATION_SECONDS"), &cfg.Propagation.Seconds)
	errs = appendDuration(errs, "DINADNS_PROPAGATION_TIMEOUT", getEnv("DINADNS_PROPAGATION_TIMEOUT"), &cfg.Propagation.Timeout)
	errs = appendDuration(errs, "DINADNS_PROPAGATION_INTERVAL", getEnv("DINADNS_PROPAGATION_INTERVAL"), &cfg.Propagation.Interval)
	if v := getEnv("DINADNS_NAMESERVERS"); v != "" {
		cfg.Propagation.Nameservers = SplitList(v)
	}
	if v := getEnv("DINADNS_DOH_PROVIDERS"); v != "" {
		cfg.Propagation.DoHProviders = SplitList(v)
	}

	errs = appendDuration(errs, "DINADNS_HTTP_TIMEOUT", getEnv("DINADNS_HTTP_TIMEOUT"), &cfg.HTTPTimeout)
	if v := getEnv("DINADNS_USER_AGENT"); v != "" {
		cfg.UserAgent = v
	}
	if v := getEnv("DINADNS_METRICS_TEXTFILE"); v != "" {
		cfg.MetricsTextfile = v
	}

	return errs
}

// ParseDuration accepts Go duration format ("90s", "2m") or a bare number of
// seconds ("30"), the unit certbot hooks traditionally use.
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if secs, err := strconv.Atoi(s); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	return time.ParseDuration(s)
}

// appendDuration parses value into dst when value is set, recording an error
// under name on failure.
func appendDuration(errs []string, name, value string, dst *time.Duration) []string {
	if strings.TrimSpace(value) == "" {
		return errs
	}
	d, err := ParseDuration(value)
	if err != nil {
		return append(errs, fmt.Sprintf("%s: invalid duration %q (use format like 30, 90s, 2m)", name, value))
	}
	*dst = d
	return errs
}

// SplitList splits a comma-separated list, trimming blanks and duplicates.
func SplitList(s string) []string {
	return cleanList(strings.Split(s, ","))
}

func cleanList(items []string) []string {
	trimmed := lo.Map(items, func(item string, _ int) string {
		return strings.TrimSpace(item)
	})
	return lo.Uniq(lo.Compact(trimmed))
}
