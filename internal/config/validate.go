package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration error: %s", e.Errors[0])
	}
	return fmt.Sprintf("configuration errors:\n  - %s", strings.Join(e.Errors, "\n  - "))
}

// Validate checks the configuration after flags were applied.
func (c *Config) Validate() error {
	if errs := c.validate(); len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	return nil
}

func (c *Config) validate() []string {
	var errs []string

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
		// Valid
	default:
		errs = append(errs, fmt.Sprintf("log level: invalid value %q (must be debug, info, warn, or error)", c.LogLevel))
	}

	switch c.LogFormat {
	case "json", "text":
		// Valid
	default:
		errs = append(errs, fmt.Sprintf("log format: invalid value %q (must be json or text)", c.LogFormat))
	}

	if c.Provider == "" {
		errs = append(errs, "provider: required")
	}

	if c.TTL < 0 {
		errs = append(errs, fmt.Sprintf("ttl: must be non-negative, got %d", c.TTL))
	}

	p := c.Propagation
	switch p.Mode {
	case PropagationSleep, PropagationDNS, PropagationDoH:
		// Valid
	default:
		errs = append(errs, fmt.Sprintf("propagation mode: invalid value %q (must be sleep, dns, or doh)", p.Mode))
	}
	if p.Seconds < 0 {
		errs = append(errs, "propagation seconds: must be non-negative")
	}
	if p.Mode != PropagationSleep {
		if p.Interval <= 0 {
			errs = append(errs, "propagation interval: must be positive")
		}
		if p.Timeout < p.Interval {
			errs = append(errs, fmt.Sprintf("propagation timeout: %s is shorter than the poll interval %s", p.Timeout, p.Interval))
		}
	}
	if p.Mode == PropagationDoH && len(p.DoHProviders) == 0 {
		errs = append(errs, "doh providers: at least one is required in doh mode")
	}

	if c.HTTPTimeout <= 0 {
		errs = append(errs, "http timeout: must be positive")
	}

	return errs
}

// ValidateProviderType checks that the provider type is known.
// This is called when building the provider, not during config load.
func ValidateProviderType(typeName string, knownTypes []string) error {
	for _, known := range knownTypes {
		if typeName == known {
			return nil
		}
	}
	return fmt.Errorf("unknown provider type: %q (known types: %s)", typeName, strings.Join(knownTypes, ", "))
}
