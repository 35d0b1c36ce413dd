// Package credentials loads the provider account credentials.
//
// Credentials come from a file (certbot-style INI, TOML or YAML, chosen by
// extension) or from DINADNS_* environment variables. Recognised keys are
// username, password and ttl, each accepted bare or with the provider prefix
// ("dinahosting_username", "dns_dinahosting_username").
package credentials

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"gitlab.bluewillows.net/root/dinadns/internal/config"
	"gitlab.bluewillows.net/root/dinadns/pkg/provider"
)

// Recognised credential keys.
const (
	KeyUsername = "username"
	KeyPassword = "password"
	KeyTTL      = "ttl"
)

// Credentials is the account credential bundle. It is immutable once loaded.
type Credentials struct {
	Username string
	Password string
	TTL      int // 0 means provider default
}

// LogValue keeps the password out of logs.
func (c Credentials) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("username", c.Username),
		slog.String("password", "REDACTED"),
		slog.Int("ttl", c.TTL),
	)
}

// Validate checks that username and password are set and ttl is non-negative.
// Every problem is reported, not just the first.
func (c Credentials) Validate() error {
	var errs []error

	if c.Username == "" {
		errs = append(errs, provider.ErrConfigMissing(KeyUsername))
	}
	if c.Password == "" {
		errs = append(errs, provider.ErrConfigMissing(KeyPassword))
	}
	if c.TTL < 0 {
		errs = append(errs, provider.ErrConfigInvalid(KeyTTL, strconv.Itoa(c.TTL), "must be non-negative"))
	}

	return errors.Join(errs...)
}

// Option is a functional option for Load.
type Option func(*loader)

type loader struct {
	logger *slog.Logger
}

// WithLogger sets the logger used for permission warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(l *loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// Load reads credentials from path. prefix is the provider name used for
// prefixed keys; an empty prefix accepts bare keys only.
func Load(path, prefix string, opts ...Option) (*Credentials, error) {
	l := &loader{logger: slog.Default()}
	for _, opt := range opts {
		opt(l)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("reading credentials file: %w", err)
	}
	if info.Mode().Perm()&0o077 != 0 {
		l.logger.Warn("credentials file is accessible by other users",
			slog.String("path", path),
			slog.String("mode", info.Mode().Perm().String()),
		)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading credentials file: %w", err)
	}

	var values map[string]string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		values, err = parseTOML(data)
	case ".yaml", ".yml":
		values, err = parseYAML(data)
	default:
		values, err = parseINI(data)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing credentials file %s: %w", path, err)
	}

	creds, err := fromValues(values, prefix)
	if err != nil {
		return nil, fmt.Errorf("credentials file %s: %w", path, err)
	}

	if unknown := unknownKeys(values, prefix); len(unknown) > 0 {
		l.logger.Debug("ignoring unrecognised credential keys",
			slog.String("path", path),
			slog.Any("keys", unknown),
		)
	}

	return creds, nil
}

// FromEnv reads credentials from DINADNS_USERNAME, DINADNS_PASSWORD
// (or DINADNS_PASSWORD_FILE) and DINADNS_TTL.
func FromEnv() (*Credentials, error) {
	values := map[string]string{
		KeyUsername: os.Getenv("DINADNS_USERNAME"),
		KeyPassword: config.Secret("DINADNS_PASSWORD"),
		KeyTTL:      os.Getenv("DINADNS_TTL"),
	}

	creds, err := fromValues(values, "")
	if err != nil {
		return nil, fmt.Errorf("credentials from environment: %w", err)
	}
	return creds, nil
}

// fromValues builds and validates Credentials from a flat key-value map.
func fromValues(values map[string]string, prefix string) (*Credentials, error) {
	creds := &Credentials{
		Username: strings.TrimSpace(lookup(values, prefix, KeyUsername)),
		Password: lookup(values, prefix, KeyPassword),
	}

	var errs []error
	if ttlStr := strings.TrimSpace(lookup(values, prefix, KeyTTL)); ttlStr != "" {
		ttl, err := strconv.Atoi(ttlStr)
		if err != nil {
			errs = append(errs, provider.ErrConfigInvalid(KeyTTL, ttlStr, "must be an integer"))
		} else {
			creds.TTL = ttl
		}
	}

	if err := creds.Validate(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	return creds, nil
}

// keyVariants lists the accepted spellings of key, most specific first.
func keyVariants(prefix, key string) []string {
	if prefix == "" {
		return []string{key}
	}
	prefix = strings.ToLower(prefix)
	return []string{"dns_" + prefix + "_" + key, prefix + "_" + key, key}
}

func lookup(values map[string]string, prefix, key string) string {
	for _, variant := range keyVariants(prefix, key) {
		if v, ok := values[variant]; ok && v != "" {
			return v
		}
	}
	return ""
}

func unknownKeys(values map[string]string, prefix string) []string {
	known := lo.FlatMap([]string{KeyUsername, KeyPassword, KeyTTL}, func(key string, _ int) []string {
		return keyVariants(prefix, key)
	})
	unknown := lo.Keys(lo.OmitByKeys(values, known))
	sort.Strings(unknown)
	return unknown
}
