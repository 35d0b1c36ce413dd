package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestInterpolateEnvVars(t *testing.T) {
	// Set up test environment variables
	t.Setenv("TEST_VAR", "test-value")
	t.Setenv("CREDS_DIR", "/etc/letsencrypt")

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "simple variable",
			input:    "${TEST_VAR}",
			expected: "test-value",
		},
		{
			name:     "variable in string",
			input:    "prefix-${TEST_VAR}-suffix",
			expected: "prefix-test-value-suffix",
		},
		{
			name:     "multiple variables",
			input:    "${CREDS_DIR}/${TEST_VAR}.ini",
			expected: "/etc/letsencrypt/test-value.ini",
		},
		{
			name:     "unset variable",
			input:    "${NONEXISTENT_VAR}",
			expected: "",
		},
		{
			name:     "default value",
			input:    "${NONEXISTENT_VAR:-default}",
			expected: "default",
		},
		{
			name:     "default value not used when set",
			input:    "${TEST_VAR:-default}",
			expected: "test-value",
		},
		{
			name:     "no variables",
			input:    "plain string",
			expected: "plain string",
		},
		{
			name:     "empty default",
			input:    "${NONEXISTENT:-}",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := InterpolateEnvVars(tt.input)
			if result != tt.expected {
				t.Errorf("InterpolateEnvVars(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	// Set up test environment variable for interpolation
	t.Setenv("TEST_CREDENTIALS", "/run/secrets/dinahosting.ini")

	// Create a temporary config file
	configContent := `
logging:
  level: debug
  format: json

provider:
  type: dinahosting
  credentials: ${TEST_CREDENTIALS}
  ttl: 60

propagation:
  mode: dns
  timeout: 3m
  interval: 10s
  nameservers:
    - ns1.dinahosting.com
    - ns2.dinahosting.com

http:
  timeout: 15s
  user_agent: dinadns-test/1.0

metrics:
  textfile: ${TEXTFILE_DIR:-/var/lib/node_exporter}/dinadns.prom
`

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yml")
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	// Load the config
	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	// Verify logging
	if cfg.Logging == nil {
		t.Fatal("logging config is nil")
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("logging.level = %q, want %q", cfg.Logging.Level, "debug")
	}

	// Verify provider
	if cfg.Provider == nil {
		t.Fatal("provider config is nil")
	}
	if cfg.Provider.Credentials != "/run/secrets/dinahosting.ini" {
		t.Errorf("provider.credentials = %q, want interpolated path", cfg.Provider.Credentials)
	}
	if cfg.Provider.TTL == nil || *cfg.Provider.TTL != 60 {
		t.Errorf("provider.ttl = %v, want 60", cfg.Provider.TTL)
	}

	// Verify propagation
	if cfg.Propagation == nil {
		t.Fatal("propagation config is nil")
	}
	if cfg.Propagation.Mode != "dns" {
		t.Errorf("propagation.mode = %q, want %q", cfg.Propagation.Mode, "dns")
	}
	if len(cfg.Propagation.Nameservers) != 2 {
		t.Errorf("propagation.nameservers count = %d, want 2", len(cfg.Propagation.Nameservers))
	}

	// Verify metrics default interpolation
	if cfg.Metrics == nil || cfg.Metrics.Textfile != "/var/lib/node_exporter/dinadns.prom" {
		t.Errorf("metrics.textfile = %+v, want default directory", cfg.Metrics)
	}
}

func TestLoadFileNotFound(t *testing.T) {
	_, err := LoadFile("/nonexistent/path/config.yml")
	if err == nil {
		t.Error("LoadFile should fail for nonexistent file")
	}
}

func TestLoadFileInvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yml")
	if err := os.WriteFile(configPath, []byte("invalid: yaml: content: ["), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	_, err := LoadFile(configPath)
	if err == nil {
		t.Error("LoadFile should fail for invalid YAML")
	}
}
