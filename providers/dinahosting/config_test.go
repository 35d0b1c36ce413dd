package dinahosting

import (
	"os"
	"path/filepath"
	"testing"

	"gitlab.bluewillows.net/root/dinadns/pkg/provider"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{
			name:    "valid config",
			config:  Config{Username: "foo", Password: "bar"},
			wantErr: false,
		},
		{
			name:    "valid config with endpoint and ttl",
			config:  Config{Username: "foo", Password: "bar", Endpoint: "https://api.test/api.php", TTL: 300},
			wantErr: false,
		},
		{
			name:    "missing username",
			config:  Config{Password: "bar"},
			wantErr: true,
		},
		{
			name:    "missing password",
			config:  Config{Username: "foo"},
			wantErr: true,
		},
		{
			name:    "negative TTL",
			config:  Config{Username: "foo", Password: "bar", TTL: -1},
			wantErr: true,
		},
		{
			name:    "relative endpoint",
			config:  Config{Username: "foo", Password: "bar", Endpoint: "api.php"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_Validate_ReportsAllErrors(t *testing.T) {
	cfg := Config{TTL: -5}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error")
	}

	for _, field := range []string{"USERNAME", "PASSWORD", "TTL"} {
		if !contains(err.Error(), field) {
			t.Errorf("expected error to mention %s: %v", field, err)
		}
	}
	if !provider.IsConfigError(err) {
		t.Error("expected a ConfigError in the chain")
	}
}

func TestLoadConfigFromMap(t *testing.T) {
	cfg, err := LoadConfigFromMap(map[string]string{
		"USERNAME": " foo ",
		"PASSWORD": "bar",
		"TTL":      "120",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Username != "foo" {
		t.Errorf("expected trimmed username, got %q", cfg.Username)
	}
	if cfg.TTL != 120 {
		t.Errorf("expected TTL 120, got %d", cfg.TTL)
	}
	if cfg.Endpoint != DefaultEndpoint {
		t.Errorf("expected default endpoint, got %s", cfg.Endpoint)
	}
}

func TestLoadConfigFromMap_InvalidTTL(t *testing.T) {
	_, err := LoadConfigFromMap(map[string]string{
		"USERNAME": "foo",
		"PASSWORD": "bar",
		"TTL":      "soon",
	})
	if !provider.IsConfigError(err) {
		t.Errorf("expected ConfigError, got %v", err)
	}
}

func TestLoadConfig_FromEnv(t *testing.T) {
	t.Setenv("DINADNS_DINAHOSTING_USERNAME", "foo")
	t.Setenv("DINADNS_DINAHOSTING_PASSWORD", "direct")
	t.Setenv("DINADNS_DINAHOSTING_TTL", "600")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Password != "direct" || cfg.TTL != 600 {
		t.Errorf("unexpected config: %+v", cfg)
	}
}

func TestLoadConfig_PasswordFile(t *testing.T) {
	dir := t.TempDir()
	secretFile := filepath.Join(dir, "password")
	if err := os.WriteFile(secretFile, []byte("from-file\n"), 0o600); err != nil {
		t.Fatalf("writing secret: %v", err)
	}

	t.Setenv("DINADNS_DINAHOSTING_USERNAME", "foo")
	t.Setenv("DINADNS_DINAHOSTING_PASSWORD", "direct")
	t.Setenv("DINADNS_DINAHOSTING_PASSWORD_FILE", secretFile)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Password != "from-file" {
		t.Errorf("expected file to take precedence, got %q", cfg.Password)
	}

	if _, err := NewFromEnv(); err != nil {
		t.Errorf("NewFromEnv failed: %v", err)
	}
}

func contains(s, substr string) bool {
	return len(substr) == 0 || (len(s) >= len(substr) && indexOf(s, substr) >= 0)
}

func indexOf(s, substr string) int {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return i
		}
	}
	return -1
}
