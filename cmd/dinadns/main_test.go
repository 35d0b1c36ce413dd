package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/fatih/color"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"gitlab.bluewillows.net/root/dinadns/internal/credentials"
	"gitlab.bluewillows.net/root/dinadns/internal/metrics"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"unknown", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseLogLevel(tt.input))
		})
	}
}

func TestSetupLogger(t *testing.T) {
	var buf bytes.Buffer

	setupLogger(&buf, "info", "json").Info("hello", slog.String("k", "v"))
	assert.True(t, json.Valid(bytes.TrimSpace(buf.Bytes())), "json format should emit JSON: %s", buf.String())

	buf.Reset()
	setupLogger(&buf, "info", "text").Info("hello", slog.String("k", "v"))
	assert.Contains(t, buf.String(), "msg=hello")
	assert.Contains(t, buf.String(), "k=v")

	buf.Reset()
	setupLogger(&buf, "warn", "text").Info("dropped")
	assert.Empty(t, buf.String())
}

// fakeAPI serves the Dinahosting commands for a single zone.
type fakeAPI struct {
	mu      sync.Mutex
	zone    string
	records map[string]string
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	q := r.URL.Query()
	reply := func(code int) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"responseCode": code, "message": "fake"})
	}

	if user, pass, ok := r.BasicAuth(); !ok || user != "foo" || pass != "bar" {
		reply(2200)
		return
	}
	if q.Get("domain") != f.zone {
		reply(2303)
		return
	}

	switch q.Get("command") {
	case "Domain_Zone_GetAll":
		reply(1000)
	case "Domain_Zone_AddTypeTXT":
		f.records[q.Get("hostname")] = q.Get("text")
		reply(1000)
	case "Domain_Zone_DeleteTypeTXT":
		if f.records[q.Get("hostname")] != q.Get("value") {
			reply(2303)
			return
		}
		delete(f.records, q.Get("hostname"))
		reply(1000)
	default:
		reply(2001)
	}
}

func (f *fakeAPI) record(hostname string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.records[hostname]
	return v, ok
}

// runApp executes the CLI against a fake API and returns its stdout.
func runApp(t *testing.T, api *fakeAPI, args ...string) (string, error) {
	t.Helper()

	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	t.Setenv("DINADNS_CONFIG", "")
	t.Setenv("DINADNS_CREDENTIALS", "")
	t.Setenv("DINADNS_ENDPOINT", srv.URL)
	t.Setenv("DINADNS_USERNAME", "foo")
	t.Setenv("DINADNS_PASSWORD", "bar")

	color.NoColor = true

	exitCode := 0
	origExiter := cli.OsExiter
	cli.OsExiter = func(code int) { exitCode = code }
	t.Cleanup(func() { cli.OsExiter = origExiter })

	var out bytes.Buffer
	app := newApp(io.Discard)
	app.Writer = &out
	app.ErrWriter = io.Discard

	err := app.RunContext(context.Background(), append([]string{"dinadns"}, args...))
	if err == nil && exitCode != 0 {
		t.Fatalf("unexpected exit code %d", exitCode)
	}
	return out.String(), err
}

func TestPerformAndCleanup(t *testing.T) {
	api := &fakeAPI{zone: "example.com", records: map[string]string{}}

	_, err := runApp(t, api, "perform", "--domain", "app.example.com", "--validation", "token", "--no-wait")
	require.NoError(t, err)

	value, ok := api.record("_acme-challenge.app")
	require.True(t, ok, "perform should create the record in the owned zone")
	assert.Equal(t, "token", value)

	_, err = runApp(t, api, "cleanup", "--domain", "app.example.com", "--validation", "token")
	require.NoError(t, err)

	_, ok = api.record("_acme-challenge.app")
	assert.False(t, ok, "cleanup should remove the record")
}

// durationSamples returns how many durations were recorded for operation.
func durationSamples(t *testing.T, operation string) uint64 {
	t.Helper()

	var m dto.Metric
	observer := metrics.OperationDuration.WithLabelValues(operation)
	require.NoError(t, observer.(prometheus.Metric).Write(&m))
	return m.GetHistogram().GetSampleCount()
}

func TestOperationDurationRecordedOncePerRun(t *testing.T) {
	api := &fakeAPI{zone: "example.com", records: map[string]string{}}

	before := durationSamples(t, "perform")
	_, err := runApp(t, api, "perform", "--domain", "app.example.com", "--validation", "token", "--no-wait")
	require.NoError(t, err)
	assert.Equal(t, before+1, durationSamples(t, "perform"))

	before = durationSamples(t, "cleanup")
	_, err = runApp(t, api, "cleanup", "--domain", "app.example.com", "--validation", "token")
	require.NoError(t, err)
	assert.Equal(t, before+1, durationSamples(t, "cleanup"))
}

func TestPerformUsesCertbotEnvironment(t *testing.T) {
	api := &fakeAPI{zone: "example.com", records: map[string]string{}}
	t.Setenv("CERTBOT_DOMAIN", "example.com")
	t.Setenv("CERTBOT_VALIDATION", "from-env")

	_, err := runApp(t, api, "--propagation-mode", "sleep", "--propagation-seconds", "0", "perform")
	require.NoError(t, err)

	value, ok := api.record("_acme-challenge")
	require.True(t, ok)
	assert.Equal(t, "from-env", value)
}

func TestCleanupOfMissingRecordSucceeds(t *testing.T) {
	api := &fakeAPI{zone: "example.com", records: map[string]string{}}

	_, err := runApp(t, api, "cleanup", "--domain", "app.example.com", "--validation", "gone")
	assert.NoError(t, err)
}

func TestPerformUnknownZone(t *testing.T) {
	api := &fakeAPI{zone: "example.org", records: map[string]string{}}

	_, err := runApp(t, api, "perform", "--domain", "app.example.com", "--validation", "token", "--no-wait")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Unable to determine zone identifier for app.example.com")
}

func TestCheckCommand(t *testing.T) {
	api := &fakeAPI{zone: "example.com", records: map[string]string{}}

	out, err := runApp(t, api, "check", "a.b.example.com")
	require.NoError(t, err)
	assert.Contains(t, out, "OK a.b.example.com -> example.com")
}

func TestCheckCommandReportsFailures(t *testing.T) {
	api := &fakeAPI{zone: "example.com", records: map[string]string{}}

	out, err := runApp(t, api, "check", "www.example.com", "www.example.net")
	require.Error(t, err)
	assert.Contains(t, out, "OK www.example.com -> example.com")
	assert.Contains(t, out, "FAIL www.example.net")
	assert.Contains(t, err.Error(), "1 of 2 domains")
}

func TestInvalidGlobalFlag(t *testing.T) {
	api := &fakeAPI{zone: "example.com", records: map[string]string{}}

	_, err := runApp(t, api, "--log-level", "verbose", "check", "example.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log")
}

func TestCredentialsInit(t *testing.T) {
	api := &fakeAPI{zone: "example.com", records: map[string]string{}}
	path := filepath.Join(t.TempDir(), "dinahosting.ini")

	r, w, err := os.Pipe()
	require.NoError(t, err)
	_, err = w.WriteString("s3cret\n")
	require.NoError(t, err)
	require.NoError(t, w.Close())

	origStdin := os.Stdin
	os.Stdin = r
	t.Cleanup(func() {
		os.Stdin = origStdin
		_ = r.Close()
	})

	out, err := runApp(t, api, "credentials", "init", "--path", path, "--username", "alice", "--ttl", "120")
	require.NoError(t, err)
	assert.True(t, strings.Contains(out, "wrote "+path))

	creds, err := credentials.Load(path, "dinahosting")
	require.NoError(t, err)
	assert.Equal(t, "alice", creds.Username)
	assert.Equal(t, "s3cret", creds.Password)
	assert.Equal(t, 120, creds.TTL)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}
