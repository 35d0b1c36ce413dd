// dinadns fulfils ACME dns-01 challenges against Dinahosting.
// It is meant to run as certbot --manual-auth-hook / --manual-cleanup-hook:
// perform creates the _acme-challenge TXT record in the right zone and waits
// for it to propagate, cleanup removes it again.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"gitlab.bluewillows.net/root/dinadns/internal/config"
	"gitlab.bluewillows.net/root/dinadns/internal/metrics"
)

// Version and BuildDate are set via ldflags during build.
// Example: -ldflags="-X main.Version=v1.0.0 -X main.BuildDate=2026-01-03"
var (
	Version   = "dev"
	BuildDate = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp(os.Stderr).RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("dinadns: %v", err))
		stop()
		os.Exit(1)
	}
}

// app carries state shared by all commands once Before has run.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	out    io.Writer
}

func newApp(logOutput io.Writer) *cli.App {
	a := &app{out: logOutput}

	return &cli.App{
		Name:    "dinadns",
		Usage:   "ACME dns-01 challenges for Dinahosting zones",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to YAML configuration file",
				EnvVars: []string{"DINADNS_CONFIG"},
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "debug, info, warn or error",
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "json or text",
			},
			&cli.StringFlag{
				Name:    "credentials",
				Aliases: []string{"C"},
				Usage:   "credentials file (INI, TOML or YAML)",
			},
			&cli.IntFlag{
				Name:  "ttl",
				Usage: "TTL of the validation record, 0 for provider default",
			},
			&cli.StringFlag{
				Name:  "propagation-mode",
				Usage: "sleep, dns or doh",
			},
			&cli.StringFlag{
				Name:  "propagation-seconds",
				Usage: "how long sleep mode waits (e.g. 30, 90s)",
			},
			&cli.StringFlag{
				Name:  "metrics-textfile",
				Usage: "write Prometheus metrics to this file on exit",
			},
		},
		Before: a.before,
		After:  a.after,
		Commands: []*cli.Command{
			a.performCommand(),
			a.cleanupCommand(),
			a.checkCommand(),
			a.credentialsCommand(),
		},
	}
}

// before loads configuration, applies global flags and sets up logging.
func (a *app) before(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	if c.IsSet("log-format") {
		cfg.LogFormat = c.String("log-format")
	}
	if c.IsSet("credentials") {
		cfg.CredentialsPath = c.String("credentials")
	}
	if c.IsSet("ttl") {
		cfg.TTL = c.Int("ttl")
	}
	if c.IsSet("propagation-mode") {
		cfg.Propagation.Mode = c.String("propagation-mode")
	}
	if c.IsSet("propagation-seconds") {
		d, err := config.ParseDuration(c.String("propagation-seconds"))
		if err != nil {
			return fmt.Errorf("--propagation-seconds: %w", err)
		}
		cfg.Propagation.Seconds = d
	}
	if c.IsSet("metrics-textfile") {
		cfg.MetricsTextfile = c.String("metrics-textfile")
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = setupLogger(a.out, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(a.logger)

	metrics.SetBuildInfo(Version, runtime.Version())

	a.logger.Debug("dinadns starting",
		slog.String("version", Version),
		slog.String("build_date", BuildDate),
		slog.String("go_version", runtime.Version()),
		slog.String("provider", cfg.Provider),
	)

	return nil
}

// after flushes metrics when a textfile is configured.
func (a *app) after(_ *cli.Context) error {
	if a.cfg == nil || a.cfg.MetricsTextfile == "" {
		return nil
	}
	if err := metrics.WriteTextfile(a.cfg.MetricsTextfile); err != nil {
		a.logger.Warn("failed to write metrics", slog.String("error", err.Error()))
	}
	return nil
}

func setupLogger(w io.Writer, level, format string) *slog.Logger {
	logLevel := parseLogLevel(level)

	var handler slog.Handler
	if format == "text" {
		handler = slog.NewTextHandler(w, &slog.HandlerOptions{Level: logLevel})
	} else {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: logLevel})
	}

	return slog.New(handler)
}

// parseLogLevel converts a string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
