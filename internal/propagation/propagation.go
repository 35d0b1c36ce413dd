// Package propagation waits for a freshly created TXT record to become
// visible to resolvers before the ACME server is asked to validate it.
package propagation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"gitlab.bluewillows.net/root/dinadns/internal/config"
	"gitlab.bluewillows.net/root/dinadns/internal/metrics"
)

// ErrPropagationTimeout is returned when the record is not seen in time.
var ErrPropagationTimeout = errors.New("timed out waiting for TXT record propagation")

// Waiter blocks until the TXT value is visible at fqdn.
type Waiter interface {
	Wait(ctx context.Context, fqdn, value string) error
}

// LookupFunc returns the TXT values currently served for fqdn.
type LookupFunc func(ctx context.Context, fqdn string) ([]string, error)

// Sleeper waits a fixed duration, as certbot's --propagation-seconds does.
type Sleeper struct {
	Duration time.Duration
}

// Wait sleeps for s.Duration or until ctx is done.
func (s Sleeper) Wait(ctx context.Context, _, _ string) error {
	if s.Duration <= 0 {
		return nil
	}

	timer := time.NewTimer(s.Duration)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Poller queries Lookup every Interval until the value appears or Timeout
// elapses.
type Poller struct {
	Lookup   LookupFunc
	Timeout  time.Duration
	Interval time.Duration
	Logger   *slog.Logger
}

// Wait polls until value is among the TXT values served for fqdn.
// Lookup errors are logged and retried until the deadline.
func (p *Poller) Wait(ctx context.Context, fqdn, value string) error {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	ticker := time.NewTicker(p.Interval)
	defer ticker.Stop()

	for attempt := 1; ; attempt++ {
		values, err := p.Lookup(ctx, fqdn)
		switch {
		case err != nil:
			logger.Debug("TXT lookup failed",
				slog.String("fqdn", fqdn),
				slog.Int("attempt", attempt),
				slog.String("error", err.Error()),
			)
		case slices.Contains(values, value):
			elapsed := time.Since(start)
			metrics.PropagationWaitSeconds.Observe(elapsed.Seconds())
			logger.Info("TXT record propagated",
				slog.String("fqdn", fqdn),
				slog.Duration("elapsed", elapsed),
			)
			return nil
		default:
			logger.Debug("TXT record not visible yet",
				slog.String("fqdn", fqdn),
				slog.Int("attempt", attempt),
				slog.Int("values", len(values)),
			)
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return fmt.Errorf("%w: %s after %s", ErrPropagationTimeout, fqdn, p.Timeout)
			}
			return ctx.Err()
		}
	}
}

// New builds the Waiter selected by cfg.Mode.
func New(cfg config.PropagationConfig, logger *slog.Logger) (Waiter, error) {
	if logger == nil {
		logger = slog.Default()
	}

	switch cfg.Mode {
	case "", config.PropagationSleep:
		return Sleeper{Duration: cfg.Seconds}, nil
	case config.PropagationDNS:
		// A single query never outlives one poll interval.
		queryTimeout := cfg.Interval
		lookup, err := DNSLookup(cfg.Nameservers, queryTimeout)
		if err != nil {
			return nil, err
		}
		return &Poller{Lookup: lookup, Timeout: cfg.Timeout, Interval: cfg.Interval, Logger: logger}, nil
	case config.PropagationDoH:
		lookup, err := DoHLookup(cfg.DoHProviders)
		if err != nil {
			return nil, err
		}
		return &Poller{Lookup: lookup, Timeout: cfg.Timeout, Interval: cfg.Interval, Logger: logger}, nil
	default:
		return nil, fmt.Errorf("unknown propagation mode: %q", cfg.Mode)
	}
}
