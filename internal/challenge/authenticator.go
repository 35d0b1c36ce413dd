// Package challenge fulfils ACME dns-01 challenges: it resolves the zone of
// the challenged domain and creates or removes the validation TXT record.
package challenge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gitlab.bluewillows.net/root/dinadns/internal/metrics"
	"gitlab.bluewillows.net/root/dinadns/pkg/provider"
	"gitlab.bluewillows.net/root/dinadns/pkg/zone"
)

// Authenticator performs and cleans up dns-01 challenges.
//
// Every call builds its own adapter, so concurrent challenges for different
// domains never share a zone binding.
type Authenticator struct {
	build    provider.Builder
	resolver *zone.Resolver
	logger   *slog.Logger
}

// Option is a functional option for configuring the Authenticator.
type Option func(*Authenticator)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Authenticator) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithResolver replaces the default zone resolver.
func WithResolver(resolver *zone.Resolver) Option {
	return func(a *Authenticator) {
		if resolver != nil {
			a.resolver = resolver
		}
	}
}

// New creates an Authenticator that obtains adapters from build.
func New(build provider.Builder, opts ...Option) (*Authenticator, error) {
	if build == nil {
		return nil, errors.New("provider builder is required")
	}

	a := &Authenticator{
		build:  build,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(a)
	}

	if a.resolver == nil {
		a.resolver = zone.NewResolver(
			zone.WithLogger(a.logger),
			zone.WithObserver(metrics.ZoneObserver{}),
		)
	}

	return a, nil
}

// Perform creates the validation TXT record for domain.
// An empty validationName defaults to "_acme-challenge.<domain>".
// Failures are returned as *zone.PluginError.
func (a *Authenticator) Perform(ctx context.Context, domain, validationName, validation string) error {
	defer metrics.ObserveDuration("perform", time.Now())

	api, zoneName, recordName, err := a.prepare(ctx, domain, validationName)
	if err != nil {
		return err
	}

	if err := api.AddTXTRecord(ctx, zoneName, recordName, validation); err != nil {
		metrics.ObserveRecordOperation("add", "error")
		return &zone.PluginError{
			Kind:      zone.KindRecordOperation,
			Domain:    domain,
			Candidate: zoneName,
			Op:        "adding",
			Err:       err,
		}
	}

	metrics.ObserveRecordOperation("add", "success")
	a.logger.Info("created validation record",
		slog.String("domain", domain),
		slog.String("zone", zoneName),
		slog.String("record", recordName),
	)

	return nil
}

// Cleanup removes the validation TXT record for domain.
//
// Cleanup is best effort and only fails when no adapter can be built:
// an unresolvable zone, an already removed record or a failed delete are
// logged and swallowed so certificate issuance is never blocked by cleanup.
func (a *Authenticator) Cleanup(ctx context.Context, domain, validationName, validation string) error {
	defer metrics.ObserveDuration("cleanup", time.Now())

	api, zoneName, recordName, err := a.prepare(ctx, domain, validationName)
	if err != nil {
		var pe *zone.PluginError
		if errors.As(err, &pe) {
			a.logger.Debug("skipping cleanup, zone could not be resolved",
				slog.String("domain", domain),
				slog.String("error", err.Error()),
			)
			return nil
		}
		return err
	}

	err = api.DeleteTXTRecord(ctx, zoneName, recordName, validation)
	switch {
	case err == nil:
		metrics.ObserveRecordOperation("delete", "success")
		a.logger.Info("removed validation record",
			slog.String("domain", domain),
			slog.String("zone", zoneName),
			slog.String("record", recordName),
		)
	case provider.IsNotFound(err):
		metrics.ObserveRecordOperation("delete", "not_found")
		a.logger.Info("validation record already removed",
			slog.String("domain", domain),
			slog.String("record", recordName),
		)
	default:
		metrics.ObserveRecordOperation("delete", "error")
		a.logger.Warn("failed to remove validation record",
			slog.String("domain", domain),
			slog.String("record", recordName),
			slog.String("error", err.Error()),
		)
	}

	return nil
}

// Resolve builds an adapter and returns the zone of domain without touching
// any record.
func (a *Authenticator) Resolve(ctx context.Context, domain string) (string, error) {
	api, err := a.build()
	if err != nil {
		return "", fmt.Errorf("creating provider: %w", err)
	}

	zoneName, err := a.resolver.Resolve(ctx, api, domain)
	metrics.ObserveResolution(err)
	return zoneName, err
}

// prepare builds a fresh adapter, resolves the zone and checks that the
// record name falls inside it.
func (a *Authenticator) prepare(ctx context.Context, domain, validationName string) (provider.API, string, string, error) {
	api, err := a.build()
	if err != nil {
		return nil, "", "", fmt.Errorf("creating provider: %w", err)
	}

	zoneName, err := a.resolver.Resolve(ctx, api, domain)
	metrics.ObserveResolution(err)
	if err != nil {
		return nil, "", "", err
	}

	recordName := validationName
	if recordName == "" {
		recordName = provider.ValidationName(domain)
	}

	if !zone.Contains(zoneName, recordName) {
		return nil, "", "", &zone.PluginError{
			Kind:      zone.KindUnclassified,
			Domain:    domain,
			Candidate: zoneName,
			Err:       fmt.Errorf("record %s is outside zone %s", recordName, zoneName),
		}
	}

	return api, zoneName, recordName, nil
}
