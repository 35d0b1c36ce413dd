package zone

import (
	"context"
	"errors"
	"log/slog"

	"gitlab.bluewillows.net/root/dinadns/pkg/provider"
)

// ErrEmptyDomain is returned when resolution is asked for an empty name.
var ErrEmptyDomain = errors.New("domain is empty")

// Outcome labels the result of one candidate attempt.
type Outcome string

const (
	OutcomeAuthenticated          Outcome = "authenticated"
	OutcomeZoneNotFound           Outcome = "zone_not_found"
	OutcomeAuthenticationRejected Outcome = "authentication_rejected"
	OutcomeTransportError         Outcome = "transport_error"
	OutcomeUnclassified           Outcome = "unclassified_error"
)

// Session is the part of a provider adapter the resolver drives.
// provider.API satisfies it.
type Session interface {
	SetZone(zone string)
	Authenticate(ctx context.Context) error
}

// Observer is notified of every candidate attempt.
type Observer interface {
	ObserveAttempt(outcome Outcome)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(outcome Outcome)

// ObserveAttempt calls f(outcome).
func (f ObserverFunc) ObserveAttempt(outcome Outcome) {
	f(outcome)
}

// Resolver finds the zone of a domain by authenticating candidates in order.
// A Resolver holds no per-resolution state and is safe for concurrent use;
// the sessions it drives are not.
type Resolver struct {
	logger   *slog.Logger
	observer Observer
}

// ResolverOption is a functional option for configuring the Resolver.
type ResolverOption func(*Resolver)

// WithLogger sets a custom logger for the resolver.
func WithLogger(logger *slog.Logger) ResolverOption {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithObserver registers an observer for candidate attempts.
func WithObserver(observer Observer) ResolverOption {
	return func(r *Resolver) {
		r.observer = observer
	}
}

// NewResolver creates a new Resolver.
func NewResolver(opts ...ResolverOption) *Resolver {
	r := &Resolver{
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Resolve returns the first candidate of domain that session authenticates.
//
// Each candidate is bound with SetZone and authenticated exactly once.
// Rejected credentials and "not found" errors move on to the next candidate;
// transport failures and unrecognised errors stop immediately. All failures
// are returned as *PluginError. When every candidate fails the error has
// kind KindExhaustedCandidates and lists the attempted names.
func (r *Resolver) Resolve(ctx context.Context, session Session, domain string) (string, error) {
	candidates := Candidates(domain)
	if candidates[0] == "" {
		return "", &PluginError{Kind: KindUnclassified, Domain: domain, Err: ErrEmptyDomain}
	}

	for _, candidate := range candidates {
		if err := ctx.Err(); err != nil {
			return "", r.fatal(domain, DefaultTranslation(err, candidate))
		}

		session.SetZone(candidate)
		err := session.Authenticate(ctx)
		if err == nil {
			r.observe(OutcomeAuthenticated)
			r.logger.Debug("resolved zone",
				slog.String("domain", domain),
				slog.String("zone", candidate),
			)
			return candidate, nil
		}

		if _, ok := provider.AsAuthenticationError(err); ok {
			r.observe(OutcomeAuthenticationRejected)
			r.logger.Debug("credentials rejected for candidate, trying next",
				slog.String("candidate", candidate),
				slog.String("error", err.Error()),
			)
			continue
		}

		if httpErr, ok := provider.AsHTTPError(err); ok {
			r.observe(OutcomeTransportError)
			return "", r.fatal(domain, ClassifyHTTPError(httpErr, candidate))
		}

		verdict := ClassifyGeneralError(err, candidate)
		if verdict.IsSuppressed() {
			r.observe(OutcomeZoneNotFound)
			r.logger.Debug("candidate is not a zone of the account, trying next",
				slog.String("candidate", candidate),
				slog.String("error", err.Error()),
			)
			continue
		}

		r.observe(OutcomeUnclassified)
		return "", r.fatal(domain, verdict.Err())
	}

	return "", &PluginError{
		Kind:       KindExhaustedCandidates,
		Domain:     domain,
		Candidates: candidates,
	}
}

func (r *Resolver) fatal(domain string, pe *PluginError) *PluginError {
	pe.Domain = domain
	r.logger.Debug("zone resolution failed",
		slog.String("domain", domain),
		slog.String("candidate", pe.Candidate),
		slog.String("kind", pe.Kind.String()),
		slog.String("error", pe.Error()),
	)
	return pe
}

func (r *Resolver) observe(outcome Outcome) {
	if r.observer != nil {
		r.observer.ObserveAttempt(outcome)
	}
}
