package zone

import (
	"fmt"
	"strings"

	"gitlab.bluewillows.net/root/dinadns/pkg/provider"
)

// CredentialsHint is appended to transport errors caused by 401-class responses.
const CredentialsHint = "Are your username and password correct?"

// Kind is the failure taxonomy of zone resolution and record mutation.
type Kind int

const (
	// KindZoneNotFound means the guess is not a zone of the account. Suppressed.
	KindZoneNotFound Kind = iota + 1
	// KindAuthenticationRejected means the account rejected the credentials
	// for this guess. Suppressed like KindZoneNotFound.
	KindAuthenticationRejected
	// KindTransport is an HTTP status or connection failure. Fatal.
	KindTransport
	// KindUnclassified is any other failure. Fatal.
	KindUnclassified
	// KindExhaustedCandidates means no guess authenticated. Fatal.
	KindExhaustedCandidates
	// KindRecordOperation is a failed TXT create or delete after resolution.
	KindRecordOperation
)

// String returns the snake_case name used in logs and metric labels.
func (k Kind) String() string {
	switch k {
	case KindZoneNotFound:
		return "zone_not_found"
	case KindAuthenticationRejected:
		return "authentication_rejected"
	case KindTransport:
		return "transport_error"
	case KindUnclassified:
		return "unclassified_error"
	case KindExhaustedCandidates:
		return "exhausted_candidates"
	case KindRecordOperation:
		return "record_operation_error"
	default:
		return "unknown"
	}
}

// Fatal reports whether a failure of this kind stops resolution.
func (k Kind) Fatal() bool {
	return k != KindZoneNotFound && k != KindAuthenticationRejected
}

// PluginError is the single error type surfaced to callers of the resolver and
// the challenge authenticator. Error returns the user-facing message.
type PluginError struct {
	Kind Kind

	// Domain is the name resolution was started for.
	Domain string

	// Candidate is the guess being tried when the failure happened.
	Candidate string

	// Candidates lists every attempted guess (KindExhaustedCandidates).
	Candidates []string

	// Hint is a corrective suggestion, e.g. CredentialsHint.
	Hint string

	// Op names the record operation that failed ("adding", "deleting").
	Op string

	Err error
}

func (e *PluginError) Error() string {
	switch e.Kind {
	case KindTransport:
		msg := fmt.Sprintf("Error determining zone identifier for %s: %v.", e.Candidate, e.Err)
		if e.Hint != "" {
			msg += " (" + e.Hint + ")"
		}
		return msg
	case KindExhaustedCandidates:
		return fmt.Sprintf("Unable to determine zone identifier for %s using zone names: %s",
			e.Domain, strings.Join(e.Candidates, ", "))
	case KindRecordOperation:
		return fmt.Sprintf("Error %s TXT record: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("Unexpected error determining zone identifier for %s: %v", e.Candidate, e.Err)
	}
}

func (e *PluginError) Unwrap() error {
	return e.Err
}

// Classification is the verdict on a general authentication failure: either
// the failure is suppressed and resolution moves on, or it is translated into
// a fatal *PluginError.
type Classification struct {
	err *PluginError
}

// Suppressed returns the "try the next candidate" verdict.
func Suppressed() Classification {
	return Classification{}
}

// Translated returns the fatal verdict carrying err. A nil err is replaced by
// a generic unclassified error so the verdict stays fatal.
func Translated(err *PluginError) Classification {
	if err == nil {
		err = &PluginError{Kind: KindUnclassified, Err: fmt.Errorf("unknown failure")}
	}
	return Classification{err: err}
}

// IsSuppressed reports whether resolution should continue.
func (c Classification) IsSuppressed() bool {
	return c.err == nil
}

// Err returns the translated error, or nil when suppressed.
func (c Classification) Err() *PluginError {
	return c.err
}

// ClassifyHTTPError translates a transport failure on candidate. It never
// suppresses: outages and rate limiting must not read as wrong guesses.
func ClassifyHTTPError(err *provider.HTTPError, candidate string) *PluginError {
	pe := &PluginError{
		Kind:      KindTransport,
		Candidate: candidate,
		Err:       err,
	}
	if err != nil && (err.IsUnauthorized() || strings.HasPrefix(err.Error(), "401")) {
		pe.Hint = CredentialsHint
	}
	return pe
}

// ClassifyGeneralError decides whether err means "candidate is not a zone of
// this account". That is the case when the text names the candidate and ends
// in "not found". Anything else is translated with DefaultTranslation.
func ClassifyGeneralError(err error, candidate string) Classification {
	if err == nil {
		return Suppressed()
	}

	msg := err.Error()
	if candidate != "" && strings.Contains(msg, candidate) && strings.HasSuffix(msg, "not found") {
		return Suppressed()
	}

	return Translated(DefaultTranslation(err, candidate))
}

// DefaultTranslation wraps err as an unclassified failure on candidate.
func DefaultTranslation(err error, candidate string) *PluginError {
	return &PluginError{
		Kind:      KindUnclassified,
		Candidate: candidate,
		Err:       err,
	}
}
