// Package provider defines the contract that DNS provider adapters must implement
// to take part in dns-01 challenge fulfilment.
package provider

import (
	"context"
	"strings"
)

// RecordType represents the type of DNS record.
type RecordType string

const (
	RecordTypeTXT RecordType = "TXT"
)

// ChallengeLabel is the leftmost label of every dns-01 validation record.
const ChallengeLabel = "_acme-challenge"

// Record represents a DNS record to be managed.
type Record struct {
	Zone     string
	Hostname string // Fully qualified, without trailing dot
	Type     RecordType
	Value    string
	TTL      int // 0 means provider default
}

// API is a stateful adapter bound to one zone at a time.
//
// The zone binding is a session: SetZone replaces it and drops any previous
// authentication, so a record mutation is only accepted after Authenticate
// succeeded for the zone it targets. Adapters are not safe for concurrent use;
// build one per challenge.
type API interface {
	// Name returns the provider type (e.g., "dinahosting").
	Name() string

	// SetZone binds the session to zone. No network call is made.
	SetZone(zone string)

	// Zone returns the currently bound zone, or "" when unbound.
	Zone() string

	// Authenticate confirms the bound zone is owned by the account.
	// It fails with *AuthenticationError when the account rejects the
	// credentials, with *HTTPError on transport or status failures, and with
	// a general error otherwise (e.g., "Domain example.com not found").
	Authenticate(ctx context.Context) error

	// AddTXTRecord creates a TXT record in an authenticated zone.
	AddTXTRecord(ctx context.Context, zone, recordName, value string) error

	// DeleteTXTRecord removes a TXT record from an authenticated zone.
	// Returns an error wrapping ErrNotFound when the record does not exist.
	DeleteTXTRecord(ctx context.Context, zone, recordName, value string) error
}

// TXTRecord builds the Record for a validation TXT entry.
func TXTRecord(zone, recordName, value string, ttl int) Record {
	return Record{
		Zone:     zone,
		Hostname: strings.TrimSuffix(strings.ToLower(recordName), "."),
		Type:     RecordTypeTXT,
		Value:    value,
		TTL:      ttl,
	}
}

// ValidationName returns the dns-01 record name for domain.
// Example: "app.example.com" -> "_acme-challenge.app.example.com"
func ValidationName(domain string) string {
	domain = strings.TrimPrefix(strings.TrimSuffix(domain, "."), "*.")
	return ChallengeLabel + "." + domain
}

// RelativeName returns hostname relative to zone, or "@" for the zone apex.
// Names outside zone are returned unchanged.
// Example: ("_acme-challenge.app.example.com", "example.com") -> "_acme-challenge.app"
func RelativeName(hostname, zone string) string {
	hostname = strings.TrimSuffix(strings.ToLower(hostname), ".")
	zone = strings.TrimSuffix(strings.ToLower(zone), ".")

	if hostname == zone {
		return "@"
	}
	if strings.HasSuffix(hostname, "."+zone) {
		return strings.TrimSuffix(hostname, "."+zone)
	}
	return hostname
}
