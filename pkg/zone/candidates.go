// Package zone works out which provider zone is authoritative for a hostname.
//
// Resolution walks an ordered list of apex-domain guesses, most specific first,
// binding a provider session to each guess and asking the provider to
// authenticate it. The first guess the account owns wins. Failures are
// classified per guess: "not found" shaped errors and rejected credentials move
// on to the next guess, everything else stops resolution with a *PluginError.
package zone

import (
	"strings"

	"github.com/miekg/dns"
	"golang.org/x/net/publicsuffix"
)

// Normalize lower-cases name and strips surrounding whitespace, a leading
// wildcard label and the trailing root dot.
func Normalize(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.TrimPrefix(name, "*.")
	return strings.TrimSuffix(name, ".")
}

// Candidates returns the zone guesses for domain, most specific first.
//
// The list always ends at the registrable domain (public suffix plus one
// label), so "a.b.example.co.uk" yields "a.b.example.co.uk",
// "b.example.co.uk" and "example.co.uk". When domain has no registrable part
// (a bare public suffix or a single label) the list holds the normalized
// domain alone. The result is never empty.
func Candidates(domain string) []string {
	name := Normalize(domain)

	base, err := publicsuffix.EffectiveTLDPlusOne(name)
	if err != nil {
		return []string{name}
	}

	labels := dns.SplitDomainName(name)
	candidates := make([]string, 0, len(labels))
	for i := range labels {
		candidate := strings.Join(labels[i:], ".")
		candidates = append(candidates, candidate)
		if candidate == base {
			break
		}
	}

	if len(candidates) == 0 || candidates[len(candidates)-1] != base {
		// SplitDomainName disagreed with the suffix list (e.g. escaped dots).
		return []string{name}
	}

	return candidates
}

// Contains reports whether name lies inside zone (or is its apex).
func Contains(zone, name string) bool {
	zone = Normalize(zone)
	if zone == "" {
		return false
	}
	return dns.IsSubDomain(dns.Fqdn(zone), dns.Fqdn(Normalize(name)))
}
