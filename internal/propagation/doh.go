package propagation

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/likexian/doh"
	dohdns "github.com/likexian/doh/dns"
)

// dohProviders maps configuration names to positions in doh.Providers.
var dohProviders = map[string]int{
	"cloudflare": 0,
	"dnspod":     1,
	"google":     2,
	"quad9":      3,
}

// typeTXT is the TXT RR type code in DoH JSON answers.
const typeTXT = 16

// providerIndexes resolves provider names to doh.Providers positions.
// No names selects cloudflare.
func providerIndexes(names []string) ([]int, error) {
	idx := make([]int, 0, len(names))
	for _, name := range names {
		i, ok := dohProviders[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return nil, fmt.Errorf("unknown DoH provider: %q", name)
		}
		idx = append(idx, i)
	}
	if len(idx) == 0 {
		idx = append(idx, dohProviders["cloudflare"])
	}
	return idx, nil
}

// DoHLookup returns a LookupFunc resolving TXT records over DNS-over-HTTPS.
func DoHLookup(providers []string) (LookupFunc, error) {
	idx, err := providerIndexes(providers)
	if err != nil {
		return nil, err
	}

	ids := doh.Providers[:0:0]
	for _, i := range idx {
		ids = append(ids, doh.Providers[i])
	}

	return func(ctx context.Context, fqdn string) ([]string, error) {
		c := doh.Use(ids...)
		defer c.Close()

		resp, err := c.Query(ctx, dohdns.Domain(strings.TrimSuffix(fqdn, ".")), dohdns.TypeTXT)
		if err != nil {
			return nil, fmt.Errorf("DoH query for %s: %w", fqdn, err)
		}

		var values []string
		for _, a := range resp.Answer {
			if a.Type == typeTXT {
				values = append(values, unquoteTXT(a.Data))
			}
		}
		return values, nil
	}, nil
}

// unquoteTXT turns the presentation form of TXT data ("\"a\" \"b\"") into
// the concatenated value.
func unquoteTXT(data string) string {
	data = strings.TrimSpace(data)
	if !strings.HasPrefix(data, `"`) {
		return data
	}

	var b strings.Builder
	rest := data
	for rest != "" {
		rest = strings.TrimSpace(rest)
		if rest == "" {
			break
		}
		prefix, err := strconv.QuotedPrefix(rest)
		if err != nil {
			return strings.Trim(data, `"`)
		}
		s, err := strconv.Unquote(prefix)
		if err != nil {
			return strings.Trim(data, `"`)
		}
		b.WriteString(s)
		rest = rest[len(prefix):]
	}
	return b.String()
}
