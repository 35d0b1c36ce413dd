package propagation

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/miekg/dns"
)

// resolvConf is read when no nameservers are configured.
var resolvConf = "/etc/resolv.conf"

// DNSLookup returns a LookupFunc querying every nameserver over UDP. A value
// only counts once all nameservers serve it, so the result is the
// intersection of their answers. Nameservers without a port use 53.
// queryTimeout bounds each individual query.
func DNSLookup(nameservers []string, queryTimeout time.Duration) (LookupFunc, error) {
	if len(nameservers) == 0 {
		conf, err := dns.ClientConfigFromFile(resolvConf)
		if err != nil {
			return nil, fmt.Errorf("no nameservers configured and reading %s failed: %w", resolvConf, err)
		}
		for _, s := range conf.Servers {
			nameservers = append(nameservers, net.JoinHostPort(s, conf.Port))
		}
	}
	if len(nameservers) == 0 {
		return nil, errors.New("no nameservers available for propagation checks")
	}

	servers := make([]string, 0, len(nameservers))
	for _, ns := range nameservers {
		servers = append(servers, withPort(ns))
	}

	client := &dns.Client{Net: "udp", Timeout: queryTimeout}

	return func(ctx context.Context, fqdn string) ([]string, error) {
		var common []string
		for i, server := range servers {
			values, err := queryTXT(ctx, client, server, fqdn)
			if err != nil {
				return nil, err
			}
			if i == 0 {
				common = values
				continue
			}
			common = intersect(common, values)
		}
		return common, nil
	}, nil
}

func queryTXT(ctx context.Context, client *dns.Client, server, fqdn string) ([]string, error) {
	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(fqdn), dns.TypeTXT)
	msg.RecursionDesired = true

	resp, _, err := client.ExchangeContext(ctx, msg, server)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", server, err)
	}

	switch resp.Rcode {
	case dns.RcodeSuccess:
	case dns.RcodeNameError:
		return nil, nil
	default:
		return nil, fmt.Errorf("querying %s: server returned %s", server, dns.RcodeToString[resp.Rcode])
	}

	var values []string
	for _, rr := range resp.Answer {
		if txt, ok := rr.(*dns.TXT); ok {
			values = append(values, strings.Join(txt.Txt, ""))
		}
	}
	return values, nil
}

func withPort(server string) string {
	if _, _, err := net.SplitHostPort(server); err == nil {
		return server
	}
	return net.JoinHostPort(server, "53")
}

func intersect(a, b []string) []string {
	var out []string
	for _, v := range a {
		for _, w := range b {
			if v == w {
				out = append(out, v)
				break
			}
		}
	}
	return out
}
