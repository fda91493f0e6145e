package talkers

import (
	"fmt"
	"net/netip"
	"strings"
)

// Prefixes holds the CIDR filters applied to each parsed flow.
type Prefixes struct {
	// IncludeBoth: when non-empty, BOTH endpoints must match one of
	// these prefixes.
	IncludeBoth []netip.Prefix
	// IncludeEither: when non-empty, at least one endpoint must match.
	IncludeEither []netip.Prefix
	// ExcludeAny: a flow is dropped if EITHER endpoint matches.
	ExcludeAny []netip.Prefix
}

// ParsePrefixList parses CIDR strings, accepting bare addresses as /32.
// Prefixes are normalized to their masked form, so "10.0.0.5/24" means
// 10.0.0.0/24.
func ParsePrefixList(items []string) ([]netip.Prefix, error) {
	var out []netip.Prefix
	for _, item := range items {
		s := strings.TrimSpace(item)
		if s == "" {
			continue
		}
		if !strings.Contains(s, "/") {
			s += "/32"
		}
		p, err := netip.ParsePrefix(s)
		if err != nil {
			return nil, fmt.Errorf("invalid CIDR %q: %w", item, err)
		}
		out = append(out, p.Masked())
	}
	return out, nil
}

// Allowed reports whether a flow between a and b passes the filters.
func (p Prefixes) Allowed(a, b netip.Addr) bool {
	if len(p.ExcludeAny) > 0 && (matchesAny(a, p.ExcludeAny) || matchesAny(b, p.ExcludeAny)) {
		return false
	}
	if len(p.IncludeBoth) > 0 && !(matchesAny(a, p.IncludeBoth) && matchesAny(b, p.IncludeBoth)) {
		return false
	}
	if len(p.IncludeEither) > 0 && !(matchesAny(a, p.IncludeEither) || matchesAny(b, p.IncludeEither)) {
		return false
	}
	return true
}

func matchesAny(addr netip.Addr, prefixes []netip.Prefix) bool {
	for _, p := range prefixes {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}
