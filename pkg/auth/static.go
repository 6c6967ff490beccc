package auth

import (
	"context"
	"maps"
	"strings"
)

// StaticSource provides cookies from a fixed map, such as ones passed on the
// command line or in tests. It can be limited to a set of dataset hosts.
type StaticSource struct {
	cookies map[string]string
	domains []string
}

// NewStaticSource creates a cookie source from a static map. With domains, the
// cookies are offered only for those hosts and their subdomains.
func NewStaticSource(cookies map[string]string, domains ...string) *StaticSource {
	s := &StaticSource{cookies: cookies}
	for _, d := range domains {
		if d = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(d)), "."); d != "" {
			s.domains = append(s.domains, d)
		}
	}
	return s
}

// Cookies returns a copy of the static cookies when domain is in scope.
func (s *StaticSource) Cookies(_ context.Context, domain string) (map[string]string, error) {
	if len(s.cookies) == 0 || !s.covers(domain) {
		return nil, nil //nolint:nilnil // nothing for this host is not an error
	}
	return maps.Clone(s.cookies), nil
}

func (s *StaticSource) covers(domain string) bool {
	if len(s.domains) == 0 {
		return true
	}
	domain = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(domain)), ".")
	for _, d := range s.domains {
		if domain == d || strings.HasSuffix(domain, "."+d) {
			return true
		}
	}
	return false
}
