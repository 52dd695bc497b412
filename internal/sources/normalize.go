package sources

import (
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// UserAgent identifies discovery requests to upstream directories.
const UserAgent = "HireLens-Bot/1.0 (company discovery; +https://github.com/hirelens-labs/hirelens)"

// RegistrableDomain reduces a URL or bare host to its lowercase registrable
// domain ("https://www.acme.co.uk/careers" -> "acme.co.uk"). Hosts the public
// suffix list cannot resolve (intranet names, IPs) pass through trimmed.
// Returns "" when nothing host-like can be extracted.
func RegistrableDomain(raw string) string {
	s := strings.TrimSpace(strings.ToLower(raw))
	if s == "" {
		return ""
	}

	host := s
	if strings.Contains(s, "://") {
		u, err := url.Parse(s)
		if err != nil || u.Hostname() == "" {
			return ""
		}
		host = u.Hostname()
	} else {
		// Bare input may still carry a path or port.
		if i := strings.IndexAny(host, "/?#"); i >= 0 {
			host = host[:i]
		}
		if i := strings.LastIndex(host, ":"); i >= 0 && !strings.Contains(host, "]") {
			host = host[:i]
		}
	}

	host = strings.TrimPrefix(host, "www.")
	host = strings.TrimSuffix(host, ".")
	if host == "" || !strings.Contains(host, ".") {
		return ""
	}

	registrable, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		registrable = host
	}
	return registrable
}
