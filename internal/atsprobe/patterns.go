// Package atsprobe implements the careers-page probing machinery: vendor
// identifier extraction, the rate-limited page fetcher, and the public
// board-API prober used by the registry harvest.
package atsprobe

import (
	"regexp"

	"github.com/hirelens-labs/hirelens/internal/core/domain"
)

// vendorPattern pairs an ATS vendor with the regexes that reveal its board
// identifier inside careers-page HTML. Patterns match both embed scripts
// and plain links, so server-rendered and JS-embedded boards are caught.
type vendorPattern struct {
	vendor   domain.AtsVendor
	patterns []*regexp.Regexp
}

// Identifier charset is deliberately narrow: vendors use URL-safe slugs.
var vendorPatterns = []vendorPattern{
	{
		vendor: domain.VendorLever,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`jobs\.lever\.co/([A-Za-z0-9_-]+)`),
			regexp.MustCompile(`lever\.co/v0/postings/([A-Za-z0-9_-]+)`),
		},
	},
	{
		vendor: domain.VendorGreenhouse,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`boards\.greenhouse\.io/(?:embed/job_board\?for=)?([A-Za-z0-9_-]+)`),
			regexp.MustCompile(`job-boards\.greenhouse\.io/([A-Za-z0-9_-]+)`),
			regexp.MustCompile(`greenhouse\.io/embed/job_board/js\?for=([A-Za-z0-9_-]+)`),
		},
	},
	{
		vendor: domain.VendorAshby,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`jobs\.ashbyhq\.com/([A-Za-z0-9_-]+)`),
			regexp.MustCompile(`api\.ashbyhq\.com/posting-api/job-board/([A-Za-z0-9_-]+)`),
		},
	},
	{
		vendor: domain.VendorWorkable,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`apply\.workable\.com/(?:api/v[0-9]/accounts/)?([A-Za-z0-9_-]+)`),
			regexp.MustCompile(`([A-Za-z0-9_-]+)\.workable\.com`),
		},
	},
	{
		vendor: domain.VendorRecruitee,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`([A-Za-z0-9_-]+)\.recruitee\.com`),
			regexp.MustCompile(`recruitee\.com/api/c/([A-Za-z0-9_-]+)`),
		},
	},
}

// Subdomain and path captures that are never board identifiers.
var identifierStoplist = map[string]bool{
	"www":     true,
	"jobs":    true,
	"careers": true,
	"embed":   true,
	"api":     true,
	"apply":   true,
	"docs":    true,
	"help":    true,
	"status":  true,
}

// ExtractIdentifiers scans raw careers-page HTML for ATS board identifiers.
// Returns one identifier per vendor; the first non-stoplisted match per
// vendor wins, so a marketing link to the vendor homepage never shadows the
// real board. The map is empty (never nil) when nothing matches.
func ExtractIdentifiers(body []byte) map[domain.AtsVendor]string {
	found := make(map[domain.AtsVendor]string)
	for _, vp := range vendorPatterns {
		for _, pattern := range vp.patterns {
			id := firstUsableMatch(pattern, body)
			if id == "" {
				continue
			}
			found[vp.vendor] = id
			break
		}
	}
	return found
}

// firstUsableMatch returns the first capture of pattern in body that isn't
// stoplisted, or "".
func firstUsableMatch(pattern *regexp.Regexp, body []byte) string {
	for _, match := range pattern.FindAllSubmatch(body, -1) {
		id := string(match[1])
		if !identifierStoplist[id] {
			return id
		}
	}
	return ""
}
