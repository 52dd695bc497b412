package atsprobe

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/hirelens-labs/hirelens/internal/core/domain"
	"github.com/hirelens-labs/hirelens/internal/core/ports/driven"
)

// Corporate suffixes stripped from company names before slug derivation.
// Brand words like "labs" are deliberately absent.
var nameSuffixes = map[string]bool{
	"inc":  true,
	"llc":  true,
	"ltd":  true,
	"co":   true,
	"corp": true,
	"gmbh": true,
	"ag":   true,
}

// SlugCandidates derives likely board slugs for a company, most likely
// first. The domain stem leads because vendors default board slugs to it;
// name-derived variants follow.
func SlugCandidates(name, dom string) []string {
	var candidates []string
	seen := make(map[string]bool)
	add := func(slug string) {
		slug = strings.ToLower(strings.TrimSpace(slug))
		if slug == "" || len(slug) < 2 || seen[slug] {
			return
		}
		seen[slug] = true
		candidates = append(candidates, slug)
	}

	// Domain stem: "acme" from "acme.com".
	if i := strings.Index(dom, "."); i > 0 {
		add(dom[:i])
	}

	// Name variants with corporate suffixes stripped.
	words := splitWords(name)
	for len(words) > 1 && nameSuffixes[words[len(words)-1]] {
		words = words[:len(words)-1]
	}
	if len(words) > 0 {
		add(strings.Join(words, ""))
		add(strings.Join(words, "-"))
		add(words[0])
	}

	return candidates
}

// splitWords lowercases and splits a company name into alphanumeric words.
func splitWords(name string) []string {
	var words []string
	var current strings.Builder
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			current.WriteRune(r)
			continue
		}
		if current.Len() > 0 {
			words = append(words, current.String())
			current.Reset()
		}
	}
	if current.Len() > 0 {
		words = append(words, current.String())
	}
	return words
}

// Ensure BoardProber implements the interface.
var _ driven.BoardProber = (*VendorBoardProber)(nil)

// VendorBoardProber checks slug existence against ATS vendor public APIs.
// Only vendors with unauthenticated board endpoints are probed.
type VendorBoardProber struct {
	client  *http.Client
	tracker *RateTracker
}

// NewVendorBoardProber creates a prober sharing the probe rate tracker.
func NewVendorBoardProber(tracker *RateTracker) *VendorBoardProber {
	return &VendorBoardProber{
		client:  &http.Client{Timeout: ProbeTimeout},
		tracker: tracker,
	}
}

// boardURL returns the public board endpoint for a vendor and slug,
// or "" for vendors without one.
func boardURL(vendor domain.AtsVendor, slug string) string {
	switch vendor {
	case domain.VendorGreenhouse:
		return "https://boards-api.greenhouse.io/v1/boards/" + slug
	case domain.VendorLever:
		return "https://api.lever.co/v0/postings/" + slug + "?limit=1"
	default:
		return ""
	}
}

// ProbeBoard reports whether the vendor hosts a public board under slug.
// A 404 is a definitive no; other non-2xx statuses are errors so callers
// don't mistake outages for absence.
func (p *VendorBoardProber) ProbeBoard(ctx context.Context, vendor domain.AtsVendor, slug string) (bool, error) {
	url := boardURL(vendor, slug)
	if url == "" {
		return false, fmt.Errorf("vendor %s: %w", vendor, domain.ErrUnsupportedType)
	}

	if err := p.tracker.Wait(ctx); err != nil {
		return false, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("probe board %s/%s: %w", vendor, slug, err)
	}
	defer resp.Body.Close()

	p.tracker.UpdateFromResponse(resp)

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode <= 299:
		return true, nil
	case resp.StatusCode == http.StatusNotFound:
		return false, nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return false, fmt.Errorf("probe board %s/%s: %w", vendor, slug, domain.ErrRateLimited)
	default:
		return false, fmt.Errorf("probe board %s/%s: unexpected status %d", vendor, slug, resp.StatusCode)
	}
}
