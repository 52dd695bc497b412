package launchdirectory

import (
	"context"
	"strings"
	"sync"

	"github.com/hirelens-labs/hirelens/internal/core/domain"
	"github.com/hirelens-labs/hirelens/internal/core/ports/driven"
	"github.com/hirelens-labs/hirelens/internal/logger"
	"github.com/hirelens-labs/hirelens/internal/sources"
)

const (
	// SourceID is the source type identifier.
	SourceID = "launchdirectory"

	// Confidence is the trust level for directory records. Listings are
	// self-reported by founders, so this ranks below curated databases.
	Confidence = 0.8

	// baseURLKey optionally points the source at a directory mirror.
	baseURLKey = "sources.launchdirectory.base_url"
)

// Ensure Source implements the interface.
var _ driven.CompanySource = (*Source)(nil)

// Source discovers recently launched companies from the LaunchDirectory API.
type Source struct {
	config driven.ConfigStore

	mu      sync.Mutex
	client  *Client
	baseURL string
}

// New creates a launch directory source.
func New(config driven.ConfigStore) *Source {
	return &Source{config: config}
}

// ID returns the source type identifier.
func (s *Source) ID() string {
	return SourceID
}

// Spec returns the source descriptor.
func (s *Source) Spec() domain.SourceSpec {
	return domain.SourceSpec{
		ID:          SourceID,
		Name:        "Launch Directory",
		Description: "Recently launched startups from the public launch directory",
		Confidence:  Confidence,
		ConfigKeys: []domain.ConfigKey{
			{
				Key:         "base_url",
				Label:       "API base URL",
				Description: "Directory endpoint, defaults to the public API",
				Default:     DefaultBaseURL,
			},
		},
	}
}

// Capabilities returns what this source supports.
func (s *Source) Capabilities() driven.SourceCapabilities {
	return driven.SourceCapabilities{
		SupportsPagination: true,
	}
}

// Validate always passes: the directory is public and the base URL has a
// default. Reachability problems surface at discovery time as zero results.
func (s *Source) Validate(_ context.Context) error {
	return nil
}

// Discover fetches recent launches and normalises them.
func (s *Source) Discover(ctx context.Context) ([]domain.DiscoveredCompany, error) {
	entries, err := s.ensureClient().RecentLaunches(ctx)
	if err != nil {
		return nil, err
	}

	companies := make([]domain.DiscoveredCompany, 0, len(entries))
	for _, entry := range entries {
		company, ok := normalizeEntry(entry)
		if !ok {
			logger.Debug("Launch listing %q has no usable website, skipping", entry.CompanyName)
			continue
		}
		companies = append(companies, company)
	}
	return companies, nil
}

// ensureClient builds the client lazily so base URL changes in config are
// picked up between runs.
func (s *Source) ensureClient() *Client {
	s.mu.Lock()
	defer s.mu.Unlock()

	base := s.config.GetString(baseURLKey)
	if s.client == nil || base != s.baseURL {
		s.client = NewClient(base)
		s.baseURL = base
	}
	return s.client
}

// normalizeEntry converts a directory listing into a DiscoveredCompany.
// Returns false when no registrable domain can be derived.
func normalizeEntry(entry launchEntry) (domain.DiscoveredCompany, bool) {
	dom := sources.RegistrableDomain(entry.Website)
	if dom == "" {
		return domain.DiscoveredCompany{}, false
	}

	return domain.DiscoveredCompany{
		Name:          strings.TrimSpace(entry.CompanyName),
		Domain:        dom,
		Website:       entry.Website,
		Description:   entry.Tagline,
		Industry:      entry.Category,
		EmployeeCount: entry.TeamSize,
		FoundedYear:   entry.LaunchYear,
		Source:        SourceID,
		Confidence:    Confidence,
	}, true
}
