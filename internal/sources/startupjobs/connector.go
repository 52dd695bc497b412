package startupjobs

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
	SourceID = "startupjobs"

	// Confidence is the trust level for jobs board profiles. Employer
	// profiles are loosely moderated, so this ranks below directories.
	Confidence = 0.75

	// baseURLKey optionally points the source at a different endpoint.
	baseURLKey = "sources.startupjobs.base_url"
)

// Ensure Source implements the interface.
var _ driven.CompanySource = (*Source)(nil)

// Source discovers employers with live postings on the startup jobs board.
// Companies listed there are hiring by definition, which is exactly the
// population this pipeline wants.
type Source struct {
	config driven.ConfigStore

	mu      sync.Mutex
	client  *Client
	baseURL string
}

// New creates a startup jobs board source.
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
		Name:        "Startup Jobs Board",
		Description: "Employers with live postings on the startup jobs board",
		Confidence:  Confidence,
		ConfigKeys: []domain.ConfigKey{
			{
				Key:         "base_url",
				Label:       "API base URL",
				Description: "Jobs board endpoint, defaults to the public API",
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

// Validate always passes: the board is public.
func (s *Source) Validate(_ context.Context) error {
	return nil
}

// Discover fetches hiring employers and normalises them. Profiles without
// live postings are stale board entries and are skipped.
func (s *Source) Discover(ctx context.Context) ([]domain.DiscoveredCompany, error) {
	entries, err := s.ensureClient().HiringCompanies(ctx)
	if err != nil {
		return nil, err
	}

	companies := make([]domain.DiscoveredCompany, 0, len(entries))
	for _, entry := range entries {
		if entry.OpenRoles <= 0 {
			logger.Debug("Jobs board profile %q has no open roles, skipping", entry.Name)
			continue
		}
		company, ok := normalizeProfile(entry)
		if !ok {
			logger.Debug("Jobs board profile %q has no usable URL, skipping", entry.Name)
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

// normalizeProfile converts an employer profile into a DiscoveredCompany.
// Returns false when no registrable domain can be derived.
func normalizeProfile(entry hiringCompany) (domain.DiscoveredCompany, bool) {
	dom := sources.RegistrableDomain(entry.URL)
	if dom == "" {
		return domain.DiscoveredCompany{}, false
	}

	return domain.DiscoveredCompany{
		Name:        strings.TrimSpace(entry.Name),
		Domain:      dom,
		Website:     entry.URL,
		Description: entry.Description,
		Industry:    entry.Sector,
		Source:      SourceID,
		Confidence:  Confidence,
	}, true
}
