package fundingdb

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/hirelens-labs/hirelens/internal/core/domain"
	"github.com/hirelens-labs/hirelens/internal/core/ports/driven"
	"github.com/hirelens-labs/hirelens/internal/logger"
	"github.com/hirelens-labs/hirelens/internal/sources"
)

const (
	// SourceID is the source type identifier.
	SourceID = "fundingdb"

	// Confidence is the trust level for funding database records. Rounds
	// are verified by the database editors before publication.
	Confidence = 0.9

	// apiKeyKey is the config key holding the API key.
	apiKeyKey = "sources.fundingdb.api_key"

	// baseURLKey optionally points the source at a different endpoint.
	baseURLKey = "sources.fundingdb.base_url"
)

// Ensure Source implements the interface.
var _ driven.CompanySource = (*Source)(nil)

// Source discovers recently funded companies from the funding database.
type Source struct {
	config driven.ConfigStore

	mu      sync.Mutex
	client  *Client
	baseURL string
	apiKey  string
}

// New creates a funding database source.
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
		Name:        "Funding Database",
		Description: "Companies with recently announced funding rounds",
		Confidence:  Confidence,
		ConfigKeys: []domain.ConfigKey{
			{
				Key:         "api_key",
				Label:       "API key",
				Description: "Funding database API key",
				Required:    true,
				Secret:      true,
			},
			{
				Key:         "base_url",
				Label:       "API base URL",
				Description: "Database endpoint, defaults to the public API",
				Default:     DefaultBaseURL,
			},
		},
	}
}

// Capabilities returns what this source supports.
func (s *Source) Capabilities() driven.SourceCapabilities {
	return driven.SourceCapabilities{
		RequiresCredentials: true,
		SupportsPagination:  true,
	}
}

// Validate checks the API key is configured. No network call: a bad key
// surfaces at discovery time.
func (s *Source) Validate(_ context.Context) error {
	if s.config.GetString(apiKeyKey) == "" {
		return fmt.Errorf("%w: set %s", domain.ErrMissingCredentials, apiKeyKey)
	}
	return nil
}

// Discover fetches recent funding rounds and normalises the companies
// behind them.
func (s *Source) Discover(ctx context.Context) ([]domain.DiscoveredCompany, error) {
	client, err := s.ensureClient()
	if err != nil {
		return nil, err
	}

	rounds, err := client.RecentRounds(ctx)
	if err != nil {
		return nil, err
	}

	companies := make([]domain.DiscoveredCompany, 0, len(rounds))
	for _, round := range rounds {
		company, ok := normalizeRound(round)
		if !ok {
			logger.Debug("Funding round for %q has no usable homepage, skipping", round.Company.Name)
			continue
		}
		companies = append(companies, company)
	}
	return companies, nil
}

// ensureClient builds the client lazily, picking up key and base URL
// changes between runs.
func (s *Source) ensureClient() (*Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := s.config.GetString(apiKeyKey)
	if key == "" {
		return nil, fmt.Errorf("%w: set %s", domain.ErrMissingCredentials, apiKeyKey)
	}

	base := s.config.GetString(baseURLKey)
	if s.client == nil || base != s.baseURL || key != s.apiKey {
		s.client = NewClient(base, key)
		s.baseURL = base
		s.apiKey = key
	}
	return s.client, nil
}

// normalizeRound converts a funding round into a DiscoveredCompany.
// Returns false when no registrable domain can be derived.
func normalizeRound(round fundingRound) (domain.DiscoveredCompany, bool) {
	dom := sources.RegistrableDomain(round.Company.Homepage)
	if dom == "" {
		return domain.DiscoveredCompany{}, false
	}

	return domain.DiscoveredCompany{
		Name:          strings.TrimSpace(round.Company.Name),
		Domain:        dom,
		Website:       round.Company.Homepage,
		Description:   round.Company.Summary,
		Industry:      round.Company.Sector,
		FundingStage:  domain.FundingStage(strings.ToLower(strings.TrimSpace(round.Stage))),
		EmployeeCount: round.Company.Employees,
		FoundedYear:   round.Company.Founded,
		Source:        SourceID,
		Confidence:    Confidence,
	}, true
}
