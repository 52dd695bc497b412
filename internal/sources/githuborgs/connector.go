package githuborgs

import (
	"context"
	"fmt"
	"strings"
	"sync"

	gh "github.com/google/go-github/v80/github"

	"github.com/hirelens-labs/hirelens/internal/core/domain"
	"github.com/hirelens-labs/hirelens/internal/core/ports/driven"
	"github.com/hirelens-labs/hirelens/internal/logger"
	"github.com/hirelens-labs/hirelens/internal/sources"
)

const (
	// SourceID is the source type identifier.
	SourceID = "githuborgs"

	// Confidence is the trust level for GitHub organisation records. Org
	// profiles are self-reported and often stale, so it sits low.
	Confidence = 0.6

	// tokenKey is the config key holding the GitHub access token.
	tokenKey = "sources.githuborgs.token"

	// queryKey optionally overrides the organisation search query.
	queryKey = "sources.githuborgs.query"

	// DefaultQuery finds organisations that describe themselves as startups.
	DefaultQuery = "startup"

	// DefaultMaxOrgs caps profile fetches per run. Each org costs one API
	// call on top of the search, all paced by the rate gate.
	DefaultMaxOrgs = 50
)

// Ensure Source implements the interface.
var _ driven.CompanySource = (*Source)(nil)

// Source discovers companies from GitHub organisation profiles.
type Source struct {
	config driven.ConfigStore

	mu     sync.Mutex
	client *Client
	token  string
}

// New creates a GitHub organisation source.
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
		Name:        "GitHub Organisations",
		Description: "Companies behind GitHub organisations matching a search query",
		Confidence:  Confidence,
		ConfigKeys: []domain.ConfigKey{
			{
				Key:         "token",
				Label:       "Access token",
				Description: "GitHub personal access token (no scopes needed)",
				Required:    true,
				Secret:      true,
			},
			{
				Key:         "query",
				Label:       "Search query",
				Description: "Organisation search terms",
				Default:     DefaultQuery,
			},
		},
	}
}

// Capabilities returns what this source supports.
func (s *Source) Capabilities() driven.SourceCapabilities {
	return driven.SourceCapabilities{
		RequiresCredentials:  true,
		SupportsPagination:   true,
		SupportsRateLimiting: true,
	}
}

// Validate checks the token is configured. No network call: a revoked
// token surfaces at discovery time.
func (s *Source) Validate(_ context.Context) error {
	if s.config.GetString(tokenKey) == "" {
		return fmt.Errorf("%w: set %s", domain.ErrMissingCredentials, tokenKey)
	}
	return nil
}

// Discover searches GitHub organisations and normalises the ones whose
// profile links out to a company site.
func (s *Source) Discover(ctx context.Context) ([]domain.DiscoveredCompany, error) {
	client, err := s.ensureClient(ctx)
	if err != nil {
		return nil, err
	}

	query := s.config.GetString(queryKey)
	if query == "" {
		query = DefaultQuery
	}

	orgs, err := client.SearchOrgs(ctx, query, DefaultMaxOrgs)
	if err != nil {
		return nil, err
	}

	companies := make([]domain.DiscoveredCompany, 0, len(orgs))
	for _, org := range orgs {
		company, ok := normalizeOrg(org)
		if !ok {
			logger.Debug("GitHub org %q has no usable profile link, skipping", org.GetLogin())
			continue
		}
		companies = append(companies, company)
	}
	return companies, nil
}

// ensureClient builds the client lazily, picking up token rotation
// between runs.
func (s *Source) ensureClient(ctx context.Context) (*Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	token := s.config.GetString(tokenKey)
	if token == "" {
		return nil, fmt.Errorf("%w: set %s", domain.ErrMissingCredentials, tokenKey)
	}

	if s.client == nil || token != s.token {
		s.client = NewClient(ctx, token)
		s.token = token
	}
	return s.client, nil
}

// normalizeOrg converts a GitHub organisation into a DiscoveredCompany.
// Returns false when the profile has no link a registrable domain can be
// derived from.
func normalizeOrg(org *gh.Organization) (domain.DiscoveredCompany, bool) {
	blog := strings.TrimSpace(org.GetBlog())
	dom := sources.RegistrableDomain(blog)
	if dom == "" {
		return domain.DiscoveredCompany{}, false
	}

	website := blog
	if !strings.Contains(website, "://") {
		website = "https://" + website
	}

	name := strings.TrimSpace(org.GetName())
	if name == "" {
		name = org.GetLogin()
	}

	return domain.DiscoveredCompany{
		Name:        name,
		Domain:      dom,
		Website:     website,
		Description: strings.TrimSpace(org.GetDescription()),
		Source:      SourceID,
		Confidence:  Confidence,
	}, true
}
