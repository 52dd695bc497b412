package websearch

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"google.golang.org/api/customsearch/v1"

	"github.com/hirelens-labs/hirelens/internal/core/domain"
	"github.com/hirelens-labs/hirelens/internal/core/ports/driven"
	"github.com/hirelens-labs/hirelens/internal/logger"
	"github.com/hirelens-labs/hirelens/internal/sources"
)

const (
	// SourceID is the source type identifier.
	SourceID = "websearch"

	// Confidence is the trust level for search results. Lowest of all
	// sources: a careers page in a result list proves little by itself.
	Confidence = 0.5

	// apiKeyKey is the config key holding the API key.
	apiKeyKey = "sources.websearch.api_key"

	// cxKey is the config key holding the Programmable Search Engine ID.
	cxKey = "sources.websearch.cx"

	// queryKey optionally overrides the search query.
	queryKey = "sources.websearch.query"

	// DefaultQuery surfaces careers pages of companies that are hiring.
	DefaultQuery = `"we're hiring" startup careers`
)

// jobBoardDomains are aggregators and hosted ATS domains. A hit there
// names the platform, not the company, so the result is dropped.
var jobBoardDomains = map[string]struct{}{
	"linkedin.com":    {},
	"indeed.com":      {},
	"glassdoor.com":   {},
	"wellfound.com":   {},
	"ycombinator.com": {},
	"lever.co":        {},
	"greenhouse.io":   {},
	"ashbyhq.com":     {},
	"workable.com":    {},
	"recruitee.com":   {},
}

// Ensure Source implements the interface.
var _ driven.CompanySource = (*Source)(nil)

// Source discovers companies from careers-page web search results.
type Source struct {
	config driven.ConfigStore

	mu     sync.Mutex
	client *Client
	apiKey string
	cx     string
}

// New creates a web search source.
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
		Name:        "Web Search",
		Description: "Companies found through careers-page web searches",
		Confidence:  Confidence,
		ConfigKeys: []domain.ConfigKey{
			{
				Key:         "api_key",
				Label:       "API key",
				Description: "Google Custom Search API key",
				Required:    true,
				Secret:      true,
			},
			{
				Key:         "cx",
				Label:       "Search engine ID",
				Description: "Programmable Search Engine identifier",
				Required:    true,
			},
			{
				Key:         "query",
				Label:       "Search query",
				Description: "Careers-page search terms",
				Default:     DefaultQuery,
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

// Validate checks the API key and engine ID are configured. No network
// call: a bad key surfaces at discovery time.
func (s *Source) Validate(_ context.Context) error {
	if s.config.GetString(apiKeyKey) == "" {
		return fmt.Errorf("%w: set %s", domain.ErrMissingCredentials, apiKeyKey)
	}
	if s.config.GetString(cxKey) == "" {
		return fmt.Errorf("%w: set %s", domain.ErrMissingCredentials, cxKey)
	}
	return nil
}

// Discover searches for careers pages and normalises the companies
// behind them. The same site often ranks several times in one query, so
// results are deduplicated by domain within the run.
func (s *Source) Discover(ctx context.Context) ([]domain.DiscoveredCompany, error) {
	client, err := s.ensureClient(ctx)
	if err != nil {
		return nil, err
	}

	query := s.config.GetString(queryKey)
	if query == "" {
		query = DefaultQuery
	}

	results, err := client.Search(ctx, query, DefaultMaxResults)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(results))
	companies := make([]domain.DiscoveredCompany, 0, len(results))
	for _, result := range results {
		company, ok := normalizeResult(result)
		if !ok {
			logger.Debug("Search result %q is not a usable company page, skipping", result.Link)
			continue
		}
		if _, dup := seen[company.Domain]; dup {
			continue
		}
		seen[company.Domain] = struct{}{}
		companies = append(companies, company)
	}
	return companies, nil
}

// ensureClient builds the client lazily, picking up key and engine ID
// changes between runs.
func (s *Source) ensureClient(ctx context.Context) (*Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := s.config.GetString(apiKeyKey)
	if key == "" {
		return nil, fmt.Errorf("%w: set %s", domain.ErrMissingCredentials, apiKeyKey)
	}
	cx := s.config.GetString(cxKey)
	if cx == "" {
		return nil, fmt.Errorf("%w: set %s", domain.ErrMissingCredentials, cxKey)
	}

	if s.client == nil || key != s.apiKey || cx != s.cx {
		client, err := NewClient(ctx, key, cx)
		if err != nil {
			return nil, err
		}
		s.client = client
		s.apiKey = key
		s.cx = cx
	}
	return s.client, nil
}

// normalizeResult converts a search hit into a DiscoveredCompany.
// Returns false for job boards, hosted ATS pages and links no
// registrable domain can be derived from.
func normalizeResult(result *customsearch.Result) (domain.DiscoveredCompany, bool) {
	dom := sources.RegistrableDomain(result.Link)
	if dom == "" {
		return domain.DiscoveredCompany{}, false
	}
	if _, blocked := jobBoardDomains[dom]; blocked {
		return domain.DiscoveredCompany{}, false
	}

	name := cleanTitle(result.Title)
	if name == "" {
		// Fall back to the site label: "acme.com" reads fine as "acme"
		// for a low-confidence record.
		name = strings.SplitN(dom, ".", 2)[0]
	}

	return domain.DiscoveredCompany{
		Name:        name,
		Domain:      dom,
		Website:     "https://" + dom,
		Description: strings.TrimSpace(result.Snippet),
		Source:      SourceID,
		Confidence:  Confidence,
	}, true
}

// titlePrefixes and titleSuffixes are boilerplate careers pages put
// around the company name. Compared case-insensitively.
var (
	titlePrefixes = []string{"careers at ", "jobs at ", "work at ", "join "}
	titleSuffixes = []string{" careers", " jobs", " hiring", " careers page", " job openings"}
)

// cleanTitle extracts a company name from a careers-page title like
// "Careers at Acme | Acme Inc" or "Beta Labs — Jobs".
func cleanTitle(title string) string {
	name := strings.TrimSpace(title)

	// Keep only the first segment of a composite title.
	for _, sep := range []string{" | ", " – ", " — ", " - "} {
		if i := strings.Index(name, sep); i > 0 {
			name = name[:i]
			break
		}
	}

	changed := true
	for changed {
		changed = false
		lower := strings.ToLower(name)
		for _, prefix := range titlePrefixes {
			if strings.HasPrefix(lower, prefix) {
				name = strings.TrimSpace(name[len(prefix):])
				changed = true
				break
			}
		}
		lower = strings.ToLower(name)
		for _, suffix := range titleSuffixes {
			if strings.HasSuffix(lower, suffix) {
				name = strings.TrimSpace(name[:len(name)-len(suffix)])
				changed = true
				break
			}
		}
	}

	// Titles that were nothing but boilerplate clean down to these.
	switch strings.ToLower(name) {
	case "jobs", "careers", "hiring", "open positions", "current openings", "join us", "work with us":
		return ""
	}
	return name
}
