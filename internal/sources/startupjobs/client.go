package startupjobs

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/hirelens-labs/hirelens/internal/core/domain"
	"github.com/hirelens-labs/hirelens/internal/sources"
)

const (
	// DefaultBaseURL is the startup jobs board API endpoint.
	DefaultBaseURL = "https://api.startupjobs.dev"

	// DefaultTimeout is the HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// MaxPages bounds a single discovery pass through the board.
	MaxPages = 10

	pageSize = 100
)

// hiringCompany is one employer profile in the board response.
type hiringCompany struct {
	Name        string `json:"name"`
	URL         string `json:"url"`
	Description string `json:"description"`
	Sector      string `json:"sector"`
	OpenRoles   int    `json:"open_roles"`
}

// companiesPage is one page of employer profiles.
type companiesPage struct {
	Companies []hiringCompany `json:"companies"`
	HasMore   bool            `json:"has_more"`
}

// Client calls the startup jobs board read-only HTTP API.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a jobs board client. An empty baseURL uses the public
// endpoint.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		baseURL:    strings.TrimSuffix(baseURL, "/"),
	}
}

// HiringCompanies pages through employers with live postings.
func (c *Client) HiringCompanies(ctx context.Context) ([]hiringCompany, error) {
	var all []hiringCompany

	for page := 1; page <= MaxPages; page++ {
		select {
		case <-ctx.Done():
			return all, ctx.Err()
		default:
		}

		p, err := c.fetchPage(ctx, page)
		if err != nil {
			return nil, err
		}
		all = append(all, p.Companies...)

		if !p.HasMore {
			break
		}
	}

	return all, nil
}

func (c *Client) fetchPage(ctx context.Context, page int) (*companiesPage, error) {
	u := fmt.Sprintf("%s/v1/companies/hiring?page=%d&per_page=%d", c.baseURL, page, pageSize)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", sources.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: jobs board page %d", domain.ErrRateLimited, page)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, fmt.Errorf("%w: jobs board returned status %d", domain.ErrSourceUnavailable, resp.StatusCode)
	}

	var p companiesPage
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return nil, fmt.Errorf("decode companies page %d: %w", page, err)
	}
	return &p, nil
}
