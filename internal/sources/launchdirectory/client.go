package launchdirectory

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
	// DefaultBaseURL is the public directory endpoint.
	DefaultBaseURL = "https://api.launchdirectory.io"

	// DefaultTimeout is the HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// MaxPages bounds a single discovery pass through the directory.
	MaxPages = 10

	pageSize = 100
)

// launchEntry is one listing in the directory response.
type launchEntry struct {
	CompanyName string `json:"company_name"`
	Website     string `json:"website"`
	Tagline     string `json:"tagline"`
	Category    string `json:"category"`
	TeamSize    int    `json:"team_size"`
	LaunchYear  int    `json:"launch_year"`
}

// launchPage is one page of directory results.
type launchPage struct {
	Launches []launchEntry `json:"launches"`
	NextPage int           `json:"next_page"` // 0 when exhausted
}

// Client calls the LaunchDirectory read-only HTTP API.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a directory client. An empty baseURL uses the public
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

// RecentLaunches pages through the directory, newest listings first.
// Pagination stops at MaxPages; a discovery pass wants recent companies,
// not the whole archive.
func (c *Client) RecentLaunches(ctx context.Context) ([]launchEntry, error) {
	var all []launchEntry

	page := 1
	for page > 0 && page <= MaxPages {
		select {
		case <-ctx.Done():
			return all, ctx.Err()
		default:
		}

		p, err := c.fetchPage(ctx, page)
		if err != nil {
			return nil, err
		}
		all = append(all, p.Launches...)
		page = p.NextPage
	}

	return all, nil
}

func (c *Client) fetchPage(ctx context.Context, page int) (*launchPage, error) {
	u := fmt.Sprintf("%s/v1/launches?page=%d&per_page=%d", c.baseURL, page, pageSize)
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
		return nil, fmt.Errorf("%w: launch directory page %d", domain.ErrRateLimited, page)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, fmt.Errorf("%w: launch directory returned status %d", domain.ErrSourceUnavailable, resp.StatusCode)
	}

	var p launchPage
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return nil, fmt.Errorf("decode launches page %d: %w", page, err)
	}
	return &p, nil
}
