package fundingdb

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
	// DefaultBaseURL is the funding database API endpoint.
	DefaultBaseURL = "https://api.fundingdb.com"

	// DefaultTimeout is the HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// MaxRounds bounds how many recent rounds a discovery pass reads.
	MaxRounds = 500

	pageSize = 100
)

// fundedCompany is the company block inside a funding round record.
type fundedCompany struct {
	Name      string `json:"name"`
	Homepage  string `json:"homepage"`
	Summary   string `json:"summary"`
	Sector    string `json:"sector"`
	Employees int    `json:"employees"`
	Founded   int    `json:"founded"`
}

// fundingRound is one announced round in the API response.
type fundingRound struct {
	Company   fundedCompany `json:"company"`
	Stage     string        `json:"stage"`
	Announced string        `json:"announced"`
}

// roundsPage is one page of recent rounds.
type roundsPage struct {
	Rounds []fundingRound `json:"rounds"`
	Offset int            `json:"offset"`
	Total  int            `json:"total"`
}

// Client calls the FundingDB read-only HTTP API.
// Every request carries the API key in the X-Api-Key header.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// NewClient creates a funding database client. An empty baseURL uses the
// public endpoint.
func NewClient(baseURL, apiKey string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
	}
}

// RecentRounds pages through recently announced funding rounds.
func (c *Client) RecentRounds(ctx context.Context) ([]fundingRound, error) {
	var all []fundingRound

	offset := 0
	for {
		select {
		case <-ctx.Done():
			return all, ctx.Err()
		default:
		}

		page, err := c.fetchRounds(ctx, offset)
		if err != nil {
			return nil, err
		}
		all = append(all, page.Rounds...)

		offset += len(page.Rounds)
		if len(page.Rounds) == 0 || offset >= page.Total || offset >= MaxRounds {
			break
		}
	}

	return all, nil
}

func (c *Client) fetchRounds(ctx context.Context, offset int) (*roundsPage, error) {
	u := fmt.Sprintf("%s/v2/rounds/recent?offset=%d&limit=%d", c.baseURL, offset, pageSize)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", sources.UserAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: funding database rejected the API key", domain.ErrMissingCredentials)
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: funding database at offset %d", domain.ErrRateLimited, offset)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, fmt.Errorf("%w: funding database returned status %d", domain.ErrSourceUnavailable, resp.StatusCode)
	}

	var page roundsPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("decode rounds at offset %d: %w", offset, err)
	}
	return &page, nil
}
