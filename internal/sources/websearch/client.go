package websearch

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/hirelens-labs/hirelens/internal/core/domain"
)

const (
	// DefaultMaxResults caps how many search hits one discovery run
	// consumes. The free quota is 100 queries/day at 10 hits each.
	DefaultMaxResults = 30

	// pageSize is the hard per-request cap of the Custom Search API.
	pageSize = 10

	// maxStart is the API's last valid result offset.
	maxStart = 91
)

// Client wraps the Programmable Search Engine API.
type Client struct {
	svc *customsearch.Service
	cx  string
}

// NewClient creates a search client for the given API key and engine ID.
func NewClient(ctx context.Context, apiKey, cx string) (*Client, error) {
	svc, err := customsearch.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create search service: %w", err)
	}
	return &Client{svc: svc, cx: cx}, nil
}

// Search runs the query and pages through results up to maxResults.
// Pagination stops early on a short page; the API never returns more
// than a hundred hits per query anyway.
func (c *Client) Search(ctx context.Context, query string, maxResults int) ([]*customsearch.Result, error) {
	var results []*customsearch.Result

	for start := int64(1); len(results) < maxResults && start <= maxStart; start += pageSize {
		select {
		case <-ctx.Done():
			return results, ctx.Err()
		default:
		}

		resp, err := c.svc.Cse.List().
			Q(query).
			Cx(c.cx).
			Start(start).
			Num(pageSize).
			Context(ctx).
			Do()
		if err != nil {
			return results, wrapError(err, "web search")
		}

		results = append(results, resp.Items...)
		if len(resp.Items) < pageSize {
			break
		}
	}

	if len(results) > maxResults {
		results = results[:maxResults]
	}
	return results, nil
}

// wrapError reduces Google API errors to the source error taxonomy.
// A 403 is ambiguous: the API reports exhausted daily quota and rejected
// keys with the same status, distinguished only by reason.
func wrapError(err error, op string) error {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return fmt.Errorf("%s: %w", op, err)
	}

	switch gerr.Code {
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: search quota exhausted", domain.ErrRateLimited)
	case http.StatusForbidden:
		for _, item := range gerr.Errors {
			switch item.Reason {
			case "dailyLimitExceeded", "rateLimitExceeded", "userRateLimitExceeded":
				return fmt.Errorf("%w: daily search quota exhausted", domain.ErrRateLimited)
			}
		}
		return fmt.Errorf("%w: search API rejected the key", domain.ErrMissingCredentials)
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: search API rejected the key", domain.ErrMissingCredentials)
	default:
		return fmt.Errorf("%w: %s returned status %d", domain.ErrSourceUnavailable, op, gerr.Code)
	}
}
