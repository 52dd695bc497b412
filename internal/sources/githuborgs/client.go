package githuborgs

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	gh "github.com/google/go-github/v80/github"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/hirelens-labs/hirelens/internal/core/domain"
)

const (
	// DefaultTimeout is the HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// SearchRate throttles proactively under GitHub's search API limit
	// (30 calls/minute authenticated). Profile fetches share the budget.
	SearchRate = 0.5

	// MinRemaining is the reserve kept before waiting for quota reset.
	MinRemaining = 20

	searchPageSize = 100
)

// Client wraps the go-github client for organisation discovery.
type Client struct {
	gh   *gh.Client
	gate *rateGate
}

// NewClient creates a GitHub client with a static access token.
// Works for both PAT and OAuth access tokens.
func NewClient(ctx context.Context, token string) *Client {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	tc := oauth2.NewClient(ctx, ts)
	tc.Timeout = DefaultTimeout

	return &Client{
		gh:   gh.NewClient(tc),
		gate: newRateGate(),
	}
}

// SearchOrgs finds organisations matching the query and fetches their full
// profiles, up to maxOrgs. The full profile carries the Blog field the
// connector derives company domains from; search results alone do not.
func (c *Client) SearchOrgs(ctx context.Context, query string, maxOrgs int) ([]*gh.Organization, error) {
	q := query + " type:org"
	opts := &gh.SearchOptions{ListOptions: gh.ListOptions{PerPage: searchPageSize}}

	var logins []string
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if err := c.gate.wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}

		result, resp, err := c.gh.Search.Users(ctx, q, opts)
		if err != nil {
			return nil, wrapError(err, "search organisations")
		}
		c.gate.update(resp)

		for _, user := range result.Users {
			if user.GetType() != "Organization" {
				continue
			}
			logins = append(logins, user.GetLogin())
			if len(logins) >= maxOrgs {
				break
			}
		}

		if len(logins) >= maxOrgs || resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	orgs := make([]*gh.Organization, 0, len(logins))
	for _, login := range logins {
		select {
		case <-ctx.Done():
			return orgs, ctx.Err()
		default:
		}

		org, err := c.getOrg(ctx, login)
		if err != nil {
			// One private or deleted org should not sink the batch.
			if isNotFound(err) {
				continue
			}
			return orgs, err
		}
		orgs = append(orgs, org)
	}

	return orgs, nil
}

func (c *Client) getOrg(ctx context.Context, login string) (*gh.Organization, error) {
	if err := c.gate.wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	org, resp, err := c.gh.Organizations.Get(ctx, login)
	if err != nil {
		return nil, wrapError(err, "get organisation "+login)
	}
	c.gate.update(resp)
	return org, nil
}

// ValidateToken checks the token with a cheap authenticated call.
func (c *Client) ValidateToken(ctx context.Context) error {
	if err := c.gate.wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	_, resp, err := c.gh.Users.Get(ctx, "")
	if err != nil {
		return wrapError(err, "validate token")
	}
	c.gate.update(resp)
	return nil
}

// wrapError reduces go-github errors to the source error taxonomy.
func wrapError(err error, op string) error {
	var rle *gh.RateLimitError
	if errors.As(err, &rle) {
		return fmt.Errorf("%w: github quota resets at %s",
			domain.ErrRateLimited, rle.Rate.Reset.Format(time.RFC3339))
	}

	var ghErr *gh.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		if ghErr.Response.StatusCode == http.StatusUnauthorized {
			return fmt.Errorf("%w: github rejected the token", domain.ErrMissingCredentials)
		}
		return fmt.Errorf("%w: github %s returned status %d",
			domain.ErrSourceUnavailable, op, ghErr.Response.StatusCode)
	}

	return fmt.Errorf("%s: %w", op, err)
}

func isNotFound(err error) bool {
	var ghErr *gh.ErrorResponse
	return errors.As(err, &ghErr) && ghErr.Response != nil &&
		ghErr.Response.StatusCode == http.StatusNotFound
}

// rateGate combines proactive throttling with reactive quota tracking
// from response headers.
type rateGate struct {
	mu        sync.Mutex
	bucket    *rate.Limiter
	remaining int
	resetAt   time.Time
}

func newRateGate() *rateGate {
	return &rateGate{
		bucket:    rate.NewLimiter(rate.Limit(SearchRate), 1),
		remaining: MinRemaining + 1, // assume quota until headers say otherwise
	}
}

// wait blocks until it is safe to make a request.
func (g *rateGate) wait(ctx context.Context) error {
	if err := g.bucket.Wait(ctx); err != nil {
		return err
	}

	g.mu.Lock()
	remaining := g.remaining
	resetAt := g.resetAt
	g.mu.Unlock()

	if remaining < MinRemaining && time.Now().Before(resetAt) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Until(resetAt)):
		}
	}
	return nil
}

// update records quota state from GitHub's rate limit headers.
func (g *rateGate) update(resp *gh.Response) {
	if resp == nil || resp.Response == nil {
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if v := resp.Header.Get("X-RateLimit-Remaining"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			g.remaining = n
		}
	}
	if v := resp.Header.Get("X-RateLimit-Reset"); v != "" {
		if unix, err := strconv.ParseInt(v, 10, 64); err == nil {
			g.resetAt = time.Unix(unix, 0)
		}
	}
}
