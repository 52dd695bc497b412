package atsprobe

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hirelens-labs/hirelens/internal/core/ports/driven"
	"github.com/hirelens-labs/hirelens/internal/metrics"
)

const (
	// ProbeTimeout bounds a single careers-page fetch.
	ProbeTimeout = 10 * time.Second

	// maxBodyBytes caps how much of a page is read. Board embeds sit in the
	// document head or early scripts, so 1 MiB is plenty.
	maxBodyBytes = 1 << 20

	// userAgent identifies the probe politely to site operators.
	userAgent = "HireLens-Bot/1.0 (ATS detection; +https://github.com/hirelens-labs/hirelens)"
)

// Ensure Fetcher implements the interface.
var _ driven.PageFetcher = (*Fetcher)(nil)

// Fetcher retrieves careers pages with a shared rate limit and probe timeout.
type Fetcher struct {
	client  *http.Client
	tracker *RateTracker
	metrics *metrics.Metrics
}

// NewFetcher creates a fetcher. tracker must not be nil; metrics may be.
func NewFetcher(tracker *RateTracker, m *metrics.Metrics) *Fetcher {
	return &Fetcher{
		client:  &http.Client{Timeout: ProbeTimeout},
		tracker: tracker,
		metrics: m,
	}
}

// Fetch GETs the URL and returns status and body.
// Redirects are followed; a non-2xx status is returned, not treated as an
// error. The body read is capped at maxBodyBytes.
func (f *Fetcher) Fetch(ctx context.Context, url string) (int, []byte, error) {
	if err := f.tracker.Wait(ctx); err != nil {
		return 0, nil, fmt.Errorf("rate limit wait: %w", err)
	}

	done := f.metrics.StartProbe()
	defer done()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	f.tracker.UpdateFromResponse(resp)

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read body: %w", err)
	}
	return resp.StatusCode, body, nil
}
