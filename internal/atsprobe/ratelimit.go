package atsprobe

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultProbeRate is the proactive probe rate in requests per second.
	// Probes fan out across many unrelated hosts, so the baseline is modest
	// politeness rather than a vendor quota.
	DefaultProbeRate = 4.0

	// DefaultProbeBurst is the token bucket burst size.
	DefaultProbeBurst = 4

	// HeaderRetryAfter is the backoff header honoured on 429/503 responses.
	HeaderRetryAfter = "Retry-After"
)

// RateTracker implements dual-strategy throttling for outbound probes.
// A token bucket enforces the baseline rate; a backoff window opened by
// Retry-After responses pauses all probing until it closes.
//
// Trackers are injected into fetchers and probers, never shared through
// package state, so tests and parallel pipelines get isolated limits.
type RateTracker struct {
	mu           sync.Mutex
	bucket       *rate.Limiter
	backoffUntil time.Time
}

// NewRateTracker creates a tracker with the given baseline rate.
// Non-positive arguments fall back to the defaults.
func NewRateTracker(perSecond float64, burst int) *RateTracker {
	if perSecond <= 0 {
		perSecond = DefaultProbeRate
	}
	if burst <= 0 {
		burst = DefaultProbeBurst
	}
	return &RateTracker{
		bucket: rate.NewLimiter(rate.Limit(perSecond), burst),
	}
}

// Wait blocks until it's safe to make a request.
func (t *RateTracker) Wait(ctx context.Context) error {
	// 1. Token bucket (proactive throttling)
	if err := t.bucket.Wait(ctx); err != nil {
		return err
	}

	// 2. Backoff window (reactive)
	t.mu.Lock()
	until := t.backoffUntil
	t.mu.Unlock()

	if time.Now().Before(until) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Until(until)):
		}
	}
	return nil
}

// UpdateFromResponse opens a backoff window when the response pushes back
// with 429 or 503. Retry-After is honoured when present and parses as
// seconds; otherwise a fixed 30 second window applies.
func (t *RateTracker) UpdateFromResponse(resp *http.Response) {
	if resp == nil {
		return
	}
	if resp.StatusCode != http.StatusTooManyRequests && resp.StatusCode != http.StatusServiceUnavailable {
		return
	}

	window := 30 * time.Second
	if retryAfter := resp.Header.Get(HeaderRetryAfter); retryAfter != "" {
		if seconds, err := strconv.Atoi(retryAfter); err == nil && seconds > 0 {
			window = time.Duration(seconds) * time.Second
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	until := time.Now().Add(window)
	if until.After(t.backoffUntil) {
		t.backoffUntil = until
	}
}

// BackoffUntil returns the end of the current backoff window, zero when none.
func (t *RateTracker) BackoffUntil() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.backoffUntil
}
