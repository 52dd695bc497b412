package memory

import (
	"context"
	"sync"
	"time"

	"github.com/hirelens-labs/hirelens/internal/core/ports/driven"
)

// Ensure JobActivityStore implements the interface.
var _ driven.JobActivityStore = (*JobActivityStore)(nil)

// JobActivityStore is an in-memory implementation of driven.JobActivityStore.
// In production the posting history is written by the job crawler; here tests
// seed it directly with AddPosting.
type JobActivityStore struct {
	mu       sync.RWMutex
	postings []posting
}

type posting struct {
	companyID string
	createdAt time.Time
	closedAt  *time.Time
}

// NewJobActivityStore creates a new in-memory job activity store.
func NewJobActivityStore() *JobActivityStore {
	return &JobActivityStore{}
}

// AddPosting seeds one posting. Pass a nil closed time for a posting that is
// still open.
func (s *JobActivityStore) AddPosting(companyID string, created time.Time, closed *time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if closed != nil {
		at := *closed
		closed = &at
	}
	s.postings = append(s.postings, posting{companyID: companyID, createdAt: created, closedAt: closed})
}

// CountPostings returns how many postings for the company were created in
// [since, until).
func (s *JobActivityStore) CountPostings(_ context.Context, companyID string, since, until time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	for _, p := range s.postings {
		if p.companyID != companyID {
			continue
		}
		if p.createdAt.Before(since) || !p.createdAt.Before(until) {
			continue
		}
		count++
	}
	return count, nil
}

// AvgTimeToFill returns the mean days from posting to close for postings
// created since the given time. Returns 0 when there is no closed history.
func (s *JobActivityStore) AvgTimeToFill(_ context.Context, companyID string, since time.Time) (float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var total float64
	var closed int
	for _, p := range s.postings {
		if p.companyID != companyID || p.closedAt == nil || p.createdAt.Before(since) {
			continue
		}
		total += p.closedAt.Sub(p.createdAt).Hours() / 24
		closed++
	}
	if closed == 0 {
		return 0, nil
	}
	return total / float64(closed), nil
}
