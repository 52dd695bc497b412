package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/hirelens-labs/hirelens/internal/core/domain"
	"github.com/hirelens-labs/hirelens/internal/core/ports/driven"
)

// Ensure RunStore implements the interface.
var _ driven.RunStore = (*RunStore)(nil)

// RunStore is an in-memory implementation of driven.RunStore.
type RunStore struct {
	mu      sync.RWMutex
	results []domain.DiscoveryRunResult
}

// NewRunStore creates a new in-memory run store.
func NewRunStore() *RunStore {
	return &RunStore{}
}

// Insert writes a run result. Records are immutable once written.
func (s *RunStore) Insert(_ context.Context, result *domain.DiscoveryRunResult) error {
	if result == nil {
		return domain.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, cloneRun(*result))
	return nil
}

// List returns recent run results, most recent first. On equal start times
// the later insert wins, matching the SQLite adapter's ordering.
func (s *RunStore) List(_ context.Context, limit int) ([]domain.DiscoveryRunResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	listed := make([]domain.DiscoveryRunResult, 0, len(s.results))
	for i := len(s.results) - 1; i >= 0; i-- {
		listed = append(listed, cloneRun(s.results[i]))
	}
	sort.SliceStable(listed, func(i, j int) bool {
		return listed[i].StartedAt.After(listed[j].StartedAt)
	})

	if limit > 0 && len(listed) > limit {
		listed = listed[:limit]
	}
	return listed, nil
}

// cloneRun deep-copies a run result so callers cannot mutate stored state.
func cloneRun(result domain.DiscoveryRunResult) domain.DiscoveryRunResult {
	if result.Sources != nil {
		result.Sources = append([]string(nil), result.Sources...)
	}
	if result.Errors != nil {
		result.Errors = append([]string(nil), result.Errors...)
	}
	return result
}
