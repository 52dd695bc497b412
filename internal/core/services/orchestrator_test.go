package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hirelens-labs/hirelens/internal/core/domain"
	"github.com/hirelens-labs/hirelens/internal/core/ports/driven"
)

// fakeRunStore keeps audit records in memory.
type fakeRunStore struct {
	records   []domain.DiscoveryRunResult
	insertErr error
}

func (s *fakeRunStore) Insert(_ context.Context, result *domain.DiscoveryRunResult) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	s.records = append(s.records, *result)
	return nil
}

func (s *fakeRunStore) List(_ context.Context, limit int) ([]domain.DiscoveryRunResult, error) {
	out := make([]domain.DiscoveryRunResult, 0, len(s.records))
	for i := len(s.records) - 1; i >= 0; i-- {
		out = append(out, s.records[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// panicSource violates the source contract on purpose.
type panicSource struct {
	stubSource
}

func (s *panicSource) Discover(context.Context) ([]domain.DiscoveredCompany, error) {
	panic("source exploded")
}

func newTestOrchestrator(
	store *fakeCompanyStore,
	runs *fakeRunStore,
	catalog *SourceCatalog,
	fetcher driven.PageFetcher,
	prober driven.BoardProber,
	activity driven.JobActivityStore,
) *Orchestrator {
	scoring := NewScoringService(activity)
	return NewOrchestrator(
		NewDiscoveryService(catalog, nil),
		NewDetectorService(fetcher, nil, 2),
		NewHarvestService(prober),
		NewPriorityService(store, scoring, nil),
		scoring,
		store,
		runs,
		nil,
	)
}

func TestOrchestrator_Run_Success(t *testing.T) {
	store := newFakeCompanyStore()
	runs := &fakeRunStore{}
	catalog := newTestCatalog(&stubSource{id: "seedfile", records: []domain.DiscoveredCompany{
		record("Acme", "acme.com", "seedfile"),
		record("Beta", "beta.io", "seedfile"),
	}})
	fetcher := &stubFetcher{pages: map[string]string{"https://acme.com": leverPage}}
	orch := newTestOrchestrator(store, runs, catalog, fetcher, nil, nil)

	result, err := orch.Run(context.Background())

	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, domain.RunSuccess, result.Status)
	assert.Empty(t, result.Errors)
	assert.True(t, strings.HasPrefix(result.RunID, "disc-"), "run id %q", result.RunID)
	assert.False(t, result.EndedAt.Before(result.StartedAt))
	assert.GreaterOrEqual(t, result.DurationMS, int64(0))

	assert.Equal(t, 0, result.Stats.RegistriesHarvested)
	assert.Equal(t, 2, result.Stats.CompaniesDiscovered)
	assert.Equal(t, 1, result.Stats.PlatformsDetected)
	assert.Equal(t, 2, result.Stats.CompaniesUpserted)
	assert.Equal(t, 0, result.Stats.PrioritiesUpdated)
	assert.Equal(t, []string{"seedfile"}, result.Sources)

	row, err := store.GetByDomain(context.Background(), "acme.com")
	require.NoError(t, err)
	assert.Equal(t, "acme", row.ATSIdentifiers[domain.VendorLever])

	require.Len(t, runs.records, 1)
	assert.Equal(t, result.RunID, runs.records[0].RunID)
	assert.Equal(t, domain.RunSuccess, runs.records[0].Status)
}

func TestOrchestrator_Run_TwoErrorsIsPartial(t *testing.T) {
	store := newFakeCompanyStore()
	store.listErr = errors.New("registry offline")
	runs := &fakeRunStore{}
	catalog := newTestCatalog(&stubSource{id: "seedfile", records: []domain.DiscoveredCompany{
		record("Acme", "acme.com", "seedfile"),
	}})
	orch := newTestOrchestrator(store, runs, catalog, &stubFetcher{}, nil, nil)

	result, err := orch.Run(context.Background())

	require.NoError(t, err)
	// Priority update and growth identification both hit the broken listing.
	require.Len(t, result.Errors, 2)
	assert.Equal(t, domain.RunPartial, result.Status)
	require.Len(t, runs.records, 1, "partial runs still get an audit record")
}

func TestOrchestrator_Run_ThreeErrorsIsFailed(t *testing.T) {
	store := newFakeCompanyStore()
	store.listErr = errors.New("registry offline")
	store.upsertErr = errors.New("registry read-only")
	runs := &fakeRunStore{}
	catalog := newTestCatalog(&stubSource{id: "seedfile", records: []domain.DiscoveredCompany{
		record("Acme", "acme.com", "seedfile"),
	}})
	orch := newTestOrchestrator(store, runs, catalog, &stubFetcher{}, nil, nil)

	result, err := orch.Run(context.Background())

	require.NoError(t, err, "a failed run is still a returned result")
	require.Len(t, result.Errors, 3)
	assert.Equal(t, domain.RunFailed, result.Status)
}

func TestOrchestrator_Run_AuditFailureDoesNotAlterStatus(t *testing.T) {
	store := newFakeCompanyStore()
	runs := &fakeRunStore{insertErr: errors.New("audit table gone")}
	catalog := newTestCatalog(&stubSource{id: "seedfile", records: []domain.DiscoveredCompany{
		record("Acme", "acme.com", "seedfile"),
	}})
	orch := newTestOrchestrator(store, runs, catalog, &stubFetcher{}, nil, nil)

	result, err := orch.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, domain.RunSuccess, result.Status)
	assert.Empty(t, result.Errors)
	assert.Empty(t, runs.records)
}

func TestOrchestrator_Run_PanicInPhaseIsContained(t *testing.T) {
	store := newFakeCompanyStore()
	runs := &fakeRunStore{}
	catalog := newTestCatalog(&panicSource{stubSource{id: "boom"}})
	orch := newTestOrchestrator(store, runs, catalog, &stubFetcher{}, nil, nil)

	result, err := orch.Run(context.Background())

	require.NoError(t, err)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "discover-companies")
	assert.Contains(t, result.Errors[0], "panic")
	assert.Equal(t, domain.RunPartial, result.Status)
	require.Len(t, runs.records, 1, "the run still completes and is audited")
}

func TestOrchestrator_Run_RejectsConcurrentRun(t *testing.T) {
	store := newFakeCompanyStore()
	runs := &fakeRunStore{}
	orch := newTestOrchestrator(store, runs, newTestCatalog(), &stubFetcher{}, nil, nil)

	require.True(t, orch.tryStart("disc-held", time.Now()))

	_, err := orch.Run(context.Background())
	assert.ErrorIs(t, err, domain.ErrRunInProgress)

	orch.finish(0)

	result, err := orch.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.RunSuccess, result.Status)
}

func TestOrchestrator_Run_EndToEndDedup(t *testing.T) {
	store := newFakeCompanyStore()
	runs := &fakeRunStore{}
	catalog := newTestCatalog(
		&stubSource{id: "one", records: []domain.DiscoveredCompany{
			record("A", "a.com", "one"),
			record("B", "b.com", "one"),
		}},
		&stubSource{id: "two", records: []domain.DiscoveredCompany{
			record("B", "b.com", "two"),
			record("C", "c.com", "two"),
		}},
		&stubSource{id: "three"},
	)
	orch := newTestOrchestrator(store, runs, catalog, &stubFetcher{}, nil, nil)

	result, err := orch.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 3, result.Stats.CompaniesDiscovered)
	assert.Equal(t, []string{"one", "two", "three"}, result.Sources)

	count, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	row, err := store.GetByDomain(context.Background(), "b.com")
	require.NoError(t, err)
	assert.Equal(t, "one", row.DiscoverySource, "first source to report a domain wins")
}

func TestOrchestrator_Run_SecondRunConverges(t *testing.T) {
	store := newFakeCompanyStore()
	runs := &fakeRunStore{}
	catalog := newTestCatalog(&stubSource{id: "seedfile", records: []domain.DiscoveredCompany{
		record("Acme", "acme.com", "seedfile"),
		record("Beta", "beta.io", "seedfile"),
	}})
	orch := newTestOrchestrator(store, runs, catalog, &stubFetcher{}, nil, nil)

	first, err := orch.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.RunSuccess, first.Status)

	second, err := orch.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.RunSuccess, second.Status)

	count, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, count, "re-running must not duplicate registry rows")
	assert.Equal(t, 0, store.writes, "no priority writes without signal changes")
	assert.Len(t, runs.records, 2)
}

func TestOrchestrator_StatusAndHistory(t *testing.T) {
	store := newFakeCompanyStore()
	runs := &fakeRunStore{}
	catalog := newTestCatalog(&stubSource{id: "seedfile", records: []domain.DiscoveredCompany{
		record("Acme", "acme.com", "seedfile"),
	}})
	orch := newTestOrchestrator(store, runs, catalog, &stubFetcher{}, nil, nil)

	status, err := orch.Status(context.Background())
	require.NoError(t, err)
	assert.False(t, status.Running)
	assert.Empty(t, status.RunID)

	result, err := orch.Run(context.Background())
	require.NoError(t, err)

	status, err = orch.Status(context.Background())
	require.NoError(t, err)
	assert.False(t, status.Running)
	assert.Equal(t, result.RunID, status.RunID)
	assert.Empty(t, status.Phase)
	assert.Equal(t, len(result.Errors), status.ErrorCount)

	history, err := orch.History(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, result.RunID, history[0].RunID)
}
