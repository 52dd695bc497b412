package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/hirelens-labs/hirelens/internal/core/domain"
	"github.com/hirelens-labs/hirelens/internal/core/ports/driven"
	"github.com/hirelens-labs/hirelens/internal/core/ports/driving"
	"github.com/hirelens-labs/hirelens/internal/logger"
	"github.com/hirelens-labs/hirelens/internal/metrics"
)

// DefaultHarvestLimit bounds how many registry companies a single run
// probes against vendor board APIs.
const DefaultHarvestLimit = 50

// Ensure Orchestrator implements the interface.
var _ driving.DiscoveryPipeline = (*Orchestrator)(nil)

// Orchestrator runs the discovery pipeline end to end: harvest, discovery,
// platform detection, registry upsert, priority update, growth report and
// the audit record.
//
// Each phase runs inside its own failure boundary. A phase error is
// recorded on the run result and the pipeline continues with whatever data
// the phase managed to produce. Registry writes are keyed by domain and
// priority updates skip unchanged rows, so overlapping runs from separate
// processes converge instead of corrupting state; within one process a
// second Run is rejected while the first is in flight.
type Orchestrator struct {
	discovery *DiscoveryService
	detector  *DetectorService
	harvester *HarvestService
	priority  *PriorityService
	scoring   *ScoringService
	store     driven.CompanyStore
	runs      driven.RunStore
	metrics   *metrics.Metrics
	now       func() time.Time

	// Status tracking
	mu      sync.RWMutex
	running bool
	status  driving.PipelineStatus
}

// NewOrchestrator creates a pipeline orchestrator. metrics may be nil.
func NewOrchestrator(
	discovery *DiscoveryService,
	detector *DetectorService,
	harvester *HarvestService,
	priority *PriorityService,
	scoring *ScoringService,
	store driven.CompanyStore,
	runs driven.RunStore,
	m *metrics.Metrics,
) *Orchestrator {
	return &Orchestrator{
		discovery: discovery,
		detector:  detector,
		harvester: harvester,
		priority:  priority,
		scoring:   scoring,
		store:     store,
		runs:      runs,
		metrics:   m,
		now:       time.Now,
	}
}

// Run executes the pipeline phases in order and returns the completed run
// result. The result is always fully populated; phase failures degrade the
// run to partial or failed but never abort it. The error return is
// domain.ErrRunInProgress when a run is already active in this process.
func (o *Orchestrator) Run(ctx context.Context) (*domain.DiscoveryRunResult, error) {
	start := o.now()
	runID := fmt.Sprintf("disc-%d", start.Unix())

	if !o.tryStart(runID, start) {
		return nil, domain.ErrRunInProgress
	}

	result := &domain.DiscoveryRunResult{
		RunID:     runID,
		StartedAt: start,
	}
	defer func() { o.finish(len(result.Errors)) }()

	logger.Section("Discovery run " + runID)
	logger.Info("Discovery run %s started", runID)

	var (
		discovered []domain.DiscoveredCompany
		candidates []domain.Company
		detections []domain.PlatformDetection
	)

	// 1. Confirm identifiers for registry companies that still lack them.
	o.phase(result, "harvest-registries", func() error {
		n, err := o.harvester.HarvestMissing(ctx, o.store, DefaultHarvestLimit)
		result.Stats.RegistriesHarvested = n
		return err
	})

	// 2. Query every enabled source and merge candidates by domain.
	o.phase(result, "discover-companies", func() error {
		discovered, result.Sources = o.discovery.RunCompanyDiscovery(ctx)
		result.Stats.CompaniesDiscovered = len(discovered)
		return nil
	})

	// 3. Probe the candidates' careers pages for ATS identifiers.
	o.phase(result, "detect-platforms", func() error {
		candidates = make([]domain.Company, 0, len(discovered))
		for i := range discovered {
			candidates = append(candidates, discovered[i].ToCompany())
		}
		detections = o.detector.DetectBatch(ctx, candidates)
		result.Stats.PlatformsDetected = len(detections)
		return nil
	})

	// 4. Merge candidates and detections into the registry.
	o.phase(result, "upsert-registry", func() error {
		identifiersByDomain := make(map[string]map[domain.AtsVendor]string, len(detections))
		for _, detection := range detections {
			identifiersByDomain[detection.Domain] = detection.Identifiers
		}
		for i := range candidates {
			if ids, ok := identifiersByDomain[candidates[i].Domain]; ok {
				candidates[i].ATSIdentifiers = ids
			}
		}

		inserted, updated, err := o.store.Upsert(ctx, candidates)
		result.Stats.CompaniesUpserted = inserted + updated
		if err != nil {
			return err
		}
		logger.Info("Registry upsert: %d inserted, %d updated", inserted, updated)
		return nil
	})

	// 5. Re-score and re-tier every active company.
	o.phase(result, "update-priorities", func() error {
		n, err := o.priority.UpdateAll(ctx)
		result.Stats.PrioritiesUpdated = n
		return err
	})

	// 6. Flag companies in a growth posture.
	o.phase(result, "identify-growth-companies", func() error {
		growth, err := o.growthCompanies(ctx)
		result.Stats.GrowthCompanies = len(growth)
		logTopGrowth(growth)
		return err
	})

	// The status is derived before the audit write: a failed insert must
	// not change what the run reports.
	result.EndedAt = o.now()
	result.DurationMS = result.EndedAt.Sub(result.StartedAt).Milliseconds()
	result.Status = domain.StatusForErrorCount(len(result.Errors))

	// 7. Persist the audit record.
	o.persistAudit(ctx, result)

	o.metrics.RecordRun(string(result.Status), result.Duration())
	logger.Info("Discovery run %s finished: status=%s errors=%d duration=%s",
		runID, result.Status, len(result.Errors), result.Duration())

	return result, nil
}

// phase runs fn inside its own failure boundary. A returned error or an
// escaped panic is appended to the run's error list and the pipeline
// moves on to the next phase.
func (o *Orchestrator) phase(result *domain.DiscoveryRunResult, name string, fn func() error) {
	o.setPhase(name, len(result.Errors))
	defer func() {
		if r := recover(); r != nil {
			logger.Warn("Phase %s panicked: %v", name, r)
			result.Errors = append(result.Errors, fmt.Sprintf("%s: panic: %v", name, r))
		}
	}()

	if err := fn(); err != nil {
		logger.Warn("Phase %s failed: %v", name, err)
		result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", name, err))
	}
}

// persistAudit writes the run result. Failures here are logged only; the
// run's status and error list are already final.
func (o *Orchestrator) persistAudit(ctx context.Context, result *domain.DiscoveryRunResult) {
	o.setPhase("persist-audit-record", len(result.Errors))
	defer func() {
		if r := recover(); r != nil {
			logger.Warn("Audit record for run %s not persisted: panic: %v", result.RunID, r)
		}
	}()

	if err := o.runs.Insert(ctx, result); err != nil {
		logger.Warn("Audit record for run %s not persisted: %v", result.RunID, err)
	}
}

// growthCompanies returns the active companies currently in a growth
// posture. Per-company evaluation failures are logged and skipped.
func (o *Orchestrator) growthCompanies(ctx context.Context) ([]domain.Company, error) {
	companies, err := o.store.ListActive(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("list active companies: %w", err)
	}

	var growth []domain.Company
	for i := range companies {
		ok, err := o.scoring.IsGrowthCompany(ctx, &companies[i])
		if err != nil {
			logger.Debug("Growth check failed for %s: %v", companies[i].Domain, err)
			continue
		}
		if ok {
			growth = append(growth, companies[i])
		}
	}
	return growth, nil
}

// logTopGrowth logs the highest-scoring growth companies.
func logTopGrowth(growth []domain.Company) {
	if len(growth) == 0 {
		logger.Info("No growth companies identified this run")
		return
	}

	sorted := make([]domain.Company, len(growth))
	copy(sorted, growth)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].GrowthScore > sorted[j].GrowthScore
	})

	top := sorted
	if len(top) > 5 {
		top = top[:5]
	}
	logger.Info("Growth companies identified: %d", len(growth))
	for _, company := range top {
		logger.Info("  %s (%s) score=%d tier=%s",
			company.Name, company.Domain, company.GrowthScore, company.PriorityTier)
	}
}

// Status returns a copy of the pipeline's current state.
func (o *Orchestrator) Status(_ context.Context) (*driving.PipelineStatus, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	status := o.status
	return &status, nil
}

// History returns recent run results, most recent first.
func (o *Orchestrator) History(ctx context.Context, limit int) ([]domain.DiscoveryRunResult, error) {
	return o.runs.List(ctx, limit)
}

// tryStart claims the running slot. Returns false when a run is already
// in flight in this process.
func (o *Orchestrator) tryStart(runID string, start time.Time) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.running {
		return false
	}
	o.running = true
	o.status = driving.PipelineStatus{
		Running:   true,
		RunID:     runID,
		StartedAt: start,
	}
	return true
}

// setPhase records the phase about to execute.
func (o *Orchestrator) setPhase(name string, errorCount int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.status.Phase = name
	o.status.ErrorCount = errorCount
}

// finish releases the running slot, keeping the final run summary visible.
func (o *Orchestrator) finish(errorCount int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.running = false
	o.status.Running = false
	o.status.Phase = ""
	o.status.ErrorCount = errorCount
}
