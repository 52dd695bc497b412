package services

import (
	"context"
	"fmt"
	"time"

	"github.com/hirelens-labs/hirelens/internal/core/domain"
	"github.com/hirelens-labs/hirelens/internal/core/ports/driven"
	"github.com/hirelens-labs/hirelens/internal/core/ports/driving"
	"github.com/hirelens-labs/hirelens/internal/logger"
	"github.com/hirelens-labs/hirelens/internal/metrics"
)

// InactivityDemotionDays is how long a company may go without a crawler
// sync and without postings before it drops to the low tier.
const InactivityDemotionDays = 90

// Ensure PriorityService implements the interface.
var _ driving.PriorityUpdater = (*PriorityService)(nil)

// PriorityService re-scores companies and moves them between priority
// tiers based on their hiring signals.
type PriorityService struct {
	store   driven.CompanyStore
	scoring *ScoringService
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewPriorityService creates a priority service. metrics may be nil.
func NewPriorityService(store driven.CompanyStore, scoring *ScoringService, m *metrics.Metrics) *PriorityService {
	return &PriorityService{
		store:   store,
		scoring: scoring,
		metrics: m,
		now:     time.Now,
	}
}

// UpdateAll re-evaluates every active company and applies tier and growth
// score changes. A company is written back only when its tier or growth
// score actually changed, so re-running against unchanged history is a
// no-op. Per-company failures are logged and skipped.
func (s *PriorityService) UpdateAll(ctx context.Context) (int, error) {
	companies, err := s.store.ListActive(ctx, 0)
	if err != nil {
		return 0, fmt.Errorf("list active companies: %w", err)
	}

	updated := 0
	for i := range companies {
		if err := ctx.Err(); err != nil {
			return updated, err
		}

		company := &companies[i]
		changed, err := s.updateOne(ctx, company)
		if err != nil {
			logger.Debug("Priority update failed for %s: %v", company.Domain, err)
			continue
		}
		if changed {
			updated++
		}
	}

	logger.Info("Priority update complete: %d of %d companies changed", updated, len(companies))
	s.metrics.RecordPriorityUpdates(updated)
	return updated, nil
}

// updateOne evaluates a single company and writes a patch when its tier or
// growth score moved. Reports whether a write happened.
func (s *PriorityService) updateOne(ctx context.Context, company *domain.Company) (bool, error) {
	signals, spike, err := s.scoring.EvaluateCompany(ctx, company)
	if err != nil {
		return false, fmt.Errorf("evaluate signals: %w", err)
	}

	newTier := nextTier(company, signals, spike, s.now())
	newScore := AccumulateGrowthScore(company.GrowthScore, signals.JobsPosted30d)

	if newTier == company.PriorityTier && newScore == company.GrowthScore {
		return false, nil
	}

	patch := domain.PriorityPatch{
		Tier:                newTier,
		GrowthScore:         newScore,
		JobCreationVelocity: CalculateHiringVelocity(signals.JobsPosted7d),
		SyncFrequencyHours:  newTier.SyncFrequencyHours(),
	}
	if err := s.store.UpdatePriority(ctx, company.ID, patch); err != nil {
		return false, fmt.Errorf("write priority: %w", err)
	}

	if newTier != company.PriorityTier {
		logger.Debug("Tier change for %s: %s -> %s (momentum=%.2f spike=%v)",
			company.Domain, company.PriorityTier, newTier, signals.GrowthMomentum, spike.Spiking)
	}
	return true, nil
}

// nextTier applies the tier transition rules in precedence order:
// spiking companies promote to high, recovering low-tier companies return
// to standard, and long-inactive companies demote to low. Companies that
// have never been synced report -1 days and are exempt from demotion.
func nextTier(company *domain.Company, signals *domain.HiringSignals, spike domain.SpikeResult, now time.Time) domain.PriorityTier {
	current := company.PriorityTier
	switch {
	case spike.Spiking && current != domain.TierHigh:
		return domain.TierHigh
	case current == domain.TierLow && signals.GrowthMomentum > 1.0:
		return domain.TierStandard
	case company.DaysSinceSync(now) >= InactivityDemotionDays &&
		signals.JobsPosted30d == 0 && current != domain.TierLow:
		return domain.TierLow
	default:
		return current
	}
}

// Score computes the blended priority score for one company without
// writing anything back.
func (s *PriorityService) Score(ctx context.Context, companyDomain string) (*domain.SmartPriorityScore, error) {
	company, err := s.store.GetByDomain(ctx, domain.NormalizeDomain(companyDomain))
	if err != nil {
		return nil, fmt.Errorf("fetch company: %w", err)
	}

	signals, _, err := s.scoring.EvaluateCompany(ctx, company)
	if err != nil {
		return nil, fmt.Errorf("evaluate signals: %w", err)
	}

	score := ComputeSmartScore(float64(company.GrowthScore), *signals, company.LastSyncedAt, s.now())
	return &score, nil
}
