package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/hirelens-labs/hirelens/internal/core/domain"
	"github.com/hirelens-labs/hirelens/internal/core/ports/driven"
)

// Scoring weights and bounds. The blend is tuned so a company with steady
// weekly postings and a recent sync lands in the 40-70 band, leaving
// headroom for spikes.
const (
	// MaxVelocityScore caps the weekly-velocity component.
	MaxVelocityScore = 50.0

	// VelocityPerPosting is the score contribution of one posting in the
	// trailing week.
	VelocityPerPosting = 5.0

	// MaxRecencyBonus caps the sync-recency component.
	MaxRecencyBonus = 10.0

	// SpikeThreshold is the week-over-week multiplier at which posting
	// volume counts as a hiring spike.
	SpikeThreshold = 2.0

	weightBase     = 0.30
	weightVelocity = 0.35
	weightMomentum = 0.10
	weightRecency  = 0.10
)

// CalculateHiringVelocity converts a trailing-week posting count into the
// velocity score: 5 points per posting, capped at 50.
func CalculateHiringVelocity(jobsPosted7d int) float64 {
	return math.Min(float64(jobsPosted7d)*VelocityPerPosting, MaxVelocityScore)
}

// GrowthMomentum returns the week-over-week posting growth rate.
// With no prior-week history the momentum is zero: a single week of data
// is treated as no growth signal rather than infinite growth.
func GrowthMomentum(currentWeek, previousWeek int) float64 {
	if previousWeek == 0 {
		return 0
	}
	return float64(currentWeek-previousWeek) / float64(previousWeek)
}

// SeasonalFactorFor returns the hiring-season multiplier for the quarter
// containing t. Q4 carries the strongest hiring push, Q3 the summer lull.
func SeasonalFactorFor(t time.Time) float64 {
	switch (int(t.Month()) - 1) / 3 {
	case 0:
		return 0.8
	case 1:
		return 1.0
	case 2:
		return 0.7
	default:
		return 1.3
	}
}

// RecencyBonus rewards recently synced companies: 10 points at under a day
// since the last sync, decaying by one point per full day, floored at zero.
// Companies never synced get no bonus.
func RecencyBonus(lastSyncedAt *time.Time, now time.Time) float64 {
	if lastSyncedAt == nil {
		return 0
	}
	days := math.Floor(now.Sub(*lastSyncedAt).Hours() / 24)
	return math.Max(0, MaxRecencyBonus-days)
}

// DetectSpike compares the current week's posting volume to the previous
// week's. Postings appearing after a silent week always count as a spike,
// reported with an infinite multiplier.
func DetectSpike(currentWeek, previousWeek int, threshold float64) domain.SpikeResult {
	if previousWeek == 0 {
		result := domain.SpikeResult{Threshold: threshold}
		if currentWeek > 0 {
			result.Spiking = true
			result.Multiplier = math.Inf(1)
		}
		return result
	}
	multiplier := float64(currentWeek) / float64(previousWeek)
	return domain.SpikeResult{
		Spiking:    multiplier >= threshold,
		Multiplier: multiplier,
		Threshold:  threshold,
	}
}

// ComputeSmartScore blends the scoring components into a final priority
// score. baseScore is the company's stored growth score at scoring time.
//
// The momentum component is clamped to [-20,20], then shifted to [0,40]
// before weighting so that negative momentum drags the blend down instead
// of zeroing it.
func ComputeSmartScore(
	baseScore float64,
	signals domain.HiringSignals,
	lastSyncedAt *time.Time,
	now time.Time,
) domain.SmartPriorityScore {
	velocity := CalculateHiringVelocity(signals.JobsPosted7d)
	momentumScaled := clamp(signals.GrowthMomentum*20, -20, 20)
	recency := RecencyBonus(lastSyncedAt, now)

	final := baseScore*weightBase +
		velocity*signals.SeasonalFactor*weightVelocity +
		(momentumScaled+20)*weightMomentum +
		recency*weightRecency

	confidence := 0.3
	if signals.JobsPosted30d > 0 {
		confidence = 0.7
	}
	if signals.GrowthMomentum != 0 {
		confidence += 0.2
	}

	return domain.SmartPriorityScore{
		BaseScore:      baseScore,
		VelocityScore:  velocity,
		MomentumScore:  momentumScaled,
		RecencyScore:   recency,
		SeasonalFactor: signals.SeasonalFactor,
		FinalScore:     clamp(final, 0, 100),
		Confidence:     math.Min(confidence, 1.0),
	}
}

// AccumulateGrowthScore folds a month of posting activity into the stored
// growth score: 3 points per posting plus half the previous score, capped
// at 100. The decay keeps dormant companies from holding old highs.
func AccumulateGrowthScore(oldScore, jobsPosted30d int) int {
	score := int(math.Floor(float64(jobsPosted30d)*3 + float64(oldScore)*0.5))
	if score > 100 {
		return 100
	}
	return score
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// ScoringService derives hiring signals from the posting history the job
// crawler writes. All heavy lifting is in the pure functions above; this
// service only binds them to the activity store.
type ScoringService struct {
	activity driven.JobActivityStore
	now      func() time.Time
}

// NewScoringService creates a scoring service.
// The activity store may be nil; signals then report no history.
func NewScoringService(activity driven.JobActivityStore) *ScoringService {
	return &ScoringService{
		activity: activity,
		now:      time.Now,
	}
}

// WeeklyCounts returns posting counts for the trailing week and the week
// before it.
func (s *ScoringService) WeeklyCounts(ctx context.Context, companyID string) (current, previous int, err error) {
	if s.activity == nil {
		return 0, 0, nil
	}
	now := s.now()
	weekAgo := now.Add(-7 * 24 * time.Hour)
	twoWeeksAgo := now.Add(-14 * 24 * time.Hour)

	current, err = s.activity.CountPostings(ctx, companyID, weekAgo, now)
	if err != nil {
		return 0, 0, fmt.Errorf("count current week: %w", err)
	}
	previous, err = s.activity.CountPostings(ctx, companyID, twoWeeksAgo, weekAgo)
	if err != nil {
		return 0, 0, fmt.Errorf("count previous week: %w", err)
	}
	return current, previous, nil
}

// BuildSignals assembles the scoring inputs for a company from its posting
// history. With no activity store configured it returns empty signals with
// the seasonal factor still set.
func (s *ScoringService) BuildSignals(ctx context.Context, company *domain.Company) (*domain.HiringSignals, error) {
	signals, _, err := s.EvaluateCompany(ctx, company)
	return signals, err
}

// IsGrowthCompany reports whether the company is in a growth posture:
// posting momentum above 0.5 or an active spike, with at least one posting
// in the trailing month.
func (s *ScoringService) IsGrowthCompany(ctx context.Context, company *domain.Company) (bool, error) {
	signals, spike, err := s.EvaluateCompany(ctx, company)
	if err != nil {
		return false, err
	}
	if signals.JobsPosted30d == 0 {
		return false, nil
	}
	return signals.GrowthMomentum > 0.5 || spike.Spiking, nil
}

// EvaluateCompany builds hiring signals and runs spike detection in a
// single pass over the posting history.
func (s *ScoringService) EvaluateCompany(ctx context.Context, company *domain.Company) (*domain.HiringSignals, domain.SpikeResult, error) {
	now := s.now()
	signals := &domain.HiringSignals{
		SeasonalFactor: SeasonalFactorFor(now),
	}
	spike := domain.SpikeResult{Threshold: SpikeThreshold}
	if s.activity == nil {
		return signals, spike, nil
	}

	current, previous, err := s.WeeklyCounts(ctx, company.ID)
	if err != nil {
		return nil, spike, err
	}
	signals.JobsPosted7d = current
	signals.GrowthMomentum = GrowthMomentum(current, previous)
	spike = DetectSpike(current, previous, SpikeThreshold)

	monthAgo := now.Add(-30 * 24 * time.Hour)
	jobs30, err := s.activity.CountPostings(ctx, company.ID, monthAgo, now)
	if err != nil {
		return nil, spike, fmt.Errorf("count trailing month: %w", err)
	}
	signals.JobsPosted30d = jobs30

	ttf, err := s.activity.AvgTimeToFill(ctx, company.ID, now.Add(-90*24*time.Hour))
	if err != nil {
		return nil, spike, fmt.Errorf("average time to fill: %w", err)
	}
	signals.AvgTimeToFill = ttf

	return signals, spike, nil
}
