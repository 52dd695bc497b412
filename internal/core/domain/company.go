package domain

import (
	"strings"
	"time"
)

// PriorityTier controls how often the downstream job crawler revisits a company.
type PriorityTier string

const (
	// TierHigh is for companies with active or spiking hiring. Synced daily.
	TierHigh PriorityTier = "high"
	// TierStandard is the default tier for known-active companies. Synced every 3 days.
	TierStandard PriorityTier = "standard"
	// TierLow is for dormant companies. Synced weekly.
	TierLow PriorityTier = "low"
)

// IsValid reports whether the tier is one of the known values.
func (t PriorityTier) IsValid() bool {
	switch t {
	case TierHigh, TierStandard, TierLow:
		return true
	}
	return false
}

// SyncFrequencyHours returns the crawler cadence implied by the tier.
func (t PriorityTier) SyncFrequencyHours() int {
	switch t {
	case TierHigh:
		return 24
	case TierLow:
		return 168
	default:
		return 72
	}
}

// FundingStage categorises how far along a company's funding is.
// Stored as free-form text from sources; the constants cover the common values.
type FundingStage string

const (
	StagePreSeed      FundingStage = "pre-seed"
	StageSeed         FundingStage = "seed"
	StageSeriesA      FundingStage = "series-a"
	StageSeriesB      FundingStage = "series-b"
	StageSeriesC      FundingStage = "series-c"
	StageGrowth       FundingStage = "growth"
	StagePublic       FundingStage = "public"
	StageUnknown      FundingStage = "unknown"
	StageBootstrapped FundingStage = "bootstrapped"
)

// AtsVendor identifies an applicant tracking system platform.
type AtsVendor string

const (
	VendorLever      AtsVendor = "lever"
	VendorGreenhouse AtsVendor = "greenhouse"
	VendorAshby      AtsVendor = "ashby"
	VendorWorkable   AtsVendor = "workable"
	VendorRecruitee  AtsVendor = "recruitee"
)

// KnownVendors lists every ATS platform the detector can recognise,
// in the order identifiers are reported.
func KnownVendors() []AtsVendor {
	return []AtsVendor{VendorLever, VendorGreenhouse, VendorAshby, VendorWorkable, VendorRecruitee}
}

// IsValid reports whether the vendor is one the detector recognises.
func (v AtsVendor) IsValid() bool {
	for _, known := range KnownVendors() {
		if v == known {
			return true
		}
	}
	return false
}

// Company is a tracked employer in the registry.
// The registry row is the unit the crawler schedules against.
type Company struct {
	// ID is the unique identifier for the company.
	ID string

	// Name is the company's display name.
	Name string

	// Domain is the normalised registrable domain (e.g., "acme.com").
	// It is the natural key: upserts and dedup are keyed on it.
	Domain string

	// Website is the full URL the company was discovered under.
	Website string

	// Industry is a free-form sector label from the discovery source.
	Industry string

	// FundingStage is the company's funding stage, when known.
	FundingStage FundingStage

	// EmployeeCount is the reported headcount, zero when unknown.
	EmployeeCount int

	// FoundedYear is the founding year, zero when unknown.
	FoundedYear int

	// DiscoverySource names the connector that first reported the company.
	DiscoverySource string

	// ATSIdentifiers maps detected ATS vendors to their board identifiers
	// (e.g., lever slug, greenhouse board token). Empty until detection succeeds.
	ATSIdentifiers map[AtsVendor]string

	// GrowthScore is the accumulated hiring-growth score in [0,100].
	GrowthScore int

	// PriorityTier determines crawl cadence.
	PriorityTier PriorityTier

	// SyncFrequencyHours is the crawl interval derived from the tier.
	SyncFrequencyHours int

	// LastSyncedAt is when the crawler last ingested this company's jobs.
	// Nil for companies that have never been synced.
	LastSyncedAt *time.Time

	// JobCreationVelocity is the most recent weekly-velocity score in [0,50].
	JobCreationVelocity float64

	// IsActive marks whether the company is eligible for crawling.
	IsActive bool

	// CreatedAt is when the registry row was created.
	CreatedAt time.Time

	// UpdatedAt is when the registry row was last modified.
	UpdatedAt time.Time
}

// HasATS reports whether any ATS identifier is known for the company.
func (c *Company) HasATS() bool {
	return len(c.ATSIdentifiers) > 0
}

// DaysSinceSync returns whole days since the last crawler sync, measured at now.
// Returns -1 for companies that have never been synced.
func (c *Company) DaysSinceSync(now time.Time) int {
	if c.LastSyncedAt == nil {
		return -1
	}
	return int(now.Sub(*c.LastSyncedAt).Hours() / 24)
}

// NormalizeDomain lowercases and strips scheme, "www." and any path from a
// raw domain or URL string. It does not validate registrability; callers that
// need the registrable form go through the discovery normaliser.
func NormalizeDomain(raw string) string {
	d := strings.TrimSpace(strings.ToLower(raw))
	d = strings.TrimPrefix(d, "https://")
	d = strings.TrimPrefix(d, "http://")
	d = strings.TrimPrefix(d, "www.")
	if i := strings.IndexAny(d, "/?#"); i >= 0 {
		d = d[:i]
	}
	return strings.TrimSuffix(d, ".")
}

// PriorityPatch carries the fields the priority updater is allowed to change.
// Everything else on the registry row is owned by discovery upserts.
type PriorityPatch struct {
	// Tier is the new priority tier.
	Tier PriorityTier

	// GrowthScore is the new accumulated growth score in [0,100].
	GrowthScore int

	// JobCreationVelocity is the recomputed weekly-velocity score in [0,50].
	JobCreationVelocity float64

	// SyncFrequencyHours is the crawl cadence derived from Tier.
	SyncFrequencyHours int
}

// HiringSignals are the per-company inputs to priority scoring,
// derived from the job activity history written by the crawler.
type HiringSignals struct {
	// JobsPosted7d is the number of postings created in the trailing 7 days.
	JobsPosted7d int

	// JobsPosted30d is the number of postings created in the trailing 30 days.
	JobsPosted30d int

	// AvgTimeToFill is the mean days from posting to close, zero when unknown.
	AvgTimeToFill float64

	// SeasonalFactor is the hiring-season multiplier in [0.5,1.5].
	SeasonalFactor float64

	// GrowthMomentum is the week-over-week posting growth rate.
	// Zero when there is no prior-week history.
	GrowthMomentum float64
}
