package domain

import "time"

// RunStatus summarises how a pipeline run went.
type RunStatus string

const (
	// RunSuccess means every phase completed without error.
	RunSuccess RunStatus = "success"
	// RunPartial means one or two phases recorded errors but the run completed.
	RunPartial RunStatus = "partial"
	// RunFailed means three or more errors were recorded, or setup failed
	// before any phase could run.
	RunFailed RunStatus = "failed"
)

// StatusForErrorCount maps an error count onto a run status.
func StatusForErrorCount(n int) RunStatus {
	switch {
	case n == 0:
		return RunSuccess
	case n <= 2:
		return RunPartial
	default:
		return RunFailed
	}
}

// RunStats carries the per-phase counts for a pipeline run.
// Counts only; the growth-company list itself is logged, not persisted here.
type RunStats struct {
	// RegistriesHarvested is the number of companies that gained identifiers
	// from the vendor board API harvest.
	RegistriesHarvested int

	// CompaniesDiscovered is the deduplicated discovery count across sources.
	CompaniesDiscovered int

	// PlatformsDetected is the number of companies with a successful detection.
	PlatformsDetected int

	// CompaniesUpserted is the number of registry rows inserted or updated.
	CompaniesUpserted int

	// PrioritiesUpdated is the number of companies whose tier or score changed.
	PrioritiesUpdated int

	// GrowthCompanies is the number of companies flagged as growth companies.
	GrowthCompanies int
}

// DiscoveryRunResult is the audit record for one pipeline run.
// It is written once when the run ends and never mutated.
type DiscoveryRunResult struct {
	// RunID uniquely identifies the run (e.g., "disc-1735689600").
	RunID string

	// StartedAt is when the run began.
	StartedAt time.Time

	// EndedAt is when the run finished, successfully or not.
	EndedAt time.Time

	// DurationMS is the wall-clock run duration in milliseconds.
	DurationMS int64

	// Status is the overall outcome derived from the error count.
	Status RunStatus

	// Stats holds the per-phase counts.
	Stats RunStats

	// Sources lists the connector IDs that participated in discovery.
	Sources []string

	// Errors holds one message per failed phase or recorded failure.
	// Empty for a clean run.
	Errors []string
}

// Duration returns the run duration as a time.Duration.
func (r *DiscoveryRunResult) Duration() time.Duration {
	return time.Duration(r.DurationMS) * time.Millisecond
}
