package httpapi

import (
	"time"

	"github.com/hirelens-labs/hirelens/internal/core/domain"
)

// errorResponse is the body of every non-2xx reply.
type errorResponse struct {
	Error string `json:"error"`
}

// companyResponse is the wire shape of a registry company.
type companyResponse struct {
	ID                  string            `json:"id"`
	Name                string            `json:"name"`
	Domain              string            `json:"domain"`
	Website             string            `json:"website,omitempty"`
	Industry            string            `json:"industry,omitempty"`
	FundingStage        string            `json:"funding_stage"`
	EmployeeCount       int               `json:"employee_count,omitempty"`
	FoundedYear         int               `json:"founded_year,omitempty"`
	DiscoverySource     string            `json:"discovery_source"`
	ATSIdentifiers      map[string]string `json:"ats_identifiers,omitempty"`
	GrowthScore         int               `json:"growth_score"`
	PriorityTier        string            `json:"priority_tier"`
	SyncFrequencyHours  int               `json:"sync_frequency_hours"`
	LastSyncedAt        *time.Time        `json:"last_synced_at,omitempty"`
	JobCreationVelocity float64           `json:"job_creation_velocity"`
	IsActive            bool              `json:"is_active"`
	CreatedAt           time.Time         `json:"created_at"`
	UpdatedAt           time.Time         `json:"updated_at"`
}

func companyFromDomain(c domain.Company) companyResponse {
	var ats map[string]string
	if len(c.ATSIdentifiers) > 0 {
		ats = make(map[string]string, len(c.ATSIdentifiers))
		for vendor, id := range c.ATSIdentifiers {
			ats[string(vendor)] = id
		}
	}

	return companyResponse{
		ID:                  c.ID,
		Name:                c.Name,
		Domain:              c.Domain,
		Website:             c.Website,
		Industry:            c.Industry,
		FundingStage:        string(c.FundingStage),
		EmployeeCount:       c.EmployeeCount,
		FoundedYear:         c.FoundedYear,
		DiscoverySource:     c.DiscoverySource,
		ATSIdentifiers:      ats,
		GrowthScore:         c.GrowthScore,
		PriorityTier:        string(c.PriorityTier),
		SyncFrequencyHours:  c.SyncFrequencyHours,
		LastSyncedAt:        c.LastSyncedAt,
		JobCreationVelocity: c.JobCreationVelocity,
		IsActive:            c.IsActive,
		CreatedAt:           c.CreatedAt,
		UpdatedAt:           c.UpdatedAt,
	}
}

// runResponse is the wire shape of a pipeline audit record.
type runResponse struct {
	RunID      string           `json:"run_id"`
	StartedAt  time.Time        `json:"started_at"`
	EndedAt    time.Time        `json:"ended_at"`
	DurationMS int64            `json:"duration_ms"`
	Status     string           `json:"status"`
	Stats      runStatsResponse `json:"stats"`
	Sources    []string         `json:"sources"`
	Errors     []string         `json:"errors"`
}

type runStatsResponse struct {
	CompaniesDiscovered int `json:"companies_discovered"`
	PlatformsDetected   int `json:"platforms_detected"`
	RegistriesHarvested int `json:"registries_harvested"`
	CompaniesUpserted   int `json:"companies_upserted"`
	PrioritiesUpdated   int `json:"priorities_updated"`
	GrowthCompanies     int `json:"growth_companies"`
}

func runFromDomain(r domain.DiscoveryRunResult) runResponse {
	// A clean run still reports sources and errors as empty arrays, never null.
	sources := r.Sources
	if sources == nil {
		sources = []string{}
	}
	errs := r.Errors
	if errs == nil {
		errs = []string{}
	}

	return runResponse{
		RunID:      r.RunID,
		StartedAt:  r.StartedAt,
		EndedAt:    r.EndedAt,
		DurationMS: r.DurationMS,
		Status:     string(r.Status),
		Stats: runStatsResponse{
			CompaniesDiscovered: r.Stats.CompaniesDiscovered,
			PlatformsDetected:   r.Stats.PlatformsDetected,
			RegistriesHarvested: r.Stats.RegistriesHarvested,
			CompaniesUpserted:   r.Stats.CompaniesUpserted,
			PrioritiesUpdated:   r.Stats.PrioritiesUpdated,
			GrowthCompanies:     r.Stats.GrowthCompanies,
		},
		Sources: sources,
		Errors:  errs,
	}
}
