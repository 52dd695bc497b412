package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hirelens-labs/hirelens/internal/core/domain"
	"github.com/hirelens-labs/hirelens/internal/core/ports/driven"
)

// Ensure CompanyStore implements the interface.
var _ driven.CompanyStore = (*CompanyStore)(nil)

// CompanyStore is an in-memory implementation of driven.CompanyStore.
// It mirrors the SQLite adapter's upsert semantics so tests exercise the
// same contract: defaults on insert, descriptive-only refresh on update.
type CompanyStore struct {
	mu        sync.RWMutex
	companies map[string]domain.Company // keyed by normalised domain
	now       func() time.Time
}

// NewCompanyStore creates a new in-memory company store.
func NewCompanyStore() *CompanyStore {
	return &CompanyStore{
		companies: make(map[string]domain.Company),
		now:       time.Now,
	}
}

// Upsert inserts or updates companies keyed by domain.
func (s *CompanyStore) Upsert(_ context.Context, companies []domain.Company) (int, int, error) {
	// Validate up front so a bad record never leaves a partial batch.
	for _, company := range companies {
		if company.Domain == "" {
			return 0, 0, fmt.Errorf("upserting company %q: %w", company.Name, domain.ErrInvalidInput)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var inserted, updated int
	now := s.now().UTC()

	for _, company := range companies {
		existing, ok := s.companies[company.Domain]
		if !ok {
			s.companies[company.Domain] = s.newRow(company, now)
			inserted++
			continue
		}
		s.companies[company.Domain] = refreshRow(existing, company, now)
		updated++
	}

	return inserted, updated, nil
}

// newRow builds a fresh registry row with default priority fields.
func (s *CompanyStore) newRow(company domain.Company, now time.Time) domain.Company {
	if company.ID == "" {
		company.ID = uuid.NewString()
	}
	if company.FundingStage == "" {
		company.FundingStage = domain.StageUnknown
	}
	company.ATSIdentifiers = cloneIdentifiers(company.ATSIdentifiers)
	company.GrowthScore = 0
	company.PriorityTier = domain.TierStandard
	company.SyncFrequencyHours = domain.TierStandard.SyncFrequencyHours()
	company.LastSyncedAt = nil
	company.JobCreationVelocity = 0
	company.IsActive = true
	company.CreatedAt = now
	company.UpdatedAt = now
	return company
}

// refreshRow applies an incoming record to a stored one. Empty or zero
// incoming values never blank stored ones; identifiers are merged with
// incoming values winning; priority fields and provenance stay put.
func refreshRow(existing, incoming domain.Company, now time.Time) domain.Company {
	if incoming.Name != "" {
		existing.Name = incoming.Name
	}
	if incoming.Website != "" {
		existing.Website = incoming.Website
	}
	if incoming.Industry != "" {
		existing.Industry = incoming.Industry
	}
	if incoming.FundingStage != "" {
		existing.FundingStage = incoming.FundingStage
	}
	if incoming.EmployeeCount > 0 {
		existing.EmployeeCount = incoming.EmployeeCount
	}
	if incoming.FoundedYear > 0 {
		existing.FoundedYear = incoming.FoundedYear
	}
	if len(incoming.ATSIdentifiers) > 0 {
		merged := cloneIdentifiers(existing.ATSIdentifiers)
		if merged == nil {
			merged = make(map[domain.AtsVendor]string, len(incoming.ATSIdentifiers))
		}
		for vendor, id := range incoming.ATSIdentifiers {
			merged[vendor] = id
		}
		existing.ATSIdentifiers = merged
	}
	existing.UpdatedAt = now
	return existing
}

// GetByDomain retrieves a company by its normalised domain.
func (s *CompanyStore) GetByDomain(_ context.Context, dom string) (*domain.Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	company, ok := s.companies[dom]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := cloneCompany(company)
	return &copied, nil
}

// ListActive returns active companies ordered by job creation velocity
// descending, domain ascending on ties.
func (s *CompanyStore) ListActive(_ context.Context, limit int) ([]domain.Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var listed []domain.Company
	for _, company := range s.companies {
		if !company.IsActive {
			continue
		}
		listed = append(listed, cloneCompany(company))
	}

	sort.Slice(listed, func(i, j int) bool {
		if listed[i].JobCreationVelocity != listed[j].JobCreationVelocity {
			return listed[i].JobCreationVelocity > listed[j].JobCreationVelocity
		}
		return listed[i].Domain < listed[j].Domain
	})

	if limit > 0 && len(listed) > limit {
		listed = listed[:limit]
	}
	return listed, nil
}

// ListMissingATS returns active companies without ATS identifiers, oldest
// first.
func (s *CompanyStore) ListMissingATS(_ context.Context, limit int) ([]domain.Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var listed []domain.Company
	for _, company := range s.companies {
		if !company.IsActive || len(company.ATSIdentifiers) > 0 {
			continue
		}
		listed = append(listed, cloneCompany(company))
	}

	sort.Slice(listed, func(i, j int) bool {
		if !listed[i].CreatedAt.Equal(listed[j].CreatedAt) {
			return listed[i].CreatedAt.Before(listed[j].CreatedAt)
		}
		return listed[i].Domain < listed[j].Domain
	})

	if limit > 0 && len(listed) > limit {
		listed = listed[:limit]
	}
	return listed, nil
}

// SetIdentifiers merges detected ATS identifiers into a company's stored set.
func (s *CompanyStore) SetIdentifiers(_ context.Context, companyID string, ids map[domain.AtsVendor]string) error {
	if len(ids) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for dom, company := range s.companies {
		if company.ID != companyID {
			continue
		}
		merged := cloneIdentifiers(company.ATSIdentifiers)
		if merged == nil {
			merged = make(map[domain.AtsVendor]string, len(ids))
		}
		for vendor, id := range ids {
			merged[vendor] = id
		}
		company.ATSIdentifiers = merged
		company.UpdatedAt = s.now().UTC()
		s.companies[dom] = company
		return nil
	}
	return domain.ErrNotFound
}

// UpdatePriority applies a priority patch to a company.
func (s *CompanyStore) UpdatePriority(_ context.Context, companyID string, patch domain.PriorityPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for dom, company := range s.companies {
		if company.ID != companyID {
			continue
		}
		company.PriorityTier = patch.Tier
		company.GrowthScore = patch.GrowthScore
		company.JobCreationVelocity = patch.JobCreationVelocity
		company.SyncFrequencyHours = patch.SyncFrequencyHours
		company.UpdatedAt = s.now().UTC()
		s.companies[dom] = company
		return nil
	}
	return domain.ErrNotFound
}

// Count returns the number of registry rows.
func (s *CompanyStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.companies), nil
}

// cloneCompany deep-copies a company so callers cannot mutate stored state.
func cloneCompany(company domain.Company) domain.Company {
	company.ATSIdentifiers = cloneIdentifiers(company.ATSIdentifiers)
	if company.LastSyncedAt != nil {
		synced := *company.LastSyncedAt
		company.LastSyncedAt = &synced
	}
	return company
}

func cloneIdentifiers(ids map[domain.AtsVendor]string) map[domain.AtsVendor]string {
	if ids == nil {
		return nil
	}
	cloned := make(map[domain.AtsVendor]string, len(ids))
	for vendor, id := range ids {
		cloned[vendor] = id
	}
	return cloned
}
