package services

import (
	"context"
	"fmt"

	"github.com/hirelens-labs/hirelens/internal/core/domain"
	"github.com/hirelens-labs/hirelens/internal/core/ports/driven"
	"github.com/hirelens-labs/hirelens/internal/core/ports/driving"
	"github.com/hirelens-labs/hirelens/internal/logger"
)

// Compile-time interface check
var _ driving.CompanyService = (*CompanyService)(nil)

// CompanyService answers registry queries for the CLI, HTTP and MCP surfaces.
// It reads through the store; the only computation it adds is the growth
// filter, which reuses the scoring service's definition.
type CompanyService struct {
	store   driven.CompanyStore
	scoring *ScoringService
}

// NewCompanyService creates a read facade over the company registry.
func NewCompanyService(store driven.CompanyStore, scoring *ScoringService) *CompanyService {
	return &CompanyService{store: store, scoring: scoring}
}

// List returns active companies matching the filter, ordered by job creation
// velocity descending. The limit applies after filtering.
func (s *CompanyService) List(ctx context.Context, filter driving.CompanyFilter) ([]domain.Company, error) {
	companies, err := s.store.ListActive(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}

	matched := make([]domain.Company, 0, len(companies))
	for i := range companies {
		company := &companies[i]

		if filter.Tier != "" && company.PriorityTier != filter.Tier {
			continue
		}
		if filter.MissingATS && company.HasATS() {
			continue
		}
		if filter.GrowthOnly {
			growth, err := s.scoring.IsGrowthCompany(ctx, company)
			if err != nil {
				logger.Debug("Growth check failed for %s, excluding from results: %v", company.Domain, err)
				continue
			}
			if !growth {
				continue
			}
		}

		matched = append(matched, *company)
		if filter.Limit > 0 && len(matched) >= filter.Limit {
			break
		}
	}

	return matched, nil
}

// Get retrieves one company by domain. The input is normalised first, so
// full URLs and www-prefixed hosts resolve to the same row.
func (s *CompanyService) Get(ctx context.Context, companyDomain string) (*domain.Company, error) {
	normalized := domain.NormalizeDomain(companyDomain)
	if normalized == "" {
		return nil, domain.ErrInvalidInput
	}
	return s.store.GetByDomain(ctx, normalized)
}

// Count returns the registry size.
func (s *CompanyService) Count(ctx context.Context) (int, error) {
	return s.store.Count(ctx)
}
