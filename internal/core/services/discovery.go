package services

import (
	"context"

	"github.com/hirelens-labs/hirelens/internal/core/domain"
	"github.com/hirelens-labs/hirelens/internal/logger"
	"github.com/hirelens-labs/hirelens/internal/metrics"
)

// DiscoveryService aggregates candidate companies across the enabled sources.
type DiscoveryService struct {
	catalog *SourceCatalog
	metrics *metrics.Metrics
}

// NewDiscoveryService creates a discovery aggregator over the catalog.
// metrics may be nil.
func NewDiscoveryService(catalog *SourceCatalog, m *metrics.Metrics) *DiscoveryService {
	return &DiscoveryService{catalog: catalog, metrics: m}
}

// RunCompanyDiscovery queries every enabled source in registration order and
// merges the results, deduplicating by domain. The first source to report a
// domain wins; later duplicates are dropped silently. A failing source
// contributes zero results and never fails the aggregate.
//
// Returns the merged records and the IDs of the sources that participated.
func (s *DiscoveryService) RunCompanyDiscovery(ctx context.Context) ([]domain.DiscoveredCompany, []string) {
	sources := s.catalog.EnabledSources(ctx)

	var merged []domain.DiscoveredCompany
	participated := make([]string, 0, len(sources))
	seen := make(map[string]string) // domain -> winning source

	for _, source := range sources {
		participated = append(participated, source.ID())

		records, err := source.Discover(ctx)
		if err != nil {
			logger.Warn("Source %s failed, continuing with remaining sources: %v", source.ID(), err)
			continue
		}

		kept := 0
		for _, record := range records {
			if !record.Valid() {
				logger.Debug("Dropping invalid record from %s (name=%q domain=%q)",
					source.ID(), record.Name, record.Domain)
				continue
			}
			if winner, dup := seen[record.Domain]; dup {
				logger.Debug("Duplicate domain %s from %s already reported by %s",
					record.Domain, source.ID(), winner)
				continue
			}
			seen[record.Domain] = source.ID()
			merged = append(merged, record)
			kept++
		}

		s.metrics.RecordDiscovered(source.ID(), kept)
		logger.Info("Source %s reported %d companies (%d new)", source.ID(), len(records), kept)
	}

	logger.Info("Discovery complete: %d unique companies across %d sources",
		len(merged), len(participated))
	return merged, participated
}
