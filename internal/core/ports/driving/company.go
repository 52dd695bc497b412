package driving

import (
	"context"

	"github.com/hirelens-labs/hirelens/internal/core/domain"
)

// CompanyFilter narrows company listings.
type CompanyFilter struct {
	// GrowthOnly restricts results to companies flagged as growth companies.
	GrowthOnly bool

	// Tier restricts results to one priority tier when non-empty.
	Tier domain.PriorityTier

	// MissingATS restricts results to companies without ATS identifiers.
	MissingATS bool

	// Limit caps the result count. <= 0 means no limit.
	Limit int
}

// CompanyService exposes registry queries to the CLI, HTTP and MCP surfaces.
type CompanyService interface {
	// List returns companies matching the filter, ordered by velocity descending.
	List(ctx context.Context, filter CompanyFilter) ([]domain.Company, error)

	// Get retrieves one company by normalised domain.
	Get(ctx context.Context, companyDomain string) (*domain.Company, error)

	// Count returns the registry size.
	Count(ctx context.Context) (int, error)
}
