package driven

import (
	"context"
	"time"

	"github.com/hirelens-labs/hirelens/internal/core/domain"
)

// CompanyStore persists the company registry.
// Backed by SQLite by default; a Postgres adapter exists for shared deployments.
type CompanyStore interface {
	// Upsert inserts or updates companies keyed by domain.
	// New rows get tier "standard", growth score 0 and IsActive true.
	// Existing rows keep their priority fields; only descriptive fields and
	// ATS identifiers are refreshed. Returns insert and update counts.
	Upsert(ctx context.Context, companies []domain.Company) (inserted, updated int, err error)

	// GetByDomain retrieves a company by its normalised domain.
	// Returns domain.ErrNotFound if no row exists.
	GetByDomain(ctx context.Context, dom string) (*domain.Company, error)

	// ListActive returns active companies ordered by job creation velocity
	// descending. limit <= 0 means no limit.
	ListActive(ctx context.Context, limit int) ([]domain.Company, error)

	// ListMissingATS returns active companies that have no ATS identifiers,
	// oldest first. Used by the harvest and detection phases.
	ListMissingATS(ctx context.Context, limit int) ([]domain.Company, error)

	// SetIdentifiers records detected ATS identifiers for a company.
	// Merges with any identifiers already stored.
	SetIdentifiers(ctx context.Context, companyID string, ids map[domain.AtsVendor]string) error

	// UpdatePriority applies a priority patch to a company.
	UpdatePriority(ctx context.Context, companyID string, patch domain.PriorityPatch) error

	// Count returns the number of registry rows.
	Count(ctx context.Context) (int, error)
}

// JobActivityStore reads the posting history written by the job crawler.
// Read-only from this pipeline's point of view.
type JobActivityStore interface {
	// CountPostings returns how many postings for the company were created
	// in [since, until).
	CountPostings(ctx context.Context, companyID string, since, until time.Time) (int, error)

	// AvgTimeToFill returns the mean days from posting to close for postings
	// created since the given time. Returns 0 when there is no closed history.
	AvgTimeToFill(ctx context.Context, companyID string, since time.Time) (float64, error)
}

// RunStore persists pipeline audit records.
type RunStore interface {
	// Insert writes a run result. Records are immutable once written.
	Insert(ctx context.Context, result *domain.DiscoveryRunResult) error

	// List returns recent run results, most recent first.
	List(ctx context.Context, limit int) ([]domain.DiscoveryRunResult, error)
}
