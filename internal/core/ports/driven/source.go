package driven

import (
	"context"

	"github.com/hirelens-labs/hirelens/internal/core/domain"
)

// CompanySource discovers candidate companies from an external directory.
// Each source type (seedfile, fundingdb, websearch, etc.) implements this interface.
//
// Contract: Discover catches internal failures and returns whatever partial
// results it has. A non-nil error signals the source produced nothing usable;
// the aggregator logs it and treats the source as empty. Sources never panic.
type CompanySource interface {
	// ID returns the source type identifier.
	ID() string

	// Spec returns the source descriptor, including config keys and the
	// confidence attached to its records.
	Spec() domain.SourceSpec

	// Capabilities returns what this source supports.
	Capabilities() SourceCapabilities

	// Validate checks if the source is properly configured.
	// Returns domain.ErrMissingCredentials when a required key is unset;
	// sources failing validation are skipped by discovery, not failed.
	Validate(ctx context.Context) error

	// Discover fetches candidate companies from the directory.
	// Records without a domain are dropped before they are returned.
	Discover(ctx context.Context) ([]domain.DiscoveredCompany, error)
}

// SourceCapabilities describes what a source supports.
type SourceCapabilities struct {
	// RequiresCredentials indicates the source needs an API key or token.
	// False for local sources like seedfile.
	RequiresCredentials bool

	// SupportsPagination indicates the source pages through its directory.
	// Sources handle pagination internally; this is informational.
	SupportsPagination bool

	// SupportsRateLimiting indicates the source throttles its own requests.
	SupportsRateLimiting bool
}
