package driving

import (
	"context"

	"github.com/hirelens-labs/hirelens/internal/core/domain"
)

// SourceStatus describes a registered source and whether it can run.
type SourceStatus struct {
	// Spec is the source descriptor.
	Spec domain.SourceSpec

	// Enabled indicates the source passed validation and will participate
	// in the next discovery run.
	Enabled bool

	// Reason explains why a source is disabled, empty when enabled.
	Reason string
}

// SourceCatalog manages the registered discovery sources.
type SourceCatalog interface {
	// List returns every registered source with its enablement state.
	List(ctx context.Context) ([]SourceStatus, error)

	// SetCredential stores a credential config value for a source
	// (e.g., an API key) and persists it.
	SetCredential(ctx context.Context, sourceID, key, value string) error

	// Enabled returns the IDs of sources that will participate in discovery.
	Enabled(ctx context.Context) []string
}
