package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/hirelens-labs/hirelens/internal/core/domain"
	"github.com/hirelens-labs/hirelens/internal/core/ports/driven"
	"github.com/hirelens-labs/hirelens/internal/core/ports/driving"
)

// Ensure SourceCatalog implements the interface.
var _ driving.SourceCatalog = (*SourceCatalog)(nil)

// SourceCatalog holds the registered discovery sources.
// Registration order is significant: discovery iterates sources in this
// order and the first source to report a domain wins dedup.
type SourceCatalog struct {
	config driven.ConfigStore

	mu      sync.RWMutex
	sources []driven.CompanySource
}

// NewSourceCatalog creates an empty catalog.
// Sources are registered during wiring, highest-confidence first.
func NewSourceCatalog(config driven.ConfigStore) *SourceCatalog {
	return &SourceCatalog{config: config}
}

// Register adds a source to the catalog.
// Registering two sources with the same ID is a wiring bug; the second
// registration is ignored.
func (c *SourceCatalog) Register(source driven.CompanySource) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, existing := range c.sources {
		if existing.ID() == source.ID() {
			return
		}
	}
	c.sources = append(c.sources, source)
}

// List returns every registered source with its enablement state.
func (c *SourceCatalog) List(ctx context.Context) ([]driving.SourceStatus, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	statuses := make([]driving.SourceStatus, 0, len(c.sources))
	for _, source := range c.sources {
		status := driving.SourceStatus{Spec: source.Spec(), Enabled: true}
		if err := source.Validate(ctx); err != nil {
			status.Enabled = false
			status.Reason = err.Error()
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

// SetCredential stores a credential config value for a source and persists it.
func (c *SourceCatalog) SetCredential(_ context.Context, sourceID, key, value string) error {
	source, err := c.get(sourceID)
	if err != nil {
		return err
	}

	known := false
	for _, ck := range source.Spec().ConfigKeys {
		if ck.Key == key {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("source %s has no config key %q: %w", sourceID, key, domain.ErrInvalidInput)
	}

	return c.config.Set(SourceConfigKey(sourceID, key), value)
}

// Enabled returns the IDs of sources that pass validation,
// in registration order.
func (c *SourceCatalog) Enabled(ctx context.Context) []string {
	enabled := c.EnabledSources(ctx)
	ids := make([]string, 0, len(enabled))
	for _, source := range enabled {
		ids = append(ids, source.ID())
	}
	return ids
}

// EnabledSources returns the sources that pass validation, in registration
// order. Discovery iterates exactly this slice.
func (c *SourceCatalog) EnabledSources(ctx context.Context) []driven.CompanySource {
	c.mu.RLock()
	defer c.mu.RUnlock()

	enabled := make([]driven.CompanySource, 0, len(c.sources))
	for _, source := range c.sources {
		if err := source.Validate(ctx); err != nil {
			continue
		}
		enabled = append(enabled, source)
	}
	return enabled
}

// Get returns a registered source by ID.
func (c *SourceCatalog) Get(id string) (driven.CompanySource, error) {
	return c.get(id)
}

func (c *SourceCatalog) get(id string) (driven.CompanySource, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, source := range c.sources {
		if source.ID() == id {
			return source, nil
		}
	}
	return nil, fmt.Errorf("source %s: %w", id, domain.ErrNotFound)
}

// SourceConfigKey returns the config key a source reads a field from.
// Sources and the catalog must agree on this layout.
func SourceConfigKey(sourceID, key string) string {
	return "sources." + sourceID + "." + key
}
