package mcp

import (
	"github.com/hirelens-labs/hirelens/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Pipeline triggers discovery runs and exposes run history.
	Pipeline driving.DiscoveryPipeline

	// Companies queries the company registry.
	Companies driving.CompanyService

	// Sources lists the configured discovery sources.
	Sources driving.SourceCatalog
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Pipeline == nil {
		return ErrMissingPipeline
	}
	if p.Companies == nil {
		return ErrMissingCompanyService
	}
	// Sources is optional; the sources resource degrades to an empty list.
	return nil
}
