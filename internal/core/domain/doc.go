// Package domain defines the core business entities for HireLens.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Company: A tracked employer in the registry
//   - DiscoveredCompany: A candidate company reported by a source
//   - PlatformDetection: The ATS identifiers found for a company
//   - DiscoveryRunResult: The audit record for one pipeline run
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
