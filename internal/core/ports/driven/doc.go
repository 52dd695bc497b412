// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the pipeline to function:
//
//   - CompanySource: Discovers candidate companies from a directory
//   - CompanyStore: Company registry persistence
//   - RunStore: Pipeline audit record persistence
//   - PageFetcher: Careers-page retrieval for platform detection
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the pipeline degrades gracefully:
//
//   - JobActivityStore: Posting history. Without it, scoring treats every
//     company as having no history and priorities stay put.
//   - BoardProber: Vendor board APIs. Without it, the harvest phase is a no-op.
//   - SchedulerStore: Task state. Without it, the scheduler runs stateless.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or source package
package driven
