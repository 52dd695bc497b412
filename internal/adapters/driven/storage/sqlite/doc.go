// Package sqlite provides a unified SQLite-based implementation of driven port interfaces.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. It implements multiple store interfaces
// through a single database connection:
//
//   - CompanyStore: company registry persistence
//   - RunStore: pipeline run audit log
//   - JobActivityStore: read access to the crawler's posting history
//   - SchedulerStore: scheduler task state and execution history
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
// Timestamps are stored as RFC3339 UTC strings so lexicographic comparison in
// SQL matches chronological order.
//
// # Data Location
//
// By default, the database is stored at ~/.hirelens/data/registry.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode.
package sqlite
