package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/hirelens-labs/hirelens/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/hirelens-labs/hirelens/internal/core/domain"
	"github.com/hirelens-labs/hirelens/internal/core/ports/driven"
)

// Store is a unified SQLite-based storage that provides access to the
// registry, run log, job activity and scheduler store interfaces through
// wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.hirelens/data/registry.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".hirelens", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "registry.db")

	// WAL mode so the scheduler and HTTP surface can read during a run.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// CompanyStore returns a CompanyStore interface backed by this store.
func (s *Store) CompanyStore() driven.CompanyStore {
	return &companyStore{store: s}
}

// RunStore returns a RunStore interface backed by this store.
func (s *Store) RunStore() driven.RunStore {
	return &runStore{store: s}
}

// JobActivityStore returns a JobActivityStore interface backed by this store.
func (s *Store) JobActivityStore() driven.JobActivityStore {
	return &jobActivityStore{store: s}
}

// SchedulerStore returns a SchedulerStore interface backed by this store.
func (s *Store) SchedulerStore() driven.SchedulerStore {
	return &schedulerStore{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Company Store ====================

// companyColumns is the registry column list in scanCompany order.
const companyColumns = `id, name, domain, website, industry, funding_stage,
	employee_count, founded_year, discovery_source, ats_identifiers,
	growth_score, priority_tier, sync_frequency_hours, last_synced_at,
	job_creation_velocity, is_active, created_at, updated_at`

// companyStore implements driven.CompanyStore.
type companyStore struct {
	store *Store
}

var _ driven.CompanyStore = (*companyStore)(nil)

// Upsert inserts or updates companies keyed by domain. New rows get the
// default priority fields; existing rows keep theirs and only refresh
// descriptive fields the incoming record actually knows.
func (s *companyStore) Upsert(ctx context.Context, companies []domain.Company) (int, int, error) {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var inserted, updated int
	now := formatTime(time.Now())

	for _, company := range companies {
		if company.Domain == "" {
			return 0, 0, fmt.Errorf("upserting company %q: %w", company.Name, domain.ErrInvalidInput)
		}

		var existingID, existingATS string
		err := tx.QueryRowContext(ctx,
			"SELECT id, ats_identifiers FROM companies WHERE domain = ?",
			company.Domain).Scan(&existingID, &existingATS)

		switch {
		case err == sql.ErrNoRows:
			if err := insertCompany(ctx, tx, &company, now); err != nil {
				return 0, 0, err
			}
			inserted++
		case err != nil:
			return 0, 0, fmt.Errorf("checking company %s: %w", company.Domain, err)
		default:
			if err := updateCompany(ctx, tx, &company, existingID, existingATS, now); err != nil {
				return 0, 0, err
			}
			updated++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("committing transaction: %w", err)
	}
	return inserted, updated, nil
}

// insertCompany writes a fresh registry row with default priority fields.
func insertCompany(ctx context.Context, tx *sql.Tx, company *domain.Company, now string) error {
	id := company.ID
	if id == "" {
		id = uuid.NewString()
	}

	stage := company.FundingStage
	if stage == "" {
		stage = domain.StageUnknown
	}

	atsJSON, err := encodeIdentifiers(company.ATSIdentifiers)
	if err != nil {
		return fmt.Errorf("encoding identifiers for %s: %w", company.Domain, err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO companies (
			id, name, domain, website, industry, funding_stage,
			employee_count, founded_year, discovery_source, ats_identifiers,
			growth_score, priority_tier, sync_frequency_hours, last_synced_at,
			job_creation_velocity, is_active, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?, NULL, 0, 1, ?, ?)
	`, id, company.Name, company.Domain, company.Website, company.Industry,
		string(stage), company.EmployeeCount, company.FoundedYear,
		company.DiscoverySource, atsJSON,
		string(domain.TierStandard), domain.TierStandard.SyncFrequencyHours(),
		now, now)

	if err != nil {
		return fmt.Errorf("inserting company %s: %w", company.Domain, err)
	}
	return nil
}

// updateCompany refreshes descriptive fields on an existing row. Empty or
// zero incoming values never blank stored ones; identifiers are merged.
func updateCompany(ctx context.Context, tx *sql.Tx, company *domain.Company, existingID, existingATS, now string) error {
	merged, err := mergeIdentifiers(existingATS, company.ATSIdentifiers)
	if err != nil {
		return fmt.Errorf("merging identifiers for %s: %w", company.Domain, err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE companies SET
			name = COALESCE(NULLIF(?, ''), name),
			website = COALESCE(NULLIF(?, ''), website),
			industry = COALESCE(NULLIF(?, ''), industry),
			funding_stage = COALESCE(NULLIF(?, ''), funding_stage),
			employee_count = CASE WHEN ? > 0 THEN ? ELSE employee_count END,
			founded_year = CASE WHEN ? > 0 THEN ? ELSE founded_year END,
			ats_identifiers = ?,
			updated_at = ?
		WHERE id = ?
	`, company.Name, company.Website, company.Industry, string(company.FundingStage),
		company.EmployeeCount, company.EmployeeCount,
		company.FoundedYear, company.FoundedYear,
		merged, now, existingID)

	if err != nil {
		return fmt.Errorf("updating company %s: %w", company.Domain, err)
	}
	return nil
}

// GetByDomain retrieves a company by its normalised domain.
func (s *companyStore) GetByDomain(ctx context.Context, dom string) (*domain.Company, error) {
	row := s.store.db.QueryRowContext(ctx,
		"SELECT "+companyColumns+" FROM companies WHERE domain = ?", dom)

	return scanCompany(row)
}

// ListActive returns active companies ordered by job creation velocity
// descending. limit <= 0 means no limit.
func (s *companyStore) ListActive(ctx context.Context, limit int) ([]domain.Company, error) {
	query := "SELECT " + companyColumns + ` FROM companies
		WHERE is_active = 1
		ORDER BY job_creation_velocity DESC, domain`
	var args []interface{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	return s.queryCompanies(ctx, query, args...)
}

// ListMissingATS returns active companies without ATS identifiers, oldest
// first.
func (s *companyStore) ListMissingATS(ctx context.Context, limit int) ([]domain.Company, error) {
	query := "SELECT " + companyColumns + ` FROM companies
		WHERE is_active = 1 AND ats_identifiers IN ('{}', '', 'null')
		ORDER BY created_at, domain`
	var args []interface{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	return s.queryCompanies(ctx, query, args...)
}

func (s *companyStore) queryCompanies(ctx context.Context, query string, args ...interface{}) ([]domain.Company, error) {
	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying companies: %w", err)
	}
	defer rows.Close()

	var companies []domain.Company //nolint:prealloc // size unknown from query
	for rows.Next() {
		company, err := scanCompany(rows)
		if err != nil {
			return nil, err
		}
		companies = append(companies, *company)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating companies: %w", err)
	}

	return companies, nil
}

// SetIdentifiers merges detected ATS identifiers into a company row.
func (s *companyStore) SetIdentifiers(ctx context.Context, companyID string, ids map[domain.AtsVendor]string) error {
	if len(ids) == 0 {
		return nil
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var existingATS string
	err = tx.QueryRowContext(ctx,
		"SELECT ats_identifiers FROM companies WHERE id = ?", companyID).Scan(&existingATS)
	if err == sql.ErrNoRows {
		return domain.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("reading identifiers for %s: %w", companyID, err)
	}

	merged, err := mergeIdentifiers(existingATS, ids)
	if err != nil {
		return fmt.Errorf("merging identifiers for %s: %w", companyID, err)
	}

	_, err = tx.ExecContext(ctx,
		"UPDATE companies SET ats_identifiers = ?, updated_at = ? WHERE id = ?",
		merged, formatTime(time.Now()), companyID)
	if err != nil {
		return fmt.Errorf("writing identifiers for %s: %w", companyID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// UpdatePriority applies a priority patch to a company.
func (s *companyStore) UpdatePriority(ctx context.Context, companyID string, patch domain.PriorityPatch) error {
	res, err := s.store.db.ExecContext(ctx, `
		UPDATE companies SET
			priority_tier = ?,
			growth_score = ?,
			job_creation_velocity = ?,
			sync_frequency_hours = ?,
			updated_at = ?
		WHERE id = ?
	`, string(patch.Tier), patch.GrowthScore, patch.JobCreationVelocity,
		patch.SyncFrequencyHours, formatTime(time.Now()), companyID)

	if err != nil {
		return fmt.Errorf("updating priority for %s: %w", companyID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking priority update for %s: %w", companyID, err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Count returns the number of registry rows.
func (s *companyStore) Count(ctx context.Context) (int, error) {
	var count int
	err := s.store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM companies").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting companies: %w", err)
	}
	return count, nil
}

// ==================== Run Store ====================

// runStore implements driven.RunStore.
type runStore struct {
	store *Store
}

var _ driven.RunStore = (*runStore)(nil)

// Insert writes a run result. Records are immutable once written.
func (s *runStore) Insert(ctx context.Context, result *domain.DiscoveryRunResult) error {
	if result == nil {
		return domain.ErrInvalidInput
	}

	statsJSON, err := json.Marshal(result.Stats)
	if err != nil {
		return fmt.Errorf("marshalling run stats: %w", err)
	}
	sourcesJSON, err := json.Marshal(result.Sources)
	if err != nil {
		return fmt.Errorf("marshalling run sources: %w", err)
	}
	errorsJSON, err := json.Marshal(result.Errors)
	if err != nil {
		return fmt.Errorf("marshalling run errors: %w", err)
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO runs (run_id, started_at, ended_at, duration_ms, status, stats, sources, errors)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, result.RunID, formatTime(result.StartedAt), formatTime(result.EndedAt),
		result.DurationMS, string(result.Status),
		string(statsJSON), string(sourcesJSON), string(errorsJSON))

	if err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}
	return nil
}

// List returns recent run results, most recent first. limit <= 0 means
// no limit.
func (s *runStore) List(ctx context.Context, limit int) ([]domain.DiscoveryRunResult, error) {
	query := `
		SELECT run_id, started_at, ended_at, duration_ms, status, stats, sources, errors
		FROM runs
		ORDER BY started_at DESC, id DESC`
	var args []interface{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var results []domain.DiscoveryRunResult //nolint:prealloc // size unknown from query
	for rows.Next() {
		result, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, *result)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating runs: %w", err)
	}

	return results, nil
}

// ==================== Job Activity Store ====================

// jobActivityStore implements driven.JobActivityStore against the posting
// history table shared with the job crawler.
type jobActivityStore struct {
	store *Store
}

var _ driven.JobActivityStore = (*jobActivityStore)(nil)

// CountPostings returns how many postings for the company were created in
// [since, until).
func (s *jobActivityStore) CountPostings(ctx context.Context, companyID string, since, until time.Time) (int, error) {
	var count int
	err := s.store.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM job_postings
		WHERE company_id = ? AND created_at >= ? AND created_at < ?
	`, companyID, formatTime(since), formatTime(until)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting postings for %s: %w", companyID, err)
	}
	return count, nil
}

// AvgTimeToFill returns the mean days from posting to close for postings
// created since the given time. Returns 0 when there is no closed history.
func (s *jobActivityStore) AvgTimeToFill(ctx context.Context, companyID string, since time.Time) (float64, error) {
	var avg sql.NullFloat64
	err := s.store.db.QueryRowContext(ctx, `
		SELECT AVG(julianday(closed_at) - julianday(created_at))
		FROM job_postings
		WHERE company_id = ? AND closed_at IS NOT NULL AND created_at >= ?
	`, companyID, formatTime(since)).Scan(&avg)
	if err != nil {
		return 0, fmt.Errorf("averaging time to fill for %s: %w", companyID, err)
	}
	return avg.Float64, nil
}

// ==================== Helper Functions ====================

// scanner abstracts *sql.Row and *sql.Rows for shared scan helpers.
type scanner interface {
	Scan(dest ...interface{}) error
}

// scanCompany scans a registry row in companyColumns order.
func scanCompany(sc scanner) (*domain.Company, error) {
	var (
		company          domain.Company
		stage, tier      string
		atsJSON          string
		lastSynced       sql.NullString
		created, updated string
		active           int
	)

	err := sc.Scan(&company.ID, &company.Name, &company.Domain, &company.Website,
		&company.Industry, &stage, &company.EmployeeCount, &company.FoundedYear,
		&company.DiscoverySource, &atsJSON, &company.GrowthScore, &tier,
		&company.SyncFrequencyHours, &lastSynced, &company.JobCreationVelocity,
		&active, &created, &updated)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning company: %w", err)
	}

	company.FundingStage = domain.FundingStage(stage)
	company.PriorityTier = domain.PriorityTier(tier)
	company.IsActive = active == 1
	company.CreatedAt = parseTime(created)
	company.UpdatedAt = parseTime(updated)
	if t := parseNullableTime(lastSynced); !t.IsZero() {
		company.LastSyncedAt = &t
	}

	ids, err := decodeIdentifiers(atsJSON)
	if err != nil {
		return nil, fmt.Errorf("decoding identifiers for %s: %w", company.Domain, err)
	}
	company.ATSIdentifiers = ids

	return &company, nil
}

// scanRun scans a run log row.
func scanRun(sc scanner) (*domain.DiscoveryRunResult, error) {
	var (
		result         domain.DiscoveryRunResult
		started, ended string
		status         string
		statsJSON      string
		sourcesJSON    string
		errorsJSON     string
	)

	err := sc.Scan(&result.RunID, &started, &ended, &result.DurationMS,
		&status, &statsJSON, &sourcesJSON, &errorsJSON)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning run: %w", err)
	}

	result.StartedAt = parseTime(started)
	result.EndedAt = parseTime(ended)
	result.Status = domain.RunStatus(status)

	if err := json.Unmarshal([]byte(statsJSON), &result.Stats); err != nil {
		return nil, fmt.Errorf("unmarshaling run stats: %w", err)
	}
	if err := json.Unmarshal([]byte(sourcesJSON), &result.Sources); err != nil {
		return nil, fmt.Errorf("unmarshaling run sources: %w", err)
	}
	if err := json.Unmarshal([]byte(errorsJSON), &result.Errors); err != nil {
		return nil, fmt.Errorf("unmarshaling run errors: %w", err)
	}

	return &result, nil
}

// encodeIdentifiers marshals an ATS identifier map for storage.
func encodeIdentifiers(ids map[domain.AtsVendor]string) (string, error) {
	if len(ids) == 0 {
		return "{}", nil
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// decodeIdentifiers unmarshals a stored ATS identifier map.
// Empty maps come back as nil so registry rows compare cleanly.
func decodeIdentifiers(s string) (map[domain.AtsVendor]string, error) {
	if s == "" || s == "{}" || s == "null" {
		return nil, nil
	}
	var ids map[domain.AtsVendor]string
	if err := json.Unmarshal([]byte(s), &ids); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}
	return ids, nil
}

// mergeIdentifiers overlays incoming identifiers onto a stored JSON map.
// Incoming values win per vendor.
func mergeIdentifiers(existingJSON string, incoming map[domain.AtsVendor]string) (string, error) {
	existing, err := decodeIdentifiers(existingJSON)
	if err != nil {
		return "", err
	}
	if len(incoming) == 0 {
		return encodeIdentifiers(existing)
	}
	if existing == nil {
		existing = make(map[domain.AtsVendor]string, len(incoming))
	}
	for vendor, id := range incoming {
		existing[vendor] = id
	}
	return encodeIdentifiers(existing)
}

// formatTime formats a timestamp as an RFC3339 UTC string. All table
// timestamps use this form so lexicographic order is chronological.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// parseTime parses an RFC3339 string to time.Time.
// Returns zero time if the string is empty or invalid.
func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// formatNullableTime formats a time to RFC3339 string, or returns nil for zero time.
func formatNullableTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return formatTime(t)
}

// parseNullableTime parses a nullable RFC3339 string to time.Time.
// Returns zero time if the string is empty or invalid.
func parseNullableTime(s sql.NullString) time.Time {
	if !s.Valid || s.String == "" {
		return time.Time{}
	}
	return parseTime(s.String)
}

// nullString returns nil for empty strings, otherwise the string.
func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// boolToInt converts a bool to 1 (true) or 0 (false).
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
