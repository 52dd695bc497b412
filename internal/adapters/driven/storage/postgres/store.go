// Package postgres implements the registry stores on PostgreSQL for shared
// deployments where several crawler instances read the same registry. The
// SQLite adapter remains the single-machine default.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" // database/sql driver for migrations
	"github.com/pressly/goose/v3"

	"github.com/hirelens-labs/hirelens/internal/adapters/driven/storage/postgres/migrations"
	"github.com/hirelens-labs/hirelens/internal/core/domain"
	"github.com/hirelens-labs/hirelens/internal/core/ports/driven"
)

// Store wraps a pgx connection pool and provides access to the
// individual stores.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore connects to Postgres, applies pending migrations and returns the
// store. The URL is a standard Postgres connection string.
func NewStore(ctx context.Context, url string) (*Store, error) {
	if err := runMigrations(url); err != nil {
		return nil, err
	}

	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parsing postgres url: %w", err)
	}
	cfg.MaxConns = 10
	cfg.HealthCheckPeriod = 30 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}

	return &Store{pool: pool}, nil
}

// runMigrations applies embedded goose migrations over a short-lived
// database/sql connection. The pool itself never runs DDL.
func runMigrations(url string) error {
	db, err := sql.Open("pgx", url)
	if err != nil {
		return fmt.Errorf("opening migration connection: %w", err)
	}
	defer db.Close() //nolint:errcheck

	goose.SetBaseFS(migrations.FS)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("setting migration dialect: %w", err)
	}
	if err := goose.Up(db, "."); err != nil {
		return fmt.Errorf("applying migrations: %w", err)
	}
	return nil
}

// Close closes the connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

// CompanyStore returns the company registry store.
func (s *Store) CompanyStore() driven.CompanyStore {
	return &companyStore{store: s}
}

// RunStore returns the pipeline audit store.
func (s *Store) RunStore() driven.RunStore {
	return &runStore{store: s}
}

// JobActivityStore returns the posting-history reader.
func (s *Store) JobActivityStore() driven.JobActivityStore {
	return &jobActivityStore{store: s}
}

// SchedulerStore returns the scheduler state store.
func (s *Store) SchedulerStore() driven.SchedulerStore {
	return &schedulerStore{store: s}
}

// ==================== Company Store ====================

const companyColumns = `id, name, domain, website, industry, funding_stage,
	employee_count, founded_year, discovery_source, ats_identifiers,
	growth_score, priority_tier, sync_frequency_hours, last_synced_at,
	job_creation_velocity, is_active, created_at, updated_at`

// companyStore implements driven.CompanyStore.
type companyStore struct {
	store *Store
}

var _ driven.CompanyStore = (*companyStore)(nil)

// upsertCompanySQL inserts a registry row with default priority fields, or
// refreshes the descriptive fields of an existing one. Empty or zero incoming
// values never blank stored ones; identifiers merge with incoming winning;
// priority fields and discovery provenance stay put. xmax = 0 distinguishes a
// fresh insert from a conflict update.
const upsertCompanySQL = `
	INSERT INTO companies (
		id, name, domain, website, industry, funding_stage,
		employee_count, founded_year, discovery_source, ats_identifiers,
		growth_score, priority_tier, sync_frequency_hours, last_synced_at,
		job_creation_velocity, is_active, created_at, updated_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10::jsonb, 0, $11, $12, NULL, 0, TRUE, now(), now())
	ON CONFLICT (domain) DO UPDATE SET
		name = COALESCE(NULLIF(EXCLUDED.name, ''), companies.name),
		website = COALESCE(NULLIF(EXCLUDED.website, ''), companies.website),
		industry = COALESCE(NULLIF(EXCLUDED.industry, ''), companies.industry),
		funding_stage = COALESCE(NULLIF(EXCLUDED.funding_stage, 'unknown'), companies.funding_stage),
		employee_count = CASE WHEN EXCLUDED.employee_count > 0 THEN EXCLUDED.employee_count ELSE companies.employee_count END,
		founded_year = CASE WHEN EXCLUDED.founded_year > 0 THEN EXCLUDED.founded_year ELSE companies.founded_year END,
		ats_identifiers = companies.ats_identifiers || EXCLUDED.ats_identifiers,
		updated_at = now()
	RETURNING (xmax = 0)`

// Upsert inserts or updates companies keyed by domain.
func (s *companyStore) Upsert(ctx context.Context, companies []domain.Company) (int, int, error) {
	tx, err := s.store.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	var inserted, updated int
	for _, company := range companies {
		if company.Domain == "" {
			return 0, 0, fmt.Errorf("upserting company %q: %w", company.Name, domain.ErrInvalidInput)
		}

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
			return 0, 0, fmt.Errorf("encoding identifiers for %s: %w", company.Domain, err)
		}

		var freshInsert bool
		err = tx.QueryRow(ctx, upsertCompanySQL,
			id, company.Name, company.Domain, company.Website, company.Industry,
			string(stage), company.EmployeeCount, company.FoundedYear,
			company.DiscoverySource, atsJSON,
			string(domain.TierStandard), domain.TierStandard.SyncFrequencyHours(),
		).Scan(&freshInsert)
		if err != nil {
			return 0, 0, fmt.Errorf("upserting company %s: %w", company.Domain, err)
		}

		if freshInsert {
			inserted++
		} else {
			updated++
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, 0, fmt.Errorf("committing transaction: %w", err)
	}
	return inserted, updated, nil
}

// GetByDomain retrieves a company by its normalised domain.
func (s *companyStore) GetByDomain(ctx context.Context, dom string) (*domain.Company, error) {
	row := s.store.pool.QueryRow(ctx,
		"SELECT "+companyColumns+" FROM companies WHERE domain = $1", dom)
	return scanCompany(row)
}

// ListActive returns active companies ordered by job creation velocity
// descending.
func (s *companyStore) ListActive(ctx context.Context, limit int) ([]domain.Company, error) {
	query := "SELECT " + companyColumns + ` FROM companies
		WHERE is_active ORDER BY job_creation_velocity DESC, domain`
	if limit > 0 {
		return s.queryCompanies(ctx, query+" LIMIT $1", limit)
	}
	return s.queryCompanies(ctx, query)
}

// ListMissingATS returns active companies without ATS identifiers, oldest
// first.
func (s *companyStore) ListMissingATS(ctx context.Context, limit int) ([]domain.Company, error) {
	query := "SELECT " + companyColumns + ` FROM companies
		WHERE is_active AND ats_identifiers = '{}'::jsonb
		ORDER BY created_at, domain`
	if limit > 0 {
		return s.queryCompanies(ctx, query+" LIMIT $1", limit)
	}
	return s.queryCompanies(ctx, query)
}

func (s *companyStore) queryCompanies(ctx context.Context, query string, args ...interface{}) ([]domain.Company, error) {
	rows, err := s.store.pool.Query(ctx, query, args...)
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

// SetIdentifiers merges detected ATS identifiers into a company's stored set.
func (s *companyStore) SetIdentifiers(ctx context.Context, companyID string, ids map[domain.AtsVendor]string) error {
	if len(ids) == 0 {
		return nil
	}

	incoming, err := encodeIdentifiers(ids)
	if err != nil {
		return fmt.Errorf("encoding identifiers: %w", err)
	}

	tag, err := s.store.pool.Exec(ctx, `
		UPDATE companies SET
			ats_identifiers = ats_identifiers || $1::jsonb,
			updated_at = now()
		WHERE id = $2
	`, incoming, companyID)
	if err != nil {
		return fmt.Errorf("setting identifiers: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// UpdatePriority applies a priority patch to a company.
func (s *companyStore) UpdatePriority(ctx context.Context, companyID string, patch domain.PriorityPatch) error {
	tag, err := s.store.pool.Exec(ctx, `
		UPDATE companies SET
			priority_tier = $1,
			growth_score = $2,
			job_creation_velocity = $3,
			sync_frequency_hours = $4,
			updated_at = now()
		WHERE id = $5
	`, string(patch.Tier), patch.GrowthScore, patch.JobCreationVelocity,
		patch.SyncFrequencyHours, companyID)
	if err != nil {
		return fmt.Errorf("updating priority: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Count returns the number of registry rows.
func (s *companyStore) Count(ctx context.Context) (int, error) {
	var count int
	err := s.store.pool.QueryRow(ctx, "SELECT COUNT(*) FROM companies").Scan(&count)
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

	stats, err := json.Marshal(result.Stats)
	if err != nil {
		return fmt.Errorf("encoding run stats: %w", err)
	}
	sources, err := json.Marshal(result.Sources)
	if err != nil {
		return fmt.Errorf("encoding run sources: %w", err)
	}
	errs, err := json.Marshal(result.Errors)
	if err != nil {
		return fmt.Errorf("encoding run errors: %w", err)
	}

	_, err = s.store.pool.Exec(ctx, `
		INSERT INTO runs (run_id, started_at, ended_at, duration_ms, status, stats, sources, errors)
		VALUES ($1, $2, $3, $4, $5, $6::jsonb, $7::jsonb, $8::jsonb)
	`, result.RunID, result.StartedAt, result.EndedAt, result.DurationMS,
		string(result.Status), stats, sources, errs)
	if err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}
	return nil
}

// List returns recent run results, most recent first.
func (s *runStore) List(ctx context.Context, limit int) ([]domain.DiscoveryRunResult, error) {
	query := `
		SELECT run_id, started_at, ended_at, duration_ms, status, stats, sources, errors
		FROM runs ORDER BY started_at DESC, id DESC`
	var args []interface{}
	if limit > 0 {
		query += " LIMIT $1"
		args = append(args, limit)
	}

	rows, err := s.store.pool.Query(ctx, query, args...)
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

// jobActivityStore implements driven.JobActivityStore.
type jobActivityStore struct {
	store *Store
}

var _ driven.JobActivityStore = (*jobActivityStore)(nil)

// CountPostings returns how many postings for the company were created in
// [since, until).
func (s *jobActivityStore) CountPostings(ctx context.Context, companyID string, since, until time.Time) (int, error) {
	var count int
	err := s.store.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM job_postings
		WHERE company_id = $1 AND created_at >= $2 AND created_at < $3
	`, companyID, since, until).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting postings: %w", err)
	}
	return count, nil
}

// AvgTimeToFill returns the mean days from posting to close for postings
// created since the given time.
func (s *jobActivityStore) AvgTimeToFill(ctx context.Context, companyID string, since time.Time) (float64, error) {
	var avg *float64
	err := s.store.pool.QueryRow(ctx, `
		SELECT AVG(EXTRACT(EPOCH FROM (closed_at - created_at)) / 86400.0)
		FROM job_postings
		WHERE company_id = $1 AND closed_at IS NOT NULL AND created_at >= $2
	`, companyID, since).Scan(&avg)
	if err != nil {
		return 0, fmt.Errorf("averaging time to fill: %w", err)
	}
	if avg == nil {
		return 0, nil
	}
	return *avg, nil
}

// ==================== Scan Helpers ====================

// scanner lets *pgx.Row and pgx.Rows share the scan helpers.
type scanner interface {
	Scan(dest ...interface{}) error
}

// scanCompany scans one company row.
func scanCompany(sc scanner) (*domain.Company, error) {
	var (
		company     domain.Company
		stage, tier string
		atsJSON     []byte
		lastSynced  *time.Time
	)

	err := sc.Scan(&company.ID, &company.Name, &company.Domain, &company.Website,
		&company.Industry, &stage, &company.EmployeeCount, &company.FoundedYear,
		&company.DiscoverySource, &atsJSON, &company.GrowthScore, &tier,
		&company.SyncFrequencyHours, &lastSynced, &company.JobCreationVelocity,
		&company.IsActive, &company.CreatedAt, &company.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning company: %w", err)
	}

	company.FundingStage = domain.FundingStage(stage)
	company.PriorityTier = domain.PriorityTier(tier)
	company.LastSyncedAt = lastSynced

	ids, err := decodeIdentifiers(atsJSON)
	if err != nil {
		return nil, fmt.Errorf("decoding identifiers for %s: %w", company.Domain, err)
	}
	company.ATSIdentifiers = ids

	return &company, nil
}

// scanRun scans one audit row.
func scanRun(sc scanner) (*domain.DiscoveryRunResult, error) {
	var (
		result                 domain.DiscoveryRunResult
		status                 string
		stats, sources, errMsg []byte
	)

	err := sc.Scan(&result.RunID, &result.StartedAt, &result.EndedAt,
		&result.DurationMS, &status, &stats, &sources, &errMsg)
	if err != nil {
		return nil, fmt.Errorf("scanning run: %w", err)
	}

	result.Status = domain.RunStatus(status)
	if err := json.Unmarshal(stats, &result.Stats); err != nil {
		return nil, fmt.Errorf("decoding run stats: %w", err)
	}
	if err := json.Unmarshal(sources, &result.Sources); err != nil {
		return nil, fmt.Errorf("decoding run sources: %w", err)
	}
	if err := json.Unmarshal(errMsg, &result.Errors); err != nil {
		return nil, fmt.Errorf("decoding run errors: %w", err)
	}

	return &result, nil
}

// encodeIdentifiers serialises an identifier map to JSON for a jsonb column.
func encodeIdentifiers(ids map[domain.AtsVendor]string) ([]byte, error) {
	if len(ids) == 0 {
		return []byte("{}"), nil
	}
	return json.Marshal(ids)
}

// decodeIdentifiers parses a jsonb identifier column. Empty maps come back
// as nil so store round-trips compare equal.
func decodeIdentifiers(raw []byte) (map[domain.AtsVendor]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var ids map[domain.AtsVendor]string
	if err := json.Unmarshal(raw, &ids); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}
	return ids, nil
}
