package sqlite

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hirelens-labs/hirelens/internal/core/domain"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) (*Store, func()) {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "hirelens-test-*")
	require.NoError(t, err)

	store, err := NewStore(tempDir)
	require.NoError(t, err)
	require.NotNil(t, store)

	cleanup := func() {
		assert.NoError(t, store.Close())
		assert.NoError(t, os.RemoveAll(tempDir))
	}

	return store, cleanup
}

// testCompany builds a discovery-shaped registry row: descriptive fields
// set, priority fields left for the store to default.
func testCompany(name, dom string) domain.Company {
	return domain.Company{
		Name:            name,
		Domain:          dom,
		Website:         "https://" + dom,
		Industry:        "devtools",
		FundingStage:    domain.StageSeed,
		EmployeeCount:   40,
		FoundedYear:     2021,
		DiscoverySource: "seedfile",
	}
}

// seedPosting writes a posting row the way the job crawler would.
func seedPosting(t *testing.T, store *Store, companyID string, created time.Time, closed *time.Time) {
	t.Helper()

	var closedVal interface{}
	if closed != nil {
		closedVal = formatTime(*closed)
	}
	_, err := store.db.Exec(
		"INSERT INTO job_postings (id, company_id, title, created_at, closed_at) VALUES (?, ?, ?, ?, ?)",
		uuid.NewString(), companyID, "Backend Engineer", formatTime(created), closedVal)
	require.NoError(t, err)
}

// ==================== Store Creation Tests ====================

func TestNewStore(t *testing.T) {
	t.Run("creates database file", func(t *testing.T) {
		store, cleanup := setupTestStore(t)
		defer cleanup()

		_, err := os.Stat(store.Path())
		assert.NoError(t, err)
	})

	t.Run("survives reopening the same directory", func(t *testing.T) {
		tempDir, err := os.MkdirTemp("", "hirelens-test-*")
		require.NoError(t, err)
		defer os.RemoveAll(tempDir)
		ctx := context.Background()

		store, err := NewStore(tempDir)
		require.NoError(t, err)
		_, _, err = store.CompanyStore().Upsert(ctx, []domain.Company{testCompany("Acme", "acme.com")})
		require.NoError(t, err)
		require.NoError(t, store.Close())

		reopened, err := NewStore(tempDir)
		require.NoError(t, err)
		defer reopened.Close()

		company, err := reopened.CompanyStore().GetByDomain(ctx, "acme.com")
		require.NoError(t, err)
		assert.Equal(t, "Acme", company.Name)
	})
}

// ==================== Company Store Tests ====================

func TestCompanyStore_Upsert(t *testing.T) {
	ctx := context.Background()

	t.Run("inserts new companies with default priority fields", func(t *testing.T) {
		store, cleanup := setupTestStore(t)
		defer cleanup()
		companies := store.CompanyStore()

		inserted, updated, err := companies.Upsert(ctx, []domain.Company{
			testCompany("Acme", "acme.com"),
			testCompany("Beta Labs", "beta.io"),
		})
		require.NoError(t, err)
		assert.Equal(t, 2, inserted)
		assert.Equal(t, 0, updated)

		company, err := companies.GetByDomain(ctx, "acme.com")
		require.NoError(t, err)
		assert.NotEmpty(t, company.ID)
		assert.Equal(t, "Acme", company.Name)
		assert.Equal(t, domain.StageSeed, company.FundingStage)
		assert.Equal(t, domain.TierStandard, company.PriorityTier)
		assert.Equal(t, 72, company.SyncFrequencyHours)
		assert.Equal(t, 0, company.GrowthScore)
		assert.Zero(t, company.JobCreationVelocity)
		assert.True(t, company.IsActive)
		assert.Nil(t, company.LastSyncedAt)
		assert.False(t, company.CreatedAt.IsZero())
	})

	t.Run("counts inserts and updates in a mixed batch", func(t *testing.T) {
		store, cleanup := setupTestStore(t)
		defer cleanup()
		companies := store.CompanyStore()

		_, _, err := companies.Upsert(ctx, []domain.Company{testCompany("Acme", "acme.com")})
		require.NoError(t, err)

		inserted, updated, err := companies.Upsert(ctx, []domain.Company{
			testCompany("Acme Inc", "acme.com"),
			testCompany("Gamma", "gamma.dev"),
		})
		require.NoError(t, err)
		assert.Equal(t, 1, inserted)
		assert.Equal(t, 1, updated)
	})

	t.Run("keeps priority fields on update", func(t *testing.T) {
		store, cleanup := setupTestStore(t)
		defer cleanup()
		companies := store.CompanyStore()

		_, _, err := companies.Upsert(ctx, []domain.Company{testCompany("Acme", "acme.com")})
		require.NoError(t, err)
		company, err := companies.GetByDomain(ctx, "acme.com")
		require.NoError(t, err)

		require.NoError(t, companies.UpdatePriority(ctx, company.ID, domain.PriorityPatch{
			Tier:                domain.TierHigh,
			GrowthScore:         85,
			JobCreationVelocity: 12.5,
			SyncFrequencyHours:  24,
		}))

		rediscovered := testCompany("Acme Inc", "acme.com")
		rediscovered.FundingStage = domain.StageSeriesA
		_, updated, err := companies.Upsert(ctx, []domain.Company{rediscovered})
		require.NoError(t, err)
		assert.Equal(t, 1, updated)

		company, err = companies.GetByDomain(ctx, "acme.com")
		require.NoError(t, err)
		assert.Equal(t, "Acme Inc", company.Name)
		assert.Equal(t, domain.StageSeriesA, company.FundingStage)
		assert.Equal(t, domain.TierHigh, company.PriorityTier)
		assert.Equal(t, 85, company.GrowthScore)
		assert.InDelta(t, 12.5, company.JobCreationVelocity, 0.001)
		assert.Equal(t, 24, company.SyncFrequencyHours)
	})

	t.Run("does not blank stored fields with empty incoming values", func(t *testing.T) {
		store, cleanup := setupTestStore(t)
		defer cleanup()
		companies := store.CompanyStore()

		_, _, err := companies.Upsert(ctx, []domain.Company{testCompany("Acme", "acme.com")})
		require.NoError(t, err)

		// A low-confidence source only knows the name and domain.
		sparse := domain.Company{Name: "acme", Domain: "acme.com", DiscoverySource: "websearch"}
		_, updated, err := companies.Upsert(ctx, []domain.Company{sparse})
		require.NoError(t, err)
		assert.Equal(t, 1, updated)

		company, err := companies.GetByDomain(ctx, "acme.com")
		require.NoError(t, err)
		assert.Equal(t, "acme", company.Name)
		assert.Equal(t, "https://acme.com", company.Website)
		assert.Equal(t, "devtools", company.Industry)
		assert.Equal(t, domain.StageSeed, company.FundingStage)
		assert.Equal(t, 40, company.EmployeeCount)
		assert.Equal(t, 2021, company.FoundedYear)
	})

	t.Run("merges ATS identifiers on update", func(t *testing.T) {
		store, cleanup := setupTestStore(t)
		defer cleanup()
		companies := store.CompanyStore()

		_, _, err := companies.Upsert(ctx, []domain.Company{testCompany("Acme", "acme.com")})
		require.NoError(t, err)
		company, err := companies.GetByDomain(ctx, "acme.com")
		require.NoError(t, err)
		require.NoError(t, companies.SetIdentifiers(ctx, company.ID,
			map[domain.AtsVendor]string{domain.VendorLever: "acme"}))

		rediscovered := testCompany("Acme", "acme.com")
		rediscovered.ATSIdentifiers = map[domain.AtsVendor]string{domain.VendorGreenhouse: "acmeinc"}
		_, _, err = companies.Upsert(ctx, []domain.Company{rediscovered})
		require.NoError(t, err)

		company, err = companies.GetByDomain(ctx, "acme.com")
		require.NoError(t, err)
		assert.Equal(t, map[domain.AtsVendor]string{
			domain.VendorLever:      "acme",
			domain.VendorGreenhouse: "acmeinc",
		}, company.ATSIdentifiers)
	})

	t.Run("rejects records without a domain and rolls back the batch", func(t *testing.T) {
		store, cleanup := setupTestStore(t)
		defer cleanup()
		companies := store.CompanyStore()

		_, _, err := companies.Upsert(ctx, []domain.Company{
			testCompany("Acme", "acme.com"),
			{Name: "No Domain"},
		})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)

		count, err := companies.Count(ctx)
		require.NoError(t, err)
		assert.Zero(t, count)
	})
}

func TestCompanyStore_GetByDomain(t *testing.T) {
	ctx := context.Background()
	store, cleanup := setupTestStore(t)
	defer cleanup()
	companies := store.CompanyStore()

	_, _, err := companies.Upsert(ctx, []domain.Company{testCompany("Acme", "acme.com")})
	require.NoError(t, err)

	t.Run("returns the stored row", func(t *testing.T) {
		company, err := companies.GetByDomain(ctx, "acme.com")
		require.NoError(t, err)
		assert.Equal(t, "acme.com", company.Domain)
		assert.Equal(t, "seedfile", company.DiscoverySource)
	})

	t.Run("returns ErrNotFound for unknown domains", func(t *testing.T) {
		_, err := companies.GetByDomain(ctx, "nobody.example")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestCompanyStore_ListActive(t *testing.T) {
	ctx := context.Background()
	store, cleanup := setupTestStore(t)
	defer cleanup()
	companies := store.CompanyStore()

	_, _, err := companies.Upsert(ctx, []domain.Company{
		testCompany("Acme", "acme.com"),
		testCompany("Beta", "beta.io"),
		testCompany("Gamma", "gamma.dev"),
	})
	require.NoError(t, err)

	setVelocity := func(dom string, velocity float64) {
		company, err := companies.GetByDomain(ctx, dom)
		require.NoError(t, err)
		require.NoError(t, companies.UpdatePriority(ctx, company.ID, domain.PriorityPatch{
			Tier:                domain.TierStandard,
			JobCreationVelocity: velocity,
			SyncFrequencyHours:  72,
		}))
	}
	setVelocity("acme.com", 3.1)
	setVelocity("beta.io", 12.5)

	t.Run("orders by velocity descending", func(t *testing.T) {
		listed, err := companies.ListActive(ctx, 0)
		require.NoError(t, err)
		require.Len(t, listed, 3)
		assert.Equal(t, "beta.io", listed[0].Domain)
		assert.Equal(t, "acme.com", listed[1].Domain)
		assert.Equal(t, "gamma.dev", listed[2].Domain)
	})

	t.Run("honours the limit", func(t *testing.T) {
		listed, err := companies.ListActive(ctx, 2)
		require.NoError(t, err)
		require.Len(t, listed, 2)
		assert.Equal(t, "beta.io", listed[0].Domain)
	})

	t.Run("excludes inactive companies", func(t *testing.T) {
		_, err := store.db.Exec("UPDATE companies SET is_active = 0 WHERE domain = ?", "gamma.dev")
		require.NoError(t, err)

		listed, err := companies.ListActive(ctx, 0)
		require.NoError(t, err)
		require.Len(t, listed, 2)
		for _, company := range listed {
			assert.NotEqual(t, "gamma.dev", company.Domain)
		}
	})
}

func TestCompanyStore_ListMissingATS(t *testing.T) {
	ctx := context.Background()
	store, cleanup := setupTestStore(t)
	defer cleanup()
	companies := store.CompanyStore()

	_, _, err := companies.Upsert(ctx, []domain.Company{
		testCompany("Acme", "acme.com"),
		testCompany("Beta", "beta.io"),
	})
	require.NoError(t, err)

	acme, err := companies.GetByDomain(ctx, "acme.com")
	require.NoError(t, err)
	require.NoError(t, companies.SetIdentifiers(ctx, acme.ID,
		map[domain.AtsVendor]string{domain.VendorLever: "acme"}))

	missing, err := companies.ListMissingATS(ctx, 0)
	require.NoError(t, err)
	require.Len(t, missing, 1)
	assert.Equal(t, "beta.io", missing[0].Domain)

	limited, err := companies.ListMissingATS(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestCompanyStore_SetIdentifiers(t *testing.T) {
	ctx := context.Background()
	store, cleanup := setupTestStore(t)
	defer cleanup()
	companies := store.CompanyStore()

	_, _, err := companies.Upsert(ctx, []domain.Company{testCompany("Acme", "acme.com")})
	require.NoError(t, err)
	acme, err := companies.GetByDomain(ctx, "acme.com")
	require.NoError(t, err)

	t.Run("merges across calls with incoming values winning", func(t *testing.T) {
		require.NoError(t, companies.SetIdentifiers(ctx, acme.ID,
			map[domain.AtsVendor]string{domain.VendorLever: "acme"}))
		require.NoError(t, companies.SetIdentifiers(ctx, acme.ID, map[domain.AtsVendor]string{
			domain.VendorLever:      "acme-inc",
			domain.VendorGreenhouse: "acmeinc",
		}))

		company, err := companies.GetByDomain(ctx, "acme.com")
		require.NoError(t, err)
		assert.Equal(t, map[domain.AtsVendor]string{
			domain.VendorLever:      "acme-inc",
			domain.VendorGreenhouse: "acmeinc",
		}, company.ATSIdentifiers)
	})

	t.Run("returns ErrNotFound for unknown companies", func(t *testing.T) {
		err := companies.SetIdentifiers(ctx, "no-such-id",
			map[domain.AtsVendor]string{domain.VendorLever: "x"})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("ignores empty identifier maps", func(t *testing.T) {
		assert.NoError(t, companies.SetIdentifiers(ctx, "no-such-id", nil))
	})
}

func TestCompanyStore_UpdatePriority(t *testing.T) {
	ctx := context.Background()
	store, cleanup := setupTestStore(t)
	defer cleanup()
	companies := store.CompanyStore()

	_, _, err := companies.Upsert(ctx, []domain.Company{testCompany("Acme", "acme.com")})
	require.NoError(t, err)
	acme, err := companies.GetByDomain(ctx, "acme.com")
	require.NoError(t, err)

	t.Run("applies the patch", func(t *testing.T) {
		err := companies.UpdatePriority(ctx, acme.ID, domain.PriorityPatch{
			Tier:                domain.TierLow,
			GrowthScore:         15,
			JobCreationVelocity: 0.5,
			SyncFrequencyHours:  168,
		})
		require.NoError(t, err)

		company, err := companies.GetByDomain(ctx, "acme.com")
		require.NoError(t, err)
		assert.Equal(t, domain.TierLow, company.PriorityTier)
		assert.Equal(t, 15, company.GrowthScore)
		assert.InDelta(t, 0.5, company.JobCreationVelocity, 0.001)
		assert.Equal(t, 168, company.SyncFrequencyHours)
	})

	t.Run("returns ErrNotFound for unknown companies", func(t *testing.T) {
		err := companies.UpdatePriority(ctx, "no-such-id", domain.PriorityPatch{
			Tier: domain.TierHigh,
		})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestCompanyStore_Count(t *testing.T) {
	ctx := context.Background()
	store, cleanup := setupTestStore(t)
	defer cleanup()
	companies := store.CompanyStore()

	count, err := companies.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	_, _, err = companies.Upsert(ctx, []domain.Company{
		testCompany("Acme", "acme.com"),
		testCompany("Beta", "beta.io"),
	})
	require.NoError(t, err)

	count, err = companies.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

// ==================== Run Store Tests ====================

func TestRunStore(t *testing.T) {
	ctx := context.Background()

	t.Run("round-trips run results most recent first", func(t *testing.T) {
		store, cleanup := setupTestStore(t)
		defer cleanup()
		runs := store.RunStore()

		base := time.Now().UTC().Truncate(time.Second)
		older := &domain.DiscoveryRunResult{
			RunID:      "disc-1700000000",
			StartedAt:  base.Add(-2 * time.Hour),
			EndedAt:    base.Add(-2*time.Hour + 90*time.Second),
			DurationMS: 90000,
			Status:     domain.RunSuccess,
			Stats:      domain.RunStats{CompaniesDiscovered: 12, CompaniesUpserted: 12},
			Sources:    []string{"seedfile", "fundingdb"},
		}
		newer := &domain.DiscoveryRunResult{
			RunID:      "disc-1700007200",
			StartedAt:  base.Add(-time.Hour),
			EndedAt:    base.Add(-time.Hour + 45*time.Second),
			DurationMS: 45000,
			Status:     domain.RunPartial,
			Stats:      domain.RunStats{CompaniesDiscovered: 4},
			Sources:    []string{"seedfile"},
			Errors:     []string{"source fundingdb: rate limited"},
		}
		require.NoError(t, runs.Insert(ctx, older))
		require.NoError(t, runs.Insert(ctx, newer))

		listed, err := runs.List(ctx, 0)
		require.NoError(t, err)
		require.Len(t, listed, 2)
		assert.Equal(t, *newer, listed[0])
		assert.Equal(t, *older, listed[1])
	})

	t.Run("honours the limit", func(t *testing.T) {
		store, cleanup := setupTestStore(t)
		defer cleanup()
		runs := store.RunStore()

		base := time.Now().UTC().Truncate(time.Second)
		for i := 0; i < 3; i++ {
			require.NoError(t, runs.Insert(ctx, &domain.DiscoveryRunResult{
				RunID:     "disc-1",
				StartedAt: base.Add(time.Duration(i) * time.Minute),
				EndedAt:   base.Add(time.Duration(i)*time.Minute + time.Second),
				Status:    domain.RunSuccess,
			}))
		}

		listed, err := runs.List(ctx, 2)
		require.NoError(t, err)
		assert.Len(t, listed, 2)
	})

	t.Run("allows duplicate run IDs", func(t *testing.T) {
		store, cleanup := setupTestStore(t)
		defer cleanup()
		runs := store.RunStore()

		// A manual run and a scheduled run can collide on a
		// second-resolution ID; both must be kept.
		started := time.Now().UTC().Truncate(time.Second)
		for i := 0; i < 2; i++ {
			require.NoError(t, runs.Insert(ctx, &domain.DiscoveryRunResult{
				RunID:     "disc-1735689600",
				StartedAt: started,
				EndedAt:   started.Add(time.Second),
				Status:    domain.RunSuccess,
			}))
		}

		listed, err := runs.List(ctx, 0)
		require.NoError(t, err)
		assert.Len(t, listed, 2)
	})

	t.Run("rejects nil results", func(t *testing.T) {
		store, cleanup := setupTestStore(t)
		defer cleanup()

		err := store.RunStore().Insert(ctx, nil)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

// ==================== Job Activity Store Tests ====================

func TestJobActivityStore_CountPostings(t *testing.T) {
	ctx := context.Background()
	store, cleanup := setupTestStore(t)
	defer cleanup()
	activity := store.JobActivityStore()

	now := time.Now().UTC().Truncate(time.Second)
	seedPosting(t, store, "c-1", now.Add(-10*24*time.Hour), nil) // before window
	seedPosting(t, store, "c-1", now.Add(-6*24*time.Hour), nil)
	seedPosting(t, store, "c-1", now.Add(-2*24*time.Hour), nil)
	seedPosting(t, store, "c-1", now.Add(-time.Hour), nil)
	seedPosting(t, store, "c-2", now.Add(-time.Hour), nil) // other company

	count, err := activity.CountPostings(ctx, "c-1", now.Add(-7*24*time.Hour), now)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	count, err = activity.CountPostings(ctx, "c-1", now.Add(-30*24*time.Hour), now.Add(-7*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	count, err = activity.CountPostings(ctx, "c-3", now.Add(-30*24*time.Hour), now)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestJobActivityStore_AvgTimeToFill(t *testing.T) {
	ctx := context.Background()
	store, cleanup := setupTestStore(t)
	defer cleanup()
	activity := store.JobActivityStore()

	now := time.Now().UTC().Truncate(time.Second)
	since := now.Add(-90 * 24 * time.Hour)

	closedAfter := func(created time.Time, days int) *time.Time {
		closed := created.Add(time.Duration(days) * 24 * time.Hour)
		return &closed
	}

	created1 := now.Add(-10 * 24 * time.Hour)
	created2 := now.Add(-8 * 24 * time.Hour)
	seedPosting(t, store, "c-1", created1, closedAfter(created1, 6))
	seedPosting(t, store, "c-1", created2, closedAfter(created2, 4))
	seedPosting(t, store, "c-1", now.Add(-3*24*time.Hour), nil) // still open

	avg, err := activity.AvgTimeToFill(ctx, "c-1", since)
	require.NoError(t, err)
	assert.InDelta(t, 5.0, avg, 0.01)

	avg, err = activity.AvgTimeToFill(ctx, "c-2", since)
	require.NoError(t, err)
	assert.Zero(t, avg)
}

// ==================== Helper Tests ====================

func TestIdentifierCodec(t *testing.T) {
	t.Run("empty maps encode to the empty object", func(t *testing.T) {
		encoded, err := encodeIdentifiers(nil)
		require.NoError(t, err)
		assert.Equal(t, "{}", encoded)
	})

	t.Run("empty stored values decode to nil", func(t *testing.T) {
		for _, stored := range []string{"", "{}", "null"} {
			decoded, err := decodeIdentifiers(stored)
			require.NoError(t, err)
			assert.Nil(t, decoded)
		}
	})

	t.Run("merge overlays incoming onto stored", func(t *testing.T) {
		merged, err := mergeIdentifiers(`{"lever":"acme"}`, map[domain.AtsVendor]string{
			domain.VendorGreenhouse: "acmeinc",
		})
		require.NoError(t, err)

		decoded, err := decodeIdentifiers(merged)
		require.NoError(t, err)
		assert.Equal(t, map[domain.AtsVendor]string{
			domain.VendorLever:      "acme",
			domain.VendorGreenhouse: "acmeinc",
		}, decoded)
	})
}
