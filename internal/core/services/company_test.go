package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hirelens-labs/hirelens/internal/core/domain"
	"github.com/hirelens-labs/hirelens/internal/core/ports/driving"
)

func newTestCompanyService(store *fakeCompanyStore, activity *perCompanyActivity) *CompanyService {
	if activity == nil {
		activity = &perCompanyActivity{}
	}
	return NewCompanyService(store, NewScoringService(activity))
}

func TestCompanyService_List(t *testing.T) {
	store := newFakeCompanyStore(
		domain.Company{
			ID: "c1", Name: "Acme", Domain: "acme.com",
			PriorityTier: domain.TierHigh, IsActive: true,
			ATSIdentifiers: map[domain.AtsVendor]string{domain.VendorLever: "acme"},
		},
		domain.Company{
			ID: "c2", Name: "Beta", Domain: "beta.io",
			PriorityTier: domain.TierStandard, IsActive: true,
		},
		domain.Company{
			ID: "c3", Name: "Gone", Domain: "gone.dev",
			PriorityTier: domain.TierLow, IsActive: false,
		},
	)

	t.Run("no filter returns all active companies", func(t *testing.T) {
		svc := newTestCompanyService(store, nil)

		companies, err := svc.List(context.Background(), driving.CompanyFilter{})

		require.NoError(t, err)
		require.Len(t, companies, 2)
		assert.Equal(t, "acme.com", companies[0].Domain)
		assert.Equal(t, "beta.io", companies[1].Domain)
	})

	t.Run("tier filter narrows results", func(t *testing.T) {
		svc := newTestCompanyService(store, nil)

		companies, err := svc.List(context.Background(), driving.CompanyFilter{Tier: domain.TierHigh})

		require.NoError(t, err)
		require.Len(t, companies, 1)
		assert.Equal(t, "acme.com", companies[0].Domain)
	})

	t.Run("missing ATS filter excludes companies with identifiers", func(t *testing.T) {
		svc := newTestCompanyService(store, nil)

		companies, err := svc.List(context.Background(), driving.CompanyFilter{MissingATS: true})

		require.NoError(t, err)
		require.Len(t, companies, 1)
		assert.Equal(t, "beta.io", companies[0].Domain)
	})

	t.Run("limit caps results after filtering", func(t *testing.T) {
		svc := newTestCompanyService(store, nil)

		companies, err := svc.List(context.Background(), driving.CompanyFilter{Limit: 1})

		require.NoError(t, err)
		require.Len(t, companies, 1)
		assert.Equal(t, "acme.com", companies[0].Domain)
	})

	t.Run("store failure is propagated", func(t *testing.T) {
		broken := newFakeCompanyStore()
		broken.listErr = errors.New("db locked")
		svc := newTestCompanyService(broken, nil)

		_, err := svc.List(context.Background(), driving.CompanyFilter{})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "db locked")
	})
}

func TestCompanyService_List_GrowthOnly(t *testing.T) {
	// c1 has rising weekly postings, c2 has activity but flat momentum,
	// c3 has no recent postings at all.
	store := newFakeCompanyStore(
		domain.Company{ID: "c1", Name: "Rising", Domain: "rising.io", IsActive: true},
		domain.Company{ID: "c2", Name: "Flat", Domain: "flat.io", IsActive: true},
		domain.Company{ID: "c3", Name: "Quiet", Domain: "quiet.io", IsActive: true},
	)
	activity := &perCompanyActivity{
		week:     map[string]int{"c1": 8, "c2": 5},
		prevWeek: map[string]int{"c1": 4, "c2": 5},
		month:    map[string]int{"c1": 15, "c2": 18},
	}
	svc := newTestCompanyService(store, activity)

	companies, err := svc.List(context.Background(), driving.CompanyFilter{GrowthOnly: true})

	require.NoError(t, err)
	require.Len(t, companies, 1)
	assert.Equal(t, "rising.io", companies[0].Domain)
}

func TestCompanyService_List_GrowthCheckFailureExcludesCompany(t *testing.T) {
	store := newFakeCompanyStore(
		domain.Company{ID: "c1", Name: "Rising", Domain: "rising.io", IsActive: true},
		domain.Company{ID: "c2", Name: "Broken", Domain: "broken.io", IsActive: true},
	)
	activity := &perCompanyActivity{
		week:     map[string]int{"c1": 8},
		prevWeek: map[string]int{"c1": 4},
		month:    map[string]int{"c1": 15},
		errFor:   map[string]error{"c2": errors.New("activity store down")},
	}
	svc := newTestCompanyService(store, activity)

	companies, err := svc.List(context.Background(), driving.CompanyFilter{GrowthOnly: true})

	require.NoError(t, err)
	require.Len(t, companies, 1)
	assert.Equal(t, "rising.io", companies[0].Domain)
}

func TestCompanyService_Get(t *testing.T) {
	store := newFakeCompanyStore(domain.Company{
		ID: "c1", Name: "Acme", Domain: "acme.com", IsActive: true,
	})
	svc := newTestCompanyService(store, nil)

	t.Run("normalises URL input", func(t *testing.T) {
		company, err := svc.Get(context.Background(), "https://www.acme.com/careers")

		require.NoError(t, err)
		assert.Equal(t, "c1", company.ID)
	})

	t.Run("unknown domain returns not found", func(t *testing.T) {
		_, err := svc.Get(context.Background(), "nobody.example")

		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("empty input is rejected", func(t *testing.T) {
		_, err := svc.Get(context.Background(), "   ")

		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestCompanyService_Count(t *testing.T) {
	store := newFakeCompanyStore(
		domain.Company{ID: "c1", Domain: "a.com", IsActive: true},
		domain.Company{ID: "c2", Domain: "b.com", IsActive: false},
	)
	svc := newTestCompanyService(store, nil)

	count, err := svc.Count(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, count)
}
