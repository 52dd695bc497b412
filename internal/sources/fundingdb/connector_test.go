package fundingdb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hirelens-labs/hirelens/internal/adapters/driven/storage/memory"
	"github.com/hirelens-labs/hirelens/internal/core/domain"
)

func configuredStore(t *testing.T) *memory.ConfigStore {
	t.Helper()
	cfg := memory.NewConfigStore()
	require.NoError(t, cfg.Set(apiKeyKey, "fdb-test-key"))
	return cfg
}

func TestNew(t *testing.T) {
	source := New(memory.NewConfigStore())

	require.NotNil(t, source)
	assert.Equal(t, "fundingdb", source.ID())
	assert.InDelta(t, 0.9, source.Spec().Confidence, 0.001)
	assert.True(t, source.Capabilities().RequiresCredentials)

	spec := source.Spec()
	required := spec.RequiredKeys()
	require.Len(t, required, 1)
	assert.Equal(t, "api_key", required[0].Key)
	assert.True(t, required[0].Secret)
}

func TestSource_Validate(t *testing.T) {
	t.Run("passes with an API key", func(t *testing.T) {
		source := New(configuredStore(t))

		assert.NoError(t, source.Validate(context.Background()))
	})

	t.Run("fails without an API key", func(t *testing.T) {
		source := New(memory.NewConfigStore())

		err := source.Validate(context.Background())

		assert.ErrorIs(t, err, domain.ErrMissingCredentials)
	})
}

func TestSource_Discover(t *testing.T) {
	t.Run("fails fast without credentials", func(t *testing.T) {
		source := New(memory.NewConfigStore())

		_, err := source.Discover(context.Background())

		assert.ErrorIs(t, err, domain.ErrMissingCredentials)
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		source := New(configuredStore(t))

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := source.Discover(ctx)

		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestSource_EnsureClient_RebuildsOnKeyChange(t *testing.T) {
	cfg := configuredStore(t)
	source := New(cfg)

	first, err := source.ensureClient()
	require.NoError(t, err)
	assert.Equal(t, DefaultBaseURL, first.baseURL)
	assert.Equal(t, "fdb-test-key", first.apiKey)

	require.NoError(t, cfg.Set(apiKeyKey, "fdb-rotated-key"))
	second, err := source.ensureClient()
	require.NoError(t, err)
	assert.NotSame(t, first, second)
	assert.Equal(t, "fdb-rotated-key", second.apiKey)

	third, err := source.ensureClient()
	require.NoError(t, err)
	assert.Same(t, second, third)
}

func TestNormalizeRound(t *testing.T) {
	tests := []struct {
		name   string
		round  fundingRound
		wantOK bool
		want   domain.DiscoveredCompany
	}{
		{
			name: "full round",
			round: fundingRound{
				Company: fundedCompany{
					Name:      "Deep Mind Labs",
					Homepage:  "https://deepmindlabs.ai",
					Summary:   "Applied ML research",
					Sector:    "ai",
					Employees: 80,
					Founded:   2019,
				},
				Stage:     "Series-A",
				Announced: "2026-07-14",
			},
			wantOK: true,
			want: domain.DiscoveredCompany{
				Name:          "Deep Mind Labs",
				Domain:        "deepmindlabs.ai",
				Website:       "https://deepmindlabs.ai",
				Description:   "Applied ML research",
				Industry:      "ai",
				FundingStage:  domain.StageSeriesA,
				EmployeeCount: 80,
				FoundedYear:   2019,
				Source:        "fundingdb",
				Confidence:    0.9,
			},
		},
		{
			name:   "round without homepage is dropped",
			round:  fundingRound{Company: fundedCompany{Name: "Stealth"}, Stage: "seed"},
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			company, ok := normalizeRound(tt.round)
			require.Equal(t, tt.wantOK, ok)
			if ok {
				assert.Equal(t, tt.want, company)
			}
		})
	}
}
