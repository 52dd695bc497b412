package launchdirectory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hirelens-labs/hirelens/internal/adapters/driven/storage/memory"
	"github.com/hirelens-labs/hirelens/internal/core/domain"
)

func TestNew(t *testing.T) {
	source := New(memory.NewConfigStore())

	require.NotNil(t, source)
	assert.Equal(t, "launchdirectory", source.ID())
	assert.InDelta(t, 0.8, source.Spec().Confidence, 0.001)
	assert.True(t, source.Capabilities().SupportsPagination)
	spec := source.Spec()
	assert.Empty(t, spec.RequiredKeys())
}

func TestNewClient(t *testing.T) {
	t.Run("defaults to the public endpoint", func(t *testing.T) {
		client := NewClient("")
		assert.Equal(t, DefaultBaseURL, client.baseURL)
	})

	t.Run("trims trailing slash", func(t *testing.T) {
		client := NewClient("https://mirror.example/")
		assert.Equal(t, "https://mirror.example", client.baseURL)
	})
}

func TestSource_Validate(t *testing.T) {
	source := New(memory.NewConfigStore())

	// Public directory: no credentials to check.
	assert.NoError(t, source.Validate(context.Background()))
}

func TestSource_Discover_ContextCancelled(t *testing.T) {
	source := New(memory.NewConfigStore())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := source.Discover(ctx)

	assert.ErrorIs(t, err, context.Canceled)
}

func TestSource_EnsureClient_TracksBaseURLChanges(t *testing.T) {
	cfg := memory.NewConfigStore()
	source := New(cfg)

	first := source.ensureClient()
	assert.Equal(t, DefaultBaseURL, first.baseURL)

	require.NoError(t, cfg.Set(baseURLKey, "https://mirror.example"))
	second := source.ensureClient()
	assert.Equal(t, "https://mirror.example", second.baseURL)
	assert.NotSame(t, first, second)

	// Unchanged config reuses the client.
	third := source.ensureClient()
	assert.Same(t, second, third)
}

func TestNormalizeEntry(t *testing.T) {
	tests := []struct {
		name   string
		entry  launchEntry
		wantOK bool
		want   domain.DiscoveredCompany
	}{
		{
			name: "full listing",
			entry: launchEntry{
				CompanyName: "Query Works",
				Website:     "https://www.queryworks.io",
				Tagline:     "SQL for everything",
				Category:    "devtools",
				TeamSize:    12,
				LaunchYear:  2024,
			},
			wantOK: true,
			want: domain.DiscoveredCompany{
				Name:          "Query Works",
				Domain:        "queryworks.io",
				Website:       "https://www.queryworks.io",
				Description:   "SQL for everything",
				Industry:      "devtools",
				EmployeeCount: 12,
				FoundedYear:   2024,
				Source:        "launchdirectory",
				Confidence:    0.8,
			},
		},
		{
			name:   "listing without website is dropped",
			entry:  launchEntry{CompanyName: "Stealth Co"},
			wantOK: false,
		},
		{
			name:   "unparseable website is dropped",
			entry:  launchEntry{CompanyName: "Broken", Website: "not a url"},
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			company, ok := normalizeEntry(tt.entry)
			require.Equal(t, tt.wantOK, ok)
			if ok {
				assert.Equal(t, tt.want, company)
			}
		})
	}
}
