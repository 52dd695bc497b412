package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hirelens-labs/hirelens/internal/core/domain"
	"github.com/hirelens-labs/hirelens/internal/core/ports/driving"
)

// mockPipeline is a mock implementation of driving.DiscoveryPipeline.
type mockPipeline struct {
	result  *domain.DiscoveryRunResult
	runErr  error
	history []domain.DiscoveryRunResult
}

var _ driving.DiscoveryPipeline = (*mockPipeline)(nil)

func (m *mockPipeline) Run(_ context.Context) (*domain.DiscoveryRunResult, error) {
	return m.result, m.runErr
}

func (m *mockPipeline) Status(_ context.Context) (*driving.PipelineStatus, error) {
	return &driving.PipelineStatus{}, nil
}

func (m *mockPipeline) History(_ context.Context, limit int) ([]domain.DiscoveryRunResult, error) {
	if limit > 0 && limit < len(m.history) {
		return m.history[:limit], nil
	}
	return m.history, nil
}

// mockCompanyService is a mock implementation of driving.CompanyService.
type mockCompanyService struct {
	companies  []domain.Company
	err        error
	lastFilter driving.CompanyFilter
}

var _ driving.CompanyService = (*mockCompanyService)(nil)

func (m *mockCompanyService) List(_ context.Context, filter driving.CompanyFilter) ([]domain.Company, error) {
	m.lastFilter = filter
	return m.companies, m.err
}

func (m *mockCompanyService) Get(_ context.Context, _ string) (*domain.Company, error) {
	if len(m.companies) == 0 {
		return nil, domain.ErrNotFound
	}
	return &m.companies[0], m.err
}

func (m *mockCompanyService) Count(_ context.Context) (int, error) {
	return len(m.companies), m.err
}

// mockSourceCatalog is a mock implementation of driving.SourceCatalog.
type mockSourceCatalog struct {
	statuses    []driving.SourceStatus
	err         error
	credentials map[string]string
}

var _ driving.SourceCatalog = (*mockSourceCatalog)(nil)

func (m *mockSourceCatalog) List(_ context.Context) ([]driving.SourceStatus, error) {
	return m.statuses, m.err
}

func (m *mockSourceCatalog) SetCredential(_ context.Context, sourceID, key, value string) error {
	if m.credentials == nil {
		m.credentials = make(map[string]string)
	}
	m.credentials[sourceID+"."+key] = value
	return m.err
}

func (m *mockSourceCatalog) Enabled(_ context.Context) []string {
	var out []string
	for _, st := range m.statuses {
		if st.Enabled {
			out = append(out, st.Spec.ID)
		}
	}
	return out
}

// execute runs the root command with the given args and returns its output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return buf.String(), err
}

// withDeps installs mock dependencies for one test.
func withDeps(t *testing.T, d *Dependencies) {
	t.Helper()

	original := deps
	deps = d
	t.Cleanup(func() { deps = original })
}

func testRunResult(status domain.RunStatus, errs ...string) *domain.DiscoveryRunResult {
	start := time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC)
	return &domain.DiscoveryRunResult{
		RunID:      "disc-1736154000",
		StartedAt:  start,
		EndedAt:    start.Add(2 * time.Minute),
		DurationMS: 120_000,
		Status:     status,
		Stats: domain.RunStats{
			CompaniesDiscovered: 40,
			PlatformsDetected:   25,
			CompaniesUpserted:   38,
			PrioritiesUpdated:   12,
			GrowthCompanies:     4,
		},
		Sources: []string{"seedfile", "fundingdb"},
		Errors:  errs,
	}
}

// ==================== version ====================

func TestVersionCmd_Executes(t *testing.T) {
	originalVersion := version
	version = "test-version-1.0.0"
	defer func() { version = originalVersion }()

	out, err := execute(t, "version")

	assert.NoError(t, err)
	assert.Contains(t, out, "hirelens version test-version-1.0.0")
}

// ==================== run ====================

func TestRunCmd_PrintsSummary(t *testing.T) {
	withDeps(t, &Dependencies{Pipeline: &mockPipeline{result: testRunResult(domain.RunSuccess)}})

	out, err := execute(t, "run")

	require.NoError(t, err)
	assert.Contains(t, out, "disc-1736154000")
	assert.Contains(t, out, "seedfile, fundingdb")
	assert.Contains(t, out, "Discovered:     40")
	assert.Contains(t, out, "Growth:         4")
}

func TestRunCmd_FailedRunSetsExitCode(t *testing.T) {
	result := testRunResult(domain.RunFailed, "seedfile: no such file", "detector: timeout", "upsert: locked")
	withDeps(t, &Dependencies{Pipeline: &mockPipeline{result: result}})

	out, err := execute(t, "run")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed with 3 errors")
	// The summary still prints so the operator can see what went wrong.
	assert.Contains(t, out, "seedfile: no such file")
}

func TestRunCmd_AlreadyRunning(t *testing.T) {
	withDeps(t, &Dependencies{Pipeline: &mockPipeline{runErr: domain.ErrRunInProgress}})

	_, err := execute(t, "run")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "already in progress")
}

func TestRunCmd_JSONOutput(t *testing.T) {
	withDeps(t, &Dependencies{Pipeline: &mockPipeline{result: testRunResult(domain.RunSuccess)}})
	defer func() { runJSONOutput = false }()

	out, err := execute(t, "run", "--json")

	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, "disc-1736154000", decoded["RunID"])
}

func TestRunCmd_NotConfigured(t *testing.T) {
	withDeps(t, nil)

	_, err := execute(t, "run")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "not configured")
}

// ==================== companies ====================

func TestCompaniesCmd_Table(t *testing.T) {
	svc := &mockCompanyService{companies: []domain.Company{
		{Domain: "beta.dev", PriorityTier: domain.TierHigh, JobCreationVelocity: 12.5, GrowthScore: 60,
			ATSIdentifiers: map[domain.AtsVendor]string{domain.VendorLever: "beta"}},
		{Domain: "acme.io", PriorityTier: domain.TierStandard, JobCreationVelocity: 3, GrowthScore: 10},
	}}
	withDeps(t, &Dependencies{Companies: svc})

	out, err := execute(t, "companies")

	require.NoError(t, err)
	assert.Contains(t, out, "DOMAIN")
	assert.Contains(t, out, "beta.dev")
	assert.Contains(t, out, "acme.io")
	assert.Contains(t, out, "lever")
	assert.Contains(t, out, "2 companies")
}

func TestCompaniesCmd_FlagsMapToFilter(t *testing.T) {
	svc := &mockCompanyService{}
	withDeps(t, &Dependencies{Companies: svc})
	defer func() {
		companiesGrowth = false
		companiesMissingATS = false
		companiesTier = ""
		companiesLimit = 50
	}()

	_, err := execute(t, "companies", "--growth", "--missing-ats", "--tier", "high", "--limit", "5")

	require.NoError(t, err)
	assert.True(t, svc.lastFilter.GrowthOnly)
	assert.True(t, svc.lastFilter.MissingATS)
	assert.Equal(t, domain.TierHigh, svc.lastFilter.Tier)
	assert.Equal(t, 5, svc.lastFilter.Limit)
}

func TestCompaniesCmd_UnknownTier(t *testing.T) {
	withDeps(t, &Dependencies{Companies: &mockCompanyService{}})
	defer func() { companiesTier = "" }()

	_, err := execute(t, "companies", "--tier", "hot")

	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown tier "hot"`)
}

func TestCompaniesCmd_JSON(t *testing.T) {
	svc := &mockCompanyService{companies: []domain.Company{{Domain: "acme.io"}}}
	withDeps(t, &Dependencies{Companies: svc})
	defer func() { companiesJSON = false }()

	out, err := execute(t, "companies", "--json")

	require.NoError(t, err)
	var decoded []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, "acme.io", decoded[0]["Domain"])
}

func TestCompaniesCmd_Empty(t *testing.T) {
	withDeps(t, &Dependencies{Companies: &mockCompanyService{}})

	out, err := execute(t, "companies")

	require.NoError(t, err)
	assert.Contains(t, out, "No companies matched")
}

// ==================== runs ====================

func TestRunsCmd_Table(t *testing.T) {
	withDeps(t, &Dependencies{Pipeline: &mockPipeline{history: []domain.DiscoveryRunResult{
		*testRunResult(domain.RunPartial, "githuborgs: rate limited"),
	}}})

	out, err := execute(t, "runs")

	require.NoError(t, err)
	assert.Contains(t, out, "RUN")
	assert.Contains(t, out, "disc-1736154000")
	assert.Contains(t, out, "partial")
}

func TestRunsCmd_Empty(t *testing.T) {
	withDeps(t, &Dependencies{Pipeline: &mockPipeline{}})

	out, err := execute(t, "runs")

	require.NoError(t, err)
	assert.Contains(t, out, "No runs recorded yet")
}

// ==================== sources ====================

func TestSourcesCmd_Table(t *testing.T) {
	withDeps(t, &Dependencies{Sources: &mockSourceCatalog{statuses: []driving.SourceStatus{
		{Spec: domain.SourceSpec{ID: "seedfile", Name: "Seed File", Confidence: 0.95, Description: "Hand-curated seed list"}, Enabled: true},
		{Spec: domain.SourceSpec{ID: "websearch", Name: "Web Search", Confidence: 0.5}, Enabled: false, Reason: "missing credentials: set sources.websearch.api_key"},
	}}})

	out, err := execute(t, "sources")

	require.NoError(t, err)
	assert.Contains(t, out, "seedfile")
	assert.Contains(t, out, "enabled")
	assert.Contains(t, out, "websearch")
	assert.Contains(t, out, "disabled")
	assert.Contains(t, out, "missing credentials")
}

func TestSourcesAuthCmd_UnknownSource(t *testing.T) {
	withDeps(t, &Dependencies{Sources: &mockSourceCatalog{}})

	_, err := execute(t, "sources", "auth", "nope")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSourcesAuthCmd_NoConfigKeys(t *testing.T) {
	catalog := &mockSourceCatalog{statuses: []driving.SourceStatus{
		{Spec: domain.SourceSpec{ID: "seedfile", Name: "Seed File"}, Enabled: true},
	}}
	withDeps(t, &Dependencies{Sources: catalog})

	out, err := execute(t, "sources", "auth", "seedfile")

	require.NoError(t, err)
	assert.Contains(t, out, "needs no configuration")
}
