package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hirelens-labs/hirelens/internal/core/domain"
	"github.com/hirelens-labs/hirelens/internal/core/ports/driven"
)

// stubSource is a canned-response CompanySource for aggregator tests.
type stubSource struct {
	id          string
	records     []domain.DiscoveredCompany
	discoverErr error
	validateErr error
	calls       int
}

var _ driven.CompanySource = (*stubSource)(nil)

func (s *stubSource) ID() string { return s.id }

func (s *stubSource) Spec() domain.SourceSpec {
	return domain.SourceSpec{ID: s.id, Name: s.id, Confidence: 0.8}
}

func (s *stubSource) Capabilities() driven.SourceCapabilities {
	return driven.SourceCapabilities{}
}

func (s *stubSource) Validate(context.Context) error { return s.validateErr }

func (s *stubSource) Discover(context.Context) ([]domain.DiscoveredCompany, error) {
	s.calls++
	return s.records, s.discoverErr
}

func record(name, dom, source string) domain.DiscoveredCompany {
	return domain.DiscoveredCompany{Name: name, Domain: dom, Source: source, Confidence: 0.8}
}

func newTestCatalog(sources ...driven.CompanySource) *SourceCatalog {
	catalog := NewSourceCatalog(nil)
	for _, s := range sources {
		catalog.Register(s)
	}
	return catalog
}

// TestDiscoveryService_FirstSourceWins tests dedup across overlapping sources
func TestDiscoveryService_FirstSourceWins(t *testing.T) {
	first := &stubSource{id: "one", records: []domain.DiscoveredCompany{
		record("Alpha", "a.com", "one"),
		record("Beta", "b.com", "one"),
	}}
	second := &stubSource{id: "two", records: []domain.DiscoveredCompany{
		record("Beta Inc", "b.com", "two"),
		record("Gamma", "c.com", "two"),
	}}
	third := &stubSource{id: "three"}

	svc := NewDiscoveryService(newTestCatalog(first, second, third), nil)
	merged, participated := svc.RunCompanyDiscovery(context.Background())

	require.Len(t, merged, 3)
	assert.Equal(t, "a.com", merged[0].Domain)
	assert.Equal(t, "b.com", merged[1].Domain)
	assert.Equal(t, "c.com", merged[2].Domain)

	// b.com keeps the first source's record wholesale.
	assert.Equal(t, "Beta", merged[1].Name)
	assert.Equal(t, "one", merged[1].Source)

	assert.Equal(t, []string{"one", "two", "three"}, participated)
}

// TestDiscoveryService_SourceErrorMeansZeroResults tests failure isolation
func TestDiscoveryService_SourceErrorMeansZeroResults(t *testing.T) {
	first := &stubSource{id: "one", records: []domain.DiscoveredCompany{
		record("Alpha", "a.com", "one"),
	}}
	flaky := &stubSource{id: "flaky", discoverErr: errors.New("connection refused")}
	third := &stubSource{id: "three", records: []domain.DiscoveredCompany{
		record("Gamma", "c.com", "three"),
	}}

	svc := NewDiscoveryService(newTestCatalog(first, flaky, third), nil)
	merged, participated := svc.RunCompanyDiscovery(context.Background())

	require.Len(t, merged, 2)
	assert.Equal(t, "a.com", merged[0].Domain)
	assert.Equal(t, "c.com", merged[1].Domain)

	// The failing source was still attempted.
	assert.Contains(t, participated, "flaky")
	assert.Equal(t, 1, flaky.calls)
}

// TestDiscoveryService_SkipsSourcesFailingValidation tests credential gating
func TestDiscoveryService_SkipsSourcesFailingValidation(t *testing.T) {
	enabled := &stubSource{id: "open", records: []domain.DiscoveredCompany{
		record("Alpha", "a.com", "open"),
	}}
	gated := &stubSource{id: "gated", validateErr: domain.ErrMissingCredentials}

	svc := NewDiscoveryService(newTestCatalog(enabled, gated), nil)
	merged, participated := svc.RunCompanyDiscovery(context.Background())

	assert.Len(t, merged, 1)
	assert.Equal(t, []string{"open"}, participated)
	assert.Zero(t, gated.calls, "sources failing validation must not be queried")
}

// TestDiscoveryService_DropsInvalidRecords tests record validation
func TestDiscoveryService_DropsInvalidRecords(t *testing.T) {
	source := &stubSource{id: "one", records: []domain.DiscoveredCompany{
		{Name: "No Domain", Source: "one"},
		{Domain: "nameless.com", Source: "one"},
		record("Valid", "valid.com", "one"),
	}}

	svc := NewDiscoveryService(newTestCatalog(source), nil)
	merged, _ := svc.RunCompanyDiscovery(context.Background())

	require.Len(t, merged, 1)
	assert.Equal(t, "valid.com", merged[0].Domain)
}

// TestDiscoveryService_NoSources tests the empty catalog
func TestDiscoveryService_NoSources(t *testing.T) {
	svc := NewDiscoveryService(newTestCatalog(), nil)
	merged, participated := svc.RunCompanyDiscovery(context.Background())

	assert.Empty(t, merged)
	assert.Empty(t, participated)
}
