package mcp

import (
	"context"

	"github.com/hirelens-labs/hirelens/internal/core/domain"
	"github.com/hirelens-labs/hirelens/internal/core/ports/driving"
)

// mockPipeline is a mock implementation of driving.DiscoveryPipeline.
type mockPipeline struct {
	result  *domain.DiscoveryRunResult
	history []domain.DiscoveryRunResult
	status  *driving.PipelineStatus
	err     error

	runCalls int
}

func (m *mockPipeline) Run(_ context.Context) (*domain.DiscoveryRunResult, error) {
	m.runCalls++
	return m.result, m.err
}

func (m *mockPipeline) Status(_ context.Context) (*driving.PipelineStatus, error) {
	return m.status, m.err
}

func (m *mockPipeline) History(_ context.Context, limit int) ([]domain.DiscoveryRunResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	if limit > 0 && limit < len(m.history) {
		return m.history[:limit], nil
	}
	return m.history, nil
}

// mockCompanyService is a mock implementation of driving.CompanyService.
type mockCompanyService struct {
	companies []domain.Company
	company   *domain.Company
	err       error

	lastFilter driving.CompanyFilter
}

func (m *mockCompanyService) List(_ context.Context, filter driving.CompanyFilter) ([]domain.Company, error) {
	m.lastFilter = filter
	return m.companies, m.err
}

func (m *mockCompanyService) Get(_ context.Context, _ string) (*domain.Company, error) {
	return m.company, m.err
}

func (m *mockCompanyService) Count(_ context.Context) (int, error) {
	return len(m.companies), m.err
}

// mockSourceCatalog is a mock implementation of driving.SourceCatalog.
type mockSourceCatalog struct {
	statuses []driving.SourceStatus
	err      error
}

func (m *mockSourceCatalog) List(_ context.Context) ([]driving.SourceStatus, error) {
	return m.statuses, m.err
}

func (m *mockSourceCatalog) SetCredential(_ context.Context, _, _, _ string) error {
	return m.err
}

func (m *mockSourceCatalog) Enabled(_ context.Context) []string {
	ids := make([]string, 0, len(m.statuses))
	for _, status := range m.statuses {
		if status.Enabled {
			ids = append(ids, status.Spec.ID)
		}
	}
	return ids
}
