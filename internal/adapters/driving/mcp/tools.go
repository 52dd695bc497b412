package mcp

import (
	"context"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hirelens-labs/hirelens/internal/core/domain"
	"github.com/hirelens-labs/hirelens/internal/core/ports/driving"
)

// RunDiscoveryInput is the input schema for the run_discovery tool.
// The pipeline takes no parameters; the struct exists for the schema.
type RunDiscoveryInput struct{}

// RunOutput is the serialised form of a pipeline run result.
type RunOutput struct {
	RunID      string   `json:"run_id"`
	Status     string   `json:"status"`
	StartedAt  string   `json:"started_at"`
	EndedAt    string   `json:"ended_at"`
	DurationMS int64    `json:"duration_ms"`
	Discovered int      `json:"companies_discovered"`
	Detected   int      `json:"platforms_detected"`
	Upserted   int      `json:"companies_upserted"`
	Harvested  int      `json:"registries_harvested"`
	Updated    int      `json:"priorities_updated"`
	Growth     int      `json:"growth_companies"`
	Sources    []string `json:"sources"`
	Errors     []string `json:"errors"`
}

// ListCompaniesInput is the input schema for the list_companies tool.
type ListCompaniesInput struct {
	Growth bool   `json:"growth,omitempty" jsonschema:"only return companies with accelerating hiring"`
	Tier   string `json:"tier,omitempty" jsonschema:"restrict to one priority tier: high, standard or low"`
	Limit  int    `json:"limit,omitempty" jsonschema:"maximum number of companies to return (default 20)"`
}

// ListCompaniesOutput is the output schema for the list_companies tool.
type ListCompaniesOutput struct {
	Companies []CompanyOutput `json:"companies"`
	Count     int             `json:"count"`
}

// CompanyOutput represents a single registry company.
type CompanyOutput struct {
	Name        string            `json:"name"`
	Domain      string            `json:"domain"`
	Tier        string            `json:"priority_tier"`
	GrowthScore int               `json:"growth_score"`
	Velocity    float64           `json:"job_creation_velocity"`
	ATS         map[string]string `json:"ats_identifiers,omitempty"`
	Source      string            `json:"discovery_source,omitempty"`
}

// RunHistoryInput is the input schema for the get_run_history tool.
type RunHistoryInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"maximum number of runs to return (default 10)"`
}

// RunHistoryOutput is the output schema for the get_run_history tool.
type RunHistoryOutput struct {
	Runs  []RunOutput `json:"runs"`
	Count int         `json:"count"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "run_discovery",
		Description: "Run the full company discovery and prioritisation pipeline",
	}, s.handleRunDiscovery)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_companies",
		Description: "List companies in the registry, ordered by hiring velocity",
	}, s.handleListCompanies)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_run_history",
		Description: "Get recent discovery run audit records",
	}, s.handleRunHistory)
}

// handleRunDiscovery handles the run_discovery tool invocation.
// A run can take minutes; assistants should poll history rather than retry.
func (s *Server) handleRunDiscovery(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ RunDiscoveryInput,
) (*mcp.CallToolResult, RunOutput, error) {
	result, err := s.ports.Pipeline.Run(ctx)
	if err != nil {
		return nil, RunOutput{}, err
	}
	return nil, runOutput(result), nil
}

// handleListCompanies handles the list_companies tool invocation.
func (s *Server) handleListCompanies(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ListCompaniesInput,
) (*mcp.CallToolResult, ListCompaniesOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = 20
	}

	filter := driving.CompanyFilter{
		GrowthOnly: input.Growth,
		Tier:       domain.PriorityTier(input.Tier),
		Limit:      limit,
	}
	companies, err := s.ports.Companies.List(ctx, filter)
	if err != nil {
		return nil, ListCompaniesOutput{}, err
	}

	output := ListCompaniesOutput{
		Companies: make([]CompanyOutput, len(companies)),
		Count:     len(companies),
	}
	for i := range companies {
		output.Companies[i] = companyOutput(&companies[i])
	}
	return nil, output, nil
}

// handleRunHistory handles the get_run_history tool invocation.
func (s *Server) handleRunHistory(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RunHistoryInput,
) (*mcp.CallToolResult, RunHistoryOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = 10
	}

	runs, err := s.ports.Pipeline.History(ctx, limit)
	if err != nil {
		return nil, RunHistoryOutput{}, err
	}

	output := RunHistoryOutput{
		Runs:  make([]RunOutput, len(runs)),
		Count: len(runs),
	}
	for i := range runs {
		output.Runs[i] = runOutput(&runs[i])
	}
	return nil, output, nil
}

func runOutput(r *domain.DiscoveryRunResult) RunOutput {
	// Keep sources and errors as arrays in the JSON, never null.
	sources := r.Sources
	if sources == nil {
		sources = []string{}
	}
	errs := r.Errors
	if errs == nil {
		errs = []string{}
	}

	return RunOutput{
		RunID:      r.RunID,
		Status:     string(r.Status),
		StartedAt:  r.StartedAt.Format(time.RFC3339),
		EndedAt:    r.EndedAt.Format(time.RFC3339),
		DurationMS: r.DurationMS,
		Discovered: r.Stats.CompaniesDiscovered,
		Detected:   r.Stats.PlatformsDetected,
		Upserted:   r.Stats.CompaniesUpserted,
		Harvested:  r.Stats.RegistriesHarvested,
		Updated:    r.Stats.PrioritiesUpdated,
		Growth:     r.Stats.GrowthCompanies,
		Sources:    sources,
		Errors:     errs,
	}
}

func companyOutput(c *domain.Company) CompanyOutput {
	out := CompanyOutput{
		Name:        c.Name,
		Domain:      c.Domain,
		Tier:        string(c.PriorityTier),
		GrowthScore: c.GrowthScore,
		Velocity:    c.JobCreationVelocity,
		Source:      c.DiscoverySource,
	}
	if len(c.ATSIdentifiers) > 0 {
		out.ATS = make(map[string]string, len(c.ATSIdentifiers))
		for vendor, id := range c.ATSIdentifiers {
			out.ATS[string(vendor)] = id
		}
	}
	return out
}
