package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// uriScheme is the custom URI scheme for HireLens resources.
	uriScheme = "hirelens://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	// Static resource for the most recent run.
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "runs/latest",
		Name:        "latest-run",
		Description: "Audit record of the most recent discovery run",
		MIMEType:    "application/json",
	}, s.handleLatestRunResource)

	// Static resource for listing discovery sources.
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "sources",
		Name:        "sources",
		Description: "Registered discovery sources and their enablement state",
		MIMEType:    "application/json",
	}, s.handleSourcesResource)

	// Template for individual registry companies.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "companies/{domain}",
		Name:        "company",
		Description: "A registry company looked up by domain",
		MIMEType:    "application/json",
	}, s.handleCompanyResource)
}

// handleLatestRunResource returns the most recent run's audit record.
func (s *Server) handleLatestRunResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	runs, err := s.ports.Pipeline.History(ctx, 1)
	if err != nil {
		return nil, fmt.Errorf("reading run history: %w", err)
	}
	if len(runs) == 0 {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	data, err := json.MarshalIndent(runOutput(&runs[0]), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling run: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// handleSourcesResource returns the registered discovery sources.
func (s *Server) handleSourcesResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Sources == nil {
		return &mcp.ReadResourceResult{
			Contents: []*mcp.ResourceContents{{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     "[]",
			}},
		}, nil
	}

	statuses, err := s.ports.Sources.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing sources: %w", err)
	}

	// Build simplified source list.
	type sourceInfo struct {
		ID         string  `json:"id"`
		Name       string  `json:"name"`
		Confidence float64 `json:"confidence"`
		Enabled    bool    `json:"enabled"`
		Reason     string  `json:"reason,omitempty"`
	}

	infos := make([]sourceInfo, len(statuses))
	for i, status := range statuses {
		infos[i] = sourceInfo{
			ID:         status.Spec.ID,
			Name:       status.Spec.Name,
			Confidence: status.Spec.Confidence,
			Enabled:    status.Enabled,
			Reason:     status.Reason,
		}
	}

	data, err := json.MarshalIndent(infos, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling sources: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// handleCompanyResource returns a single registry company by domain.
func (s *Server) handleCompanyResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	// Extract the domain from URI: hirelens://companies/{domain}
	companyDomain := extractCompanyDomain(req.Params.URI)
	if companyDomain == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	company, err := s.ports.Companies.Get(ctx, companyDomain)
	if err != nil {
		return nil, fmt.Errorf("getting company %s: %w", companyDomain, err)
	}

	data, err := json.MarshalIndent(companyOutput(company), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling company: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractCompanyDomain extracts the domain from a URI like hirelens://companies/{domain}.
func extractCompanyDomain(uri string) string {
	const prefix = uriScheme + "companies/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	return strings.TrimPrefix(uri, prefix)
}
