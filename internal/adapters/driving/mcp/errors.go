// Package mcp provides an MCP (Model Context Protocol) server adapter for HireLens.
// It enables AI assistants like Claude to trigger discovery runs and query the
// company registry.
package mcp

import "errors"

// ErrMissingPipeline is returned when the discovery pipeline is not provided.
var ErrMissingPipeline = errors.New("mcp: discovery pipeline is required")

// ErrMissingCompanyService is returned when the company service is not provided.
var ErrMissingCompanyService = errors.New("mcp: company service is required")
