package driving

import (
	"context"
	"time"

	"github.com/hirelens-labs/hirelens/internal/core/domain"
)

// DiscoveryPipeline coordinates a full discovery-to-prioritisation run.
type DiscoveryPipeline interface {
	// Run executes the pipeline phases in order and returns the run result.
	// The result is always complete: a failed run still carries status,
	// stats and errors. The error return is reserved for re-entry rejection.
	Run(ctx context.Context) (*domain.DiscoveryRunResult, error)

	// Status returns the state of the current or most recent run.
	Status(ctx context.Context) (*PipelineStatus, error)

	// History returns recent run results, most recent first.
	History(ctx context.Context, limit int) ([]domain.DiscoveryRunResult, error)
}

// PipelineStatus represents the current state of the pipeline.
type PipelineStatus struct {
	// Running indicates if a run is currently in progress.
	Running bool

	// RunID identifies the current or most recent run.
	RunID string

	// Phase names the phase currently executing, empty when idle.
	Phase string

	// StartedAt is when the current or most recent run began.
	StartedAt time.Time

	// ErrorCount is the number of errors recorded so far.
	ErrorCount int
}

// PriorityUpdater recomputes company priorities from hiring signals.
type PriorityUpdater interface {
	// UpdateAll re-scores every active company and applies tier and score
	// changes. Returns the number of companies whose priority changed.
	UpdateAll(ctx context.Context) (int, error)

	// Score computes the blended priority score for one company without
	// writing anything. Used by the CLI and MCP surfaces to explain rankings.
	Score(ctx context.Context, companyDomain string) (*domain.SmartPriorityScore, error)
}
