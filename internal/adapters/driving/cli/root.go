// Package cli implements the hirelens command line interface.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hirelens-labs/hirelens/internal/core/ports/driven"
	"github.com/hirelens-labs/hirelens/internal/core/ports/driving"
	"github.com/hirelens-labs/hirelens/internal/logger"
	"github.com/hirelens-labs/hirelens/internal/metrics"
)

// version is overridden by Execute when main passes build info.
var version = "dev"

// Dependencies carries the wired services the commands drive.
type Dependencies struct {
	Pipeline  driving.DiscoveryPipeline
	Priority  driving.PriorityUpdater
	Companies driving.CompanyService
	Sources   driving.SourceCatalog
	Scheduler driving.Scheduler
	Config    driven.ConfigStore
	Metrics   *metrics.Metrics
}

// WireFunc builds the dependency set once flags are parsed, so --config is
// honoured before anything touches storage. The returned cleanup runs after
// the command finishes.
type WireFunc func(configDir string, verbose bool) (*Dependencies, func(), error)

var (
	deps    *Dependencies
	wire    WireFunc
	cleanup func()

	flagVerbose bool
	flagConfig  string
)

var rootCmd = &cobra.Command{
	Use:   "hirelens",
	Short: "Company discovery and hiring-signal prioritisation",
	Long: `HireLens discovers companies from configured sources, detects which ATS
platform they hire through, and maintains a prioritised company registry
for the downstream job crawler.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		logger.SetVerbose(flagVerbose)

		if wire == nil || !commandNeedsDeps(cmd) {
			return nil
		}
		d, c, err := wire(flagConfig, flagVerbose)
		if err != nil {
			return fmt.Errorf("initialise: %w", err)
		}
		deps, cleanup = d, c
		return nil
	},
	PersistentPostRun: func(*cobra.Command, []string) {
		if cleanup != nil {
			cleanup()
			cleanup = nil
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config directory (default ~/.hirelens)")
}

// commandNeedsDeps reports whether the command touches services at all.
// Wiring opens the registry database, which version and help must not do.
func commandNeedsDeps(cmd *cobra.Command) bool {
	switch cmd.Name() {
	case "version", "help", "completion":
		return false
	}
	return true
}

// Execute runs the CLI.
func Execute(buildVersion string, w WireFunc) error {
	if buildVersion != "" {
		version = buildVersion
	}
	wire = w
	return rootCmd.Execute()
}
