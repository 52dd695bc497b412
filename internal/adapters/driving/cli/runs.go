package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hirelens-labs/hirelens/internal/core/domain"
)

var (
	runsLimit int
	runsJSON  bool
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Show discovery run history",
	Long:  `Shows the audit records of recent pipeline runs, most recent first.`,
	Args:  cobra.NoArgs,
	RunE:  runRuns,
}

func init() {
	runsCmd.Flags().IntVarP(&runsLimit, "limit", "n", 10, "maximum number of runs")
	runsCmd.Flags().BoolVar(&runsJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(runsCmd)
}

func runRuns(cmd *cobra.Command, _ []string) error {
	if deps == nil || deps.Pipeline == nil {
		return errors.New("pipeline not configured")
	}

	results, err := deps.Pipeline.History(cmd.Context(), runsLimit)
	if err != nil {
		return fmt.Errorf("run history: %w", err)
	}

	if runsJSON {
		return printJSON(cmd, results)
	}

	printRunTable(cmd, results)
	return nil
}

func printRunTable(cmd *cobra.Command, results []domain.DiscoveryRunResult) {
	if len(results) == 0 {
		cmd.Println("No runs recorded yet.")
		return
	}

	header := fmt.Sprintf("%-18s %-8s %-16s %9s %10s %8s %6s",
		"RUN", "STATUS", "STARTED", "DURATION", "DISCOVERED", "UPSERTED", "ERRORS")
	cmd.Println(headerStyle.Render(header))

	for i := range results {
		r := &results[i]

		statusCell := runStatusStyle(r.Status).Render(fmt.Sprintf("%-8s", r.Status))

		errCell := fmt.Sprintf("%6d", len(r.Errors))
		if len(r.Errors) > 0 {
			errCell = errStyle.Render(errCell)
		}

		cmd.Printf("%-18s %s %-16s %9s %10d %8d %s\n",
			truncate(r.RunID, 18),
			statusCell,
			r.StartedAt.Local().Format("2006-01-02 15:04"),
			r.Duration().Round(time.Second),
			r.Stats.CompaniesDiscovered,
			r.Stats.CompaniesUpserted,
			errCell)
	}
}
