package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/hirelens-labs/hirelens/internal/core/domain"
)

var runJSONOutput bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the discovery pipeline once",
	Long: `Runs the full pipeline: source discovery, ATS platform detection,
registry upsert, board harvest, priority refresh and growth detection.
Prints the run summary when it completes.`,
	Args: cobra.NoArgs,
	RunE: runDiscovery,
}

func init() {
	runCmd.Flags().BoolVar(&runJSONOutput, "json", false, "output the run result as JSON")
	rootCmd.AddCommand(runCmd)
}

func runDiscovery(cmd *cobra.Command, _ []string) error {
	if deps == nil || deps.Pipeline == nil {
		return errors.New("pipeline not configured")
	}

	result, err := deps.Pipeline.Run(cmd.Context())
	if err != nil {
		if errors.Is(err, domain.ErrRunInProgress) {
			return errors.New("a discovery run is already in progress")
		}
		return fmt.Errorf("discovery run: %w", err)
	}

	if runJSONOutput {
		return printJSON(cmd, result)
	}

	printRunResult(cmd, result)

	// A failed run still printed its summary; the exit code is for scripts.
	if result.Status == domain.RunFailed {
		return fmt.Errorf("run %s failed with %d errors", result.RunID, len(result.Errors))
	}
	return nil
}

func printRunResult(cmd *cobra.Command, r *domain.DiscoveryRunResult) {
	status := runStatusStyle(r.Status).Render(string(r.Status))
	cmd.Printf("Run %s %s in %s\n", r.RunID, status, r.Duration().Round(time.Millisecond))
	cmd.Println()
	cmd.Printf("  Sources:        %s\n", strings.Join(r.Sources, ", "))
	cmd.Printf("  Discovered:     %d\n", r.Stats.CompaniesDiscovered)
	cmd.Printf("  Detected:       %d\n", r.Stats.PlatformsDetected)
	cmd.Printf("  Harvested:      %d\n", r.Stats.RegistriesHarvested)
	cmd.Printf("  Upserted:       %d\n", r.Stats.CompaniesUpserted)
	cmd.Printf("  Reprioritised:  %d\n", r.Stats.PrioritiesUpdated)
	cmd.Printf("  Growth:         %d\n", r.Stats.GrowthCompanies)

	if len(r.Errors) > 0 {
		cmd.Println()
		cmd.Println(errStyle.Render("Errors:"))
		for _, e := range r.Errors {
			cmd.Printf("  - %s\n", e)
		}
	}
}
