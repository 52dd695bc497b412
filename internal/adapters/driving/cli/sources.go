package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/hirelens-labs/hirelens/internal/core/domain"
	"github.com/hirelens-labs/hirelens/internal/core/ports/driving"
)

var sourcesJSON bool

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List discovery sources",
	Long: `Lists the registered discovery sources, whether they will run, and why
disabled sources are skipped. Sources missing credentials are skipped by
discovery, never failed.`,
	Args: cobra.NoArgs,
	RunE: runSources,
}

var sourcesAuthCmd = &cobra.Command{
	Use:   "auth [source-id]",
	Short: "Configure credentials for a source",
	Long: `Prompts for a source's configuration values and stores them in the
config file. Secret values are read without echo.`,
	Args: cobra.ExactArgs(1),
	RunE: runSourcesAuth,
}

func init() {
	sourcesCmd.Flags().BoolVar(&sourcesJSON, "json", false, "output as JSON")
	sourcesCmd.AddCommand(sourcesAuthCmd)
	rootCmd.AddCommand(sourcesCmd)
}

func runSources(cmd *cobra.Command, _ []string) error {
	if deps == nil || deps.Sources == nil {
		return errors.New("source catalog not configured")
	}

	statuses, err := deps.Sources.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("list sources: %w", err)
	}

	if sourcesJSON {
		return printJSON(cmd, statuses)
	}

	header := fmt.Sprintf("%-16s %-9s %10s  %s", "SOURCE", "STATE", "CONFIDENCE", "NOTE")
	cmd.Println(headerStyle.Render(header))

	for _, st := range statuses {
		state := "enabled"
		if !st.Enabled {
			state = "disabled"
		}
		stateCell := enabledStyle(st.Enabled).Render(fmt.Sprintf("%-9s", state))

		note := st.Reason
		if note == "" {
			note = st.Spec.Description
		}

		cmd.Printf("%-16s %s %10.2f  %s\n",
			st.Spec.ID, stateCell, st.Spec.Confidence, mutedStyle.Render(note))
	}

	return nil
}

func runSourcesAuth(cmd *cobra.Command, args []string) error {
	if deps == nil || deps.Sources == nil {
		return errors.New("source catalog not configured")
	}
	sourceID := args[0]

	status, err := findSource(cmd.Context(), sourceID)
	if err != nil {
		return err
	}
	if len(status.Spec.ConfigKeys) == 0 {
		cmd.Printf("Source %s needs no configuration.\n", sourceID)
		return nil
	}

	cmd.Printf("Configuring %s (%s)\n", status.Spec.Name, sourceID)
	cmd.Println(mutedStyle.Render("Leave a field empty to keep its current value."))
	cmd.Println()

	reader := bufio.NewReader(os.Stdin)
	set := 0
	for _, key := range status.Spec.ConfigKeys {
		label := key.Label
		if key.Required {
			label += " (required)"
		}
		cmd.Printf("%s: ", label)

		var value string
		if key.Secret {
			value = readPassword()
			cmd.Println() // ReadPassword swallows the newline
		} else {
			value = readLine(reader)
		}
		if value == "" {
			continue
		}

		if err := deps.Sources.SetCredential(cmd.Context(), sourceID, key.Key, value); err != nil {
			return fmt.Errorf("storing %s: %w", key.Key, err)
		}
		set++
	}

	// Re-validate so the user sees immediately whether the source will run.
	status, err = findSource(cmd.Context(), sourceID)
	if err != nil {
		return err
	}
	state := "enabled"
	if !status.Enabled {
		state = "disabled"
	}
	cmd.Println()
	cmd.Printf("Stored %d value(s); %s is now %s.\n", set, sourceID, enabledStyle(status.Enabled).Render(state))
	if !status.Enabled && status.Reason != "" {
		cmd.Println(mutedStyle.Render(status.Reason))
	}
	return nil
}

// findSource resolves one source's status by ID.
func findSource(ctx context.Context, sourceID string) (*driving.SourceStatus, error) {
	statuses, err := deps.Sources.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}
	for i := range statuses {
		if statuses[i].Spec.ID == sourceID {
			return &statuses[i], nil
		}
	}
	return nil, fmt.Errorf("unknown source %q: %w", sourceID, domain.ErrNotFound)
}

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

//nolint:errcheck // CLI helper, error ignored for UX
func readPassword() string {
	// Try to read without echo
	if term.IsTerminal(int(os.Stdin.Fd())) {
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err == nil {
			return strings.TrimSpace(string(password))
		}
	}
	// Fallback to regular input
	reader := bufio.NewReader(os.Stdin)
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}
