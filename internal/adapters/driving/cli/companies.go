package cli

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hirelens-labs/hirelens/internal/core/domain"
	"github.com/hirelens-labs/hirelens/internal/core/ports/driving"
)

var (
	companiesGrowth     bool
	companiesTier       string
	companiesMissingATS bool
	companiesLimit      int
	companiesJSON       bool
)

var companiesCmd = &cobra.Command{
	Use:   "companies",
	Short: "List companies in the registry",
	Long: `Lists active companies ordered by job creation velocity, so the
companies hiring hardest come first.`,
	Args: cobra.NoArgs,
	RunE: runCompanies,
}

func init() {
	companiesCmd.Flags().BoolVar(&companiesGrowth, "growth", false, "only growth companies (spiking or accelerating hiring)")
	companiesCmd.Flags().StringVar(&companiesTier, "tier", "", "filter by priority tier (high, standard, low)")
	companiesCmd.Flags().BoolVar(&companiesMissingATS, "missing-ats", false, "only companies without a detected ATS platform")
	companiesCmd.Flags().IntVarP(&companiesLimit, "limit", "n", 50, "maximum number of companies")
	companiesCmd.Flags().BoolVar(&companiesJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(companiesCmd)
}

func runCompanies(cmd *cobra.Command, _ []string) error {
	if deps == nil || deps.Companies == nil {
		return errors.New("company service not configured")
	}

	tier := domain.PriorityTier(companiesTier)
	if tier != "" && !tier.IsValid() {
		return fmt.Errorf("unknown tier %q (want high, standard or low)", companiesTier)
	}

	companies, err := deps.Companies.List(cmd.Context(), driving.CompanyFilter{
		GrowthOnly: companiesGrowth,
		Tier:       tier,
		MissingATS: companiesMissingATS,
		Limit:      companiesLimit,
	})
	if err != nil {
		return fmt.Errorf("list companies: %w", err)
	}

	if companiesJSON {
		return printJSON(cmd, companies)
	}

	printCompanyTable(cmd, companies)
	return nil
}

func printCompanyTable(cmd *cobra.Command, companies []domain.Company) {
	if len(companies) == 0 {
		cmd.Println("No companies matched. Seed sources and try `hirelens run`.")
		return
	}

	header := fmt.Sprintf("%-28s %-9s %9s %7s  %s", "DOMAIN", "TIER", "VELOCITY", "GROWTH", "ATS")
	cmd.Println(headerStyle.Render(header))

	for i := range companies {
		c := &companies[i]

		tierCell := tierStyle(c.PriorityTier).Render(fmt.Sprintf("%-9s", c.PriorityTier))

		velCell := fmt.Sprintf("%9.1f", c.JobCreationVelocity)
		if c.JobCreationVelocity == 0 {
			velCell = mutedStyle.Render(velCell)
		}

		cmd.Printf("%-28s %s %s %7d  %s\n",
			truncate(c.Domain, 28), tierCell, velCell, c.GrowthScore, atsCell(c))
	}

	cmd.Println()
	cmd.Println(mutedStyle.Render(fmt.Sprintf("%d companies", len(companies))))
}

// atsCell renders the detected vendors, or a muted placeholder.
func atsCell(c *domain.Company) string {
	if !c.HasATS() {
		return mutedStyle.Render("-")
	}
	vendors := make([]string, 0, len(c.ATSIdentifiers))
	for vendor := range c.ATSIdentifiers {
		vendors = append(vendors, string(vendor))
	}
	sort.Strings(vendors)
	return strings.Join(vendors, ",")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}
