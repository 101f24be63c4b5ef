package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	freshnessProduct string
	freshnessJSON    bool
)

var freshnessCmd = &cobra.Command{
	Use:   "freshness",
	Short: "Report how current collected prices are",
	Long: `Lists the age of every current price. Prices are fresh up to 12 hours,
aging up to 24 hours and stale after that.`,
	Args: cobra.NoArgs,
	RunE: runFreshness,
}

func init() {
	freshnessCmd.Flags().StringVar(&freshnessProduct, "product", "", "only prices of this product")
	freshnessCmd.Flags().BoolVar(&freshnessJSON, "json", false, "output the report as JSON")
	rootCmd.AddCommand(freshnessCmd)
}

func runFreshness(cmd *cobra.Command, _ []string) error {
	if analyticsService == nil {
		return errors.New("analytics service not configured")
	}

	report, err := analyticsService.Freshness(cmd.Context(), freshnessProduct)
	if err != nil {
		return fmt.Errorf("failed to get freshness: %w", err)
	}

	if freshnessJSON {
		return printJSON(cmd, report)
	}

	if report.Count == 0 {
		cmd.Println("No prices collected yet.")
		return nil
	}

	st := stylesFor(cmd.OutOrStdout())
	rows := make([][]string, len(report.Entries))
	for i, e := range report.Entries {
		rows[i] = []string{
			e.ProductID,
			e.VendorID,
			formatTime(e.LastUpdated),
			formatAge(e.AgeHours),
			st.Freshness(e.Status).Render(string(e.Status)),
		}
	}
	cmd.Println(renderTable(st, []string{"Product", "Vendor", "Updated", "Age", "Status"}, rows))
	cmd.Printf("%d prices: %d fresh, %d aging, %d stale (average age %s, oldest %s)\n",
		report.Count, report.Fresh, report.Aging, report.Stale,
		formatAge(report.AverageAgeHours), formatAge(report.OldestAgeHours))
	return nil
}
