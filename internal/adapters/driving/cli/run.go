package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/pricepilot/internal/core/domain"
)

var (
	runQueries []string
	runVendors []string
	runJSON    bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Collect prices from all active vendors",
	Long: `Runs one collection pass. Every active vendor is searched for every
query, each listing is matched to a catalog product and applied to the
price ledger. Vendors run concurrently; a failing vendor does not affect
the others.

Without --query the configured query list is used.`,
	Args: cobra.NoArgs,
	RunE: runCollect,
}

func init() {
	runCmd.Flags().StringArrayVarP(&runQueries, "query", "q", nil, "query to collect (repeatable)")
	runCmd.Flags().StringSliceVar(&runVendors, "vendor", nil, "limit the run to these vendor IDs")
	runCmd.Flags().BoolVar(&runJSON, "json", false, "output the summary as JSON")
	rootCmd.AddCommand(runCmd)
}

func runCollect(cmd *cobra.Command, _ []string) error {
	if collector == nil {
		return errors.New("collector not configured")
	}

	if !runJSON {
		cmd.Println("Collecting prices...")
	}

	summary, err := collector.RunVendors(cmd.Context(), runQueries, runVendors)
	if err != nil {
		return fmt.Errorf("collection failed: %w", err)
	}

	if runJSON {
		return printJSON(cmd, summary)
	}
	printRunSummary(cmd, summary)
	return nil
}

func printRunSummary(cmd *cobra.Command, summary *domain.RunSummary) {
	st := stylesFor(cmd.OutOrStdout())

	rows := make([][]string, 0, len(summary.Runs))
	for i := range summary.Runs {
		rows = append(rows, runRow(&summary.Runs[i], st.RunStatus(summary.Runs[i].Status).Render))
	}
	if len(rows) > 0 {
		cmd.Println(renderTable(st, []string{"Vendor", "Status", "Products", "Errors", "Duration", "Error"}, rows))
	}

	elapsed := summary.CompletedAt.Sub(summary.StartedAt).Round(100 * time.Millisecond)
	cmd.Printf("%s %d products, %d errors across %d vendors in %s\n",
		st.Title.Render("Done:"), summary.TotalProducts, summary.TotalErrors, len(summary.Runs), elapsed)

	if len(summary.FailedVendors) > 0 {
		cmd.Println(st.Error.Render("Failed vendors: " + strings.Join(summary.FailedVendors, ", ")))
	}
	if len(summary.SkippedVendors) > 0 {
		cmd.Println(st.Warning.Render("Skipped (run in progress): " + strings.Join(summary.SkippedVendors, ", ")))
	}
}

func runRow(run *domain.ScraperRun, status func(...string) string) []string {
	duration := "-"
	if run.DurationSeconds != nil {
		duration = strconv.Itoa(*run.DurationSeconds) + "s"
	}
	msg, _ := run.ErrorDetails["error"].(string)
	return []string{
		run.VendorID,
		status(string(run.Status)),
		strconv.Itoa(run.ProductsScraped),
		strconv.Itoa(run.ErrorsCount),
		duration,
		orDash(msg),
	}
}
