package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	historyDays int
	historyJSON bool
)

var historyCmd = &cobra.Command{
	Use:   "history [product-id] [vendor-id]",
	Short: "Show archived prices for a product",
	Long: `Shows archived prices for a product, newest first. A price is archived
when a later observation changes it by more than the materiality threshold.
Without a vendor ID every vendor is included.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runHistory,
}

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove archived prices past the retention period",
	Args:  cobra.NoArgs,
	RunE:  runPrune,
}

func init() {
	historyCmd.Flags().IntVarP(&historyDays, "days", "d", 0, "window in days (default from settings)")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "output history as JSON")
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(pruneCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	if ledgerService == nil {
		return errors.New("ledger not configured")
	}

	vendorID := ""
	if len(args) > 1 {
		vendorID = args[1]
	}

	history, err := ledgerService.History(cmd.Context(), args[0], vendorID, historyDays)
	if err != nil {
		return fmt.Errorf("failed to get history: %w", err)
	}

	if historyJSON {
		return printJSON(cmd, history)
	}

	if len(history) == 0 {
		cmd.Println("No price history.")
		return nil
	}

	st := stylesFor(cmd.OutOrStdout())
	rows := make([][]string, len(history))
	for i := range history {
		h := &history[i]
		rows[i] = []string{
			formatTime(h.RecordedAt),
			h.VendorID,
			formatMoney(h.Price),
			formatOptMoney(h.OriginalPrice),
			formatPercent(h.DiscountPercentage),
			string(h.StockStatus),
		}
	}
	cmd.Println(renderTable(st, []string{"Recorded", "Vendor", "Price", "Original", "Discount", "Stock"}, rows))
	return nil
}

func runPrune(cmd *cobra.Command, _ []string) error {
	if ledgerService == nil {
		return errors.New("ledger not configured")
	}

	removed, err := ledgerService.PruneHistory(cmd.Context())
	if err != nil {
		return fmt.Errorf("prune failed: %w", err)
	}

	cmd.Printf("Removed %d archived prices.\n", removed)
	return nil
}
