package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	dealsCategory string
	dealsLimit    int
	dealsJSON     bool
)

var dealsCmd = &cobra.Command{
	Use:   "deals",
	Short: "List the best current deals",
	Long:  `Lists in-stock prices with a discount, biggest discount first.`,
	Args:  cobra.NoArgs,
	RunE:  runDeals,
}

func init() {
	dealsCmd.Flags().StringVarP(&dealsCategory, "category", "c", "", "only deals in this category")
	dealsCmd.Flags().IntVarP(&dealsLimit, "limit", "n", 10, "maximum number of deals")
	dealsCmd.Flags().BoolVar(&dealsJSON, "json", false, "output deals as JSON")
	rootCmd.AddCommand(dealsCmd)
}

func runDeals(cmd *cobra.Command, _ []string) error {
	if analyticsService == nil {
		return errors.New("analytics service not configured")
	}

	deals, err := analyticsService.BestDeals(cmd.Context(), dealsCategory, dealsLimit)
	if err != nil {
		return fmt.Errorf("failed to get deals: %w", err)
	}

	if dealsJSON {
		return printJSON(cmd, deals)
	}

	if len(deals) == 0 {
		cmd.Println("No deals found.")
		return nil
	}

	st := stylesFor(cmd.OutOrStdout())
	rows := make([][]string, len(deals))
	for i := range deals {
		p := &deals[i].Price
		rows[i] = []string{
			deals[i].ProductName,
			p.VendorID,
			st.Price.Render(formatMoney(p.Price)),
			formatOptMoney(p.OriginalPrice),
			st.Discount.Render(formatPercent(p.DiscountPercentage)),
		}
	}
	cmd.Println(renderTable(st, []string{"Product", "Vendor", "Price", "Original", "Discount"}, rows))
	return nil
}
