package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/pricepilot/internal/core/domain"
)

var (
	alertsDiscount float64
	alertsWithin   time.Duration
	alertsProduct  string
	alertsTarget   string
	alertsJSON     bool
)

var alertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "Show price alerts",
	Long: `Shows recently updated in-stock prices with at least --discount percent
off. With --product and --target, shows in-stock prices for that product at
or below the target price instead.`,
	Args: cobra.NoArgs,
	RunE: runAlerts,
}

func init() {
	alertsCmd.Flags().Float64Var(&alertsDiscount, "discount", 20, "minimum discount percentage")
	alertsCmd.Flags().DurationVar(&alertsWithin, "within", 24*time.Hour, "only prices updated within this window")
	alertsCmd.Flags().StringVar(&alertsProduct, "product", "", "product ID for a target price alert")
	alertsCmd.Flags().StringVar(&alertsTarget, "target", "", "target price for --product")
	alertsCmd.Flags().BoolVar(&alertsJSON, "json", false, "output alerts as JSON")
	alertsCmd.MarkFlagsRequiredTogether("product", "target")
	rootCmd.AddCommand(alertsCmd)
}

func runAlerts(cmd *cobra.Command, _ []string) error {
	if analyticsService == nil {
		return errors.New("analytics service not configured")
	}

	var (
		alerts []domain.PriceAlert
		err    error
	)
	if alertsProduct != "" {
		target, parseErr := decimal.NewFromString(alertsTarget)
		if parseErr != nil {
			return fmt.Errorf("invalid target price %q", alertsTarget)
		}
		alerts, err = analyticsService.TargetPriceAlerts(cmd.Context(), alertsProduct, target)
	} else {
		alerts, err = analyticsService.DiscountAlerts(cmd.Context(), alertsDiscount, alertsWithin)
	}
	if err != nil {
		return fmt.Errorf("failed to get alerts: %w", err)
	}

	if alertsJSON {
		return printJSON(cmd, alerts)
	}

	if len(alerts) == 0 {
		cmd.Println("No alerts.")
		return nil
	}

	st := stylesFor(cmd.OutOrStdout())
	rows := make([][]string, len(alerts))
	for i, a := range alerts {
		rows[i] = []string{a.ProductName, a.VendorID, st.Price.Render(formatMoney(a.Price)), a.Reason}
	}
	cmd.Println(renderTable(st, []string{"Product", "Vendor", "Price", "Reason"}, rows))
	return nil
}
