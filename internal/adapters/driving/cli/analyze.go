package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/pricepilot/internal/core/domain"
)

var analyzeJSON bool

var analyzeCmd = &cobra.Command{
	Use:   "analyze [product-id]",
	Short: "Analyse prices for a product",
	Long: `Shows the current price at every vendor together with the best deals,
the recent historical low, the 30 day price trend and the savings of the
cheapest vendor over the others.`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "output the analysis as JSON")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	if analyticsService == nil {
		return errors.New("analytics service not configured")
	}

	analysis, err := analyticsService.AnalyzeProduct(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to analyse product: %w", err)
	}

	if analyzeJSON {
		return printJSON(cmd, analysis)
	}
	printAnalysis(cmd, analysis)
	return nil
}

func printAnalysis(cmd *cobra.Command, a *domain.ProductAnalysis) {
	st := stylesFor(cmd.OutOrStdout())

	cmd.Println(st.Title.Render(a.Product.Name))
	category := "-"
	if a.Product.CategoryID != nil {
		category = *a.Product.CategoryID
	}
	cmd.Println(st.Muted.Render(fmt.Sprintf("%s · %s · popularity %d", orDash(a.Product.Brand), category, a.Product.PopularityScore)))
	cmd.Println()

	if len(a.Prices) == 0 {
		cmd.Println("No prices collected yet.")
		return
	}

	rows := make([][]string, len(a.Prices))
	for i := range a.Prices {
		p := &a.Prices[i]
		rows[i] = []string{
			p.VendorID,
			formatMoney(p.Price),
			formatOptMoney(p.OriginalPrice),
			formatPercent(p.DiscountPercentage),
			string(p.StockStatus),
			formatTime(p.LastUpdated),
		}
	}
	cmd.Println(renderTable(st, []string{"Vendor", "Price", "Original", "Discount", "Stock", "Updated"}, rows))
	cmd.Println()

	cmd.Println(st.Subtitle.Render("Deals"))
	printDeal(cmd, "Best price", a.Deals.AbsoluteBest)
	printDeal(cmd, "Best in stock", a.Deals.BestAvailable)
	printDeal(cmd, "Best discount", a.Deals.BestDiscount)
	if low := a.Deals.HistoricalLow; low != nil {
		line := fmt.Sprintf("  Historical low: %s at %s", formatMoney(low.Price), low.VendorID)
		if a.Deals.AtHistoricalLow {
			line += " " + st.Success.Render("(at historical low)")
		}
		cmd.Println(line)
	}
	cmd.Println()

	cmd.Println(st.Subtitle.Render("Trend"))
	if a.Trends.Overall == domain.TrendInsufficientData {
		cmd.Println("  Not enough data")
	} else {
		cmd.Printf("  %s (%+.2f%% over %d data points)\n", a.Trends.Overall, a.Trends.PercentChange, a.Trends.DataPoints)
	}

	if a.Savings != nil && len(a.Savings.Vendors) > 0 {
		cmd.Println()
		cmd.Println(st.Subtitle.Render("Savings"))
		cmd.Printf("  Cheapest at %s for %s\n", a.Savings.CheapestVendor, formatMoney(a.Savings.CheapestPrice))
		for _, v := range a.Savings.Vendors {
			cmd.Printf("  vs %s: save %s (%s%%)\n", v.VendorID, formatMoney(v.Savings), v.Percent.StringFixed(2))
		}
	}
}

func printDeal(cmd *cobra.Command, label string, p *domain.Price) {
	if p == nil {
		return
	}
	line := fmt.Sprintf("  %s: %s at %s", label, formatMoney(p.Price), p.VendorID)
	if p.DiscountPercentage != nil {
		line += fmt.Sprintf(" (%s off)", formatPercent(p.DiscountPercentage))
	}
	cmd.Println(line)
}
