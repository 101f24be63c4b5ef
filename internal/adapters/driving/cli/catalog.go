package cli

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var (
	productsLimit int
	productsJSON  bool

	runsVendor string
	runsLimit  int
	runsJSON   bool
)

var productsCmd = &cobra.Command{
	Use:   "products",
	Short: "List catalog products",
	Long:  `Lists catalog products, most popular first.`,
	Args:  cobra.NoArgs,
	RunE:  runProducts,
}

var vendorsCmd = &cobra.Command{
	Use:   "vendors",
	Short: "List known vendors",
	Args:  cobra.NoArgs,
	RunE:  runVendorsList,
}

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recent collection runs",
	Args:  cobra.NoArgs,
	RunE:  runRunsList,
}

func init() {
	productsCmd.Flags().IntVarP(&productsLimit, "limit", "n", 20, "maximum number of products (0 = all)")
	productsCmd.Flags().BoolVar(&productsJSON, "json", false, "output products as JSON")
	runsCmd.Flags().StringVar(&runsVendor, "vendor", "", "only runs of this vendor")
	runsCmd.Flags().IntVarP(&runsLimit, "limit", "n", 20, "maximum number of runs")
	runsCmd.Flags().BoolVar(&runsJSON, "json", false, "output runs as JSON")
	rootCmd.AddCommand(productsCmd)
	rootCmd.AddCommand(vendorsCmd)
	rootCmd.AddCommand(runsCmd)
}

func runProducts(cmd *cobra.Command, _ []string) error {
	if catalogReader == nil {
		return errors.New("catalog not configured")
	}

	products, err := catalogReader.ListProducts(cmd.Context(), productsLimit)
	if err != nil {
		return fmt.Errorf("failed to list products: %w", err)
	}

	if productsJSON {
		return printJSON(cmd, products)
	}

	if len(products) == 0 {
		cmd.Println("No products found.")
		return nil
	}

	st := stylesFor(cmd.OutOrStdout())
	rows := make([][]string, len(products))
	for i := range products {
		p := &products[i]
		category := "-"
		if p.CategoryID != nil {
			category = *p.CategoryID
		}
		rows[i] = []string{p.ID, p.Name, orDash(p.Brand), category, strconv.Itoa(p.PopularityScore)}
	}
	cmd.Println(renderTable(st, []string{"ID", "Name", "Brand", "Category", "Popularity"}, rows))
	return nil
}

func runVendorsList(cmd *cobra.Command, _ []string) error {
	if catalogReader == nil {
		return errors.New("catalog not configured")
	}

	vendors, err := catalogReader.ListVendors(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list vendors: %w", err)
	}

	if len(vendors) == 0 {
		cmd.Println("No vendors registered. Run a collection first.")
		return nil
	}

	st := stylesFor(cmd.OutOrStdout())
	rows := make([][]string, len(vendors))
	for i, v := range vendors {
		active := "no"
		if v.Active {
			active = "yes"
		}
		rows[i] = []string{v.ID, v.DisplayName, orDash(v.BaseURL), active}
	}
	cmd.Println(renderTable(st, []string{"ID", "Name", "URL", "Active"}, rows))
	return nil
}

func runRunsList(cmd *cobra.Command, _ []string) error {
	if catalogReader == nil {
		return errors.New("catalog not configured")
	}

	runs, err := catalogReader.ListRuns(cmd.Context(), runsVendor, runsLimit)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if runsJSON {
		return printJSON(cmd, runs)
	}

	if len(runs) == 0 {
		cmd.Println("No runs recorded.")
		return nil
	}

	st := stylesFor(cmd.OutOrStdout())
	rows := make([][]string, len(runs))
	for i := range runs {
		row := runRow(&runs[i], st.RunStatus(runs[i].Status).Render)
		rows[i] = append([]string{formatTime(runs[i].StartedAt)}, row...)
	}
	cmd.Println(renderTable(st, []string{"Started", "Vendor", "Status", "Products", "Errors", "Duration", "Error"}, rows))
	return nil
}
