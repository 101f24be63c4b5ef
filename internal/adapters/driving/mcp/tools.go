package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/shopspring/decimal"

	"github.com/custodia-labs/pricepilot/internal/core/domain"
)

const (
	defaultLimit       = 10
	defaultMinDiscount = 20.0
	defaultWithinHours = 24
)

// ProductInput selects one product.
type ProductInput struct {
	ProductID string `json:"product_id" jsonschema:"the catalog product ID"`
}

// AnalysisOutput is the output schema for the analyze_product tool.
type AnalysisOutput struct {
	Product         ProductOutput `json:"product"`
	Prices          []PriceOutput `json:"prices"`
	AbsoluteBest    *PriceOutput  `json:"absolute_best,omitempty"`
	BestAvailable   *PriceOutput  `json:"best_available,omitempty"`
	BestDiscount    *PriceOutput  `json:"best_discount,omitempty"`
	HistoricalLow   string        `json:"historical_low,omitempty"`
	AtHistoricalLow bool          `json:"at_historical_low"`
	Trend           string        `json:"trend"`
	TrendPercent    float64       `json:"trend_percent_change"`
	CheapestVendor  string        `json:"cheapest_vendor,omitempty"`
	MaxSavings      string        `json:"max_savings,omitempty"`
}

// DealsInput is the input schema for the best_deals tool.
type DealsInput struct {
	Category string `json:"category,omitempty" jsonschema:"category ID to filter by, e.g. headphones"`
	Limit    int    `json:"limit,omitempty" jsonschema:"maximum number of deals to return (default 10)"`
}

// DealsOutput is the output schema for the best_deals tool.
type DealsOutput struct {
	Deals []PriceOutput `json:"deals"`
	Count int           `json:"count"`
}

// DiscountAlertsInput is the input schema for the discount_alerts tool.
type DiscountAlertsInput struct {
	MinDiscount float64 `json:"min_discount,omitempty" jsonschema:"minimum discount percentage (default 20)"`
	WithinHours int     `json:"within_hours,omitempty" jsonschema:"only prices updated within this many hours (default 24)"`
}

// TargetAlertsInput is the input schema for the target_price_alerts tool.
type TargetAlertsInput struct {
	ProductID   string `json:"product_id" jsonschema:"the catalog product ID"`
	TargetPrice string `json:"target_price" jsonschema:"the buyer's target price, e.g. 199.99"`
}

// AlertsOutput is the output schema for alert tools.
type AlertsOutput struct {
	Alerts []AlertOutput `json:"alerts"`
	Count  int           `json:"count"`
}

// FreshnessInput is the input schema for the price_freshness tool.
type FreshnessInput struct {
	ProductID string `json:"product_id,omitempty" jsonschema:"limit the report to one product"`
}

// FreshnessOutput is the output schema for the price_freshness tool.
type FreshnessOutput struct {
	Count           int     `json:"count"`
	Fresh           int     `json:"fresh"`
	Aging           int     `json:"aging"`
	Stale           int     `json:"stale"`
	AverageAgeHours float64 `json:"average_age_hours"`
	OldestAgeHours  float64 `json:"oldest_age_hours"`
}

// ListProductsInput is the input schema for the list_products tool.
type ListProductsInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"maximum number of products to return (default 10)"`
}

// ProductsOutput is the output schema for the list_products tool.
type ProductsOutput struct {
	Products []ProductOutput `json:"products"`
	Count    int             `json:"count"`
}

// HistoryInput is the input schema for the price_history tool.
type HistoryInput struct {
	ProductID string `json:"product_id" jsonschema:"the catalog product ID"`
	VendorID  string `json:"vendor_id,omitempty" jsonschema:"limit history to one vendor"`
	Days      int    `json:"days,omitempty" jsonschema:"window in days (default 30)"`
}

// HistoryListOutput is the output schema for the price_history tool.
type HistoryListOutput struct {
	History []HistoryOutput `json:"history"`
	Count   int             `json:"count"`
}

// RunsInput is the input schema for the list_runs tool.
type RunsInput struct {
	VendorID string `json:"vendor_id,omitempty" jsonschema:"limit runs to one vendor"`
	Limit    int    `json:"limit,omitempty" jsonschema:"maximum number of runs to return (default 10)"`
}

// RunsOutput is the output schema for the list_runs tool.
type RunsOutput struct {
	Runs  []RunOutput `json:"runs"`
	Count int         `json:"count"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "analyze_product",
		Description: "Current prices, best deals, price trend and savings for one product",
	}, s.handleAnalyzeProduct)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "best_deals",
		Description: "In-stock discounted prices, biggest discount first",
	}, s.handleBestDeals)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "discount_alerts",
		Description: "Recently updated in-stock prices with at least the given discount",
	}, s.handleDiscountAlerts)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "target_price_alerts",
		Description: "In-stock prices for a product at or below a target price",
	}, s.handleTargetAlerts)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "price_freshness",
		Description: "How current the collected prices are",
	}, s.handleFreshness)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_products",
		Description: "Catalog products, most popular first",
	}, s.handleListProducts)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_runs",
		Description: "Recent collection runs and their outcomes",
	}, s.handleListRuns)

	if s.ports.Ledger != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "price_history",
			Description: "Archived prices for a product, newest first",
		}, s.handlePriceHistory)
	}
}

func (s *Server) handleAnalyzeProduct(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ProductInput,
) (*mcp.CallToolResult, AnalysisOutput, error) {
	analysis, err := s.ports.Analytics.AnalyzeProduct(ctx, input.ProductID)
	if err != nil {
		return nil, AnalysisOutput{}, err
	}
	return nil, toAnalysisOutput(analysis), nil
}

func toAnalysisOutput(a *domain.ProductAnalysis) AnalysisOutput {
	out := AnalysisOutput{
		Product:         toProductOutput(a.Product),
		Prices:          make([]PriceOutput, len(a.Prices)),
		AbsoluteBest:    toPriceOutput(a.Deals.AbsoluteBest, a.Product.Name),
		BestAvailable:   toPriceOutput(a.Deals.BestAvailable, a.Product.Name),
		BestDiscount:    toPriceOutput(a.Deals.BestDiscount, a.Product.Name),
		AtHistoricalLow: a.Deals.AtHistoricalLow,
		Trend:           string(a.Trends.Overall),
		TrendPercent:    a.Trends.PercentChange,
	}
	for i := range a.Prices {
		out.Prices[i] = *toPriceOutput(&a.Prices[i], a.Product.Name)
	}
	if a.Deals.HistoricalLow != nil {
		out.HistoricalLow = money(a.Deals.HistoricalLow.Price)
	}
	if a.Savings != nil {
		out.CheapestVendor = a.Savings.CheapestVendor
		out.MaxSavings = money(a.Savings.MaxSavings)
	}
	return out
}

func (s *Server) handleBestDeals(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input DealsInput,
) (*mcp.CallToolResult, DealsOutput, error) {
	deals, err := s.ports.Analytics.BestDeals(ctx, input.Category, limitOrDefault(input.Limit))
	if err != nil {
		return nil, DealsOutput{}, err
	}

	output := DealsOutput{Deals: make([]PriceOutput, len(deals)), Count: len(deals)}
	for i := range deals {
		output.Deals[i] = *toPriceOutput(&deals[i].Price, deals[i].ProductName)
	}
	return nil, output, nil
}

func (s *Server) handleDiscountAlerts(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input DiscountAlertsInput,
) (*mcp.CallToolResult, AlertsOutput, error) {
	minDiscount := input.MinDiscount
	if minDiscount <= 0 {
		minDiscount = defaultMinDiscount
	}
	hours := input.WithinHours
	if hours <= 0 {
		hours = defaultWithinHours
	}

	alerts, err := s.ports.Analytics.DiscountAlerts(ctx, minDiscount, time.Duration(hours)*time.Hour)
	if err != nil {
		return nil, AlertsOutput{}, err
	}
	return nil, AlertsOutput{Alerts: toAlertOutputs(alerts), Count: len(alerts)}, nil
}

func (s *Server) handleTargetAlerts(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input TargetAlertsInput,
) (*mcp.CallToolResult, AlertsOutput, error) {
	target, err := decimal.NewFromString(input.TargetPrice)
	if err != nil {
		return nil, AlertsOutput{}, fmt.Errorf("%w: target price %q", domain.ErrInvalidInput, input.TargetPrice)
	}

	alerts, err := s.ports.Analytics.TargetPriceAlerts(ctx, input.ProductID, target)
	if err != nil {
		return nil, AlertsOutput{}, err
	}
	return nil, AlertsOutput{Alerts: toAlertOutputs(alerts), Count: len(alerts)}, nil
}

func (s *Server) handleFreshness(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input FreshnessInput,
) (*mcp.CallToolResult, FreshnessOutput, error) {
	report, err := s.ports.Analytics.Freshness(ctx, input.ProductID)
	if err != nil {
		return nil, FreshnessOutput{}, err
	}
	return nil, FreshnessOutput{
		Count:           report.Count,
		Fresh:           report.Fresh,
		Aging:           report.Aging,
		Stale:           report.Stale,
		AverageAgeHours: report.AverageAgeHours,
		OldestAgeHours:  report.OldestAgeHours,
	}, nil
}

func (s *Server) handleListProducts(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ListProductsInput,
) (*mcp.CallToolResult, ProductsOutput, error) {
	products, err := s.ports.Catalog.ListProducts(ctx, limitOrDefault(input.Limit))
	if err != nil {
		return nil, ProductsOutput{}, err
	}

	output := ProductsOutput{Products: make([]ProductOutput, len(products)), Count: len(products)}
	for i, p := range products {
		output.Products[i] = toProductOutput(p)
	}
	return nil, output, nil
}

func (s *Server) handleListRuns(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RunsInput,
) (*mcp.CallToolResult, RunsOutput, error) {
	runs, err := s.ports.Catalog.ListRuns(ctx, input.VendorID, limitOrDefault(input.Limit))
	if err != nil {
		return nil, RunsOutput{}, err
	}

	output := RunsOutput{Runs: make([]RunOutput, len(runs)), Count: len(runs)}
	for i, r := range runs {
		output.Runs[i] = toRunOutput(r)
	}
	return nil, output, nil
}

func (s *Server) handlePriceHistory(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input HistoryInput,
) (*mcp.CallToolResult, HistoryListOutput, error) {
	history, err := s.ports.Ledger.History(ctx, input.ProductID, input.VendorID, input.Days)
	if err != nil {
		return nil, HistoryListOutput{}, err
	}

	output := HistoryListOutput{History: make([]HistoryOutput, len(history)), Count: len(history)}
	for i, h := range history {
		output.History[i] = HistoryOutput{
			VendorID:    h.VendorID,
			Price:       money(h.Price),
			Discount:    optMoney(h.DiscountPercentage),
			StockStatus: string(h.StockStatus),
			RecordedAt:  timestamp(h.RecordedAt),
		}
	}
	return nil, output, nil
}

func limitOrDefault(limit int) int {
	if limit <= 0 {
		return defaultLimit
	}
	return limit
}
