package mcp

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/custodia-labs/pricepilot/internal/core/domain"
)

// Tool outputs carry money as fixed two-decimal strings and times as
// RFC 3339 strings so their JSON schemas stay simple.

// ProductOutput is a catalog product.
type ProductOutput struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Brand      string `json:"brand,omitempty"`
	CategoryID string `json:"category_id,omitempty"`
	Popularity int    `json:"popularity_score"`
}

// PriceOutput is the current price at one vendor.
type PriceOutput struct {
	ProductID     string `json:"product_id"`
	ProductName   string `json:"product_name,omitempty"`
	VendorID      string `json:"vendor_id"`
	Price         string `json:"price"`
	OriginalPrice string `json:"original_price,omitempty"`
	Discount      string `json:"discount_percentage,omitempty"`
	StockStatus   string `json:"stock_status"`
	ProductURL    string `json:"product_url"`
	LastUpdated   string `json:"last_updated"`
}

// AlertOutput is a price that met an alert condition.
type AlertOutput struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	VendorID    string `json:"vendor_id"`
	Price       string `json:"price"`
	Discount    string `json:"discount_percentage,omitempty"`
	Reason      string `json:"reason"`
	ProductURL  string `json:"product_url"`
}

// HistoryOutput is one archived price.
type HistoryOutput struct {
	VendorID    string `json:"vendor_id"`
	Price       string `json:"price"`
	Discount    string `json:"discount_percentage,omitempty"`
	StockStatus string `json:"stock_status"`
	RecordedAt  string `json:"recorded_at"`
}

// RunOutput is one scraper run.
type RunOutput struct {
	ID              string `json:"id"`
	VendorID        string `json:"vendor_id"`
	Status          string `json:"status"`
	StartedAt       string `json:"started_at"`
	ProductsScraped int    `json:"products_scraped"`
	ErrorsCount     int    `json:"errors_count"`
	DurationSeconds int    `json:"duration_seconds,omitempty"`
	Error           string `json:"error,omitempty"`
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func optMoney(d *decimal.Decimal) string {
	if d == nil {
		return ""
	}
	return d.StringFixed(2)
}

func timestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func toProductOutput(p domain.Product) ProductOutput {
	out := ProductOutput{ID: p.ID, Name: p.Name, Brand: p.Brand, Popularity: p.PopularityScore}
	if p.CategoryID != nil {
		out.CategoryID = *p.CategoryID
	}
	return out
}

func toPriceOutput(p *domain.Price, productName string) *PriceOutput {
	if p == nil {
		return nil
	}
	return &PriceOutput{
		ProductID:     p.ProductID,
		ProductName:   productName,
		VendorID:      p.VendorID,
		Price:         money(p.Price),
		OriginalPrice: optMoney(p.OriginalPrice),
		Discount:      optMoney(p.DiscountPercentage),
		StockStatus:   string(p.StockStatus),
		ProductURL:    p.ProductURL,
		LastUpdated:   timestamp(p.LastUpdated),
	}
}

func toAlertOutputs(alerts []domain.PriceAlert) []AlertOutput {
	out := make([]AlertOutput, len(alerts))
	for i, a := range alerts {
		out[i] = AlertOutput{
			ProductID:   a.ProductID,
			ProductName: a.ProductName,
			VendorID:    a.VendorID,
			Price:       money(a.Price),
			Discount:    optMoney(a.Discount),
			Reason:      a.Reason,
			ProductURL:  a.ProductURL,
		}
	}
	return out
}

func toRunOutput(r domain.ScraperRun) RunOutput {
	out := RunOutput{
		ID:              r.ID,
		VendorID:        r.VendorID,
		Status:          string(r.Status),
		StartedAt:       timestamp(r.StartedAt),
		ProductsScraped: r.ProductsScraped,
		ErrorsCount:     r.ErrorsCount,
	}
	if r.DurationSeconds != nil {
		out.DurationSeconds = *r.DurationSeconds
	}
	if msg, ok := r.ErrorDetails["error"].(string); ok {
		out.Error = msg
	}
	return out
}
