package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Freshness is a staleness bucket derived from a price's age.
type Freshness string

// Freshness buckets.
const (
	FreshnessFresh Freshness = "fresh"
	FreshnessAging Freshness = "aging"
	FreshnessStale Freshness = "stale"
)

// Freshness boundaries. Fresh is inclusive at 12h; stale starts strictly above 24h.
const (
	FreshWithin = 12 * time.Hour
	AgingWithin = 24 * time.Hour
)

// ClassifyFreshness buckets an age.
func ClassifyFreshness(age time.Duration) Freshness {
	switch {
	case age <= FreshWithin:
		return FreshnessFresh
	case age <= AgingWithin:
		return FreshnessAging
	default:
		return FreshnessStale
	}
}

// Trend is the direction a price series is moving.
type Trend string

// Trend directions.
const (
	TrendIncreasing       Trend = "increasing"
	TrendDecreasing       Trend = "decreasing"
	TrendStable           Trend = "stable"
	TrendInsufficientData Trend = "insufficient_data"
)

// TrendDeadband is the percentage change below which a series is stable.
const TrendDeadband = 2.0

// PricePoint is one price at one time, from either the ledger or history.
type PricePoint struct {
	VendorID   string          `json:"vendor_id"`
	Price      decimal.Decimal `json:"price"`
	RecordedAt time.Time       `json:"recorded_at"`
}

// VendorTrend is the movement of one vendor's price over a window.
type VendorTrend struct {
	VendorID      string          `json:"vendor_id"`
	Direction     Trend           `json:"direction"`
	FirstPrice    decimal.Decimal `json:"first_price"`
	LastPrice     decimal.Decimal `json:"last_price"`
	PercentChange float64         `json:"percent_change"`
	DataPoints    int             `json:"data_points"`
}

// TrendReport describes overall and per-vendor price movement.
type TrendReport struct {
	Overall       Trend         `json:"overall"`
	PercentChange float64       `json:"percent_change"`
	DataPoints    int           `json:"data_points"`
	Vendors       []VendorTrend `json:"vendors,omitempty"`
}

// VendorSavings is what a buyer saves by choosing the cheapest vendor over another.
type VendorSavings struct {
	VendorID string          `json:"vendor_id"`
	Price    decimal.Decimal `json:"price"`
	Savings  decimal.Decimal `json:"savings"`
	Percent  decimal.Decimal `json:"savings_percentage"`
}

// SavingsReport compares the cheapest vendor with the rest.
type SavingsReport struct {
	CheapestVendor string          `json:"cheapest_vendor"`
	CheapestPrice  decimal.Decimal `json:"cheapest_price"`
	Vendors        []VendorSavings `json:"vendors"`
	MaxSavings     decimal.Decimal `json:"max_savings"`
}

// DealSummary collects the notable prices for one product.
type DealSummary struct {
	AbsoluteBest  *Price `json:"absolute_best,omitempty"`
	BestAvailable *Price `json:"best_available,omitempty"`
	BestDiscount  *Price `json:"best_discount,omitempty"`

	// HistoricalLow is the lowest archived price in the recent window.
	HistoricalLow *PricePoint `json:"historical_low,omitempty"`

	// AtHistoricalLow is true when the best current price is at or below HistoricalLow.
	AtHistoricalLow bool `json:"at_historical_low"`
}

// ProductAnalysis is the full derived view of one product.
type ProductAnalysis struct {
	Product     Product        `json:"product"`
	Prices      []Price        `json:"prices"`
	Deals       DealSummary    `json:"deals"`
	Trends      TrendReport    `json:"trends"`
	Savings     *SavingsReport `json:"savings,omitempty"`
	GeneratedAt time.Time      `json:"generated_at"`
}

// Deal is a discounted, in-stock price with its product name.
type Deal struct {
	ProductName string `json:"product_name"`
	Price       Price  `json:"price"`
}

// PriceAlert flags a price that met a buyer's target.
type PriceAlert struct {
	ProductID   string           `json:"product_id"`
	ProductName string           `json:"product_name"`
	VendorID    string           `json:"vendor_id"`
	Price       decimal.Decimal  `json:"price"`
	Discount    *decimal.Decimal `json:"discount_percentage,omitempty"`
	Reason      string           `json:"reason"`
	ProductURL  string           `json:"product_url"`
}

// FreshnessEntry is the freshness of one price.
type FreshnessEntry struct {
	ProductID   string    `json:"product_id"`
	VendorID    string    `json:"vendor_id"`
	LastUpdated time.Time `json:"last_updated"`
	AgeHours    float64   `json:"age_hours"`
	Status      Freshness `json:"status"`
}

// FreshnessReport lists price freshness with aggregate statistics.
type FreshnessReport struct {
	Entries         []FreshnessEntry `json:"entries"`
	Count           int              `json:"count"`
	AverageAgeHours float64          `json:"average_age_hours"`
	OldestAgeHours  float64          `json:"oldest_age_hours"`
	NewestAgeHours  float64          `json:"newest_age_hours"`
	Fresh           int              `json:"fresh"`
	Aging           int              `json:"aging"`
	Stale           int              `json:"stale"`
}
