package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Price is the latest known state of one product at one vendor.
// There is at most one Price per (ProductID, VendorID).
type Price struct {
	ID                 string           `json:"id"`
	ProductID          string           `json:"product_id"`
	VendorID           string           `json:"vendor_id"`
	Price              decimal.Decimal  `json:"price"`
	OriginalPrice      *decimal.Decimal `json:"original_price,omitempty"`
	DiscountPercentage *decimal.Decimal `json:"discount_percentage,omitempty"`
	StockStatus        StockStatus      `json:"stock_status"`
	ProductURL         string           `json:"product_url"`
	VariationDetails   map[string]any   `json:"variation_details,omitempty"`
	LastUpdated        time.Time        `json:"last_updated"`
	CreatedAt          time.Time        `json:"created_at"`
}

// InStock reports whether the price can be bought right now.
func (p *Price) InStock() bool {
	return p.StockStatus == StockInStock
}

// Snapshot returns the history row that archives the current values.
// RecordedAt is when these values stopped being current.
func (p *Price) Snapshot() PriceHistory {
	return PriceHistory{
		PriceID:            p.ID,
		ProductID:          p.ProductID,
		VendorID:           p.VendorID,
		Price:              p.Price,
		OriginalPrice:      p.OriginalPrice,
		DiscountPercentage: p.DiscountPercentage,
		StockStatus:        p.StockStatus,
		ProductURL:         p.ProductURL,
		VariationDetails:   p.VariationDetails,
		RecordedAt:         p.LastUpdated,
	}
}

// PriceHistory is an immutable snapshot of a superseded Price.
type PriceHistory struct {
	ID                 string           `json:"id"`
	PriceID            string           `json:"price_id"`
	ProductID          string           `json:"product_id"`
	VendorID           string           `json:"vendor_id"`
	Price              decimal.Decimal  `json:"price"`
	OriginalPrice      *decimal.Decimal `json:"original_price,omitempty"`
	DiscountPercentage *decimal.Decimal `json:"discount_percentage,omitempty"`
	StockStatus        StockStatus      `json:"stock_status"`
	ProductURL         string           `json:"product_url"`
	VariationDetails   map[string]any   `json:"variation_details,omitempty"`
	RecordedAt         time.Time        `json:"recorded_at"`
}

// DiscountPercentage returns ((original - price) / original) * 100 rounded
// to two decimals. It returns nil unless original is present and strictly
// greater than price.
func DiscountPercentage(price decimal.Decimal, original *decimal.Decimal) *decimal.Decimal {
	if original == nil || !original.GreaterThan(price) || !original.IsPositive() {
		return nil
	}
	pct := original.Sub(price).Div(*original).Mul(hundred).Round(2)
	return &pct
}

// MaterialChange reports whether two prices differ by more than threshold.
func MaterialChange(oldPrice, newPrice, threshold decimal.Decimal) bool {
	return oldPrice.Sub(newPrice).Abs().GreaterThan(threshold)
}
