package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscountPercentage(t *testing.T) {
	tests := []struct {
		name     string
		price    string
		original *decimal.Decimal
		want     string
	}{
		{"headphones markdown", "248.00", decPtr("349.99"), "29.14"},
		{"quarter off", "75", decPtr("100"), "25"},
		{"rounds to two places", "2", decPtr("3"), "33.33"},
		{"no original", "100", nil, ""},
		{"original equal to price", "100", decPtr("100"), ""},
		{"original below price", "100", decPtr("90"), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DiscountPercentage(dec(tt.price), tt.original)
			if tt.want == "" {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.True(t, got.Equal(dec(tt.want)), "got %s want %s", got, tt.want)
		})
	}
}

func TestMaterialChange(t *testing.T) {
	threshold := dec("0.01")

	assert.False(t, MaterialChange(dec("10.00"), dec("10.00"), threshold))
	assert.False(t, MaterialChange(dec("10.00"), dec("10.01"), threshold))
	assert.True(t, MaterialChange(dec("10.00"), dec("10.02"), threshold))
	assert.True(t, MaterialChange(dec("10.00"), dec("9.50"), threshold))
}

func TestPrice_Snapshot(t *testing.T) {
	updated := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	p := Price{
		ID:          "price-1",
		ProductID:   "prod-1",
		VendorID:    "amazon",
		Price:       dec("248"),
		StockStatus: StockLimited,
		ProductURL:  "https://www.amazon.com/dp/1",
		LastUpdated: updated,
		CreatedAt:   updated.Add(-time.Hour),
	}

	h := p.Snapshot()
	assert.Equal(t, "price-1", h.PriceID)
	assert.Equal(t, "prod-1", h.ProductID)
	assert.Equal(t, "amazon", h.VendorID)
	assert.True(t, h.Price.Equal(dec("248")))
	assert.Equal(t, StockLimited, h.StockStatus)
	assert.Equal(t, updated, h.RecordedAt)
	assert.Empty(t, h.ID)
}

func TestPrice_InStock(t *testing.T) {
	assert.True(t, (&Price{StockStatus: StockInStock}).InStock())
	assert.False(t, (&Price{StockStatus: StockLimited}).InStock())
}
