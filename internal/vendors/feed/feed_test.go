package feed

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/pricepilot/internal/core/domain"
)

func TestNormalizePrice(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"$1,299.99", "1299.99"},
		{"USD 248", "248"},
		{"249.00 €", "249"},
		{"  349.99", "349.99"},
		{"12,345", "12345"},
		{"Now $79.5 (was $99)", "79.5"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := NormalizePrice(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestNormalizePrice_NoDigits(t *testing.T) {
	for _, in := range []string{"", "call for price", "$"} {
		_, err := NormalizePrice(in)
		assert.ErrorIs(t, err, domain.ErrMalformedObservation, in)
	}
}

func TestNormalizePrice_Negative(t *testing.T) {
	for _, in := range []string{"-$5.00", "$-5.00", "-5", "USD -1,299.99"} {
		_, err := NormalizePrice(in)
		assert.ErrorIs(t, err, domain.ErrMalformedObservation, in)
	}
}

func TestDecode_NegativePriceText(t *testing.T) {
	obs, err := Decode("amazon", strings.NewReader(`[{"name": "Sony WH-1000XM4", "price": "-$5.00"}]`))
	require.NoError(t, err)
	require.Len(t, obs, 1)
	assert.ErrorIs(t, obs[0].Validate(), domain.ErrMalformedObservation)
}

func TestDecode_Array(t *testing.T) {
	body := `[
		{"name": "Sony WH-1000XM4", "price": 248, "original_price": "$349.99",
		 "stock_status": "in_stock", "product_url": "https://a.test/1",
		 "variation_details": {"color": "black"}},
		{"name": "Bose QC45", "price": "$279.00", "stock_status": "LIMITED_STOCK", "product_url": "https://a.test/2"}
	]`

	obs, err := Decode("amazon", strings.NewReader(body))

	require.NoError(t, err)
	require.Len(t, obs, 2)
	assert.Equal(t, "amazon", obs[0].VendorID)
	assert.Equal(t, "Sony WH-1000XM4", obs[0].RawName)
	assert.Equal(t, "248", obs[0].Price.String())
	require.NotNil(t, obs[0].OriginalPrice)
	assert.Equal(t, "349.99", obs[0].OriginalPrice.String())
	assert.Equal(t, domain.StockInStock, obs[0].StockStatus)
	assert.Equal(t, "black", obs[0].VariationDetails["color"])
	assert.NoError(t, obs[0].Validate())

	assert.Equal(t, "279", obs[1].Price.String())
	assert.Equal(t, domain.StockLimited, obs[1].StockStatus)
	assert.Nil(t, obs[1].OriginalPrice)
}

func TestDecode_Envelope(t *testing.T) {
	body := `{"results": [{"name": "iPad Pro", "price": 799.99, "product_url": "https://b.test/1"}]}`

	obs, err := Decode("bestbuy", strings.NewReader(body))

	require.NoError(t, err)
	require.Len(t, obs, 1)
	assert.Equal(t, "799.99", obs[0].Price.String())
	assert.Equal(t, domain.StockInStock, obs[0].Status())
}

func TestDecode_Empty(t *testing.T) {
	for _, body := range []string{"", "[]", `{"results": []}`} {
		obs, err := Decode("amazon", strings.NewReader(body))
		require.NoError(t, err)
		assert.Empty(t, obs)
		assert.NotNil(t, obs)
	}
}

func TestDecode_UnreadablePriceIsMalformed(t *testing.T) {
	body := `[{"name": "Mystery Box", "price": "call us", "product_url": "https://c.test/1"}]`

	obs, err := Decode("walmart", strings.NewReader(body))

	require.NoError(t, err)
	require.Len(t, obs, 1)
	assert.True(t, obs[0].Price.IsZero())
	assert.ErrorIs(t, obs[0].Validate(), domain.ErrMalformedObservation)
}

func TestDecode_UnknownStockStatusIsMalformed(t *testing.T) {
	body := `[{"name": "JBL Charge 5", "price": 149, "stock_status": "backorder", "product_url": "https://c.test/2"}]`

	obs, err := Decode("walmart", strings.NewReader(body))

	require.NoError(t, err)
	assert.ErrorIs(t, obs[0].Validate(), domain.ErrMalformedObservation)
}

func TestDecode_InvalidJSON(t *testing.T) {
	_, err := Decode("amazon", strings.NewReader(`{"results": [`))

	assert.Error(t, err)
}
