package feed

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/shopspring/decimal"

	"github.com/custodia-labs/pricepilot/internal/core/domain"
)

// Listing is one record of a vendor feed.
// Prices may be JSON numbers or text ("$1,299.99").
type Listing struct {
	Name             string          `json:"name"`
	Price            json.RawMessage `json:"price"`
	OriginalPrice    json.RawMessage `json:"original_price,omitempty"`
	StockStatus      string          `json:"stock_status,omitempty"`
	ProductURL       string          `json:"product_url"`
	ImageURL         string          `json:"image_url,omitempty"`
	VariationDetails map[string]any  `json:"variation_details,omitempty"`
}

// envelope is the object form of a feed: {"results": [...]}.
type envelope struct {
	Results []Listing `json:"results"`
}

// Decode reads a feed, either a bare array or an object with a results
// array, and converts each listing to an observation for vendorID.
//
// A listing whose price or stock status cannot be read is still returned,
// with a zero price, so the pipeline counts it as malformed.
func Decode(vendorID string, r io.Reader) ([]domain.Observation, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var listings []Listing
	trimmed := bytes.TrimSpace(data)
	switch {
	case len(trimmed) == 0:
		return []domain.Observation{}, nil
	case trimmed[0] == '[':
		err = json.Unmarshal(trimmed, &listings)
	default:
		var env envelope
		err = json.Unmarshal(trimmed, &env)
		listings = env.Results
	}
	if err != nil {
		return nil, fmt.Errorf("decode feed: %w", err)
	}

	observations := make([]domain.Observation, 0, len(listings))
	for _, l := range listings {
		observations = append(observations, l.Observation(vendorID))
	}
	return observations, nil
}

// Observation converts the listing.
func (l Listing) Observation(vendorID string) domain.Observation {
	obs := domain.Observation{
		VendorID:         vendorID,
		RawName:          l.Name,
		ProductURL:       l.ProductURL,
		ImageURL:         l.ImageURL,
		VariationDetails: l.VariationDetails,
	}
	if price, ok := parsePrice(l.Price); ok {
		obs.Price = price
	}
	if original, ok := parsePrice(l.OriginalPrice); ok {
		obs.OriginalPrice = &original
	}
	if status, err := domain.ParseStockStatus(l.StockStatus); err == nil {
		obs.StockStatus = status
	} else {
		obs.StockStatus = domain.StockStatus(l.StockStatus)
	}
	return obs
}

// parsePrice reads a JSON number or price text. Null or absent is not ok.
func parsePrice(raw json.RawMessage) (decimal.Decimal, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return decimal.Zero, false
	}
	if raw[0] == '"' {
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			return decimal.Zero, false
		}
		d, err := NormalizePrice(text)
		return d, err == nil
	}
	d, err := decimal.NewFromString(string(raw))
	return d, err == nil
}
