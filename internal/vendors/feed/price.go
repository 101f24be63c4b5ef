package feed

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/custodia-labs/pricepilot/internal/core/domain"
)

var pricePattern = regexp.MustCompile(`\d[\d,]*(?:\.\d+)?`)

// NormalizePrice extracts a price from vendor text such as "$1,299.99",
// "USD 248" or "249.00 €". Thousands separators are dropped. A minus
// sign ahead of the amount is rejected rather than ignored.
func NormalizePrice(text string) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(text)
	loc := pricePattern.FindStringIndex(trimmed)
	if loc == nil {
		return decimal.Zero, fmt.Errorf("%w: no price in %q", domain.ErrMalformedObservation, text)
	}
	if strings.Contains(trimmed[:loc[0]], "-") {
		return decimal.Zero, fmt.Errorf("%w: negative price %q", domain.ErrMalformedObservation, text)
	}
	match := trimmed[loc[0]:loc[1]]
	d, err := decimal.NewFromString(strings.ReplaceAll(match, ",", ""))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: price %q: %v", domain.ErrMalformedObservation, text, err)
	}
	return d, nil
}
