package domain

import (
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// StockStatus is the availability a vendor reports for a listing.
type StockStatus string

// Known stock statuses.
const (
	StockInStock      StockStatus = "in_stock"
	StockOutOfStock   StockStatus = "out_of_stock"
	StockLimited      StockStatus = "limited_stock"
	StockUnavailable  StockStatus = "unavailable"
	StockDiscontinued StockStatus = "discontinued"
	StockPreOrder     StockStatus = "pre_order"
)

// IsValid returns true if the stock status is recognised.
func (s StockStatus) IsValid() bool {
	switch s {
	case StockInStock, StockOutOfStock, StockLimited, StockUnavailable, StockDiscontinued, StockPreOrder:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (s StockStatus) String() string {
	return string(s)
}

// ParseStockStatus converts a vendor string into a StockStatus.
// An empty string means in stock.
func ParseStockStatus(s string) (StockStatus, error) {
	if s == "" {
		return StockInStock, nil
	}
	status := StockStatus(strings.ToLower(strings.TrimSpace(s)))
	if !status.IsValid() {
		return "", fmt.Errorf("%w: unknown stock status %q", ErrInvalidInput, s)
	}
	return status, nil
}

// Observation is one normalised product listing reported by a vendor.
// It carries no identity beyond RawName and VendorID; the matcher
// decides which catalog product it refers to.
type Observation struct {
	// VendorID identifies the reporting vendor.
	VendorID string `json:"vendor_id,omitempty" validate:"omitempty,max=50"`

	// RawName is the listing title exactly as the vendor shows it.
	RawName string `json:"name" validate:"required,max=500"`

	// Price is the current asking price, currency-free.
	Price decimal.Decimal `json:"price"`

	// OriginalPrice is the pre-discount price, if the vendor shows one.
	OriginalPrice *decimal.Decimal `json:"original_price,omitempty"`

	// StockStatus is the reported availability.
	StockStatus StockStatus `json:"stock_status,omitempty" validate:"omitempty,stock_status"`

	// ProductURL links to the listing.
	ProductURL string `json:"product_url" validate:"max=1000"`

	// ImageURL links to a product image. Empty when absent.
	ImageURL string `json:"image_url,omitempty" validate:"max=1000"`

	// VariationDetails holds opaque vendor attributes (colour, storage, ...).
	VariationDetails map[string]any `json:"variation_details,omitempty"`
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func observationValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		_ = validate.RegisterValidation("stock_status", func(fl validator.FieldLevel) bool {
			return StockStatus(fl.Field().String()).IsValid()
		})
	})
	return validate
}

// Validate checks the observation is usable by the pipeline.
// A missing name or a non-positive price is malformed.
func (o *Observation) Validate() error {
	if strings.TrimSpace(o.RawName) == "" {
		return fmt.Errorf("%w: name is required", ErrMalformedObservation)
	}
	if !o.Price.IsPositive() {
		return fmt.Errorf("%w: price must be positive, got %s", ErrMalformedObservation, o.Price.String())
	}
	if o.OriginalPrice != nil && o.OriginalPrice.IsNegative() {
		return fmt.Errorf("%w: original price is negative", ErrMalformedObservation)
	}
	if err := observationValidator().Struct(o); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedObservation, err)
	}
	return nil
}

// Status returns the stock status, defaulting to in stock.
func (o *Observation) Status() StockStatus {
	if o.StockStatus == "" {
		return StockInStock
	}
	return o.StockStatus
}
