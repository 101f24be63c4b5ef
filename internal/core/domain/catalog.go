package domain

import "time"

// Product is a canonical catalog entry.
// The name never changes after creation.
type Product struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Brand           string    `json:"brand,omitempty"`
	CategoryID      *string   `json:"category_id,omitempty"`
	ImageURL        string    `json:"image_url,omitempty"`
	PopularityScore int       `json:"popularity_score"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Category groups products for browsing and deal reports.
type Category struct {
	// ID is the stable identifier.
	ID string `json:"id"`

	// Name is the unique slug, e.g. "laptops".
	Name string `json:"name"`

	// DisplayName is shown to users.
	DisplayName string `json:"display_name"`
}

// Vendor is a retailer that observations come from.
type Vendor struct {
	// ID is the vendor slug, e.g. "amazon".
	ID string `json:"id"`

	// DisplayName is shown to users.
	DisplayName string `json:"display_name"`

	// BaseURL is the retailer's home page.
	BaseURL string `json:"base_url,omitempty"`

	// Active vendors take part in collection runs.
	Active bool `json:"active"`
}

// Category slugs seeded into every catalog.
const (
	CategoryLaptops    = "laptops"
	CategoryHeadphones = "headphones"
	CategorySpeakers   = "speakers"
)

// DefaultCategories returns the categories every catalog starts with.
func DefaultCategories() []Category {
	return []Category{
		{ID: CategoryLaptops, Name: CategoryLaptops, DisplayName: "Laptops"},
		{ID: CategoryHeadphones, Name: CategoryHeadphones, DisplayName: "Headphones"},
		{ID: CategorySpeakers, Name: CategorySpeakers, DisplayName: "Speakers"},
	}
}
