package domain

// MatchOutcome says how the matcher resolved an observation.
type MatchOutcome string

// Match outcomes.
const (
	// MatchOutcomeMatched means an existing product scored at or above the threshold.
	MatchOutcomeMatched MatchOutcome = "matched"

	// MatchOutcomeCreated means no candidate was close enough and a product was created.
	MatchOutcomeCreated MatchOutcome = "created"
)

// MatchResult is the resolved product for an observation.
type MatchResult struct {
	Outcome MatchOutcome
	Product *Product

	// Score is the best composite score seen, 0..100.
	Score float64
}

// UpdateOutcome says what the ledger did with an observation.
type UpdateOutcome string

// Ledger outcomes.
const (
	UpdateOutcomeInserted UpdateOutcome = "inserted"
	UpdateOutcomeUpdated  UpdateOutcome = "updated"
	UpdateOutcomeRejected UpdateOutcome = "rejected"
)

// PriceUpdateResult is the outcome of applying one observation to the ledger.
type PriceUpdateResult struct {
	Outcome UpdateOutcome

	// Price is the stored price after the apply. Nil when rejected.
	Price *Price

	// Archived is the history row written by this apply, if any.
	Archived *PriceHistory

	// Reason explains a rejection.
	Reason string
}

// Applied returns true when the observation was written.
func (r PriceUpdateResult) Applied() bool {
	return r.Outcome == UpdateOutcomeInserted || r.Outcome == UpdateOutcomeUpdated
}

// PriceChangeEvent is published when a price moves past the materiality threshold.
type PriceChangeEvent struct {
	ProductID   string  `json:"product_id"`
	ProductName string  `json:"product_name"`
	VendorID    string  `json:"vendor_id"`
	OldPrice    string  `json:"old_price"`
	NewPrice    string  `json:"new_price"`
	Discount    *string `json:"discount_percentage,omitempty"`
	StockStatus string  `json:"stock_status"`
	ChangedAt   string  `json:"changed_at"`
}
