package mcp

import (
	"github.com/custodia-labs/pricepilot/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Analytics provides deals, trends, alerts and freshness.
	Analytics driving.AnalyticsService

	// Catalog lists products, vendors and runs.
	Catalog driving.CatalogReader

	// Ledger provides price history. Optional.
	Ledger driving.LedgerService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Analytics == nil {
		return ErrMissingAnalyticsService
	}
	if p.Catalog == nil {
		return ErrMissingCatalogReader
	}
	return nil
}
