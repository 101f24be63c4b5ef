// Package domain defines the core business entities for PricePilot.
//
// This package is part of the hexagonal architecture's innermost layer.
// It defines the fundamental types of the price pipeline:
//
//   - Observation: One normalised product listing reported by a vendor
//   - Product: A canonical catalog entry that observations resolve to
//   - Price: The current price of a product at one vendor
//   - PriceHistory: An archived, superseded price
//   - ScraperRun: The lifecycle record of one vendor collection job
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. All other packages depend on
// domain, never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library, value-type libraries (decimal, validator)
//   - Cannot Import: Any internal/ package, storage or transport libraries
package domain
