// Package sqlite provides a unified SQLite-based implementation of driven port interfaces.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. It implements multiple store interfaces
// through a single database connection:
//
//   - CatalogStore: Products, categories and vendors
//   - PriceStore: Current price per (product, vendor)
//   - HistoryStore: Archived prices
//   - RunStore: Scraper run records
//   - SchedulerStore: Scheduled task state and results
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
// Money is stored as decimal TEXT. Timestamps are fixed-width UTC TEXT so
// they order correctly as strings.
//
// # Data Location
//
// By default, the database is stored at ~/.pricepilot/data/pricepilot.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode.
package sqlite
