// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - VendorSource: Returns normalised observations for a search query
//   - VendorFactory: Creates vendor sources from configuration
//   - CatalogStore: Product, category and vendor persistence
//   - PriceStore: Current price persistence
//   - HistoryStore: Archived price persistence
//   - RunStore: Scraper run persistence
//   - SchedulerStore: Scheduled task persistence
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - RunLock: Cross-process single-run-per-vendor guard. Defaults to an in-process lock.
//   - PriceEventPublisher: Price-change notifications. Without it, no events are sent.
//   - MetricsRecorder: Pipeline metrics. Without it, nothing is recorded.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or vendor package
package driven
