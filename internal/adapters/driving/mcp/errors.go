// Package mcp provides an MCP (Model Context Protocol) server adapter for PricePilot.
// It gives AI assistants read-only access to prices, deals and run history.
package mcp

import "errors"

// ErrMissingAnalyticsService is returned when the analytics service is not provided.
var ErrMissingAnalyticsService = errors.New("mcp: analytics service is required")

// ErrMissingCatalogReader is returned when the catalog reader is not provided.
var ErrMissingCatalogReader = errors.New("mcp: catalog reader is required")
