package driving

import "github.com/custodia-labs/pricepilot/internal/core/domain"

// SettingsService manages application configuration.
type SettingsService interface {
	// Get returns the effective configuration: defaults, overlaid by the
	// config file, overlaid by PRICEPILOT_* environment variables.
	Get() (*domain.Config, error)

	// GetDefaults returns the built-in configuration.
	GetDefaults() domain.Config

	// SetQueries replaces the collection query list.
	SetQueries(queries []string) error

	// SetSimilarityThreshold updates the matcher threshold (0..100).
	SetSimilarityThreshold(threshold float64) error
}
