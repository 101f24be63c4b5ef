// Package styles provides colour themes and styling for CLI reports.
package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/pricepilot/internal/core/domain"
)

// Theme defines the colour palette for terminal output.
type Theme struct {
	// Primary is the main accent colour.
	Primary lipgloss.Color

	// Secondary is the secondary accent colour.
	Secondary lipgloss.Color

	// Foreground is the default text colour.
	Foreground lipgloss.Color

	// Muted is for less important text.
	Muted lipgloss.Color

	// Success indicates positive outcomes and fresh prices.
	Success lipgloss.Color

	// Warning indicates caution and aging prices.
	Warning lipgloss.Color

	// Error indicates problems and stale prices.
	Error lipgloss.Color

	// Border is the border colour.
	Border lipgloss.Color
}

// DefaultTheme returns the default colour theme.
func DefaultTheme() *Theme {
	return &Theme{
		Primary:    lipgloss.Color("#7C3AED"), // Purple
		Secondary:  lipgloss.Color("#06B6D4"), // Cyan
		Foreground: lipgloss.Color("#CDD6F4"), // Light gray
		Muted:      lipgloss.Color("#6C7086"), // Medium gray
		Success:    lipgloss.Color("#A6E3A1"), // Green
		Warning:    lipgloss.Color("#F9E2AF"), // Yellow
		Error:      lipgloss.Color("#F38BA8"), // Red
		Border:     lipgloss.Color("#45475A"), // Border gray
	}
}

// Styles contains pre-configured lipgloss styles.
type Styles struct {
	theme *Theme

	// Title style for report headers.
	Title lipgloss.Style

	// Subtitle style for section headers.
	Subtitle lipgloss.Style

	// Normal style for regular text.
	Normal lipgloss.Style

	// Muted style for less important text.
	Muted lipgloss.Style

	// Price style for money amounts.
	Price lipgloss.Style

	// Discount style for discount percentages.
	Discount lipgloss.Style

	// Error style for error messages.
	Error lipgloss.Style

	// Success style for success messages.
	Success lipgloss.Style

	// Warning style for warning messages.
	Warning lipgloss.Style

	// Border style for bordered summaries.
	Border lipgloss.Style
}

// NewStyles creates styles from a theme.
func NewStyles(theme *Theme) *Styles {
	if theme == nil {
		theme = DefaultTheme()
	}

	return &Styles{
		theme: theme,

		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.Primary),

		Subtitle: lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.Secondary),

		Normal: lipgloss.NewStyle().
			Foreground(theme.Foreground),

		Muted: lipgloss.NewStyle().
			Foreground(theme.Muted),

		Price: lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.Foreground),

		Discount: lipgloss.NewStyle().
			Foreground(theme.Success),

		Error: lipgloss.NewStyle().
			Foreground(theme.Error),

		Success: lipgloss.NewStyle().
			Foreground(theme.Success),

		Warning: lipgloss.NewStyle().
			Foreground(theme.Warning),

		Border: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(theme.Border).
			Padding(0, 1),
	}
}

// PlainStyles returns styles that render text unchanged, for pipes and files.
func PlainStyles() *Styles {
	plain := lipgloss.NewStyle()
	return &Styles{
		theme:    DefaultTheme(),
		Title:    plain,
		Subtitle: plain,
		Normal:   plain,
		Muted:    plain,
		Price:    plain,
		Discount: plain,
		Error:    plain,
		Success:  plain,
		Warning:  plain,
		Border:   plain,
	}
}

// DefaultStyles returns styles with the default theme.
func DefaultStyles() *Styles {
	return NewStyles(DefaultTheme())
}

// Theme returns the theme used by these styles.
func (s *Styles) Theme() *Theme {
	return s.theme
}

// Freshness returns the style for a freshness bucket.
func (s *Styles) Freshness(f domain.Freshness) lipgloss.Style {
	switch f {
	case domain.FreshnessFresh:
		return s.Success
	case domain.FreshnessAging:
		return s.Warning
	default:
		return s.Error
	}
}

// RunStatus returns the style for a run state.
func (s *Styles) RunStatus(status domain.RunStatus) lipgloss.Style {
	switch status {
	case domain.RunStatusCompleted:
		return s.Success
	case domain.RunStatusFailed:
		return s.Error
	default:
		return s.Warning
	}
}
