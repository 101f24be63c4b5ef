package styles

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/pricepilot/internal/core/domain"
)

func TestDefaultTheme(t *testing.T) {
	theme := DefaultTheme()

	require.NotNil(t, theme)
	assert.NotEmpty(t, string(theme.Primary))
	assert.NotEmpty(t, string(theme.Secondary))
	assert.NotEmpty(t, string(theme.Foreground))
	assert.NotEmpty(t, string(theme.Muted))
	assert.NotEmpty(t, string(theme.Success))
	assert.NotEmpty(t, string(theme.Warning))
	assert.NotEmpty(t, string(theme.Error))
	assert.NotEmpty(t, string(theme.Border))
}

func TestDefaultTheme_StatusColoursAreDistinct(t *testing.T) {
	theme := DefaultTheme()

	palette := []lipgloss.Color{
		theme.Primary,
		theme.Secondary,
		theme.Success,
		theme.Warning,
		theme.Error,
	}

	seen := make(map[string]bool)
	for _, c := range palette {
		s := string(c)
		assert.False(t, seen[s], "duplicate colour: %s", s)
		seen[s] = true
	}
}

func TestNewStyles_WithTheme(t *testing.T) {
	theme := DefaultTheme()
	styles := NewStyles(theme)

	require.NotNil(t, styles)
	assert.Equal(t, theme, styles.Theme())
}

func TestNewStyles_NilTheme(t *testing.T) {
	styles := NewStyles(nil)

	require.NotNil(t, styles)
	assert.NotNil(t, styles.Theme())
}

func TestPlainStyles_RenderUnchanged(t *testing.T) {
	s := PlainStyles()

	assert.Equal(t, "$248.00", s.Price.Render("$248.00"))
	assert.Equal(t, "stale", s.Freshness(domain.FreshnessStale).Render("stale"))
	assert.Equal(t, "failed", s.RunStatus(domain.RunStatusFailed).Render("failed"))
}

func TestStyles_Freshness(t *testing.T) {
	s := DefaultStyles()
	theme := s.Theme()

	assert.Equal(t, lipgloss.TerminalColor(theme.Success), s.Freshness(domain.FreshnessFresh).GetForeground())
	assert.Equal(t, lipgloss.TerminalColor(theme.Warning), s.Freshness(domain.FreshnessAging).GetForeground())
	assert.Equal(t, lipgloss.TerminalColor(theme.Error), s.Freshness(domain.FreshnessStale).GetForeground())
}

func TestStyles_RunStatus(t *testing.T) {
	s := DefaultStyles()
	theme := s.Theme()

	assert.Equal(t, lipgloss.TerminalColor(theme.Success), s.RunStatus(domain.RunStatusCompleted).GetForeground())
	assert.Equal(t, lipgloss.TerminalColor(theme.Error), s.RunStatus(domain.RunStatusFailed).GetForeground())
	assert.Equal(t, lipgloss.TerminalColor(theme.Warning), s.RunStatus(domain.RunStatusRunning).GetForeground())
}
