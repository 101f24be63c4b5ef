package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/pricepilot/internal/adapters/driving/cli/styles"
)

// stylesFor returns coloured styles for terminals and plain styles otherwise.
func stylesFor(w io.Writer) *styles.Styles {
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return styles.DefaultStyles()
	}
	return styles.PlainStyles()
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

// renderTable lays out rows under headers with the theme's border colour.
func renderTable(st *styles.Styles, headers []string, rows [][]string) string {
	header := st.Subtitle.Padding(0, 1)
	cell := lipgloss.NewStyle().Padding(0, 1)

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(st.Theme().Border)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			return cell
		})
	return t.String()
}

func formatMoney(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

func formatOptMoney(d *decimal.Decimal) string {
	if d == nil {
		return "-"
	}
	return formatMoney(*d)
}

func formatPercent(d *decimal.Decimal) string {
	if d == nil {
		return "-"
	}
	return d.StringFixed(2) + "%"
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func formatAge(hours float64) string {
	switch {
	case hours < 1:
		return fmt.Sprintf("%.0fm", hours*60)
	case hours < 48:
		return fmt.Sprintf("%.1fh", hours)
	default:
		return fmt.Sprintf("%.1fd", hours/24)
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
