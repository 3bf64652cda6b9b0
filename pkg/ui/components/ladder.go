// Package components provides reusable TUI components.
package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// LevelRow is one row of a bid or ask ladder, ready for display.
type LevelRow struct {
	Exchange string
	Price    float64
	Amount   float64
}

// LadderComponent renders one side (bids or asks) of the merged order book,
// up to 10 rows, best price first.
type LadderComponent struct {
	title string
	rows  []LevelRow
}

// NewLadderComponent creates a ladder component for the given side title
// ("BIDS" or "ASKS").
func NewLadderComponent(title string) *LadderComponent {
	return &LadderComponent{title: title, rows: make([]LevelRow, 0)}
}

// Update replaces the displayed rows.
func (l *LadderComponent) Update(rows []LevelRow) {
	l.rows = rows
}

// View renders the ladder as an aligned table.
func (l *LadderComponent) View() string {
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))

	var b strings.Builder
	b.WriteString(headerStyle.Render(l.title))
	b.WriteString("\n\n")

	if len(l.rows) == 0 {
		b.WriteString(dimStyle.Render("  waiting for levels..."))
		return b.String()
	}

	b.WriteString(fmt.Sprintf("  %-10s  %14s  %14s\n", "Exchange", "Price", "Amount"))
	b.WriteString(dimStyle.Render("  " + strings.Repeat("─", 42)))
	b.WriteString("\n")

	for _, row := range l.rows {
		b.WriteString(fmt.Sprintf("  %-10s  %14.2f  %14.8f\n", row.Exchange, row.Price, row.Amount))
	}

	return b.String()
}
