// Package components provides reusable TUI components.
package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// Stats holds summary counters for the status bar.
type Stats struct {
	SnapshotsReceived int64
	Errors            int64
	Spread            float64
	HasSpread         bool
}

// StatsComponent renders the summary line.
type StatsComponent struct {
	stats Stats
}

// NewStatsComponent creates a new stats component.
func NewStatsComponent() *StatsComponent {
	return &StatsComponent{}
}

// Update replaces the displayed statistics.
func (s *StatsComponent) Update(stats Stats) {
	s.stats = stats
}

// View renders the stats component.
func (s *StatsComponent) View() string {
	style := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Bold(true)
	errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true)

	spreadStr := "n/a"
	if s.stats.HasSpread {
		spreadStr = fmt.Sprintf("%.2f", s.stats.Spread)
	}

	errorsDisplay := valueStyle.Render(fmt.Sprintf("%d", s.stats.Errors))
	if s.stats.Errors > 0 {
		errorsDisplay = errorStyle.Render(fmt.Sprintf("%d", s.stats.Errors))
	}

	return style.Render("STATS") + "  " +
		fmt.Sprintf("snapshots: %s  │  spread: %s  │  errors: %s",
			valueStyle.Render(fmt.Sprintf("%d", s.stats.SnapshotsReceived)),
			valueStyle.Render(spreadStr),
			errorsDisplay,
		)
}
