// Package components provides reusable TUI components.
package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// LogEntry is one line in the event log.
type LogEntry struct {
	Timestamp string
	Level     string // "info", "warn", "error"
	Message   string
}

// EventLogComponent renders a bounded, scrollable feed of adapter events
// (connects, disconnects, errors).
type EventLogComponent struct {
	entries    []LogEntry
	maxEntries int
	offset     int
	visibleMax int
}

// NewEventLogComponent creates an event log holding at most maxEntries lines,
// showing visibleMax of them at a time.
func NewEventLogComponent(maxEntries, visibleMax int) *EventLogComponent {
	return &EventLogComponent{
		entries:    make([]LogEntry, 0, maxEntries),
		maxEntries: maxEntries,
		visibleMax: visibleMax,
	}
}

// Add prepends a new entry, dropping the oldest once maxEntries is exceeded.
func (e *EventLogComponent) Add(entry LogEntry) {
	e.entries = append([]LogEntry{entry}, e.entries...)
	if len(e.entries) > e.maxEntries {
		e.entries = e.entries[:e.maxEntries]
	}
	e.offset = 0
}

// Clear empties the log.
func (e *EventLogComponent) Clear() {
	e.entries = e.entries[:0]
	e.offset = 0
}

// ScrollUp moves the visible window toward the newest entry.
func (e *EventLogComponent) ScrollUp() {
	if e.offset > 0 {
		e.offset--
	}
}

// ScrollDown moves the visible window toward the oldest entry.
func (e *EventLogComponent) ScrollDown() {
	maxOffset := len(e.entries) - e.visibleMax
	if maxOffset < 0 {
		maxOffset = 0
	}
	if e.offset < maxOffset {
		e.offset++
	}
}

// View renders the visible window of the log.
func (e *EventLogComponent) View() string {
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	mutedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	warnStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B"))
	errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))

	var out string
	out = headerStyle.Render("EVENTS")
	if len(e.entries) > 0 {
		out += mutedStyle.Render(fmt.Sprintf(" (%d, ↑↓ scroll)", len(e.entries)))
	}
	out += "\n\n"

	if len(e.entries) == 0 {
		out += mutedStyle.Render("  no events yet\n")
		return out
	}

	end := e.offset + e.visibleMax
	if end > len(e.entries) {
		end = len(e.entries)
	}

	for i := e.offset; i < end; i++ {
		entry := e.entries[i]
		style := mutedStyle
		switch entry.Level {
		case "warn":
			style = warnStyle
		case "error":
			style = errorStyle
		}
		out += fmt.Sprintf("  [%s] %s\n", entry.Timestamp, style.Render(entry.Message))
	}

	return out
}
