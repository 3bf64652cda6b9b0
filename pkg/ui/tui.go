// Package ui provides the Bubble Tea TUI for the depth aggregation engine.
package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fd1az/depth-aggregator/business/depth/publisher"
	"github.com/fd1az/depth-aggregator/pkg/ui/components"
)

// errorEntry is an error with a timestamp, for the persistent error panel.
type errorEntry struct {
	Message   string
	Timestamp time.Time
}

// Model is the Bubble Tea model for the live top-of-book dashboard. It holds
// no engine state of its own: every field is populated from messages sent by
// runTUI's bridge goroutines, which read off the Snapshot Publisher's sink
// channel and the adapters' error/connection signals.
type Model struct {
	bids   *components.LadderComponent
	asks   *components.LadderComponent
	log    *components.EventLogComponent
	status *components.StatusComponent

	spread    *float64
	snapshots int64
	errCount  int64

	ready      bool
	quitting   bool
	paused     bool
	width      int
	height     int
	lastUpdate time.Time
	errors     []errorEntry
}

// New creates a new TUI model, pre-seeding connection state for the two
// exchange adapters so the status panel has something to render immediately.
func New() Model {
	status := components.NewStatusComponent()
	status.Update(components.ConnectionStatus{Name: "binance"})
	status.Update(components.ConnectionStatus{Name: "bitstamp"})
	return Model{
		bids:   components.NewLadderComponent("BIDS"),
		asks:   components.NewLadderComponent("ASKS"),
		log:    components.NewEventLogComponent(50, 6),
		status: status,
		errors: make([]errorEntry, 0, 3),
	}
}

// Init starts the redraw tick.
func (m Model) Init() tea.Cmd {
	return tickCmd()
}

func tickCmd() tea.Cmd {
	return tea.Tick(250*time.Millisecond, func(time.Time) tea.Msg {
		return TickMsg{}
	})
}

// Update handles messages and advances the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "p":
			m.paused = !m.paused
			return m, nil
		case "c":
			m.errors = m.errors[:0]
			return m, nil
		case "up", "k":
			m.log.ScrollUp()
			return m, nil
		case "down", "j":
			m.log.ScrollDown()
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true

	case TickMsg:
		return m, tickCmd()

	case SnapshotMsg:
		if !m.paused {
			m.applySnapshot(msg.Snapshot)
		}

	case ConnectionStatusMsg:
		m.status.Update(components.ConnectionStatus{
			Name:       msg.Name,
			Connected:  msg.Connected,
			Latency:    msg.Latency,
			LastUpdate: time.Now(),
		})
		status := "disconnected"
		level := "warn"
		if msg.Connected {
			status = "connected"
			level = "info"
		}
		m.log.Add(components.LogEntry{
			Timestamp: time.Now().Format("15:04:05"),
			Level:     level,
			Message:   fmt.Sprintf("%s %s", msg.Name, status),
		})

	case ErrorMsg:
		m.errCount++
		m.errors = append(m.errors, errorEntry{
			Message:   msg.Error.Error(),
			Timestamp: time.Now(),
		})
		if len(m.errors) > 3 {
			m.errors = m.errors[len(m.errors)-3:]
		}
		m.log.Add(components.LogEntry{
			Timestamp: time.Now().Format("15:04:05"),
			Level:     "error",
			Message:   msg.Error.Error(),
		})
	}

	return m, nil
}

func (m *Model) applySnapshot(snap publisher.Snapshot) {
	m.bids.Update(toLevelRows(snap.Bids))
	m.asks.Update(toLevelRows(snap.Asks))
	m.spread = snap.Spread
	m.snapshots++
	m.lastUpdate = time.Now()
}

func toLevelRows(levels []publisher.Level) []components.LevelRow {
	rows := make([]components.LevelRow, 0, len(levels))
	for _, l := range levels {
		rows = append(rows, components.LevelRow{
			Exchange: l.Exchange,
			Price:    l.Price,
			Amount:   l.Amount,
		})
	}
	return rows
}

// View renders the dashboard.
func (m Model) View() string {
	if m.quitting {
		return "\n  bye\n\n"
	}

	var b strings.Builder

	b.WriteString(TitleStyle.Render(" depth aggregator "))
	b.WriteString("\n\n")

	b.WriteString(m.status.View())
	if !m.lastUpdate.IsZero() {
		ago := time.Since(m.lastUpdate).Round(time.Second)
		b.WriteString(MutedValue.Render(fmt.Sprintf("updated %s ago", ago)))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	stats := components.NewStatsComponent()
	spread := 0.0
	hasSpread := m.spread != nil
	if hasSpread {
		spread = *m.spread
	}
	stats.Update(components.Stats{
		SnapshotsReceived: m.snapshots,
		Errors:            m.errCount,
		Spread:            spread,
		HasSpread:         hasSpread,
	})
	b.WriteString(stats.View())
	b.WriteString("\n\n")

	leftCol := m.bids.View()
	rightCol := m.asks.View()

	if m.width > 90 {
		left := BoxStyle.Width(m.width/2 - 2).Render(leftCol)
		right := BoxStyle.Width(m.width/2 - 2).Render(rightCol)
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, left, right))
	} else {
		b.WriteString(BoxStyle.Width(maxInt(m.width-4, 20)).Render(leftCol))
		b.WriteString("\n")
		b.WriteString(BoxStyle.Width(maxInt(m.width-4, 20)).Render(rightCol))
	}
	b.WriteString("\n\n")

	b.WriteString(m.log.View())
	b.WriteString("\n")

	if len(m.errors) > 0 {
		errStyle := lipgloss.NewStyle().Foreground(ColorDanger)
		mutedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF"))
		for _, e := range m.errors {
			ago := time.Since(e.Timestamp).Round(time.Second)
			b.WriteString(errStyle.Render("  • " + e.Message + " "))
			b.WriteString(mutedStyle.Render(fmt.Sprintf("(%s ago)", ago)))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	help := "q: quit • p: pause • c: clear errors • ↑↓: scroll events"
	if m.paused {
		pauseStyle := lipgloss.NewStyle().Bold(true).Foreground(ColorWarning)
		b.WriteString(pauseStyle.Render("⏸ PAUSED") + " • ")
	}
	b.WriteString(HelpStyle.Render(help))

	return b.String()
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// Program holds the running Bubble Tea program for external Send calls.
var Program *tea.Program

// Run starts the Bubble Tea program and blocks until it exits.
func Run() error {
	Program = tea.NewProgram(New(), tea.WithAltScreen())
	_, err := Program.Run()
	return err
}

// Send delivers a message to the running program, if any.
func Send(msg tea.Msg) {
	if Program != nil {
		Program.Send(msg)
	}
}
