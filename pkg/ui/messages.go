// Package ui provides the Bubble Tea TUI for the depth aggregation engine.
package ui

import (
	"time"

	"github.com/fd1az/depth-aggregator/business/depth/publisher"
)

// SnapshotMsg wraps one Snapshot Publisher tick for the dashboard.
type SnapshotMsg struct {
	Snapshot publisher.Snapshot
}

// ConnectionStatusMsg is sent when an adapter's connection state changes.
type ConnectionStatusMsg struct {
	Name      string
	Connected bool
	Latency   time.Duration
}

// ErrorMsg is sent when an adapter or publisher reports an error.
type ErrorMsg struct {
	Error error
}

// TickMsg is sent periodically to drive redraws between snapshots (e.g. the
// "updated Ns ago" readout).
type TickMsg struct{}
