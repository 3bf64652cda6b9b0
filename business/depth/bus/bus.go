// Package bus provides the bounded multi-producer, single-consumer channel
// carrying normalized level events and ReplaceLadder control markers from
// every exchange adapter to the aggregator-consumer task.
package bus

import (
	"context"

	"github.com/fd1az/depth-aggregator/internal/apperror"
)

// DefaultCapacity is the default bounded capacity for the event bus.
const DefaultCapacity = 1000

// Bus is a bounded channel of domain.NormalizedLevel / domain.ReplaceLadder
// values. Each adapter owns exactly one goroutine that calls Publish, which
// gives per-adapter FIFO ordering for free on a single Go channel; no
// ordering is promised across adapters.
type Bus struct {
	ch chan any
}

// New creates a Bus with the given capacity.
func New(capacity int) *Bus {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Bus{ch: make(chan any, capacity)}
}

// Publish sends v, suspending the caller until space is available or ctx is
// cancelled. Preserves per-adapter emission order. Returns a CodeBusClosed
// AppError if ctx is cancelled before the send completes; callers treat
// this as an ordinary shutdown, not a fatal error.
func (b *Bus) Publish(ctx context.Context, v any) error {
	select {
	case b.ch <- v:
		return nil
	case <-ctx.Done():
		return apperror.New(apperror.CodeBusClosed, apperror.WithCause(ctx.Err()))
	}
}

// Events returns the receive side of the bus for the aggregator-consumer
// task to range over.
func (b *Bus) Events() <-chan any {
	return b.ch
}

// Close closes the channel. Only the owner (the supervisor, at shutdown)
// should call this, after every producer goroutine has exited.
func (b *Bus) Close() {
	close(b.ch)
}
