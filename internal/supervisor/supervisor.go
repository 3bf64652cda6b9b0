// Package supervisor wires together the two exchange adapters, the
// aggregator's consumer task, and the snapshot publisher, and owns process
// shutdown. The component graph is small and fixed (two adapters, one bus,
// one aggregator, one publisher), so it is started and supervised directly
// rather than through a generic module/DI container.
package supervisor

import (
	"context"
	"sync"

	"github.com/fd1az/depth-aggregator/business/depth/app"
	"github.com/fd1az/depth-aggregator/business/depth/bus"
	"github.com/fd1az/depth-aggregator/business/depth/publisher"
	"github.com/fd1az/depth-aggregator/internal/health"
	"github.com/fd1az/depth-aggregator/internal/logger"
)

// Adapter is the contract both exchange adapters satisfy.
type Adapter interface {
	Run(ctx context.Context) error
}

// Supervisor spawns adapters, the aggregator's consumer loop, and the
// publisher, and coordinates their shutdown.
type Supervisor struct {
	bus      *bus.Bus
	agg      *app.Aggregator
	pub      *publisher.Publisher
	adapters map[string]Adapter
	log      logger.LoggerInterface
}

// New constructs a Supervisor. adapters maps a human-readable name (used in
// logs) to its Adapter. If healthServer is non-nil, registers a readiness
// check keyed on the aggregator having produced at least one ladder entry.
func New(b *bus.Bus, agg *app.Aggregator, pub *publisher.Publisher, adapters map[string]Adapter, log logger.LoggerInterface, healthServer *health.Server) *Supervisor {
	s := &Supervisor{
		bus:      b,
		agg:      agg,
		pub:      pub,
		adapters: adapters,
		log:      log,
	}
	if healthServer != nil {
		healthServer.RegisterCheck("adapters", func(ctx context.Context) (bool, string) {
			if agg.HasData() {
				return true, "at least one adapter has produced data"
			}
			return false, "waiting for first frame from any adapter"
		})
	}
	return s
}

// Run starts every adapter, the aggregator's consumer task, and the
// publisher, and blocks until ctx is cancelled. Individual adapter failures
// are logged but do not tear down the other components. Emits one final
// snapshot to sink before returning.
func (s *Supervisor) Run(ctx context.Context, sink chan<- publisher.Snapshot) {
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		s.agg.Consume(ctx, s.bus.Events())
	}()

	for name, a := range s.adapters {
		wg.Add(1)
		go func(name string, a Adapter) {
			defer wg.Done()
			if err := a.Run(ctx); err != nil {
				s.log.Warn(ctx, "adapter exited", "adapter", name, "error", err)
				return
			}
			s.log.Info(ctx, "adapter stopped cleanly", "adapter", name)
		}(name, a)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		s.pub.Run(ctx, sink)
	}()

	<-ctx.Done()
	wg.Wait()
}
