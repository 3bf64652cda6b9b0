package supervisor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fd1az/depth-aggregator/business/depth/app"
	"github.com/fd1az/depth-aggregator/business/depth/bus"
	"github.com/fd1az/depth-aggregator/business/depth/domain"
	"github.com/fd1az/depth-aggregator/business/depth/publisher"
	"github.com/fd1az/depth-aggregator/internal/health"
	"github.com/fd1az/depth-aggregator/internal/logger"
)

type fakeAdapter struct {
	err error
}

func (a *fakeAdapter) Run(ctx context.Context) error {
	<-ctx.Done()
	return a.err
}

type crashingAdapter struct{}

func (crashingAdapter) Run(ctx context.Context) error {
	return errors.New("boom")
}

func TestRunReturnsAfterContextCancel(t *testing.T) {
	b := bus.New(8)
	agg := app.New()
	pub := publisher.New(agg, time.Hour)
	log := logger.New(nopWriter{}, logger.LevelError, "test", nil)

	s := New(b, agg, pub, map[string]Adapter{"a": &fakeAdapter{}}, log, nil)
	sink := make(chan publisher.Snapshot, 1)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx, sink)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRunToleratesAdapterCrash(t *testing.T) {
	b := bus.New(8)
	agg := app.New()
	pub := publisher.New(agg, time.Hour)
	log := logger.New(nopWriter{}, logger.LevelError, "test", nil)

	s := New(b, agg, pub, map[string]Adapter{"crasher": crashingAdapter{}}, log, nil)
	sink := make(chan publisher.Snapshot, 1)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx, sink)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond) // let the crashing adapter exit
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after an adapter crashed and ctx was cancelled")
	}
}

func TestReadinessCheckReflectsAggregatorData(t *testing.T) {
	b := bus.New(8)
	agg := app.New()
	pub := publisher.New(agg, time.Hour)
	log := logger.New(nopWriter{}, logger.LevelError, "test", nil)
	healthServer := health.NewServer(0, "test")

	New(b, agg, pub, nil, log, healthServer)

	// The registered check is only reachable over HTTP; this test covers
	// the HasData signal it reads, before and after the first level.
	if agg.HasData() {
		t.Fatal("expected no data before any Apply")
	}
	agg.Apply(domain.NormalizedLevel{Exchange: domain.Primary, Side: domain.Buy, Price: 100, Quantity: 1})
	if !agg.HasData() {
		t.Fatal("expected data after the first level is applied")
	}
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }
