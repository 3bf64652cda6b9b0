package publisher

import (
	"context"
	"testing"
	"time"

	"github.com/fd1az/depth-aggregator/business/depth/domain"
)

type fakeAggregator struct {
	bids      []domain.Level
	asks      []domain.Level
	spread    domain.PriceCents
	hasSpread bool
}

func (f *fakeAggregator) TopBids() []domain.Level { return f.bids }
func (f *fakeAggregator) TopAsks() []domain.Level { return f.asks }
func (f *fakeAggregator) Spread() (domain.PriceCents, bool) {
	return f.spread, f.hasSpread
}

func TestSnapshotConvertsFixedPointToFloat(t *testing.T) {
	agg := &fakeAggregator{
		bids:      []domain.Level{{Exchange: domain.Primary, Price: 10000, Quantity: 500_000_000}},
		asks:      []domain.Level{{Exchange: domain.Secondary, Price: 10050, Quantity: 200_000_000}},
		spread:    50,
		hasSpread: true,
	}
	p := New(agg, time.Hour)
	snap := p.snapshot()

	if len(snap.Bids) != 1 || snap.Bids[0].Price != 100.00 || snap.Bids[0].Amount != 5.0 {
		t.Fatalf("unexpected bids: %+v", snap.Bids)
	}
	if snap.Bids[0].Exchange != "primary" {
		t.Fatalf("exchange = %q, want primary", snap.Bids[0].Exchange)
	}
	if snap.Spread == nil || *snap.Spread != 0.50 {
		t.Fatalf("spread = %v, want 0.50", snap.Spread)
	}
}

func TestSnapshotSpreadIsNilWhenAbsent(t *testing.T) {
	agg := &fakeAggregator{hasSpread: false}
	p := New(agg, time.Hour)
	snap := p.snapshot()
	if snap.Spread != nil {
		t.Fatalf("spread = %v, want nil", snap.Spread)
	}
}

func TestRunEmitsFinalSnapshotOnCancel(t *testing.T) {
	agg := &fakeAggregator{}
	p := New(agg, time.Hour) // long interval so only the final emit matters
	sink := make(chan Snapshot, 1)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx, sink)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}

	select {
	case <-sink:
	default:
		t.Fatal("expected a final snapshot in sink")
	}
}

func TestDeliverDropsStaleSnapshotUnderBackpressure(t *testing.T) {
	agg := &fakeAggregator{}
	p := New(agg, time.Hour)
	sink := make(chan Snapshot, 1)

	stale := Snapshot{}
	fresh := Snapshot{Bids: []Level{{Exchange: "primary", Price: 1, Amount: 1}}}

	p.deliver(sink, stale)
	p.deliver(sink, fresh)

	got := <-sink
	if len(got.Bids) != 1 {
		t.Fatalf("expected fresh snapshot to win, got %+v", got)
	}
	select {
	case extra := <-sink:
		t.Fatalf("expected sink to hold exactly one snapshot, found extra %+v", extra)
	default:
	}
}
