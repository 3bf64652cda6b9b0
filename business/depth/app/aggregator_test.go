package app

import (
	"context"
	"testing"
	"time"

	"github.com/fd1az/depth-aggregator/business/depth/domain"
)

func nl(ex domain.ExchangeID, side domain.Side, price, qty uint64) domain.NormalizedLevel {
	return domain.NormalizedLevel{
		Exchange: ex,
		Side:     side,
		Price:    domain.PriceCents(price),
		Quantity: domain.QtySmallest(qty),
	}
}

func TestAggregatesAcrossExchanges(t *testing.T) {
	a := New()
	a.Apply(nl(domain.Primary, domain.Buy, 10000, 500_000_000))
	a.Apply(nl(domain.Secondary, domain.Buy, 10000, 300_000_000))

	bids := a.TopBids()
	if len(bids) != 2 {
		t.Fatalf("want 2 levels, got %d", len(bids))
	}
	if bids[0].Exchange != domain.Primary || bids[1].Exchange != domain.Secondary {
		t.Fatalf("tie-break order wrong: %+v", bids)
	}
}

func TestRespectsLessThanTenLevels(t *testing.T) {
	a := New()
	a.Apply(nl(domain.Primary, domain.Buy, 100, 1))
	bids := a.TopBids()
	if len(bids) != 1 {
		t.Fatalf("want 1 level, got %d", len(bids))
	}
}

func TestTopAsksSortedLowestFirst(t *testing.T) {
	a := New()
	a.Apply(nl(domain.Primary, domain.Sell, 300, 1))
	a.Apply(nl(domain.Primary, domain.Sell, 100, 1))
	a.Apply(nl(domain.Primary, domain.Sell, 200, 1))

	asks := a.TopAsks()
	want := []uint64{100, 200, 300}
	for i, w := range want {
		if uint64(asks[i].Price) != w {
			t.Fatalf("asks[%d].Price = %d, want %d", i, asks[i].Price, w)
		}
	}
}

func TestSpreadComputedFromTopOfBook(t *testing.T) {
	a := New()
	a.Apply(nl(domain.Primary, domain.Buy, 10000, 1))
	a.Apply(nl(domain.Primary, domain.Sell, 10050, 1))

	spread, ok := a.Spread()
	if !ok || spread != 50 {
		t.Fatalf("spread = %d, %v, want 50, true", spread, ok)
	}
}

func TestSpreadNoneWhenEitherSideEmpty(t *testing.T) {
	a := New()
	if _, ok := a.Spread(); ok {
		t.Fatal("expected no spread on empty book")
	}
	a.Apply(nl(domain.Primary, domain.Buy, 100, 1))
	if _, ok := a.Spread(); ok {
		t.Fatal("expected no spread with only one side populated")
	}
}

func TestSpreadSaturatesOnCrossedBook(t *testing.T) {
	a := New()
	a.Apply(nl(domain.Primary, domain.Buy, 200, 1))
	a.Apply(nl(domain.Primary, domain.Sell, 100, 1))

	spread, ok := a.Spread()
	if !ok || spread != 0 {
		t.Fatalf("spread = %d, %v, want 0, true", spread, ok)
	}
}

func TestApplyReplacesNotSums(t *testing.T) {
	a := New()
	a.Apply(nl(domain.Primary, domain.Buy, 100, 5))
	a.Apply(nl(domain.Primary, domain.Buy, 100, 5))

	bids := a.TopBids()
	if len(bids) != 1 || bids[0].Quantity != 5 {
		t.Fatalf("expected replace semantics, got %+v", bids)
	}
}

func TestZeroQuantityRemoves(t *testing.T) {
	a := New()
	a.Apply(nl(domain.Secondary, domain.Buy, 10000, 300_000_000))
	a.Apply(nl(domain.Secondary, domain.Buy, 10000, 0))

	bids := a.TopBids()
	if len(bids) != 0 {
		t.Fatalf("expected removal, got %+v", bids)
	}
}

func TestReplaceLadderClearsSide(t *testing.T) {
	a := New()
	a.Apply(nl(domain.Primary, domain.Buy, 10000, 500_000_000))
	a.Apply(domain.ReplaceLadder{Exchange: domain.Primary, Side: domain.Buy})

	bids := a.TopBids()
	if len(bids) != 0 {
		t.Fatalf("expected empty book after ReplaceLadder, got %+v", bids)
	}
	if _, ok := a.Spread(); ok {
		t.Fatal("expected no spread after ReplaceLadder")
	}
}

// TestEndToEndScenario walks the five aggregator steps of the end-to-end
// scenario; the parsing step is covered in the fixedpoint tests.
func TestEndToEndScenario(t *testing.T) {
	a := New()

	a.Apply(nl(domain.Primary, domain.Buy, 10000, 500_000_000))
	bids := a.TopBids()
	if len(bids) != 1 || bids[0].Price != 10000 || bids[0].Quantity != 500_000_000 {
		t.Fatalf("step 1: got %+v", bids)
	}
	if _, ok := a.Spread(); ok {
		t.Fatal("step 1: expected no spread")
	}

	a.Apply(nl(domain.Secondary, domain.Buy, 10000, 300_000_000))
	bids = a.TopBids()
	if len(bids) != 2 || bids[0].Exchange != domain.Primary || bids[1].Exchange != domain.Secondary {
		t.Fatalf("step 2: got %+v", bids)
	}

	a.Apply(nl(domain.Primary, domain.Sell, 10050, 200_000_000))
	spread, ok := a.Spread()
	if !ok || spread != 50 {
		t.Fatalf("step 3: spread = %d, %v", spread, ok)
	}

	a.Apply(nl(domain.Secondary, domain.Buy, 10000, 0))
	bids = a.TopBids()
	if len(bids) != 1 || bids[0].Exchange != domain.Primary {
		t.Fatalf("step 4: got %+v", bids)
	}

	a.Apply(domain.ReplaceLadder{Exchange: domain.Primary, Side: domain.Buy})
	bids = a.TopBids()
	if len(bids) != 0 {
		t.Fatalf("step 5: got %+v", bids)
	}
	if _, ok := a.Spread(); ok {
		t.Fatal("step 5: expected no spread")
	}
}

func TestEveryLadderEntryIsNonZero(t *testing.T) {
	a := New()
	a.Apply(nl(domain.Primary, domain.Buy, 100, 1))
	a.Apply(nl(domain.Primary, domain.Buy, 100, 0))

	book := a.bookFor(domain.Primary)
	for price, qty := range book.bids.levels {
		if qty == 0 {
			t.Fatalf("found zero-quantity entry at price %d", price)
		}
	}
}

func TestConsumeAppliesEventsInOrderAndStopsOnClose(t *testing.T) {
	a := New()
	events := make(chan any, 4)
	events <- nl(domain.Primary, domain.Buy, 100, 1)
	events <- nl(domain.Primary, domain.Buy, 100, 0)
	close(events)

	done := make(chan struct{})
	go func() {
		a.Consume(context.Background(), events)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Consume did not return after channel closed")
	}

	if bids := a.TopBids(); len(bids) != 0 {
		t.Fatalf("expected no bids after replace-to-zero, got %+v", bids)
	}
}

func TestConsumeStopsOnContextCancel(t *testing.T) {
	a := New()
	events := make(chan any)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		a.Consume(ctx, events)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Consume did not return after context cancel")
	}
}
