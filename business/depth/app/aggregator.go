// Package app holds the Order Book aggregator: per-exchange sorted price
// ladders, applied to by a single consumer task and queried concurrently by
// the snapshot publisher and shutdown path.
package app

import (
	"context"
	"sort"
	"sync"

	"github.com/fd1az/depth-aggregator/business/depth/domain"
)

const topN = 10

// ladder is a price->quantity mapping for one (exchange, side), independently
// lock-protected. Keyed on an integer price, point-insert/point-remove/
// bulk-clear are O(1) amortized; top-N extraction sorts the current level
// set on read.
type ladder struct {
	mu     sync.RWMutex
	levels map[domain.PriceCents]domain.QtySmallest
}

func newLadder() *ladder {
	return &ladder{levels: make(map[domain.PriceCents]domain.QtySmallest)}
}

func (l *ladder) set(price domain.PriceCents, qty domain.QtySmallest) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if qty == 0 {
		delete(l.levels, price)
		return
	}
	l.levels[price] = qty
}

func (l *ladder) clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.levels = make(map[domain.PriceCents]domain.QtySmallest)
}

// snapshot returns a copy of the current (price, qty) pairs. Cheap relative
// to socket/channel operations; never called while holding another ladder's
// lock.
func (l *ladder) snapshot() []priceQty {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]priceQty, 0, len(l.levels))
	for p, q := range l.levels {
		out = append(out, priceQty{price: p, qty: q})
	}
	return out
}

type priceQty struct {
	price domain.PriceCents
	qty   domain.QtySmallest
}

// exchangeBook holds the independent bid/ask ladders for one exchange.
type exchangeBook struct {
	bids *ladder
	asks *ladder
}

func newExchangeBook() *exchangeBook {
	return &exchangeBook{bids: newLadder(), asks: newLadder()}
}

func (b *exchangeBook) ladder(side domain.Side) *ladder {
	if side == domain.Buy {
		return b.bids
	}
	return b.asks
}

// Aggregator holds one exchangeBook per known ExchangeID. The outer map is
// populated lazily on first write and never shrinks; it is guarded by its
// own lock, independent of the ladder locks it holds.
type Aggregator struct {
	mu    sync.RWMutex
	books map[domain.ExchangeID]*exchangeBook
}

// New creates an empty Aggregator.
func New() *Aggregator {
	return &Aggregator{books: make(map[domain.ExchangeID]*exchangeBook)}
}

func (a *Aggregator) bookFor(ex domain.ExchangeID) *exchangeBook {
	a.mu.RLock()
	b, ok := a.books[ex]
	a.mu.RUnlock()
	if ok {
		return b
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if b, ok := a.books[ex]; ok {
		return b
	}
	b = newExchangeBook()
	a.books[ex] = b
	return b
}

// HasData reports whether any exchange has produced at least one ladder
// entry. Used as the readiness signal: the supervisor is healthy once some
// adapter has delivered its first successful frame.
func (a *Aggregator) HasData() bool {
	a.mu.RLock()
	books := make([]*exchangeBook, 0, len(a.books))
	for _, b := range a.books {
		books = append(books, b)
	}
	a.mu.RUnlock()

	for _, b := range books {
		if len(b.bids.snapshot()) > 0 || len(b.asks.snapshot()) > 0 {
			return true
		}
	}
	return false
}

// Apply mutates the aggregator state in response to one bus event. Accepts
// either a domain.NormalizedLevel or a domain.ReplaceLadder. Non-suspending:
// acquires exactly one ladder lock and releases it before returning.
func (a *Aggregator) Apply(event any) {
	switch e := event.(type) {
	case domain.ReplaceLadder:
		a.bookFor(e.Exchange).ladder(e.Side).clear()
	case domain.NormalizedLevel:
		// Quantity replaces, never sums: exchanges publish absolute
		// aggregate size at a price, not increments. A qty of zero
		// removes the key (see ladder.set).
		a.bookFor(e.Exchange).ladder(e.Side).set(e.Price, e.Quantity)
	}
}

// Consume is the aggregator's single consumer task: it drains events off the
// bus and applies them strictly sequentially, giving the aggregator a total
// order over events even though adapters emit concurrently. Returns when
// events is closed or ctx is cancelled.
func (a *Aggregator) Consume(ctx context.Context, events <-chan any) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			a.Apply(event)
		}
	}
}

// exchangeOrder fixes the traversal order used by every merged query, both
// to tie-break equal prices by exchange identity and to give readers a
// stable lock-acquisition order.
var exchangeOrder = []domain.ExchangeID{domain.Primary, domain.Secondary}

func (a *Aggregator) collect(side domain.Side) []domain.Level {
	var out []domain.Level
	a.mu.RLock()
	books := make(map[domain.ExchangeID]*exchangeBook, len(a.books))
	for id, b := range a.books {
		books[id] = b
	}
	a.mu.RUnlock()

	for _, id := range exchangeOrder {
		b, ok := books[id]
		if !ok {
			continue
		}
		for _, pq := range b.ladder(side).snapshot() {
			out = append(out, domain.Level{Exchange: id, Price: pq.price, Quantity: pq.qty})
		}
	}
	return out
}

// TopBids returns up to 10 bid levels across all exchanges, sorted
// descending by price with ties broken by exchange order (Primary before
// Secondary).
func (a *Aggregator) TopBids() []domain.Level {
	levels := a.collect(domain.Buy)
	sort.SliceStable(levels, func(i, j int) bool {
		if levels[i].Price != levels[j].Price {
			return levels[i].Price > levels[j].Price
		}
		return exchangeRank(levels[i].Exchange) < exchangeRank(levels[j].Exchange)
	})
	return truncate(levels)
}

// TopAsks returns up to 10 ask levels across all exchanges, sorted
// ascending by price with the same tie-break rule as TopBids.
func (a *Aggregator) TopAsks() []domain.Level {
	levels := a.collect(domain.Sell)
	sort.SliceStable(levels, func(i, j int) bool {
		if levels[i].Price != levels[j].Price {
			return levels[i].Price < levels[j].Price
		}
		return exchangeRank(levels[i].Exchange) < exchangeRank(levels[j].Exchange)
	})
	return truncate(levels)
}

// Spread returns best_ask - best_bid with saturating subtraction (a crossed
// book yields 0, never negative). Returns false if either side is empty.
func (a *Aggregator) Spread() (domain.PriceCents, bool) {
	bids := a.TopBids()
	asks := a.TopAsks()
	if len(bids) == 0 || len(asks) == 0 {
		return 0, false
	}
	bestBid := bids[0].Price
	bestAsk := asks[0].Price
	if bestAsk <= bestBid {
		return 0, true
	}
	return bestAsk - bestBid, true
}

func truncate(levels []domain.Level) []domain.Level {
	if len(levels) > topN {
		return levels[:topN]
	}
	return levels
}

func exchangeRank(id domain.ExchangeID) int {
	for i, e := range exchangeOrder {
		if e == id {
			return i
		}
	}
	return len(exchangeOrder)
}
