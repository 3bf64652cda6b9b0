// Package publisher periodically queries the aggregator and hands merged
// top-of-book snapshots to external consumers on a fixed interval.
package publisher

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fd1az/depth-aggregator/business/depth/domain"
)

// qtyDivisor assumes 8-decimal assets (BTC-class); configurable precision
// is out of scope.
var qtyDivisor = decimal.NewFromInt(100_000_000)

const priceDivisor = 100

// Level is one (exchange, price, amount) row in an outbound snapshot.
type Level struct {
	Exchange string  `json:"exchange"`
	Price    float64 `json:"price"`
	Amount   float64 `json:"amount"`
}

// Snapshot is the outbound message shape. Spread is a pointer so that
// "no spread yet" serializes as JSON null rather than 0.
type Snapshot struct {
	Spread *float64 `json:"spread"`
	Bids   []Level  `json:"bids"`
	Asks   []Level  `json:"asks"`
}

// Aggregator is the read surface the publisher depends on.
type Aggregator interface {
	TopBids() []domain.Level
	TopAsks() []domain.Level
	Spread() (domain.PriceCents, bool)
}

// Publisher periodically snapshots an Aggregator and forwards the result to
// a sink channel.
type Publisher struct {
	agg      Aggregator
	interval time.Duration
}

// New constructs a Publisher. interval <= 0 defaults to 500ms.
func New(agg Aggregator, interval time.Duration) *Publisher {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	return &Publisher{agg: agg, interval: interval}
}

// Run ticks at the configured interval, building one Snapshot per tick and
// delivering it to sink. sink must be buffered with capacity 1: on
// backpressure (the buffer is already full because the consumer is slow),
// Run drops the stale buffered snapshot and replaces it with the fresh one,
// rather than blocking and stalling the aggregator's readers. Returns when
// ctx is cancelled, first emitting one final snapshot.
func (p *Publisher) Run(ctx context.Context, sink chan<- Snapshot) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.deliver(sink, p.snapshot())
			return
		case <-ticker.C:
			p.deliver(sink, p.snapshot())
		}
	}
}

func (p *Publisher) deliver(sink chan<- Snapshot, snap Snapshot) {
	select {
	case sink <- snap:
		return
	default:
	}
	// Sink buffer is full: drop the stale entry, then push the fresh one.
	select {
	case <-sink:
	default:
	}
	select {
	case sink <- snap:
	default:
	}
}

func (p *Publisher) snapshot() Snapshot {
	bids := p.agg.TopBids()
	asks := p.agg.TopAsks()

	snap := Snapshot{
		Bids: toLevels(bids),
		Asks: toLevels(asks),
	}
	if spread, ok := p.agg.Spread(); ok {
		f := toFloatPrice(spread)
		snap.Spread = &f
	}
	return snap
}

func toLevels(levels []domain.Level) []Level {
	out := make([]Level, len(levels))
	for i, l := range levels {
		out[i] = Level{
			Exchange: l.Exchange.String(),
			Price:    toFloatPrice(l.Price),
			Amount:   toFloatAmount(l.Quantity),
		}
	}
	return out
}

// toFloatPrice and toFloatAmount are the only two places the engine crosses
// back into floating point, by design: human/consumer display, never
// internal comparison. shopspring/decimal avoids binary-float rounding
// artifacts in that one conversion.
func toFloatPrice(p domain.PriceCents) float64 {
	f, _ := decimal.NewFromInt(int64(p)).Div(decimal.NewFromInt(priceDivisor)).Float64()
	return f
}

func toFloatAmount(q domain.QtySmallest) float64 {
	f, _ := decimal.NewFromInt(int64(q)).DivRound(qtyDivisor, 8).Float64()
	return f
}
