// Package bitstamp implements the DeltaAdapter for the Secondary exchange.
// Bitstamp's order_book channel sends one "data" event per change: the
// first one after subscribing is treated as a full snapshot (ReplaceLadder +
// levels), every one after that is an ordinary replace-at-price delta.
package bitstamp

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"github.com/fd1az/depth-aggregator/business/depth/bus"
	"github.com/fd1az/depth-aggregator/business/depth/domain"
	"github.com/fd1az/depth-aggregator/internal/apperror"
	"github.com/fd1az/depth-aggregator/internal/fixedpoint"
	"github.com/fd1az/depth-aggregator/internal/logger"
	"github.com/fd1az/depth-aggregator/internal/wsconn"
)

const maxMessageBytes = 100_000

// Config configures the Bitstamp DeltaAdapter.
type Config struct {
	WebSocketURL string
	ChannelPair  string // e.g. "btcusdt", lowercase, no separators
	QtyDecimals  int

	// OnStatus, if set, is called whenever the underlying connection
	// transitions between connected and disconnected.
	OnStatus func(connected bool)
}

// Adapter is the DeltaAdapter for Bitstamp's order_book channel.
type Adapter struct {
	cfg Config
	bus *bus.Bus
	log logger.LoggerInterface

	seenMu sync.Mutex
	seen   map[domain.Side]bool // whether the initial snapshot for that side has been emitted
}

// New constructs a Bitstamp DeltaAdapter.
func New(cfg Config, b *bus.Bus, log logger.LoggerInterface) *Adapter {
	return &Adapter{
		cfg:  cfg,
		bus:  b,
		log:  log,
		seen: make(map[domain.Side]bool),
	}
}

func (a *Adapter) channel() string {
	return "order_book_" + a.cfg.ChannelPair
}

// Run connects, performs the bts:subscribe handshake, and blocks translating
// inbound data events into bus events until ctx is cancelled.
func (a *Adapter) Run(ctx context.Context) error {
	wsCfg := wsconn.DefaultConfig(a.cfg.WebSocketURL, "bitstamp")
	client, err := wsconn.New(wsCfg)
	if err != nil {
		return apperror.New(apperror.CodeTransportFatal, apperror.WithCause(err))
	}
	defer client.Close()

	if a.cfg.OnStatus != nil {
		client.OnStateChange(func(state wsconn.State, _ error) {
			a.cfg.OnStatus(state == wsconn.StateConnected)
		})
	}

	if err := client.ConnectWithRetry(ctx); err != nil {
		return apperror.New(apperror.CodeTransportFatal, apperror.WithCause(err))
	}

	subscribe := map[string]any{
		"event": "bts:subscribe",
		"data": map[string]string{
			"channel": a.channel(),
		},
	}
	if err := client.SendJSON(ctx, subscribe); err != nil {
		return apperror.New(apperror.CodeTransportFatal, apperror.WithCause(err))
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case raw, ok := <-client.Messages():
			if !ok {
				return apperror.New(apperror.CodeTransportFatal)
			}
			receivedAt := time.Now()
			if err := a.handleFrame(ctx, raw, receivedAt); err != nil {
				a.log.Warn(ctx, "bitstamp: dropping unparseable frame", "error", err)
			}
		}
	}
}

type dataFrame struct {
	MicroTimestamp string      `json:"microtimestamp"`
	Bids           [][2]string `json:"bids"`
	Asks           [][2]string `json:"asks"`
}

type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func (a *Adapter) handleFrame(ctx context.Context, raw []byte, receivedAt time.Time) error {
	if len(raw) > maxMessageBytes {
		return apperror.New(apperror.CodeInvalidFrame)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return apperror.New(apperror.CodeParseSoft, apperror.WithCause(err))
	}

	// Subscription acks ("bts:subscription_succeeded") and other control
	// events are silently ignored; only "data" events carry book levels.
	if env.Event != "data" || len(env.Data) == 0 {
		return nil
	}

	var data dataFrame
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return apperror.New(apperror.CodeParseSoft, apperror.WithCause(err))
	}

	exchangeTS := parseMicroTimestamp(data.MicroTimestamp)

	if len(data.Bids) > 0 {
		a.emitSide(ctx, domain.Buy, data.Bids, exchangeTS, receivedAt)
	}
	if len(data.Asks) > 0 {
		a.emitSide(ctx, domain.Sell, data.Asks, exchangeTS, receivedAt)
	}
	return nil
}

// emitSide prefixes the first message observed for side with a ReplaceLadder
// (the initial snapshot), then forwards every level as a plain NormalizedLevel
// delta. A quantity of "0" is forwarded, not skipped: the aggregator treats
// zero quantity as an explicit removal of that price level.
func (a *Adapter) emitSide(ctx context.Context, side domain.Side, levels [][2]string, exchangeTS domain.Timestamp, receivedAt time.Time) {
	if a.markFirstSeen(side) {
		if err := a.bus.Publish(ctx, domain.ReplaceLadder{Exchange: domain.Secondary, Side: side}); err != nil {
			return
		}
	}

	for _, lvl := range levels {
		price, ok := fixedpoint.ParsePriceCents(lvl[0])
		if !ok {
			continue
		}
		qty, ok := fixedpoint.ParseQuantitySmallestUnit(lvl[1], a.cfg.QtyDecimals)
		if !ok {
			continue
		}
		event := domain.NormalizedLevel{
			Exchange:          domain.Secondary,
			Side:              side,
			Price:             domain.PriceCents(price),
			Quantity:          domain.QtySmallest(qty),
			ExchangeTimestamp: exchangeTS,
			ReceivedAt:        domain.Timestamp(receivedAt.UnixMilli()),
		}
		if err := a.bus.Publish(ctx, event); err != nil {
			return
		}
	}
}

// markFirstSeen reports whether this is the first message observed for side,
// and records it as seen either way.
func (a *Adapter) markFirstSeen(side domain.Side) bool {
	a.seenMu.Lock()
	defer a.seenMu.Unlock()
	if a.seen[side] {
		return false
	}
	a.seen[side] = true
	return true
}

func parseMicroTimestamp(s string) domain.Timestamp {
	micros, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0
	}
	return domain.Timestamp(micros / 1000)
}
