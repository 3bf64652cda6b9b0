// Package binance implements the SnapshotAdapter for the Primary exchange.
// It speaks Binance's raw-stream partial-depth dialect: every message carries a
// full top-of-book snapshot for the subscribed depth, so the adapter
// publishes a ReplaceLadder before each batch of levels rather than tracking
// incremental deltas itself.
package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fd1az/depth-aggregator/business/depth/bus"
	"github.com/fd1az/depth-aggregator/business/depth/domain"
	"github.com/fd1az/depth-aggregator/internal/apperror"
	"github.com/fd1az/depth-aggregator/internal/circuitbreaker"
	"github.com/fd1az/depth-aggregator/internal/fixedpoint"
	"github.com/fd1az/depth-aggregator/internal/httpclient"
	"github.com/fd1az/depth-aggregator/internal/logger"
	"github.com/fd1az/depth-aggregator/internal/ratelimit"
	"github.com/fd1az/depth-aggregator/internal/wsconn"
)

// maxMessageBytes rejects oversize frames before they reach json.Unmarshal,
// matching the Rust reference client's guard against malformed floods.
const maxMessageBytes = 100_000

// Config configures the Binance SnapshotAdapter.
type Config struct {
	WebSocketURL string
	RESTBaseURL  string
	Symbol       string // e.g. "BTCUSDT", uppercase, no separators
	DepthSpeedMs int    // 100 or 1000; Binance only supports those two cadences
	QtyDecimals  int
	StaleTimeout time.Duration // triggers REST fallback once exceeded

	// OnStatus, if set, is called whenever the underlying connection
	// transitions between connected and disconnected. Used to drive the TUI's
	// connection indicator; nil is fine for headless/CLI operation.
	OnStatus func(connected bool)
}

// Adapter is the SnapshotAdapter for Binance depth20 streams.
type Adapter struct {
	cfg     Config
	bus     *bus.Bus
	log     logger.LoggerInterface
	limit   *ratelimit.Limiter
	breaker *circuitbreaker.CircuitBreaker[*depthSnapshot]
	rest    httpclient.Client
}

// New constructs a Binance SnapshotAdapter. rest may be nil to disable the
// REST fallback path (tests, or deployments that accept WS-only depth).
func New(cfg Config, b *bus.Bus, log logger.LoggerInterface, rest httpclient.Client) *Adapter {
	return &Adapter{
		cfg:     cfg,
		bus:     b,
		log:     log,
		limit:   ratelimit.NewWithBurst(1, 2), // Binance REST weight limits are generous; this guards our own retry storms
		breaker: circuitbreaker.New[*depthSnapshot](circuitbreaker.DefaultConfig("binance-rest-fallback")),
		rest:    rest,
	}
}

// streamName builds the raw stream name dialed under /ws/, e.g.
// "btcusdt@depth20@100ms".
func (a *Adapter) streamName() string {
	speed := a.cfg.DepthSpeedMs
	if speed != 1000 {
		speed = 100
	}
	return fmt.Sprintf("%s@depth20@%dms", toLower(a.cfg.Symbol), speed)
}

// Run connects and blocks until ctx is cancelled or the connection fails
// fatally. Each received frame is parsed and translated into a ReplaceLadder
// followed by NormalizedLevel events on the bus.
func (a *Adapter) Run(ctx context.Context) error {
	url := fmt.Sprintf("%s/ws/%s", a.cfg.WebSocketURL, a.streamName())
	wsCfg := wsconn.DefaultConfig(url, "binance")
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

	lastMessage := time.Now()
	staleCheck := time.NewTicker(a.staleCheckInterval())
	defer staleCheck.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-staleCheck.C:
			if a.cfg.StaleTimeout > 0 && time.Since(lastMessage) > a.cfg.StaleTimeout {
				a.fallbackToREST(ctx)
			}
		case raw, ok := <-client.Messages():
			if !ok {
				return apperror.New(apperror.CodeTransportFatal)
			}
			receivedAt := time.Now()
			lastMessage = receivedAt
			if err := a.handleFrame(ctx, raw, receivedAt); err != nil {
				a.log.Warn(ctx, "binance: dropping unparseable frame", "error", err)
			}
		}
	}
}

func (a *Adapter) staleCheckInterval() time.Duration {
	if a.cfg.StaleTimeout <= 0 {
		return time.Minute
	}
	return a.cfg.StaleTimeout / 2
}

// depthFrame mirrors Binance's combined REST-snapshot/WS-update shapes.
// Levels arrive as [price_string, qty_string] pairs, preferring the WS
// update's short keys ("b"/"a") and falling back to the REST snapshot's
// long keys ("bids"/"asks").
type depthFrame struct {
	EventType    string      `json:"e"`
	EventTime    uint64      `json:"E"`
	LastUpdateID *uint64     `json:"lastUpdateId"`
	BidsShort    [][2]string `json:"b"`
	AsksShort    [][2]string `json:"a"`
	BidsLong     [][2]string `json:"bids"`
	AsksLong     [][2]string `json:"asks"`
}

func (a *Adapter) handleFrame(ctx context.Context, raw []byte, receivedAt time.Time) error {
	if len(raw) > maxMessageBytes {
		return apperror.New(apperror.CodeInvalidFrame)
	}

	var frame depthFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		return apperror.New(apperror.CodeParseSoft, apperror.WithCause(err))
	}

	isSnapshot := frame.LastUpdateID != nil
	isUpdate := frame.EventType == "depthUpdate"
	if !isSnapshot && !isUpdate {
		return nil
	}

	bids := frame.BidsShort
	if bids == nil {
		bids = frame.BidsLong
	}
	asks := frame.AsksShort
	if asks == nil {
		asks = frame.AsksLong
	}

	exchangeTS := domain.Timestamp(frame.EventTime)

	// Binance's depth20 stream is itself a full top-of-book snapshot on
	// every tick, so each side is preceded by a ReplaceLadder clearing out
	// whatever was there before publishing the fresh levels.
	if len(bids) > 0 {
		if err := a.bus.Publish(ctx, domain.ReplaceLadder{Exchange: domain.Primary, Side: domain.Buy}); err != nil {
			return err
		}
		a.publishLevels(ctx, domain.Buy, bids, exchangeTS, receivedAt)
	}
	if len(asks) > 0 {
		if err := a.bus.Publish(ctx, domain.ReplaceLadder{Exchange: domain.Primary, Side: domain.Sell}); err != nil {
			return err
		}
		a.publishLevels(ctx, domain.Sell, asks, exchangeTS, receivedAt)
	}
	return nil
}

func (a *Adapter) publishLevels(ctx context.Context, side domain.Side, levels [][2]string, exchangeTS domain.Timestamp, receivedAt time.Time) {
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
			Exchange:          domain.Primary,
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

func toLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
