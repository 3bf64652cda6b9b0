package binance

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fd1az/depth-aggregator/business/depth/bus"
	"github.com/fd1az/depth-aggregator/business/depth/domain"
	"github.com/fd1az/depth-aggregator/internal/httpclient"
	"github.com/fd1az/depth-aggregator/internal/logger"
)

func TestStreamNameDefaultsTo100ms(t *testing.T) {
	a := &Adapter{cfg: Config{Symbol: "BTCUSDT"}}
	if got, want := a.streamName(), "btcusdt@depth20@100ms"; got != want {
		t.Fatalf("streamName() = %q, want %q", got, want)
	}
}

func TestStreamNameHonors1000ms(t *testing.T) {
	a := &Adapter{cfg: Config{Symbol: "ETHUSDT", DepthSpeedMs: 1000}}
	if got, want := a.streamName(), "ethusdt@depth20@1000ms"; got != want {
		t.Fatalf("streamName() = %q, want %q", got, want)
	}
}

func newTestAdapter(t *testing.T) (*Adapter, *bus.Bus) {
	t.Helper()
	b := bus.New(64)
	a := New(Config{Symbol: "BTCUSDT", QtyDecimals: 8}, b, discardLogger{}, nil)
	return a, b
}

type discardLogger struct{}

func (discardLogger) Debug(ctx context.Context, msg string, kv ...any) {}
func (discardLogger) Info(ctx context.Context, msg string, kv ...any)  {}
func (discardLogger) Warn(ctx context.Context, msg string, kv ...any)  {}
func (discardLogger) Error(ctx context.Context, msg string, kv ...any) {}
func (d discardLogger) With(kv ...any) logger.LoggerInterface          { return d }

var _ logger.LoggerInterface = discardLogger{}

func TestHandleFrameDepthUpdateEmitsReplaceThenLevels(t *testing.T) {
	a, b := newTestAdapter(t)
	ctx := context.Background()

	frame := `{"e":"depthUpdate","E":1690000000000,"b":[["100.50","1.0"]],"a":[["100.55","2.0"]]}`
	if err := a.handleFrame(ctx, []byte(frame), time.Now()); err != nil {
		t.Fatalf("handleFrame: %v", err)
	}

	want := []any{
		domain.ReplaceLadder{Exchange: domain.Primary, Side: domain.Buy},
		domain.NormalizedLevel{},
		domain.ReplaceLadder{Exchange: domain.Primary, Side: domain.Sell},
		domain.NormalizedLevel{},
	}
	for i := range want {
		select {
		case ev := <-b.Events():
			switch want[i].(type) {
			case domain.ReplaceLadder:
				if _, ok := ev.(domain.ReplaceLadder); !ok {
					t.Fatalf("event %d: got %T, want ReplaceLadder", i, ev)
				}
			case domain.NormalizedLevel:
				nl, ok := ev.(domain.NormalizedLevel)
				if !ok {
					t.Fatalf("event %d: got %T, want NormalizedLevel", i, ev)
				}
				if nl.Exchange != domain.Primary {
					t.Fatalf("event %d: exchange = %v, want Primary", i, nl.Exchange)
				}
			}
		default:
			t.Fatalf("event %d: bus empty", i)
		}
	}
}

func TestHandleFramePrefersShortKeysOverLongKeys(t *testing.T) {
	a, b := newTestAdapter(t)
	ctx := context.Background()

	frame := `{"lastUpdateId":5,"bids":[["1.00","9.0"]],"b":[["2.00","1.0"]]}`
	if err := a.handleFrame(ctx, []byte(frame), time.Now()); err != nil {
		t.Fatalf("handleFrame: %v", err)
	}

	<-b.Events() // ReplaceLadder
	lvl := <-b.Events()
	nl, ok := lvl.(domain.NormalizedLevel)
	if !ok {
		t.Fatalf("got %T, want NormalizedLevel", lvl)
	}
	if nl.Price != 200 {
		t.Fatalf("price = %d, want 200 (short key \"b\" should win over \"bids\")", nl.Price)
	}
}

func TestHandleFrameRejectsOversizeFrame(t *testing.T) {
	a, _ := newTestAdapter(t)
	huge := make([]byte, maxMessageBytes+1)
	if err := a.handleFrame(context.Background(), huge, time.Now()); err == nil {
		t.Fatal("expected error for oversize frame")
	}
}

func TestHandleFrameIgnoresUnrelatedEventTypes(t *testing.T) {
	a, b := newTestAdapter(t)
	frame := `{"e":"aggTrade","E":1,"p":"100.00"}`
	if err := a.handleFrame(context.Background(), []byte(frame), time.Now()); err != nil {
		t.Fatalf("handleFrame: %v", err)
	}
	select {
	case ev := <-b.Events():
		t.Fatalf("expected no events, got %v", ev)
	default:
	}
}

func TestFetchSnapshotParsesRESTResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("symbol"); got != "BTCUSDT" {
			t.Errorf("symbol = %q, want BTCUSDT", got)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(depthSnapshot{
			LastUpdateID: 1,
			Bids:         [][2]string{{"100.00", "1.0"}},
			Asks:         [][2]string{{"101.00", "2.0"}},
		})
	}))
	defer server.Close()

	rest, err := httpclient.NewInstrumentedClient()
	if err != nil {
		t.Fatalf("NewInstrumentedClient: %v", err)
	}

	a := New(Config{Symbol: "BTCUSDT", RESTBaseURL: server.URL, QtyDecimals: 8}, bus.New(8), discardLogger{}, rest)
	snap, err := a.fetchSnapshot(context.Background())
	if err != nil {
		t.Fatalf("fetchSnapshot: %v", err)
	}
	if len(snap.Bids) != 1 || snap.Bids[0][0] != "100.00" {
		t.Fatalf("unexpected bids: %+v", snap.Bids)
	}
}
