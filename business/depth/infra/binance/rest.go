package binance

import (
	"context"
	"fmt"
	"time"

	"github.com/fd1az/depth-aggregator/business/depth/domain"
	"github.com/fd1az/depth-aggregator/internal/apperror"
)


// depthSnapshot is the REST /api/v3/depth response shape.
type depthSnapshot struct {
	LastUpdateID uint64      `json:"lastUpdateId"`
	Bids         [][2]string `json:"bids"`
	Asks         [][2]string `json:"asks"`
}

// fallbackToREST is invoked once the WS stream has gone stale for longer
// than cfg.StaleTimeout. It fetches one full snapshot over REST, guarded by
// a rate limiter and circuit breaker so a flapping Binance REST endpoint
// cannot be hammered, and republishes it as a ReplaceLadder + levels.
func (a *Adapter) fallbackToREST(ctx context.Context) {
	if a.rest == nil {
		return
	}
	if err := a.limit.Wait(ctx); err != nil {
		return
	}

	snap, err := a.breaker.Execute(func() (*depthSnapshot, error) {
		return a.fetchSnapshot(ctx)
	})
	if err != nil {
		a.log.Warn(ctx, "binance: rest fallback failed", "error", err)
		return
	}

	now := time.Now()
	if len(snap.Bids) > 0 {
		if err := a.bus.Publish(ctx, domain.ReplaceLadder{Exchange: domain.Primary, Side: domain.Buy}); err == nil {
			a.publishLevels(ctx, domain.Buy, snap.Bids, domain.Timestamp(0), now)
		}
	}
	if len(snap.Asks) > 0 {
		if err := a.bus.Publish(ctx, domain.ReplaceLadder{Exchange: domain.Primary, Side: domain.Sell}); err == nil {
			a.publishLevels(ctx, domain.Sell, snap.Asks, domain.Timestamp(0), now)
		}
	}
}

func (a *Adapter) fetchSnapshot(ctx context.Context) (*depthSnapshot, error) {
	url := fmt.Sprintf("%s/api/v3/depth?symbol=%s&limit=20", a.cfg.RESTBaseURL, a.cfg.Symbol)

	var snap depthSnapshot
	resp, err := a.rest.NewRequest().SetResult(&snap).Get(ctx, url)
	if err != nil {
		return nil, apperror.New(apperror.CodeSnapshotFetchFailed, apperror.WithCause(err))
	}
	if resp.IsError() {
		return nil, apperror.New(apperror.CodeSnapshotFetchFailed, apperror.WithContext(fmt.Sprintf("status=%d", resp.StatusCode)))
	}
	if result, ok := resp.Result().(*depthSnapshot); ok {
		return result, nil
	}
	return nil, apperror.New(apperror.CodeInvalidSnapshot)
}
