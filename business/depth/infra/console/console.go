// Package console implements a formatted stdout sink for the snapshot
// publisher: a continuously refreshed top-of-book table instead of a
// one-shot report.
package console

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fd1az/depth-aggregator/business/depth/publisher"
)

// Reporter renders outbound snapshots as a formatted table on out.
type Reporter struct {
	out io.Writer
}

// NewReporter creates a Reporter writing to os.Stdout.
func NewReporter() *Reporter {
	return &Reporter{out: os.Stdout}
}

// Start prints the banner.
func (r *Reporter) Start(ctx context.Context) error {
	fmt.Fprintln(r.out, "Depth Aggregator Started")
	fmt.Fprintln(r.out, "========================")
	return nil
}

// Run reads snapshots off sink and renders each until ctx is cancelled or
// sink is closed.
func (r *Reporter) Run(ctx context.Context, sink <-chan publisher.Snapshot) {
	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-sink:
			if !ok {
				return
			}
			r.Report(snap)
		}
	}
}

// Report renders one snapshot.
func (r *Reporter) Report(snap publisher.Snapshot) {
	fmt.Fprintf(r.out, "\n[%s]\n", time.Now().Format("15:04:05"))
	fmt.Fprintln(r.out, "--------------------------------------------------------------------------------")
	fmt.Fprintf(r.out, "%-10s %-12s %14s\n", "EXCHANGE", "PRICE", "AMOUNT")
	fmt.Fprintln(r.out, "ASKS (best last)")
	for i := len(snap.Asks) - 1; i >= 0; i-- {
		l := snap.Asks[i]
		fmt.Fprintf(r.out, "%-10s %-12.2f %14.8f\n", l.Exchange, l.Price, l.Amount)
	}
	if snap.Spread != nil {
		fmt.Fprintf(r.out, "--------------------------- spread: %.2f ---------------------------\n", *snap.Spread)
	} else {
		fmt.Fprintln(r.out, "--------------------------- spread: n/a ---------------------------")
	}
	fmt.Fprintln(r.out, "BIDS (best first)")
	for _, l := range snap.Bids {
		fmt.Fprintf(r.out, "%-10s %-12.2f %14.8f\n", l.Exchange, l.Price, l.Amount)
	}
	fmt.Fprintln(r.out, "--------------------------------------------------------------------------------")
}

// Stop prints the shutdown footer.
func (r *Reporter) Stop() error {
	fmt.Fprintln(r.out, "\nDepth Aggregator Stopped")
	return nil
}
