package console

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/fd1az/depth-aggregator/business/depth/publisher"
)

func spreadOf(v float64) *float64 { return &v }

func TestReportRendersBidsAsksAndSpread(t *testing.T) {
	var buf bytes.Buffer
	r := &Reporter{out: &buf}

	r.Report(publisher.Snapshot{
		Spread: spreadOf(0.50),
		Bids:   []publisher.Level{{Exchange: "primary", Price: 100.00, Amount: 5.0}},
		Asks:   []publisher.Level{{Exchange: "secondary", Price: 100.50, Amount: 2.0}},
	})

	out := buf.String()
	if !strings.Contains(out, "primary") || !strings.Contains(out, "secondary") {
		t.Fatalf("expected both exchanges in output, got:\n%s", out)
	}
	if !strings.Contains(out, "spread: 0.50") {
		t.Fatalf("expected spread in output, got:\n%s", out)
	}
}

func TestReportRendersNAWhenSpreadAbsent(t *testing.T) {
	var buf bytes.Buffer
	r := &Reporter{out: &buf}
	r.Report(publisher.Snapshot{})
	if !strings.Contains(buf.String(), "spread: n/a") {
		t.Fatalf("expected n/a spread, got:\n%s", buf.String())
	}
}

func TestRunStopsWhenSinkClosed(t *testing.T) {
	var buf bytes.Buffer
	r := &Reporter{out: &buf}
	sink := make(chan publisher.Snapshot)
	close(sink)

	done := make(chan struct{})
	go func() {
		r.Run(context.Background(), sink)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after sink closed")
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	var buf bytes.Buffer
	r := &Reporter{out: &buf}
	sink := make(chan publisher.Snapshot)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		r.Run(ctx, sink)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
