package bus

import (
	"context"
	"testing"
	"time"
)

func TestPublishEventsFIFOPerProducer(t *testing.T) {
	b := New(10)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := b.Publish(ctx, i); err != nil {
			t.Fatalf("Publish(%d): %v", i, err)
		}
	}

	for i := 0; i < 5; i++ {
		got := <-b.Events()
		if got.(int) != i {
			t.Fatalf("got %v, want %d", got, i)
		}
	}
}

func TestPublishBlocksWhenFull(t *testing.T) {
	b := New(1)
	ctx := context.Background()

	if err := b.Publish(ctx, "first"); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	done := make(chan struct{})
	go func() {
		_ = b.Publish(ctx, "second")
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("Publish should have blocked on a full bus")
	case <-time.After(20 * time.Millisecond):
	}

	<-b.Events() // drain "first", unblocking the goroutine above
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish never unblocked after drain")
	}
}

func TestPublishCancelledByContext(t *testing.T) {
	b := New(1)
	_ = b.Publish(context.Background(), "fill")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := b.Publish(ctx, "second"); err == nil {
		t.Fatal("expected error when ctx is already cancelled")
	}
}
