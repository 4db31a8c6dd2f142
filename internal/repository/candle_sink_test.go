package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"BarTrader/internal/domain/models"
)

func TestCandleQueueWritesInOrder(t *testing.T) {
	var mu sync.Mutex
	var got []string
	q := newCandleQueue("test", 16, nil, func(_ context.Context, c *models.Candle) {
		mu.Lock()
		got = append(got, c.Symbol)
		mu.Unlock()
	})

	q.enqueue(&models.Candle{Symbol: "a"})
	q.enqueue(&models.Candle{Symbol: "b"})
	q.enqueue(&models.Candle{Symbol: "c"})
	q.close()

	if len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Fatalf("unexpected write order %v", got)
	}
}

func TestCandleQueueEnqueueNeverBlocks(t *testing.T) {
	block := make(chan struct{})
	q := newCandleQueue("test", 1, nil, func(_ context.Context, _ *models.Candle) {
		<-block
	})

	// The writer is stuck; one candle is in flight, one fills the buffer.
	// Further enqueues must return immediately and drop.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			q.enqueue(&models.Candle{Symbol: "btcusdt"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("enqueue blocked on a stuck writer")
	}

	close(block)
	q.close()
}

func TestCandleQueueCloseFlushesPending(t *testing.T) {
	var mu sync.Mutex
	written := 0
	q := newCandleQueue("test", 16, nil, func(_ context.Context, _ *models.Candle) {
		time.Sleep(time.Millisecond)
		mu.Lock()
		written++
		mu.Unlock()
	})

	for i := 0; i < 10; i++ {
		q.enqueue(&models.Candle{Symbol: "btcusdt"})
	}
	q.close()

	if written != 10 {
		t.Fatalf("close must flush the queue, wrote %d of 10", written)
	}
}

func TestCandleQueueCloseIsIdempotent(t *testing.T) {
	q := newCandleQueue("test", 4, nil, func(context.Context, *models.Candle) {})
	q.close()
	q.close() // second close must not panic
}
