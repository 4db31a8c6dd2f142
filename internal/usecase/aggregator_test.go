package usecase

import (
	"context"
	"testing"
	"time"

	"BarTrader/internal/domain/models"
)

func TestAggregatorFoldsTicksIntoWindow(t *testing.T) {
	agg := NewCandleAggregator(time.Minute, 100, nil, nil)
	ctx := context.Background()

	prices := []float64{100, 120, 90, 105}
	var working *models.Candle
	for i, p := range prices {
		ts := baseTime.Add(time.Duration(i) * time.Second)
		working = agg.Process(ctx, "btcusdt", p, ts, 0.5)
	}

	if working == nil {
		t.Fatalf("expected working candle")
	}
	if working.Open != 100 || working.High != 120 || working.Low != 90 || working.Close != 105 {
		t.Fatalf("unexpected OHLC %+v", working)
	}
	if working.TickCount != 4 {
		t.Fatalf("expected 4 ticks, got %d", working.TickCount)
	}
	if working.Volume != 2.0 {
		t.Fatalf("expected volume 2.0, got %v", working.Volume)
	}
	if working.IsFinalized {
		t.Fatalf("working candle must not be finalized")
	}
	if !working.OpenTime.Equal(baseTime) || !working.CloseTime.Equal(baseTime.Add(time.Minute)) {
		t.Fatalf("unexpected window bounds %v %v", working.OpenTime, working.CloseTime)
	}
}

func TestAggregatorRolloverFinalizesOnce(t *testing.T) {
	var finalized []*models.Candle
	agg := NewCandleAggregator(time.Minute, 100, func(_ context.Context, c *models.Candle) {
		finalized = append(finalized, c)
	}, nil)
	ctx := context.Background()

	agg.Process(ctx, "btcusdt", 100, baseTime, 1)
	agg.Process(ctx, "btcusdt", 110, baseTime.Add(30*time.Second), 1)
	if len(finalized) != 0 {
		t.Fatalf("no rollover yet")
	}

	agg.Process(ctx, "btcusdt", 111, baseTime.Add(time.Minute), 1)
	if len(finalized) != 1 {
		t.Fatalf("expected exactly one finalized candle, got %d", len(finalized))
	}
	c := finalized[0]
	if !c.IsFinalized || c.FinalizedAt == nil {
		t.Fatalf("candle not marked finalized: %+v", c)
	}
	if c.Open != 100 || c.Close != 110 || c.TickCount != 2 {
		t.Fatalf("unexpected finalized candle %+v", c)
	}
	if !c.CloseTime.Equal(baseTime.Add(time.Minute)) {
		t.Fatalf("unexpected close time %v", c.CloseTime)
	}
}

func TestAggregatorDropsLateTick(t *testing.T) {
	var finalized int
	agg := NewCandleAggregator(time.Minute, 100, func(context.Context, *models.Candle) {
		finalized++
	}, nil)
	ctx := context.Background()

	agg.Process(ctx, "btcusdt", 100, baseTime, 1)
	agg.Process(ctx, "btcusdt", 101, baseTime.Add(time.Minute), 1) // rolls over

	// A tick timestamped inside the already finalized window must be dropped.
	got := agg.Process(ctx, "btcusdt", 999, baseTime.Add(10*time.Second), 1)
	if got != nil {
		t.Fatalf("expected late tick to be dropped, got %+v", got)
	}
	if finalized != 1 {
		t.Fatalf("late tick must not re-finalize, got %d", finalized)
	}
	cur, ok := agg.CurrentCandle("btcusdt")
	if !ok || cur.Close != 101 {
		t.Fatalf("working candle corrupted by late tick: %+v", cur)
	}
}

func TestAggregatorForceFinalizeAll(t *testing.T) {
	var finalized []*models.Candle
	agg := NewCandleAggregator(time.Minute, 100, func(_ context.Context, c *models.Candle) {
		finalized = append(finalized, c)
	}, nil)
	ctx := context.Background()

	agg.Process(ctx, "btcusdt", 100, baseTime, 1)
	agg.Process(ctx, "ethusdt", 50, baseTime, 1)

	agg.ForceFinalize(ctx, "")
	if len(finalized) != 2 {
		t.Fatalf("expected 2 flushed candles, got %d", len(finalized))
	}
	if _, ok := agg.CurrentCandle("btcusdt"); ok {
		t.Fatalf("working candle should be gone after flush")
	}

	// Flushing again is a no-op.
	agg.ForceFinalize(ctx, "")
	if len(finalized) != 2 {
		t.Fatalf("second flush must not emit, got %d", len(finalized))
	}
}

func TestAggregatorWorkingCandleIsACopy(t *testing.T) {
	agg := NewCandleAggregator(time.Minute, 100, nil, nil)
	ctx := context.Background()

	w := agg.Process(ctx, "btcusdt", 100, baseTime, 1)
	w.Close = -1

	cur, ok := agg.CurrentCandle("btcusdt")
	if !ok || cur.Close != 100 {
		t.Fatalf("caller mutation leaked into aggregator state: %+v", cur)
	}
}
