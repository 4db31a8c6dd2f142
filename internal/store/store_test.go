package store

import (
	"fmt"
	"testing"
	"time"

	"BarTrader/internal/domain/models"
)

var testTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func TestTickStoreOverwrites(t *testing.T) {
	s := NewTickStore()

	s.Update(&models.Tick{Symbol: "btcusdt", Price: 100, Timestamp: testTime})
	s.Update(&models.Tick{Symbol: "btcusdt", Price: 101, Timestamp: testTime.Add(time.Second)})

	got, ok := s.Latest("btcusdt")
	if !ok || got.Price != 101 {
		t.Fatalf("expected latest price 101, got %+v", got)
	}
	if _, ok := s.Latest("ethusdt"); ok {
		t.Fatalf("unknown symbol must report no tick")
	}
}

func TestTickStoreSnapshotIsACopy(t *testing.T) {
	s := NewTickStore()
	s.Update(&models.Tick{Symbol: "btcusdt", Price: 100, Timestamp: testTime})

	got, _ := s.Latest("btcusdt")
	got.Price = -1
	all := s.All()
	all["btcusdt"].Price = -2

	again, _ := s.Latest("btcusdt")
	if again.Price != 100 {
		t.Fatalf("caller mutation leaked into store: %+v", again)
	}
}

func candleAt(symbol string, i int, close float64) *models.Candle {
	open := testTime.Add(time.Duration(i) * time.Minute)
	return &models.Candle{
		Symbol:      symbol,
		OpenTime:    open,
		CloseTime:   open.Add(time.Minute),
		Open:        close,
		High:        close,
		Low:         close,
		Close:       close,
		IsFinalized: true,
	}
}

func TestCandleStoreEvictsOldest(t *testing.T) {
	s := NewCandleStore(3)
	for i := 0; i < 5; i++ {
		s.Add(candleAt("btcusdt", i, float64(i)))
	}

	got := s.Candles("btcusdt", 0)
	if len(got) != 3 {
		t.Fatalf("expected cap 3, got %d", len(got))
	}
	if got[0].Close != 2 || got[2].Close != 4 {
		t.Fatalf("eviction order wrong: %v..%v", got[0].Close, got[2].Close)
	}

	latest, ok := s.Latest("btcusdt")
	if !ok || latest.Close != 4 {
		t.Fatalf("unexpected latest %+v", latest)
	}
}

func TestCandleStoreLimitReturnsMostRecent(t *testing.T) {
	s := NewCandleStore(10)
	for i := 0; i < 5; i++ {
		s.Add(candleAt("btcusdt", i, float64(i)))
	}

	got := s.Candles("btcusdt", 2)
	if len(got) != 2 || got[0].Close != 3 || got[1].Close != 4 {
		t.Fatalf("expected last two candles, got %+v", got)
	}
	if got := s.Candles("ethusdt", 2); len(got) != 0 {
		t.Fatalf("unknown symbol must be empty")
	}
}

func TestCandleStoreReturnsCopies(t *testing.T) {
	s := NewCandleStore(10)
	c := candleAt("btcusdt", 0, 100)
	s.Add(c)
	c.Close = -1 // mutate after Add

	got := s.Candles("btcusdt", 0)
	if got[0].Close != 100 {
		t.Fatalf("Add must copy, got %v", got[0].Close)
	}
	got[0].Close = -2
	again, _ := s.Latest("btcusdt")
	if again.Close != 100 {
		t.Fatalf("Candles must copy, got %v", again.Close)
	}
}

func TestPositionStoreLifecycle(t *testing.T) {
	s := NewPositionStore()
	s.Open(&models.Position{
		ID:         "A_btcusdt_1",
		Variant:    "A",
		Symbol:     "btcusdt",
		Side:       models.SideLong,
		EntryPrice: 100,
		Quantity:   0.001,
		Status:     models.PositionOpen,
		OpenTime:   testTime,
	})

	s.UpdatePnl("A_btcusdt_1", 110)
	p, ok := s.Get("A_btcusdt_1")
	if !ok || p.PnlPercent != 10 || p.CurrentPrice != 110 {
		t.Fatalf("unexpected pnl state %+v", p)
	}

	s.Close("A_btcusdt_1", 120)
	p, _ = s.Get("A_btcusdt_1")
	if p.Status != models.PositionClosed {
		t.Fatalf("expected CLOSED, got %s", p.Status)
	}
	if p.FinalPnl == nil || *p.FinalPnl != (120-100)*0.001 {
		t.Fatalf("unexpected final pnl %+v", p.FinalPnl)
	}

	// CLOSED is terminal.
	s.Close("A_btcusdt_1", 50)
	s.UpdatePnl("A_btcusdt_1", 50)
	p, _ = s.Get("A_btcusdt_1")
	if *p.ClosePrice != 120 || p.CurrentPrice != 110 {
		t.Fatalf("closed position mutated: %+v", p)
	}
}

func TestPositionStoreShortPnl(t *testing.T) {
	s := NewPositionStore()
	s.Open(&models.Position{
		ID:         "B_ethusdt_1",
		Variant:    "B",
		Symbol:     "ethusdt",
		Side:       models.SideShort,
		EntryPrice: 100,
		Quantity:   2,
		Status:     models.PositionOpen,
		OpenTime:   testTime,
	})

	s.UpdatePnl("B_ethusdt_1", 90)
	p, _ := s.Get("B_ethusdt_1")
	if p.PnlPercent != 10 {
		t.Fatalf("short pnl should be positive on price drop, got %v", p.PnlPercent)
	}

	s.Close("B_ethusdt_1", 90)
	p, _ = s.Get("B_ethusdt_1")
	if p.FinalPnl == nil || *p.FinalPnl != 20 {
		t.Fatalf("unexpected short final pnl %+v", p.FinalPnl)
	}
}

func TestActivePositionsVariantFilter(t *testing.T) {
	s := NewPositionStore()
	for i, variant := range []string{"A", "A", "B"} {
		s.Open(&models.Position{
			ID:      fmt.Sprintf("%s_%d", variant, i),
			Variant: variant,
			Symbol:  "btcusdt",
			Status:  models.PositionOpen,
		})
	}
	s.Close("A_0", 1)

	if got := len(s.ActivePositions("")); got != 2 {
		t.Fatalf("expected 2 open positions, got %d", got)
	}
	if got := len(s.ActivePositions("A")); got != 1 {
		t.Fatalf("expected 1 open A position, got %d", got)
	}
	if got := len(s.ActivePositions("B")); got != 1 {
		t.Fatalf("expected 1 open B position, got %d", got)
	}
}

func TestTradeLogRecentEntries(t *testing.T) {
	s := NewPositionStore()
	for i := 0; i < 5; i++ {
		s.AddTradeLog(models.TradeLogEntry{
			Timestamp: testTime.Add(time.Duration(i) * time.Minute),
			Symbol:    "btcusdt",
			Price:     float64(i),
		})
	}

	got := s.TradeLog(2)
	if len(got) != 2 || got[0].Price != 3 || got[1].Price != 4 {
		t.Fatalf("expected last two entries oldest first, got %+v", got)
	}
	if got := s.TradeLog(0); len(got) != 5 {
		t.Fatalf("limit 0 must return all, got %d", len(got))
	}
}
