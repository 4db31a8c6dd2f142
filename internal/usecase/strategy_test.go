package usecase

import (
	"math"
	"testing"

	"BarTrader/internal/domain/models"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestSMA(t *testing.T) {
	if got := SMA([]float64{1, 2, 3, 4, 5}, 5); !almostEqual(got, 3) {
		t.Fatalf("SMA full window: got %v", got)
	}
	if got := SMA([]float64{1, 2, 3, 4, 5}, 2); !almostEqual(got, 4.5) {
		t.Fatalf("SMA last two: got %v", got)
	}
	// Shorter history than window averages what is available.
	if got := SMA([]float64{10, 20}, 5); !almostEqual(got, 15) {
		t.Fatalf("SMA short history: got %v", got)
	}
	if got := SMA(nil, 5); got != 0 {
		t.Fatalf("SMA empty: got %v", got)
	}
}

func TestEMA(t *testing.T) {
	// span 3 -> alpha 0.5; seed 10, then 0.5*20 + 0.5*10 = 15.
	if got := EMA([]float64{10, 20}, 3); !almostEqual(got, 15) {
		t.Fatalf("EMA: got %v", got)
	}
	if got := EMA([]float64{42}, 12); !almostEqual(got, 42) {
		t.Fatalf("EMA single close: got %v", got)
	}
	if got := EMA(nil, 12); got != 0 {
		t.Fatalf("EMA empty: got %v", got)
	}
}

func TestStopLossPrice(t *testing.T) {
	a := NewCrossoverStrategy(StrategyConfig{Name: "A", StopLossPercent: 15}, nil)
	if got := a.StopLossPrice(100, models.SideLong); !almostEqual(got, 85) {
		t.Fatalf("long stop: got %v", got)
	}
	b := NewCrossoverStrategy(StrategyConfig{Name: "B", StopLossPercent: 10}, nil)
	if got := b.StopLossPrice(100, models.SideShort); !almostEqual(got, 110) {
		t.Fatalf("short stop: got %v", got)
	}
}

func testStrategy() *CrossoverStrategy {
	return NewCrossoverStrategy(StrategyConfig{
		Name:            "A",
		SMAShortWindow:  2,
		SMALongWindow:   4,
		EMASpan:         2,
		StopLossPercent: 15,
	}, nil)
}

func TestBuySignalOnUpwardCross(t *testing.T) {
	s := testStrategy()
	history := candleSeries("btcusdt", 10, 10, 10, 9, 11)
	sig := s.ProcessCandle(history[len(history)-1], history)
	if sig == nil {
		t.Fatalf("expected BUY signal")
	}
	if sig.Action != models.ActionBuy {
		t.Fatalf("expected BUY, got %s", sig.Action)
	}
	// price 11 is above EMA, so the signal is strong.
	if sig.Strength != models.StrengthStrong {
		t.Fatalf("expected STRONG, got %s", sig.Strength)
	}
	if sig.Price != 11 {
		t.Fatalf("unexpected price %v", sig.Price)
	}
	if !sig.CandleTime.Equal(history[len(history)-1].OpenTime) {
		t.Fatalf("candle time not stamped")
	}
}

func TestSellSignalOnDownwardCross(t *testing.T) {
	s := testStrategy()
	history := candleSeries("btcusdt", 10, 10, 10, 11, 9)
	sig := s.ProcessCandle(history[len(history)-1], history)
	if sig == nil {
		t.Fatalf("expected SELL signal")
	}
	if sig.Action != models.ActionSell {
		t.Fatalf("expected SELL, got %s", sig.Action)
	}
	if sig.Strength != models.StrengthStrong {
		t.Fatalf("expected STRONG, got %s", sig.Strength)
	}
}

func TestNoSignalWithoutCross(t *testing.T) {
	s := testStrategy()
	history := candleSeries("btcusdt", 10, 10, 10, 10, 10)
	if sig := s.ProcessCandle(history[len(history)-1], history); sig != nil {
		t.Fatalf("flat history must not signal, got %+v", sig)
	}
}

func TestNoSignalOnShortHistory(t *testing.T) {
	s := testStrategy()
	history := candleSeries("btcusdt", 10)
	if sig := s.ProcessCandle(history[0], history); sig != nil {
		t.Fatalf("single candle must not signal")
	}
	if sig := s.ProcessCandle(nil, nil); sig != nil {
		t.Fatalf("empty history must not signal")
	}
}

func TestRecentSignalsBounded(t *testing.T) {
	s := NewCrossoverStrategy(StrategyConfig{
		Name:           "A",
		SMAShortWindow: 2,
		SMALongWindow:  4,
		EMASpan:        2,
		MaxSignals:     2,
	}, nil)
	history := candleSeries("btcusdt", 10, 10, 10, 9, 11)
	for i := 0; i < 3; i++ {
		if sig := s.ProcessCandle(history[len(history)-1], history); sig == nil {
			t.Fatalf("expected signal on pass %d", i)
		}
	}
	got := s.RecentSignals(0)
	if len(got) != 2 {
		t.Fatalf("buffer must cap at 2, got %d", len(got))
	}
	if got := s.RecentSignals(1); len(got) != 1 {
		t.Fatalf("limit 1 must return 1, got %d", len(got))
	}
}

func TestStrategyManagerTagsVariants(t *testing.T) {
	m := newStubMetrics()
	a := testStrategy()
	b := NewCrossoverStrategy(StrategyConfig{
		Name:            "B",
		SMAShortWindow:  2,
		SMALongWindow:   4,
		EMASpan:         2,
		StopLossPercent: 10,
	}, nil)
	mgr := NewStrategyManager(m, a, b)

	history := candleSeries("btcusdt", 10, 10, 10, 9, 11)
	signals := mgr.Evaluate(history[len(history)-1], history)
	if len(signals) != 2 {
		t.Fatalf("both variants should fire, got %d", len(signals))
	}
	if signals["A"].StopLossPercent != 15 || signals["B"].StopLossPercent != 10 {
		t.Fatalf("stop-loss percent not tagged: %+v %+v", signals["A"], signals["B"])
	}
	if signals["A"].Variant != "A" || signals["B"].Variant != "B" {
		t.Fatalf("variant not tagged")
	}
	if m.signals != 2 {
		t.Fatalf("expected 2 signal metrics, got %d", m.signals)
	}
}
