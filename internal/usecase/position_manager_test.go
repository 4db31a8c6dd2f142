package usecase

import (
	"context"
	"testing"

	"BarTrader/internal/domain/models"
	"BarTrader/internal/store"
)

func TestStopLossClosesLongAtBoundary(t *testing.T) {
	ps := store.NewPositionStore()
	exec := &stubExecutor{}
	pm := NewPositionManager(ps, exec, newStubMetrics(), nil)
	ctx := context.Background()

	p := pm.Open("A", "btcusdt", models.SideLong, 100, 0.001, 85)

	// Above the stop: position stays open, PnL tracks the price.
	pm.CheckStopLosses(ctx, "btcusdt", 86)
	got, _ := ps.Get(p.ID)
	if got.Status != models.PositionOpen {
		t.Fatalf("position closed above stop")
	}
	if got.PnlPercent > -13.9 || got.PnlPercent < -14.1 {
		t.Fatalf("unexpected pnl %v", got.PnlPercent)
	}

	// Exactly at the stop price: breach (price <= stop for LONG).
	pm.CheckStopLosses(ctx, "btcusdt", 85)
	got, _ = ps.Get(p.ID)
	if got.Status != models.PositionClosed {
		t.Fatalf("position should close at boundary")
	}
	if got.FinalPnl == nil || !almostEqual(*got.FinalPnl, (85-100)*0.001) {
		t.Fatalf("unexpected final pnl %+v", got.FinalPnl)
	}

	log := ps.TradeLog(0)
	if len(log) != 1 {
		t.Fatalf("expected one trade log entry, got %d", len(log))
	}
	if log[0].Side != models.ActionSell || log[0].Reason != "Stop Loss" {
		t.Fatalf("unexpected trade log %+v", log[0])
	}
}

func TestStopLossClosesShortWithBuy(t *testing.T) {
	ps := store.NewPositionStore()
	exec := &stubExecutor{}
	pm := NewPositionManager(ps, exec, newStubMetrics(), nil)
	ctx := context.Background()

	p := pm.Open("B", "ethusdt", models.SideShort, 100, 0.001, 110)

	pm.CheckStopLosses(ctx, "ethusdt", 110)
	got, _ := ps.Get(p.ID)
	if got.Status != models.PositionClosed {
		t.Fatalf("short should close at stop")
	}
	log := ps.TradeLog(0)
	if len(log) != 1 || log[0].Side != models.ActionBuy {
		t.Fatalf("short close must be a BUY, got %+v", log)
	}
	if got.FinalPnl == nil || !almostEqual(*got.FinalPnl, -(110-100)*0.001) {
		t.Fatalf("unexpected short pnl %+v", got.FinalPnl)
	}
}

func TestFailedCloseKeepsPositionOpen(t *testing.T) {
	ps := store.NewPositionStore()
	exec := &stubExecutor{}
	m := newStubMetrics()
	pm := NewPositionManager(ps, exec, m, nil)
	ctx := context.Background()

	p := pm.Open("A", "btcusdt", models.SideLong, 100, 0.001, 85)

	exec.setFail(true)
	pm.CheckStopLosses(ctx, "btcusdt", 80)
	got, _ := ps.Get(p.ID)
	if got.Status != models.PositionOpen {
		t.Fatalf("failed close order must leave position open")
	}
	if m.errors["stop_loss_close"] != 1 {
		t.Fatalf("close failure not recorded")
	}

	// Next scan retries and succeeds.
	exec.setFail(false)
	pm.CheckStopLosses(ctx, "btcusdt", 80)
	got, _ = ps.Get(p.ID)
	if got.Status != models.PositionClosed {
		t.Fatalf("retry scan should close the position")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	ps := store.NewPositionStore()
	exec := &stubExecutor{}
	pm := NewPositionManager(ps, exec, newStubMetrics(), nil)
	ctx := context.Background()

	p := pm.Open("A", "btcusdt", models.SideLong, 100, 0.001, 85)

	if err := pm.ClosePosition(ctx, p, 90, "Manual"); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := pm.ClosePosition(ctx, p, 50, "Manual"); err != nil {
		t.Fatalf("second close: %v", err)
	}

	got, _ := ps.Get(p.ID)
	if got.ClosePrice == nil || *got.ClosePrice != 90 {
		t.Fatalf("second close must not overwrite, got %+v", got.ClosePrice)
	}
}

func TestOpenGaugeResetsWhenLastPositionCloses(t *testing.T) {
	ps := store.NewPositionStore()
	exec := &stubExecutor{}
	m := newStubMetrics()
	pm := NewPositionManager(ps, exec, m, nil)
	ctx := context.Background()

	pm.Open("A", "btcusdt", models.SideLong, 100, 0.001, 85)
	if n, ok := m.openGauge("A"); !ok || n != 1 {
		t.Fatalf("expected gauge A=1, got %d (%v)", n, ok)
	}

	pm.CheckStopLosses(ctx, "btcusdt", 85)
	if n, ok := m.openGauge("A"); !ok || n != 0 {
		t.Fatalf("gauge must reset to 0 after last close, got %d (%v)", n, ok)
	}
}

func TestStopLossScanIgnoresOtherSymbols(t *testing.T) {
	ps := store.NewPositionStore()
	exec := &stubExecutor{}
	pm := NewPositionManager(ps, exec, newStubMetrics(), nil)
	ctx := context.Background()

	p := pm.Open("A", "btcusdt", models.SideLong, 100, 0.001, 85)

	pm.CheckStopLosses(ctx, "ethusdt", 1)
	got, _ := ps.Get(p.ID)
	if got.Status != models.PositionOpen {
		t.Fatalf("other-symbol tick must not close position")
	}
}
