package middleware

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"BarTrader/internal/domain/models"
)

type pipeMetrics struct {
	mu     sync.Mutex
	errors map[string]int
}

func newPipeMetrics() *pipeMetrics { return &pipeMetrics{errors: make(map[string]int)} }

func (m *pipeMetrics) RecordTick(string)               {}
func (m *pipeMetrics) RecordCandleFinalized(string)    {}
func (m *pipeMetrics) RecordSignal(string, string)     {}
func (m *pipeMetrics) RecordOrder(string, string)      {}
func (m *pipeMetrics) RecordOpenPositions(string, int) {}
func (m *pipeMetrics) RecordLastPrice(string, float64) {}
func (m *pipeMetrics) RecordError(kind string) {
	m.mu.Lock()
	m.errors[kind]++
	m.mu.Unlock()
}
func (m *pipeMetrics) RecordLatency(string, float64) {}

func (m *pipeMetrics) count(kind string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errors[kind]
}

type fakeProcessor struct {
	mu    sync.Mutex
	fail  bool
	ticks []*models.Tick
}

func (f *fakeProcessor) OnTick(_ context.Context, t *models.Tick) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return fmt.Errorf("downstream busy")
	}
	f.ticks = append(f.ticks, t)
	return nil
}

func (f *fakeProcessor) setFail(fail bool) {
	f.mu.Lock()
	f.fail = fail
	f.mu.Unlock()
}

func (f *fakeProcessor) received() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.ticks)
}

func validTick(symbol string) *models.Tick {
	return &models.Tick{Symbol: symbol, Price: 100, Quantity: 1, Timestamp: time.Now().UTC()}
}

func TestPipelineRejectsInvalidTicks(t *testing.T) {
	proc := &fakeProcessor{}
	m := newPipeMetrics()
	p := NewTickPipeline(proc, m)
	ctx := context.Background()

	cases := []*models.Tick{
		nil,
		{Price: 100, Quantity: 1, Timestamp: time.Now()},
		{Symbol: "btcusdt", Price: 100, Quantity: 1},
		{Symbol: "btcusdt", Price: 0, Quantity: 1, Timestamp: time.Now()},
		{Symbol: "btcusdt", Price: 100, Quantity: -1, Timestamp: time.Now()},
	}
	for i, tc := range cases {
		if err := p.Process(ctx, tc); err == nil {
			t.Fatalf("case %d: expected validation error", i)
		}
	}
	if proc.received() != 0 {
		t.Fatalf("invalid ticks must not reach downstream")
	}
	if m.count("pipeline_validate") != len(cases) {
		t.Fatalf("validation errors not recorded: %d", m.count("pipeline_validate"))
	}
}

func TestPipelineForwardsValidTick(t *testing.T) {
	proc := &fakeProcessor{}
	p := NewTickPipeline(proc, newPipeMetrics())

	if err := p.Process(context.Background(), validTick("btcusdt")); err != nil {
		t.Fatalf("process: %v", err)
	}
	if proc.received() != 1 {
		t.Fatalf("expected 1 forwarded tick, got %d", proc.received())
	}
}

func TestPipelineThrottlesPerSymbol(t *testing.T) {
	proc := &fakeProcessor{}
	m := newPipeMetrics()
	p := NewTickPipeline(proc, m, WithMaxRPS(1))
	ctx := context.Background()

	if err := p.Process(ctx, validTick("btcusdt")); err != nil {
		t.Fatalf("first tick: %v", err)
	}
	// Second tick inside the same second is dropped, not an error.
	if err := p.Process(ctx, validTick("btcusdt")); err != nil {
		t.Fatalf("throttled tick must not error: %v", err)
	}
	// Another symbol has its own budget.
	if err := p.Process(ctx, validTick("ethusdt")); err != nil {
		t.Fatalf("other symbol: %v", err)
	}

	if proc.received() != 2 {
		t.Fatalf("expected 2 forwarded ticks, got %d", proc.received())
	}
	if m.count("pipeline_throttle") != 1 {
		t.Fatalf("throttle not recorded: %d", m.count("pipeline_throttle"))
	}
}

func TestPipelineBuffersAndFlushesOnRecovery(t *testing.T) {
	proc := &fakeProcessor{}
	m := newPipeMetrics()
	p := NewTickPipeline(proc, m, WithBufferSize(8))
	ctx := context.Background()

	proc.setFail(true)
	if err := p.Process(ctx, validTick("btcusdt")); err == nil {
		t.Fatalf("downstream failure must surface")
	}
	if m.count("pipeline_process") != 1 {
		t.Fatalf("downstream failure not recorded")
	}

	// Downstream recovers; the flusher drains the buffered tick.
	proc.setFail(false)
	p.Start(ctx)
	defer p.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for proc.received() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("buffered tick never flushed")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestPipelineStartStopIdempotent(t *testing.T) {
	p := NewTickPipeline(&fakeProcessor{}, newPipeMetrics())
	ctx := context.Background()

	p.Start(ctx)
	p.Start(ctx) // second start is a no-op
	p.Stop()
	p.Stop() // second stop must not panic
}
