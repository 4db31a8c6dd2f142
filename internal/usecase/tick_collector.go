package usecase

import (
	"context"
	"time"

	"BarTrader/internal/domain/models"
	drepo "BarTrader/internal/domain/repository"
	mid "BarTrader/internal/middleware"
)

// TickCollector reads ticks from the market stream and feeds the pipeline.
type TickCollector struct {
	stream  drepo.MarketStream
	pipe    *mid.TickPipeline
	orch    *Orchestrator
	metrics drepo.Metrics
}

// NewTickCollector creates a new TickCollector instance.
func NewTickCollector(stream drepo.MarketStream, pipe *mid.TickPipeline, orch *Orchestrator, metrics drepo.Metrics) *TickCollector {
	return &TickCollector{stream: stream, pipe: pipe, orch: orch, metrics: metrics}
}

// IsConnected returns true if the market stream is connected.
func (c *TickCollector) IsConnected() bool {
	return c.stream.IsConnected()
}

func (c *TickCollector) Start(ctx context.Context) error {
	if err := c.stream.Connect(ctx); err != nil {
		return err
	}
	if err := c.stream.Subscribe(ctx, nil); err != nil {
		return err
	}
	if c.pipe != nil {
		c.pipe.Start(ctx)
	}
	tickCh, errCh := c.stream.Read(ctx)
	go c.consume(ctx, tickCh, errCh)
	return nil
}

func (c *TickCollector) consume(ctx context.Context, tickCh <-chan *models.Tick, errCh <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-errCh:
			if !ok || err != nil {
				if err != nil {
					c.metrics.RecordError("stream")
				}
				if !c.reconnect(ctx) {
					return
				}
				tickCh, errCh = c.stream.Read(ctx)
			}
		case t, ok := <-tickCh:
			if !ok {
				if !c.reconnect(ctx) {
					return
				}
				tickCh, errCh = c.stream.Read(ctx)
				continue
			}
			if t == nil {
				continue
			}
			if c.pipe != nil {
				_ = c.pipe.Process(ctx, t)
			} else {
				_ = c.orch.OnTick(ctx, t)
			}
		}
	}
}

// reconnect retries until the stream comes back or ctx is cancelled.
func (c *TickCollector) reconnect(ctx context.Context) bool {
	for {
		if ctx.Err() != nil {
			return false
		}
		if err := c.stream.Reconnect(ctx); err == nil {
			return true
		}
		c.metrics.RecordError("stream_reconnect")
		select {
		case <-ctx.Done():
			return false
		case <-time.After(time.Second):
		}
	}
}

// Shutdown stops the pipeline and closes the stream.
func (c *TickCollector) Shutdown(ctx context.Context) error {
	if c.pipe != nil {
		c.pipe.Stop()
	}
	return c.stream.Close()
}
