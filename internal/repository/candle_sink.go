package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"BarTrader/internal/domain/models"
	domrepo "BarTrader/internal/domain/repository"
	pkgkafka "BarTrader/pkg/kafka"
	applogger "BarTrader/pkg/logger"
)

// CandleSchema is the DDL applied at startup (idempotent).
var CandleSchema = []string{
	`CREATE TABLE IF NOT EXISTS candles (
		symbol      LowCardinality(String),
		open_time   DateTime64(3, 'UTC'),
		close_time  DateTime64(3, 'UTC'),
		open        Float64,
		high        Float64,
		low         Float64,
		close       Float64,
		volume      Float64,
		tick_count  UInt32
	) ENGINE = ReplacingMergeTree
	ORDER BY (symbol, open_time)`,
}

const sinkQueueSize = 256

// candleQueue decouples slow sink writes from the finalize callback, which
// runs on the tick ingestion path. Enqueue never blocks; a full queue drops
// the candle and logs it.
type candleQueue struct {
	name   string
	logger *applogger.Logger
	write  func(ctx context.Context, c *models.Candle)

	ch   chan *models.Candle
	done chan struct{}
	once sync.Once
}

func newCandleQueue(name string, size int, logger *applogger.Logger, write func(context.Context, *models.Candle)) *candleQueue {
	if size <= 0 {
		size = sinkQueueSize
	}
	q := &candleQueue{
		name:   name,
		logger: logger,
		write:  write,
		ch:     make(chan *models.Candle, size),
		done:   make(chan struct{}),
	}
	go q.drain()
	return q
}

func (q *candleQueue) enqueue(c *models.Candle) {
	select {
	case q.ch <- c:
	default:
		if q.logger != nil {
			q.logger.Warn("candle sink queue full, dropping",
				applogger.String("sink", q.name),
				applogger.String("symbol", c.Symbol))
		}
	}
}

func (q *candleQueue) drain() {
	defer close(q.done)
	for c := range q.ch {
		q.write(context.Background(), c)
	}
}

// close flushes queued candles and stops the writer goroutine.
func (q *candleQueue) close() {
	q.once.Do(func() { close(q.ch) })
	<-q.done
}

// ClickHouseCandleSink persists finalized candles to ClickHouse.
type ClickHouseCandleSink struct {
	db     *sql.DB
	table  string
	logger *applogger.Logger
	queue  *candleQueue
}

// NewClickHouseCandleSink creates a ClickHouse candle sink.
func NewClickHouseCandleSink(db *sql.DB, table string, logger *applogger.Logger) *ClickHouseCandleSink {
	if table == "" {
		table = "candles"
	}
	s := &ClickHouseCandleSink{db: db, table: table, logger: logger}
	s.queue = newCandleQueue("clickhouse", sinkQueueSize, logger, s.insert)
	return s
}

func (s *ClickHouseCandleSink) OnCandleFinalized(_ context.Context, c *models.Candle) {
	s.queue.enqueue(c)
}

func (s *ClickHouseCandleSink) insert(ctx context.Context, c *models.Candle) {
	q := fmt.Sprintf(
		"INSERT INTO %s (symbol, open_time, close_time, open, high, low, close, volume, tick_count) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		s.table)
	_, err := s.db.ExecContext(ctx, q,
		c.Symbol,
		c.OpenTime,
		c.CloseTime,
		c.Open,
		c.High,
		c.Low,
		c.Close,
		c.Volume,
		uint32(c.TickCount),
	)
	if err != nil && s.logger != nil {
		s.logger.Error("candle insert failed",
			applogger.String("symbol", c.Symbol),
			applogger.Error(err))
	}
}

func (s *ClickHouseCandleSink) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close flushes pending inserts. The *sql.DB itself is owned by the caller.
func (s *ClickHouseCandleSink) Close() error {
	s.queue.close()
	return nil
}

// KafkaCandleSink publishes finalized candles to a Kafka topic, keyed by
// symbol so per-symbol ordering is preserved.
type KafkaCandleSink struct {
	producer *pkgkafka.Producer
	topic    string
	logger   *applogger.Logger
	queue    *candleQueue
}

// NewKafkaCandleSink creates a Kafka candle sink.
func NewKafkaCandleSink(producer *pkgkafka.Producer, topic string, logger *applogger.Logger) *KafkaCandleSink {
	s := &KafkaCandleSink{producer: producer, topic: topic, logger: logger}
	s.queue = newCandleQueue("kafka", sinkQueueSize, logger, s.publish)
	return s
}

func (s *KafkaCandleSink) OnCandleFinalized(_ context.Context, c *models.Candle) {
	s.queue.enqueue(c)
}

func (s *KafkaCandleSink) publish(ctx context.Context, c *models.Candle) {
	err := s.producer.Publish(ctx, s.topic, []byte(c.Symbol), map[string]interface{}{
		"symbol":     c.Symbol,
		"open_time":  c.OpenTime.UnixMilli(),
		"close_time": c.CloseTime.UnixMilli(),
		"open":       c.Open,
		"high":       c.High,
		"low":        c.Low,
		"close":      c.Close,
		"volume":     c.Volume,
		"tick_count": c.TickCount,
	})
	if err != nil && s.logger != nil {
		s.logger.Error("candle publish failed",
			applogger.String("symbol", c.Symbol),
			applogger.Error(err))
	}
}

// Close flushes pending publishes. The producer itself is owned by the caller.
func (s *KafkaCandleSink) Close() error {
	s.queue.close()
	return nil
}

var (
	_ domrepo.CandleSink = (*ClickHouseCandleSink)(nil)
	_ domrepo.CandleSink = (*KafkaCandleSink)(nil)
)
