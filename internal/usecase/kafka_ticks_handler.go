package usecase

import (
	"context"
	"encoding/json"
	"time"

	"BarTrader/internal/domain/models"
	domrepo "BarTrader/internal/domain/repository"
	mid "BarTrader/internal/middleware"
	pkgkafka "BarTrader/pkg/kafka"
)

// KafkaTicksHandler consumes tick messages from Kafka and feeds the pipeline.
type KafkaTicksHandler struct {
	topic   string
	pipe    *mid.TickPipeline
	metrics domrepo.Metrics
}

func NewKafkaTicksHandler(topic string, pipe *mid.TickPipeline, metrics domrepo.Metrics) *KafkaTicksHandler {
	return &KafkaTicksHandler{topic: topic, pipe: pipe, metrics: metrics}
}

func (h *KafkaTicksHandler) Topic() string { return h.topic }

// incoming message schema: {symbol, p, q, t}
func (h *KafkaTicksHandler) Handle(ctx context.Context, b []byte) error {
	var m struct {
		Symbol string  `json:"symbol"`
		P      float64 `json:"p"`
		Q      float64 `json:"q"`
		T      int64   `json:"t"`
	}
	if err := json.Unmarshal(b, &m); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}
	var ts time.Time
	if m.T > 1e11 { // ms
		ts = time.UnixMilli(m.T).UTC()
	} else {
		ts = time.Unix(m.T, 0).UTC()
	}
	// E2E latency from event time to now (approx)
	h.metrics.RecordLatency("ingest_e2e_seconds", time.Since(ts).Seconds())

	return h.pipe.Process(ctx, &models.Tick{
		Symbol:     m.Symbol,
		Price:      m.P,
		Quantity:   m.Q,
		Timestamp:  ts,
		ReceivedAt: time.Now().UTC(),
	})
}

var _ pkgkafka.MessageHandler = (*KafkaTicksHandler)(nil)
