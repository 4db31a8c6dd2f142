package repository

import (
	"context"

	pkgkafka "BarTrader/pkg/kafka"
	applogger "BarTrader/pkg/logger"
)

// KafkaLogPublisher ships aggregated error logs to a Kafka topic.
type KafkaLogPublisher struct {
	producer *pkgkafka.Producer
}

func NewKafkaLogPublisher(producer *pkgkafka.Producer) *KafkaLogPublisher {
	return &KafkaLogPublisher{producer: producer}
}

func (p *KafkaLogPublisher) PublishMessage(ctx context.Context, topic string, payload interface{}) error {
	return p.producer.Publish(ctx, topic, nil, payload)
}

var _ applogger.Publisher = (*KafkaLogPublisher)(nil)
