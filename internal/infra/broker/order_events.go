package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"storefront/internal/domain/model"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type KafkaOrderEventPublisher struct {
	writer *kafka.Writer
	log    *zap.Logger
}

func NewKafkaOrderEventPublisher(brokers []string, topic string, log *zap.Logger) *KafkaOrderEventPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		MaxAttempts:  3,
		WriteTimeout: 10 * time.Second,
		ReadTimeout:  10 * time.Second,
	}
	return &KafkaOrderEventPublisher{writer: writer, log: log}
}

// 同じ注文のイベントは同じパーティションに入る（keyは注文ID）
func (p *KafkaOrderEventPublisher) PublishOrderEvent(ctx context.Context, ev model.OrderEvent) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal order event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(ev.OrderID),
		Value: b,
		Time:  ev.OccurredAt,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write order event to kafka: %w", err)
	}

	p.log.Debug("order event published",
		zap.String("type", string(ev.Type)),
		zap.String("order_id", ev.OrderID),
	)
	return nil
}

func (p *KafkaOrderEventPublisher) Close() error {
	return p.writer.Close()
}

// Kafka未設定時用
type NoopOrderEventPublisher struct{}

func (NoopOrderEventPublisher) PublishOrderEvent(context.Context, model.OrderEvent) error { return nil }
