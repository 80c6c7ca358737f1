// Package events carries order lifecycle events over Kafka and keeps the per-user
// notification feed built from them.
package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"rmc-erp/internal/entity"
)

// MessageWriter is the part of *kafka.Writer the publisher needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type KafkaPublisher struct {
	writer MessageWriter
}

func NewKafkaPublisher(writer MessageWriter) *KafkaPublisher {
	return &KafkaPublisher{writer: writer}
}

// MessageKey is "order-<event>-<orderId>". Partitioning hashes the whole key, so
// consumers must not assume ordering across event types of one order.
func MessageKey(event entity.OrderEvent) string {
	return fmt.Sprintf("order-%s-%s", event.Event, event.OrderID)
}

// Publish writes event as JSON to the order topic.
func (p *KafkaPublisher) Publish(ctx context.Context, event entity.OrderEvent) error {
	eventJSON, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", event.Event, err)
	}

	msg := kafka.Message{
		Key:   []byte(MessageKey(event)),
		Value: eventJSON,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write %s event for %s: %w", event.Event, event.OrderID, err)
	}
	return nil
}
