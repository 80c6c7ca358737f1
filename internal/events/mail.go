package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"
)

// Mail is one outgoing email handed to the mail relay through the outbox topic.
type Mail struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// MailOutbox queues mail on a Kafka topic drained by the mail relay.
type MailOutbox struct {
	writer MessageWriter
}

func NewMailOutbox(writer MessageWriter) *MailOutbox {
	return &MailOutbox{writer: writer}
}

func (o *MailOutbox) Send(ctx context.Context, m Mail) error {
	value, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal mail: %w", err)
	}
	if err := o.writer.WriteMessages(ctx, kafka.Message{Key: []byte(m.To), Value: value}); err != nil {
		return fmt.Errorf("queue mail for %s: %w", m.To, err)
	}
	return nil
}
