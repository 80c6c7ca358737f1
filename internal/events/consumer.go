package events

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"rmc-erp/internal/entity"
)

// NotificationGroup is the consumer group that feeds user notifications.
const NotificationGroup = "notification-group"

// MessageReader is the part of *kafka.Reader the consumer needs.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

type Consumer struct {
	reader MessageReader
	feed   *NotificationStore

	// Read errors back off from minBackoff, doubling up to maxBackoff.
	minBackoff time.Duration
	maxBackoff time.Duration
}

func NewConsumer(reader MessageReader, feed *NotificationStore) *Consumer {
	return &Consumer{reader: reader, feed: feed, minBackoff: 250 * time.Millisecond, maxBackoff: 10 * time.Second}
}

// Start reads order events until ctx is cancelled.
func (c *Consumer) Start(ctx context.Context) {
	delay := c.minBackoff
	for {
		// Read message from order topic
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return
			}
			log.Error().Dur("retry_in", delay).Msgf("Error reading message: %v", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
			}
			if delay *= 2; delay > c.maxBackoff {
				delay = c.maxBackoff
			}
			continue
		}
		delay = c.minBackoff

		c.processMessage(ctx, msg)
	}
}

// processMessage appends the event to its owner's notification feed.
func (c *Consumer) processMessage(ctx context.Context, msg kafka.Message) {
	var event entity.OrderEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		log.Error().Msgf("Error unmarshalling message %s: %v", string(msg.Key), err)
		return
	}
	if event.UserID == 0 || event.Message == "" {
		log.Error().Msgf("Skipping event without owner or message: %s", string(msg.Key))
		return
	}
	if err := c.feed.Append(ctx, event); err != nil {
		log.Error().Msgf("Error storing notification for order %s: %v", event.OrderID, err)
	}
}
