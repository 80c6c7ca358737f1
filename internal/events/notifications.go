package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"

	"rmc-erp/internal/entity"
)

// FeedSize caps each user's notification list.
const FeedSize = 50

// NotificationStore keeps the latest events per user as a Redis list, newest first.
type NotificationStore struct {
	rdb *redis.Client
}

func NewNotificationStore(rdb *redis.Client) *NotificationStore {
	return &NotificationStore{rdb: rdb}
}

func feedKey(userID int64) string {
	return fmt.Sprintf("notifications:%d", userID)
}

func (s *NotificationStore) Append(ctx context.Context, event entity.OrderEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	key := feedKey(event.UserID)
	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, key, payload)
		pipe.LTrim(ctx, key, 0, FeedSize-1)
		return nil
	})
	if err != nil {
		return fmt.Errorf("append notification for %d: %w", event.UserID, err)
	}
	return nil
}

// List returns the user's notifications, newest first. Entries that no longer decode
// are skipped.
func (s *NotificationStore) List(ctx context.Context, userID int64) ([]entity.OrderEvent, error) {
	raw, err := s.rdb.LRange(ctx, feedKey(userID), 0, FeedSize-1).Result()
	if err != nil {
		return nil, fmt.Errorf("list notifications for %d: %w", userID, err)
	}
	events := make([]entity.OrderEvent, 0, len(raw))
	for _, item := range raw {
		var e entity.OrderEvent
		if err := json.Unmarshal([]byte(item), &e); err != nil {
			log.Error().Msgf("Error unmarshalling notification: %v", err)
			continue
		}
		events = append(events, e)
	}
	return events, nil
}
