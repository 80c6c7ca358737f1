package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// Store is the server-side session registry. Each user has at most one live token;
// logging in again replaces it.
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	return &Store{rdb: rdb, ttl: ttl}
}

func sessionKey(userID int64) string {
	return fmt.Sprintf("session:%d", userID)
}

func (s *Store) Save(ctx context.Context, userID int64, token string) error {
	if err := s.rdb.Set(ctx, sessionKey(userID), token, s.ttl).Err(); err != nil {
		return fmt.Errorf("save session %d: %w", userID, err)
	}
	return nil
}

// Validate reports whether token is the live token of userID.
func (s *Store) Validate(ctx context.Context, userID int64, token string) (bool, error) {
	stored, err := s.rdb.Get(ctx, sessionKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load session %d: %w", userID, err)
	}
	return stored == token, nil
}

func (s *Store) Revoke(ctx context.Context, userID int64) error {
	if err := s.rdb.Del(ctx, sessionKey(userID)).Err(); err != nil {
		return fmt.Errorf("revoke session %d: %w", userID, err)
	}
	return nil
}
