package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("SHARD_COUNT", "2")
	t.Setenv("DB2_HOST", "db-two")
	t.Setenv("DB2_NAME", "orders_b")
	t.Setenv("SESSION_TTL", "90m")
	t.Setenv("RATE_BURST", "5")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")

	cfg := Load()
	require.Len(t, cfg.Shards, 2)
	require.Equal(t, "localhost", cfg.Shards[0].Host)
	require.Equal(t, "db-two", cfg.Shards[1].Host)
	require.Equal(t, 90*time.Minute, cfg.SessionTTL)
	require.Equal(t, 5, cfg.RateBurst)
	require.Equal(t, "order-topic", cfg.OrderTopic)
	require.Equal(t, "mail-outbox", cfg.MailTopic)
	require.Equal(t, []string{"k1:9092", "k2:9092"}, getKafkaBrokerURLs())

	require.Equal(t, "root:@tcp(db-two:3306)/orders_b?parseTime=true&clientFoundRows=true", cfg.Shards[1].DSN("mysql"))
	require.Equal(t, "orders_b", cfg.Shards[1].DSN("sqlite"))
}

func TestLoadFallsBackOnBadValues(t *testing.T) {
	t.Setenv("SHARD_COUNT", "0")
	t.Setenv("SESSION_TTL", "forever")
	t.Setenv("RATE_LIMIT", "fast")

	cfg := Load()
	require.Len(t, cfg.Shards, 1)
	require.Equal(t, 24*time.Hour, cfg.SessionTTL)
	require.Equal(t, 10.0, cfg.RateLimit)
}
