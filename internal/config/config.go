package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

// DBConfig addresses one database shard.
type DBConfig struct {
	Host string
	Port string
	User string
	Pass string
	Name string
}

type AppConfig struct {
	Env        string
	HTTPAddr   string
	DBDriver   string
	Shards     []DBConfig
	RedisAddr  string
	OrderTopic string
	MailTopic  string
	JWTSecret  string
	SessionTTL time.Duration
	NodeID     int64
	RateLimit  float64
	RateBurst  int
}

func get(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getInt(k string, def int) int {
	v, err := strconv.Atoi(get(k, ""))
	if err != nil {
		return def
	}
	return v
}

// Load reads .env when present and then the process environment.
func Load() AppConfig {
	if err := godotenv.Load(); err != nil {
		logger.Info().Msgf("No .env file loaded: %v", err)
	}

	shardCount := getInt("SHARD_COUNT", 3)
	if shardCount < 1 {
		shardCount = 1
	}
	shards := make([]DBConfig, 0, shardCount)
	for i := 1; i <= shardCount; i++ {
		prefix := fmt.Sprintf("DB%d_", i)
		shards = append(shards, DBConfig{
			Host: get(prefix+"HOST", "localhost"),
			Port: get(prefix+"PORT", "3306"),
			User: get(prefix+"USER", "root"),
			Pass: get(prefix+"PASS", ""),
			Name: get(prefix+"NAME", fmt.Sprintf("rmc_erp_%d", i)),
		})
	}

	ttl, err := time.ParseDuration(get("SESSION_TTL", "24h"))
	if err != nil {
		ttl = 24 * time.Hour
	}
	rateLimit, err := strconv.ParseFloat(get("RATE_LIMIT", "10"), 64)
	if err != nil {
		rateLimit = 10
	}

	cfg := AppConfig{
		Env:        get("ENV", "development"),
		HTTPAddr:   get("HTTP_ADDR", ":8080"),
		DBDriver:   get("DB_DRIVER", "mysql"),
		Shards:     shards,
		RedisAddr:  get("REDIS_ADDR", "localhost:6379"),
		OrderTopic: get("ORDER_TOPIC", "order-topic"),
		MailTopic:  get("MAIL_TOPIC", "mail-outbox"),
		JWTSecret:  get("JWT_SECRET", "secret"),
		SessionTTL: ttl,
		NodeID:     int64(getInt("NODE_ID", 1)),
		RateLimit:  rateLimit,
		RateBurst:  getInt("RATE_BURST", 20),
	}
	logger.Info().
		Str("env", cfg.Env).
		Str("addr", cfg.HTTPAddr).
		Str("driver", cfg.DBDriver).
		Int("shards", len(cfg.Shards)).
		Msg("Configuration loaded")
	return cfg
}

// DSN renders the connection string for driver.
func (c DBConfig) DSN(driver string) string {
	if driver == "sqlite" {
		return c.Name
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true&clientFoundRows=true", c.User, c.Pass, c.Host, c.Port, c.Name)
}
