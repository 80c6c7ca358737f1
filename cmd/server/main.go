package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwmarrin/snowflake"
	_ "github.com/glebarez/go-sqlite"
	"github.com/go-redis/redis/v8"
	_ "github.com/go-sql-driver/mysql"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"rmc-erp/internal/api"
	"rmc-erp/internal/config"
	"rmc-erp/internal/events"
	"rmc-erp/internal/repository"
	"rmc-erp/internal/service"
	"rmc-erp/internal/session"
	"rmc-erp/internal/sharding"
	"rmc-erp/migrations"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

func connectDB(driver string, db config.DBConfig) (*sql.DB, error) {
	dsn := db.DSN(driver)

	var conn *sql.DB
	var err error
	for i := 0; i < 10; i++ {
		conn, err = sql.Open(driver, dsn)
		if err == nil {
			err = conn.Ping()
			if err == nil {
				logger.Info().Msgf("Connected to DB %s", db.Name)
				return conn, nil
			}
		}
		logger.Warn().Err(err).Msgf("Retry %d: failed to connect to DB %s (%s:%s)", i+1, db.Name, db.Host, db.Port)
		time.Sleep(3 * time.Second)
	}
	return nil, fmt.Errorf("failed to connect to DB %s at %s:%s after retries: %w", db.Name, db.Host, db.Port, err)
}

func rateLimiter(cfg config.AppConfig) echo.MiddlewareFunc {
	deny := func(c echo.Context, _ string, _ error) error {
		return c.JSON(http.StatusTooManyRequests, map[string]string{"message": "rate limit exceeded"})
	}
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Skipper: middleware.DefaultSkipper,
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(
			middleware.RateLimiterMemoryStoreConfig{
				Rate:      rate.Limit(cfg.RateLimit),
				Burst:     cfg.RateBurst,
				ExpiresIn: 3 * time.Minute,
			}),
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return deny(c, "", err)
		},
		DenyHandler: deny,
	})
}

func main() {
	cfg := config.Load()

	dbs := make([]*sql.DB, 0, len(cfg.Shards))
	for _, shard := range cfg.Shards {
		db, err := connectDB(cfg.DBDriver, shard)
		if err != nil {
			logger.Fatal().Err(err).Msg("Database unavailable")
		}
		defer db.Close()
		dbs = append(dbs, db)
	}
	if err := migrations.AutoMigrate(3, dbs...); err != nil {
		logger.Fatal().Err(err).Msg("Failed to migrate tables")
	}

	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
	})
	defer rdb.Close()

	node, err := snowflake.NewNode(cfg.NodeID)
	if err != nil {
		logger.Fatal().Err(err).Msg("Invalid NODE_ID")
	}

	kafkaWriter := config.NewKafkaWriter(cfg.OrderTopic)
	defer kafkaWriter.Close()
	publisher := events.NewKafkaPublisher(kafkaWriter)
	mailWriter := config.NewKafkaWriter(cfg.MailTopic)
	defer mailWriter.Close()
	feed := events.NewNotificationStore(rdb)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	kafkaReader := config.NewKafkaReader(cfg.OrderTopic, events.NotificationGroup)
	defer kafkaReader.Close()
	go events.NewConsumer(kafkaReader, feed).Start(ctx)

	router := sharding.NewShardRouter(len(dbs))
	orderRepo := repository.NewOrderRepository(dbs, router)
	paymentRepo := repository.NewPaymentRepository(dbs, router)
	userRepo := repository.NewUserRepository(dbs[sharding.PrimaryShard])

	issuer := session.NewTokenIssuer(cfg.JWTSecret, cfg.SessionTTL)
	sessions := session.NewStore(rdb, cfg.SessionTTL)
	policy, err := session.NewPolicy()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load access policy")
	}

	orderService := service.NewOrderService(orderRepo, userRepo, publisher, node)
	userService := service.NewUserService(userRepo, sessions, issuer, node)
	paymentService := service.NewPaymentService(orderRepo, userRepo, paymentRepo, rdb, publisher, node)
	qualityService := service.NewQualityService(orderRepo, userRepo)
	resetService := service.NewPasswordResetService(userRepo, session.NewResetCodes(rdb), sessions, events.NewMailOutbox(mailWriter))
	fleetService := service.NewFleetService(repository.NewFleetRepository(dbs[sharding.PrimaryShard]), orderRepo, node)

	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(rateLimiter(cfg))
	e.Use(session.JWT(issuer), session.Registry(sessions), session.RBAC(policy))

	api.RegisterRoutes(e, api.Handlers{
		Users:     api.NewUserHandler(userService, feed),
		Orders:    api.NewOrderHandler(orderService),
		Admin:     api.NewAdminHandler(orderService, userService),
		Billing:   api.NewBillingHandler(paymentService),
		Quality:   api.NewQualityHandler(qualityService),
		Passwords: api.NewPasswordHandler(resetService),
		Fleet:     api.NewFleetHandler(fleetService),
	})

	go func() {
		if err := e.Start(cfg.HTTPAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("Server stopped")
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Graceful shutdown failed")
	}
}
