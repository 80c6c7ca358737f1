// Package apitest runs the full HTTP stack in-process on SQLite and miniredis for
// handler, client and console tests.
package apitest

import (
	"context"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/bwmarrin/snowflake"
	"github.com/go-redis/redis/v8"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"rmc-erp/internal/api"
	"rmc-erp/internal/entity"
	"rmc-erp/internal/events"
	"rmc-erp/internal/repository"
	"rmc-erp/internal/repository/sqlitetest"
	"rmc-erp/internal/service"
	"rmc-erp/internal/session"
	"rmc-erp/internal/sharding"
)

// Recorder is an in-memory event publisher that also feeds the notification store,
// standing in for Kafka and the consumer.
type Recorder struct {
	mu     sync.Mutex
	feed   *events.NotificationStore
	Events []entity.OrderEvent
}

func (r *Recorder) Publish(ctx context.Context, e entity.OrderEvent) error {
	r.mu.Lock()
	r.Events = append(r.Events, e)
	r.mu.Unlock()
	return r.feed.Append(ctx, e)
}

// Names lists the published event names in order.
func (r *Recorder) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.Events))
	for _, e := range r.Events {
		names = append(names, e.Event)
	}
	return names
}

// Outbox collects mail instead of handing it to Kafka.
type Outbox struct {
	mu   sync.Mutex
	Sent []events.Mail
}

func (o *Outbox) Send(_ context.Context, m events.Mail) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.Sent = append(o.Sent, m)
	return nil
}

// Last returns the most recent mail to addr.
func (o *Outbox) Last(addr string) (events.Mail, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i := len(o.Sent) - 1; i >= 0; i-- {
		if o.Sent[i].To == addr {
			return o.Sent[i], true
		}
	}
	return events.Mail{}, false
}

type App struct {
	Echo   *echo.Echo
	Server *httptest.Server
	Redis  *miniredis.Miniredis
	Users  *repository.UserRepository
	Events *Recorder
	Mail   *Outbox
}

// New builds the app behind the same security chain as the server binary and serves
// it on an httptest server closed at test cleanup.
func New(t testing.TB) *App {
	t.Helper()
	dbs := sqlitetest.Open(t, 2)
	router := sharding.NewShardRouter(len(dbs))
	orderRepo := repository.NewOrderRepository(dbs, router)
	paymentRepo := repository.NewPaymentRepository(dbs, router)
	userRepo := repository.NewUserRepository(dbs[sharding.PrimaryShard])

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	feed := events.NewNotificationStore(rdb)
	recorder := &Recorder{feed: feed}
	issuer := session.NewTokenIssuer("apitest-secret", time.Hour)
	store := session.NewStore(rdb, time.Hour)
	policy, err := session.NewPolicy()
	require.NoError(t, err)

	orderService := service.NewOrderService(orderRepo, userRepo, recorder, node)
	userService := service.NewUserService(userRepo, store, issuer, node)
	paymentService := service.NewPaymentService(orderRepo, userRepo, paymentRepo, rdb, recorder, node)
	qualityService := service.NewQualityService(orderRepo, userRepo)
	outbox := &Outbox{}
	resetService := service.NewPasswordResetService(userRepo, session.NewResetCodes(rdb), store, outbox)
	fleetService := service.NewFleetService(repository.NewFleetRepository(dbs[sharding.PrimaryShard]), orderRepo, node)

	e := echo.New()
	e.HideBanner = true
	e.Use(session.JWT(issuer), session.Registry(store), session.RBAC(policy))
	api.RegisterRoutes(e, api.Handlers{
		Users:     api.NewUserHandler(userService, feed),
		Orders:    api.NewOrderHandler(orderService),
		Admin:     api.NewAdminHandler(orderService, userService),
		Billing:   api.NewBillingHandler(paymentService),
		Quality:   api.NewQualityHandler(qualityService),
		Passwords: api.NewPasswordHandler(resetService),
		Fleet:     api.NewFleetHandler(fleetService),
	})

	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)

	return &App{Echo: e, Server: srv, Redis: mr, Users: userRepo, Events: recorder, Mail: outbox}
}

// SeedAdmin stores an approved admin that can log in with password.
func (a *App) SeedAdmin(t testing.TB, id int64, email, password string) entity.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	u := entity.User{
		ID:             id,
		Name:           "Plant Admin",
		Email:          email,
		Role:           entity.RoleAdmin,
		ApprovalStatus: entity.ApprovalApproved,
		PasswordHash:   string(hash),
	}
	require.NoError(t, a.Users.CreateUser(context.Background(), &u, time.Now()))
	return u
}
