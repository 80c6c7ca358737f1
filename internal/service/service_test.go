package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/bwmarrin/snowflake"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/require"

	"rmc-erp/internal/entity"
	"rmc-erp/internal/repository"
	"rmc-erp/internal/repository/sqlitetest"
	"rmc-erp/internal/session"
	"rmc-erp/internal/sharding"
)

var base = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

type recorder struct {
	mu     sync.Mutex
	events []entity.OrderEvent
}

func (r *recorder) Publish(_ context.Context, e entity.OrderEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recorder) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Event)
	}
	return out
}

type fixture struct {
	orders   *OrderService
	users    *UserService
	payments *PaymentService
	quality  *QualityService
	fleet    *FleetService

	orderRepo   *repository.OrderRepository
	paymentRepo *repository.PaymentRepository
	userRepo    *repository.UserRepository
	sessions    *session.Store
	rdb         *redis.Client
	node        *snowflake.Node
	mr          *miniredis.Miniredis
	events      *recorder
}

func newFixture(t *testing.T) *fixture {
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

	clock := func() time.Time { return base }
	events := &recorder{}
	sessions := session.NewStore(rdb, time.Hour)

	f := &fixture{
		orders:      NewOrderService(orderRepo, userRepo, events, node),
		users:       NewUserService(userRepo, sessions, session.NewTokenIssuer("test-secret", time.Hour), node),
		payments:    NewPaymentService(orderRepo, userRepo, paymentRepo, rdb, events, node),
		quality:     NewQualityService(orderRepo, userRepo),
		fleet:       NewFleetService(repository.NewFleetRepository(dbs[sharding.PrimaryShard]), orderRepo, node),
		orderRepo:   orderRepo,
		paymentRepo: paymentRepo,
		userRepo:    userRepo,
		sessions:    sessions,
		rdb:         rdb,
		mr:          mr,
		events:      events,
	}
	f.orders.now = clock
	f.users.now = clock
	f.payments.now = clock
	f.quality.now = clock
	f.fleet.now = clock
	f.node = node
	return f
}

func (f *fixture) seedCustomer(t *testing.T, id int64, email, number string) {
	t.Helper()
	require.NoError(t, f.userRepo.CreateUser(context.Background(), &entity.User{
		ID:             id,
		Name:           "Customer",
		Email:          email,
		Number:         number,
		Role:           entity.RoleCustomer,
		ApprovalStatus: entity.ApprovalApproved,
		PasswordHash:   "x",
	}, base))
}

func (f *fixture) placeOrder(t *testing.T, userID int64) *entity.Order {
	t.Helper()
	order, err := f.orders.CreateOrder(context.Background(), CreateOrderRequest{
		UserID:       userID,
		Grade:        "M25",
		Quantity:     10,
		DeliveryDate: entity.NewDateTime(base.Add(72 * time.Hour)),
		Address:      "Plot 7, MIDC",
	})
	require.NoError(t, err)
	return order
}

// dispatchOrder approves the order and books a dispatch window from start to end.
func (f *fixture) dispatchOrder(t *testing.T, orderID string, start, end time.Time) {
	t.Helper()
	ctx := context.Background()
	_, err := f.orders.Approve(ctx, orderID, entity.RoleAdmin)
	require.NoError(t, err)
	_, err = f.orders.ScheduleDispatch(ctx, orderID, entity.DispatchSchedule{
		DispatchDateTime:    entity.NewDateTime(start),
		TripPlanning:        strPtr("single_trip"),
		DeliverySequence:    strPtr("1"),
		ExpectedArrivalTime: entity.NewDateTime(end),
	}, entity.RoleAdmin)
	require.NoError(t, err)
}

func strPtr(s string) *string {
	return &s
}
