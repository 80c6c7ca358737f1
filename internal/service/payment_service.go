package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"rmc-erp/internal/apperr"
	"rmc-erp/internal/billing"
	"rmc-erp/internal/entity"
)

const (
	idempotencyTTL = 24 * time.Hour
	paymentLockTTL = 10 * time.Second
)

// PaymentService serves billing statements and appends to the payment ledger.
type PaymentService struct {
	orders    OrderStore
	users     UserStore
	payments  PaymentStore
	rdb       *redis.Client
	publisher EventPublisher
	ids       *snowflake.Node
	now       func() time.Time
}

func NewPaymentService(orders OrderStore, users UserStore, payments PaymentStore, rdb *redis.Client, publisher EventPublisher, ids *snowflake.Node) *PaymentService {
	return &PaymentService{
		orders:    orders,
		users:     users,
		payments:  payments,
		rdb:       rdb,
		publisher: publisher,
		ids:       ids,
		now:       time.Now,
	}
}

// ownedOrder loads orderID and hides orders that belong to someone else.
func (s *PaymentService) ownedOrder(ctx context.Context, userID int64, orderID string) (*entity.Order, error) {
	order, err := s.orders.GetOrderByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, apperr.ErrOrderNotFound
	}
	return order, nil
}

// Statements lists a billing summary for each of the user's orders, newest first.
func (s *PaymentService) Statements(ctx context.Context, userID int64) ([]billing.Summary, error) {
	orders, err := s.orders.ListOrdersByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	ledger, err := s.payments.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	summaries := make([]billing.Summary, 0, len(orders))
	for _, o := range orders {
		summaries = append(summaries, billing.Summarize(o, ledger, now))
	}
	return summaries, nil
}

func (s *PaymentService) Statement(ctx context.Context, userID int64, orderID string) (billing.Summary, error) {
	order, err := s.ownedOrder(ctx, userID, orderID)
	if err != nil {
		return billing.Summary{}, err
	}
	ledger, err := s.payments.ListByOrder(ctx, orderID)
	if err != nil {
		return billing.Summary{}, err
	}
	return billing.Summarize(*order, ledger, s.now()), nil
}

// PaymentRequest is a customer payment against one order.
type PaymentRequest struct {
	UserID         int64
	OrderID        string
	Amount         float64
	Method         string
	IdempotencyKey string
}

// PaymentResult is the stored ledger entry and the statement after it was applied.
// Replayed is set when the key had already been used and nothing new was recorded.
type PaymentResult struct {
	Payment  entity.PaymentRecord
	Summary  billing.Summary
	Replayed bool
}

func idempotencyKey(userID int64, key string) string {
	return fmt.Sprintf("idempotent-key:%d:%s", userID, key)
}

func paymentLockKey(orderID string) string {
	return "payment-lock:" + orderID
}

// releaseLock deletes the lock only while it still holds our token.
var releaseLock = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

var errKeyReused = apperr.Validation("Idempotent-Key already used for another order")

// RecordPayment appends a payment. Retrying with the same idempotency key returns
// the original payment instead of charging twice.
func (s *PaymentService) RecordPayment(ctx context.Context, req PaymentRequest) (*PaymentResult, error) {
	key := strings.TrimSpace(req.IdempotencyKey)
	if key == "" {
		return nil, apperr.Validation("Idempotent-Key header is required")
	}

	order, err := s.ownedOrder(ctx, req.UserID, req.OrderID)
	if err != nil {
		return nil, err
	}

	// check if the key exists in the redis cache
	redisKey := idempotencyKey(req.UserID, key)
	used, err := s.rdb.Get(ctx, redisKey).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		logger.Error().Err(err).Msgf("Error getting idempotent key %s", key)
		return nil, err
	}
	if err == nil && used != order.OrderID {
		return nil, errKeyReused
	}

	lockKey, token := paymentLockKey(order.OrderID), uuid.NewString()
	locked, err := s.rdb.SetNX(ctx, lockKey, token, paymentLockTTL).Result()
	if err != nil {
		return nil, fmt.Errorf("lock payments for %s: %w", order.OrderID, err)
	}
	if !locked {
		return nil, &apperr.ConflictError{Message: "Another payment for this order is in progress", ConflictOrderID: order.OrderID}
	}
	defer func() {
		if err := releaseLock.Run(context.Background(), s.rdb, []string{lockKey}, token).Err(); err != nil {
			logger.Error().Err(err).Msgf("Error releasing payment lock for order %s", order.OrderID)
		}
	}()

	ledger, err := s.payments.ListByOrder(ctx, order.OrderID)
	if err != nil {
		return nil, err
	}
	now := s.now()

	// The redis entry expires; the ledger remembers the key for good.
	previous, err := s.payments.FindByIdempotencyKey(ctx, req.UserID, key)
	switch {
	case err == nil && previous.OrderID != order.OrderID:
		return nil, errKeyReused
	case err == nil:
		return &PaymentResult{
			Payment:  *previous,
			Summary:  billing.Summarize(*order, ledger, now),
			Replayed: true,
		}, nil
	case !errors.Is(err, apperr.ErrNotFound):
		return nil, err
	}

	summary := billing.Summarize(*order, ledger, now)
	payment, err := billing.RecordPayment(summary, req.Amount, req.Method, now)
	if err != nil {
		return nil, err
	}
	payment.ID = s.ids.Generate().Int64()
	payment.UserID = req.UserID
	payment.IdempotencyKey = key

	if err := s.payments.CreatePayment(ctx, &payment); errors.Is(err, apperr.ErrDuplicate) {
		return nil, errKeyReused
	} else if err != nil {
		logger.Error().Err(err).Msgf("Error recording payment for order %s", order.OrderID)
		return nil, err
	}
	if err := s.rdb.Set(ctx, redisKey, order.OrderID, idempotencyTTL).Err(); err != nil {
		// The ledger row carries the key too, so a retry still replays.
		logger.Error().Err(err).Msgf("Error setting idempotent key %s", key)
	}

	publish(ctx, s.publisher, entity.EventPaymentRecorded, order,
		fmt.Sprintf("Payment of %s received (%s)", billing.FormatINR(payment.Amount), payment.TransactionID), now)

	return &PaymentResult{
		Payment: payment,
		Summary: billing.Summarize(*order, append(ledger, payment), now),
	}, nil
}

// Invoice renders the tax invoice for one of the user's orders.
func (s *PaymentService) Invoice(ctx context.Context, userID int64, orderID string) (string, error) {
	order, err := s.ownedOrder(ctx, userID, orderID)
	if err != nil {
		return "", err
	}
	customer, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return "", err
	}
	ledger, err := s.payments.ListByOrder(ctx, orderID)
	if err != nil {
		return "", err
	}
	now := s.now()
	return billing.RenderInvoice(billing.InvoiceInput{
		Order:    *order,
		Customer: *customer,
		Summary:  billing.Summarize(*order, ledger, now),
		IssuedAt: now,
	})
}
