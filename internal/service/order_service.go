package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"

	"rmc-erp/internal/apperr"
	"rmc-erp/internal/entity"
	"rmc-erp/internal/lifecycle"
)

// OrderService runs the order lifecycle and the admin scheduling workflow.
type OrderService struct {
	orders    OrderStore
	users     UserStore
	publisher EventPublisher
	ids       *snowflake.Node
	now       func() time.Time
}

// NewOrderService creates a new instance of OrderService
func NewOrderService(orders OrderStore, users UserStore, publisher EventPublisher, ids *snowflake.Node) *OrderService {
	return &OrderService{
		orders:    orders,
		users:     users,
		publisher: publisher,
		ids:       ids,
		now:       time.Now,
	}
}

// CreateOrderRequest is the customer purchase payload.
type CreateOrderRequest struct {
	UserID       int64
	Grade        string
	Quantity     float64
	DeliveryDate *entity.DateTime
	Address      string
	TotalPrice   float64
}

func newOrderID() string {
	return "ORD-" + uuid.NewString()[:8]
}

// CreateOrder stores a new order awaiting approval.
func (s *OrderService) CreateOrder(ctx context.Context, req CreateOrderRequest) (*entity.Order, error) {
	if req.UserID == 0 {
		return nil, apperr.Validation("userId is required")
	}
	if _, err := s.users.GetUserByID(ctx, req.UserID); err != nil {
		if errors.Is(err, apperr.ErrUserNotFound) {
			return nil, apperr.Validation("Unable to create order")
		}
		return nil, err
	}

	order, err := lifecycle.NewOrder(lifecycle.NewOrderInput{
		Grade:              req.Grade,
		Quantity:           req.Quantity,
		DeliveryDate:       req.DeliveryDate,
		Address:            sanitize(req.Address),
		CustomerID:         req.UserID,
		TotalPriceOverride: req.TotalPrice,
	})
	if err != nil {
		return nil, err
	}

	now := s.now()
	order.ID = s.ids.Generate().Int64()
	order.OrderID = newOrderID()
	order.CreatedAt = now.UTC().Truncate(time.Second)

	if err := s.orders.CreateOrder(ctx, order); err != nil {
		logger.Error().Err(err).Msg("Error creating order")
		return nil, err
	}

	publish(ctx, s.publisher, entity.EventCreated, order, "Order placed and awaiting approval", now)
	return order, nil
}

func (s *OrderService) GetOrder(ctx context.Context, orderID string) (*entity.Order, error) {
	return s.orders.GetOrderByOrderID(ctx, orderID)
}

func (s *OrderService) ListOrders(ctx context.Context) ([]entity.Order, error) {
	return s.orders.ListOrders(ctx)
}

func (s *OrderService) ListPendingOrders(ctx context.Context) ([]entity.Order, error) {
	return s.orders.ListOrdersByStatus(ctx, entity.StatusPendingApproval)
}

func (s *OrderService) ListOrdersByUser(ctx context.Context, userID int64) ([]entity.Order, error) {
	return s.orders.ListOrdersByUser(ctx, userID)
}

// staleRetries bounds how often transition re-reads an order that another request
// changed underneath it.
const staleRetries = 3

// transition loads the order, applies change and stores the result. When the order
// changed after it was read, change runs again on the fresh row, so a status that
// moved on in the meantime is rejected by the lifecycle rather than overwritten.
func (s *OrderService) transition(ctx context.Context, orderID string, change func(*entity.Order, time.Time) error) (*entity.Order, error) {
	for attempt := 0; attempt < staleRetries; attempt++ {
		order, err := s.orders.GetOrderByOrderID(ctx, orderID)
		if err != nil {
			return nil, err
		}
		now := s.now()
		if err := change(order, now); err != nil {
			return nil, err
		}
		err = s.orders.UpdateOrder(ctx, order)
		if errors.Is(err, apperr.ErrStaleOrder) {
			logger.Warn().Str("order_id", orderID).Int("attempt", attempt+1).Msg("Order changed concurrently, reloading")
			continue
		}
		if err != nil {
			logger.Error().Err(err).Msgf("Error updating order %s", orderID)
			return nil, err
		}
		return order, nil
	}
	return nil, &apperr.ConflictError{Message: "Order was modified by another request, please retry"}
}

// UpdateStatus moves an order to the status named by raw.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID, raw, actorRole string) (*entity.Order, error) {
	if err := lifecycle.RequireAdmin(actorRole); err != nil {
		return nil, err
	}
	next, ok := entity.ParseOrderStatus(raw)
	if !ok {
		return nil, apperr.Validation("Invalid status value")
	}
	order, err := s.transition(ctx, orderID, func(o *entity.Order, now time.Time) error {
		if err := lifecycle.SetStatus(o, next, actorRole, now); err != nil {
			return err
		}
		o.LatestNotification = fmt.Sprintf("Order status updated to %s", next)
		return nil
	})
	if err != nil {
		return nil, err
	}
	publish(ctx, s.publisher, entity.EventStatusUpdated, order, order.LatestNotification, s.now())
	return order, nil
}

func (s *OrderService) Approve(ctx context.Context, orderID, actorRole string) (*entity.Order, error) {
	if err := lifecycle.RequireAdmin(actorRole); err != nil {
		return nil, err
	}
	order, err := s.transition(ctx, orderID, func(o *entity.Order, now time.Time) error {
		if err := lifecycle.SetStatus(o, entity.StatusApproved, actorRole, now); err != nil {
			return err
		}
		o.LatestNotification = "Order approved"
		return nil
	})
	if err != nil {
		return nil, err
	}
	publish(ctx, s.publisher, entity.EventApproved, order, order.LatestNotification, s.now())
	return order, nil
}

func (s *OrderService) Reject(ctx context.Context, orderID, actorRole string) (*entity.Order, error) {
	if err := lifecycle.RequireAdmin(actorRole); err != nil {
		return nil, err
	}
	order, err := s.transition(ctx, orderID, func(o *entity.Order, now time.Time) error {
		if err := lifecycle.SetStatus(o, entity.StatusRejected, actorRole, now); err != nil {
			return err
		}
		o.LatestNotification = "Order rejected"
		return nil
	})
	if err != nil {
		return nil, err
	}
	publish(ctx, s.publisher, entity.EventRejected, order, order.LatestNotification, s.now())
	return order, nil
}

// DeleteOrder removes an order and its payments.
func (s *OrderService) DeleteOrder(ctx context.Context, orderID, actorRole string) error {
	if err := lifecycle.DeleteGuard(actorRole); err != nil {
		return err
	}
	order, err := s.orders.GetOrderByOrderID(ctx, orderID)
	if err != nil {
		return err
	}
	if err := s.orders.DeleteOrder(ctx, orderID); err != nil {
		logger.Error().Err(err).Msgf("Error deleting order %s", orderID)
		return err
	}
	publish(ctx, s.publisher, entity.EventDeleted, order, "Order deleted by admin", s.now())
	return nil
}
