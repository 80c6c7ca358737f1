package service

import (
	"context"
	"html"
	"os"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"

	"rmc-erp/internal/entity"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

// EventPublisher delivers lifecycle events to the order topic.
type EventPublisher interface {
	Publish(ctx context.Context, event entity.OrderEvent) error
}

type OrderStore interface {
	CreateOrder(ctx context.Context, order *entity.Order) error
	GetOrderByOrderID(ctx context.Context, orderID string) (*entity.Order, error)
	UpdateOrder(ctx context.Context, order *entity.Order) error
	DeleteOrder(ctx context.Context, orderID string) error
	ListOrders(ctx context.Context) ([]entity.Order, error)
	ListOrdersByUser(ctx context.Context, userID int64) ([]entity.Order, error)
	ListOrdersByStatus(ctx context.Context, status entity.OrderStatus) ([]entity.Order, error)
	ListVehicleCandidates(ctx context.Context, excludeOrderID string) ([]entity.Order, error)
}

type UserStore interface {
	CreateUser(ctx context.Context, user *entity.User, now time.Time) error
	GetUserByID(ctx context.Context, id int64) (*entity.User, error)
	GetUserByEmail(ctx context.Context, email string) (*entity.User, error)
	GetUserByNumber(ctx context.Context, number string) (*entity.User, error)
	ListUsers(ctx context.Context) ([]entity.User, error)
	ListPendingAdmins(ctx context.Context) ([]entity.User, error)
	UpdateProfile(ctx context.Context, user *entity.User) error
	UpdateApprovalStatus(ctx context.Context, id int64, status string) error
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
}

type PaymentStore interface {
	CreatePayment(ctx context.Context, p *entity.PaymentRecord) error
	ListByOrder(ctx context.Context, orderID string) ([]entity.PaymentRecord, error)
	ListByUser(ctx context.Context, userID int64) ([]entity.PaymentRecord, error)
	FindByIdempotencyKey(ctx context.Context, userID int64, key string) (*entity.PaymentRecord, error)
}

type FleetStore interface {
	ListPlants(ctx context.Context) ([]entity.Plant, error)
	GetPlant(ctx context.Context, id int64) (*entity.Plant, error)
	CreatePlant(ctx context.Context, p *entity.Plant) error
	RenamePlant(ctx context.Context, id int64, name string) error
	DeletePlant(ctx context.Context, id int64) error
	PlantInUse(ctx context.Context, id int64) (bool, error)

	ListMixers(ctx context.Context) ([]entity.TransitMixer, error)
	GetMixer(ctx context.Context, id int64) (*entity.TransitMixer, error)
	CreateMixer(ctx context.Context, m *entity.TransitMixer) error
	RenameMixer(ctx context.Context, id int64, number string) error
	DeleteMixer(ctx context.Context, id int64) error
	MixerInUse(ctx context.Context, id int64) (bool, error)

	ListAssignments(ctx context.Context) ([]entity.Assignment, error)
	GetAssignment(ctx context.Context, id int64) (*entity.Assignment, error)
	GetAssignmentByOrder(ctx context.Context, orderID string) (*entity.Assignment, error)
	CreateAssignment(ctx context.Context, a *entity.Assignment) error
	UpdateAssignment(ctx context.Context, a *entity.Assignment) error
	DeleteAssignment(ctx context.Context, id int64) error
}

var strictPolicy = bluemonday.StrictPolicy()

// sanitize strips markup from free text typed into forms and keeps it as plain text.
func sanitize(s string) string {
	return strings.TrimSpace(html.UnescapeString(strictPolicy.Sanitize(s)))
}

func publish(ctx context.Context, publisher EventPublisher, name string, order *entity.Order, message string, now time.Time) {
	event := entity.OrderEvent{
		Event:      name,
		OrderID:    order.OrderID,
		UserID:     order.UserID,
		Status:     order.Status,
		Message:    message,
		OccurredAt: now.UTC(),
	}
	if err := publisher.Publish(ctx, event); err != nil {
		// The state change is already stored; a lost event only costs a notification.
		logger.Error().Err(err).Msgf("Error publishing %s event for order %s", name, order.OrderID)
	}
}
