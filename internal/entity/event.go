package entity

import "time"

const (
	EventCreated             = "created"
	EventApproved            = "approved"
	EventRejected            = "rejected"
	EventStatusUpdated       = "status-updated"
	EventProductionScheduled = "production-scheduled"
	EventDispatchScheduled   = "dispatch-scheduled"
	EventVehicleAssigned     = "vehicle-assigned"
	EventRescheduled         = "rescheduled"
	EventDeleted             = "deleted"
	EventPaymentRecorded     = "payment-recorded"
)

// OrderEvent is published on the order topic for every lifecycle change and doubles as
// the notification shown to the order's owner.
type OrderEvent struct {
	Event      string      `json:"event"`
	OrderID    string      `json:"orderId"`
	UserID     int64       `json:"userId"`
	Status     OrderStatus `json:"status"`
	Message    string      `json:"message"`
	OccurredAt time.Time   `json:"occurredAt"`
}
