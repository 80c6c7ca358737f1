package entity

import (
	"strings"
	"time"
)

type OrderStatus string

const (
	StatusPendingApproval OrderStatus = "PENDING_APPROVAL"
	StatusApproved        OrderStatus = "APPROVED"
	StatusInProduction    OrderStatus = "IN_PRODUCTION"
	StatusDispatched      OrderStatus = "DISPATCHED"
	StatusDelivered       OrderStatus = "DELIVERED"
	StatusRejected        OrderStatus = "REJECTED"
)

// OrderStatuses lists every status in lifecycle order.
var OrderStatuses = []OrderStatus{
	StatusPendingApproval,
	StatusApproved,
	StatusInProduction,
	StatusDispatched,
	StatusDelivered,
	StatusRejected,
}

// ParseOrderStatus matches s case-insensitively against the known statuses.
func ParseOrderStatus(s string) (OrderStatus, bool) {
	candidate := OrderStatus(strings.ToUpper(strings.TrimSpace(s)))
	for _, status := range OrderStatuses {
		if status == candidate {
			return status, true
		}
	}
	return "", false
}

const (
	PriorityNormal = "NORMAL"
	PriorityUrgent = "URGENT"

	TripSingle   = "SINGLE_TRIP"
	TripMultiple = "MULTIPLE_TRIPS"
)

type Order struct {
	ID         int64       `json:"id"`
	OrderID    string      `json:"orderId"`
	UserID     int64       `json:"userId"`
	Grade      string      `json:"grade"`
	Quantity   float64     `json:"quantity"`
	TotalPrice float64     `json:"totalPrice"`
	Address    string      `json:"address"`
	Status     OrderStatus `json:"status"`

	DeliveryDate  *DateTime `json:"deliveryDate"`
	ScheduledDate *DateTime `json:"scheduledDate"`
	ApprovedAt    *DateTime `json:"approvedAt"`

	ProductionDate      *Date     `json:"productionDate"`
	ProductionSlotStart *DateTime `json:"productionSlotStart"`
	ProductionSlotEnd   *DateTime `json:"productionSlotEnd"`
	PlantAllocation     string    `json:"plantAllocation"`
	PriorityLevel       string    `json:"priorityLevel"`

	DispatchDateTime    *DateTime `json:"dispatchDateTime"`
	TripPlanning        string    `json:"tripPlanning"`
	DeliverySequence    string    `json:"deliverySequence"`
	ExpectedArrivalTime *DateTime `json:"expectedArrivalTime"`

	TransitMixerNumber       string `json:"transitMixerNumber"`
	DriverName               string `json:"driverName"`
	DriverShift              string `json:"driverShift"`
	BackupTransitMixerNumber string `json:"backupTransitMixerNumber"`
	BackupDriverName         string `json:"backupDriverName"`

	LastRescheduledAt  *DateTime `json:"lastRescheduledAt"`
	RescheduleReason   string    `json:"rescheduleReason"`
	LatestNotification string    `json:"latestNotification"`

	CreatedAt time.Time `json:"-"`
	// Version counts stored writes and guards updates against stale reads.
	Version int64 `json:"-"`
}

/*
Mysql Table (one copy per shard, rows routed by order_id)

CREATE TABLE orders (
	id BIGINT PRIMARY KEY,
	order_id VARCHAR(32) NOT NULL UNIQUE,
	user_id BIGINT NOT NULL,
	grade VARCHAR(16) NOT NULL,
	quantity DOUBLE NOT NULL,
	total_price DOUBLE NOT NULL,
	...scheduling and assignment columns
);

CREATE TABLE payments (
	id BIGINT PRIMARY KEY,
	order_id VARCHAR(32) NOT NULL,
	transaction_id VARCHAR(64) NOT NULL UNIQUE,
	...
);
*/
