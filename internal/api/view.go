package api

import (
	"rmc-erp/internal/entity"
)

// OrderView is the order as served over HTTP. Unset text fields are null.
type OrderView struct {
	ID         int64              `json:"id"`
	OrderID    string             `json:"orderId"`
	UserID     int64              `json:"userId"`
	Grade      string             `json:"grade"`
	Quantity   float64            `json:"quantity"`
	TotalPrice float64            `json:"totalPrice"`
	Address    string             `json:"address"`
	Status     entity.OrderStatus `json:"status"`

	DeliveryDate  *entity.DateTime `json:"deliveryDate"`
	ScheduledDate *entity.DateTime `json:"scheduledDate"`
	ApprovedAt    *entity.DateTime `json:"approvedAt"`

	ProductionDate      *entity.Date     `json:"productionDate"`
	ProductionSlotStart *entity.DateTime `json:"productionSlotStart"`
	ProductionSlotEnd   *entity.DateTime `json:"productionSlotEnd"`
	PlantAllocation     *string          `json:"plantAllocation"`
	PriorityLevel       *string          `json:"priorityLevel"`

	DispatchDateTime    *entity.DateTime `json:"dispatchDateTime"`
	TripPlanning        *string          `json:"tripPlanning"`
	DeliverySequence    *string          `json:"deliverySequence"`
	ExpectedArrivalTime *entity.DateTime `json:"expectedArrivalTime"`

	TransitMixerNumber       *string `json:"transitMixerNumber"`
	DriverName               *string `json:"driverName"`
	DriverShift              *string `json:"driverShift"`
	BackupTransitMixerNumber *string `json:"backupTransitMixerNumber"`
	BackupDriverName         *string `json:"backupDriverName"`

	LastRescheduledAt  *entity.DateTime `json:"lastRescheduledAt"`
	RescheduleReason   *string          `json:"rescheduleReason"`
	LatestNotification *string          `json:"latestNotification"`
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func NewOrderView(o entity.Order) OrderView {
	return OrderView{
		ID:                       o.ID,
		OrderID:                  o.OrderID,
		UserID:                   o.UserID,
		Grade:                    o.Grade,
		Quantity:                 o.Quantity,
		TotalPrice:               o.TotalPrice,
		Address:                  o.Address,
		Status:                   o.Status,
		DeliveryDate:             o.DeliveryDate,
		ScheduledDate:            o.ScheduledDate,
		ApprovedAt:               o.ApprovedAt,
		ProductionDate:           o.ProductionDate,
		ProductionSlotStart:      o.ProductionSlotStart,
		ProductionSlotEnd:        o.ProductionSlotEnd,
		PlantAllocation:          optional(o.PlantAllocation),
		PriorityLevel:            optional(o.PriorityLevel),
		DispatchDateTime:         o.DispatchDateTime,
		TripPlanning:             optional(o.TripPlanning),
		DeliverySequence:         optional(o.DeliverySequence),
		ExpectedArrivalTime:      o.ExpectedArrivalTime,
		TransitMixerNumber:       optional(o.TransitMixerNumber),
		DriverName:               optional(o.DriverName),
		DriverShift:              optional(o.DriverShift),
		BackupTransitMixerNumber: optional(o.BackupTransitMixerNumber),
		BackupDriverName:         optional(o.BackupDriverName),
		LastRescheduledAt:        o.LastRescheduledAt,
		RescheduleReason:         optional(o.RescheduleReason),
		LatestNotification:       optional(o.LatestNotification),
	}
}

func newOrderViews(orders []entity.Order) []OrderView {
	views := make([]OrderView, 0, len(orders))
	for _, o := range orders {
		views = append(views, NewOrderView(o))
	}
	return views
}

// UserView is a user without credentials.
type UserView struct {
	ID             int64   `json:"id"`
	Name           string  `json:"name"`
	Email          string  `json:"email"`
	Number         *string `json:"number"`
	Address        *string `json:"address"`
	Role           string  `json:"role"`
	ApprovalStatus string  `json:"approvalStatus"`
}

func NewUserView(u entity.User) UserView {
	return UserView{
		ID:             u.ID,
		Name:           u.Name,
		Email:          u.Email,
		Number:         optional(u.Number),
		Address:        optional(u.Address),
		Role:           u.Role,
		ApprovalStatus: u.ApprovalStatus,
	}
}

func newUserViews(users []entity.User) []UserView {
	views := make([]UserView, 0, len(users))
	for _, u := range users {
		views = append(views, NewUserView(u))
	}
	return views
}
