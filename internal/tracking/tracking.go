// Package tracking projects an order's status onto the four-stage delivery pipeline.
package tracking

import "rmc-erp/internal/entity"

const (
	StageScheduled  = "Scheduled for Dispatch"
	StageDispatched = "Dispatched"
	StageOnTheWay   = "On the Way"
	StageDelivered  = "Delivered"
)

type Stage struct {
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

var stageMembership = []struct {
	name     string
	statuses []entity.OrderStatus
}{
	{StageScheduled, []entity.OrderStatus{entity.StatusApproved, entity.StatusInProduction, entity.StatusDispatched, entity.StatusDelivered}},
	{StageDispatched, []entity.OrderStatus{entity.StatusDispatched, entity.StatusDelivered}},
	{StageOnTheWay, []entity.OrderStatus{entity.StatusDispatched}},
	{StageDelivered, []entity.OrderStatus{entity.StatusDelivered}},
}

// Stages returns the pipeline for status. An empty status counts as awaiting approval.
func Stages(status entity.OrderStatus) []Stage {
	if status == "" {
		status = entity.StatusPendingApproval
	}
	stages := make([]Stage, 0, len(stageMembership))
	for _, m := range stageMembership {
		active := false
		for _, s := range m.statuses {
			if s == status {
				active = true
				break
			}
		}
		stages = append(stages, Stage{Name: m.name, Active: active})
	}
	return stages
}

// GPSStatus describes live location availability. No vehicle telemetry is
// integrated, so it is always unavailable.
type GPSStatus struct {
	Available bool   `json:"available"`
	Message   string `json:"message"`
}

func GPS() GPSStatus {
	return GPSStatus{Available: false, Message: "Live GPS location is not available"}
}

// Tracking is the delivery card shown for one order.
type Tracking struct {
	OrderID             string             `json:"orderId"`
	Status              entity.OrderStatus `json:"status"`
	Stages              []Stage            `json:"stages"`
	DispatchDateTime    *entity.DateTime   `json:"dispatchDateTime"`
	ExpectedArrivalTime *entity.DateTime   `json:"expectedArrivalTime"`
	TransitMixerNumber  string             `json:"transitMixerNumber"`
	DriverName          string             `json:"driverName"`
	LatestNotification  string             `json:"latestNotification"`
	GPS                 GPSStatus          `json:"gps"`
}

func Project(order entity.Order) Tracking {
	return Tracking{
		OrderID:             order.OrderID,
		Status:              order.Status,
		Stages:              Stages(order.Status),
		DispatchDateTime:    order.DispatchDateTime,
		ExpectedArrivalTime: order.ExpectedArrivalTime,
		TransitMixerNumber:  order.TransitMixerNumber,
		DriverName:          order.DriverName,
		LatestNotification:  order.LatestNotification,
		GPS:                 GPS(),
	}
}
