package service

import (
	"context"
	"strings"
	"time"

	"rmc-erp/internal/apperr"
	"rmc-erp/internal/entity"
	"rmc-erp/internal/lifecycle"
)

const (
	MsgProductionScheduled = "Production scheduled successfully"
	MsgDispatchScheduled   = "Dispatch scheduled successfully"
	MsgVehicleAssigned     = "Vehicle and driver assigned successfully"
	MsgRescheduled         = "Order rescheduled successfully"

	noteProduction = "Production schedule updated by admin"
	noteDispatch   = "Dispatch schedule shared with dispatch team"
	noteVehicle    = "Vehicle and driver assigned successfully"
	noteReschedule = "Schedule updated due to rescheduling"
)

func blank(s *string) bool {
	return s == nil || strings.TrimSpace(*s) == ""
}

// overlaps reports whether [startA, endA) and [startB, endB) intersect.
func overlaps(startA, endA, startB, endB time.Time) bool {
	return startA.Before(endB) && endA.After(startB)
}

// ScheduleProduction books a plant slot and moves the order into production.
func (s *OrderService) ScheduleProduction(ctx context.Context, orderID string, req entity.ProductionSchedule, actorRole string) (*entity.Order, error) {
	if err := lifecycle.RequireAdmin(actorRole); err != nil {
		return nil, err
	}
	order, err := s.transition(ctx, orderID, func(o *entity.Order, now time.Time) error {
		if !req.ProductionDate.IsSet() || !req.ProductionSlotStart.IsSet() || !req.ProductionSlotEnd.IsSet() ||
			blank(req.PlantAllocation) || blank(req.PriorityLevel) {
			return apperr.Validation("All production scheduling fields are required")
		}
		if !req.ProductionSlotEnd.After(req.ProductionSlotStart.Time) {
			return apperr.Validation("Production slot end must be after start")
		}
		if err := lifecycle.Advance(o, entity.StatusInProduction, actorRole, now); err != nil {
			return err
		}
		o.ProductionDate = req.ProductionDate
		o.ProductionSlotStart = req.ProductionSlotStart
		o.ProductionSlotEnd = req.ProductionSlotEnd
		o.PlantAllocation = sanitize(*req.PlantAllocation)
		o.PriorityLevel = strings.ToUpper(strings.TrimSpace(*req.PriorityLevel))
		o.ScheduledDate = entity.NewDateTime(now)
		o.LatestNotification = noteProduction
		return nil
	})
	if err != nil {
		return nil, err
	}
	publish(ctx, s.publisher, entity.EventProductionScheduled, order, noteProduction, s.now())
	return order, nil
}

// ScheduleDispatch sets the dispatch window and marks the order dispatched.
func (s *OrderService) ScheduleDispatch(ctx context.Context, orderID string, req entity.DispatchSchedule, actorRole string) (*entity.Order, error) {
	if err := lifecycle.RequireAdmin(actorRole); err != nil {
		return nil, err
	}
	order, err := s.transition(ctx, orderID, func(o *entity.Order, now time.Time) error {
		if !req.DispatchDateTime.IsSet() || blank(req.TripPlanning) || blank(req.DeliverySequence) || !req.ExpectedArrivalTime.IsSet() {
			return apperr.Validation("All dispatch scheduling fields are required")
		}
		if !req.ExpectedArrivalTime.After(req.DispatchDateTime.Time) {
			return apperr.Validation("ETA must be after dispatch time")
		}
		if err := lifecycle.Advance(o, entity.StatusDispatched, actorRole, now); err != nil {
			return err
		}
		o.DispatchDateTime = req.DispatchDateTime
		o.TripPlanning = strings.ToUpper(strings.TrimSpace(*req.TripPlanning))
		o.DeliverySequence = sanitize(*req.DeliverySequence)
		o.ExpectedArrivalTime = req.ExpectedArrivalTime
		o.LatestNotification = noteDispatch
		return nil
	})
	if err != nil {
		return nil, err
	}
	publish(ctx, s.publisher, entity.EventDispatchScheduled, order, noteDispatch, s.now())
	return order, nil
}

// AssignVehicle allocates a transit mixer and driver for the order's dispatch
// window. A mixer or driver already booked on an overlapping window of another order
// is a conflict.
func (s *OrderService) AssignVehicle(ctx context.Context, orderID string, req entity.VehicleSchedule, actorRole string) (*entity.Order, error) {
	if err := lifecycle.RequireAdmin(actorRole); err != nil {
		return nil, err
	}
	order, err := s.transition(ctx, orderID, func(o *entity.Order, now time.Time) error {
		mixer := strings.TrimSpace(req.TransitMixerNumber)
		driver := strings.TrimSpace(req.DriverName)
		shift := strings.TrimSpace(req.DriverShift)
		if mixer == "" || driver == "" || shift == "" {
			return apperr.Validation("Transit mixer number, driver name and shift are required")
		}
		if !o.DispatchDateTime.IsSet() || !o.ExpectedArrivalTime.IsSet() {
			return apperr.Validation("Dispatch time and ETA must be set before vehicle assignment")
		}

		candidates, err := s.orders.ListVehicleCandidates(ctx, o.OrderID)
		if err != nil {
			return err
		}
		for _, other := range candidates {
			if !other.DispatchDateTime.IsSet() || !other.ExpectedArrivalTime.IsSet() {
				continue
			}
			if !overlaps(o.DispatchDateTime.Time, o.ExpectedArrivalTime.Time, other.DispatchDateTime.Time, other.ExpectedArrivalTime.Time) {
				continue
			}
			if strings.EqualFold(strings.TrimSpace(other.TransitMixerNumber), mixer) {
				return &apperr.ConflictError{Message: "Transit mixer already allocated in this time slot", ConflictOrderID: other.OrderID}
			}
			if strings.EqualFold(strings.TrimSpace(other.DriverName), driver) {
				return &apperr.ConflictError{Message: "Driver already allocated in this time slot", ConflictOrderID: other.OrderID}
			}
		}

		o.TransitMixerNumber = mixer
		o.DriverName = driver
		o.DriverShift = shift
		if backup := strings.TrimSpace(req.BackupTransitMixerNumber); backup != "" {
			o.BackupTransitMixerNumber = backup
		}
		if backup := strings.TrimSpace(req.BackupDriverName); backup != "" {
			o.BackupDriverName = backup
		}
		o.LatestNotification = noteVehicle
		return nil
	})
	if err != nil {
		return nil, err
	}
	publish(ctx, s.publisher, entity.EventVehicleAssigned, order, noteVehicle, s.now())
	return order, nil
}

func mergeString(dst *string, src *string, clean func(string) string) {
	if src != nil {
		*dst = clean(*src)
	}
}

// Reschedule merges the supplied fields into the order's schedule. The status is
// left as it is.
func (s *OrderService) Reschedule(ctx context.Context, orderID string, req entity.Reschedule, actorRole string) (*entity.Order, error) {
	if err := lifecycle.RequireAdmin(actorRole); err != nil {
		return nil, err
	}
	order, err := s.transition(ctx, orderID, func(o *entity.Order, now time.Time) error {
		merged := *o
		if req.ProductionDate.IsSet() {
			merged.ProductionDate = req.ProductionDate
		}
		if req.ProductionSlotStart.IsSet() {
			merged.ProductionSlotStart = req.ProductionSlotStart
		}
		if req.ProductionSlotEnd.IsSet() {
			merged.ProductionSlotEnd = req.ProductionSlotEnd
		}
		if req.DispatchDateTime.IsSet() {
			merged.DispatchDateTime = req.DispatchDateTime
		}
		if req.ExpectedArrivalTime.IsSet() {
			merged.ExpectedArrivalTime = req.ExpectedArrivalTime
		}
		mergeString(&merged.PlantAllocation, req.PlantAllocation, sanitize)
		mergeString(&merged.PriorityLevel, req.PriorityLevel, strings.TrimSpace)
		mergeString(&merged.TripPlanning, req.TripPlanning, strings.TrimSpace)
		mergeString(&merged.DeliverySequence, req.DeliverySequence, sanitize)
		mergeString(&merged.TransitMixerNumber, req.TransitMixerNumber, strings.TrimSpace)
		mergeString(&merged.DriverName, req.DriverName, strings.TrimSpace)
		mergeString(&merged.DriverShift, req.DriverShift, strings.TrimSpace)
		mergeString(&merged.BackupTransitMixerNumber, req.BackupTransitMixerNumber, strings.TrimSpace)
		mergeString(&merged.BackupDriverName, req.BackupDriverName, strings.TrimSpace)
		mergeString(&merged.RescheduleReason, req.RescheduleReason, sanitize)

		if merged.ProductionSlotStart.IsSet() && merged.ProductionSlotEnd.IsSet() &&
			!merged.ProductionSlotEnd.After(merged.ProductionSlotStart.Time) {
			return apperr.Validation("Production slot end must be after start")
		}
		if merged.DispatchDateTime.IsSet() && merged.ExpectedArrivalTime.IsSet() &&
			!merged.ExpectedArrivalTime.After(merged.DispatchDateTime.Time) {
			return apperr.Validation("ETA must be after dispatch time")
		}

		merged.LastRescheduledAt = entity.NewDateTime(now)
		merged.LatestNotification = noteReschedule
		*o = merged
		return nil
	})
	if err != nil {
		return nil, err
	}
	publish(ctx, s.publisher, entity.EventRescheduled, order, noteReschedule, s.now())
	return order, nil
}
