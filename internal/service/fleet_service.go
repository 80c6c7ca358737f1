package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"

	"rmc-erp/internal/apperr"
	"rmc-erp/internal/entity"
)

// FleetService maintains the plant and transit mixer registries and the per-order
// assignments that reference them.
type FleetService struct {
	fleet  FleetStore
	orders OrderStore
	ids    *snowflake.Node
	now    func() time.Time
}

func NewFleetService(fleet FleetStore, orders OrderStore, ids *snowflake.Node) *FleetService {
	return &FleetService{fleet: fleet, orders: orders, ids: ids, now: time.Now}
}

func (s *FleetService) ListPlants(ctx context.Context) ([]entity.Plant, error) {
	return s.fleet.ListPlants(ctx)
}

func (s *FleetService) GetPlant(ctx context.Context, id int64) (*entity.Plant, error) {
	return s.fleet.GetPlant(ctx, id)
}

func plantName(raw string) (string, error) {
	name := sanitize(raw)
	if name == "" {
		return "", apperr.Validation("Plant name is required")
	}
	return name, nil
}

func (s *FleetService) CreatePlant(ctx context.Context, raw string) (*entity.Plant, error) {
	name, err := plantName(raw)
	if err != nil {
		return nil, err
	}
	p := &entity.Plant{ID: s.ids.Generate().Int64(), PlantName: name, CreatedAt: s.now()}
	if err := s.fleet.CreatePlant(ctx, p); errors.Is(err, apperr.ErrDuplicate) {
		return nil, apperr.Validation("Plant already exists")
	} else if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *FleetService) RenamePlant(ctx context.Context, id int64, raw string) error {
	name, err := plantName(raw)
	if err != nil {
		return err
	}
	if err := s.fleet.RenamePlant(ctx, id, name); errors.Is(err, apperr.ErrDuplicate) {
		return apperr.Validation("Plant already exists")
	} else if err != nil {
		return err
	}
	return nil
}

// DeletePlant refuses while an assignment still points at the plant.
func (s *FleetService) DeletePlant(ctx context.Context, id int64) error {
	if _, err := s.fleet.GetPlant(ctx, id); err != nil {
		return err
	}
	used, err := s.fleet.PlantInUse(ctx, id)
	if err != nil {
		return err
	}
	if used {
		return &apperr.ConflictError{Message: "Plant is used by an assignment"}
	}
	return s.fleet.DeletePlant(ctx, id)
}

func (s *FleetService) ListMixers(ctx context.Context) ([]entity.TransitMixer, error) {
	return s.fleet.ListMixers(ctx)
}

func (s *FleetService) GetMixer(ctx context.Context, id int64) (*entity.TransitMixer, error) {
	return s.fleet.GetMixer(ctx, id)
}

// mixerNumber normalises a registration number: trimmed and upper case.
func mixerNumber(raw string) (string, error) {
	number := strings.ToUpper(sanitize(raw))
	if number == "" {
		return "", apperr.Validation("Mixer number is required")
	}
	return number, nil
}

func (s *FleetService) CreateMixer(ctx context.Context, raw string) (*entity.TransitMixer, error) {
	number, err := mixerNumber(raw)
	if err != nil {
		return nil, err
	}
	m := &entity.TransitMixer{ID: s.ids.Generate().Int64(), MixerNumber: number, CreatedAt: s.now()}
	if err := s.fleet.CreateMixer(ctx, m); errors.Is(err, apperr.ErrDuplicate) {
		return nil, apperr.Validation("Mixer already exists")
	} else if err != nil {
		return nil, err
	}
	return m, nil
}

func (s *FleetService) RenameMixer(ctx context.Context, id int64, raw string) error {
	number, err := mixerNumber(raw)
	if err != nil {
		return err
	}
	if err := s.fleet.RenameMixer(ctx, id, number); errors.Is(err, apperr.ErrDuplicate) {
		return apperr.Validation("Mixer already exists")
	} else if err != nil {
		return err
	}
	return nil
}

// DeleteMixer refuses while an assignment uses the mixer as main or backup.
func (s *FleetService) DeleteMixer(ctx context.Context, id int64) error {
	if _, err := s.fleet.GetMixer(ctx, id); err != nil {
		return err
	}
	used, err := s.fleet.MixerInUse(ctx, id)
	if err != nil {
		return err
	}
	if used {
		return &apperr.ConflictError{Message: "Transit mixer is used by an assignment"}
	}
	return s.fleet.DeleteMixer(ctx, id)
}

// AssignmentRequest is the admin form for an order assignment. Mixers are optional.
type AssignmentRequest struct {
	OrderID          string `json:"orderId"`
	PlantID          int64  `json:"plantId"`
	MixerID          *int64 `json:"mixerId"`
	BackupMixerID    *int64 `json:"backupMixerId"`
	DriverName       string `json:"driverName"`
	BackupDriverName string `json:"backupDriverName"`
	PriorityLevel    string `json:"priorityLevel"`
	PlantAllocation  string `json:"plantAllocation"`
}

// resolve checks every reference of req and fills a with the cleaned values.
func (s *FleetService) resolve(ctx context.Context, req AssignmentRequest, a *entity.Assignment) error {
	if req.PlantID == 0 {
		return apperr.Validation("Plant is required")
	}
	plant, err := s.fleet.GetPlant(ctx, req.PlantID)
	if err != nil {
		return err
	}
	for _, id := range []*int64{req.MixerID, req.BackupMixerID} {
		if id == nil {
			continue
		}
		if _, err := s.fleet.GetMixer(ctx, *id); err != nil {
			return err
		}
	}
	if req.MixerID != nil && req.BackupMixerID != nil && *req.MixerID == *req.BackupMixerID {
		return apperr.Validation("Backup mixer must differ from the main mixer")
	}

	priority := strings.ToUpper(strings.TrimSpace(req.PriorityLevel))
	switch priority {
	case "":
		priority = entity.PriorityNormal
	case entity.PriorityNormal, entity.PriorityUrgent:
	default:
		return apperr.Validation("Priority must be NORMAL or URGENT")
	}

	a.PlantID = plant.ID
	a.PlantName = plant.PlantName
	a.MixerID = req.MixerID
	a.BackupMixerID = req.BackupMixerID
	a.DriverName = sanitize(req.DriverName)
	a.BackupDriverName = sanitize(req.BackupDriverName)
	a.PriorityLevel = priority
	a.PlantAllocation = sanitize(req.PlantAllocation)
	if a.PlantAllocation == "" {
		a.PlantAllocation = plant.PlantName
	}
	return nil
}

// CreateAssignment binds an existing order to a plant. Each order has at most one
// assignment.
func (s *FleetService) CreateAssignment(ctx context.Context, req AssignmentRequest) (*entity.Assignment, error) {
	orderID := strings.TrimSpace(req.OrderID)
	if orderID == "" {
		return nil, apperr.Validation("Order is required")
	}
	if _, err := s.orders.GetOrderByOrderID(ctx, orderID); err != nil {
		return nil, err
	}
	a := &entity.Assignment{ID: s.ids.Generate().Int64(), OrderID: orderID, CreatedAt: s.now()}
	if err := s.resolve(ctx, req, a); err != nil {
		return nil, err
	}
	if err := s.fleet.CreateAssignment(ctx, a); errors.Is(err, apperr.ErrDuplicate) {
		return nil, apperr.Validation("Order already has an assignment")
	} else if err != nil {
		return nil, err
	}
	return s.fleet.GetAssignment(ctx, a.ID)
}

// UpdateAssignment replaces everything but the order the assignment belongs to.
func (s *FleetService) UpdateAssignment(ctx context.Context, id int64, req AssignmentRequest) (*entity.Assignment, error) {
	a, err := s.fleet.GetAssignment(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.resolve(ctx, req, a); err != nil {
		return nil, err
	}
	if err := s.fleet.UpdateAssignment(ctx, a); err != nil {
		return nil, err
	}
	return s.fleet.GetAssignment(ctx, id)
}

func (s *FleetService) ListAssignments(ctx context.Context) ([]entity.Assignment, error) {
	return s.fleet.ListAssignments(ctx)
}

func (s *FleetService) GetAssignment(ctx context.Context, id int64) (*entity.Assignment, error) {
	return s.fleet.GetAssignment(ctx, id)
}

func (s *FleetService) AssignmentForOrder(ctx context.Context, orderID string) (*entity.Assignment, error) {
	return s.fleet.GetAssignmentByOrder(ctx, strings.TrimSpace(orderID))
}

func (s *FleetService) DeleteAssignment(ctx context.Context, id int64) error {
	return s.fleet.DeleteAssignment(ctx, id)
}
