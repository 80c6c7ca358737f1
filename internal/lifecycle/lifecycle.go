// Package lifecycle owns the order status machine, order creation rules and the
// dashboard tallies derived from an order collection.
package lifecycle

import (
	"strings"
	"time"

	"rmc-erp/internal/apperr"
	"rmc-erp/internal/entity"
)

// allowedTransitions defines valid status transitions.
// Key is current status, value is the set of statuses it can move to. Terminal
// statuses map to an empty set.
var allowedTransitions = map[entity.OrderStatus][]entity.OrderStatus{
	entity.StatusPendingApproval: {entity.StatusApproved, entity.StatusRejected},
	entity.StatusApproved:        {entity.StatusInProduction, entity.StatusDispatched, entity.StatusDelivered},
	entity.StatusInProduction:    {entity.StatusDispatched, entity.StatusDelivered},
	entity.StatusDispatched:      {entity.StatusDelivered},
	entity.StatusDelivered:       {},
	entity.StatusRejected:        {},
}

// CanTransition reports whether from -> to is in the transition table.
func CanTransition(from, to entity.OrderStatus) bool {
	for _, s := range allowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is possible from s.
func IsTerminal(s entity.OrderStatus) bool {
	next, ok := allowedTransitions[s]
	return ok && len(next) == 0
}

// RequireAdmin returns an AuthorizationError unless role is ADMIN.
func RequireAdmin(role string) error {
	if role != entity.RoleAdmin {
		return &apperr.AuthorizationError{Role: role, Required: entity.RoleAdmin}
	}
	return nil
}

// SetStatus moves order to next on behalf of an actor with the given role.
func SetStatus(order *entity.Order, next entity.OrderStatus, actorRole string, now time.Time) error {
	if err := RequireAdmin(actorRole); err != nil {
		return err
	}
	current := order.Status
	if current == "" {
		current = entity.StatusPendingApproval
	}
	if !CanTransition(current, next) {
		return &apperr.InvalidTransitionError{From: current, To: next}
	}
	order.Status = next
	if next == entity.StatusApproved {
		order.ApprovedAt = entity.NewDateTime(now)
	}
	return nil
}

// Advance is SetStatus for scheduling: an order already at target is left alone so
// that schedules can be revised without a status change.
func Advance(order *entity.Order, target entity.OrderStatus, actorRole string, now time.Time) error {
	if err := RequireAdmin(actorRole); err != nil {
		return err
	}
	if order.Status == target {
		return nil
	}
	return SetStatus(order, target, actorRole, now)
}

// DeleteGuard allows only admins to delete orders.
func DeleteGuard(actorRole string) error {
	return RequireAdmin(actorRole)
}

var rates = map[string]float64{
	"M20": 5000,
	"M25": 5500,
	"M30": 6000,
	"M35": 6500,
}

// Rate returns the price per cubic meter for grade, or 0 for unknown grades.
func Rate(grade string) float64 {
	return rates[strings.ToUpper(strings.TrimSpace(grade))]
}

// Grades lists the orderable grades.
func Grades() []string {
	return []string{"M20", "M25", "M30", "M35"}
}

// NewOrderInput carries the customer-supplied fields of a purchase.
type NewOrderInput struct {
	Grade              string
	Quantity           float64
	DeliveryDate       *entity.DateTime
	Address            string
	CustomerID         int64
	TotalPriceOverride float64
}

// Validate checks that every field is present and the quantity is positive.
func (in NewOrderInput) Validate() error {
	if strings.TrimSpace(in.Grade) == "" ||
		in.Quantity <= 0 ||
		!in.DeliveryDate.IsSet() ||
		strings.TrimSpace(in.Address) == "" ||
		in.CustomerID == 0 {
		return apperr.Validation("Invalid order details")
	}
	return nil
}

// TotalPrice is rate(grade) × quantity unless a positive override is supplied.
func TotalPrice(grade string, quantity, override float64) float64 {
	if override > 0 {
		return override
	}
	return Rate(grade) * quantity
}

// NewOrder validates in and returns an unsaved order awaiting approval. Identity
// fields are assigned by the caller.
func NewOrder(in NewOrderInput) (*entity.Order, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	grade := strings.TrimSpace(in.Grade)
	return &entity.Order{
		UserID:       in.CustomerID,
		Grade:        grade,
		Quantity:     in.Quantity,
		TotalPrice:   TotalPrice(grade, in.Quantity, in.TotalPriceOverride),
		Address:      strings.TrimSpace(in.Address),
		Status:       entity.StatusPendingApproval,
		DeliveryDate: in.DeliveryDate,
	}, nil
}

// Tally holds the dashboard counters.
type Tally struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Approved  int `json:"approved"`
	Delivered int `json:"delivered"`
}

// Count recomputes the counters from scratch.
func Count(orders []entity.Order) Tally {
	t := Tally{Total: len(orders)}
	for _, o := range orders {
		switch o.Status {
		case entity.StatusPendingApproval:
			t.Pending++
		case entity.StatusApproved:
			t.Approved++
		case entity.StatusDelivered:
			t.Delivered++
		}
	}
	return t
}
