package console

import (
	"context"
	"errors"
	"strings"

	"rmc-erp/internal/apperr"
	"rmc-erp/internal/client"
	"rmc-erp/internal/entity"
	"rmc-erp/internal/lifecycle"
)

func requireAdmin(sess *Session) error {
	_, err := sess.Require(entity.RoleAdmin)
	return err
}

// AdminOrders is the admin order table. Every successful action refetches the list.
type AdminOrders struct {
	*View
	api *client.Client

	orders []entity.Order
	tally  lifecycle.Tally
}

func NewAdminOrders(ctx context.Context, sess *Session, api *client.Client) (*AdminOrders, error) {
	if err := requireAdmin(sess); err != nil {
		return nil, err
	}
	return &AdminOrders{View: newView(ctx), api: api}, nil
}

func (a *AdminOrders) Load() error {
	return load(a.View, a.api.AdminOrders, func(orders []entity.Order) {
		a.orders = orders
		a.tally = lifecycle.Count(orders)
	})
}

func (a *AdminOrders) Orders() []entity.Order {
	var out []entity.Order
	a.withLock(func() { out = append(out, a.orders...) })
	return out
}

func (a *AdminOrders) Tally() lifecycle.Tally {
	var t lifecycle.Tally
	a.withLock(func() { t = a.tally })
	return t
}

func (a *AdminOrders) find(orderID string) (entity.Order, bool) {
	var (
		found entity.Order
		ok    bool
	)
	a.withLock(func() {
		for _, o := range a.orders {
			if o.OrderID == orderID {
				found, ok = o, true
				return
			}
		}
	})
	return found, ok
}

// mutate runs action against orderID and refetches on success. A blank orderID is
// rejected without calling the server.
func (a *AdminOrders) mutate(orderID string, action func(context.Context, string) (string, error)) (string, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return "", ErrNoOrderSelected
	}
	msg, err := action(a.Context(), orderID)
	if err != nil {
		return "", err
	}
	if err := a.Load(); err != nil {
		return msg, err
	}
	return msg, nil
}

// UpdateStatus moves an order. Transitions the lifecycle forbids for a listed order
// are refused locally.
func (a *AdminOrders) UpdateStatus(orderID string, status entity.OrderStatus) (string, error) {
	if o, ok := a.find(strings.TrimSpace(orderID)); ok && o.Status != status && !lifecycle.CanTransition(o.Status, status) {
		return "", &apperr.InvalidTransitionError{From: o.Status, To: status}
	}
	return a.mutate(orderID, func(ctx context.Context, id string) (string, error) {
		res, err := a.api.UpdateStatus(ctx, id, status)
		if err != nil {
			return "", err
		}
		return res.Message, nil
	})
}

func (a *AdminOrders) Approve(orderID string) (string, error) {
	return a.mutate(orderID, a.api.ApproveOrder)
}

func (a *AdminOrders) Reject(orderID string) (string, error) {
	return a.mutate(orderID, a.api.RejectOrder)
}

func (a *AdminOrders) Delete(orderID string) (string, error) {
	return a.mutate(orderID, a.api.DeleteOrder)
}

// Scheduling holds the production, dispatch, vehicle and reschedule forms for the
// selected order.
type Scheduling struct {
	*AdminOrders
	selected string
}

func NewScheduling(ctx context.Context, sess *Session, api *client.Client) (*Scheduling, error) {
	orders, err := NewAdminOrders(ctx, sess, api)
	if err != nil {
		return nil, err
	}
	return &Scheduling{AdminOrders: orders}, nil
}

func (s *Scheduling) Select(orderID string) {
	s.withLock(func() { s.selected = strings.TrimSpace(orderID) })
}

// Selected returns the selected order as last loaded.
func (s *Scheduling) Selected() (entity.Order, bool) {
	var id string
	s.withLock(func() { id = s.selected })
	if id == "" {
		return entity.Order{}, false
	}
	return s.find(id)
}

func (s *Scheduling) selectedID() string {
	var id string
	s.withLock(func() { id = s.selected })
	return id
}

func (s *Scheduling) SubmitProduction(req entity.ProductionSchedule) (string, error) {
	return s.mutate(s.selectedID(), func(ctx context.Context, id string) (string, error) {
		return s.api.ScheduleProduction(ctx, id, req)
	})
}

func (s *Scheduling) SubmitDispatch(req entity.DispatchSchedule) (string, error) {
	return s.mutate(s.selectedID(), func(ctx context.Context, id string) (string, error) {
		return s.api.ScheduleDispatch(ctx, id, req)
	})
}

func (s *Scheduling) AssignVehicle(req entity.VehicleSchedule) (string, error) {
	return s.mutate(s.selectedID(), func(ctx context.Context, id string) (string, error) {
		return s.api.AssignVehicle(ctx, id, req)
	})
}

func (s *Scheduling) Reschedule(req entity.Reschedule) (string, error) {
	return s.mutate(s.selectedID(), func(ctx context.Context, id string) (string, error) {
		return s.api.Reschedule(ctx, id, req)
	})
}

// ConflictOrderID returns the clashing order named by a scheduling conflict, if any.
func ConflictOrderID(err error) string {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ConflictOrderID
	}
	var conflict *apperr.ConflictError
	if errors.As(err, &conflict) {
		return conflict.ConflictOrderID
	}
	return ""
}

// AdminUsers lists accounts and the admin registrations awaiting approval.
type AdminUsers struct {
	*View
	api *client.Client

	users   []entity.User
	pending []entity.User
}

func NewAdminUsers(ctx context.Context, sess *Session, api *client.Client) (*AdminUsers, error) {
	if err := requireAdmin(sess); err != nil {
		return nil, err
	}
	return &AdminUsers{View: newView(ctx), api: api}, nil
}

type userLists struct {
	users   []entity.User
	pending []entity.User
}

func (a *AdminUsers) Load() error {
	return load(a.View, func(ctx context.Context) (userLists, error) {
		users, err := a.api.AdminUsers(ctx)
		if err != nil {
			return userLists{}, err
		}
		pending, err := a.api.PendingAdmins(ctx)
		if err != nil {
			return userLists{}, err
		}
		return userLists{users: users, pending: pending}, nil
	}, func(l userLists) {
		a.users = l.users
		a.pending = l.pending
	})
}

func (a *AdminUsers) Users() []entity.User {
	var out []entity.User
	a.withLock(func() { out = append(out, a.users...) })
	return out
}

func (a *AdminUsers) PendingAdmins() []entity.User {
	var out []entity.User
	a.withLock(func() { out = append(out, a.pending...) })
	return out
}

func (a *AdminUsers) decide(userID int64, action func(context.Context, int64) (string, error)) (string, error) {
	if userID == 0 {
		return "", apperr.Validation("Please select a user")
	}
	msg, err := action(a.Context(), userID)
	if err != nil {
		return "", err
	}
	return msg, a.Load()
}

func (a *AdminUsers) ApproveAdmin(userID int64) (string, error) {
	return a.decide(userID, a.api.ApproveAdmin)
}

func (a *AdminUsers) RejectAdmin(userID int64) (string, error) {
	return a.decide(userID, a.api.RejectAdmin)
}

// AdminDashboard shows order counters and the pending admin queue size.
type AdminDashboard struct {
	*View
	api *client.Client

	tally         lifecycle.Tally
	pendingAdmins int
}

func NewAdminDashboard(ctx context.Context, sess *Session, api *client.Client) (*AdminDashboard, error) {
	if err := requireAdmin(sess); err != nil {
		return nil, err
	}
	return &AdminDashboard{View: newView(ctx), api: api}, nil
}

type adminCounts struct {
	tally         lifecycle.Tally
	pendingAdmins int
}

func (d *AdminDashboard) Load() error {
	return load(d.View, func(ctx context.Context) (adminCounts, error) {
		orders, err := d.api.AdminOrders(ctx)
		if err != nil {
			return adminCounts{}, err
		}
		pending, err := d.api.PendingAdmins(ctx)
		if err != nil {
			return adminCounts{}, err
		}
		return adminCounts{tally: lifecycle.Count(orders), pendingAdmins: len(pending)}, nil
	}, func(c adminCounts) {
		d.tally = c.tally
		d.pendingAdmins = c.pendingAdmins
	})
}

func (d *AdminDashboard) Tally() lifecycle.Tally {
	var t lifecycle.Tally
	d.withLock(func() { t = d.tally })
	return t
}

func (d *AdminDashboard) PendingAdmins() int {
	var n int
	d.withLock(func() { n = d.pendingAdmins })
	return n
}
