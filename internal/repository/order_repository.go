package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"rmc-erp/internal/apperr"
	"rmc-erp/internal/entity"
	"rmc-erp/internal/sharding"
)

const orderColumns = `id, order_id, user_id, grade, quantity, total_price, address, status,
	delivery_date, scheduled_date, approved_at,
	production_date, production_slot_start, production_slot_end, plant_allocation, priority_level,
	dispatch_date_time, trip_planning, delivery_sequence, expected_arrival_time,
	transit_mixer_number, driver_name, driver_shift, backup_transit_mixer_number, backup_driver_name,
	last_rescheduled_at, reschedule_reason, latest_notification, created_at, version`

type OrderRepository struct {
	dbShards []*sql.DB
	router   *sharding.ShardRouter
}

func NewOrderRepository(dbShards []*sql.DB, router *sharding.ShardRouter) *OrderRepository {
	return &OrderRepository{dbShards, router}
}

func (r *OrderRepository) shard(orderID string) *sql.DB {
	return r.dbShards[r.router.GetShard(orderID)]
}

func scanOrder(row rowScanner) (*entity.Order, error) {
	var (
		o                                                  entity.Order
		status                                             string
		deliveryDate, scheduledDate, approvedAt            sql.NullTime
		productionDate, slotStart, slotEnd                 sql.NullTime
		dispatchAt, expectedArrival, lastRescheduled, made sql.NullTime
	)
	err := row.Scan(
		&o.ID, &o.OrderID, &o.UserID, &o.Grade, &o.Quantity, &o.TotalPrice, &o.Address, &status,
		&deliveryDate, &scheduledDate, &approvedAt,
		&productionDate, &slotStart, &slotEnd, &o.PlantAllocation, &o.PriorityLevel,
		&dispatchAt, &o.TripPlanning, &o.DeliverySequence, &expectedArrival,
		&o.TransitMixerNumber, &o.DriverName, &o.DriverShift, &o.BackupTransitMixerNumber, &o.BackupDriverName,
		&lastRescheduled, &o.RescheduleReason, &o.LatestNotification, &made, &o.Version,
	)
	if err != nil {
		return nil, err
	}
	o.Status = entity.OrderStatus(status)
	o.DeliveryDate = dateTimeValue(deliveryDate)
	o.ScheduledDate = dateTimeValue(scheduledDate)
	o.ApprovedAt = dateTimeValue(approvedAt)
	o.ProductionDate = dateValue(productionDate)
	o.ProductionSlotStart = dateTimeValue(slotStart)
	o.ProductionSlotEnd = dateTimeValue(slotEnd)
	o.DispatchDateTime = dateTimeValue(dispatchAt)
	o.ExpectedArrivalTime = dateTimeValue(expectedArrival)
	o.LastRescheduledAt = dateTimeValue(lastRescheduled)
	if made.Valid {
		o.CreatedAt = utc(made.Time)
	}
	return &o, nil
}

func queryOrders(ctx context.Context, db *sql.DB, query string, args ...interface{}) ([]entity.Order, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []entity.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	return orders, rows.Err()
}

// queryAllShards runs query on every shard concurrently and merges the rows newest
// first.
func (r *OrderRepository) queryAllShards(ctx context.Context, query string, args ...interface{}) ([]entity.Order, error) {
	type shardResult struct {
		orders []entity.Order
		err    error
	}
	resultCh := make(chan shardResult, len(r.dbShards))

	for i, db := range r.dbShards {
		go func(i int, db *sql.DB) {
			orders, err := queryOrders(ctx, db, query, args...)
			if err != nil {
				err = fmt.Errorf("shard %d: %w", i, err)
			}
			resultCh <- shardResult{orders: orders, err: err}
		}(i, db)
	}

	orders := []entity.Order{}
	var errs []error
	for range r.dbShards {
		res := <-resultCh
		if res.err != nil {
			errs = append(errs, res.err)
			continue
		}
		orders = append(orders, res.orders...)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	sort.SliceStable(orders, func(i, j int) bool {
		if !orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].CreatedAt.After(orders[j].CreatedAt)
		}
		return orders[i].ID > orders[j].ID
	})
	return orders, nil
}

func (r *OrderRepository) CreateOrder(ctx context.Context, order *entity.Order) error {
	query := `INSERT INTO orders (` + orderColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.shard(order.OrderID).ExecContext(ctx, query,
		order.ID, order.OrderID, order.UserID, order.Grade, order.Quantity, order.TotalPrice, order.Address, string(order.Status),
		dateTimeArg(order.DeliveryDate), dateTimeArg(order.ScheduledDate), dateTimeArg(order.ApprovedAt),
		dateArg(order.ProductionDate), dateTimeArg(order.ProductionSlotStart), dateTimeArg(order.ProductionSlotEnd), order.PlantAllocation, order.PriorityLevel,
		dateTimeArg(order.DispatchDateTime), order.TripPlanning, order.DeliverySequence, dateTimeArg(order.ExpectedArrivalTime),
		order.TransitMixerNumber, order.DriverName, order.DriverShift, order.BackupTransitMixerNumber, order.BackupDriverName,
		dateTimeArg(order.LastRescheduledAt), order.RescheduleReason, order.LatestNotification, order.CreatedAt.UTC(), order.Version,
	)
	if err != nil {
		return fmt.Errorf("insert order %s: %w", order.OrderID, err)
	}
	return nil
}

// GetOrderByOrderID returns apperr.ErrOrderNotFound when no shard holds orderID.
func (r *OrderRepository) GetOrderByOrderID(ctx context.Context, orderID string) (*entity.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE order_id = ?`
	order, err := scanOrder(r.shard(orderID).QueryRowContext(ctx, query, orderID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get order %s: %w", orderID, err)
	}
	return order, nil
}

// UpdateOrder writes every mutable column when the stored version still matches
// order.Version, then bumps it. Identity, owner and creation time never change.
// A version mismatch yields apperr.ErrStaleOrder.
func (r *OrderRepository) UpdateOrder(ctx context.Context, order *entity.Order) error {
	query := `UPDATE orders SET grade = ?, quantity = ?, total_price = ?, address = ?, status = ?,
		delivery_date = ?, scheduled_date = ?, approved_at = ?,
		production_date = ?, production_slot_start = ?, production_slot_end = ?, plant_allocation = ?, priority_level = ?,
		dispatch_date_time = ?, trip_planning = ?, delivery_sequence = ?, expected_arrival_time = ?,
		transit_mixer_number = ?, driver_name = ?, driver_shift = ?, backup_transit_mixer_number = ?, backup_driver_name = ?,
		last_rescheduled_at = ?, reschedule_reason = ?, latest_notification = ?, version = version + 1
		WHERE order_id = ? AND version = ?`
	db := r.shard(order.OrderID)
	res, err := db.ExecContext(ctx, query,
		order.Grade, order.Quantity, order.TotalPrice, order.Address, string(order.Status),
		dateTimeArg(order.DeliveryDate), dateTimeArg(order.ScheduledDate), dateTimeArg(order.ApprovedAt),
		dateArg(order.ProductionDate), dateTimeArg(order.ProductionSlotStart), dateTimeArg(order.ProductionSlotEnd), order.PlantAllocation, order.PriorityLevel,
		dateTimeArg(order.DispatchDateTime), order.TripPlanning, order.DeliverySequence, dateTimeArg(order.ExpectedArrivalTime),
		order.TransitMixerNumber, order.DriverName, order.DriverShift, order.BackupTransitMixerNumber, order.BackupDriverName,
		dateTimeArg(order.LastRescheduledAt), order.RescheduleReason, order.LatestNotification,
		order.OrderID, order.Version,
	)
	if err != nil {
		return fmt.Errorf("update order %s: %w", order.OrderID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update order %s: %w", order.OrderID, err)
	}
	if n == 1 {
		order.Version++
		return nil
	}

	var exists int
	err = db.QueryRowContext(ctx, `SELECT 1 FROM orders WHERE order_id = ?`, order.OrderID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.ErrOrderNotFound
	}
	if err != nil {
		return fmt.Errorf("update order %s: %w", order.OrderID, err)
	}
	return apperr.ErrStaleOrder
}

// DeleteOrder removes the order and its payments in one transaction.
func (r *OrderRepository) DeleteOrder(ctx context.Context, orderID string) error {
	db := r.shard(orderID)

	// Start a transaction
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `DELETE FROM payments WHERE order_id = ?`, orderID)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("delete payments of %s: %w", orderID, err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM orders WHERE order_id = ?`, orderID)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("delete order %s: %w", orderID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		tx.Rollback()
		return err
	}
	if n == 0 {
		tx.Rollback()
		return apperr.ErrOrderNotFound
	}

	return tx.Commit()
}

func (r *OrderRepository) ListOrders(ctx context.Context) ([]entity.Order, error) {
	return r.queryAllShards(ctx, `SELECT `+orderColumns+` FROM orders`)
}

func (r *OrderRepository) ListOrdersByUser(ctx context.Context, userID int64) ([]entity.Order, error) {
	return r.queryAllShards(ctx, `SELECT `+orderColumns+` FROM orders WHERE user_id = ?`, userID)
}

func (r *OrderRepository) ListOrdersByStatus(ctx context.Context, status entity.OrderStatus) ([]entity.Order, error) {
	return r.queryAllShards(ctx, `SELECT `+orderColumns+` FROM orders WHERE status = ?`, string(status))
}

// ListVehicleCandidates returns every other order with a dispatch window and an
// assigned mixer or driver. Window overlap is decided by the caller.
func (r *OrderRepository) ListVehicleCandidates(ctx context.Context, excludeOrderID string) ([]entity.Order, error) {
	return r.queryAllShards(ctx, `SELECT `+orderColumns+` FROM orders
		WHERE order_id <> ?
		AND dispatch_date_time IS NOT NULL
		AND expected_arrival_time IS NOT NULL
		AND (transit_mixer_number <> '' OR driver_name <> '')`, excludeOrderID)
}
