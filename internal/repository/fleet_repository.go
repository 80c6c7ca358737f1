package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"rmc-erp/internal/apperr"
	"rmc-erp/internal/entity"
)

// FleetRepository keeps the plant, transit mixer and assignment registries on the
// primary shard.
type FleetRepository struct {
	db *sql.DB
}

func NewFleetRepository(db *sql.DB) *FleetRepository {
	return &FleetRepository{db}
}

// registry describes a table of named records: plants and transit mixers.
type registry struct {
	table    string
	column   string
	notFound error
}

var (
	plants = registry{table: "plants", column: "plant_name", notFound: apperr.ErrPlantNotFound}
	mixers = registry{table: "transit_mixers", column: "mixer_number", notFound: apperr.ErrMixerNotFound}
)

type namedRow struct {
	id      int64
	name    string
	created time.Time
}

func (g registry) list(ctx context.Context, db *sql.DB) ([]namedRow, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf(`SELECT id, %s, created_at FROM %s ORDER BY %s`, g.column, g.table, g.column))
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", g.table, err)
	}
	defer rows.Close()

	out := []namedRow{}
	for rows.Next() {
		var r namedRow
		if err := rows.Scan(&r.id, &r.name, &r.created); err != nil {
			return nil, err
		}
		r.created = utc(r.created)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (g registry) get(ctx context.Context, db *sql.DB, id int64) (namedRow, error) {
	r := namedRow{id: id}
	err := db.QueryRowContext(ctx, fmt.Sprintf(`SELECT %s, created_at FROM %s WHERE id = ?`, g.column, g.table), id).Scan(&r.name, &r.created)
	if errors.Is(err, sql.ErrNoRows) {
		return r, g.notFound
	}
	if err != nil {
		return r, fmt.Errorf("get %s %d: %w", g.table, id, err)
	}
	r.created = utc(r.created)
	return r, nil
}

func (g registry) create(ctx context.Context, db *sql.DB, r namedRow) error {
	_, err := db.ExecContext(ctx, fmt.Sprintf(`INSERT INTO %s (id, %s, created_at) VALUES (?, ?, ?)`, g.table, g.column), r.id, r.name, r.created.UTC())
	if isUniqueViolation(err) {
		return fmt.Errorf("insert %s %q: %w", g.table, r.name, apperr.ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("insert %s %q: %w", g.table, r.name, err)
	}
	return nil
}

func (g registry) rename(ctx context.Context, db *sql.DB, id int64, name string) error {
	res, err := db.ExecContext(ctx, fmt.Sprintf(`UPDATE %s SET %s = ? WHERE id = ?`, g.table, g.column), name, id)
	if isUniqueViolation(err) {
		return fmt.Errorf("rename %s %d: %w", g.table, id, apperr.ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("rename %s %d: %w", g.table, id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return g.notFound
	}
	return nil
}

func (g registry) remove(ctx context.Context, db *sql.DB, id int64) error {
	res, err := db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, g.table), id)
	if err != nil {
		return fmt.Errorf("delete %s %d: %w", g.table, id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return g.notFound
	}
	return nil
}

func toPlant(r namedRow) entity.Plant {
	return entity.Plant{ID: r.id, PlantName: r.name, CreatedAt: r.created}
}

func toMixer(r namedRow) entity.TransitMixer {
	return entity.TransitMixer{ID: r.id, MixerNumber: r.name, CreatedAt: r.created}
}

func (r *FleetRepository) ListPlants(ctx context.Context) ([]entity.Plant, error) {
	rows, err := plants.list(ctx, r.db)
	if err != nil {
		return nil, err
	}
	out := make([]entity.Plant, 0, len(rows))
	for _, row := range rows {
		out = append(out, toPlant(row))
	}
	return out, nil
}

func (r *FleetRepository) GetPlant(ctx context.Context, id int64) (*entity.Plant, error) {
	row, err := plants.get(ctx, r.db, id)
	if err != nil {
		return nil, err
	}
	p := toPlant(row)
	return &p, nil
}

// CreatePlant returns apperr.ErrDuplicate when the name is taken.
func (r *FleetRepository) CreatePlant(ctx context.Context, p *entity.Plant) error {
	return plants.create(ctx, r.db, namedRow{id: p.ID, name: p.PlantName, created: p.CreatedAt})
}

func (r *FleetRepository) RenamePlant(ctx context.Context, id int64, name string) error {
	return plants.rename(ctx, r.db, id, name)
}

func (r *FleetRepository) DeletePlant(ctx context.Context, id int64) error {
	return plants.remove(ctx, r.db, id)
}

func (r *FleetRepository) ListMixers(ctx context.Context) ([]entity.TransitMixer, error) {
	rows, err := mixers.list(ctx, r.db)
	if err != nil {
		return nil, err
	}
	out := make([]entity.TransitMixer, 0, len(rows))
	for _, row := range rows {
		out = append(out, toMixer(row))
	}
	return out, nil
}

func (r *FleetRepository) GetMixer(ctx context.Context, id int64) (*entity.TransitMixer, error) {
	row, err := mixers.get(ctx, r.db, id)
	if err != nil {
		return nil, err
	}
	m := toMixer(row)
	return &m, nil
}

// CreateMixer returns apperr.ErrDuplicate when the number is taken.
func (r *FleetRepository) CreateMixer(ctx context.Context, m *entity.TransitMixer) error {
	return mixers.create(ctx, r.db, namedRow{id: m.ID, name: m.MixerNumber, created: m.CreatedAt})
}

func (r *FleetRepository) RenameMixer(ctx context.Context, id int64, number string) error {
	return mixers.rename(ctx, r.db, id, number)
}

func (r *FleetRepository) DeleteMixer(ctx context.Context, id int64) error {
	return mixers.remove(ctx, r.db, id)
}

// Assignments are read joined with the names of the plant and mixers they point at.
const assignmentSelect = `SELECT a.id, a.order_id, a.plant_id, COALESCE(p.plant_name, ''),
	a.mixer_id, COALESCE(m.mixer_number, ''), a.backup_mixer_id, COALESCE(b.mixer_number, ''),
	a.driver_name, a.backup_driver_name, a.priority_level, a.plant_allocation, a.created_at
	FROM order_assignments a
	LEFT JOIN plants p ON p.id = a.plant_id
	LEFT JOIN transit_mixers m ON m.id = a.mixer_id
	LEFT JOIN transit_mixers b ON b.id = a.backup_mixer_id`

func scanAssignment(row rowScanner) (*entity.Assignment, error) {
	var (
		a             entity.Assignment
		mixer, backup sql.NullInt64
	)
	err := row.Scan(&a.ID, &a.OrderID, &a.PlantID, &a.PlantName,
		&mixer, &a.MixerNumber, &backup, &a.BackupMixerNumber,
		&a.DriverName, &a.BackupDriverName, &a.PriorityLevel, &a.PlantAllocation, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	a.MixerID = int64Value(mixer)
	a.BackupMixerID = int64Value(backup)
	a.CreatedAt = utc(a.CreatedAt)
	return &a, nil
}

func int64Value(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}

func int64Arg(v *int64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func (r *FleetRepository) getAssignment(ctx context.Context, where string, arg interface{}) (*entity.Assignment, error) {
	a, err := scanAssignment(r.db.QueryRowContext(ctx, assignmentSelect+` WHERE `+where, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrAssignmentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get assignment: %w", err)
	}
	return a, nil
}

func (r *FleetRepository) ListAssignments(ctx context.Context) ([]entity.Assignment, error) {
	rows, err := r.db.QueryContext(ctx, assignmentSelect+` ORDER BY a.created_at DESC, a.id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	defer rows.Close()

	out := []entity.Assignment{}
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func (r *FleetRepository) GetAssignment(ctx context.Context, id int64) (*entity.Assignment, error) {
	return r.getAssignment(ctx, `a.id = ?`, id)
}

func (r *FleetRepository) GetAssignmentByOrder(ctx context.Context, orderID string) (*entity.Assignment, error) {
	return r.getAssignment(ctx, `a.order_id = ?`, orderID)
}

// CreateAssignment returns apperr.ErrDuplicate when the order already has one.
func (r *FleetRepository) CreateAssignment(ctx context.Context, a *entity.Assignment) error {
	query := `INSERT INTO order_assignments (id, order_id, plant_id, mixer_id, backup_mixer_id,
		driver_name, backup_driver_name, priority_level, plant_allocation, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query, a.ID, a.OrderID, a.PlantID, int64Arg(a.MixerID), int64Arg(a.BackupMixerID),
		a.DriverName, a.BackupDriverName, a.PriorityLevel, a.PlantAllocation, a.CreatedAt.UTC())
	if isUniqueViolation(err) {
		return fmt.Errorf("insert assignment for %s: %w", a.OrderID, apperr.ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("insert assignment for %s: %w", a.OrderID, err)
	}
	return nil
}

// UpdateAssignment rewrites everything but the order and creation time.
func (r *FleetRepository) UpdateAssignment(ctx context.Context, a *entity.Assignment) error {
	query := `UPDATE order_assignments SET plant_id = ?, mixer_id = ?, backup_mixer_id = ?,
		driver_name = ?, backup_driver_name = ?, priority_level = ?, plant_allocation = ?
		WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query, a.PlantID, int64Arg(a.MixerID), int64Arg(a.BackupMixerID),
		a.DriverName, a.BackupDriverName, a.PriorityLevel, a.PlantAllocation, a.ID)
	if err != nil {
		return fmt.Errorf("update assignment %d: %w", a.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperr.ErrAssignmentNotFound
	}
	return nil
}

func (r *FleetRepository) DeleteAssignment(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM order_assignments WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete assignment %d: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperr.ErrAssignmentNotFound
	}
	return nil
}

// PlantInUse reports whether any assignment points at the plant.
func (r *FleetRepository) PlantInUse(ctx context.Context, id int64) (bool, error) {
	return r.exists(ctx, `SELECT 1 FROM order_assignments WHERE plant_id = ? LIMIT 1`, id)
}

// MixerInUse reports whether any assignment uses the mixer as main or backup.
func (r *FleetRepository) MixerInUse(ctx context.Context, id int64) (bool, error) {
	return r.exists(ctx, `SELECT 1 FROM order_assignments WHERE mixer_id = ? OR backup_mixer_id = ? LIMIT 1`, id, id)
}

func (r *FleetRepository) exists(ctx context.Context, query string, args ...interface{}) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
