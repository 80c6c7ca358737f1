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

const userColumns = `id, name, email, number, address, role, approval_status, password_hash`

// UserRepository works on the primary shard only.
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db}
}

func scanUser(row rowScanner) (*entity.User, error) {
	var (
		u      entity.User
		number sql.NullString
	)
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &number, &u.Address, &u.Role, &u.ApprovalStatus, &u.PasswordHash); err != nil {
		return nil, err
	}
	u.Number = number.String
	return &u, nil
}

func (r *UserRepository) getOne(ctx context.Context, query string, args ...interface{}) (*entity.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *UserRepository) list(ctx context.Context, query string, args ...interface{}) ([]entity.User, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []entity.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (r *UserRepository) CreateUser(ctx context.Context, user *entity.User, now time.Time) error {
	query := `INSERT INTO users (` + userColumns + `, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query, user.ID, user.Name, user.Email, nullString(user.Number), user.Address, user.Role, user.ApprovalStatus, user.PasswordHash, now.UTC())
	if err != nil {
		return fmt.Errorf("insert user %s: %w", user.Email, err)
	}
	return nil
}

func (r *UserRepository) GetUserByID(ctx context.Context, id int64) (*entity.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

// GetUserByEmail matches case-insensitively.
func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE LOWER(email) = LOWER(?)`, email)
}

func (r *UserRepository) GetUserByNumber(ctx context.Context, number string) (*entity.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE number = ?`, number)
}

func (r *UserRepository) ListUsers(ctx context.Context) ([]entity.User, error) {
	return r.list(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
}

// ListPendingAdmins returns admin accounts still waiting for approval.
func (r *UserRepository) ListPendingAdmins(ctx context.Context) ([]entity.User, error) {
	return r.list(ctx, `SELECT `+userColumns+` FROM users WHERE role = ? AND approval_status = ? ORDER BY id`,
		entity.RoleAdmin, entity.ApprovalPending)
}

func (r *UserRepository) UpdateProfile(ctx context.Context, user *entity.User) error {
	query := `UPDATE users SET name = ?, email = ?, number = ?, address = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query, user.Name, user.Email, nullString(user.Number), user.Address, user.ID)
	if err != nil {
		return fmt.Errorf("update profile %d: %w", user.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperr.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) UpdateApprovalStatus(ctx context.Context, id int64, status string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET approval_status = ? WHERE id = ?`, status, id)
	if err != nil {
		return fmt.Errorf("update approval of %d: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperr.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET password_hash = ? WHERE id = ?`, passwordHash, id)
	if err != nil {
		return fmt.Errorf("update password of %d: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperr.ErrUserNotFound
	}
	return nil
}
