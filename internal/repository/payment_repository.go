package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-sql-driver/mysql"

	"rmc-erp/internal/apperr"
	"rmc-erp/internal/entity"
	"rmc-erp/internal/sharding"
)

const paymentColumns = `id, order_id, user_id, amount, method, paid_at, transaction_id, idempotency_key`

// PaymentRepository is the append-only ledger. Payments are stored on the shard of
// their order.
type PaymentRepository struct {
	dbShards []*sql.DB
	router   *sharding.ShardRouter
}

func NewPaymentRepository(dbShards []*sql.DB, router *sharding.ShardRouter) *PaymentRepository {
	return &PaymentRepository{dbShards, router}
}

func scanPayment(row rowScanner) (*entity.PaymentRecord, error) {
	var (
		p      entity.PaymentRecord
		method string
		paidAt sql.NullTime
	)
	if err := row.Scan(&p.ID, &p.OrderID, &p.UserID, &p.Amount, &method, &paidAt, &p.TransactionID, &p.IdempotencyKey); err != nil {
		return nil, err
	}
	p.Method = entity.PaymentMethod(method)
	if paidAt.Valid {
		p.PaidAt = utc(paidAt.Time)
	}
	return &p, nil
}

func queryPayments(ctx context.Context, db *sql.DB, query string, args ...interface{}) ([]entity.PaymentRecord, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []entity.PaymentRecord
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, *p)
	}
	return payments, rows.Err()
}

func sortPayments(payments []entity.PaymentRecord) {
	sort.SliceStable(payments, func(i, j int) bool {
		if !payments[i].PaidAt.Equal(payments[j].PaidAt) {
			return payments[i].PaidAt.Before(payments[j].PaidAt)
		}
		return payments[i].ID < payments[j].ID
	})
}

func (r *PaymentRepository) CreatePayment(ctx context.Context, p *entity.PaymentRecord) error {
	query := `INSERT INTO payments (` + paymentColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	db := r.dbShards[r.router.GetShard(p.OrderID)]
	_, err := db.ExecContext(ctx, query, p.ID, p.OrderID, p.UserID, p.Amount, string(p.Method), p.PaidAt.UTC(), p.TransactionID, p.IdempotencyKey)
	if isUniqueViolation(err) {
		return fmt.Errorf("insert payment %s: %w", p.TransactionID, apperr.ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("insert payment %s: %w", p.TransactionID, err)
	}
	return nil
}

// isUniqueViolation recognises duplicate-key errors from MySQL (1062) and SQLite.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == 1062
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// ListByOrder returns the ledger of one order, oldest first.
func (r *PaymentRepository) ListByOrder(ctx context.Context, orderID string) ([]entity.PaymentRecord, error) {
	db := r.dbShards[r.router.GetShard(orderID)]
	payments, err := queryPayments(ctx, db, `SELECT `+paymentColumns+` FROM payments WHERE order_id = ?`, orderID)
	if err != nil {
		return nil, fmt.Errorf("list payments of %s: %w", orderID, err)
	}
	sortPayments(payments)
	return payments, nil
}

// allShards runs query on every shard concurrently and merges the rows oldest first.
func (r *PaymentRepository) allShards(ctx context.Context, query string, args ...interface{}) ([]entity.PaymentRecord, error) {
	type shardResult struct {
		payments []entity.PaymentRecord
		err      error
	}
	resultCh := make(chan shardResult, len(r.dbShards))
	for i, db := range r.dbShards {
		go func(i int, db *sql.DB) {
			payments, err := queryPayments(ctx, db, query, args...)
			if err != nil {
				err = fmt.Errorf("shard %d: %w", i, err)
			}
			resultCh <- shardResult{payments: payments, err: err}
		}(i, db)
	}

	payments := []entity.PaymentRecord{}
	var errs []error
	for range r.dbShards {
		res := <-resultCh
		if res.err != nil {
			errs = append(errs, res.err)
			continue
		}
		payments = append(payments, res.payments...)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	sortPayments(payments)
	return payments, nil
}

// ListByUser collects a user's payments from every shard.
func (r *PaymentRepository) ListByUser(ctx context.Context, userID int64) ([]entity.PaymentRecord, error) {
	return r.allShards(ctx, `SELECT `+paymentColumns+` FROM payments WHERE user_id = ?`, userID)
}

// FindByIdempotencyKey looks the user's payment carrying key up on every shard, so a
// key spent on one order is found whichever shard that order lives on.
func (r *PaymentRepository) FindByIdempotencyKey(ctx context.Context, userID int64, key string) (*entity.PaymentRecord, error) {
	payments, err := r.allShards(ctx, `SELECT `+paymentColumns+` FROM payments WHERE user_id = ? AND idempotency_key = ?`, userID, key)
	if err != nil {
		return nil, fmt.Errorf("find payment by key: %w", err)
	}
	if len(payments) == 0 {
		return nil, apperr.ErrNotFound
	}
	return &payments[0], nil
}
