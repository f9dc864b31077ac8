package due

import (
	"context"
	"database/sql"
	"errors"

	"tailorshop-be/internal/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Repository interface {
	List(ctx context.Context, status *Status) ([]Record, error)
	ListByEmail(ctx context.Context, email string) ([]Record, error)
	// Settle flips an outstanding record to settled. It returns
	// ErrAlreadySettled when the record was not outstanding.
	Settle(ctx context.Context, id uuid.UUID) (*Record, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

const dueColumns = `id, order_id, order_number, customer_email, amount, status, created_at, settled_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*Record, error) {
	var d Record
	err := row.Scan(&d.ID, &d.OrderID, &d.OrderNumber, &d.CustomerEmail, &d.Amount, &d.Status, &d.CreatedAt, &d.SettledAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// RowQuerier is satisfied by both *sql.DB and *sql.Tx.
type RowQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Insert writes d through q. Checkout passes its own transaction so an
// order never commits without its due.
func Insert(ctx context.Context, q RowQuerier, d *Record) error {
	err := q.QueryRowContext(ctx, `
		INSERT INTO dues (id, order_id, order_number, customer_email, amount, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`, d.ID, d.OrderID, d.OrderNumber, d.CustomerEmail, d.Amount, d.Status).Scan(&d.CreatedAt)
	if err != nil {
		logger.For(ctx, "repository", "InsertDue").Error("insert failed", zap.Error(err))
	}
	return err
}

func (r *repository) query(ctx context.Context, q string, args ...any) ([]Record, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []Record{}
	for rows.Next() {
		d, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *d)
	}
	return list, rows.Err()
}

func (r *repository) List(ctx context.Context, status *Status) ([]Record, error) {
	if status != nil {
		return r.query(ctx, `SELECT `+dueColumns+` FROM dues WHERE status = $1 ORDER BY created_at DESC`, *status)
	}
	return r.query(ctx, `SELECT `+dueColumns+` FROM dues ORDER BY created_at DESC`)
}

func (r *repository) ListByEmail(ctx context.Context, email string) ([]Record, error) {
	return r.query(ctx, `SELECT `+dueColumns+` FROM dues WHERE LOWER(customer_email) = LOWER($1) ORDER BY created_at DESC`, email)
}

// Settle closes the due and the order's balance in one transaction.
func (r *repository) Settle(ctx context.Context, id uuid.UUID) (*Record, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	d, err := scanRecord(tx.QueryRowContext(ctx, `
		UPDATE dues
		SET status = 'settled', settled_at = NOW()
		WHERE id = $1 AND status = 'outstanding'
		RETURNING `+dueColumns, id))
	if errors.Is(err, sql.ErrNoRows) {
		var exists bool
		if err := tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM dues WHERE id = $1)`, id).Scan(&exists); err != nil {
			return nil, err
		}
		if !exists {
			return nil, ErrNotFound
		}
		return nil, ErrAlreadySettled
	}
	if err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE orders
		SET payment_status = 'Fully Paid', paid_amount = total, due_amount = 0, updated_at = NOW()
		WHERE id = $1
	`, d.OrderID)
	if err != nil {
		logger.For(ctx, "repository", "SettleDue").Error("failed to close order balance", zap.Error(err))
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return d, nil
}
