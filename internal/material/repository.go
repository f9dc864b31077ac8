package material

import (
	"context"
	"database/sql"
	"errors"

	"tailorshop-be/internal/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Repository interface {
	Create(ctx context.Context, req *Request) error
	// List returns every request, or only workerID's when it is non-nil.
	List(ctx context.Context, workerID *uuid.UUID) ([]Request, error)
	// Decide moves a pending request to status. It returns ErrAlreadyDecided
	// when the request is no longer pending.
	Decide(ctx context.Context, id uuid.UUID, status Status) (*Request, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

const requestColumns = `id, worker_id, worker_name, material, quantity, unit, note, status, created_at, decided_at`

func scanRequest(row interface{ Scan(...any) error }) (*Request, error) {
	var m Request
	err := row.Scan(&m.ID, &m.WorkerID, &m.WorkerName, &m.Material, &m.Quantity, &m.Unit, &m.Note, &m.Status, &m.CreatedAt, &m.DecidedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *repository) Create(ctx context.Context, m *Request) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO material_requests (id, worker_id, worker_name, material, quantity, unit, note, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`, m.ID, m.WorkerID, m.WorkerName, m.Material, m.Quantity, m.Unit, m.Note, m.Status).Scan(&m.CreatedAt)
	if err != nil {
		logger.For(ctx, "repository", "CreateMaterialRequest").Error("insert failed", zap.Error(err))
	}
	return err
}

func (r *repository) List(ctx context.Context, workerID *uuid.UUID) ([]Request, error) {
	q := `SELECT ` + requestColumns + ` FROM material_requests`
	var args []any
	if workerID != nil {
		q += ` WHERE worker_id = $1`
		args = append(args, *workerID)
	}
	q += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []Request{}
	for rows.Next() {
		m, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *m)
	}
	return list, rows.Err()
}

func (r *repository) Decide(ctx context.Context, id uuid.UUID, status Status) (*Request, error) {
	m, err := scanRequest(r.db.QueryRowContext(ctx, `
		UPDATE material_requests
		SET status = $2, decided_at = NOW()
		WHERE id = $1 AND status = $3
		RETURNING `+requestColumns,
		id, status, StatusPending,
	))
	if err == nil {
		return m, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	var exists bool
	if err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM material_requests WHERE id = $1)`, id).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrNotFound
	}
	return nil, ErrAlreadyDecided
}
