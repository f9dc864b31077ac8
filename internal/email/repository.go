package email

import (
	"context"
	"database/sql"

	"tailorshop-be/internal/logger"

	"go.uber.org/zap"
)

type Repository interface {
	Create(ctx context.Context, l *Log) error
	List(ctx context.Context, limit, offset int32) ([]Log, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, l *Log) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO email_logs (id, recipient, subject, body, status, error)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`, l.ID, l.To, l.Subject, l.Body, l.Status, l.Error).Scan(&l.CreatedAt)
	if err != nil {
		logger.For(ctx, "repository", "CreateEmailLog").Error("insert failed", zap.Error(err))
	}
	return err
}

func (r *repository) List(ctx context.Context, limit, offset int32) ([]Log, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, recipient, subject, body, status, error, created_at
		FROM email_logs
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := []Log{}
	for rows.Next() {
		var l Log
		if err := rows.Scan(&l.ID, &l.To, &l.Subject, &l.Body, &l.Status, &l.Error, &l.CreatedAt); err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
