package notification

import (
	"context"
	"database/sql"

	"tailorshop-be/internal/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Repository interface {
	Create(ctx context.Context, n *Notification) error
	ListForUser(ctx context.Context, email string) ([]Notification, error)
	MarkRead(ctx context.Context, id uuid.UUID, email string) error
	MarkAllRead(ctx context.Context, email string) (int64, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, n *Notification) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO notifications (id, user_email, title, message)
		VALUES ($1, $2, $3, $4)
		RETURNING read, created_at
	`, n.ID, n.UserEmail, n.Title, n.Message).Scan(&n.Read, &n.CreatedAt)
	if err != nil {
		logger.For(ctx, "repository", "CreateNotification").Error("insert failed", zap.Error(err))
	}
	return err
}

func (r *repository) ListForUser(ctx context.Context, email string) ([]Notification, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_email, title, message, read, created_at
		FROM notifications
		WHERE LOWER(user_email) = LOWER($1)
		ORDER BY created_at DESC
	`, email)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []Notification{}
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.UserEmail, &n.Title, &n.Message, &n.Read, &n.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, n)
	}
	return list, rows.Err()
}

func (r *repository) MarkRead(ctx context.Context, id uuid.UUID, email string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE notifications SET read = TRUE
		WHERE id = $1 AND LOWER(user_email) = LOWER($2)
	`, id, email)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) MarkAllRead(ctx context.Context, email string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE notifications SET read = TRUE
		WHERE LOWER(user_email) = LOWER($1) AND read = FALSE
	`, email)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
