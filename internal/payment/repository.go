package payment

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"tailorshop-be/internal/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Repository interface {
	Create(ctx context.Context, p *Payment) error
	GetByProviderID(ctx context.Context, provider Provider, providerPaymentID string) (*Payment, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error
	// Complete marks the payment completed and stamps the order with the
	// provider transaction id in one transaction.
	Complete(ctx context.Context, p *Payment, trxID string) error

	SaveCallback(
		ctx context.Context,
		provider Provider,
		paymentID string,
		outcome Outcome,
		payload json.RawMessage,
	) (callbackID int64, isDuplicate bool, err error)
	MarkCallbackProcessed(ctx context.Context, callbackID int64) error
	MarkCallbackFailed(ctx context.Context, callbackID int64, reason string) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, p *Payment) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO payments (id, order_id, order_number, provider, provider_payment_id, amount, status, redirect_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`,
		p.ID, p.OrderID, p.OrderNumber, p.Provider, p.ProviderPaymentID, p.Amount, p.Status, p.RedirectURL,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		logger.For(ctx, "repository", "CreatePayment").Error("insert failed", zap.Error(err))
	}
	return err
}

func (r *repository) GetByProviderID(ctx context.Context, provider Provider, providerPaymentID string) (*Payment, error) {
	var p Payment
	err := r.db.QueryRowContext(ctx, `
		SELECT id, order_id, order_number, provider, provider_payment_id, trx_id, amount, status, redirect_url, created_at, updated_at
		FROM payments
		WHERE provider = $1 AND provider_payment_id = $2
	`, provider, providerPaymentID).Scan(
		&p.ID, &p.OrderID, &p.OrderNumber, &p.Provider, &p.ProviderPaymentID, &p.TrxID,
		&p.Amount, &p.Status, &p.RedirectURL, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error {
	_, err := r.db.ExecContext(ctx, `UPDATE payments SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	return err
}

func (r *repository) Complete(ctx context.Context, p *Payment, trxID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		UPDATE payments
		SET status = $2, trx_id = $3, updated_at = NOW()
		WHERE id = $1
	`, p.ID, StatusCompleted, trxID)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE orders
		SET payment_ref = $2, updated_at = NOW()
		WHERE id = $1
	`, p.OrderID, trxID)
	if err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	p.Status = StatusCompleted
	p.TrxID = trxID
	return nil
}

func (r *repository) SaveCallback(
	ctx context.Context,
	provider Provider,
	paymentID string,
	outcome Outcome,
	payload json.RawMessage,
) (int64, bool, error) {

	const q = `
	INSERT INTO payment_callbacks (provider, payment_id, outcome, payload)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (provider, payment_id)
	DO NOTHING
	RETURNING id;
	`

	var id int64
	err := r.db.QueryRowContext(ctx, q, provider, paymentID, outcome, []byte(payload)).Scan(&id)
	if err != nil {
		// Duplicate callback → idempotent success
		if errors.Is(err, sql.ErrNoRows) {
			return 0, true, nil
		}
		return 0, false, err
	}
	return id, false, nil
}

func (r *repository) MarkCallbackProcessed(ctx context.Context, callbackID int64) error {
	_, err := r.db.ExecContext(ctx, `UPDATE payment_callbacks SET processed_at = NOW() WHERE id = $1`, callbackID)
	return err
}

func (r *repository) MarkCallbackFailed(ctx context.Context, callbackID int64, reason string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE payment_callbacks SET process_error = $2 WHERE id = $1`, callbackID, reason)
	return err
}
