package order

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"tailorshop-be/internal/checkout"
	"tailorshop-be/internal/due"
	"tailorshop-be/internal/logger"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

type Repository interface {
	// Create inserts the order, its items and, when d is non-nil, its due
	// in one transaction. It reports false, and writes nothing, when
	// another order already holds the idempotency key.
	Create(ctx context.Context, o *Order, d *due.Record) (bool, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Order, error)
	GetByIdempotencyKey(ctx context.Context, key string) (*Order, error)
	FetchOrders(ctx context.Context, f Filter, limit, offset int32) ([]Order, error)
	CountOrders(ctx context.Context, f Filter) (int64, error)
	FetchOrderItems(ctx context.Context, orderIDs []uuid.UUID) (map[uuid.UUID][]Item, error)

	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error
	// UpdateProductionStep returns the step the order had before.
	UpdateProductionStep(ctx context.Context, id uuid.UUID, step ProductionStep) (ProductionStep, error)
	SetPaymentURL(ctx context.Context, id uuid.UUID, url string) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

const orderColumns = `
	o.id, o.order_number, o.status, o.production_step, o.payment_status,
	o.payment_type, o.payment_method, o.payment_ref, o.payment_url,
	o.subtotal, o.discount_amount, o.delivery, o.total, o.paid_amount, o.due_amount, o.coupon_code,
	o.customer_name, o.customer_email, o.phone, o.address, o.city,
	o.note, o.order_type, o.delivery_date, o.idempotency_key, o.created_at, o.updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*Order, error) {
	var (
		o   Order
		key sql.NullString
	)
	err := row.Scan(
		&o.ID, &o.OrderNumber, &o.Status, &o.ProductionStep, &o.PaymentStatus,
		&o.PaymentType, &o.PaymentMethod, &o.PaymentRef, &o.PaymentURL,
		&o.Subtotal, &o.DiscountAmount, &o.Delivery, &o.Total, &o.PaidAmount, &o.DueAmount, &o.CouponCode,
		&o.CustomerName, &o.CustomerEmail, &o.Phone, &o.Address, &o.City,
		&o.Note, &o.OrderType, &o.DeliveryDate, &key, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	o.IdempotencyKey = key.String
	return &o, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func (r *repository) Create(ctx context.Context, o *Order, d *due.Record) (bool, error) {
	log := logger.For(ctx, "repository", "CreateOrder").With(zap.String("order_number", o.OrderNumber))

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	// 1. Insert order; a taken idempotency key yields no row.
	err = tx.QueryRowContext(ctx, `
		INSERT INTO orders (
			id, order_number, status, production_step, payment_status,
			payment_type, payment_method,
			subtotal, discount_amount, delivery, total, paid_amount, due_amount, coupon_code,
			customer_name, customer_email, phone, address, city,
			note, order_type, delivery_date, idempotency_key
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23)
		ON CONFLICT (idempotency_key) DO NOTHING
		RETURNING created_at, updated_at
	`,
		o.ID, o.OrderNumber, o.Status, o.ProductionStep, o.PaymentStatus,
		o.PaymentType, o.PaymentMethod,
		o.Subtotal, o.DiscountAmount, o.Delivery, o.Total, o.PaidAmount, o.DueAmount, o.CouponCode,
		o.CustomerName, o.CustomerEmail, o.Phone, o.Address, o.City,
		o.Note, o.OrderType, o.DeliveryDate, nullString(o.IdempotencyKey),
	).Scan(&o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		log.Info("idempotency key already used", zap.String("idempotency_key", o.IdempotencyKey))
		return false, nil
	}
	if err != nil {
		log.Error("insert order failed", zap.Error(err))
		return false, err
	}

	// 2. Insert items
	for i := range o.Items {
		it := &o.Items[i]

		var custom []byte
		if it.CustomOrder != nil {
			if custom, err = json.Marshal(it.CustomOrder); err != nil {
				return false, err
			}
		}

		err = tx.QueryRowContext(ctx, `
			INSERT INTO order_items (
				order_id, product_id, name, quantity, price, size, color, fabric, custom_order
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
			RETURNING id
		`,
			o.ID, it.ProductID, it.Name, it.Quantity, it.Price, it.Size, it.Color, it.Fabric, custom,
		).Scan(&it.ID)
		if err != nil {
			log.Error("insert order item failed", zap.Error(err))
			return false, err
		}
	}

	// 3. Insert due
	if d != nil {
		if err := due.Insert(ctx, tx, d); err != nil {
			return false, err
		}
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}

func (r *repository) getOne(ctx context.Context, where string, arg any) (*Order, error) {
	o, err := scanOrder(r.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders o WHERE `+where, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}

	items, err := r.FetchOrderItems(ctx, []uuid.UUID{o.ID})
	if err != nil {
		return nil, err
	}
	o.Items = items[o.ID]
	if o.Items == nil {
		o.Items = []Item{}
	}
	return o, nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Order, error) {
	return r.getOne(ctx, `o.id = $1`, id)
}

func (r *repository) GetByIdempotencyKey(ctx context.Context, key string) (*Order, error) {
	return r.getOne(ctx, `o.idempotency_key = $1`, key)
}

// where renders the filter as a WHERE clause starting at $1.
func where(f Filter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if f.Status != nil {
		args = append(args, *f.Status)
		conds = append(conds, fmt.Sprintf("o.status = $%d", len(args)))
	}
	if f.Step != nil {
		args = append(args, *f.Step)
		conds = append(conds, fmt.Sprintf("o.production_step = $%d", len(args)))
	}
	if f.CustomerEmail != "" {
		args = append(args, f.CustomerEmail)
		conds = append(conds, fmt.Sprintf("LOWER(o.customer_email) = LOWER($%d)", len(args)))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (r *repository) FetchOrders(ctx context.Context, f Filter, limit, offset int32) ([]Order, error) {
	log := logger.For(ctx, "repository", "FetchOrders")

	clause, args := where(f)
	query := `SELECT ` + orderColumns + ` FROM orders o` + clause +
		fmt.Sprintf(" ORDER BY o.created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query orders", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	orders := []Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			log.Error("failed to scan order row", zap.Error(err))
			return nil, err
		}
		orders = append(orders, *o)
	}
	return orders, rows.Err()
}

func (r *repository) CountOrders(ctx context.Context, f Filter) (int64, error) {
	clause, args := where(f)
	var n int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders o`+clause, args...).Scan(&n)
	return n, err
}

func (r *repository) FetchOrderItems(ctx context.Context, orderIDs []uuid.UUID) (map[uuid.UUID][]Item, error) {
	out := make(map[uuid.UUID][]Item, len(orderIDs))
	if len(orderIDs) == 0 {
		return out, nil
	}

	ids := make([]string, len(orderIDs))
	for i, id := range orderIDs {
		ids[i] = id.String()
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, order_id, product_id, name, quantity, price, size, color, fabric, custom_order
		FROM order_items
		WHERE order_id = ANY($1::uuid[])
		ORDER BY id
	`, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			it      Item
			orderID uuid.UUID
			custom  []byte
		)
		if err := rows.Scan(
			&it.ID, &orderID, &it.ProductID, &it.Name, &it.Quantity, &it.Price,
			&it.Size, &it.Color, &it.Fabric, &custom,
		); err != nil {
			return nil, err
		}
		if len(custom) > 0 {
			it.CustomOrder = &checkout.CustomOrder{}
			if err := json.Unmarshal(custom, it.CustomOrder); err != nil {
				return nil, err
			}
		}
		out[orderID] = append(out[orderID], it)
	}
	return out, rows.Err()
}

// UpdateStatus refuses to move a cancelled order.
func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE orders
		SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status <> $3
	`, id, status, StatusCancelled)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return r.missOrCancelled(ctx, id)
	}
	return nil
}

func (r *repository) UpdateProductionStep(ctx context.Context, id uuid.UUID, step ProductionStep) (ProductionStep, error) {
	var prev ProductionStep
	err := r.db.QueryRowContext(ctx, `
		UPDATE orders o
		SET production_step = $2, updated_at = NOW()
		FROM (SELECT id, production_step FROM orders WHERE id = $1 FOR UPDATE) old
		WHERE o.id = old.id
		RETURNING old.production_step
	`, id, step).Scan(&prev)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrOrderNotFound
	}
	return prev, err
}

func (r *repository) missOrCancelled(ctx context.Context, id uuid.UUID) error {
	var exists bool
	if err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrOrderNotFound
	}
	return ErrOrderCancelled
}

func (r *repository) SetPaymentURL(ctx context.Context, id uuid.UUID, url string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE orders SET payment_url = $2, updated_at = NOW() WHERE id = $1`, id, url)
	return err
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrOrderNotFound
	}
	return nil
}
