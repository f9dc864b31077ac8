package coupon

import (
	"context"
	"database/sql"
	"errors"

	"tailorshop-be/internal/logger"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

type Repository interface {
	List(ctx context.Context) ([]Coupon, error)
	GetByCode(ctx context.Context, code string) (*Coupon, error)
	Create(ctx context.Context, c *Coupon) error
	Update(ctx context.Context, c *Coupon) error
	Delete(ctx context.Context, id uuid.UUID) error

	// Redeem atomically bumps usage_count when the coupon is still
	// redeemable. It reports false when no row qualified.
	Redeem(ctx context.Context, code string) (bool, error)
	Release(ctx context.Context, code string) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

const couponColumns = `id, code, discount_percent, is_active, expiry_date, usage_limit, usage_count, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCoupon(row rowScanner) (*Coupon, error) {
	var (
		c     Coupon
		limit sql.NullInt64
	)
	if err := row.Scan(
		&c.ID, &c.Code, &c.DiscountPercent, &c.IsActive, &c.ExpiryDate,
		&limit, &c.UsageCount, &c.CreatedAt, &c.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if limit.Valid {
		n := int(limit.Int64)
		c.UsageLimit = &n
	}
	return &c, nil
}

func (r *repository) List(ctx context.Context) ([]Coupon, error) {
	log := logger.For(ctx, "repository", "ListCoupons")

	rows, err := r.db.QueryContext(ctx, `SELECT `+couponColumns+` FROM coupons ORDER BY created_at DESC`)
	if err != nil {
		log.Error("query failed", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	coupons := []Coupon{}
	for rows.Next() {
		c, err := scanCoupon(rows)
		if err != nil {
			log.Error("scan failed", zap.Error(err))
			return nil, err
		}
		coupons = append(coupons, *c)
	}
	return coupons, rows.Err()
}

func (r *repository) GetByCode(ctx context.Context, code string) (*Coupon, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+couponColumns+` FROM coupons WHERE code = $1`,
		NormalizeCode(code),
	)
	c, err := scanCoupon(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCouponNotFound
	}
	return c, err
}

func (r *repository) Create(ctx context.Context, c *Coupon) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO coupons (id, code, discount_percent, is_active, expiry_date, usage_limit)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING usage_count, created_at, updated_at
	`,
		c.ID, c.Code, c.DiscountPercent, c.IsActive, c.ExpiryDate, c.UsageLimit,
	).Scan(&c.UsageCount, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == PgUniqueViolation {
			return ErrCodeExists
		}
		logger.For(ctx, "repository", "CreateCoupon").Error("insert failed", zap.Error(err))
		return err
	}
	return nil
}

func (r *repository) Update(ctx context.Context, c *Coupon) error {
	err := r.db.QueryRowContext(ctx, `
		UPDATE coupons
		SET code = $2, discount_percent = $3, is_active = $4,
			expiry_date = $5, usage_limit = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING usage_count, created_at, updated_at
	`,
		c.ID, c.Code, c.DiscountPercent, c.IsActive, c.ExpiryDate, c.UsageLimit,
	).Scan(&c.UsageCount, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrCouponNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == PgUniqueViolation {
		return ErrCodeExists
	}
	return err
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM coupons WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrCouponNotFound
	}
	return nil
}

func (r *repository) Redeem(ctx context.Context, code string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE coupons
		SET usage_count = usage_count + 1, updated_at = NOW()
		WHERE code = $1
		  AND is_active = TRUE
		  AND (expiry_date IS NULL OR expiry_date >= NOW())
		  AND (usage_limit IS NULL OR usage_count < usage_limit)
	`, NormalizeCode(code))
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

func (r *repository) Release(ctx context.Context, code string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE coupons
		SET usage_count = GREATEST(usage_count - 1, 0), updated_at = NOW()
		WHERE code = $1
	`, NormalizeCode(code))
	return err
}
