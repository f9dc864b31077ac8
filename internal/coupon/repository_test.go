package coupon

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var couponRowColumns = []string{
	"id", "code", "discount_percent", "is_active", "expiry_date",
	"usage_limit", "usage_count", "created_at", "updated_at",
}

func TestRepository_GetByCode(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	ctx := context.Background()
	id := uuid.New()
	expiry := time.Now().Add(time.Hour)

	t.Run("Success", func(t *testing.T) {
		mock.ExpectQuery(`SELECT .* FROM coupons WHERE code = \$1`).
			WithArgs("EID20").
			WillReturnRows(sqlmock.NewRows(couponRowColumns).
				AddRow(id.String(), "EID20", "20.00", true, expiry, int64(50), 3, time.Now(), time.Now()))

		c, err := repo.GetByCode(ctx, " eid20")
		require.NoError(t, err)
		assert.Equal(t, id, c.ID)
		assert.True(t, c.DiscountPercent.Equal(decimal.NewFromInt(20)))
		require.NotNil(t, c.UsageLimit)
		assert.Equal(t, 50, *c.UsageLimit)
		require.NotNil(t, c.ExpiryDate)
	})

	t.Run("Unlimited", func(t *testing.T) {
		mock.ExpectQuery(`SELECT .* FROM coupons`).
			WithArgs("FREE").
			WillReturnRows(sqlmock.NewRows(couponRowColumns).
				AddRow(id.String(), "FREE", "5", true, nil, nil, 0, time.Now(), time.Now()))

		c, err := repo.GetByCode(ctx, "free")
		require.NoError(t, err)
		assert.Nil(t, c.UsageLimit)
		assert.Nil(t, c.ExpiryDate)
	})

	t.Run("NotFound", func(t *testing.T) {
		mock.ExpectQuery(`SELECT .* FROM coupons`).WillReturnError(sql.ErrNoRows)

		_, err := repo.GetByCode(ctx, "nope")
		assert.ErrorIs(t, err, ErrCouponNotFound)
	})
}

func TestRepository_Redeem(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	ctx := context.Background()

	t.Run("Counted", func(t *testing.T) {
		mock.ExpectExec(`UPDATE coupons SET usage_count = usage_count \+ 1`).
			WithArgs("EID20").
			WillReturnResult(sqlmock.NewResult(0, 1))

		ok, err := repo.Redeem(ctx, "eid20")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("NotRedeemable", func(t *testing.T) {
		mock.ExpectExec(`UPDATE coupons SET usage_count = usage_count \+ 1`).
			WithArgs("EID20").
			WillReturnResult(sqlmock.NewResult(0, 0))

		ok, err := repo.Redeem(ctx, "EID20")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("Release", func(t *testing.T) {
		mock.ExpectExec(`UPDATE coupons SET usage_count = GREATEST`).
			WithArgs("EID20").
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.Release(ctx, "eid20"))
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	c := &Coupon{ID: uuid.New(), Code: "NEW10", DiscountPercent: decimal.NewFromInt(10), IsActive: true}

	t.Run("Success", func(t *testing.T) {
		mock.ExpectQuery(`INSERT INTO coupons`).
			WithArgs(c.ID, "NEW10", sqlmock.AnyArg(), true, nil, nil).
			WillReturnRows(sqlmock.NewRows([]string{"usage_count", "created_at", "updated_at"}).
				AddRow(0, time.Now(), time.Now()))

		assert.NoError(t, repo.Create(context.Background(), c))
	})

	t.Run("Duplicate", func(t *testing.T) {
		mock.ExpectQuery(`INSERT INTO coupons`).WillReturnError(&pq.Error{Code: "23505"})

		assert.ErrorIs(t, repo.Create(context.Background(), c), ErrCodeExists)
	})
}

func TestRepository_Delete(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	id := uuid.New()

	mock.ExpectExec(`DELETE FROM coupons WHERE id = \$1`).
		WithArgs(id).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.Delete(context.Background(), id), ErrCouponNotFound)
}
