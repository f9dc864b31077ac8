package due

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var dueRowColumns = []string{"id", "order_id", "order_number", "customer_email", "amount", "status", "created_at", "settled_at"}

func TestRepository_Settle(t *testing.T) {
	id, orderID := uuid.New(), uuid.New()
	now := time.Now()

	t.Run("Success", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectQuery(`UPDATE dues SET status = 'settled'`).
			WithArgs(id).
			WillReturnRows(sqlmock.NewRows(dueRowColumns).
				AddRow(id.String(), orderID.String(), "TS-1", "rina@example.com", "7000.00", "settled", now, now))
		mock.ExpectExec(`UPDATE orders SET payment_status = 'Fully Paid'`).
			WithArgs(orderID).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		d, err := NewRepository(db).Settle(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, StatusSettled, d.Status)
		assert.Equal(t, orderID, d.OrderID)
		assert.True(t, d.Amount.Equal(decimal.NewFromInt(7000)))
		require.NotNil(t, d.SettledAt)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("AlreadySettled", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectQuery(`UPDATE dues`).WithArgs(id).WillReturnError(sql.ErrNoRows)
		mock.ExpectQuery(`SELECT EXISTS`).WithArgs(id).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
		mock.ExpectRollback()

		_, err = NewRepository(db).Settle(context.Background(), id)
		assert.ErrorIs(t, err, ErrAlreadySettled)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("NotFound", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectQuery(`UPDATE dues`).WithArgs(id).WillReturnError(sql.ErrNoRows)
		mock.ExpectQuery(`SELECT EXISTS`).WithArgs(id).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
		mock.ExpectRollback()

		_, err = NewRepository(db).Settle(context.Background(), id)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestRepository_InsertAndList(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	ctx := context.Background()
	d := &Record{ID: uuid.New(), OrderID: uuid.New(), OrderNumber: "TS-2", CustomerEmail: "a@b.c", Amount: decimal.NewFromInt(700), Status: StatusOutstanding}

	mock.ExpectQuery(`INSERT INTO dues`).
		WithArgs(d.ID, d.OrderID, "TS-2", "a@b.c", sqlmock.AnyArg(), StatusOutstanding).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))
	require.NoError(t, Insert(ctx, db, d))

	status := StatusOutstanding
	mock.ExpectQuery(`SELECT .* FROM dues WHERE status = \$1`).
		WithArgs(status).
		WillReturnRows(sqlmock.NewRows(dueRowColumns).
			AddRow(d.ID.String(), d.OrderID.String(), "TS-2", "a@b.c", "700", "outstanding", time.Now(), nil))
	list, err := repo.List(ctx, &status)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Nil(t, list[0].SettledAt)

	mock.ExpectQuery(`SELECT .* FROM dues WHERE LOWER\(customer_email\)`).
		WithArgs("A@b.c").
		WillReturnRows(sqlmock.NewRows(dueRowColumns))
	mine, err := repo.ListByEmail(ctx, "A@b.c")
	require.NoError(t, err)
	assert.Empty(t, mine)

	assert.NoError(t, mock.ExpectationsWereMet())
}
