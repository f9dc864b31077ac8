package user

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var userRowColumns = []string{
	"id", "name", "email", "phone", "password", "role",
	"measurements", "specialization", "created_at", "updated_at",
}

func TestRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	ctx := context.Background()

	u := &User{ID: uuid.New(), Name: "Nadia", Email: "nadia@example.com", Password: "hash", Role: RoleCustomer}

	t.Run("Success", func(t *testing.T) {
		now := time.Now()
		mock.ExpectQuery(`INSERT INTO users`).
			WithArgs(u.ID, u.Name, u.Email, u.Phone, u.Password, u.Role, []byte("[]"), nil).
			WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

		require.NoError(t, repo.Create(ctx, u))
		assert.Equal(t, now, u.CreatedAt)
	})

	t.Run("DuplicateEmail", func(t *testing.T) {
		mock.ExpectQuery(`INSERT INTO users`).
			WillReturnError(&pq.Error{Code: "23505"})

		assert.ErrorIs(t, repo.Create(ctx, u), ErrEmailExists)
	})

	t.Run("DBError", func(t *testing.T) {
		mock.ExpectQuery(`INSERT INTO users`).
			WillReturnError(errors.New("db error"))

		assert.EqualError(t, repo.Create(ctx, u), "db error")
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_FindByEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	ctx := context.Background()
	id := uuid.New()

	t.Run("Success", func(t *testing.T) {
		rows := sqlmock.NewRows(userRowColumns).AddRow(
			id.String(), "Nadia", "nadia@example.com", "017", "hash", "customer",
			[]byte(`[{"label":"Kameez","values":{"chest":36}}]`), nil, time.Now(), time.Now(),
		)
		mock.ExpectQuery(`SELECT .* FROM users WHERE LOWER\(email\) = LOWER\(\$1\)`).
			WithArgs("nadia@example.com").
			WillReturnRows(rows)

		u, err := repo.FindByEmail(ctx, "nadia@example.com")
		require.NoError(t, err)
		assert.Equal(t, id, u.ID)
		assert.Equal(t, RoleCustomer, u.Role)
		require.Len(t, u.Measurements, 1)
		assert.Equal(t, 36.0, u.Measurements[0].Values["chest"])
	})

	t.Run("NotFound", func(t *testing.T) {
		mock.ExpectQuery(`SELECT .* FROM users`).
			WithArgs("ghost@example.com").
			WillReturnError(sql.ErrNoRows)

		_, err := repo.FindByEmail(ctx, "ghost@example.com")
		assert.ErrorIs(t, err, ErrUserNotFound)
	})
}

func TestRepository_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	role := RoleWorker
	spec := "stitching"

	mock.ExpectQuery(`SELECT .* FROM users WHERE role = \$1 ORDER BY created_at DESC`).
		WithArgs(role).
		WillReturnRows(sqlmock.NewRows(userRowColumns).AddRow(
			uuid.New().String(), "Karim", "karim@example.com", "", "hash", "worker",
			[]byte(`[]`), spec, time.Now(), time.Now(),
		))

	users, err := repo.List(context.Background(), &role)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "stitching", *users[0].Specialization)
}

func TestRepository_UpdateAndDelete(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	ctx := context.Background()
	u := &User{ID: uuid.New(), Name: "Nadia"}

	t.Run("UpdateNotFound", func(t *testing.T) {
		mock.ExpectQuery(`UPDATE users`).WillReturnError(sql.ErrNoRows)
		assert.ErrorIs(t, repo.Update(ctx, u), ErrUserNotFound)
	})

	t.Run("DeleteSuccess", func(t *testing.T) {
		mock.ExpectExec(`DELETE FROM users WHERE id = \$1`).
			WithArgs(u.ID).
			WillReturnResult(sqlmock.NewResult(0, 1))
		assert.NoError(t, repo.Delete(ctx, u.ID))
	})

	t.Run("DeleteNotFound", func(t *testing.T) {
		mock.ExpectExec(`DELETE FROM users`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		assert.ErrorIs(t, repo.Delete(ctx, u.ID), ErrUserNotFound)
	})
}
