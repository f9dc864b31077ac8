package user

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"tailorshop-be/internal/logger"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

type Repository interface {
	Create(ctx context.Context, u *User) error
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	List(ctx context.Context, role *Role) ([]*User, error)
	Update(ctx context.Context, u *User) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

const userColumns = `id, name, email, phone, password, role, measurements, specialization, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*User, error) {
	var (
		u            User
		measurements []byte
	)
	if err := row.Scan(
		&u.ID, &u.Name, &u.Email, &u.Phone, &u.Password, &u.Role,
		&measurements, &u.Specialization, &u.CreatedAt, &u.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if len(measurements) > 0 {
		if err := json.Unmarshal(measurements, &u.Measurements); err != nil {
			return nil, err
		}
	}
	return &u, nil
}

func encodeMeasurements(m []Measurement) ([]byte, error) {
	if m == nil {
		m = []Measurement{}
	}
	return json.Marshal(m)
}

func (r *repository) Create(ctx context.Context, u *User) error {
	log := logger.For(ctx, "repository", "CreateUser").With(zap.String("email", u.Email))

	measurements, err := encodeMeasurements(u.Measurements)
	if err != nil {
		return err
	}

	err = r.db.QueryRowContext(ctx, `
		INSERT INTO users (id, name, email, phone, password, role, measurements, specialization)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`,
		u.ID, u.Name, u.Email, u.Phone, u.Password, u.Role, measurements, u.Specialization,
	).Scan(&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == PgUniqueViolation {
			log.Warn("email already registered")
			return ErrEmailExists
		}
		log.Error("db: failed to insert user", zap.Error(err))
		return err
	}

	return nil
}

func (r *repository) FindByEmail(ctx context.Context, email string) (*User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE LOWER(email) = LOWER($1)`,
		email,
	)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	return u, err
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`,
		id,
	)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	return u, err
}

func (r *repository) List(ctx context.Context, role *Role) ([]*User, error) {
	log := logger.For(ctx, "repository", "ListUsers")

	query := `SELECT ` + userColumns + ` FROM users`
	args := []any{}
	if role != nil {
		query += ` WHERE role = $1`
		args = append(args, *role)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("query failed", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	users := []*User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			log.Error("scan failed", zap.Error(err))
			return nil, err
		}
		users = append(users, u)
	}

	return users, rows.Err()
}

func (r *repository) Update(ctx context.Context, u *User) error {
	measurements, err := encodeMeasurements(u.Measurements)
	if err != nil {
		return err
	}

	err = r.db.QueryRowContext(ctx, `
		UPDATE users
		SET name = $2, phone = $3, password = $4,
			measurements = $5, specialization = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`,
		u.ID, u.Name, u.Phone, u.Password, measurements, u.Specialization,
	).Scan(&u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrUserNotFound
	}
	return err
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrUserNotFound
	}
	return nil
}
