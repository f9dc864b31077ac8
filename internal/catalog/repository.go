package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"tailorshop-be/internal/logger"

	"go.uber.org/zap"
)

type Repository interface {
	List(ctx context.Context, collection string) ([]Document, error)
	Get(ctx context.Context, collection, id string) (*Document, error)
	// Create reports ErrExists when the id is already taken in the collection.
	Create(ctx context.Context, d *Document) error
	Replace(ctx context.Context, d *Document) error
	// Merge shallow-merges patch into the stored object and returns the result.
	Merge(ctx context.Context, collection, id string, patch map[string]any) (*Document, error)
	Delete(ctx context.Context, collection, id string) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

const docColumns = `collection, id, data, created_at, updated_at`

func scanDocument(row interface{ Scan(...any) error }) (*Document, error) {
	var (
		d   Document
		raw []byte
	)
	if err := row.Scan(&d.Collection, &d.ID, &raw, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, err
	}
	d.Data = map[string]any{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &d.Data); err != nil {
			return nil, err
		}
	}
	return &d, nil
}

func (r *repository) List(ctx context.Context, collection string) ([]Document, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+docColumns+`
		FROM documents
		WHERE collection = $1
		ORDER BY created_at DESC
	`, collection)
	if err != nil {
		logger.For(ctx, "repository", "ListDocuments").Error("query failed", zap.String("collection", collection), zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	docs := []Document{}
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *d)
	}
	return docs, rows.Err()
}

func (r *repository) Get(ctx context.Context, collection, id string) (*Document, error) {
	d, err := scanDocument(r.db.QueryRowContext(ctx,
		`SELECT `+docColumns+` FROM documents WHERE collection = $1 AND id = $2`, collection, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return d, err
}

func (r *repository) Create(ctx context.Context, d *Document) error {
	raw, err := json.Marshal(d.Data)
	if err != nil {
		return err
	}
	err = r.db.QueryRowContext(ctx, `
		INSERT INTO documents (collection, id, data)
		VALUES ($1, $2, $3)
		ON CONFLICT (collection, id) DO NOTHING
		RETURNING created_at, updated_at
	`, d.Collection, d.ID, raw).Scan(&d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrExists
	}
	return err
}

func (r *repository) Replace(ctx context.Context, d *Document) error {
	raw, err := json.Marshal(d.Data)
	if err != nil {
		return err
	}
	err = r.db.QueryRowContext(ctx, `
		UPDATE documents
		SET data = $3, updated_at = NOW()
		WHERE collection = $1 AND id = $2
		RETURNING created_at, updated_at
	`, d.Collection, d.ID, raw).Scan(&d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func (r *repository) Merge(ctx context.Context, collection, id string, patch map[string]any) (*Document, error) {
	raw, err := json.Marshal(patch)
	if err != nil {
		return nil, err
	}
	d, err := scanDocument(r.db.QueryRowContext(ctx, `
		UPDATE documents
		SET data = data || $3::jsonb, updated_at = NOW()
		WHERE collection = $1 AND id = $2
		RETURNING `+docColumns,
		collection, id, raw,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return d, err
}

func (r *repository) Delete(ctx context.Context, collection, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM documents WHERE collection = $1 AND id = $2`, collection, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
