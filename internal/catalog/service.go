package catalog

import (
	"context"
	"errors"
	"strings"

	"tailorshop-be/internal/logger"
	"tailorshop-be/internal/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Service interface {
	List(ctx context.Context, collection string) ([]Document, error)
	Get(ctx context.Context, collection, id string) (*Document, error)
	Create(ctx context.Context, collection string, data map[string]any) (*Document, error)
	Replace(ctx context.Context, collection, id string, data map[string]any) (*Document, error)
	Patch(ctx context.Context, collection, id string, patch map[string]any) (*Document, error)
	Delete(ctx context.Context, collection, id string) error
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) List(ctx context.Context, collection string) ([]Document, error) {
	if !Known(collection) {
		return nil, ErrUnknownCollection
	}
	return s.repo.List(ctx, collection)
}

func (s *service) Get(ctx context.Context, collection, id string) (*Document, error) {
	if !Known(collection) {
		return nil, ErrUnknownCollection
	}
	return s.repo.Get(ctx, collection, id)
}

func canWrite(ctx context.Context) error {
	if utils.GetUserRoleFromContext(ctx) == "" {
		return ErrUnauthenticated
	}
	if !utils.IsAdmin(ctx) {
		return ErrForbidden
	}
	return nil
}

// Create keeps a client-supplied id so records made offline keep their
// identity; otherwise it assigns one.
func (s *service) Create(ctx context.Context, collection string, data map[string]any) (*Document, error) {
	if !Known(collection) {
		return nil, ErrUnknownCollection
	}
	if err := canWrite(ctx); err != nil && !(customerWritable[collection] && errors.Is(err, ErrForbidden)) {
		return nil, err
	}
	if data == nil {
		return nil, ErrInvalidDocument
	}

	id, _ := data["id"].(string)
	id = strings.TrimSpace(id)
	if id == "" {
		id = uuid.NewString()
	}
	stripReserved(data)

	d := &Document{Collection: collection, ID: id, Data: data}
	if err := s.repo.Create(ctx, d); err != nil {
		return nil, err
	}
	logger.For(ctx, "service", "CreateDocument").Info("document created",
		zap.String("collection", collection),
		zap.String("id", id),
	)
	return d, nil
}

func (s *service) Replace(ctx context.Context, collection, id string, data map[string]any) (*Document, error) {
	if !Known(collection) {
		return nil, ErrUnknownCollection
	}
	if err := canWrite(ctx); err != nil {
		return nil, err
	}
	if data == nil {
		return nil, ErrInvalidDocument
	}
	stripReserved(data)

	d := &Document{Collection: collection, ID: id, Data: data}
	if err := s.repo.Replace(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *service) Patch(ctx context.Context, collection, id string, patch map[string]any) (*Document, error) {
	if !Known(collection) {
		return nil, ErrUnknownCollection
	}
	if err := canWrite(ctx); err != nil {
		return nil, err
	}
	if patch == nil {
		return nil, ErrInvalidDocument
	}
	stripReserved(patch)
	return s.repo.Merge(ctx, collection, id, patch)
}

func (s *service) Delete(ctx context.Context, collection, id string) error {
	if !Known(collection) {
		return ErrUnknownCollection
	}
	if err := canWrite(ctx); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, collection, id); err != nil {
		return err
	}
	logger.For(ctx, "service", "DeleteDocument").Info("document deleted",
		zap.String("collection", collection),
		zap.String("id", id),
	)
	return nil
}
