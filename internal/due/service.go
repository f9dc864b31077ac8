package due

import (
	"context"

	"tailorshop-be/internal/events"
	"tailorshop-be/internal/logger"
	"tailorshop-be/internal/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Service interface {
	List(ctx context.Context, status *Status) ([]Record, error)
	ListMine(ctx context.Context) ([]Record, error)
	Settle(ctx context.Context, id uuid.UUID) (*Record, error)
}

type service struct {
	repo      Repository
	publisher events.Publisher
}

func NewService(repo Repository, publisher events.Publisher) Service {
	return &service{repo: repo, publisher: publisher}
}

func (s *service) List(ctx context.Context, status *Status) ([]Record, error) {
	if !utils.IsAdmin(ctx) {
		return nil, ErrForbidden
	}
	return s.repo.List(ctx, status)
}

func (s *service) ListMine(ctx context.Context) ([]Record, error) {
	email := utils.GetUserEmailFromContext(ctx)
	if email == "" {
		return nil, ErrUnauthenticated
	}
	return s.repo.ListByEmail(ctx, email)
}

func (s *service) Settle(ctx context.Context, id uuid.UUID) (*Record, error) {
	log := logger.For(ctx, "service", "SettleDue").With(zap.String("due_id", id.String()))

	if !utils.IsAdmin(ctx) {
		return nil, ErrForbidden
	}

	d, err := s.repo.Settle(ctx, id)
	if err != nil {
		log.Info("settle rejected", zap.Error(err))
		return nil, err
	}

	if err := s.publisher.Publish(ctx, events.TopicDueSettled, d.OrderID.String(), d); err != nil {
		log.Warn("failed to publish due-settled", zap.Error(err))
	}

	log.Info("due settled", zap.String("order_id", d.OrderID.String()))
	return d, nil
}
