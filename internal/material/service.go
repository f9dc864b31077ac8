package material

import (
	"context"
	"strings"

	"tailorshop-be/internal/logger"
	"tailorshop-be/internal/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Service interface {
	Create(ctx context.Context, input CreateInput) (*Request, error)
	Decide(ctx context.Context, id uuid.UUID, status Status) (*Request, error)
	List(ctx context.Context) ([]Request, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

// Create raises a request on behalf of the calling worker.
func (s *service) Create(ctx context.Context, input CreateInput) (*Request, error) {
	if utils.GetUserRoleFromContext(ctx) != utils.RoleWorker {
		return nil, ErrForbidden
	}
	workerID, ok := utils.GetUserIDFromContext(ctx)
	if !ok {
		return nil, ErrForbidden
	}

	input.Material = strings.TrimSpace(input.Material)
	input.Unit = strings.TrimSpace(input.Unit)
	if input.Material == "" || input.Unit == "" || !input.Quantity.IsPositive() {
		return nil, ErrInvalidInput
	}

	m := &Request{
		ID:         uuid.New(),
		WorkerID:   workerID,
		WorkerName: utils.GetUserNameFromContext(ctx),
		Material:   input.Material,
		Quantity:   input.Quantity,
		Unit:       input.Unit,
		Note:       strings.TrimSpace(input.Note),
		Status:     StatusPending,
	}
	if err := s.repo.Create(ctx, m); err != nil {
		return nil, err
	}

	logger.For(ctx, "service", "CreateMaterialRequest").Info("material requested",
		zap.String("request_id", m.ID.String()),
		zap.String("material", m.Material),
	)
	return m, nil
}

func (s *service) Decide(ctx context.Context, id uuid.UUID, status Status) (*Request, error) {
	if !utils.IsAdmin(ctx) {
		return nil, ErrForbidden
	}
	if !status.Decision() {
		return nil, ErrInvalidDecision
	}

	m, err := s.repo.Decide(ctx, id, status)
	if err != nil {
		return nil, err
	}
	logger.For(ctx, "service", "DecideMaterialRequest").Info("material request decided",
		zap.String("request_id", id.String()),
		zap.String("status", string(status)),
	)
	return m, nil
}

// List shows admins every request and workers their own.
func (s *service) List(ctx context.Context) ([]Request, error) {
	switch utils.GetUserRoleFromContext(ctx) {
	case utils.RoleAdmin:
		return s.repo.List(ctx, nil)
	case utils.RoleWorker:
		id, ok := utils.GetUserIDFromContext(ctx)
		if !ok {
			return nil, ErrForbidden
		}
		return s.repo.List(ctx, &id)
	}
	return nil, ErrForbidden
}
