package notification

import (
	"context"
	"strings"

	"tailorshop-be/internal/logger"
	"tailorshop-be/internal/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Service interface {
	// Create stores a notification for email. It is called by other
	// services as a side effect and needs no caller identity.
	Create(ctx context.Context, email, title, message string) (*Notification, error)
	ListMine(ctx context.Context) ([]Notification, error)
	MarkRead(ctx context.Context, id uuid.UUID) error
	MarkAllRead(ctx context.Context) error
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Create(ctx context.Context, email, title, message string) (*Notification, error) {
	email = strings.TrimSpace(email)
	if email == "" || strings.TrimSpace(message) == "" {
		return nil, ErrInvalidInput
	}

	n := &Notification{
		ID:        uuid.New(),
		UserEmail: email,
		Title:     title,
		Message:   message,
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return nil, err
	}

	logger.For(ctx, "service", "CreateNotification").Info("notification created",
		zap.String("notification_id", n.ID.String()),
		zap.String("email", email),
	)
	return n, nil
}

func (s *service) ListMine(ctx context.Context) ([]Notification, error) {
	email := utils.GetUserEmailFromContext(ctx)
	if email == "" {
		return nil, ErrUnauthenticated
	}
	return s.repo.ListForUser(ctx, email)
}

func (s *service) MarkRead(ctx context.Context, id uuid.UUID) error {
	email := utils.GetUserEmailFromContext(ctx)
	if email == "" {
		return ErrUnauthenticated
	}
	return s.repo.MarkRead(ctx, id, email)
}

func (s *service) MarkAllRead(ctx context.Context) error {
	email := utils.GetUserEmailFromContext(ctx)
	if email == "" {
		return ErrUnauthenticated
	}
	_, err := s.repo.MarkAllRead(ctx, email)
	return err
}
