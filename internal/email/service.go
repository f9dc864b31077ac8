package email

import (
	"context"
	"strings"

	"tailorshop-be/internal/logger"
	"tailorshop-be/internal/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Service interface {
	// Send delivers msg and writes exactly one log entry whatever the
	// outcome. The returned error is the delivery error, if any.
	Send(ctx context.Context, msg Message) (*Log, error)
	SendAsAdmin(ctx context.Context, msg Message) (*Log, error)
	List(ctx context.Context, limit, page int32) ([]Log, error)
	Verify(ctx context.Context) error
}

// Recorder is told about each delivery outcome.
type Recorder interface {
	EmailResult(status string)
}

type service struct {
	repo     Repository
	sender   Sender
	recorder Recorder
}

func NewService(repo Repository, sender Sender, recorder Recorder) Service {
	return &service{repo: repo, sender: sender, recorder: recorder}
}

func (s *service) Send(ctx context.Context, msg Message) (*Log, error) {
	log := logger.For(ctx, "service", "SendEmail").With(zap.String("to", msg.To))

	msg.To = strings.TrimSpace(msg.To)
	if msg.To == "" || strings.TrimSpace(msg.Subject) == "" {
		return nil, ErrInvalidInput
	}

	entry := &Log{
		ID:      uuid.New(),
		To:      msg.To,
		Subject: msg.Subject,
		Body:    msg.Body,
		Status:  StatusSent,
	}

	sendErr := s.sender.Send(ctx, msg)
	if sendErr != nil {
		entry.Status = StatusFailed
		entry.Error = sendErr.Error()
		log.Warn("email delivery failed", zap.Error(sendErr))
	}
	if s.recorder != nil {
		s.recorder.EmailResult(string(entry.Status))
	}

	if err := s.repo.Create(ctx, entry); err != nil {
		log.Error("failed to write email log", zap.Error(err))
		if sendErr == nil {
			return entry, err
		}
	}
	return entry, sendErr
}

func (s *service) SendAsAdmin(ctx context.Context, msg Message) (*Log, error) {
	if !utils.IsAdmin(ctx) {
		return nil, ErrForbidden
	}
	return s.Send(ctx, msg)
}

func (s *service) List(ctx context.Context, limit, page int32) ([]Log, error) {
	if !utils.IsAdmin(ctx) {
		return nil, ErrForbidden
	}
	limit, _, offset := utils.Paginate(limit, page)
	return s.repo.List(ctx, limit, offset)
}

func (s *service) Verify(ctx context.Context) error {
	if !utils.IsAdmin(ctx) {
		return ErrForbidden
	}
	return s.sender.Verify(ctx)
}
