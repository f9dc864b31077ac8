package payment

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"

	"tailorshop-be/internal/config"
	"tailorshop-be/internal/events"
	"tailorshop-be/internal/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Callback is the provider's report when it returns the customer.
type Callback struct {
	PaymentID string
	Outcome   Outcome
	// TrxID is the validation token of providers that report on the
	// redirect. It is verified before use.
	TrxID   string
	Payload json.RawMessage
}

type Service interface {
	Start(ctx context.Context, req StartRequest) (*Payment, error)
	// HandleCallback settles a returning payment and yields the storefront
	// URL the customer should land on. Repeated callbacks are no-ops.
	HandleCallback(ctx context.Context, provider Provider, cb Callback) string
}

type Recorder interface {
	PaymentResult(provider, result string)
}

type service struct {
	repo        Repository
	gateways    map[Provider]Gateway
	publicURL   string
	frontendURL string
	publisher   events.Publisher
	recorder    Recorder
}

func NewService(repo Repository, cfg *config.Config, publisher events.Publisher, recorder Recorder, gateways ...Gateway) Service {
	byProvider := make(map[Provider]Gateway, len(gateways))
	for _, g := range gateways {
		byProvider[g.Provider()] = g
	}
	return &service{
		repo:        repo,
		gateways:    byProvider,
		publicURL:   strings.TrimRight(cfg.PublicURL, "/"),
		frontendURL: strings.TrimRight(cfg.FrontendURL, "/"),
		publisher:   publisher,
		recorder:    recorder,
	}
}

func (s *service) callbackURL(p Provider) string {
	if p == ProviderBkash {
		return s.publicURL + "/api/bkash/execute"
	}
	return s.publicURL + "/api/payment/callback"
}

func (s *service) record(p Provider, result string) {
	if s.recorder != nil {
		s.recorder.PaymentResult(string(p), result)
	}
}

func (s *service) Start(ctx context.Context, req StartRequest) (*Payment, error) {
	log := logger.For(ctx, "service", "StartPayment").With(
		zap.String("provider", string(req.Provider)),
		zap.String("order_id", req.OrderID.String()),
	)

	gw, ok := s.gateways[req.Provider]
	if !ok {
		return nil, ErrUnknownProvider
	}
	if !req.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	p := &Payment{
		ID:          uuid.New(),
		OrderID:     req.OrderID,
		OrderNumber: req.OrderNumber,
		Provider:    req.Provider,
		Amount:      req.Amount,
		Status:      StatusInitiated,
	}
	req.Reference = p.ID.String()

	res, err := gw.Create(ctx, req, s.callbackURL(req.Provider))
	if err != nil {
		s.record(req.Provider, "error")
		log.Error("provider create failed", zap.Error(err))
		return nil, err
	}
	p.ProviderPaymentID = res.ProviderPaymentID
	p.RedirectURL = res.RedirectURL

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}

	s.record(req.Provider, "started")
	log.Info("payment started", zap.String("payment_id", p.ProviderPaymentID))
	return p, nil
}

func (s *service) HandleCallback(ctx context.Context, provider Provider, cb Callback) string {
	log := logger.For(ctx, "service", "HandlePaymentCallback").With(
		zap.String("provider", string(provider)),
		zap.String("payment_id", cb.PaymentID),
		zap.String("outcome", string(cb.Outcome)),
	)

	if cb.PaymentID == "" {
		return s.resultURL(provider, OutcomeFailure, "", ErrMissingPaymentID.Error())
	}

	callbackID, duplicate, err := s.repo.SaveCallback(ctx, provider, cb.PaymentID, cb.Outcome, cb.Payload)
	if err != nil {
		log.Error("failed to record callback", zap.Error(err))
		return s.resultURL(provider, OutcomeFailure, cb.PaymentID, "could not record payment")
	}

	p, err := s.repo.GetByProviderID(ctx, provider, cb.PaymentID)
	if err != nil {
		log.Warn("callback for unknown payment", zap.Error(err))
		s.markFailed(ctx, callbackID, err)
		return s.resultURL(provider, OutcomeFailure, cb.PaymentID, err.Error())
	}

	if duplicate {
		log.Info("duplicate callback ignored")
		return s.resultForStatus(provider, p)
	}

	if cb.Outcome != OutcomeSuccess {
		status := StatusFailed
		if cb.Outcome == OutcomeCancel {
			status = StatusCancelled
		}
		if err := s.repo.UpdateStatus(ctx, p.ID, status); err != nil {
			log.Error("failed to update payment status", zap.Error(err))
		}
		s.markProcessed(ctx, callbackID)
		s.record(provider, string(status))
		return s.resultURL(provider, cb.Outcome, cb.PaymentID, "")
	}

	trxID, err := s.confirm(ctx, provider, p, cb)
	if err != nil {
		log.Warn("payment confirmation failed", zap.Error(err))
		if err := s.repo.UpdateStatus(ctx, p.ID, StatusFailed); err != nil {
			log.Error("failed to update payment status", zap.Error(err))
		}
		s.markFailed(ctx, callbackID, err)
		s.record(provider, string(StatusFailed))
		return s.resultURL(provider, OutcomeFailure, cb.PaymentID, err.Error())
	}

	if err := s.repo.Complete(ctx, p, trxID); err != nil {
		log.Error("failed to complete payment", zap.Error(err))
		s.markFailed(ctx, callbackID, err)
		return s.resultURL(provider, OutcomeFailure, cb.PaymentID, "payment received but could not be recorded")
	}
	s.markProcessed(ctx, callbackID)
	s.record(provider, string(StatusCompleted))

	if err := s.publisher.Publish(ctx, events.TopicPaymentCompleted, p.OrderID.String(), p); err != nil {
		log.Warn("failed to publish payment-completed", zap.Error(err))
	}

	log.Info("payment completed", zap.String("trx_id", trxID))
	return s.resultURL(provider, OutcomeSuccess, cb.PaymentID, "")
}

// confirm checks a success report with the provider and yields the
// transaction id to record.
func (s *service) confirm(ctx context.Context, provider Provider, p *Payment, cb Callback) (string, error) {
	switch gw := s.gateways[provider].(type) {
	case Executor:
		res, err := gw.Execute(ctx, cb.PaymentID)
		if err != nil {
			return "", err
		}
		return res.TrxID, nil
	case Verifier:
		res, err := gw.Verify(ctx, p, cb.TrxID)
		if err != nil {
			return "", err
		}
		return res.TrxID, nil
	}
	return "", ErrUnknownProvider
}

func (s *service) markProcessed(ctx context.Context, callbackID int64) {
	if err := s.repo.MarkCallbackProcessed(ctx, callbackID); err != nil {
		logger.FromCtx(ctx).Error("failed to mark callback processed", zap.Error(err))
	}
}

func (s *service) markFailed(ctx context.Context, callbackID int64, cause error) {
	if callbackID == 0 {
		return
	}
	if err := s.repo.MarkCallbackFailed(ctx, callbackID, cause.Error()); err != nil {
		logger.FromCtx(ctx).Error("failed to mark callback failed", zap.Error(err))
	}
}

func (s *service) resultForStatus(provider Provider, p *Payment) string {
	switch p.Status {
	case StatusCompleted:
		return s.resultURL(provider, OutcomeSuccess, p.ProviderPaymentID, "")
	case StatusCancelled:
		return s.resultURL(provider, OutcomeCancel, p.ProviderPaymentID, "")
	case StatusInitiated:
		return s.resultURL(provider, OutcomeFailure, p.ProviderPaymentID, "payment is still being processed")
	}
	return s.resultURL(provider, OutcomeFailure, p.ProviderPaymentID, "")
}

// resultURL builds the storefront landing page. bKash returns carry
// bkash_status so the storefront can tell the flows apart.
func (s *service) resultURL(provider Provider, outcome Outcome, paymentID, errMsg string) string {
	key := "payment_status"
	if provider == ProviderBkash {
		key = "bkash_status"
	}

	q := url.Values{}
	q.Set(key, string(outcome))
	if paymentID != "" {
		q.Set("paymentID", paymentID)
	}
	if errMsg != "" {
		q.Set("error", errMsg)
	}
	return s.frontendURL + "/checkout?" + q.Encode()
}
