package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"tailorshop-be/internal/checkout"
	"tailorshop-be/internal/coupon"
	"tailorshop-be/internal/due"
	"tailorshop-be/internal/email"
	"tailorshop-be/internal/events"
	"tailorshop-be/internal/logger"
	"tailorshop-be/internal/notification"
	"tailorshop-be/internal/payment"
	"tailorshop-be/internal/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Service interface {
	Checkout(ctx context.Context, input CheckoutInput, idempotencyKey string) (*CheckoutResult, error)
	Get(ctx context.Context, id uuid.UUID) (*Order, error)
	List(ctx context.Context, f Filter) (*Page, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) (*Order, error)
	UpdateProductionStep(ctx context.Context, id uuid.UUID, step ProductionStep) (*Order, error)
	// StartPayment opens a fresh provider page for an order that still
	// needs paying online.
	StartPayment(ctx context.Context, id uuid.UUID) (string, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type Coupons interface {
	Validate(ctx context.Context, code string) (*coupon.Applied, error)
	Redeem(ctx context.Context, code string) error
	Release(ctx context.Context, code string) error
}

type Notifier interface {
	Create(ctx context.Context, email, title, message string) (*notification.Notification, error)
}

type Mailer interface {
	Send(ctx context.Context, msg email.Message) (*email.Log, error)
}

type Payments interface {
	Start(ctx context.Context, req payment.StartRequest) (*payment.Payment, error)
}

type Recorder interface {
	OrderCreated(method, paymentType string)
	Transition(kind, to string)
}

// Deps groups the collaborators of the order service.
type Deps struct {
	Coupons   Coupons
	Notifier  Notifier
	Mailer    Mailer
	Payments  Payments
	Publisher events.Publisher
	Recorder  Recorder
}

type service struct {
	repo Repository
	Deps
	newNumber func() string
}

func NewService(repo Repository, deps Deps) Service {
	if deps.Publisher == nil {
		deps.Publisher = events.Nop{}
	}
	return &service{repo: repo, Deps: deps, newNumber: utils.GenerateOrderNumber}
}

func (s *service) Checkout(ctx context.Context, input CheckoutInput, idempotencyKey string) (*CheckoutResult, error) {
	log := logger.For(ctx, "service", "Checkout").With(zap.String("idempotency_key", idempotencyKey))

	idempotencyKey = strings.TrimSpace(idempotencyKey)
	if idempotencyKey != "" {
		existing, err := s.repo.GetByIdempotencyKey(ctx, idempotencyKey)
		if err == nil {
			log.Info("checkout replayed", zap.String("order_id", existing.ID.String()))
			return &CheckoutResult{Order: existing, RedirectURL: existing.PaymentURL, Replayed: true}, nil
		}
		if !errors.Is(err, ErrOrderNotFound) {
			return nil, err
		}
	}

	// Customers always order under their own account. Staff may place an
	// order on behalf of a walk-in customer.
	if sessionEmail := utils.GetUserEmailFromContext(ctx); sessionEmail != "" {
		if input.CustomerEmail == "" || utils.GetUserRoleFromContext(ctx) == utils.RoleCustomer {
			input.CustomerEmail = sessionEmail
		}
	}
	if err := validateInput(input); err != nil {
		return nil, err
	}

	var applied *coupon.Applied
	if code := coupon.NormalizeCode(input.CouponCode); code != "" {
		a, err := s.Coupons.Validate(ctx, code)
		if err != nil {
			log.Info("coupon rejected at checkout", zap.String("code", code), zap.Error(err))
			return nil, err
		}
		applied = a
	}

	totals, err := checkout.Quote(input.Items, applied, input.PaymentType)
	if err != nil {
		return nil, err
	}

	o := newOrder(input, totals, applied, s.newNumber(), idempotencyKey)

	var outstanding *due.Record
	if o.DueAmount.IsPositive() {
		if outstanding, err = due.NewOutstanding(o.ID, o.OrderNumber, o.CustomerEmail, o.DueAmount); err != nil {
			return nil, err
		}
	}

	// Count the coupon first so a lost race rejects the order rather than
	// overrunning the usage limit.
	if applied != nil {
		if err := s.Coupons.Redeem(ctx, applied.Code); err != nil {
			return nil, err
		}
	}

	created, err := s.repo.Create(ctx, o, outstanding)
	if err != nil || !created {
		s.releaseCoupon(ctx, applied)
	}
	if err != nil {
		return nil, err
	}
	if !created {
		existing, err := s.repo.GetByIdempotencyKey(ctx, idempotencyKey)
		if err != nil {
			if errors.Is(err, ErrOrderNotFound) {
				return nil, ErrInFlight
			}
			return nil, err
		}
		return &CheckoutResult{Order: existing, RedirectURL: existing.PaymentURL, Replayed: true}, nil
	}

	log = log.With(zap.String("order_id", o.ID.String()), zap.String("order_number", o.OrderNumber))
	log.Info("order placed",
		zap.String("total", o.Total.StringFixed(2)),
		zap.String("payment_type", string(o.PaymentType)),
		zap.String("payment_method", string(o.PaymentMethod)),
	)
	if s.Recorder != nil {
		s.Recorder.OrderCreated(string(o.PaymentMethod), string(o.PaymentType))
	}

	if outstanding != nil {
		log.Info("due recorded", zap.String("due_id", outstanding.ID.String()), zap.String("amount", outstanding.Amount.StringFixed(2)))
	}

	s.publish(ctx, events.TopicOrderCreated, o)

	result := &CheckoutResult{Order: o}
	if o.PaymentMethod.Redirects() {
		url, err := s.startPayment(ctx, o)
		if err != nil {
			return result, fmt.Errorf("%w: %v", ErrPaymentStart, err)
		}
		result.RedirectURL = url
	}
	return result, nil
}

func validateInput(in CheckoutInput) error {
	if strings.TrimSpace(in.CustomerName) == "" ||
		strings.TrimSpace(in.CustomerEmail) == "" ||
		strings.TrimSpace(in.Phone) == "" ||
		strings.TrimSpace(in.Address) == "" {
		return ErrMissingContact
	}
	if !in.PaymentMethod.Valid() {
		return checkout.ErrInvalidMethod
	}
	if !in.PaymentType.Valid() {
		return checkout.ErrInvalidPaymentType
	}
	return checkout.ValidateItems(in.Items)
}

func newOrder(in CheckoutInput, t checkout.Totals, applied *coupon.Applied, number, key string) *Order {
	o := &Order{
		ID:             uuid.New(),
		OrderNumber:    number,
		Status:         StatusPending,
		ProductionStep: StepQueue,
		PaymentStatus:  PaymentFullyPaid,
		PaymentType:    in.PaymentType,
		PaymentMethod:  in.PaymentMethod,
		Subtotal:       t.Subtotal,
		DiscountAmount: t.DiscountAmount,
		Delivery:       t.Delivery,
		Total:          t.Total,
		PaidAmount:     t.PaidAmount,
		DueAmount:      t.DueAmount,
		CustomerName:   strings.TrimSpace(in.CustomerName),
		CustomerEmail:  strings.ToLower(strings.TrimSpace(in.CustomerEmail)),
		Phone:          strings.TrimSpace(in.Phone),
		Address:        strings.TrimSpace(in.Address),
		City:           strings.TrimSpace(in.City),
		Note:           in.Note,
		OrderType:      in.OrderType,
		DeliveryDate:   in.DeliveryDate,
		IdempotencyKey: key,
		Items:          make([]Item, 0, len(in.Items)),
	}
	if !t.FullyPaid() {
		o.PaymentStatus = PaymentPartiallyPaid
	}
	if applied != nil {
		o.CouponCode = applied.Code
	}
	for _, ci := range in.Items {
		o.Items = append(o.Items, Item{CartItem: ci})
	}
	return o
}

func (s *service) releaseCoupon(ctx context.Context, applied *coupon.Applied) {
	if applied == nil {
		return
	}
	if err := s.Coupons.Release(ctx, applied.Code); err != nil {
		logger.FromCtx(ctx).Error("failed to release coupon", zap.String("code", applied.Code), zap.Error(err))
	}
}

func (s *service) startPayment(ctx context.Context, o *Order) (string, error) {
	provider := payment.ProviderOnline
	if o.PaymentMethod == checkout.MethodBkash {
		provider = payment.ProviderBkash
	}

	p, err := s.Payments.Start(ctx, payment.StartRequest{
		OrderID:       o.ID,
		OrderNumber:   o.OrderNumber,
		Provider:      provider,
		Amount:        o.PaidAmount,
		CustomerName:  o.CustomerName,
		CustomerEmail: o.CustomerEmail,
		Phone:         o.Phone,
	})
	if err != nil {
		return "", err
	}

	o.PaymentURL = p.RedirectURL
	if err := s.repo.SetPaymentURL(ctx, o.ID, p.RedirectURL); err != nil {
		logger.FromCtx(ctx).Warn("failed to store payment url", zap.Error(err))
	}
	return p.RedirectURL, nil
}

func (s *service) StartPayment(ctx context.Context, id uuid.UUID) (string, error) {
	o, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	if o.Status == StatusCancelled {
		return "", ErrOrderCancelled
	}
	if !o.PaymentMethod.Redirects() {
		return "", checkout.ErrInvalidMethod
	}
	return s.startPayment(ctx, o)
}

// canRead lets staff read every order and customers only their own.
func canRead(ctx context.Context, o *Order) error {
	if utils.IsStaff(ctx) || utils.IsInternalRequest(ctx) {
		return nil
	}
	email := utils.GetUserEmailFromContext(ctx)
	if email == "" {
		return ErrUnauthorized
	}
	if !strings.EqualFold(email, o.CustomerEmail) {
		return ErrForbidden
	}
	return nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*Order, error) {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := canRead(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *service) List(ctx context.Context, f Filter) (*Page, error) {
	log := logger.For(ctx, "service", "ListOrders")

	if !utils.IsStaff(ctx) {
		email := utils.GetUserEmailFromContext(ctx)
		if email == "" {
			return nil, ErrUnauthorized
		}
		f.CustomerEmail = email
	}
	if f.Status != nil && !f.Status.Valid() {
		return nil, ErrInvalidStatus
	}
	if f.Step != nil && !f.Step.Valid() {
		return nil, ErrInvalidStep
	}

	limit, page, offset := utils.Paginate(f.Limit, f.Page)

	orders, err := s.repo.FetchOrders(ctx, f, limit, offset)
	if err != nil {
		log.Error("fetch orders failed", zap.Error(err))
		return nil, err
	}
	total, err := s.repo.CountOrders(ctx, f)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, len(orders))
	for i := range orders {
		ids[i] = orders[i].ID
	}
	items, err := s.repo.FetchOrderItems(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Items = items[orders[i].ID]
		if orders[i].Items == nil {
			orders[i].Items = []Item{}
		}
	}

	return &Page{Items: orders, Total: total, Limit: limit, Page: page}, nil
}

func (s *service) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) (*Order, error) {
	log := logger.For(ctx, "service", "UpdateOrderStatus").With(
		zap.String("order_id", id.String()),
		zap.String("status", string(status)),
	)

	if !utils.IsAdmin(ctx) {
		return nil, ErrForbidden
	}
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}

	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		log.Info("status update rejected", zap.Error(err))
		return nil, err
	}

	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.Recorder != nil {
		s.Recorder.Transition("status", string(status))
	}
	s.publish(ctx, events.TopicOrderStatusUpdated, o)
	log.Info("order status updated")
	return o, nil
}

func (s *service) UpdateProductionStep(ctx context.Context, id uuid.UUID, step ProductionStep) (*Order, error) {
	log := logger.For(ctx, "service", "UpdateProductionStep").With(
		zap.String("order_id", id.String()),
		zap.String("step", string(step)),
	)

	if !utils.IsStaff(ctx) {
		return nil, ErrForbidden
	}
	if !step.Valid() {
		return nil, ErrInvalidStep
	}

	prev, err := s.repo.UpdateProductionStep(ctx, id, step)
	if err != nil {
		log.Info("step update rejected", zap.Error(err))
		return nil, err
	}

	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.Recorder != nil {
		s.Recorder.Transition("step", string(step))
	}
	s.publish(ctx, events.TopicOrderStatusUpdated, o)

	if step == StepReady && prev != StepReady {
		s.announceReady(ctx, o)
	}

	log.Info("production step updated", zap.String("from", string(prev)))
	return o, nil
}

// announceReady tells the customer their garment is ready. Delivery
// failures are logged; the step change stands.
func (s *service) announceReady(ctx context.Context, o *Order) {
	s.publish(ctx, events.TopicOrderReady, o)

	if o.CustomerEmail == "" {
		return
	}
	log := logger.For(ctx, "service", "AnnounceReady").With(zap.String("order_id", o.ID.String()))

	title := "Your order is ready"
	message := fmt.Sprintf("Good news %s! Order %s has finished production and is ready.", o.CustomerName, o.OrderNumber)

	if _, err := s.Notifier.Create(ctx, o.CustomerEmail, title, message); err != nil {
		log.Error("failed to create ready notification", zap.Error(err))
	}

	body := message
	if o.DueAmount.IsPositive() {
		body += fmt.Sprintf("\n\nRemaining balance: %s. Please settle it on delivery or pickup.", o.DueAmount.StringFixed(2))
	}
	if _, err := s.Mailer.Send(ctx, email.Message{To: o.CustomerEmail, Subject: title + " - " + o.OrderNumber, Body: body}); err != nil {
		log.Warn("ready email not delivered", zap.Error(err))
	}
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if !utils.IsAdmin(ctx) {
		return ErrForbidden
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	logger.For(ctx, "service", "DeleteOrder").Info("order deleted", zap.String("order_id", id.String()))
	return nil
}

func (s *service) publish(ctx context.Context, topic string, o *Order) {
	ev := events.OrderEvent{
		OrderID:        o.ID.String(),
		OrderNumber:    o.OrderNumber,
		CustomerEmail:  o.CustomerEmail,
		Status:         string(o.Status),
		ProductionStep: string(o.ProductionStep),
		PaymentStatus:  string(o.PaymentStatus),
		Total:          o.Total.StringFixed(2),
		At:             time.Now().UTC(),
	}
	if err := s.Publisher.Publish(ctx, topic, ev.OrderID, ev); err != nil {
		logger.FromCtx(ctx).Warn("failed to publish order event", zap.String("topic", topic), zap.Error(err))
	}
}
