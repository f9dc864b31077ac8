package order

import (
	"context"
	"errors"
	"sync"
	"testing"

	"tailorshop-be/internal/checkout"
	"tailorshop-be/internal/coupon"
	"tailorshop-be/internal/due"
	"tailorshop-be/internal/email"
	"tailorshop-be/internal/events"
	"tailorshop-be/internal/notification"
	"tailorshop-be/internal/payment"
	"tailorshop-be/internal/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- Mocks ---

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, o *Order, d *due.Record) (bool, error) {
	args := m.Called(ctx, o, d)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) GetByID(ctx context.Context, id uuid.UUID) (*Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Order), args.Error(1)
}

func (m *MockRepository) GetByIdempotencyKey(ctx context.Context, key string) (*Order, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Order), args.Error(1)
}

func (m *MockRepository) FetchOrders(ctx context.Context, f Filter, limit, offset int32) ([]Order, error) {
	args := m.Called(ctx, f, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Order), args.Error(1)
}

func (m *MockRepository) CountOrders(ctx context.Context, f Filter) (int64, error) {
	args := m.Called(ctx, f)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRepository) FetchOrderItems(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID][]Item, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uuid.UUID][]Item), args.Error(1)
}

func (m *MockRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error {
	return m.Called(ctx, id, status).Error(0)
}

func (m *MockRepository) UpdateProductionStep(ctx context.Context, id uuid.UUID, step ProductionStep) (ProductionStep, error) {
	args := m.Called(ctx, id, step)
	return args.Get(0).(ProductionStep), args.Error(1)
}

func (m *MockRepository) SetPaymentURL(ctx context.Context, id uuid.UUID, url string) error {
	return m.Called(ctx, id, url).Error(0)
}

func (m *MockRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

type MockCoupons struct {
	mock.Mock
}

func (m *MockCoupons) Validate(ctx context.Context, code string) (*coupon.Applied, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*coupon.Applied), args.Error(1)
}

func (m *MockCoupons) Redeem(ctx context.Context, code string) error {
	return m.Called(ctx, code).Error(0)
}

func (m *MockCoupons) Release(ctx context.Context, code string) error {
	return m.Called(ctx, code).Error(0)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Create(ctx context.Context, email, title, message string) (*notification.Notification, error) {
	args := m.Called(ctx, email, title, message)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*notification.Notification), args.Error(1)
}

type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) Send(ctx context.Context, msg email.Message) (*email.Log, error) {
	args := m.Called(ctx, msg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*email.Log), args.Error(1)
}

type MockPayments struct {
	mock.Mock
}

func (m *MockPayments) Start(ctx context.Context, req payment.StartRequest) (*payment.Payment, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Payment), args.Error(1)
}

type recordingPublisher struct {
	mu     sync.Mutex
	topics []string
}

func (p *recordingPublisher) Publish(_ context.Context, topic, _ string, _ any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) count(topic string) int {
	n := 0
	for _, t := range p.topics {
		if t == topic {
			n++
		}
	}
	return n
}

// --- Helpers ---

type fixture struct {
	repo      *MockRepository
	coupons   *MockCoupons
	notifier  *MockNotifier
	mailer    *MockMailer
	payments  *MockPayments
	publisher *recordingPublisher
	svc       *service
}

func newFixture() *fixture {
	f := &fixture{
		repo:      new(MockRepository),
		coupons:   new(MockCoupons),
		notifier:  new(MockNotifier),
		mailer:    new(MockMailer),
		payments:  new(MockPayments),
		publisher: &recordingPublisher{},
	}
	f.svc = NewService(f.repo, Deps{
		Coupons:   f.coupons,
		Notifier:  f.notifier,
		Mailer:    f.mailer,
		Payments:  f.payments,
		Publisher: f.publisher,
	}).(*service)
	f.svc.newNumber = func() string { return "TS-TEST-0001" }
	return f
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func input(method checkout.PaymentMethod, pt checkout.PaymentType, items ...checkout.CartItem) CheckoutInput {
	return CheckoutInput{
		Items:         items,
		PaymentType:   pt,
		PaymentMethod: method,
		CustomerName:  "Rina",
		CustomerEmail: "Rina@Example.com",
		Phone:         "01700000000",
		Address:       "House 1, Road 2",
		City:          "Dhaka",
	}
}

func cartLine(price string, qty int) checkout.CartItem {
	return checkout.CartItem{ProductID: "p-1", Name: "Sherwani", Price: dec(price), Quantity: qty}
}

func adminCtx() context.Context {
	return utils.SetUserContext(context.Background(), uuid.New(), "admin@tailor.test", utils.RoleAdmin, "Admin")
}

func workerCtx() context.Context {
	return utils.SetUserContext(context.Background(), uuid.New(), "worker@tailor.test", utils.RoleWorker, "Karim")
}

func customerCtx(email string) context.Context {
	return utils.SetUserContext(context.Background(), uuid.New(), email, utils.RoleCustomer, "Rina")
}

// --- Checkout ---

func TestCheckout_FullCOD(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.repo.On("Create", ctx, mock.AnythingOfType("*order.Order"), mock.MatchedBy(func(d *due.Record) bool { return d == nil })).Return(true, nil)

	res, err := f.svc.Checkout(ctx, input(checkout.MethodCOD, checkout.PaymentFull, cartLine("2400", 2)), "")
	require.NoError(t, err)

	o := res.Order
	assert.Equal(t, StatusPending, o.Status)
	assert.Equal(t, StepQueue, o.ProductionStep)
	assert.Equal(t, PaymentFullyPaid, o.PaymentStatus)
	assert.True(t, o.Subtotal.Equal(dec("4800")))
	assert.True(t, o.Delivery.Equal(dec("150")))
	assert.True(t, o.Total.Equal(dec("4950")))
	assert.True(t, o.PaidAmount.Add(o.DueAmount).Equal(o.Total))
	assert.Equal(t, "rina@example.com", o.CustomerEmail)
	assert.Equal(t, "TS-TEST-0001", o.OrderNumber)
	assert.Empty(t, res.RedirectURL)
	assert.False(t, res.Replayed)

	f.payments.AssertNotCalled(t, "Start", mock.Anything, mock.Anything)
	assert.Equal(t, 1, f.publisher.count(events.TopicOrderCreated))
}

func TestCheckout_AdvanceCreatesDue(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.repo.On("Create", ctx, mock.AnythingOfType("*order.Order"), mock.MatchedBy(func(d *due.Record) bool {
		return d != nil && d.OrderNumber == "TS-TEST-0001" && d.CustomerEmail == "rina@example.com" &&
			d.Amount.Equal(dec("7000")) && d.Status == due.StatusOutstanding
	})).Return(true, nil)

	res, err := f.svc.Checkout(ctx, input(checkout.MethodCOD, checkout.PaymentAdvance, cartLine("5000", 2)), "")
	require.NoError(t, err)

	o := res.Order
	assert.True(t, o.Total.Equal(dec("10000")))
	assert.True(t, o.Delivery.IsZero())
	assert.True(t, o.PaidAmount.Equal(dec("3000")))
	assert.True(t, o.DueAmount.Equal(dec("7000")))
	assert.Equal(t, PaymentPartiallyPaid, o.PaymentStatus)
	f.repo.AssertNumberOfCalls(t, "Create", 1)
}

func TestCheckout_WithCoupon(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.coupons.On("Validate", ctx, "EID10").Return(&coupon.Applied{Code: "EID10", Percent: dec("10")}, nil)
	f.coupons.On("Redeem", ctx, "EID10").Return(nil)
	f.repo.On("Create", ctx, mock.MatchedBy(func(o *Order) bool { return o.CouponCode == "EID10" }), mock.Anything).Return(true, nil)

	in := input(checkout.MethodCOD, checkout.PaymentFull, cartLine("1000", 1))
	in.CouponCode = " eid10 "

	res, err := f.svc.Checkout(ctx, in, "")
	require.NoError(t, err)
	assert.True(t, res.Order.DiscountAmount.Equal(dec("100")))
	assert.True(t, res.Order.Total.Equal(dec("1050")))
	f.coupons.AssertNotCalled(t, "Release", mock.Anything, mock.Anything)
}

func TestCheckout_CouponRejected(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.coupons.On("Validate", ctx, "OLD").Return(nil, coupon.ErrCouponExpired)

	in := input(checkout.MethodCOD, checkout.PaymentFull, cartLine("1000", 1))
	in.CouponCode = "old"

	_, err := f.svc.Checkout(ctx, in, "")
	assert.ErrorIs(t, err, coupon.ErrCouponExpired)
	f.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestCheckout_IdempotentReplay(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	existing := &Order{ID: uuid.New(), OrderNumber: "TS-OLD", PaymentURL: "https://pay/abc"}

	f.repo.On("GetByIdempotencyKey", ctx, "key-1").Return(existing, nil)

	res, err := f.svc.Checkout(ctx, input(checkout.MethodBkash, checkout.PaymentFull, cartLine("100", 1)), "key-1")
	require.NoError(t, err)
	assert.True(t, res.Replayed)
	assert.Equal(t, existing, res.Order)
	assert.Equal(t, "https://pay/abc", res.RedirectURL)

	f.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
	f.payments.AssertNotCalled(t, "Start", mock.Anything, mock.Anything)
}

func TestCheckout_IdempotencyRaceReleasesCoupon(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	winner := &Order{ID: uuid.New(), OrderNumber: "TS-WIN"}

	f.repo.On("GetByIdempotencyKey", ctx, "key-2").Return(nil, ErrOrderNotFound).Once()
	f.coupons.On("Validate", ctx, "EID10").Return(&coupon.Applied{Code: "EID10", Percent: dec("10")}, nil)
	f.coupons.On("Redeem", ctx, "EID10").Return(nil)
	f.repo.On("Create", ctx, mock.AnythingOfType("*order.Order"), mock.Anything).Return(false, nil)
	f.coupons.On("Release", ctx, "EID10").Return(nil)
	f.repo.On("GetByIdempotencyKey", ctx, "key-2").Return(winner, nil).Once()

	in := input(checkout.MethodCOD, checkout.PaymentFull, cartLine("100", 1))
	in.CouponCode = "EID10"

	res, err := f.svc.Checkout(ctx, in, "key-2")
	require.NoError(t, err)
	assert.True(t, res.Replayed)
	assert.Equal(t, "TS-WIN", res.Order.OrderNumber)
	f.coupons.AssertNumberOfCalls(t, "Release", 1)
	assert.Zero(t, f.publisher.count(events.TopicOrderCreated))
}

func TestCheckout_CreateFailsReleasesCoupon(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.coupons.On("Validate", ctx, "EID10").Return(&coupon.Applied{Code: "EID10", Percent: dec("10")}, nil)
	f.coupons.On("Redeem", ctx, "EID10").Return(nil)
	f.repo.On("Create", ctx, mock.Anything, mock.Anything).Return(false, errors.New("db down"))
	f.coupons.On("Release", ctx, "EID10").Return(nil)

	in := input(checkout.MethodCOD, checkout.PaymentFull, cartLine("100", 1))
	in.CouponCode = "EID10"

	_, err := f.svc.Checkout(ctx, in, "")
	assert.EqualError(t, err, "db down")
	f.coupons.AssertNumberOfCalls(t, "Release", 1)
}

func TestCheckout_DueWriteFailsThenRetrySucceeds(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	in := input(checkout.MethodCOD, checkout.PaymentAdvance, cartLine("5000", 2))
	in.CouponCode = "EID10"

	var written []*due.Record
	record := func(args mock.Arguments) { written = append(written, args.Get(2).(*due.Record)) }
	withDue := mock.MatchedBy(func(d *due.Record) bool { return d != nil && d.Amount.Equal(dec("7000")) })

	f.repo.On("GetByIdempotencyKey", ctx, "key-3").Return(nil, ErrOrderNotFound).Twice()
	f.coupons.On("Validate", ctx, "EID10").Return(&coupon.Applied{Code: "EID10", Percent: dec("10")}, nil)
	f.coupons.On("Redeem", ctx, "EID10").Return(nil)
	f.coupons.On("Release", ctx, "EID10").Return(nil)
	f.repo.On("Create", ctx, mock.AnythingOfType("*order.Order"), withDue).Run(record).Return(false, errors.New("dues unavailable")).Once()
	f.repo.On("Create", ctx, mock.AnythingOfType("*order.Order"), withDue).Run(record).Return(true, nil).Once()

	_, err := f.svc.Checkout(ctx, in, "key-3")
	assert.EqualError(t, err, "dues unavailable")
	assert.Zero(t, f.publisher.count(events.TopicOrderCreated))
	f.coupons.AssertNumberOfCalls(t, "Release", 1)

	res, err := f.svc.Checkout(ctx, in, "key-3")
	require.NoError(t, err)
	assert.False(t, res.Replayed)
	assert.True(t, res.Order.DueAmount.IsPositive())
	assert.Equal(t, 1, f.publisher.count(events.TopicOrderCreated))

	f.repo.AssertNumberOfCalls(t, "Create", 2)
	f.coupons.AssertNumberOfCalls(t, "Redeem", 2)
	f.coupons.AssertNumberOfCalls(t, "Release", 1)
	require.Len(t, written, 2)
	assert.Equal(t, res.Order.ID, written[1].OrderID)
}

func TestCheckout_BkashRedirect(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.repo.On("Create", ctx, mock.Anything, mock.Anything).Return(true, nil)
	f.payments.On("Start", ctx, mock.MatchedBy(func(r payment.StartRequest) bool {
		return r.Provider == payment.ProviderBkash && r.Amount.Equal(dec("3000"))
	})).Return(&payment.Payment{RedirectURL: "https://bkash/pay/TR1"}, nil)
	f.repo.On("SetPaymentURL", ctx, mock.Anything, "https://bkash/pay/TR1").Return(nil)

	res, err := f.svc.Checkout(ctx, input(checkout.MethodBkash, checkout.PaymentAdvance, cartLine("10000", 1)), "")
	require.NoError(t, err)
	assert.Equal(t, "https://bkash/pay/TR1", res.RedirectURL)
	assert.Equal(t, "https://bkash/pay/TR1", res.Order.PaymentURL)
}

func TestCheckout_PaymentStartFails(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.repo.On("Create", ctx, mock.Anything, mock.Anything).Return(true, nil)
	f.payments.On("Start", ctx, mock.Anything).Return(nil, payment.ErrNotConfigured)

	res, err := f.svc.Checkout(ctx, input(checkout.MethodOnline, checkout.PaymentFull, cartLine("100", 1)), "")
	assert.ErrorIs(t, err, ErrPaymentStart)
	require.NotNil(t, res)
	assert.NotNil(t, res.Order)
}

func TestCheckout_Validation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	in := input(checkout.MethodCOD, checkout.PaymentFull, cartLine("100", 1))
	in.Phone = ""
	_, err := f.svc.Checkout(ctx, in, "")
	assert.ErrorIs(t, err, ErrMissingContact)

	_, err = f.svc.Checkout(ctx, input("card", checkout.PaymentFull, cartLine("100", 1)), "")
	assert.ErrorIs(t, err, checkout.ErrInvalidMethod)

	_, err = f.svc.Checkout(ctx, input(checkout.MethodCOD, checkout.PaymentFull), "")
	assert.ErrorIs(t, err, checkout.ErrEmptyCart)

	f.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestCheckout_EmailFromSession(t *testing.T) {
	f := newFixture()
	ctx := customerCtx("session@example.com")

	f.repo.On("Create", ctx, mock.MatchedBy(func(o *Order) bool { return o.CustomerEmail == "session@example.com" }), mock.Anything).Return(true, nil)

	in := input(checkout.MethodCOD, checkout.PaymentFull, cartLine("100", 1))
	in.CustomerEmail = ""

	_, err := f.svc.Checkout(ctx, in, "")
	require.NoError(t, err)
}

func TestCheckout_CustomerCannotOrderForAnotherEmail(t *testing.T) {
	f := newFixture()
	ctx := customerCtx("session@example.com")

	f.repo.On("Create", ctx, mock.MatchedBy(func(o *Order) bool { return o.CustomerEmail == "session@example.com" }), mock.Anything).Return(true, nil)

	in := input(checkout.MethodCOD, checkout.PaymentFull, cartLine("100", 1))
	in.CustomerEmail = "victim@example.com"

	res, err := f.svc.Checkout(ctx, in, "")
	require.NoError(t, err)
	assert.Equal(t, "session@example.com", res.Order.CustomerEmail)
}

func TestCheckout_StaffMayOrderForCustomer(t *testing.T) {
	f := newFixture()
	ctx := adminCtx()

	f.repo.On("Create", ctx, mock.MatchedBy(func(o *Order) bool { return o.CustomerEmail == "walkin@example.com" }), mock.Anything).Return(true, nil)

	in := input(checkout.MethodCOD, checkout.PaymentFull, cartLine("100", 1))
	in.CustomerEmail = "Walkin@Example.com"

	_, err := f.svc.Checkout(ctx, in, "")
	require.NoError(t, err)
}

// --- Production step ---

func readyOrder(id uuid.UUID, email string) *Order {
	return &Order{
		ID: id, OrderNumber: "TS-1", CustomerName: "Rina", CustomerEmail: email,
		Status: StatusInProgress, ProductionStep: StepReady, DueAmount: dec("7000"),
	}
}

func TestUpdateProductionStep_ReadyNotifiesOnce(t *testing.T) {
	f := newFixture()
	ctx := workerCtx()
	id := uuid.New()

	f.repo.On("UpdateProductionStep", ctx, id, StepReady).Return(StepFinishing, nil)
	f.repo.On("GetByID", ctx, id).Return(readyOrder(id, "rina@example.com"), nil)
	f.notifier.On("Create", ctx, "rina@example.com", "Your order is ready", mock.Anything).Return(&notification.Notification{}, nil)
	f.mailer.On("Send", ctx, mock.MatchedBy(func(m email.Message) bool {
		return m.To == "rina@example.com"
	})).Return(&email.Log{Status: email.StatusSent}, nil)

	o, err := f.svc.UpdateProductionStep(ctx, id, StepReady)
	require.NoError(t, err)
	assert.Equal(t, StepReady, o.ProductionStep)

	f.notifier.AssertNumberOfCalls(t, "Create", 1)
	f.mailer.AssertNumberOfCalls(t, "Send", 1)
	assert.Equal(t, 1, f.publisher.count(events.TopicOrderReady))
}

func TestUpdateProductionStep_ReadyAgainHasNoSideEffects(t *testing.T) {
	f := newFixture()
	ctx := workerCtx()
	id := uuid.New()

	f.repo.On("UpdateProductionStep", ctx, id, StepReady).Return(StepReady, nil)
	f.repo.On("GetByID", ctx, id).Return(readyOrder(id, "rina@example.com"), nil)

	_, err := f.svc.UpdateProductionStep(ctx, id, StepReady)
	require.NoError(t, err)

	f.notifier.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.mailer.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
	assert.Zero(t, f.publisher.count(events.TopicOrderReady))
}

func TestUpdateProductionStep_ReadyWithoutEmail(t *testing.T) {
	f := newFixture()
	ctx := adminCtx()
	id := uuid.New()

	f.repo.On("UpdateProductionStep", ctx, id, StepReady).Return(StepStitching, nil)
	f.repo.On("GetByID", ctx, id).Return(readyOrder(id, ""), nil)

	_, err := f.svc.UpdateProductionStep(ctx, id, StepReady)
	require.NoError(t, err)
	f.notifier.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.mailer.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestUpdateProductionStep_MailFailureKeepsStep(t *testing.T) {
	f := newFixture()
	ctx := workerCtx()
	id := uuid.New()

	f.repo.On("UpdateProductionStep", ctx, id, StepReady).Return(StepQueue, nil)
	f.repo.On("GetByID", ctx, id).Return(readyOrder(id, "rina@example.com"), nil)
	f.notifier.On("Create", ctx, mock.Anything, mock.Anything, mock.Anything).Return(&notification.Notification{}, nil)
	f.mailer.On("Send", ctx, mock.Anything).Return(&email.Log{Status: email.StatusFailed}, errors.New("smtp down"))

	o, err := f.svc.UpdateProductionStep(ctx, id, StepReady)
	require.NoError(t, err)
	assert.Equal(t, StepReady, o.ProductionStep)
}

func TestUpdateProductionStep_AnyStepAllowed(t *testing.T) {
	f := newFixture()
	ctx := workerCtx()
	id := uuid.New()

	// Going backwards from Finishing to Cutting is accepted.
	f.repo.On("UpdateProductionStep", ctx, id, StepCutting).Return(StepFinishing, nil)
	f.repo.On("GetByID", ctx, id).Return(&Order{ID: id, ProductionStep: StepCutting}, nil)

	o, err := f.svc.UpdateProductionStep(ctx, id, StepCutting)
	require.NoError(t, err)
	assert.Equal(t, StepCutting, o.ProductionStep)
}

func TestUpdateProductionStep_Rejections(t *testing.T) {
	f := newFixture()
	id := uuid.New()

	_, err := f.svc.UpdateProductionStep(customerCtx("rina@example.com"), id, StepReady)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.svc.UpdateProductionStep(workerCtx(), id, ProductionStep("Ironing"))
	assert.ErrorIs(t, err, ErrInvalidStep)

	ctx := workerCtx()
	f.repo.On("UpdateProductionStep", ctx, id, StepCutting).Return(ProductionStep(""), ErrOrderNotFound)
	_, err = f.svc.UpdateProductionStep(ctx, id, StepCutting)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestUpdateProductionStep_CancelledOrder(t *testing.T) {
	f := newFixture()
	ctx := workerCtx()
	id := uuid.New()
	cancelled := &Order{ID: id, OrderNumber: "TS-9", Status: StatusCancelled, ProductionStep: StepCutting}

	f.repo.On("UpdateProductionStep", ctx, id, StepCutting).Return(StepQueue, nil)
	f.repo.On("GetByID", ctx, id).Return(cancelled, nil)

	o, err := f.svc.UpdateProductionStep(ctx, id, StepCutting)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, o.Status)
	assert.Equal(t, StepCutting, o.ProductionStep)
	assert.Equal(t, 1, f.publisher.count(events.TopicOrderStatusUpdated))
}

// --- Status ---

func TestUpdateStatus(t *testing.T) {
	id := uuid.New()

	t.Run("Success", func(t *testing.T) {
		f := newFixture()
		ctx := adminCtx()
		f.repo.On("UpdateStatus", ctx, id, StatusShipped).Return(nil)
		f.repo.On("GetByID", ctx, id).Return(&Order{ID: id, Status: StatusShipped}, nil)

		o, err := f.svc.UpdateStatus(ctx, id, StatusShipped)
		require.NoError(t, err)
		assert.Equal(t, StatusShipped, o.Status)
		assert.Equal(t, 1, f.publisher.count(events.TopicOrderStatusUpdated))
	})

	t.Run("CancelledIsTerminal", func(t *testing.T) {
		f := newFixture()
		ctx := adminCtx()
		f.repo.On("UpdateStatus", ctx, id, StatusPending).Return(ErrOrderCancelled)

		_, err := f.svc.UpdateStatus(ctx, id, StatusPending)
		assert.ErrorIs(t, err, ErrOrderCancelled)
		assert.Zero(t, f.publisher.count(events.TopicOrderStatusUpdated))
	})

	t.Run("UnknownStatus", func(t *testing.T) {
		_, err := newFixture().svc.UpdateStatus(adminCtx(), id, Status("Lost"))
		assert.ErrorIs(t, err, ErrInvalidStatus)
	})

	t.Run("WorkerForbidden", func(t *testing.T) {
		_, err := newFixture().svc.UpdateStatus(workerCtx(), id, StatusShipped)
		assert.ErrorIs(t, err, ErrForbidden)
	})
}

// --- Reads ---

func TestGet_Ownership(t *testing.T) {
	id := uuid.New()
	o := &Order{ID: id, CustomerEmail: "rina@example.com"}

	f := newFixture()
	f.repo.On("GetByID", mock.Anything, id).Return(o, nil)

	_, err := f.svc.Get(customerCtx("RINA@example.com"), id)
	assert.NoError(t, err)

	_, err = f.svc.Get(customerCtx("other@example.com"), id)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.svc.Get(context.Background(), id)
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = f.svc.Get(workerCtx(), id)
	assert.NoError(t, err)
}

func TestList_CustomerScoped(t *testing.T) {
	f := newFixture()
	ctx := customerCtx("rina@example.com")
	id := uuid.New()

	scoped := Filter{CustomerEmail: "rina@example.com"}
	f.repo.On("FetchOrders", ctx, scoped, int32(20), int32(0)).Return([]Order{{ID: id}}, nil)
	f.repo.On("CountOrders", ctx, scoped).Return(int64(1), nil)
	f.repo.On("FetchOrderItems", ctx, []uuid.UUID{id}).Return(map[uuid.UUID][]Item{
		id: {{ID: 1, CartItem: cartLine("100", 1)}},
	}, nil)

	page, err := f.svc.List(ctx, Filter{CustomerEmail: "someone-else@example.com"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.Total)
	require.Len(t, page.Items, 1)
	assert.Len(t, page.Items[0].Items, 1)
}

func TestList_StaffFilters(t *testing.T) {
	f := newFixture()
	ctx := workerCtx()
	step := StepCutting
	filter := Filter{Step: &step, Limit: 5, Page: 2}

	f.repo.On("FetchOrders", ctx, filter, int32(5), int32(5)).Return([]Order{}, nil)
	f.repo.On("CountOrders", ctx, filter).Return(int64(0), nil)
	f.repo.On("FetchOrderItems", ctx, []uuid.UUID{}).Return(map[uuid.UUID][]Item{}, nil)

	page, err := f.svc.List(ctx, filter)
	require.NoError(t, err)
	assert.Equal(t, int32(2), page.Page)
	assert.Empty(t, page.Items)

	bad := ProductionStep("Dyeing")
	_, err = f.svc.List(ctx, Filter{Step: &bad})
	assert.ErrorIs(t, err, ErrInvalidStep)
}

func TestDelete(t *testing.T) {
	f := newFixture()
	id := uuid.New()

	assert.ErrorIs(t, f.svc.Delete(workerCtx(), id), ErrForbidden)

	ctx := adminCtx()
	f.repo.On("Delete", ctx, id).Return(nil)
	assert.NoError(t, f.svc.Delete(ctx, id))
}

func TestStartPayment(t *testing.T) {
	id := uuid.New()

	t.Run("CODRejected", func(t *testing.T) {
		f := newFixture()
		f.repo.On("GetByID", mock.Anything, id).Return(&Order{ID: id, PaymentMethod: checkout.MethodCOD, CustomerEmail: "rina@example.com"}, nil)

		_, err := f.svc.StartPayment(customerCtx("rina@example.com"), id)
		assert.ErrorIs(t, err, checkout.ErrInvalidMethod)
	})

	t.Run("Online", func(t *testing.T) {
		f := newFixture()
		ctx := customerCtx("rina@example.com")
		f.repo.On("GetByID", ctx, id).Return(&Order{
			ID: id, PaymentMethod: checkout.MethodOnline, CustomerEmail: "rina@example.com", PaidAmount: dec("500"),
		}, nil)
		f.payments.On("Start", ctx, mock.MatchedBy(func(r payment.StartRequest) bool {
			return r.Provider == payment.ProviderOnline
		})).Return(&payment.Payment{RedirectURL: "https://pay/gw"}, nil)
		f.repo.On("SetPaymentURL", ctx, id, "https://pay/gw").Return(nil)

		url, err := f.svc.StartPayment(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "https://pay/gw", url)
	})
}
