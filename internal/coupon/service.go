package coupon

import (
	"context"
	"time"

	"tailorshop-be/internal/logger"
	"tailorshop-be/internal/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Service interface {
	Validate(ctx context.Context, code string) (*Applied, error)
	Redeem(ctx context.Context, code string) error
	Release(ctx context.Context, code string) error

	List(ctx context.Context) ([]Coupon, error)
	Create(ctx context.Context, input CouponInput) (*Coupon, error)
	Update(ctx context.Context, id uuid.UUID, input CouponInput) (*Coupon, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) Service {
	return &service{repo: repo, now: time.Now}
}

func (s *service) Validate(ctx context.Context, code string) (*Applied, error) {
	log := logger.For(ctx, "service", "ValidateCoupon").With(zap.String("code", NormalizeCode(code)))

	c, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		log.Info("coupon lookup failed", zap.Error(err))
		return nil, err
	}

	applied, err := Evaluate(code, []Coupon{*c}, s.now())
	if err != nil {
		log.Info("coupon rejected", zap.Error(err))
		return nil, err
	}
	return applied, nil
}

// Redeem counts one use of the coupon. When the guarded update matches no
// row the coupon is re-read so the caller gets the precise reason.
func (s *service) Redeem(ctx context.Context, code string) error {
	ok, err := s.repo.Redeem(ctx, code)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}

	c, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		return err
	}
	if err := Check(c, s.now()); err != nil {
		return err
	}
	return ErrCouponUsageLimit
}

func (s *service) Release(ctx context.Context, code string) error {
	return s.repo.Release(ctx, code)
}

func (s *service) List(ctx context.Context) ([]Coupon, error) {
	if !utils.IsAdmin(ctx) {
		return nil, ErrForbidden
	}
	return s.repo.List(ctx)
}

func validInput(input CouponInput) bool {
	return NormalizeCode(input.Code) != "" &&
		input.DiscountPercent.GreaterThan(decimal.Zero) &&
		input.DiscountPercent.LessThanOrEqual(hundred) &&
		(input.UsageLimit == nil || *input.UsageLimit >= 0)
}

func (s *service) Create(ctx context.Context, input CouponInput) (*Coupon, error) {
	if !utils.IsAdmin(ctx) {
		return nil, ErrForbidden
	}
	if !validInput(input) {
		return nil, ErrInvalidCoupon
	}

	c := &Coupon{
		ID:              uuid.New(),
		Code:            NormalizeCode(input.Code),
		DiscountPercent: input.DiscountPercent,
		IsActive:        input.IsActive,
		ExpiryDate:      input.ExpiryDate,
		UsageLimit:      input.UsageLimit,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}

	logger.For(ctx, "service", "CreateCoupon").Info("coupon created", zap.String("code", c.Code))
	return c, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input CouponInput) (*Coupon, error) {
	if !utils.IsAdmin(ctx) {
		return nil, ErrForbidden
	}
	if !validInput(input) {
		return nil, ErrInvalidCoupon
	}

	c := &Coupon{
		ID:              id,
		Code:            NormalizeCode(input.Code),
		DiscountPercent: input.DiscountPercent,
		IsActive:        input.IsActive,
		ExpiryDate:      input.ExpiryDate,
		UsageLimit:      input.UsageLimit,
	}
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if !utils.IsAdmin(ctx) {
		return ErrForbidden
	}
	return s.repo.Delete(ctx, id)
}
