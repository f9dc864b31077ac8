package coupon

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// NormalizeCode is the canonical form codes are compared and stored in.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Evaluate matches code case-insensitively against coupons and checks it is
// redeemable at now. Checks run in order: existence, active flag, expiry,
// usage cap.
func Evaluate(code string, coupons []Coupon, now time.Time) (*Applied, error) {
	want := NormalizeCode(code)
	if want == "" {
		return nil, ErrCouponNotFound
	}

	for i := range coupons {
		c := &coupons[i]
		if NormalizeCode(c.Code) != want {
			continue
		}
		if err := Check(c, now); err != nil {
			return nil, err
		}
		return &Applied{Code: c.Code, Percent: c.DiscountPercent}, nil
	}

	return nil, ErrCouponNotFound
}

// Check reports why c cannot be redeemed at now, or nil.
func Check(c *Coupon, now time.Time) error {
	if !c.IsActive {
		return ErrCouponInactive
	}
	if c.ExpiryDate != nil && c.ExpiryDate.Before(now) {
		return ErrCouponExpired
	}
	if c.UsageLimit != nil && c.UsageCount >= *c.UsageLimit {
		return ErrCouponUsageLimit
	}
	return nil
}

// Discount is subtotal * percent / 100 rounded half away from zero to the
// paisa.
func (a *Applied) Discount(subtotal decimal.Decimal) decimal.Decimal {
	if a == nil {
		return decimal.Zero
	}
	return subtotal.Mul(a.Percent).Div(hundred).Round(2)
}
