package coupon

import "errors"

// Rejection reasons are user-facing.
var (
	ErrCouponNotFound   = errors.New("invalid coupon code")
	ErrCouponInactive   = errors.New("this coupon is no longer active")
	ErrCouponExpired    = errors.New("this coupon has expired")
	ErrCouponUsageLimit = errors.New("this coupon has reached its usage limit")

	ErrInvalidCoupon = errors.New("coupon code is required and percent must be between 0 and 100")
	ErrCodeExists    = errors.New("coupon code already exists")
	ErrForbidden     = errors.New("forbidden")

	PgUniqueViolation = "23505"
)

// IsRejection reports whether err is one of the evaluation rejections.
func IsRejection(err error) bool {
	return errors.Is(err, ErrCouponNotFound) ||
		errors.Is(err, ErrCouponInactive) ||
		errors.Is(err, ErrCouponExpired) ||
		errors.Is(err, ErrCouponUsageLimit)
}

// RejectionReason gives a short stable label for a rejection, or "" when err
// is not one.
func RejectionReason(err error) string {
	switch {
	case errors.Is(err, ErrCouponNotFound):
		return "not_found"
	case errors.Is(err, ErrCouponInactive):
		return "inactive"
	case errors.Is(err, ErrCouponExpired):
		return "expired"
	case errors.Is(err, ErrCouponUsageLimit):
		return "usage_limit"
	}
	return ""
}
