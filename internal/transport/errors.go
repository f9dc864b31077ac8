package transport

import (
	"errors"
	"net/http"

	"tailorshop-be/internal/catalog"
	"tailorshop-be/internal/checkout"
	"tailorshop-be/internal/coupon"
	"tailorshop-be/internal/due"
	"tailorshop-be/internal/email"
	"tailorshop-be/internal/logger"
	"tailorshop-be/internal/material"
	"tailorshop-be/internal/notification"
	"tailorshop-be/internal/order"
	"tailorshop-be/internal/payment"
	"tailorshop-be/internal/user"
	"tailorshop-be/internal/utils"

	"go.uber.org/zap"
)

var errBadRequest = errors.New("malformed request body")

var statusByErr = []struct {
	code int
	errs []error
}{
	{http.StatusBadRequest, []error{
		errBadRequest,
		order.ErrInvalidStatus, order.ErrInvalidStep, order.ErrMissingContact,
		checkout.ErrEmptyCart, checkout.ErrInvalidQuantity, checkout.ErrInvalidPrice, checkout.ErrPricePrecision,
		checkout.ErrInvalidPaymentType, checkout.ErrInvalidMethod,
		coupon.ErrCouponNotFound, coupon.ErrCouponInactive, coupon.ErrCouponExpired,
		coupon.ErrCouponUsageLimit, coupon.ErrInvalidCoupon,
		user.ErrInvalidInput, user.ErrInvalidRole,
		due.ErrInvalidAmount,
		material.ErrInvalidInput, material.ErrInvalidDecision,
		catalog.ErrInvalidDocument,
		notification.ErrInvalidInput,
		email.ErrInvalidInput,
		payment.ErrInvalidAmount, payment.ErrUnknownProvider, payment.ErrMissingPaymentID,
	}},
	{http.StatusUnauthorized, []error{
		order.ErrUnauthorized,
		user.ErrInvalidCredentials, user.ErrUnauthenticated,
		due.ErrUnauthenticated,
		notification.ErrUnauthenticated,
		catalog.ErrUnauthenticated,
	}},
	{http.StatusForbidden, []error{
		order.ErrForbidden, coupon.ErrForbidden, user.ErrForbidden, user.ErrRoleMismatch,
		due.ErrForbidden, email.ErrForbidden, material.ErrForbidden, catalog.ErrForbidden,
	}},
	{http.StatusNotFound, []error{
		order.ErrOrderNotFound, user.ErrUserNotFound, due.ErrNotFound, notification.ErrNotFound,
		material.ErrNotFound, catalog.ErrNotFound, catalog.ErrUnknownCollection, payment.ErrPaymentNotFound,
	}},
	{http.StatusConflict, []error{
		order.ErrOrderCancelled, order.ErrInFlight,
		user.ErrEmailExists, coupon.ErrCodeExists,
		due.ErrAlreadySettled, material.ErrAlreadyDecided, catalog.ErrExists,
	}},
}

// statusFor maps a service error to its HTTP status. Errors nobody claims
// are internal.
func statusFor(err error) int {
	for _, group := range statusByErr {
		for _, target := range group.errs {
			if errors.Is(err, target) {
				return group.code
			}
		}
	}
	return http.StatusInternalServerError
}

// writeError answers with {"error": "..."}. Internal errors are logged and
// their text withheld from the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		logger.FromCtx(r.Context()).Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		utils.WriteJSONError(w, "internal server error", code)
		return
	}
	utils.WriteJSONError(w, err.Error(), code)
}
