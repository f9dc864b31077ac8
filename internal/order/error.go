package order

import "errors"

var (
	ErrOrderNotFound  = errors.New("order not found")
	ErrOrderCancelled = errors.New("order is cancelled")
	ErrInvalidStatus  = errors.New("unknown order status")
	ErrInvalidStep    = errors.New("unknown production step")
	ErrMissingContact = errors.New("name, email, phone and address are required")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrPaymentStart   = errors.New("order placed but payment could not be started")
	ErrInFlight       = errors.New("an order with this idempotency key is still being placed")
)
