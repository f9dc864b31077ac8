package payment

import "errors"

var (
	ErrUnknownProvider   = errors.New("unknown payment provider")
	ErrPaymentNotFound   = errors.New("payment not found")
	ErrInvalidAmount     = errors.New("payment amount must be positive")
	ErrNotConfigured     = errors.New("payment provider is not configured")
	ErrNotCompleted      = errors.New("payment was not completed")
	ErrMissingPaymentID  = errors.New("missing paymentID")
	ErrProviderRejection = errors.New("payment provider rejected the request")
	ErrMissingValidation = errors.New("missing validation id")
	ErrMismatch          = errors.New("validated payment does not match")
)
