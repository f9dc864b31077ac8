package checkout

import "errors"

var (
	ErrEmptyCart          = errors.New("cart is empty")
	ErrInvalidQuantity    = errors.New("quantity must be at least 1")
	ErrInvalidPrice       = errors.New("price must not be negative")
	ErrPricePrecision     = errors.New("price must have at most 2 decimal places")
	ErrInvalidPaymentType = errors.New("payment type must be full or advance")
	ErrInvalidMethod      = errors.New("payment method must be cod, bkash or online")
)
