package due

import "errors"

var (
	ErrNotFound        = errors.New("due record not found")
	ErrAlreadySettled  = errors.New("due is already settled")
	ErrInvalidAmount   = errors.New("due amount must be positive")
	ErrForbidden       = errors.New("forbidden")
	ErrUnauthenticated = errors.New("unauthenticated")
)
