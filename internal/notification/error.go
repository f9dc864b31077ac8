package notification

import "errors"

var (
	ErrNotFound        = errors.New("notification not found")
	ErrInvalidInput    = errors.New("recipient and message are required")
	ErrUnauthenticated = errors.New("unauthenticated")
)
