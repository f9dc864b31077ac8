package email

import "errors"

var (
	ErrNotConfigured = errors.New("smtp is not configured")
	ErrInvalidInput  = errors.New("recipient and subject are required")
	ErrForbidden     = errors.New("forbidden")
)
