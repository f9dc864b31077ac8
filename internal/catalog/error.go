package catalog

import "errors"

var (
	ErrUnknownCollection = errors.New("unknown collection")
	ErrNotFound          = errors.New("document not found")
	ErrExists            = errors.New("document already exists")
	ErrInvalidDocument   = errors.New("document body must be a JSON object")
	ErrForbidden         = errors.New("forbidden")
	ErrUnauthenticated   = errors.New("authentication required")
)
