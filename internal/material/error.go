package material

import "errors"

var (
	ErrNotFound        = errors.New("material request not found")
	ErrAlreadyDecided  = errors.New("material request has already been decided")
	ErrInvalidInput    = errors.New("material, unit and a positive quantity are required")
	ErrInvalidDecision = errors.New("decision must be approved or rejected")
	ErrForbidden       = errors.New("forbidden")
)
