package user

import "errors"

var (
	ErrEmailExists        = errors.New("email already registered")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrRoleMismatch       = errors.New("account does not belong to this portal")
	ErrInvalidRole        = errors.New("invalid role")
	ErrInvalidInput       = errors.New("name, email and password are required")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrForbidden          = errors.New("forbidden")
	ErrMissingSecret      = errors.New("JWT_SECRET is not set")

	PgUniqueViolation = "23505"
)
