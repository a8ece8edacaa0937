package service

import "errors"

// Sentinel errors returned by the services. Handlers map them to HTTP
// status codes; anything else is treated as internal.
var (
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("invalid credentials")
	ErrInvalidToken = errors.New("invalid token")
	ErrNotFound     = errors.New("todo not found")
	ErrConflict     = errors.New("username already exists")
)

// ValidationError carries a client-facing message and matches ErrValidation.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func invalid(msg string) error {
	return &ValidationError{Msg: msg}
}
