package domain

import "errors"

// Client-side error taxonomy. Transport and gateway layers wrap these so
// callers can branch with errors.Is.
var (
	ErrTransport    = errors.New("backend unreachable")
	ErrUnauthorized = errors.New("not authenticated")
	ErrValidation   = errors.New("validation failed")
	ErrConflict     = errors.New("already exists")
	ErrNotFound     = errors.New("not found")
	ErrRejected     = errors.New("request rejected")
	ErrServer       = errors.New("backend error")
)

// Errors raised by the development backend services.
var (
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrUserExists          = errors.New("user already exists")
	ErrUserNotFound        = errors.New("user not found")
	ErrTransactionNotFound = errors.New("transaction not found")
)
