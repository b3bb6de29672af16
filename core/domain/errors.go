package domain

import "errors"

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrMissingFields = errors.New("missing required fields")
	ErrInvalidInput  = errors.New("invalid input data")
	ErrStorageRead   = errors.New("failed to read users")
	ErrStorageWrite  = errors.New("failed to write users")
	ErrInternal      = errors.New("internal server error")
)
