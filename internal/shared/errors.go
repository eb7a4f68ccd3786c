package shared

import "errors"

var (
	// ErrValidation indicates missing or malformed input.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound indicates a referenced entity is absent or soft-deleted.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized indicates a missing or invalid identity.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden indicates the actor is authenticated but not entitled.
	ErrForbidden = errors.New("forbidden")
	// ErrDuplicate indicates a duplicate document number or unique field.
	ErrDuplicate = errors.New("duplicate entry")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
)
