package domain

import "errors"

// Validation errors. Reported before any store access.
var (
	ErrMissingField = errors.New("missing required field")
	ErrInvalidEmail = errors.New("invalid email format")
	ErrWeakPassword = errors.New("password is too short")
)

// Authentication errors. Messages are deliberately generic.
var (
	ErrDuplicateAccount      = errors.New("an account with this email already exists")
	ErrInvalidCredentials    = errors.New("invalid email or password")
	ErrAccountDeactivated    = errors.New("account is deactivated")
	ErrAccountNotFound       = errors.New("account not found")
	ErrMissingToken          = errors.New("authentication token is required")
	ErrInvalidToken          = errors.New("invalid token")
	ErrExpiredToken          = errors.New("token has expired")
	ErrInvalidOrExpiredReset = errors.New("password reset token is invalid or has expired")
)

// ErrUserNotFound is the collection-side name for ErrAccountNotFound
var ErrUserNotFound = ErrAccountNotFound

// Collection errors
var (
	ErrItemNotFound = errors.New("item not found")
)

// Infrastructure errors. Never shown to callers beyond a generic message.
var (
	ErrConfiguration = errors.New("service is misconfigured")
	ErrStoreFailure  = errors.New("credential store failure")
)
