package domain

import "errors"

// Validation errors (400).
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrInvalidID    = errors.New("invalid item id")
)

// Conflict errors.
var (
	ErrUserExists = errors.New("user already exists")
	// ErrRequestInProgress is returned while another request holding the same
	// idempotency key has not finished yet (409).
	ErrRequestInProgress = errors.New("request with this idempotency key is in progress")
)

// Authentication errors.
var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrMissingToken       = errors.New("missing or malformed authorization header")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// Lookup errors.
var (
	ErrUserNotFound = errors.New("user not found")
	ErrItemNotFound = errors.New("item not found")
)
