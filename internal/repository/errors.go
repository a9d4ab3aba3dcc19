package repository

import "errors"

// Common repository errors
var (
	// ErrNotFound is returned when a record is not found
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateEmail is returned when trying to create an account with an existing email
	ErrDuplicateEmail = errors.New("account with this email already exists")

	// ErrDuplicateFederatedID is returned when the external identity is already linked
	ErrDuplicateFederatedID = errors.New("federated identity already linked")

	// ErrItemNotFound is returned when a collection key is absent
	ErrItemNotFound = errors.New("collection item not found")

	// ErrUnknownCollection is returned for a collection kind the store does not hold
	ErrUnknownCollection = errors.New("unknown collection")
)
