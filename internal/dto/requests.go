package dto

import (
	"time"

	"github.com/prperemyshlev/shop-identity/internal/domain"
)

// ProfileFields are the optional profile values accepted at registration
type ProfileFields struct {
	Name         string  `json:"name"`
	Phone        *string `json:"phone"`
	ProfileImage *string `json:"profile_image"`
}

// RegisterRequest represents a local registration request.
// Presence is checked by the service so that a missing field maps to MissingField.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	ProfileFields
}

// FederatedRegisterRequest represents a registration through an external identity provider
type FederatedRegisterRequest struct {
	FederatedID string `json:"federated_id"`
	Email       string `json:"email"`
	ProfileFields
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ResetRequest starts a password reset
type ResetRequest struct {
	Email string `json:"email"`
}

// CompleteResetRequest finishes a password reset
type CompleteResetRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// SyncMarkerRequest is sent by the federated password reconciler
type SyncMarkerRequest struct {
	Email     string `json:"email"`
	SyncToken string `json:"sync_token"`
}

// CartLineRequest is the body of a cart upsert
type CartLineRequest struct {
	ProductID string  `json:"product_id" binding:"required"`
	VariantID string  `json:"variant_id"`
	Quantity  int     `json:"quantity" binding:"required,min=1"`
	Name      string  `json:"name"`
	Price     float64 `json:"price" binding:"min=0"`
	Image     string  `json:"image"`
}

// WishlistItemRequest is the body of a wishlist upsert
type WishlistItemRequest struct {
	ProductID string  `json:"product_id" binding:"required"`
	Name      string  `json:"name"`
	Price     float64 `json:"price" binding:"min=0"`
	Image     string  `json:"image"`
}

// SessionResponse is returned by registration and login. The token is also
// set as the session cookie.
type SessionResponse struct {
	Token     string               `json:"token"`
	TokenType string               `json:"token_type"`
	ExpiresIn int                  `json:"expires_in"`
	User      domain.PublicProfile `json:"user"`
}

// ResetHandoff is returned when a reset completes, for the federated reconciler
type ResetHandoff struct {
	Email     string `json:"email"`
	SyncToken string `json:"sync_token"`
}

// ResetTicket is produced by Phase A and handed to the delivery collaborator
type ResetTicket struct {
	Email     string
	Secret    string
	ExpiresAt time.Time
}

// CartResponse represents the cart and its cardinality
type CartResponse struct {
	Items domain.Cart `json:"items"`
	Count int         `json:"count"`
}

// WishlistResponse represents the wishlist and its cardinality
type WishlistResponse struct {
	Items domain.Wishlist `json:"items"`
	Count int             `json:"count"`
}

// SuccessResponse represents a success response
type SuccessResponse struct {
	Message string `json:"message"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string      `json:"error"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}
