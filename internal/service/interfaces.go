package service

import (
	"context"

	"github.com/prperemyshlev/shop-identity/internal/domain"
	"github.com/prperemyshlev/shop-identity/internal/dto"
)

// SessionService defines registration, login and current-user resolution
type SessionService interface {
	RegisterLocal(ctx context.Context, req *dto.RegisterRequest) (*dto.SessionResponse, error)
	RegisterFederated(ctx context.Context, req *dto.FederatedRegisterRequest) (*dto.SessionResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.SessionResponse, error)
	// Authenticate resolves a raw session token to an active account
	Authenticate(ctx context.Context, token string) (*domain.Account, error)
	ResolveCurrentUser(ctx context.Context, token string) (*domain.PublicProfile, error)
	// Logout is stateless; the token stays valid until it expires
	Logout(ctx context.Context, accountID string)
	TokenLifetimeSeconds() int
}

// PasswordResetService runs the two-phase reset handshake
type PasswordResetService interface {
	// RequestReset generates a secret for the account and hands it to the dispatcher.
	// Unknown emails succeed silently.
	RequestReset(ctx context.Context, req *dto.ResetRequest) error
	// BeginReset stores the hash of a caller-generated secret (Phase A)
	BeginReset(ctx context.Context, email, secret string) (*dto.ResetTicket, error)
	// CompleteReset verifies the secret and sets the new password (Phase B)
	CompleteReset(ctx context.Context, req *dto.CompleteResetRequest) (*dto.ResetHandoff, error)
	// ConsumeSyncMarker accepts a sync marker exactly once
	ConsumeSyncMarker(ctx context.Context, req *dto.SyncMarkerRequest) error
}

// CollectionService mutates the cart and wishlist embedded in an account
type CollectionService interface {
	GetCart(ctx context.Context, userID string) (*dto.CartResponse, error)
	PutCartLine(ctx context.Context, userID, key string, line domain.CartLine) (*dto.CartResponse, error)
	RemoveCartLine(ctx context.Context, userID, key string) (*dto.CartResponse, error)
	ClearCart(ctx context.Context, userID string) (*dto.CartResponse, error)

	GetWishlist(ctx context.Context, userID string) (*dto.WishlistResponse, error)
	PutWishlistItem(ctx context.Context, userID, key string, item domain.WishlistItem) (*dto.WishlistResponse, error)
	RemoveWishlistItem(ctx context.Context, userID, key string) (*dto.WishlistResponse, error)
	ClearWishlist(ctx context.Context, userID string) (*dto.WishlistResponse, error)
}

// ResetDispatcher delivers a reset secret to the account owner
type ResetDispatcher interface {
	Dispatch(ctx context.Context, ticket *dto.ResetTicket) error
}
