package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/prperemyshlev/shop-identity/internal/domain"
)

// Collection is the stored form of a cart or wishlist: key to JSON item
type Collection map[string]json.RawMessage

// CompleteResetParams describes the single update that finishes a password reset
type CompleteResetParams struct {
	TokenHash        string
	Now              time.Time
	PasswordHash     string
	SyncMarkerHash   string
	SyncMarkerExpiry time.Time
}

// AccountRepository is the credential store. Every method is a single atomic
// operation on one account; there are no multi-account transactions.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error

	// SetResetToken overwrites any pending reset for the account
	SetResetToken(ctx context.Context, id, tokenHash string, expiresAt time.Time) error
	// CompleteReset matches an unexpired reset token hash, stores the new password
	// hash, clears the reset token and stores the sync marker in one update
	CompleteReset(ctx context.Context, params CompleteResetParams) (*domain.Account, error)
	// ConsumeSyncMarker clears a matching unexpired sync marker
	ConsumeSyncMarker(ctx context.Context, email, markerHash string, now time.Time) error

	GetCollection(ctx context.Context, id string, kind domain.CollectionKind) (Collection, error)
	UpsertCollectionItem(ctx context.Context, id string, kind domain.CollectionKind, key string, item json.RawMessage) (Collection, error)
	RemoveCollectionItem(ctx context.Context, id string, kind domain.CollectionKind, key string) (Collection, error)
	ReplaceCollection(ctx context.Context, id string, kind domain.CollectionKind, items Collection) (Collection, error)
}
