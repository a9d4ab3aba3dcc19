package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prperemyshlev/shop-identity/internal/domain"
)

type memoryRecord struct {
	account     domain.Account
	collections map[domain.CollectionKind]Collection
}

// memoryAccountRepository implements AccountRepository in process memory.
// A single mutex makes every method atomic, like a single-row UPDATE.
type memoryAccountRepository struct {
	mu      sync.Mutex
	byID    map[string]*memoryRecord
	byEmail map[string]string
}

// NewMemoryAccountRepository creates an empty in-memory account repository
func NewMemoryAccountRepository() AccountRepository {
	return &memoryAccountRepository{
		byID:    make(map[string]*memoryRecord),
		byEmail: make(map[string]string),
	}
}

func (r *memoryAccountRepository) Create(_ context.Context, account *domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	emailKey := strings.ToLower(account.Email)
	if _, ok := r.byEmail[emailKey]; ok {
		return fmt.Errorf("account with email %s already exists: %w", account.Email, ErrDuplicateEmail)
	}
	if account.IsFederated() {
		for _, rec := range r.byID {
			if rec.account.IsFederated() && *rec.account.FederatedID == *account.FederatedID {
				return fmt.Errorf("federated id already linked: %w", ErrDuplicateFederatedID)
			}
		}
	}

	if account.ID == "" {
		account.ID = uuid.New().String()
	}
	now := time.Now()
	if account.CreatedAt.IsZero() {
		account.CreatedAt = now
	}
	if account.UpdatedAt.IsZero() {
		account.UpdatedAt = now
	}

	cart, err := encodeCollection(account.Cart)
	if err != nil {
		return err
	}
	wishlist, err := encodeCollection(account.Wishlist)
	if err != nil {
		return err
	}

	stored := *account
	stored.Cart = nil
	stored.Wishlist = nil

	r.byID[account.ID] = &memoryRecord{
		account: stored,
		collections: map[domain.CollectionKind]Collection{
			domain.CollectionCart:     cart,
			domain.CollectionWishlist: wishlist,
		},
	}
	r.byEmail[emailKey] = account.ID

	if account.Cart == nil {
		account.Cart = domain.Cart{}
	}
	if account.Wishlist == nil {
		account.Wishlist = domain.Wishlist{}
	}

	return nil
}

func (r *memoryAccountRepository) GetByID(_ context.Context, id string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("account with id %s not found: %w", id, ErrNotFound)
	}
	return rec.snapshot()
}

func (r *memoryAccountRepository) GetByEmail(_ context.Context, email string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, fmt.Errorf("account with email %s not found: %w", email, ErrNotFound)
	}
	return r.byID[id].snapshot()
}

func (r *memoryAccountRepository) UpdateLastLogin(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.byID[id]
	if !ok {
		return fmt.Errorf("account with id %s not found: %w", id, ErrNotFound)
	}
	rec.account.LastLoginAt = &at
	return nil
}

func (r *memoryAccountRepository) SetResetToken(_ context.Context, id, tokenHash string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.byID[id]
	if !ok {
		return fmt.Errorf("account with id %s not found: %w", id, ErrNotFound)
	}
	rec.account.ResetTokenHash = &tokenHash
	rec.account.ResetTokenExp = &expiresAt
	rec.account.UpdatedAt = time.Now()
	return nil
}

func (r *memoryAccountRepository) CompleteReset(_ context.Context, params CompleteResetParams) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, rec := range r.byID {
		a := &rec.account
		if a.ResetTokenHash == nil || *a.ResetTokenHash != params.TokenHash || !a.HasPendingReset(params.Now) {
			continue
		}

		passwordHash := params.PasswordHash
		syncHash := params.SyncMarkerHash
		syncExpiry := params.SyncMarkerExpiry

		a.PasswordHash = &passwordHash
		a.ResetTokenHash = nil
		a.ResetTokenExp = nil
		a.SyncMarkerHash = &syncHash
		a.SyncMarkerExp = &syncExpiry
		a.UpdatedAt = params.Now

		return rec.snapshot()
	}

	return nil, fmt.Errorf("no pending reset for token: %w", ErrNotFound)
}

func (r *memoryAccountRepository) ConsumeSyncMarker(_ context.Context, email, markerHash string, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byEmail[strings.ToLower(email)]
	if !ok {
		return fmt.Errorf("no matching sync marker: %w", ErrNotFound)
	}

	a := &r.byID[id].account
	if a.SyncMarkerHash == nil || *a.SyncMarkerHash != markerHash || a.SyncMarkerExp == nil || !now.Before(*a.SyncMarkerExp) {
		return fmt.Errorf("no matching sync marker: %w", ErrNotFound)
	}

	a.SyncMarkerHash = nil
	a.SyncMarkerExp = nil
	a.UpdatedAt = now
	return nil
}

func (r *memoryAccountRepository) GetCollection(_ context.Context, id string, kind domain.CollectionKind) (Collection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, err := r.collectionRecord(id, kind)
	if err != nil {
		return nil, err
	}
	return cloneCollection(rec.collections[kind]), nil
}

func (r *memoryAccountRepository) UpsertCollectionItem(_ context.Context, id string, kind domain.CollectionKind, key string, item json.RawMessage) (Collection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, err := r.collectionRecord(id, kind)
	if err != nil {
		return nil, err
	}

	rec.collections[kind][key] = append(json.RawMessage(nil), item...)
	rec.account.UpdatedAt = time.Now()
	return cloneCollection(rec.collections[kind]), nil
}

func (r *memoryAccountRepository) RemoveCollectionItem(_ context.Context, id string, kind domain.CollectionKind, key string) (Collection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, err := r.collectionRecord(id, kind)
	if err != nil {
		return nil, err
	}

	if _, ok := rec.collections[kind][key]; !ok {
		return nil, fmt.Errorf("%s key %q: %w", kind, key, ErrItemNotFound)
	}

	delete(rec.collections[kind], key)
	rec.account.UpdatedAt = time.Now()
	return cloneCollection(rec.collections[kind]), nil
}

func (r *memoryAccountRepository) ReplaceCollection(_ context.Context, id string, kind domain.CollectionKind, items Collection) (Collection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, err := r.collectionRecord(id, kind)
	if err != nil {
		return nil, err
	}

	rec.collections[kind] = cloneCollection(items)
	rec.account.UpdatedAt = time.Now()
	return cloneCollection(rec.collections[kind]), nil
}

func (r *memoryAccountRepository) collectionRecord(id string, kind domain.CollectionKind) (*memoryRecord, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%q: %w", kind, ErrUnknownCollection)
	}

	rec, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("account with id %s not found: %w", id, ErrNotFound)
	}
	if rec.collections[kind] == nil {
		rec.collections[kind] = Collection{}
	}
	return rec, nil
}

// snapshot returns a copy that callers may modify freely
func (rec *memoryRecord) snapshot() (*domain.Account, error) {
	account := rec.account
	account.Addresses = append([]domain.Address(nil), rec.account.Addresses...)

	var err error
	if account.Cart, err = decodeCart(rec.collections[domain.CollectionCart]); err != nil {
		return nil, err
	}
	if account.Wishlist, err = decodeWishlist(rec.collections[domain.CollectionWishlist]); err != nil {
		return nil, err
	}
	return &account, nil
}

func cloneCollection(c Collection) Collection {
	out := make(Collection, len(c))
	for key, raw := range c {
		out[key] = append(json.RawMessage(nil), raw...)
	}
	return out
}
