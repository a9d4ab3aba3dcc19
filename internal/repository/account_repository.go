package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/prperemyshlev/shop-identity/internal/domain"
	"github.com/prperemyshlev/shop-identity/pkg/database"
)

const (
	pqUniqueViolation     = "23505"
	pqInvalidTextRepr     = "22P02"
	accountsFederatedIDUQ = "accounts_federated_id_key"
)

const accountColumns = `id, email, name, phone, role, tier, profile_image, password_hash, federated_id,
	is_active, is_email_verified, addresses, preferences, stats,
	reset_token_hash, reset_token_expiry, sync_marker_hash, sync_marker_expiry,
	cart, wishlist, last_login_at, created_at, updated_at`

// accountRepository implements AccountRepository on PostgreSQL.
// Cart and wishlist live in JSONB columns and are mutated per key in SQL.
type accountRepository struct {
	db *database.Postgres
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *database.Postgres) AccountRepository {
	return &accountRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

// Create creates a new account in the database
func (r *accountRepository) Create(ctx context.Context, account *domain.Account) error {
	query := `
		INSERT INTO accounts (id, email, name, phone, role, tier, profile_image, password_hash, federated_id,
			is_active, is_email_verified, addresses, preferences, stats, cart, wishlist, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`

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
	if account.Cart == nil {
		account.Cart = domain.Cart{}
	}
	if account.Wishlist == nil {
		account.Wishlist = domain.Wishlist{}
	}
	if account.Addresses == nil {
		account.Addresses = []domain.Address{}
	}

	jsonColumns, err := marshalAll(account.Addresses, account.Preferences, account.Stats, account.Cart, account.Wishlist)
	if err != nil {
		return fmt.Errorf("failed to encode account: %w", err)
	}

	_, err = r.db.DB.ExecContext(ctx, query,
		account.ID,
		account.Email,
		account.Name,
		account.Phone,
		account.Role,
		account.Tier,
		account.ProfileImage,
		account.PasswordHash,
		account.FederatedID,
		account.IsActive,
		account.IsEmailVerified,
		jsonColumns[0],
		jsonColumns[1],
		jsonColumns[2],
		jsonColumns[3],
		jsonColumns[4],
		account.CreatedAt,
		account.UpdatedAt,
	)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			if pqErr.Constraint == accountsFederatedIDUQ {
				return fmt.Errorf("federated id already linked: %w", ErrDuplicateFederatedID)
			}
			return fmt.Errorf("account with email %s already exists: %w", account.Email, ErrDuplicateEmail)
		}
		return fmt.Errorf("failed to create account: %w", err)
	}

	return nil
}

// GetByID retrieves an account by ID
func (r *accountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`

	account, err := scanAccount(r.db.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("account with id %s not found: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get account by id: %w", err)
	}

	return account, nil
}

// GetByEmail retrieves an account by email, case-insensitively
func (r *accountRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE lower(email) = lower($1)`

	account, err := scanAccount(r.db.DB.QueryRowContext(ctx, query, email))
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("account with email %s not found: %w", email, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get account by email: %w", err)
	}

	return account, nil
}

// UpdateLastLogin updates the last login timestamp for an account
func (r *accountRepository) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	query := `UPDATE accounts SET last_login_at = $1 WHERE id = $2`

	result, err := r.db.DB.ExecContext(ctx, query, at, id)
	if err != nil {
		if isNotFound(err) {
			return fmt.Errorf("account with id %s not found: %w", id, ErrNotFound)
		}
		return fmt.Errorf("failed to update last login: %w", err)
	}

	return expectAffected(result, id)
}

// SetResetToken stores a reset token hash and expiry, replacing any pending one
func (r *accountRepository) SetResetToken(ctx context.Context, id, tokenHash string, expiresAt time.Time) error {
	query := `
		UPDATE accounts
		SET reset_token_hash = $2, reset_token_expiry = $3, updated_at = $4
		WHERE id = $1
	`

	result, err := r.db.DB.ExecContext(ctx, query, id, tokenHash, expiresAt, time.Now())
	if err != nil {
		if isNotFound(err) {
			return fmt.Errorf("account with id %s not found: %w", id, ErrNotFound)
		}
		return fmt.Errorf("failed to set reset token: %w", err)
	}

	return expectAffected(result, id)
}

// CompleteReset finishes a password reset in a single statement. The hash and
// the expiry are matched together, so an expired token looks like a missing one.
func (r *accountRepository) CompleteReset(ctx context.Context, params CompleteResetParams) (*domain.Account, error) {
	query := `
		UPDATE accounts
		SET password_hash = $3,
			reset_token_hash = NULL,
			reset_token_expiry = NULL,
			sync_marker_hash = $4,
			sync_marker_expiry = $5,
			updated_at = $2
		WHERE reset_token_hash = $1 AND reset_token_expiry > $2
		RETURNING ` + accountColumns

	account, err := scanAccount(r.db.DB.QueryRowContext(ctx, query,
		params.TokenHash,
		params.Now,
		params.PasswordHash,
		params.SyncMarkerHash,
		params.SyncMarkerExpiry,
	))
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("no pending reset for token: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to complete reset: %w", err)
	}

	return account, nil
}

// ConsumeSyncMarker clears the sync marker if it matches and has not expired
func (r *accountRepository) ConsumeSyncMarker(ctx context.Context, email, markerHash string, now time.Time) error {
	query := `
		UPDATE accounts
		SET sync_marker_hash = NULL, sync_marker_expiry = NULL, updated_at = $3
		WHERE lower(email) = lower($1) AND sync_marker_hash = $2 AND sync_marker_expiry > $3
	`

	result, err := r.db.DB.ExecContext(ctx, query, email, markerHash, now)
	if err != nil {
		return fmt.Errorf("failed to consume sync marker: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("no matching sync marker: %w", ErrNotFound)
	}

	return nil
}

// GetCollection returns the cart or wishlist of an account
func (r *accountRepository) GetCollection(ctx context.Context, id string, kind domain.CollectionKind) (Collection, error) {
	column, err := collectionColumn(kind)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT %s FROM accounts WHERE id = $1`, column)

	return r.queryCollection(ctx, id, query, id)
}

// UpsertCollectionItem sets one key, leaving the other keys untouched
func (r *accountRepository) UpsertCollectionItem(ctx context.Context, id string, kind domain.CollectionKind, key string, item json.RawMessage) (Collection, error) {
	column, err := collectionColumn(kind)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		UPDATE accounts
		SET %[1]s = %[1]s || jsonb_build_object($2::text, $3::jsonb), updated_at = $4
		WHERE id = $1
		RETURNING %[1]s
	`, column)

	return r.queryCollection(ctx, id, query, id, key, []byte(item), time.Now())
}

// RemoveCollectionItem deletes one key. A missing key is ErrItemNotFound and
// leaves the collection unchanged.
func (r *accountRepository) RemoveCollectionItem(ctx context.Context, id string, kind domain.CollectionKind, key string) (Collection, error) {
	column, err := collectionColumn(kind)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		UPDATE accounts
		SET %[1]s = %[1]s - $2::text, updated_at = $3
		WHERE id = $1 AND %[1]s ? $2::text
		RETURNING %[1]s
	`, column)

	items, err := r.queryCollection(ctx, id, query, id, key, time.Now())
	if err == nil || !errors.Is(err, ErrNotFound) {
		return items, err
	}

	exists, existsErr := r.exists(ctx, id)
	if existsErr != nil {
		return nil, existsErr
	}
	if exists {
		return nil, fmt.Errorf("%s key %q: %w", kind, key, ErrItemNotFound)
	}

	return nil, err
}

// ReplaceCollection overwrites the whole collection
func (r *accountRepository) ReplaceCollection(ctx context.Context, id string, kind domain.CollectionKind, items Collection) (Collection, error) {
	column, err := collectionColumn(kind)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = Collection{}
	}

	raw, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", kind, err)
	}

	query := fmt.Sprintf(`
		UPDATE accounts
		SET %[1]s = $2::jsonb, updated_at = $3
		WHERE id = $1
		RETURNING %[1]s
	`, column)

	return r.queryCollection(ctx, id, query, id, raw, time.Now())
}

func (r *accountRepository) queryCollection(ctx context.Context, id, query string, args ...any) (Collection, error) {
	var raw []byte
	if err := r.db.DB.QueryRowContext(ctx, query, args...).Scan(&raw); err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("account with id %s not found: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to query collection: %w", err)
	}

	items := Collection{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, fmt.Errorf("failed to decode collection: %w", err)
		}
	}

	return items, nil
}

func (r *accountRepository) exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.db.DB.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM accounts WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check account existence: %w", err)
	}
	return exists, nil
}

func collectionColumn(kind domain.CollectionKind) (string, error) {
	switch kind {
	case domain.CollectionCart:
		return "cart", nil
	case domain.CollectionWishlist:
		return "wishlist", nil
	default:
		return "", fmt.Errorf("%q: %w", kind, ErrUnknownCollection)
	}
}

func scanAccount(row rowScanner) (*domain.Account, error) {
	account := &domain.Account{}
	var addresses, preferences, stats, cart, wishlist []byte

	err := row.Scan(
		&account.ID,
		&account.Email,
		&account.Name,
		&account.Phone,
		&account.Role,
		&account.Tier,
		&account.ProfileImage,
		&account.PasswordHash,
		&account.FederatedID,
		&account.IsActive,
		&account.IsEmailVerified,
		&addresses,
		&preferences,
		&stats,
		&account.ResetTokenHash,
		&account.ResetTokenExp,
		&account.SyncMarkerHash,
		&account.SyncMarkerExp,
		&cart,
		&wishlist,
		&account.LastLoginAt,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := unmarshalIfPresent(addresses, &account.Addresses); err != nil {
		return nil, fmt.Errorf("failed to decode addresses: %w", err)
	}
	if err := unmarshalIfPresent(preferences, &account.Preferences); err != nil {
		return nil, fmt.Errorf("failed to decode preferences: %w", err)
	}
	if err := unmarshalIfPresent(stats, &account.Stats); err != nil {
		return nil, fmt.Errorf("failed to decode stats: %w", err)
	}

	var cartItems, wishlistItems Collection
	if err := unmarshalIfPresent(cart, &cartItems); err != nil {
		return nil, fmt.Errorf("failed to decode cart: %w", err)
	}
	if err := unmarshalIfPresent(wishlist, &wishlistItems); err != nil {
		return nil, fmt.Errorf("failed to decode wishlist: %w", err)
	}

	if account.Cart, err = decodeCart(cartItems); err != nil {
		return nil, err
	}
	if account.Wishlist, err = decodeWishlist(wishlistItems); err != nil {
		return nil, err
	}

	return account, nil
}

func unmarshalIfPresent(raw []byte, dest any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dest)
}

func marshalAll(values ...any) ([][]byte, error) {
	out := make([][]byte, 0, len(values))
	for _, v := range values {
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		out = append(out, raw)
	}
	return out, nil
}

// isNotFound treats a malformed id like a missing row: it can never resolve
func isNotFound(err error) bool {
	if errors.Is(err, sql.ErrNoRows) {
		return true
	}
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqInvalidTextRepr
}

func expectAffected(result sql.Result, id string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("account with id %s not found: %w", id, ErrNotFound)
	}

	return nil
}
