package repository

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/prperemyshlev/shop-identity/internal/domain"
	"github.com/prperemyshlev/shop-identity/pkg/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var accountColumnNames = []string{
	"id", "email", "name", "phone", "role", "tier", "profile_image", "password_hash", "federated_id",
	"is_active", "is_email_verified", "addresses", "preferences", "stats",
	"reset_token_hash", "reset_token_expiry", "sync_marker_hash", "sync_marker_expiry",
	"cart", "wishlist", "last_login_at", "created_at", "updated_at",
}

func newMockRepo(t *testing.T) (AccountRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewAccountRepository(database.NewPostgresFromDB(db)), mock
}

func accountRow(id, email string, cart string) []driver.Value {
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return []driver.Value{
		id, email, "Ada", nil, domain.RoleCustomer, domain.TierStandard, nil, "$2a$hash", nil,
		true, false, []byte(`[]`), []byte(`{"newsletter":true}`), []byte(`{"total_orders":3}`),
		nil, nil, nil, nil,
		[]byte(cart), []byte(`{}`), nil, created, created,
	}
}

func anyArgs(n int) []driver.Value {
	args := make([]driver.Value, n)
	for i := range args {
		args[i] = sqlmock.AnyArg()
	}
	return args
}

func TestAccountRepository_Create(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO accounts")).
		WithArgs(anyArgs(18)...).
		WillReturnResult(sqlmock.NewResult(0, 1))

	hash := "$2a$hash"
	account := &domain.Account{Email: "a@x.com", PasswordHash: &hash, IsActive: true}
	require.NoError(t, repo.Create(context.Background(), account))

	assert.NotEmpty(t, account.ID)
	assert.False(t, account.CreatedAt.IsZero())
	assert.NotNil(t, account.Cart)
	assert.NotNil(t, account.Wishlist)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepository_CreateDuplicates(t *testing.T) {
	tests := []struct {
		name       string
		constraint string
		want       error
	}{
		{name: "email", constraint: "accounts_email_lower_key", want: ErrDuplicateEmail},
		{name: "federated id", constraint: "accounts_federated_id_key", want: ErrDuplicateFederatedID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newMockRepo(t)

			mock.ExpectExec(regexp.QuoteMeta("INSERT INTO accounts")).
				WillReturnError(&pq.Error{Code: "23505", Constraint: tt.constraint})

			err := repo.Create(context.Background(), &domain.Account{Email: "a@x.com"})
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestAccountRepository_GetByID(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM accounts WHERE id = $1")).
		WithArgs("acc-1").
		WillReturnRows(sqlmock.NewRows(accountColumnNames).
			AddRow(accountRow("acc-1", "a@x.com", `{"sku-1":{"product_id":"p1","quantity":2}}`)...))

	account, err := repo.GetByID(context.Background(), "acc-1")
	require.NoError(t, err)

	assert.Equal(t, "a@x.com", account.Email)
	assert.True(t, account.HasPassword())
	assert.False(t, account.IsFederated())
	assert.Nil(t, account.Phone)
	assert.True(t, account.Preferences.Newsletter)
	assert.Equal(t, 3, account.Stats.TotalOrders)
	require.Contains(t, account.Cart, "sku-1")
	assert.Equal(t, 2, account.Cart["sku-1"].Quantity)
	assert.NotNil(t, account.Wishlist)
	assert.Empty(t, account.Wishlist)
}

func TestAccountRepository_GetByIDNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM accounts WHERE id = $1")).
		WillReturnRows(sqlmock.NewRows(accountColumnNames))
	mock.ExpectQuery(regexp.QuoteMeta("FROM accounts WHERE id = $1")).
		WillReturnError(&pq.Error{Code: "22P02"})

	_, err := repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = repo.GetByID(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAccountRepository_GetByEmailIsCaseInsensitive(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE lower(email) = lower($1)")).
		WithArgs("A@X.com").
		WillReturnRows(sqlmock.NewRows(accountColumnNames).AddRow(accountRow("acc-1", "a@x.com", `{}`)...))

	account, err := repo.GetByEmail(context.Background(), "A@X.com")
	require.NoError(t, err)
	assert.Equal(t, "acc-1", account.ID)
}

func TestAccountRepository_CompleteResetNoMatch(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE reset_token_hash = $1 AND reset_token_expiry > $2")).
		WillReturnRows(sqlmock.NewRows(accountColumnNames))

	_, err := repo.CompleteReset(context.Background(), CompleteResetParams{
		TokenHash:    "hash",
		Now:          time.Now(),
		PasswordHash: "new",
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAccountRepository_ConsumeSyncMarker(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(regexp.QuoteMeta("SET sync_marker_hash = NULL")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("SET sync_marker_hash = NULL")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.ConsumeSyncMarker(context.Background(), "a@x.com", "hash", time.Now()))
	assert.ErrorIs(t, repo.ConsumeSyncMarker(context.Background(), "a@x.com", "hash", time.Now()), ErrNotFound)
}

func TestAccountRepository_UpsertCollectionItem(t *testing.T) {
	repo, mock := newMockRepo(t)

	item := json.RawMessage(`{"product_id":"p1","quantity":5}`)
	mock.ExpectQuery(regexp.QuoteMeta("SET cart = cart || jsonb_build_object($2::text, $3::jsonb)")).
		WithArgs("acc-1", "sku-1", []byte(item), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"cart"}).AddRow([]byte(`{"sku-1":{"product_id":"p1","quantity":5}}`)))

	items, err := repo.UpsertCollectionItem(context.Background(), "acc-1", domain.CollectionCart, "sku-1", item)
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.JSONEq(t, string(item), string(items["sku-1"]))
}

func TestAccountRepository_RemoveCollectionItem(t *testing.T) {
	t.Run("removed", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectQuery(regexp.QuoteMeta("SET wishlist = wishlist - $2::text")).
			WithArgs("acc-1", "p1", sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"wishlist"}).AddRow([]byte(`{}`)))

		items, err := repo.RemoveCollectionItem(context.Background(), "acc-1", domain.CollectionWishlist, "p1")
		require.NoError(t, err)
		assert.Empty(t, items)
	})

	t.Run("missing key", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectQuery(regexp.QuoteMeta("SET cart = cart - $2::text")).
			WillReturnRows(sqlmock.NewRows([]string{"cart"}))
		mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
			WithArgs("acc-1").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

		_, err := repo.RemoveCollectionItem(context.Background(), "acc-1", domain.CollectionCart, "sku-x")
		assert.ErrorIs(t, err, ErrItemNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing account", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectQuery(regexp.QuoteMeta("SET cart = cart - $2::text")).
			WillReturnRows(sqlmock.NewRows([]string{"cart"}))
		mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

		_, err := repo.RemoveCollectionItem(context.Background(), "acc-2", domain.CollectionCart, "sku-x")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestAccountRepository_ReplaceCollection(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("SET cart = $2::jsonb")).
		WithArgs("acc-1", []byte(`{}`), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"cart"}).AddRow([]byte(`{}`)))

	items, err := repo.ReplaceCollection(context.Background(), "acc-1", domain.CollectionCart, nil)
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestAccountRepository_UnknownCollection(t *testing.T) {
	repo, _ := newMockRepo(t)

	_, err := repo.GetCollection(context.Background(), "acc-1", domain.CollectionKind("orders"))
	assert.ErrorIs(t, err, ErrUnknownCollection)
}
