package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/prperemyshlev/shop-identity/internal/domain"
	"github.com/prperemyshlev/shop-identity/internal/dto"
	"github.com/prperemyshlev/shop-identity/internal/repository"
	"github.com/prperemyshlev/shop-identity/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterLocal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	name := "Ada"
	resp, err := f.sessions.RegisterLocal(ctx, &dto.RegisterRequest{
		Email:         "  Ada@Example.COM ",
		Password:      "secret1",
		ProfileFields: dto.ProfileFields{Name: name},
	})
	require.NoError(t, err)

	assert.Equal(t, "ada@example.com", resp.User.Email)
	assert.Equal(t, name, resp.User.Name)
	assert.Equal(t, domain.RoleCustomer, resp.User.Role)
	assert.Equal(t, domain.TierStandard, resp.User.Tier)
	assert.False(t, resp.User.IsEmailVerified)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.Equal(t, int((7 * 24 * time.Hour).Seconds()), resp.ExpiresIn)

	accountID, err := f.tokens.Verify(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, accountID)

	stored, err := f.accounts.GetByID(ctx, resp.User.ID)
	require.NoError(t, err)
	assert.True(t, stored.HasPassword())
	assert.False(t, stored.IsFederated())
	assert.NotEqual(t, "secret1", *stored.PasswordHash)
	assert.True(t, utils.CheckPasswordHash("secret1", *stored.PasswordHash))
	assert.NotNil(t, stored.Cart)
	assert.NotNil(t, stored.Wishlist)

	body, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.NotContains(t, string(body), *stored.PasswordHash)
	assert.NotContains(t, string(body), "password")
}

func TestRegisterLocal_Validation(t *testing.T) {
	tests := []struct {
		name string
		req  dto.RegisterRequest
		want error
	}{
		{name: "missing email", req: dto.RegisterRequest{Password: "secret1"}, want: domain.ErrMissingField},
		{name: "blank email", req: dto.RegisterRequest{Email: "   ", Password: "secret1"}, want: domain.ErrMissingField},
		{name: "missing password", req: dto.RegisterRequest{Email: "a@x.com"}, want: domain.ErrMissingField},
		{name: "invalid email", req: dto.RegisterRequest{Email: "not-an-email", Password: "secret1"}, want: domain.ErrInvalidEmail},
		{name: "short password", req: dto.RegisterRequest{Email: "a@x.com", Password: "abc"}, want: domain.ErrWeakPassword},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			_, err := f.sessions.RegisterLocal(context.Background(), &tt.req)
			assert.ErrorIs(t, err, tt.want)

			_, err = f.accounts.GetByEmail(context.Background(), "a@x.com")
			assert.ErrorIs(t, err, repository.ErrNotFound, "nothing must be stored")
		})
	}
}

func TestRegisterLocal_DuplicateEmailIsCaseInsensitive(t *testing.T) {
	f := newFixture(t)
	f.register(t, "a@x.com", "secret1")

	_, err := f.sessions.RegisterLocal(context.Background(), &dto.RegisterRequest{
		Email:    "A@X.COM",
		Password: "another1",
	})
	assert.ErrorIs(t, err, domain.ErrDuplicateAccount)
}

func TestRegisterFederated(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	resp, err := f.sessions.RegisterFederated(ctx, &dto.FederatedRegisterRequest{
		FederatedID: "google-oauth2|12345",
		Email:       "fed@x.com",
	})
	require.NoError(t, err)
	assert.True(t, resp.User.IsEmailVerified)

	stored, err := f.accounts.GetByID(ctx, resp.User.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsFederated())
	assert.False(t, stored.HasPassword())
	assert.Equal(t, "google-oauth2|12345", *stored.FederatedID)

	accountID, err := f.tokens.Verify(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, stored.ID, accountID)
}

func TestRegisterFederated_NeverRelinks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "a@x.com", "secret1")

	_, err := f.sessions.RegisterFederated(ctx, &dto.FederatedRegisterRequest{FederatedID: "ext-1", Email: "a@x.com"})
	assert.ErrorIs(t, err, domain.ErrDuplicateAccount)

	_, err = f.sessions.RegisterFederated(ctx, &dto.FederatedRegisterRequest{FederatedID: "ext-2", Email: "b@x.com"})
	require.NoError(t, err)

	_, err = f.sessions.RegisterFederated(ctx, &dto.FederatedRegisterRequest{FederatedID: "ext-3", Email: "B@x.com"})
	assert.ErrorIs(t, err, domain.ErrDuplicateAccount)

	_, err = f.sessions.RegisterFederated(ctx, &dto.FederatedRegisterRequest{FederatedID: "ext-2", Email: "c@x.com"})
	assert.ErrorIs(t, err, domain.ErrDuplicateAccount)
}

func TestRegisterFederated_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.sessions.RegisterFederated(ctx, &dto.FederatedRegisterRequest{Email: "a@x.com"})
	assert.ErrorIs(t, err, domain.ErrMissingField)

	_, err = f.sessions.RegisterFederated(ctx, &dto.FederatedRegisterRequest{FederatedID: "ext-1"})
	assert.ErrorIs(t, err, domain.ErrMissingField)
}

func TestLogin_FailuresAreIndistinguishable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "a@x.com", "secret1")

	_, wrongPassword := f.sessions.Login(ctx, &dto.LoginRequest{Email: "a@x.com", Password: "wrong-password"})
	_, unknownEmail := f.sessions.Login(ctx, &dto.LoginRequest{Email: "nobody@x.com", Password: "secret1"})

	require.Error(t, wrongPassword)
	require.Error(t, unknownEmail)
	assert.ErrorIs(t, wrongPassword, domain.ErrInvalidCredentials)
	assert.ErrorIs(t, unknownEmail, domain.ErrInvalidCredentials)
	assert.Equal(t, wrongPassword.Error(), unknownEmail.Error())
}

func TestLogin_FederatedAccountHasNoPassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.sessions.RegisterFederated(ctx, &dto.FederatedRegisterRequest{FederatedID: "ext-1", Email: "fed@x.com"})
	require.NoError(t, err)

	_, err = f.sessions.Login(ctx, &dto.LoginRequest{Email: "fed@x.com", Password: "anything"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestLogin_DeactivatedCheckedAfterCredentials(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	hash, err := utils.HashPassword("secret1", 4)
	require.NoError(t, err)
	require.NoError(t, f.accounts.Create(ctx, &domain.Account{
		Email:        "off@x.com",
		PasswordHash: &hash,
		IsActive:     false,
	}))

	_, err = f.sessions.Login(ctx, &dto.LoginRequest{Email: "off@x.com", Password: "wrong-password"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = f.sessions.Login(ctx, &dto.LoginRequest{Email: "off@x.com", Password: "secret1"})
	assert.ErrorIs(t, err, domain.ErrAccountDeactivated)
}

func TestLogin_UpdatesLastLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	registered := f.register(t, "a@x.com", "secret1")
	assert.Nil(t, registered.User.LastLoginAt)

	f.clock.Advance(time.Hour)
	resp, err := f.sessions.Login(ctx, &dto.LoginRequest{Email: "A@x.com", Password: "secret1"})
	require.NoError(t, err)
	require.NotNil(t, resp.User.LastLoginAt)
	assert.True(t, resp.User.LastLoginAt.Equal(f.clock.Now()))

	stored, err := f.accounts.GetByID(ctx, registered.User.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.LastLoginAt)
	assert.True(t, stored.LastLoginAt.Equal(f.clock.Now()))
}

func TestLogin_Validation(t *testing.T) {
	f := newFixture(t)

	_, err := f.sessions.Login(context.Background(), &dto.LoginRequest{Password: "secret1"})
	assert.ErrorIs(t, err, domain.ErrMissingField)

	_, err = f.sessions.Login(context.Background(), &dto.LoginRequest{Email: "a@x.com"})
	assert.ErrorIs(t, err, domain.ErrMissingField)
}

func TestAuthenticate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	registered := f.register(t, "a@x.com", "secret1")

	t.Run("valid token", func(t *testing.T) {
		profile, err := f.sessions.ResolveCurrentUser(ctx, registered.Token)
		require.NoError(t, err)
		assert.Equal(t, registered.User.ID, profile.ID)
		assert.Equal(t, "a@x.com", profile.Email)
	})

	t.Run("missing token", func(t *testing.T) {
		_, err := f.sessions.ResolveCurrentUser(ctx, "")
		assert.ErrorIs(t, err, domain.ErrMissingToken)
	})

	t.Run("malformed token", func(t *testing.T) {
		_, err := f.sessions.ResolveCurrentUser(ctx, "not.a.token")
		assert.ErrorIs(t, err, domain.ErrInvalidToken)
	})

	t.Run("token for unknown account", func(t *testing.T) {
		token, err := f.tokens.Issue("00000000-0000-0000-0000-000000000000")
		require.NoError(t, err)

		_, err = f.sessions.ResolveCurrentUser(ctx, token)
		assert.ErrorIs(t, err, domain.ErrAccountNotFound)
	})
}

func TestAuthenticate_ExpiredToken(t *testing.T) {
	f := newFixture(t)
	registered := f.register(t, "a@x.com", "secret1")

	f.clock.Advance(7*24*time.Hour + time.Second)

	_, err := f.sessions.Authenticate(context.Background(), registered.Token)
	assert.ErrorIs(t, err, domain.ErrExpiredToken)
}

func TestAuthenticate_DeactivatedAccount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	hash, err := utils.HashPassword("secret1", 4)
	require.NoError(t, err)
	account := &domain.Account{Email: "off@x.com", PasswordHash: &hash, IsActive: false}
	require.NoError(t, f.accounts.Create(ctx, account))

	token, err := f.tokens.Issue(account.ID)
	require.NoError(t, err)

	_, err = f.sessions.Authenticate(ctx, token)
	assert.ErrorIs(t, err, domain.ErrAccountDeactivated)
}

func TestSessionService_WithoutTokenService(t *testing.T) {
	sessions := NewSessionService(repository.NewMemoryAccountRepository(), nil, nil, nil, SessionConfig{PasswordMinLength: 6})

	_, err := sessions.RegisterLocal(context.Background(), &dto.RegisterRequest{Email: "a@x.com", Password: "secret1"})
	assert.ErrorIs(t, err, domain.ErrConfiguration)

	_, err = sessions.Authenticate(context.Background(), "some-token")
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestRegisterThenLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := f.register(t, "a@x.com", "secret1")

	_, err := f.sessions.Login(ctx, &dto.LoginRequest{Email: "a@x.com", Password: "wrong"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	second, err := f.sessions.Login(ctx, &dto.LoginRequest{Email: "a@x.com", Password: "secret1"})
	require.NoError(t, err)
	assert.NotEqual(t, first.Token, second.Token)

	firstID, err := f.tokens.Verify(first.Token)
	require.NoError(t, err)
	secondID, err := f.tokens.Verify(second.Token)
	require.NoError(t, err)
	assert.Equal(t, firstID, secondID)
	assert.Equal(t, first.User.ID, firstID)
}
