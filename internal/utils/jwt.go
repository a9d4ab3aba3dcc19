package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/prperemyshlev/shop-identity/internal/domain"
)

// SessionTokenExpiry is the lifetime of a session token and its cookie
const SessionTokenExpiry = 7 * 24 * time.Hour

// SessionClaims binds a session token to an account
type SessionClaims struct {
	jwt.RegisteredClaims
	AccountID string `json:"account_id"`
}

// TokenService issues and verifies signed session tokens. It is stateless:
// there is no server-side session table and no revocation list.
type TokenService struct {
	secret []byte
	expiry time.Duration
	now    func() time.Time
}

// NewTokenService creates a token service. An empty secret is a configuration
// error and no service is returned.
func NewTokenService(secret string, expiry time.Duration) (*TokenService, error) {
	if secret == "" {
		return nil, fmt.Errorf("%w: signing secret is not set", domain.ErrConfiguration)
	}
	if expiry <= 0 {
		expiry = SessionTokenExpiry
	}

	return &TokenService{
		secret: []byte(secret),
		expiry: expiry,
		now:    time.Now,
	}, nil
}

// WithClock replaces the time source, used by tests to move past expiry
func (t *TokenService) WithClock(now func() time.Time) *TokenService {
	t.now = now
	return t
}

// Issue creates a token for the account
func (t *TokenService) Issue(accountID string) (string, error) {
	if t == nil || len(t.secret) == 0 {
		return "", domain.ErrConfiguration
	}
	if accountID == "" {
		return "", fmt.Errorf("%w: account id", domain.ErrMissingField)
	}

	now := t.now()
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID,
			ID:        uuid.New().String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.expiry)),
		},
		AccountID: accountID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// Verify checks the signature and expiry and returns the account id
func (t *TokenService) Verify(tokenString string) (string, error) {
	if t == nil || len(t.secret) == 0 {
		return "", domain.ErrConfiguration
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)

	claims := &SessionClaims{}
	token, err := parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return t.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", domain.ErrExpiredToken
		}
		return "", fmt.Errorf("%w: %v", domain.ErrInvalidToken, err)
	}

	if !token.Valid || claims.AccountID == "" || claims.AccountID != claims.Subject {
		return "", domain.ErrInvalidToken
	}

	return claims.AccountID, nil
}

// Expiry returns the token lifetime
func (t *TokenService) Expiry() time.Duration {
	return t.expiry
}
