package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prperemyshlev/shop-identity/internal/dto"
	"github.com/prperemyshlev/shop-identity/internal/repository"
	"github.com/prperemyshlev/shop-identity/internal/utils"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret-key-that-is-at-least-32-characters-long"

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type captureDispatcher struct {
	tickets []*dto.ResetTicket
}

func (d *captureDispatcher) Dispatch(_ context.Context, ticket *dto.ResetTicket) error {
	d.tickets = append(d.tickets, ticket)
	return nil
}

func (d *captureDispatcher) last(t *testing.T) *dto.ResetTicket {
	t.Helper()
	require.NotEmpty(t, d.tickets, "no reset ticket was dispatched")
	return d.tickets[len(d.tickets)-1]
}

type fixture struct {
	clock       *fakeClock
	accounts    repository.AccountRepository
	tokens      *utils.TokenService
	dispatcher  *captureDispatcher
	sessions    *sessionService
	resets      *passwordResetService
	collections *collectionService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	accounts := repository.NewMemoryAccountRepository()

	tokens, err := utils.NewTokenService(testSecret, utils.SessionTokenExpiry)
	require.NoError(t, err)
	tokens.WithClock(clock.Now)

	dispatcher := &captureDispatcher{}

	sessions := NewSessionService(accounts, tokens, nil, nil, SessionConfig{
		BCryptCost:        bcrypt.MinCost,
		PasswordMinLength: 6,
	}).(*sessionService)
	sessions.now = clock.Now

	resets := NewPasswordResetService(accounts, dispatcher, nil, nil, ResetConfig{
		BCryptCost:        bcrypt.MinCost,
		PasswordMinLength: 6,
		TokenWindow:       10 * time.Minute,
		SyncMarkerTTL:     15 * time.Minute,
	}).(*passwordResetService)
	resets.now = clock.Now

	collections := NewCollectionService(accounts, nil).(*collectionService)
	collections.now = clock.Now

	return &fixture{
		clock:       clock,
		accounts:    accounts,
		tokens:      tokens,
		dispatcher:  dispatcher,
		sessions:    sessions,
		resets:      resets,
		collections: collections,
	}
}

func (f *fixture) register(t *testing.T, email, password string) *dto.SessionResponse {
	t.Helper()
	resp, err := f.sessions.RegisterLocal(context.Background(), &dto.RegisterRequest{Email: email, Password: password})
	require.NoError(t, err)
	return resp
}
