package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/prperemyshlev/shop-identity/internal/domain"
	"github.com/prperemyshlev/shop-identity/internal/dto"
	"github.com/prperemyshlev/shop-identity/internal/repository"
	"github.com/prperemyshlev/shop-identity/internal/utils"
	"github.com/prperemyshlev/shop-identity/pkg/observability"
	"go.uber.org/zap"
)

const (
	originLocal     = "local"
	originFederated = "federated"
)

// SessionConfig holds the password policy used at registration
type SessionConfig struct {
	BCryptCost        int
	PasswordMinLength int
}

// sessionService implements SessionService interface
type sessionService struct {
	accounts repository.AccountRepository
	tokens   *utils.TokenService
	metrics  *observability.IdentityMetrics
	logger   *zap.Logger
	cfg      SessionConfig
	now      func() time.Time
}

// NewSessionService creates a new session service
func NewSessionService(
	accounts repository.AccountRepository,
	tokens *utils.TokenService,
	metrics *observability.IdentityMetrics,
	logger *zap.Logger,
	cfg SessionConfig,
) SessionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &sessionService{
		accounts: accounts,
		tokens:   tokens,
		metrics:  metrics,
		logger:   logger,
		cfg:      cfg,
		now:      time.Now,
	}
}

// RegisterLocal creates an account with a password
func (s *sessionService) RegisterLocal(ctx context.Context, req *dto.RegisterRequest) (*dto.SessionResponse, error) {
	email := utils.SanitizeEmail(req.Email)
	if email == "" {
		return nil, missingField("email")
	}
	if req.Password == "" {
		return nil, missingField("password")
	}
	if !utils.ValidateEmail(email) {
		return nil, domain.ErrInvalidEmail
	}
	if !utils.ValidatePassword(req.Password, s.cfg.PasswordMinLength) {
		return nil, fmt.Errorf("%w: at least %d characters required", domain.ErrWeakPassword, s.cfg.PasswordMinLength)
	}
	if s.tokens == nil {
		return nil, domain.ErrConfiguration
	}

	passwordHash, err := utils.HashPassword(req.Password, s.cfg.BCryptCost)
	if err != nil {
		return nil, err
	}

	account := newAccount(email, req.ProfileFields)
	account.PasswordHash = &passwordHash

	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, createError(err)
	}

	s.metrics.RecordRegistration(ctx, originLocal)
	s.logger.Info("account registered", zap.String("account_id", account.ID), zap.String("origin", originLocal))

	return s.issueSession(account)
}

// RegisterFederated creates an account linked to an external identity provider.
// The provider already verified the email. An existing email is never re-linked.
func (s *sessionService) RegisterFederated(ctx context.Context, req *dto.FederatedRegisterRequest) (*dto.SessionResponse, error) {
	federatedID := strings.TrimSpace(req.FederatedID)
	if federatedID == "" {
		return nil, missingField("federated_id")
	}
	email := utils.SanitizeEmail(req.Email)
	if email == "" {
		return nil, missingField("email")
	}
	if !utils.ValidateEmail(email) {
		return nil, domain.ErrInvalidEmail
	}
	if s.tokens == nil {
		return nil, domain.ErrConfiguration
	}

	account := newAccount(email, req.ProfileFields)
	account.FederatedID = &federatedID
	account.IsEmailVerified = true

	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, createError(err)
	}

	s.metrics.RecordRegistration(ctx, originFederated)
	s.logger.Info("account registered", zap.String("account_id", account.ID), zap.String("origin", originFederated))

	return s.issueSession(account)
}

// Login authenticates with email and password. Unknown email, missing local
// password and wrong password all yield ErrInvalidCredentials.
func (s *sessionService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.SessionResponse, error) {
	email := utils.SanitizeEmail(req.Email)
	if email == "" {
		return nil, missingField("email")
	}
	if req.Password == "" {
		return nil, missingField("password")
	}
	if s.tokens == nil {
		return nil, domain.ErrConfiguration
	}

	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, storeFailure(err)
		}
		utils.CheckPasswordOrDummy(req.Password, nil)
		s.metrics.RecordLogin(ctx, "invalid_credentials")
		return nil, domain.ErrInvalidCredentials
	}

	if !utils.CheckPasswordOrDummy(req.Password, account.PasswordHash) {
		s.metrics.RecordLogin(ctx, "invalid_credentials")
		return nil, domain.ErrInvalidCredentials
	}

	if !account.IsActive {
		s.metrics.RecordLogin(ctx, "deactivated")
		return nil, domain.ErrAccountDeactivated
	}

	now := s.now()
	if err := s.accounts.UpdateLastLogin(ctx, account.ID, now); err != nil {
		return nil, accountLookupError(err)
	}
	account.LastLoginAt = &now

	s.metrics.RecordLogin(ctx, "success")

	return s.issueSession(account)
}

// Authenticate verifies the token and loads the active account it names
func (s *sessionService) Authenticate(ctx context.Context, token string) (*domain.Account, error) {
	if token == "" {
		return nil, domain.ErrMissingToken
	}

	accountID, err := s.tokens.Verify(token)
	if err != nil {
		return nil, err
	}

	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, accountLookupError(err)
	}

	if !account.IsActive {
		return nil, domain.ErrAccountDeactivated
	}

	return account, nil
}

// ResolveCurrentUser returns the public profile of the token's account
func (s *sessionService) ResolveCurrentUser(ctx context.Context, token string) (*domain.PublicProfile, error) {
	account, err := s.Authenticate(ctx, token)
	if err != nil {
		return nil, err
	}

	profile := account.Profile()
	return &profile, nil
}

func (s *sessionService) Logout(_ context.Context, accountID string) {
	s.logger.Debug("session cookie cleared", zap.String("account_id", accountID))
}

// TokenLifetimeSeconds is the max age of the session cookie
func (s *sessionService) TokenLifetimeSeconds() int {
	if s.tokens == nil {
		return 0
	}
	return int(s.tokens.Expiry().Seconds())
}

func (s *sessionService) issueSession(account *domain.Account) (*dto.SessionResponse, error) {
	token, err := s.tokens.Issue(account.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue session token: %w", err)
	}

	return &dto.SessionResponse{
		Token:     token,
		TokenType: "Bearer",
		ExpiresIn: s.TokenLifetimeSeconds(),
		User:      account.Profile(),
	}, nil
}

func newAccount(email string, profile dto.ProfileFields) *domain.Account {
	return &domain.Account{
		Email:        email,
		Name:         strings.TrimSpace(profile.Name),
		Phone:        profile.Phone,
		ProfileImage: profile.ProfileImage,
		Role:         domain.RoleCustomer,
		Tier:         domain.TierStandard,
		IsActive:     true,
		Addresses:    []domain.Address{},
		Cart:         domain.Cart{},
		Wishlist:     domain.Wishlist{},
	}
}

func createError(err error) error {
	if errors.Is(err, repository.ErrDuplicateEmail) || errors.Is(err, repository.ErrDuplicateFederatedID) {
		return domain.ErrDuplicateAccount
	}
	return storeFailure(err)
}
