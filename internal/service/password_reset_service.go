package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prperemyshlev/shop-identity/internal/domain"
	"github.com/prperemyshlev/shop-identity/internal/dto"
	"github.com/prperemyshlev/shop-identity/internal/repository"
	"github.com/prperemyshlev/shop-identity/internal/utils"
	"github.com/prperemyshlev/shop-identity/pkg/observability"
	"go.uber.org/zap"
)

const (
	DefaultResetTokenWindow = 10 * time.Minute
	DefaultSyncMarkerTTL    = 15 * time.Minute
)

// ResetConfig holds the reset windows and the password policy
type ResetConfig struct {
	BCryptCost        int
	PasswordMinLength int
	TokenWindow       time.Duration
	SyncMarkerTTL     time.Duration
}

type passwordResetService struct {
	accounts   repository.AccountRepository
	dispatcher ResetDispatcher
	metrics    *observability.IdentityMetrics
	logger     *zap.Logger
	cfg        ResetConfig
	now        func() time.Time
}

// NewPasswordResetService creates a new password reset service
func NewPasswordResetService(
	accounts repository.AccountRepository,
	dispatcher ResetDispatcher,
	metrics *observability.IdentityMetrics,
	logger *zap.Logger,
	cfg ResetConfig,
) PasswordResetService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if dispatcher == nil {
		dispatcher = NewLogResetDispatcher(logger)
	}
	if cfg.TokenWindow <= 0 {
		cfg.TokenWindow = DefaultResetTokenWindow
	}
	if cfg.SyncMarkerTTL <= 0 {
		cfg.SyncMarkerTTL = DefaultSyncMarkerTTL
	}

	return &passwordResetService{
		accounts:   accounts,
		dispatcher: dispatcher,
		metrics:    metrics,
		logger:     logger,
		cfg:        cfg,
		now:        time.Now,
	}
}

func (s *passwordResetService) RequestReset(ctx context.Context, req *dto.ResetRequest) error {
	email := utils.SanitizeEmail(req.Email)
	if email == "" {
		return missingField("email")
	}

	secret, err := utils.GenerateSecret()
	if err != nil {
		return err
	}

	ticket, err := s.BeginReset(ctx, email, secret)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			s.logger.Debug("password reset requested for unknown email")
			return nil
		}
		return err
	}

	if err := s.dispatcher.Dispatch(ctx, ticket); err != nil {
		return fmt.Errorf("failed to dispatch password reset: %w", err)
	}

	return nil
}

// BeginReset stores hash(secret) with a fresh expiry. A pending reset is overwritten.
func (s *passwordResetService) BeginReset(ctx context.Context, email, secret string) (*dto.ResetTicket, error) {
	email = utils.SanitizeEmail(email)
	if email == "" {
		return nil, missingField("email")
	}
	if secret == "" {
		return nil, missingField("secret")
	}

	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		return nil, accountLookupError(err)
	}

	expiresAt := s.now().Add(s.cfg.TokenWindow)
	if err := s.accounts.SetResetToken(ctx, account.ID, utils.HashToken(secret), expiresAt); err != nil {
		return nil, accountLookupError(err)
	}

	s.metrics.RecordReset(ctx, "request", "issued")

	return &dto.ResetTicket{
		Email:     account.Email,
		Secret:    secret,
		ExpiresAt: expiresAt,
	}, nil
}

// CompleteReset sets the new password if hash(token) matches an unexpired reset.
// A wrong token and an expired one fail the same way.
func (s *passwordResetService) CompleteReset(ctx context.Context, req *dto.CompleteResetRequest) (*dto.ResetHandoff, error) {
	if req.Token == "" {
		return nil, missingField("token")
	}
	if req.NewPassword == "" {
		return nil, missingField("new_password")
	}
	if !utils.ValidatePassword(req.NewPassword, s.cfg.PasswordMinLength) {
		return nil, fmt.Errorf("%w: at least %d characters required", domain.ErrWeakPassword, s.cfg.PasswordMinLength)
	}

	passwordHash, err := utils.HashPassword(req.NewPassword, s.cfg.BCryptCost)
	if err != nil {
		return nil, err
	}

	syncMarker, err := utils.GenerateSecret()
	if err != nil {
		return nil, err
	}

	now := s.now()
	account, err := s.accounts.CompleteReset(ctx, repository.CompleteResetParams{
		TokenHash:        utils.HashToken(req.Token),
		Now:              now,
		PasswordHash:     passwordHash,
		SyncMarkerHash:   utils.HashToken(syncMarker),
		SyncMarkerExpiry: now.Add(s.cfg.SyncMarkerTTL),
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.metrics.RecordReset(ctx, "complete", "rejected")
			return nil, domain.ErrInvalidOrExpiredReset
		}
		return nil, storeFailure(err)
	}

	s.metrics.RecordReset(ctx, "complete", "success")
	s.logger.Info("password reset completed", zap.String("account_id", account.ID))

	return &dto.ResetHandoff{
		Email:     account.Email,
		SyncToken: syncMarker,
	}, nil
}

func (s *passwordResetService) ConsumeSyncMarker(ctx context.Context, req *dto.SyncMarkerRequest) error {
	email := utils.SanitizeEmail(req.Email)
	if email == "" {
		return missingField("email")
	}
	if req.SyncToken == "" {
		return missingField("sync_token")
	}

	err := s.accounts.ConsumeSyncMarker(ctx, email, utils.HashToken(req.SyncToken), s.now())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.metrics.RecordReset(ctx, "sync", "rejected")
			return domain.ErrInvalidOrExpiredReset
		}
		return storeFailure(err)
	}

	s.metrics.RecordReset(ctx, "sync", "success")
	return nil
}

// LogResetDispatcher writes reset tickets to the log. The secret is only
// logged at debug level, which the production logger does not enable.
type LogResetDispatcher struct {
	logger *zap.Logger
}

// NewLogResetDispatcher creates a dispatcher that logs instead of delivering
func NewLogResetDispatcher(logger *zap.Logger) *LogResetDispatcher {
	return &LogResetDispatcher{logger: logger}
}

func (d *LogResetDispatcher) Dispatch(_ context.Context, ticket *dto.ResetTicket) error {
	d.logger.Info("password reset issued",
		zap.String("email", ticket.Email),
		zap.Time("expires_at", ticket.ExpiresAt),
	)
	d.logger.Debug("password reset secret", zap.String("secret", ticket.Secret))
	return nil
}
