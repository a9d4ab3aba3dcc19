package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prperemyshlev/shop-identity/internal/config"
	"github.com/prperemyshlev/shop-identity/internal/handler"
	"github.com/prperemyshlev/shop-identity/internal/repository"
	"github.com/prperemyshlev/shop-identity/internal/service"
	"github.com/prperemyshlev/shop-identity/internal/utils"
	"github.com/prperemyshlev/shop-identity/pkg/observability"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

type App struct {
	infra  Infrastructure
	config *config.Config
	router *gin.Engine
	server *http.Server
}

type options struct {
	repos      *repository.Repositories
	limiter    handler.Limiter
	dispatcher service.ResetDispatcher
	health     *HealthChecker
}

// Option overrides a dependency NewApp would otherwise build from the infrastructure
type Option func(*options)

// WithRepositories replaces the Postgres repositories
func WithRepositories(repos *repository.Repositories) Option {
	return func(o *options) { o.repos = repos }
}

// WithRateLimiter replaces the Redis rate limiter
func WithRateLimiter(limiter handler.Limiter) Option {
	return func(o *options) { o.limiter = limiter }
}

// WithResetDispatcher replaces the logging reset dispatcher
func WithResetDispatcher(dispatcher service.ResetDispatcher) Option {
	return func(o *options) { o.dispatcher = dispatcher }
}

// WithHealthChecker replaces the Postgres and Redis health checks
func WithHealthChecker(health *HealthChecker) Option {
	return func(o *options) { o.health = health }
}

func NewApp(infra Infrastructure, cfg *config.Config, opts ...Option) (*App, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.repos == nil {
		o.repos = repository.NewRepositories(infra.Postgres())
	}
	if o.limiter == nil {
		o.limiter = service.NewRateLimiter(infra.Redis().Client)
	}
	if o.dispatcher == nil {
		o.dispatcher = service.NewLogResetDispatcher(infra.Logger())
	}
	if o.health == nil {
		o.health = NewHealthChecker(infra)
	}

	tokens, err := utils.NewTokenService(cfg.JWT.Secret, cfg.JWT.TokenExpiry.Duration)
	if err != nil {
		return nil, err
	}

	metrics, err := observability.NewIdentityMetrics()
	if err != nil {
		return nil, err
	}

	logger := infra.Logger()

	sessionService := service.NewSessionService(o.repos.Account, tokens, metrics, logger, service.SessionConfig{
		BCryptCost:        cfg.Security.BCryptCost,
		PasswordMinLength: cfg.Security.PasswordMinLength,
	})
	resetService := service.NewPasswordResetService(o.repos.Account, o.dispatcher, metrics, logger, service.ResetConfig{
		BCryptCost:        cfg.Security.BCryptCost,
		PasswordMinLength: cfg.Security.PasswordMinLength,
		TokenWindow:       cfg.Security.ResetTokenWindow.Duration,
		SyncMarkerTTL:     cfg.Security.SyncMarkerTTL.Duration,
	})
	collectionService := service.NewCollectionService(o.repos.Account, metrics)

	cookie := handler.CookieConfig{
		Secure: cfg.IsProduction(),
		MaxAge: sessionService.TokenLifetimeSeconds(),
	}

	h := handlers{
		auth:        handler.NewAuthHandler(sessionService, cookie, logger),
		resets:      handler.NewPasswordResetHandler(resetService, logger),
		collections: handler.NewCollectionHandler(collectionService, logger),
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(serviceName))
	router.Use(handler.LoggerMiddleware(logger))
	router.Use(handler.CORSMiddleware(cfg.CORS.AllowedOrigins, cfg.CORS.AllowedMethods, cfg.CORS.AllowedHeaders))

	setupRoutes(router, cfg, h, sessionService, o.limiter, o.health, infra.MetricsHandler(), logger)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout.Duration,
		WriteTimeout: cfg.Server.WriteTimeout.Duration,
	}

	return &App{
		infra:  infra,
		config: cfg,
		router: router,
		server: srv,
	}, nil
}

func (a *App) Router() *gin.Engine {
	return a.router
}

type handlers struct {
	auth        *handler.AuthHandler
	resets      *handler.PasswordResetHandler
	collections *handler.CollectionHandler
}

func setupRoutes(
	router *gin.Engine,
	cfg *config.Config,
	h handlers,
	sessions service.SessionService,
	limiter handler.Limiter,
	healthChecker *HealthChecker,
	metricsHandler http.Handler,
	logger *zap.Logger,
) {
	router.GET("/metrics", observability.PrometheusHandler(metricsHandler))
	router.GET("/health", healthChecker.Handler)

	rateLimited := handler.RateLimitMiddleware(
		limiter,
		cfg.Security.RateLimitRequests,
		cfg.Security.RateLimitWindow.Duration,
		handler.RouteAndIPKey,
		logger,
	)
	authenticated := handler.AuthMiddleware(sessions, logger)

	api := router.Group("/api/v1")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", rateLimited, h.auth.Register)
			auth.POST("/register/federated", rateLimited, h.auth.RegisterFederated)
			auth.POST("/login", rateLimited, h.auth.Login)
			auth.POST("/logout", authenticated, h.auth.Logout)
			auth.GET("/me", h.auth.GetMe)

			reset := auth.Group("/password-reset", rateLimited)
			{
				reset.POST("/request", h.resets.Request)
				reset.POST("/complete", h.resets.Complete)
				reset.POST("/sync", h.resets.Sync)
			}
		}

		cart := api.Group("/cart", authenticated)
		{
			cart.GET("", h.collections.GetCart)
			cart.PUT("/:key", h.collections.PutCartLine)
			cart.DELETE("/:key", h.collections.RemoveCartLine)
			cart.DELETE("", h.collections.ClearCart)
		}

		wishlist := api.Group("/wishlist", authenticated)
		{
			wishlist.GET("", h.collections.GetWishlist)
			wishlist.PUT("/:key", h.collections.PutWishlistItem)
			wishlist.DELETE("/:key", h.collections.RemoveWishlistItem)
			wishlist.DELETE("", h.collections.ClearWishlist)
		}
	}
}

func (a *App) Run(ctx context.Context) error {
	errChan := make(chan error, 1)

	go func() {
		a.infra.Logger().Info("Application starting",
			zap.String("host", a.config.Server.Host),
			zap.String("port", a.config.Server.Port),
		)

		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.infra.Logger().Error("Server error", zap.Error(err))
			errChan <- err
		}
	}()

	var serverErr error
	select {
	case err := <-errChan:
		a.infra.Logger().Error("Application failed to start", zap.Error(err))
		serverErr = err
	case <-ctx.Done():
		a.infra.Logger().Info("Application stopped by context")
	}

	if err := a.Shutdown(); err != nil {
		a.infra.Logger().Error("Shutdown error", zap.Error(err))
		if serverErr != nil {
			return errors.Join(serverErr, err)
		}
		return err
	}

	return serverErr
}

func (a *App) Shutdown() error {
	a.infra.Logger().Info("Application shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	// drain in-flight requests before closing the stores they use
	if err := a.server.Shutdown(ctx); err != nil {
		a.infra.Logger().Error("Shutdown failed", zap.Error(err))
		return errors.Join(err, a.infra.Shutdown(ctx))
	}

	a.infra.Logger().Info("Application exited successfully")
	return a.infra.Shutdown(ctx)
}
