package handler

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prperemyshlev/shop-identity/internal/dto"
	"github.com/prperemyshlev/shop-identity/internal/service"
	"go.uber.org/zap"
)

// Limiter decides whether a keyed request fits in its window
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (*service.RateLimitDecision, error)
}

// RateLimitMiddleware creates a rate limiting middleware. When the limiter
// backend fails the request is let through and the failure is logged.
func RateLimitMiddleware(limiter Limiter, limit int, window time.Duration, keyFunc func(*gin.Context) string, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		decision, err := limiter.Allow(c.Request.Context(), keyFunc(c), limit, window)
		if err != nil {
			logger.Warn("rate limiter unavailable", zap.Error(err))
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))

		if !decision.Allowed {
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(decision.RetryAfter.Seconds()))))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, dto.ErrorResponse{
				Error:   "Too Many Requests",
				Message: "Rate limit exceeded, try again in " + decision.RetryAfter.Round(time.Second).String(),
			})
			return
		}

		c.Next()
	}
}

// IPBasedKey extracts rate limit key from client IP
func IPBasedKey(c *gin.Context) string {
	if forwarded := c.GetHeader("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}
	return c.ClientIP()
}

// RouteAndIPKey limits each route separately per client
func RouteAndIPKey(c *gin.Context) string {
	return c.FullPath() + ":" + IPBasedKey(c)
}
