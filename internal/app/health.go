package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const healthCheckTimeout = 2 * time.Second

type pinger interface {
	Ping(ctx context.Context) error
}

type HealthChecker struct {
	dependencies map[string]pinger
}

func NewHealthChecker(infra Infrastructure) *HealthChecker {
	return newHealthChecker(map[string]pinger{
		"postgres": infra.Postgres(),
		"redis":    infra.Redis(),
	})
}

func newHealthChecker(dependencies map[string]pinger) *HealthChecker {
	return &HealthChecker{
		dependencies: dependencies,
	}
}

func (h *HealthChecker) check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	errs := make(chan error, len(h.dependencies))

	for name, dep := range h.dependencies {
		go func() {
			if err := dep.Ping(ctx); err != nil {
				errs <- fmt.Errorf("%s: %w", name, err)
				return
			}
			errs <- nil
		}()
	}

	var all []error
	for range h.dependencies {
		all = append(all, <-errs)
	}

	return errors.Join(all...)
}

func (h *HealthChecker) Handler(c *gin.Context) {
	if err := h.check(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "fail",
			"error":  err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "pass",
	})
}
