package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prperemyshlev/shop-identity/internal/domain"
	"github.com/prperemyshlev/shop-identity/internal/dto"
	"go.uber.org/zap"
)

type errorMapping struct {
	target error
	status int
	title  string
	// detailed errors carry a field name or policy in their message
	detailed bool
}

var errorMappings = []errorMapping{
	{target: domain.ErrMissingField, status: http.StatusBadRequest, title: "Bad request", detailed: true},
	{target: domain.ErrInvalidEmail, status: http.StatusBadRequest, title: "Bad request"},
	{target: domain.ErrWeakPassword, status: http.StatusBadRequest, title: "Bad request", detailed: true},
	{target: domain.ErrInvalidOrExpiredReset, status: http.StatusBadRequest, title: "Bad request"},
	{target: domain.ErrDuplicateAccount, status: http.StatusConflict, title: "Conflict"},
	{target: domain.ErrInvalidCredentials, status: http.StatusUnauthorized, title: "Unauthorized"},
	{target: domain.ErrMissingToken, status: http.StatusUnauthorized, title: "Unauthorized"},
	{target: domain.ErrInvalidToken, status: http.StatusUnauthorized, title: "Unauthorized"},
	{target: domain.ErrExpiredToken, status: http.StatusUnauthorized, title: "Unauthorized"},
	{target: domain.ErrAccountDeactivated, status: http.StatusForbidden, title: "Forbidden"},
	{target: domain.ErrAccountNotFound, status: http.StatusNotFound, title: "Not found"},
	{target: domain.ErrItemNotFound, status: http.StatusNotFound, title: "Not found"},
}

// respondError writes the JSON error for err. Anything not in the taxonomy
// (store failures, configuration errors) is logged and answered with a generic 500.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	for _, m := range errorMappings {
		if !errors.Is(err, m.target) {
			continue
		}

		message := m.target.Error()
		if m.detailed {
			message = err.Error()
		}

		c.AbortWithStatusJSON(m.status, dto.ErrorResponse{
			Error:   m.title,
			Message: message,
		})
		return
	}

	logger.Error("request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Bool("configuration", errors.Is(err, domain.ErrConfiguration)),
		zap.Error(err),
	)

	c.AbortWithStatusJSON(http.StatusInternalServerError, dto.ErrorResponse{
		Error:   "Internal server error",
		Message: "an unexpected error occurred",
	})
}

// respondBindError answers a malformed request body
func respondBindError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, dto.ErrorResponse{
		Error:   "Validation failed",
		Message: err.Error(),
	})
}
