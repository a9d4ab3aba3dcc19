package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prperemyshlev/shop-identity/internal/dto"
	"github.com/prperemyshlev/shop-identity/internal/service"
	"go.uber.org/zap"
)

const resetRequestedMessage = "If an account exists for this email, a password reset has been sent"

// PasswordResetHandler handles the reset handshake
type PasswordResetHandler struct {
	resets service.PasswordResetService
	logger *zap.Logger
}

// NewPasswordResetHandler creates a new password reset handler
func NewPasswordResetHandler(resets service.PasswordResetService, logger *zap.Logger) *PasswordResetHandler {
	return &PasswordResetHandler{
		resets: resets,
		logger: logger,
	}
}

// Request starts a reset. The response does not reveal whether the email exists.
// @Summary Request a password reset
// @Tags password-reset
// @Accept json
// @Produce json
// @Param request body dto.ResetRequest true "Reset request"
// @Success 202 {object} dto.SuccessResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /auth/password-reset/request [post]
func (h *PasswordResetHandler) Request(c *gin.Context) {
	var req dto.ResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if err := h.resets.RequestReset(c.Request.Context(), &req); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusAccepted, dto.SuccessResponse{
		Message: resetRequestedMessage,
	})
}

// Complete sets the new password and returns the sync handoff
// @Summary Complete a password reset
// @Tags password-reset
// @Accept json
// @Produce json
// @Param request body dto.CompleteResetRequest true "Complete reset request"
// @Success 200 {object} dto.ResetHandoff
// @Failure 400 {object} dto.ErrorResponse
// @Router /auth/password-reset/complete [post]
func (h *PasswordResetHandler) Complete(c *gin.Context) {
	var req dto.CompleteResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	handoff, err := h.resets.CompleteReset(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, handoff)
}

// Sync is called by the federated password reconciler to spend a sync marker
// @Summary Consume a sync marker
// @Tags password-reset
// @Accept json
// @Param request body dto.SyncMarkerRequest true "Sync marker"
// @Success 204
// @Failure 400 {object} dto.ErrorResponse
// @Router /auth/password-reset/sync [post]
func (h *PasswordResetHandler) Sync(c *gin.Context) {
	var req dto.SyncMarkerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if err := h.resets.ConsumeSyncMarker(c.Request.Context(), &req); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.Status(http.StatusNoContent)
}
