package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prperemyshlev/shop-identity/internal/dto"
	"github.com/prperemyshlev/shop-identity/internal/service"
	"go.uber.org/zap"
)

// AuthHandler handles session requests
type AuthHandler struct {
	sessions service.SessionService
	cookie   CookieConfig
	logger   *zap.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(sessions service.SessionService, cookie CookieConfig, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		sessions: sessions,
		cookie:   cookie,
		logger:   logger,
	}
}

// Register handles local registration
// @Summary Register a new account
// @Description Register with email and password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.RegisterRequest true "Registration request"
// @Success 201 {object} dto.SessionResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	response, err := h.sessions.RegisterLocal(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	setSessionCookie(c, h.cookie, response.Token)

	c.JSON(http.StatusCreated, response)
}

// RegisterFederated handles registration through an external identity provider
// @Summary Register a federated account
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.FederatedRegisterRequest true "Federated registration request"
// @Success 201 {object} dto.SessionResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Router /auth/register/federated [post]
func (h *AuthHandler) RegisterFederated(c *gin.Context) {
	var req dto.FederatedRegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	response, err := h.sessions.RegisterFederated(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	setSessionCookie(c, h.cookie, response.Token)

	c.JSON(http.StatusCreated, response)
}

// Login handles user login
// @Summary Login
// @Description Authenticate with email and password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "Login request"
// @Success 200 {object} dto.SessionResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	response, err := h.sessions.Login(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	setSessionCookie(c, h.cookie, response.Token)

	c.JSON(http.StatusOK, response)
}

// Logout handles user logout
// @Summary Logout
// @Description Clear the session cookie. The token itself stays valid until it expires.
// @Tags auth
// @Security BearerAuth
// @Produce json
// @Success 200 {object} dto.SuccessResponse
// @Failure 401 {object} dto.ErrorResponse
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	account, ok := currentAccount(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{
			Error:   "Unauthorized",
			Message: "Account not found in context",
		})
		return
	}

	h.sessions.Logout(c.Request.Context(), account.ID)
	clearSessionCookie(c, h.cookie)

	c.JSON(http.StatusOK, dto.SuccessResponse{
		Message: "Logged out successfully",
	})
}

// GetMe handles getting the current account profile
// @Summary Get current account profile
// @Description Resolve the bearer token, or the session cookie when no header is sent
// @Tags auth
// @Security BearerAuth
// @Produce json
// @Success 200 {object} domain.PublicProfile
// @Failure 401 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /auth/me [get]
func (h *AuthHandler) GetMe(c *gin.Context) {
	profile, err := h.sessions.ResolveCurrentUser(c.Request.Context(), sessionToken(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}
