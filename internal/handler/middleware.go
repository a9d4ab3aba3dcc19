package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/prperemyshlev/shop-identity/internal/domain"
	"github.com/prperemyshlev/shop-identity/internal/service"
	"go.uber.org/zap"
)

const (
	ctxAccountKey = "account"
	ctxUserIDKey  = "user_id"
)

// AuthMiddleware resolves the session token and adds the account to the context
func AuthMiddleware(sessions service.SessionService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		account, err := sessions.Authenticate(c.Request.Context(), sessionToken(c))
		if err != nil {
			respondError(c, logger, err)
			return
		}

		c.Set(ctxAccountKey, account)
		c.Set(ctxUserIDKey, account.ID)

		c.Next()
	}
}

func currentAccount(c *gin.Context) (*domain.Account, bool) {
	v, ok := c.Get(ctxAccountKey)
	if !ok {
		return nil, false
	}
	account, ok := v.(*domain.Account)
	return account, ok
}
