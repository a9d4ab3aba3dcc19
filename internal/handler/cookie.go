package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// SessionCookieName is the cookie holding the session token
const SessionCookieName = "authToken"

// CookieConfig controls the session cookie attributes
type CookieConfig struct {
	// Secure is set in production
	Secure bool
	// MaxAge in seconds, normally the token lifetime
	MaxAge int
}

func setSessionCookie(c *gin.Context, cfg CookieConfig, token string) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(SessionCookieName, token, cfg.MaxAge, "/", "", cfg.Secure, true)
}

// clearSessionCookie expires the cookie on the client. Attributes must match
// the ones used when setting it.
func clearSessionCookie(c *gin.Context, cfg CookieConfig) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(SessionCookieName, "", -1, "/", "", cfg.Secure, true)
}

// sessionToken reads the bearer header first and falls back to the cookie
func sessionToken(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		scheme, token, ok := strings.Cut(header, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			if token = strings.TrimSpace(token); token != "" {
				return token
			}
		}
	}

	token, err := c.Cookie(SessionCookieName)
	if err != nil {
		return ""
	}
	return token
}
