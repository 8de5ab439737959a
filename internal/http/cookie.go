package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	sessionCookieName = "session"

	oauthStateCookie    = "google_oauth_state"
	oauthVerifierCookie = "google_code_verifier"
	oauthRedirectCookie = "google_redirect_uri"

	// Cookies del handshake OAuth: vida corta, un solo uso.
	oauthCookieMaxAge = 60 * 10
)

func setSessionCookie(c *gin.Context, token string, expiresAt time.Time, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	maxAge := int(time.Until(expiresAt).Seconds())
	c.SetCookie(sessionCookieName, token, maxAge, "/", "", secure, true)
}

func clearSessionCookie(c *gin.Context, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookieName, "", -1, "/", "", secure, true)
}

func sessionTokenFromCookie(c *gin.Context) string {
	token, err := c.Cookie(sessionCookieName)
	if err != nil {
		return ""
	}
	return token
}

func setOAuthCookie(c *gin.Context, name, value string, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, value, oauthCookieMaxAge, "/", "", secure, true)
}

func clearOAuthCookies(c *gin.Context, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	for _, name := range []string{oauthStateCookie, oauthVerifierCookie, oauthRedirectCookie} {
		c.SetCookie(name, "", -1, "/", "", secure, true)
	}
}
