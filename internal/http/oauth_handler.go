package http

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"goodsncart-auth/internal/service"
)

// OAuthHandler implementa las dos fases del flujo authorization-code con
// Google: redirect y callback.
type OAuthHandler struct {
	logger        *zap.Logger
	oauthServ     *service.OAuthService
	sessionServ   *service.SessionService
	secureCookies bool
}

func NewOAuthHandler(logger *zap.Logger, oauthServ *service.OAuthService, sessionServ *service.SessionService, secureCookies bool) *OAuthHandler {
	return &OAuthHandler{
		logger:        logger,
		oauthServ:     oauthServ,
		sessionServ:   sessionServ,
		secureCookies: secureCookies,
	}
}

// GoogleRedirect maneja GET /oauth/google: genera state y verificador PKCE,
// los persiste en cookies de vida corta y redirige al proveedor.
func (h *OAuthHandler) GoogleRedirect(c *gin.Context) {
	redirectURI := c.Query("redirect_uri")
	if redirectURI == "" {
		redirectURI = "/"
	}

	state, err := service.GenerateState()
	if err != nil {
		h.logger.Error("state generation failed", zap.Error(err))
		c.Status(http.StatusInternalServerError)
		return
	}
	codeVerifier, err := service.GenerateCodeVerifier()
	if err != nil {
		h.logger.Error("code verifier generation failed", zap.Error(err))
		c.Status(http.StatusInternalServerError)
		return
	}

	authURL, err := h.oauthServ.AuthorizationURL(state, codeVerifier)
	if err != nil {
		h.logger.Error("authorization url build failed", zap.Error(err))
		c.Status(http.StatusInternalServerError)
		return
	}

	setOAuthCookie(c, oauthStateCookie, state, h.secureCookies)
	setOAuthCookie(c, oauthVerifierCookie, codeVerifier, h.secureCookies)
	setOAuthCookie(c, oauthRedirectCookie, redirectURI, h.secureCookies)

	c.Redirect(http.StatusFound, authURL)
}

// GoogleCallback maneja GET /oauth/google/callback. Cualquier inconsistencia
// del handshake (state ausente o distinto, verificador ausente) responde 400
// sin tocar el proveedor; las cookies son de un solo uso y se limpian antes
// del intercambio.
func (h *OAuthHandler) GoogleCallback(c *gin.Context) {
	code := c.Query("code")
	state := c.Query("state")
	storedState, _ := c.Cookie(oauthStateCookie)
	codeVerifier, _ := c.Cookie(oauthVerifierCookie)

	if code == "" || state == "" || storedState == "" || state != storedState || codeVerifier == "" {
		c.Status(http.StatusBadRequest)
		return
	}

	clearOAuthCookies(c, h.secureCookies)

	googleUser, err := h.oauthServ.Exchange(c.Request.Context(), code, codeVerifier)
	if err != nil {
		if errors.Is(err, service.ErrInvalidAuthorizationCode) {
			h.logger.Warn("google token exchange rejected", zap.Error(err))
			c.Status(http.StatusBadRequest)
			return
		}
		h.logger.Error("google auth error", zap.Error(err))
		c.Status(http.StatusInternalServerError)
		return
	}

	userID, err := h.oauthServ.ResolveUser(c.Request.Context(), googleUser)
	if err != nil {
		h.logger.Error("google account resolution failed", zap.Error(err), zap.String("google_sub", googleUser.Sub))
		c.Status(http.StatusInternalServerError)
		return
	}

	token, err := service.GenerateSessionToken()
	if err != nil {
		h.logger.Error("session token generation failed", zap.Error(err))
		c.Status(http.StatusInternalServerError)
		return
	}
	session, err := h.sessionServ.Create(c.Request.Context(), token, userID, sessionMetadataFromRequest(c))
	if err != nil {
		h.logger.Error("oauth session create failed", zap.Error(err), zap.String("user_id", userID))
		c.Status(http.StatusInternalServerError)
		return
	}

	setSessionCookie(c, token, session.ExpiresAt, h.secureCookies)
	c.Redirect(http.StatusFound, fmt.Sprintf("/user/%s/my-stores", userID))
}
