package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"goodsncart-auth/internal/domain"
	"goodsncart-auth/internal/service"
)

const (
	requestIDKey      = "request_id"
	currentUserKey    = "current_user"
	currentSessionKey = "current_session"
)

// requestIDMiddleware asigna un id de correlación por request y lo expone
// en la respuesta.
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := uuid.NewString()
		c.Set(requestIDKey, id)
		c.Writer.Header().Set("X-Request-ID", id)
		c.Next()
	}
}

// zapLoggerMiddleware crea un middleware simple de logging con zap.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
			zap.String("request_id", c.GetString(requestIDKey)),
		)
	}
}

// jsonContentTypeMiddleware fuerza Content-Type: application/json en responses.
func jsonContentTypeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Content-Type", "application/json")
		c.Next()
	}
}

// SessionAuthMiddleware valida la cookie de sesión y guarda usuario y sesión
// en el contexto. La validación puede extender la expiración de la sesión
// (rotación deslizante), por eso también refresca la cookie.
func SessionAuthMiddleware(logger *zap.Logger, sessions *service.SessionService, secureCookies bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := sessionTokenFromCookie(c)
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			c.Abort()
			return
		}

		session, user, err := sessions.Validate(c.Request.Context(), token)
		if err != nil {
			logger.Error("session validation failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not validate session"})
			c.Abort()
			return
		}
		if session == nil || user == nil {
			clearSessionCookie(c, secureCookies)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			c.Abort()
			return
		}

		setSessionCookie(c, token, session.ExpiresAt, secureCookies)
		c.Set(currentUserKey, *user)
		c.Set(currentSessionKey, *session)
		c.Next()
	}
}

// CurrentUser obtiene el usuario autenticado desde el contexto.
func CurrentUser(c *gin.Context) (domain.User, bool) {
	val, ok := c.Get(currentUserKey)
	if !ok {
		return domain.User{}, false
	}
	user, ok := val.(domain.User)
	return user, ok
}

// CurrentSession obtiene la sesión autenticada desde el contexto.
func CurrentSession(c *gin.Context) (domain.Session, bool) {
	val, ok := c.Get(currentSessionKey)
	if !ok {
		return domain.Session{}, false
	}
	session, ok := val.(domain.Session)
	return session, ok
}
