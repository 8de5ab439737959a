package http

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"goodsncart-auth/internal/service"
)

// NewRouter configura el router de Gin con middlewares y rutas.
func NewRouter(
	logger *zap.Logger,
	authH *AuthHandler,
	oauthH *OAuthHandler,
	healthH *HealthHandler,
	sessionServ *service.SessionService,
	secureCookies bool,
) *gin.Engine {
	r := gin.New()

	// Middlewares básicos: correlación, logging, recovery y JSON content-type.
	r.Use(requestIDMiddleware(), zapLoggerMiddleware(logger), gin.Recovery(), jsonContentTypeMiddleware())

	r.GET("/healthz", healthH.Healthz)

	auth := r.Group("/auth")
	auth.POST("/otp/request", authH.RequestOTP)
	auth.POST("/signin/otp", authH.SigninStart)
	auth.POST("/signup", authH.Signup)
	auth.POST("/signin", authH.Signin)
	auth.POST("/reset-password", authH.ResetPassword)
	auth.POST("/signout", authH.Signout)
	auth.GET("/me", SessionAuthMiddleware(logger, sessionServ, secureCookies), authH.Me)

	oauth := r.Group("/oauth")
	oauth.GET("/google", oauthH.GoogleRedirect)
	oauth.GET("/google/callback", oauthH.GoogleCallback)

	return r
}
