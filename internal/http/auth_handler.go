package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"goodsncart-auth/internal/service"
)

// AuthHandler mantiene dependencias para los endpoints de autenticación.
type AuthHandler struct {
	logger        *zap.Logger
	authServ      *service.AuthService
	secureCookies bool
}

// NewAuthHandler crea una instancia de AuthHandler con dependencias necesarias.
func NewAuthHandler(logger *zap.Logger, authServ *service.AuthService, secureCookies bool) *AuthHandler {
	return &AuthHandler{
		logger:        logger,
		authServ:      authServ,
		secureCookies: secureCookies,
	}
}

// RequestOTP maneja POST /auth/otp/request (código de signup).
func (h *AuthHandler) RequestOTP(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid otp request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	if err := h.authServ.RequestSignupCode(c.Request.Context(), req.Email); err != nil {
		if errors.Is(err, service.ErrEmailInUse) {
			c.JSON(http.StatusConflict, gin.H{"error": "email already in use"})
			return
		}
		h.logger.Error("request otp failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not process request, try again later"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Check your email for the verification code!"})
}

// SigninStart maneja POST /auth/signin/otp: verifica la contraseña y emite
// el código que completa el signin.
func (h *AuthHandler) SigninStart(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid signin otp request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	if err := h.authServ.SigninStart(c.Request.Context(), req.Email, req.Password); err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		h.logger.Error("signin start failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not process request, try again later"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Check your email for the verification code!"})
}

// Signup maneja POST /auth/signup.
func (h *AuthHandler) Signup(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Code     string `json:"code" binding:"required,len=6"`
		Password string `json:"password" binding:"required,min=8"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid signup request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	metadata := sessionMetadataFromRequest(c)
	result, err := h.authServ.Signup(c.Request.Context(), req.Email, req.Code, req.Password, metadata)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmailInUse):
			c.JSON(http.StatusConflict, gin.H{"error": "email already in use"})
		case errors.Is(err, service.ErrInvalidCredentials):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid code provided"})
		case errors.Is(err, service.ErrExpiredCode):
			c.JSON(http.StatusBadRequest, gin.H{"error": "the code has expired, request a new one"})
		case errors.Is(err, service.ErrSessionCreate):
			c.JSON(http.StatusInternalServerError, gin.H{"error": "account created but session failed, try signing in"})
		default:
			h.logger.Error("signup failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not complete signup, try again later"})
		}
		return
	}

	setSessionCookie(c, result.Token, result.Session.ExpiresAt, h.secureCookies)
	c.JSON(http.StatusCreated, gin.H{
		"message": "You've successfully signed up and verified your account!",
		"user_id": result.UserID,
	})
}

// Signin maneja POST /auth/signin (completa el flujo con código + contraseña).
func (h *AuthHandler) Signin(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Code     string `json:"code" binding:"required,len=6"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid signin request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	metadata := sessionMetadataFromRequest(c)
	result, err := h.authServ.SigninComplete(c.Request.Context(), req.Email, req.Code, req.Password, metadata)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		case errors.Is(err, service.ErrExpiredCode):
			c.JSON(http.StatusBadRequest, gin.H{"error": "the code has expired, request a new one"})
		case errors.Is(err, service.ErrSessionCreate):
			c.JSON(http.StatusInternalServerError, gin.H{"error": "authentication succeeded but session failed, try signing in again"})
		default:
			h.logger.Error("signin failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not complete signin, try again later"})
		}
		return
	}

	setSessionCookie(c, result.Token, result.Session.ExpiresAt, h.secureCookies)
	c.JSON(http.StatusOK, gin.H{
		"message": "Successfully signed in! Welcome back.",
		"user_id": result.UserID,
	})
}

// ResetPassword maneja POST /auth/reset-password.
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req struct {
		Email       string `json:"email" binding:"required,email"`
		Code        string `json:"code" binding:"required,len=6"`
		NewPassword string `json:"new_password" binding:"required,min=8"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid reset password request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	if err := h.authServ.ResetPassword(c.Request.Context(), req.Email, req.Code, req.NewPassword); err != nil {
		switch {
		case errors.Is(err, service.ErrEmailNotInUse):
			c.JSON(http.StatusNotFound, gin.H{"error": "email not found"})
		case errors.Is(err, service.ErrInvalidCredentials):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid code provided"})
		case errors.Is(err, service.ErrExpiredCode):
			c.JSON(http.StatusBadRequest, gin.H{"error": "the code has expired, request a new one"})
		default:
			h.logger.Error("reset password failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not reset password, try again later"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "You've successfully reset your password. Please signin to access your account!"})
}

// Signout maneja POST /auth/signout.
func (h *AuthHandler) Signout(c *gin.Context) {
	token := sessionTokenFromCookie(c)
	if token != "" {
		if err := h.authServ.Signout(c.Request.Context(), token); err != nil {
			h.logger.Warn("signout invalidation failed", zap.Error(err))
		}
	}
	clearSessionCookie(c, h.secureCookies)
	c.Status(http.StatusNoContent)
}

// Me maneja GET /auth/me; requiere SessionAuthMiddleware.
func (h *AuthHandler) Me(c *gin.Context) {
	user, ok := CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}
	session, _ := CurrentSession(c)
	c.JSON(http.StatusOK, gin.H{"user": user, "session": session})
}
