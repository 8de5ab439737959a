package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"goodsncart-auth/internal/config"
	"goodsncart-auth/internal/db"
	"goodsncart-auth/internal/email"
	apihttp "goodsncart-auth/internal/http"
	"goodsncart-auth/internal/repository"
	"goodsncart-auth/internal/service"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer pool.Close()

	if err := db.InitSchema(ctx, pool); err != nil {
		logger.Fatal("db schema init", zap.Error(err))
	}

	var userRepo repository.UserRepository = repository.NewPgUserRepository(pool)
	sessionRepo := repository.NewPgSessionRepository(pool)
	accountRepo := repository.NewPgOAuthAccountRepository(pool)
	codeRepo := repository.NewPgVerificationCodeRepository(pool)

	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed, user cache disabled", zap.Error(err))
		} else {
			userRepo = repository.NewCachedUserRepository(userRepo, redisClient, logger)
		}
		cancel()
	}

	emailSender := email.NewDisabledSender("email sender not configured")
	if cfg.SMTPHost != "" {
		sender, err := email.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom, cfg.SMTPFromName, cfg.SMTPUseTLS)
		if err != nil {
			logger.Warn("smtp sender init failed", zap.Error(err))
		} else {
			emailSender = sender
		}
	}

	sessionServ := service.NewSessionService(logger, sessionRepo, userRepo)
	verificationServ := service.NewVerificationService(logger, codeRepo, emailSender)
	authServ := service.NewAuthService(logger, userRepo, verificationServ, sessionServ)

	redirectURI := cfg.BaseURL + "/oauth/google/callback"
	oauthServ := service.NewGoogleOAuthService(logger, userRepo, accountRepo, cfg.GoogleClientID, cfg.GoogleClientSecret, redirectURI)
	if cfg.GoogleClientID == "" {
		logger.Warn("google oauth client not configured")
	}

	authHandler := apihttp.NewAuthHandler(logger, authServ, cfg.SecureCookies)
	oauthHandler := apihttp.NewOAuthHandler(logger, oauthServ, sessionServ, cfg.SecureCookies)
	healthHandler := apihttp.NewHealthHandler(pool)
	router := apihttp.NewRouter(logger, authHandler, oauthHandler, healthHandler, sessionServ, cfg.SecureCookies)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("starting server", zap.String("port", cfg.HTTPPort))

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server error", zap.Error(err))
	}
}
