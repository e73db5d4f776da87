// Command hk-server starts the hushkeep HTTP server.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/hushkeep/hushkeep/internal/cache"
	"github.com/hushkeep/hushkeep/internal/config"
	"github.com/hushkeep/hushkeep/internal/identity"
	"github.com/hushkeep/hushkeep/internal/migrate"
	"github.com/hushkeep/hushkeep/internal/repository/postgres"
	httpserver "github.com/hushkeep/hushkeep/internal/server/http"
	"github.com/hushkeep/hushkeep/internal/service"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		zl, _ := zap.NewProduction()
		zl.Fatal("config", zap.Error(err))
	}

	logger := newLogger(cfg.LogLevel)
	defer func() { _ = logger.Sync() }()
	logger.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
		zap.Int("port", cfg.Port),
		zap.String("authMode", cfg.AuthMode),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := migrate.Up(ctx, cfg.DatabaseURL); err != nil {
		logger.Fatal("migrate up", zap.Error(err))
	}

	db, err := postgres.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("postgres", zap.Error(err))
	}
	defer db.Close()

	// Repositories
	apiKeyRepo := postgres.NewAPIKeyRepo(db)
	publicKeyRepo := postgres.NewPublicKeyRepo(db)
	secretRepo := postgres.NewSecretRepo(db)

	// Redis is optional: without it the verifier hits Postgres every time.
	var keyCache service.APIKeyCache
	var cachePing httpserver.Pinger
	if cfg.RedisURL != "" {
		c, err := cache.New(ctx, cfg.RedisURL)
		if err != nil {
			logger.Fatal("redis", zap.Error(err))
		}
		defer func() { _ = c.Close() }()
		keyCache = c
		cachePing = c
		logger.Info("api key cache enabled")
	}

	// Identity provider
	var tokens identity.TokenVerifier
	switch cfg.AuthMode {
	case config.AuthModeJWT:
		tokens = identity.NewJWTVerifier([]byte(cfg.JWTSigningKey))
	case config.AuthModeRemote:
		tokens = identity.NewRemoteVerifier(cfg.IssuerURL)
	}

	// Services
	verifier := service.NewVerifier(tokens, apiKeyRepo, keyCache)
	apiKeySvc := service.NewAPIKeyService(apiKeyRepo, keyCache)
	publicKeySvc := service.NewPublicKeyService(publicKeyRepo)
	secretSvc := service.NewSecretService(secretRepo)

	router := httpserver.NewRouter(httpserver.Deps{
		Verifier:   verifier,
		APIKeys:    apiKeySvc,
		PublicKeys: publicKeySvc,
		Secrets:    secretSvc,
		Health:     httpserver.NewHealthHandler(db, cachePing),
		Logger:     logger,
	})

	srv := httpserver.NewServer(router, cfg.Port, cfg.ReadTimeout, cfg.WriteTimeout, cfg.ShutdownTimeout, logger)
	if err := srv.Run(); err != nil {
		logger.Error("server error", zap.Error(err))
		os.Exit(1)
	}
}

func newLogger(level string) *zap.Logger {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	logger, err := cfg.Build()
	if err != nil {
		logger, _ = zap.NewProduction()
	}
	return logger
}
