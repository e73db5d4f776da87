// Package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// Identity-provider modes.
const (
	AuthModeJWT    = "jwt"
	AuthModeRemote = "remote"
)

// Config holds all application configuration, 12-factor style.
type Config struct {
	Port int `env:"PORT" envDefault:"8080"`

	// Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required,notEmpty"`

	// Cache (Redis); empty disables the api-key resolution cache
	RedisURL string `env:"REDIS_URL"`

	// Identity provider: "jwt" verifies HS256 tokens locally with
	// JWTSigningKey, "remote" delegates to IssuerURL's userinfo endpoint.
	AuthMode      string `env:"AUTH_MODE" envDefault:"jwt"`
	JWTSigningKey string `env:"JWT_SIGNING_KEY"`
	IssuerURL     string `env:"ISSUER_URL"`

	// Logging
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Server timeouts
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`
}

// Load parses environment variables and validates mode-dependent fields.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	switch cfg.AuthMode {
	case AuthModeJWT:
		if cfg.JWTSigningKey == "" {
			return nil, fmt.Errorf("JWT_SIGNING_KEY is required in jwt mode")
		}
	case AuthModeRemote:
		if cfg.IssuerURL == "" {
			return nil, fmt.Errorf("ISSUER_URL is required in remote mode")
		}
	default:
		return nil, fmt.Errorf("unknown AUTH_MODE %q", cfg.AuthMode)
	}
	return cfg, nil
}
