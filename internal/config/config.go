package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"keyregistry/internal/logger"
)

type Config struct {
	DSN       string `envconfig:"MYSQL_DSN"`
	JWTSecret string `envconfig:"JWT_SECRET" default:"dev-secret-only"`
	AppPort   string `envconfig:"APP_PORT" default:"8080"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"INFO"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"text"`
	LogFile   string `envconfig:"LOG_FILE"`

	// Kickstart session to activation key bindings never change once
	// written, so lookups by session are served from a bounded cache.
	KickstartCacheSize int           `envconfig:"KS_CACHE_SIZE" default:"256"`
	KickstartCacheTTL  time.Duration `envconfig:"KS_CACHE_TTL" default:"10m"`

	Seed bool `envconfig:"SEED" default:"false"`
}

// Load reads an optional .env file and decodes the environment into Config.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Warn(".env file not found, using system environment variables")
	} else {
		logger.Info(".env file loaded")
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to process environment: %w", err)
	}

	if cfg.DSN == "" {
		return Config{}, errors.New("MYSQL_DSN not set in environment")
	}
	if cfg.KickstartCacheSize < 0 {
		return Config{}, fmt.Errorf("KS_CACHE_SIZE must not be negative, got %d", cfg.KickstartCacheSize)
	}

	return cfg, nil
}
