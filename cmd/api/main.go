package main

import (
	"fmt"
	"io"
	"os"

	"keyregistry/internal/activationkey"
	"keyregistry/internal/config"
	"keyregistry/internal/db"
	httpserver "keyregistry/internal/http"
	"keyregistry/internal/logger"
	"keyregistry/internal/seed"
)

func main() {
	if err := run(); err != nil {
		logger.Error("server exited", "err", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	var logFile io.Writer
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o640)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		defer f.Close()
		logFile = f
	}
	logger.Init(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Writer: logFile})

	gdb, err := db.Connect(cfg.DSN)
	if err != nil {
		return err
	}
	if err := db.AutoMigrate(gdb); err != nil {
		return err
	}
	if cfg.Seed {
		if err := seed.FirstSetup(gdb); err != nil {
			return fmt.Errorf("first setup: %w", err)
		}
	}

	reg := activationkey.New(gdb,
		activationkey.WithSessionCache(cfg.KickstartCacheSize, cfg.KickstartCacheTTL),
		activationkey.WithLogger(logger.Get()),
	)

	r := httpserver.NewRouter(gdb, reg, cfg.JWTSecret)
	logger.Info("server listening", "port", cfg.AppPort)
	return r.Run(fmt.Sprintf(":%s", cfg.AppPort))
}
