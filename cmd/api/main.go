package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/wolfman30/voice-bridge/internal/app/bootstrap"
	appconfig "github.com/wolfman30/voice-bridge/internal/config"
	"github.com/wolfman30/voice-bridge/pkg/logging"
)

func main() {
	// A missing .env is normal outside local development.
	envErr := godotenv.Load()

	// Load configuration
	cfg := appconfig.Load()

	// Initialize logger
	logger := logging.NewWithWriter(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	if envErr != nil && !errors.Is(envErr, os.ErrNotExist) {
		logger.Warn("failed to read .env file", "error", envErr)
	}
	logger.Info("starting voice-bridge API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	srv, err := newServer(cfg, logger)
	if err != nil {
		var cfgErr *appconfig.ConfigurationError
		if errors.As(err, &cfgErr) {
			logger.Error("refusing to start: configuration incomplete", "missing", cfgErr.Missing)
		} else {
			logger.Error("refusing to start", "error", err)
		}
		os.Exit(1)
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

// newServer builds the HTTP server, or fails when cfg cannot be served.
func newServer(cfg appconfig.Config, logger *logging.Logger) (*http.Server, error) {
	handler, err := bootstrap.BuildHTTPHandler(cfg, logger)
	if err != nil {
		return nil, err
	}
	return &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}, nil
}
