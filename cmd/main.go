package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"atelier/internal/core"
	"atelier/internal/server"
)

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	config, err := core.LoadConfig()
	if err != nil {
		core.NewLogger().Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	logger := core.NewLoggerWithLevel(os.Stdout, config.Server.LogLevel)

	if config.Auth.AdminPassword == "" {
		logger.Warn("ADMIN_PASSWORD is not set; admin routes will reject every request")
	}

	srv, err := server.New(config, logger)
	if err != nil {
		logger.Error("Failed to create server", "error", err)
		os.Exit(1)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stop:
		logger.Info("Received shutdown signal", "signal", sig.String())
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Server stopped", "error", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Shutdown failed", "error", err)
		os.Exit(1)
	}
}
