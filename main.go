package main

import (
	"os"
	"os/signal"
	"syscall"

	"rentstore/internal/app"
	"rentstore/internal/config"
	"rentstore/internal/logger"
)

func main() {
	// --- Configuration ---
	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)

	application, err := app.New(cfg, app.Options{})
	if err != nil {
		logger.Error("Failed to initialize application", "error", err)
		os.Exit(1)
	}

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("Starting server", "port", cfg.Server.Port)
		if err := application.Fiber.Listen(cfg.Server.Port); err != nil {
			logger.Error("Server failed to start", "error", err)
			quit <- syscall.SIGTERM
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	<-quit
	logger.Info("Shutting down server...")

	if err := application.Shutdown(); err != nil {
		logger.Error("Error during shutdown", "error", err)
	}
	logger.Info("Server gracefully stopped")
}
