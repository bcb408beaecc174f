// Package main provides the entry point for the Media Resolver service.
// @title Media Resolver API
// @version 1.0
// @description Resolves social media post URLs into directly playable video and audio stream URLs.

// @contact.name API Support

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:5000
// @BasePath /

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key
// @description API key authentication

package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/denisAlshanov/mediaresolver/docs" // Import for swagger docs
	"github.com/denisAlshanov/mediaresolver/internal/api/handlers"
	"github.com/denisAlshanov/mediaresolver/internal/api/router"
	"github.com/denisAlshanov/mediaresolver/internal/app"
	"github.com/denisAlshanov/mediaresolver/internal/config"
	"github.com/denisAlshanov/mediaresolver/internal/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	utils.SetLogLevel(cfg.LogLevel)

	logger := utils.GetLogger()
	logger.Info("Starting Media Resolver service")

	ctx := context.Background()
	application, err := app.Build(ctx, cfg)
	if err != nil {
		logger.Fatalf("Failed to initialize service: %v", err)
	}

	resolveHandler := handlers.NewResolveHandler(application.Resolver)
	healthHandler := handlers.NewHealthHandler(application.Tool, application.Governor, application.Credentials, application.Store)

	r := router.NewRouter(cfg, resolveHandler, healthHandler)

	go func() {
		logger.Infof("Starting server on %s:%s", cfg.Server.Host, cfg.Server.Port)
		if err := r.Start(); err != nil {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := r.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Failed to shut down HTTP server: %v", err)
	}

	if err := application.Close(); err != nil {
		logger.Errorf("Failed to clean up credentials: %v", err)
	}

	logger.Info("Server shutdown complete")
}
