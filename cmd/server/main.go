package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/timmy/hearth/internal/api"
	"github.com/timmy/hearth/internal/config"
	"github.com/timmy/hearth/internal/logger"
	"github.com/timmy/hearth/internal/manager"
	"github.com/timmy/hearth/internal/repository"
	"github.com/timmy/hearth/internal/storage"
)

func main() {
	// Load configuration
	// Support CONFIG_PATH environment variable for production deployments
	configPath := os.Getenv("CONFIG_PATH")
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	appLogger := logger.New(&logger.Config{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		ServiceName: "hearth",
		LogFile:     cfg.Log.File,
		MaxSize:     cfg.Log.MaxSize,
		MaxBackups:  cfg.Log.MaxBackups,
		MaxAge:      cfg.Log.MaxAge,
		Compress:    cfg.Log.Compress,
	})
	logger.SetDefaultLogger(appLogger)
	defer logger.Sync()

	// Initialize database
	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize database")
	}

	jobRepo := repository.NewJobRepository(db)

	// Initialize artifact storage when configured
	var objectStorage storage.ObjectStorage
	if cfg.Artifact.Enabled() {
		objectStorage, err = storage.NewStorage(&cfg.Artifact)
		if err != nil {
			appLogger.WithError(err).Fatal("Failed to initialize artifact storage")
		}
		if s3, ok := objectStorage.(*storage.S3Storage); ok {
			if err := s3.EnsureBucket(context.Background()); err != nil {
				appLogger.WithError(err).Fatal("Failed to ensure artifact bucket")
			}
		}
	}

	// Initialize job manager
	jobManager := manager.New(cfg, jobRepo, objectStorage, appLogger)

	// Setup router
	router := api.SetupRouter(&cfg.Server, jobManager, jobRepo, appLogger)

	// Create HTTP server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		appLogger.WithFields(logger.Fields{
			"port": cfg.Server.Port,
			"mode": cfg.Server.Mode,
		}).Info("Starting API server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.WithError(err).Fatal("Server forced to shutdown")
	}

	appLogger.Info("Server exited")
}
