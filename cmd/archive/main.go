// Command archive runs one archive job to completion from the terminal,
// without the HTTP surface or the job ledger.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/timmy/hearth/internal/archiver"
	"github.com/timmy/hearth/internal/config"
	"github.com/timmy/hearth/internal/logger"
)

func main() {
	// Initialize logger first (with defaults)
	appLogger := logger.New(&logger.Config{
		Level:       "info",
		Format:      "text",
		ServiceName: "hearth-archive",
	})
	logger.SetDefaultLogger(appLogger)

	// Parse command line flags
	subdomain := flag.String("subdomain", "", "Account subdomain to archive")
	token := flag.String("token", "", "API token for the account")
	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	if *subdomain == "" || *token == "" {
		appLogger.Fatal("Both -subdomain and -token are required")
	}

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load config")
	}

	job, err := archiver.New(&cfg.Archive, *subdomain, *token, appLogger)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to create archive job")
	}

	// Cancel the run on interrupt so the persisted state stays resumable
	ctx, cancel := context.WithCancel(appLogger.WithContext(context.Background()))
	defer cancel()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		appLogger.Warn("Interrupted, stopping after in-flight work")
		cancel()
	}()

	if err := job.Run(ctx); err != nil {
		appLogger.WithError(err).Fatal("Archive run failed")
	}

	appLogger.WithField("artifact", job.ZipPath()).Info("Archive complete")
}
