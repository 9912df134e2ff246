package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"paper-trader-go/internal/api"
	"paper-trader-go/internal/auth"
	"paper-trader-go/internal/config"
	"paper-trader-go/internal/database"
	"paper-trader-go/internal/ledger"
	"paper-trader-go/internal/logger"
	"paper-trader-go/internal/metrics"
	"paper-trader-go/internal/news"
	"paper-trader-go/internal/quotes"
	"paper-trader-go/internal/watch"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the paper-trading API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve()
	},
}

func serve() error {
	// Load application configuration
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		// We can't use the logger here because it's not initialized yet.
		return fmt.Errorf("could not load config: %w", err)
	}

	// Initialize logger
	log, err := logger.NewLogger(cfg.Logger)
	if err != nil {
		return fmt.Errorf("could not initialize logger: %w", err)
	}
	defer log.Sync()
	log.Info("Configuration loaded")

	// Initialize database
	db, err := database.NewDatabase(cfg.Database.DSN)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	log.Info("Database connection successful and schema migrated.")

	// Initialize collaborators
	collector := metrics.NewCollector()
	provider := quotes.NewClient(&cfg.Quotes, log.Named("quotes"))
	store := ledger.NewStore(db)
	executor := ledger.NewExecutor(store, provider, log.Named("ledger"), collector)
	newsSvc := news.NewService(db, &cfg.News, log.Named("news"))
	watchSvc := watch.NewService(db, &cfg.Trading, log.Named("watch"))
	authMgr := auth.NewManager(cfg.Auth.Secret, time.Duration(cfg.Auth.TokenTTL)*time.Second)

	// Setup context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sigchan := make(chan os.Signal, 1)
		signal.Notify(sigchan, syscall.SIGINT, syscall.SIGTERM)
		<-sigchan
		log.Info("Shutdown signal received, gracefully shutting down...")
		cancel()
	}()

	server := api.NewServer(&cfg, log, executor, store, provider, newsSvc, watchSvc, authMgr, collector)
	server.Start()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Stop(shutdownCtx); err != nil {
		log.Error("Server shutdown failed", zap.Error(err))
	}

	log.Info("Server has been shut down.")
	return nil
}
