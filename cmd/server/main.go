package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tailrank/tailrank/internal/analyzer"
	"github.com/tailrank/tailrank/internal/api"
	"github.com/tailrank/tailrank/internal/config"
	"github.com/tailrank/tailrank/internal/gitrepo"
	"github.com/tailrank/tailrank/internal/logging"
	"github.com/tailrank/tailrank/internal/storage"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Setup logging
	logger := logging.NewLogger(cfg.Logging)
	slog.SetDefault(logger)

	// Initialize database
	db, err := storage.NewDatabase(cfg.Database)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	// Run migrations
	if err := db.Migrate(); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Initialize the repository acquirer and clear out clone directories left
	// behind by a previous process
	acquirer, err := gitrepo.NewAcquirer(gitrepo.Config{
		BaseDir:        cfg.Analysis.CloneDir,
		Token:          cfg.GitHub.Token,
		ResolveTimeout: cfg.Analysis.BranchResolveTimeout(),
		CloneTimeout:   cfg.Analysis.CloneTimeout(),
		Logger:         logger,
	})
	if err != nil {
		slog.Error("Failed to initialize repository acquirer", "error", err)
		os.Exit(1)
	}
	acquirer.CleanupOrphans()

	runner := analyzer.New(db, analyzer.NewGitAcquirer(acquirer), logger, analyzer.Options{
		CacheFreshness:  cfg.Analysis.CacheFreshness(),
		LockStaleness:   cfg.Analysis.LockStaleness(),
		InsertBatchSize: cfg.Analysis.InsertBatchSize,
		TopClassCount:   cfg.Analysis.TopClassCount,
	})

	server := api.NewServer(cfg, db, runner, logger)

	// WriteTimeout stays 0: analysis event streams are long-lived and a
	// write deadline would sever them mid-run.
	httpServer := &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:     server.Router(),
		ReadTimeout: 30 * time.Second,
		IdleTimeout: 120 * time.Second,
	}

	// Graceful shutdown
	go func() {
		slog.Info("Starting server", "port", cfg.Server.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	slog.Info("Server exited")
}
