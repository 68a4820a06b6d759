package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/quillsign/quillsign/internal/config"
	"github.com/quillsign/quillsign/internal/esign/handlers"
	"github.com/quillsign/quillsign/internal/esign/repository"
	"github.com/quillsign/quillsign/internal/esign/router"
	"github.com/quillsign/quillsign/internal/esign/service"
	"github.com/quillsign/quillsign/internal/notify"
	"github.com/quillsign/quillsign/internal/storage"
)

func main() {
	// Load .env if present; real deployments set the environment directly
	_ = godotenv.Load()

	// Load configuration first so we can use it for logger setup
	cfg := config.Load()

	// Parse log level from configuration
	logLevel := parseLogLevel(cfg.LogLevel)

	// Initialize logger with configurable level
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("starting quillsign service",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
	)

	// Connect to database
	db, err := config.NewOracleDB(cfg.Database)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	// Note: db.Close() is called explicitly during graceful shutdown
	logger.Info("connected to database")

	// Initialize stores
	documentStore := repository.NewDocumentRepository(db)
	auditStore := repository.NewAuditRepository(db)

	// Initialize blob storage
	blobs, err := storage.NewLocalBlobStore(cfg.Storage.BasePath, cfg.Storage.BaseURL)
	if err != nil {
		logger.Error("failed to initialize blob storage", "error", err)
		os.Exit(1)
	}

	// Initialize workflow engine
	lifecycle := service.NewLifecycle(service.DeclinePolicy(cfg.Workflow.DeclinePolicy))
	notifier := notify.NewSlogNotifier(logger)
	coord := service.NewCoordinator(documentStore, auditStore, notifier, lifecycle, logger)

	// Initialize handlers
	documentHandler := handlers.NewDocumentHandler(coord, blobs, logger)
	signerHandler := handlers.NewSignerHandler(coord, logger)
	fieldHandler := handlers.NewFieldHandler(coord, logger)
	auditHandler := handlers.NewAuditHandler(auditStore, logger)
	healthHandler := handlers.NewHealthHandler(db)

	// Initialize router
	r := router.NewRouter(
		cfg.JWT.Secret,
		logger,
		documentHandler,
		signerHandler,
		fieldHandler,
		auditHandler,
		healthHandler,
	)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      r.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start background expiry sweep
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		// Sweep overdue documents immediately on startup
		if err := coord.ExpireOverdue(ctx); err != nil {
			logger.Error("expiry sweep failed on startup", "error", err)
		}

		ticker := time.NewTicker(cfg.Workflow.SweepInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := coord.ExpireOverdue(ctx); err != nil {
					logger.Error("expiry sweep failed", "error", err)
				}
			}
		}
	}()

	// Error channel for server listen errors
	serverErrCh := make(chan error, 1)

	// Start server in goroutine
	go func() {
		logger.Info("server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			serverErrCh <- err
		}
	}()

	// Wait for interrupt signal or server error
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	exitCode := 0
	select {
	case <-quit:
		logger.Info("received shutdown signal")
	case err := <-serverErrCh:
		logger.Error("server listen failed", "error", err)
		exitCode = 1
	}

	logger.Info("shutting down server...")

	// Cancel the background sweep
	cancel()

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
		exitCode = 1
	}

	// Explicitly close database before exit
	if err := db.Close(); err != nil {
		logger.Error("database close error", "error", err)
	}

	logger.Info("server stopped")

	if exitCode != 0 {
		os.Exit(exitCode)
	}
}

// parseLogLevel parses a log level string into slog.Level
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
