// Package main initializes and starts the form wizard HTTP server,
// setting up configuration, logging, the database connection, the
// repository, service, handlers, and graceful shutdown.
package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	nethttp "net/http"

	"go.uber.org/zap"

	"github.com/mkrivosheev/formflow/internal/config"
	"github.com/mkrivosheev/formflow/internal/db"
	"github.com/mkrivosheev/formflow/internal/logger"
	"github.com/mkrivosheev/formflow/internal/repository"
	"github.com/mkrivosheev/formflow/internal/server/handler/http"
	"github.com/mkrivosheev/formflow/internal/service"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

// orDefault returns v if it is non-empty, otherwise fallback
// (equivalent to cmp.Or for strings, which needs Go 1.22+).
func orDefault(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}

func main() {
	// Parse command-line and environment configuration.
	options := config.Parse()
	addr := options.Port
	dsn := options.DatabaseDSN

	// Print build metadata (or "N/A" if unset).
	fmt.Printf("Build version: %s\n", orDefault(version, "N/A"))
	fmt.Printf("Build date: %s\n", orDefault(buildDate, "N/A"))

	// Initialize structured logging.
	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init("Info"); err != nil {
		log.Log.Fatal("failed to init logger", zap.Error(err))
	}
	zapLogger := log.Log

	// Initialize PostgreSQL connection and schema.
	postgresDB, err := db.InitPostgres(dsn)
	if err != nil {
		zapLogger.Fatal("cannot init database", zap.Error(err))
	}
	defer postgresDB.Close()

	// Initialize the repository and business-logic service.
	formRepo := repository.NewPostgresFormRepository(postgresDB)
	formService := service.NewFormService(formRepo)

	// Create HTTP handlers for the form endpoints.
	formHandler := &http.FormHandler{FormService: formService, Log: zapLogger}

	// Build the router with middleware and routes.
	router := http.NewRouter(formHandler, zapLogger)

	server := &nethttp.Server{
		Addr:    addr,
		Handler: router,
	}

	// Shut down cleanly on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		zapLogger.Info("starting HTTP server", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			zapLogger.Fatal("failed to start HTTP server", zap.Error(err))
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("shutdown failed", zap.Error(err))
	}
	zapLogger.Info("server stopped")
}
