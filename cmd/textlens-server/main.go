// Package main provides the textlens analysis server.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/raphaelgruber/textlens/internal/config"
	"github.com/raphaelgruber/textlens/internal/db"
	"github.com/raphaelgruber/textlens/internal/llm"
	"github.com/raphaelgruber/textlens/internal/metrics"
	"github.com/raphaelgruber/textlens/internal/server"
	"github.com/raphaelgruber/textlens/internal/service"
)

func main() {
	cfg := config.Load()

	logger, closeLog := config.SetupLogger(cfg)
	slog.SetDefault(logger)
	defer func() {
		if err := closeLog(); err != nil {
			slog.Error("failed to close log file", "error", err)
		}
	}()

	slog.Info("starting textlens-server",
		"addr", cfg.ServerAddr,
		"model", cfg.LLMModel,
		"db", cfg.DBPath)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	store, err := db.Open(ctx, cfg.DBPath)
	cancel()
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := store.Close(); err != nil {
			slog.Error("failed to close database", "error", err)
		}
	}()

	gateway, err := llm.NewClient(cfg)
	if err != nil {
		slog.Error("failed to create llm client", "error", err)
		os.Exit(1)
	}
	slog.Info("llm gateway ready", "model", gateway.Model(), "backend", gateway.Backend())

	collector := metrics.NewCollector()
	analyses := service.NewAnalysisService(gateway, store, collector)
	batches := service.NewBatchCoordinator(analyses, collector)

	srv := server.New(cfg.ServerAddr, analyses, batches, collector)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped")
}
