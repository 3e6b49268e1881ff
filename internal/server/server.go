// Package server exposes the analysis service over HTTP.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/raphaelgruber/textlens/internal/metrics"
	"github.com/raphaelgruber/textlens/internal/service"
)

// Server wires the HTTP surface to the analysis and batch services.
type Server struct {
	analyses *service.AnalysisService
	batches  *service.BatchCoordinator
	metrics  *metrics.Collector

	httpServer *http.Server
}

// New creates the server listening on addr.
func New(addr string, analyses *service.AnalysisService, batches *service.BatchCoordinator, collector *metrics.Collector) *Server {
	s := &Server{
		analyses: analyses,
		batches:  batches,
		metrics:  collector,
	}

	s.httpServer = &http.Server{
		Addr:        addr,
		Handler:     LoggingMiddleware(s.routes()),
		ReadTimeout: 5 * time.Second,
		// Long write timeout: a synchronous analyze call can sit behind
		// LLM retries.
		WriteTimeout: 300 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /analyze", s.handleAnalyze)
	mux.HandleFunc("GET /search", s.handleSearch)
	mux.HandleFunc("GET /analysis/{id}", s.handleGetAnalysis)

	mux.HandleFunc("POST /batch/analyze", s.handleBatchSubmit)
	mux.HandleFunc("GET /batch", s.handleBatchList)
	mux.HandleFunc("GET /batch/{id}", s.handleBatchStatus)
	mux.HandleFunc("GET /batch/{id}/watch", s.handleBatchWatch)

	mux.HandleFunc("GET /stats", s.handleStats)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /{$}", s.handleRoot)

	return mux
}

// Handler returns the full handler chain, used by tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// ListenAndServe starts serving and blocks until the listener closes.
func (s *Server) ListenAndServe() error {
	slog.Info("http server listening", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown drains in-flight requests until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
