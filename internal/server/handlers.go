package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/raphaelgruber/textlens/internal/db"
	"github.com/raphaelgruber/textlens/internal/service"
)

// Search pagination bounds, mirrored in request validation.
const (
	defaultSearchLimit = 50
	maxSearchLimit     = 100
)

type analyzeRequest struct {
	Text string `json:"text"`
}

type batchRequest struct {
	Texts []string `json:"texts"`
}

type batchSubmitResponse struct {
	BatchID    string `json:"batch_id"`
	Message    string `json:"message"`
	TotalTexts int    `json:"total_texts"`
}

type batchListResponse struct {
	Batches []service.BatchSnapshot `json:"batches"`
	Total   int                     `json:"total"`
}

type statusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	analysis, err := s.analyses.Analyze(r.Context(), strings.TrimSpace(req.Text))
	if err != nil {
		if errors.Is(err, service.ErrEmptyText) {
			writeError(w, http.StatusBadRequest, service.ErrEmptyText.Error())
			return
		}
		slog.Error("analyze request failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, analysis)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit := defaultSearchLimit
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxSearchLimit {
			writeError(w, http.StatusBadRequest, "limit must be between 1 and 100")
			return
		}
		limit = n
	}
	offset := 0
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "offset must be non-negative")
			return
		}
		offset = n
	}

	result, err := s.analyses.Search(r.Context(), service.SearchOptions{
		Topic:   q.Get("topic"),
		Keyword: q.Get("keyword"),
		Limit:   limit,
		Offset:  offset,
	})
	if err != nil {
		slog.Error("search request failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid analysis id")
		return
	}

	analysis, err := s.analyses.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Analysis not found")
			return
		}
		slog.Error("get analysis failed", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, analysis)
}

func (s *Server) handleBatchSubmit(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Texts) == 0 {
		writeError(w, http.StatusBadRequest, "texts must not be empty")
		return
	}

	job := s.batches.Submit(req.Texts)

	writeJSON(w, http.StatusAccepted, batchSubmitResponse{
		BatchID:    job.ID,
		Message:    "Batch processing started",
		TotalTexts: len(req.Texts),
	})
}

func (s *Server) handleBatchStatus(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.batches.Get(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "Batch not found")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleBatchList(w http.ResponseWriter, r *http.Request) {
	batches := s.batches.List()
	writeJSON(w, http.StatusOK, batchListResponse{
		Batches: batches,
		Total:   len(batches),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.metrics.Snapshot())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{Status: "ok", Message: "Service is healthy"})
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{Status: "ok", Message: "Service is running"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResponse{Detail: detail})
}
