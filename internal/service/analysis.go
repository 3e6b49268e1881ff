// Package service implements text analysis: LLM summarization, local keyword
// extraction, confidence scoring, and persistence.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/raphaelgruber/textlens/internal/db"
	"github.com/raphaelgruber/textlens/internal/extract"
	"github.com/raphaelgruber/textlens/internal/llm"
	"github.com/raphaelgruber/textlens/internal/metrics"
	"github.com/raphaelgruber/textlens/internal/models"
	"github.com/raphaelgruber/textlens/internal/scoring"
)

// ErrEmptyText indicates the submitted text was empty or whitespace-only.
// It is rejected before any LLM call is made.
var ErrEmptyText = errors.New("text cannot be empty")

// fallbackSummary is stored when the model returns no usable summary.
const fallbackSummary = "No summary available"

// LLMCaller is the completion surface the service needs from the gateway.
type LLMCaller interface {
	Complete(ctx context.Context, req llm.Request) (string, error)
}

// AnalysisService coordinates one analysis end to end.
type AnalysisService struct {
	llm     LLMCaller
	store   *db.Store
	metrics *metrics.Collector
}

// NewAnalysisService creates the service. The metrics collector may be nil.
func NewAnalysisService(llmClient LLMCaller, store *db.Store, collector *metrics.Collector) *AnalysisService {
	return &AnalysisService{
		llm:     llmClient,
		store:   store,
		metrics: collector,
	}
}

// Analyze runs the full pipeline for one text: LLM analysis, keyword
// extraction from the original text, confidence scoring, and persistence.
// Returns the stored record including its assigned ID.
func (s *AnalysisService) Analyze(ctx context.Context, text string) (*models.Analysis, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}

	start := time.Now()

	llmStart := time.Now()
	raw, err := s.llm.Complete(ctx, llm.Request{
		Prompt:       buildAnalysisPrompt(text),
		SystemPrompt: analysisSystemPrompt,
		Format:       llm.FormatJSON,
	})
	if err != nil {
		s.recordError(metrics.OpLLMCall)
		s.recordError(metrics.OpAnalyze)
		return nil, fmt.Errorf("analysis failed: %w", err)
	}
	s.recordTiming(metrics.OpLLMCall, llmStart)

	result, err := parseLLMResult(raw)
	if err != nil {
		s.recordError(metrics.OpAnalyze)
		return nil, fmt.Errorf("analysis failed: %w", err)
	}

	// Keywords come from the original text, never from the model output.
	keywords := extract.Keywords(text, extract.DefaultTopK)
	score := scoring.Score(text, result, keywords)

	slog.Debug("analysis computed",
		"summary_len", len(result.Summary),
		"topics", len(result.Topics),
		"sentiment", result.Sentiment,
		"keywords", keywords,
		"confidence", score)

	dbStart := time.Now()
	stored, err := s.store.CreateAnalysis(ctx, models.Analysis{
		OriginalText:    text,
		Summary:         result.Summary,
		Title:           result.Title,
		Topics:          result.Topics,
		Sentiment:       result.Sentiment,
		Keywords:        keywords,
		ConfidenceScore: score,
	})
	if err != nil {
		s.recordError(metrics.OpDBQuery)
		s.recordError(metrics.OpAnalyze)
		return nil, fmt.Errorf("analysis failed: %w", err)
	}
	s.recordTiming(metrics.OpDBQuery, dbStart)
	s.recordTiming(metrics.OpAnalyze, start)

	slog.Info("text analyzed", "id", stored.ID, "confidence", stored.ConfidenceScore)
	return stored, nil
}

// Get fetches a stored analysis by ID. Returns db.ErrNotFound when missing.
func (s *AnalysisService) Get(ctx context.Context, id int64) (*models.Analysis, error) {
	start := time.Now()
	a, err := s.store.GetAnalysis(ctx, id)
	if err != nil {
		if !errors.Is(err, db.ErrNotFound) {
			s.recordError(metrics.OpDBQuery)
		}
		return nil, err
	}
	s.recordTiming(metrics.OpDBQuery, start)
	return a, nil
}

// SearchOptions filters and paginates a search. Empty filters match all.
type SearchOptions struct {
	Topic   string
	Keyword string
	Limit   int
	Offset  int
}

// SearchResult is one page of matches plus the total match count.
type SearchResult struct {
	Analyses []models.Analysis `json:"analyses"`
	Total    int               `json:"total"`
}

// Search returns stored analyses matching the options, newest first.
func (s *AnalysisService) Search(ctx context.Context, opts SearchOptions) (*SearchResult, error) {
	if opts.Limit <= 0 {
		opts.Limit = 50
	}
	if opts.Offset < 0 {
		opts.Offset = 0
	}

	start := time.Now()
	analyses, total, err := s.store.SearchAnalyses(ctx, opts.Topic, opts.Keyword, opts.Limit, opts.Offset)
	if err != nil {
		s.recordError(metrics.OpDBSearch)
		return nil, err
	}
	s.recordTiming(metrics.OpDBSearch, start)

	return &SearchResult{Analyses: analyses, Total: total}, nil
}

// parseLLMResult decodes the model's JSON reply and applies defaults for
// missing fields, mirroring a lenient read of an imperfect model response.
func parseLLMResult(raw string) (*models.LLMResult, error) {
	var result models.LLMResult
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &result); err != nil {
		return nil, fmt.Errorf("parse llm response: %w", err)
	}

	if strings.TrimSpace(result.Summary) == "" {
		result.Summary = fallbackSummary
	}
	if result.Topics == nil {
		result.Topics = []string{}
	}
	result.Sentiment = strings.ToLower(strings.TrimSpace(result.Sentiment))
	if !models.ValidSentiment(result.Sentiment) {
		result.Sentiment = models.SentimentNeutral
	}
	return &result, nil
}

func (s *AnalysisService) recordTiming(op string, start time.Time) {
	if s.metrics != nil {
		s.metrics.RecordTiming(op, time.Since(start))
	}
}

func (s *AnalysisService) recordError(op string) {
	if s.metrics != nil {
		s.metrics.RecordError(op)
	}
}
