package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/raphaelgruber/textlens/internal/metrics"
	"github.com/raphaelgruber/textlens/internal/models"
)

// BatchStatus represents the state of a batch job.
type BatchStatus string

const (
	BatchStatusProcessing BatchStatus = "processing"
	BatchStatusCompleted  BatchStatus = "completed"
)

// failedTextPreview is how many characters of a failing text are kept in its
// failure message.
const failedTextPreview = 50

// Analyzer is the single-text analysis surface the coordinator drives.
type Analyzer interface {
	Analyze(ctx context.Context, text string) (*models.Analysis, error)
}

// BatchJob tracks one submitted batch. State is process-local and lost on
// restart.
type BatchJob struct {
	ID          string
	Status      BatchStatus
	Successful  []models.Analysis
	Failed      []string
	Total       int
	CreatedAt   time.Time
	CompletedAt *time.Time

	mu sync.RWMutex
}

// BatchSnapshot is a thread-safe copy of a job's state, shaped for responses.
type BatchSnapshot struct {
	BatchID      string            `json:"batch_id"`
	Status       BatchStatus       `json:"status"`
	Successful   []models.Analysis `json:"successful"`
	Failed       []string          `json:"failed"`
	Total        int               `json:"total"`
	SuccessCount int               `json:"success_count"`
	FailureCount int               `json:"failure_count"`
	CreatedAt    time.Time         `json:"created_at"`
	CompletedAt  *time.Time        `json:"completed_at,omitempty"`
}

// Snapshot returns a consistent copy of the job's state.
func (j *BatchJob) Snapshot() BatchSnapshot {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return BatchSnapshot{
		BatchID:      j.ID,
		Status:       j.Status,
		Successful:   slices.Clone(j.Successful),
		Failed:       slices.Clone(j.Failed),
		Total:        j.Total,
		SuccessCount: len(j.Successful),
		FailureCount: len(j.Failed),
		CreatedAt:    j.CreatedAt,
		CompletedAt:  j.CompletedAt,
	}
}

// BatchCoordinator runs batches of analyses in the background and tracks
// their progress in memory.
type BatchCoordinator struct {
	analyzer Analyzer
	metrics  *metrics.Collector

	mu   sync.RWMutex
	jobs map[string]*BatchJob
}

// NewBatchCoordinator creates a coordinator. The metrics collector may be nil.
func NewBatchCoordinator(analyzer Analyzer, collector *metrics.Collector) *BatchCoordinator {
	return &BatchCoordinator{
		analyzer: analyzer,
		metrics:  collector,
		jobs:     make(map[string]*BatchJob),
	}
}

// Submit registers a new batch and starts processing it in the background.
// It returns immediately with the pending job.
func (c *BatchCoordinator) Submit(texts []string) *BatchJob {
	job := &BatchJob{
		ID:         uuid.New().String(),
		Status:     BatchStatusProcessing,
		Successful: []models.Analysis{},
		Failed:     []string{},
		Total:      len(texts),
		CreatedAt:  time.Now().UTC(),
	}

	c.mu.Lock()
	c.jobs[job.ID] = job
	c.mu.Unlock()

	slog.Info("batch submitted", "batch_id", job.ID, "texts", len(texts))

	go func() {
		defer func() {
			if r := recover(); r != nil {
				slog.Error("batch goroutine panicked", "batch_id", job.ID, "panic", r)
				job.mu.Lock()
				job.Failed = append(job.Failed, fmt.Sprintf("internal panic: %v", r))
				job.mu.Unlock()
			}
			c.complete(job)
		}()
		// Detached from the submitting request: the batch outlives it.
		c.process(context.Background(), job, texts)
	}()

	return job
}

// process runs each text through the analyzer sequentially. Individual
// failures are recorded and never abort the rest of the batch.
func (c *BatchCoordinator) process(ctx context.Context, job *BatchJob, texts []string) {
	for _, text := range texts {
		if strings.TrimSpace(text) == "" {
			job.mu.Lock()
			job.Failed = append(job.Failed, "Empty text")
			job.mu.Unlock()
			continue
		}

		result, err := c.analyzer.Analyze(ctx, text)
		if err != nil {
			job.mu.Lock()
			job.Failed = append(job.Failed, fmt.Sprintf("Text '%s...': %v", preview(text), err))
			job.mu.Unlock()
			continue
		}

		job.mu.Lock()
		job.Successful = append(job.Successful, *result)
		job.mu.Unlock()
	}
}

// complete marks the job done. A batch always completes, even when every
// text failed; per-text errors live in Failed.
func (c *BatchCoordinator) complete(job *BatchJob) {
	job.mu.Lock()
	job.Status = BatchStatusCompleted
	now := time.Now().UTC()
	job.CompletedAt = &now
	succeeded, failed := len(job.Successful), len(job.Failed)
	elapsed := now.Sub(job.CreatedAt)
	job.mu.Unlock()

	if c.metrics != nil {
		c.metrics.RecordTiming(metrics.OpBatch, elapsed)
	}
	slog.Info("batch completed", "batch_id", job.ID, "succeeded", succeeded, "failed", failed)
}

// Get returns a snapshot of the job, or false when the ID is unknown.
func (c *BatchCoordinator) Get(id string) (BatchSnapshot, bool) {
	c.mu.RLock()
	job, ok := c.jobs[id]
	c.mu.RUnlock()
	if !ok {
		return BatchSnapshot{}, false
	}
	return job.Snapshot(), true
}

// List returns snapshots of all jobs, most recent first.
func (c *BatchCoordinator) List() []BatchSnapshot {
	c.mu.RLock()
	jobs := make([]*BatchJob, 0, len(c.jobs))
	for _, job := range c.jobs {
		jobs = append(jobs, job)
	}
	c.mu.RUnlock()

	snapshots := make([]BatchSnapshot, 0, len(jobs))
	for _, job := range jobs {
		snapshots = append(snapshots, job.Snapshot())
	}
	slices.SortFunc(snapshots, func(a, b BatchSnapshot) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return snapshots
}

// preview returns the first characters of text for failure messages.
func preview(text string) string {
	runes := []rune(text)
	if len(runes) <= failedTextPreview {
		return text
	}
	return string(runes[:failedTextPreview])
}
