package service

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raphaelgruber/textlens/internal/db"
	"github.com/raphaelgruber/textlens/internal/llm"
	"github.com/raphaelgruber/textlens/internal/metrics"
)

// fakeLLM returns a scripted response and counts calls.
type fakeLLM struct {
	calls    int
	lastReq  llm.Request
	response string
	err      error
}

func (f *fakeLLM) Complete(_ context.Context, req llm.Request) (string, error) {
	f.calls++
	f.lastReq = req
	return f.response, f.err
}

const validLLMResponse = `{
	"summary": "A text about Go compilers.",
	"title": "Go Compilers",
	"topics": ["go", "compilers", "tooling"],
	"sentiment": "positive",
	"keywords": ["model", "output", "ignored"]
}`

func newTestService(t *testing.T, caller LLMCaller) *AnalysisService {
	t.Helper()
	store, err := db.Open(context.Background(), filepath.Join(t.TempDir(), "svc.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return NewAnalysisService(caller, store, metrics.NewCollector())
}

func TestAnalyzeRejectsEmptyText(t *testing.T) {
	fake := &fakeLLM{response: validLLMResponse}
	svc := newTestService(t, fake)

	for _, text := range []string{"", "   ", "\n\t"} {
		_, err := svc.Analyze(context.Background(), text)
		assert.True(t, errors.Is(err, ErrEmptyText), "text %q: got %v", text, err)
	}
	assert.Zero(t, fake.calls, "empty text must not reach the LLM")
}

func TestAnalyzeStoresFullRecord(t *testing.T) {
	fake := &fakeLLM{response: validLLMResponse}
	svc := newTestService(t, fake)

	text := "The compiler parses source code. The compiler emits machine code. A database stores results."
	got, err := svc.Analyze(context.Background(), text)
	require.NoError(t, err)

	assert.Equal(t, int64(1), got.ID)
	assert.Equal(t, text, got.OriginalText)
	assert.Equal(t, "A text about Go compilers.", got.Summary)
	require.NotNil(t, got.Title)
	assert.Equal(t, "Go Compilers", *got.Title)
	assert.Equal(t, []string{"go", "compilers", "tooling"}, got.Topics)
	assert.Equal(t, "positive", got.Sentiment)
	assert.False(t, got.CreatedAt.IsZero())

	// Keywords come from the original text, not the model output.
	assert.NotContains(t, got.Keywords, "model")
	assert.Contains(t, got.Keywords, "compiler")

	// Long text, summary, topics, and keywords all present.
	assert.Equal(t, 1.0, got.ConfidenceScore)

	assert.Equal(t, 1, fake.calls)
	assert.Equal(t, llm.FormatJSON, fake.lastReq.Format)
	assert.Equal(t, analysisSystemPrompt, fake.lastReq.SystemPrompt)
	assert.Contains(t, fake.lastReq.Prompt, text)
}

func TestAnalyzeLLMFailure(t *testing.T) {
	fake := &fakeLLM{err: errors.New("boom")}
	svc := newTestService(t, fake)

	_, err := svc.Analyze(context.Background(), "some text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "analysis failed")
}

func TestAnalyzeMalformedJSON(t *testing.T) {
	fake := &fakeLLM{response: "this is not json"}
	svc := newTestService(t, fake)

	_, err := svc.Analyze(context.Background(), "some text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "analysis failed")
}

func TestAnalyzeAppliesDefaults(t *testing.T) {
	fake := &fakeLLM{response: `{"title": null, "sentiment": "ecstatic"}`}
	svc := newTestService(t, fake)

	got, err := svc.Analyze(context.Background(), "short text here")
	require.NoError(t, err)

	assert.Equal(t, fallbackSummary, got.Summary)
	assert.Nil(t, got.Title)
	assert.Equal(t, []string{}, got.Topics)
	assert.Equal(t, "neutral", got.Sentiment, "unknown sentiment normalizes to neutral")
}

func TestAnalyzeStripsCodeFence(t *testing.T) {
	fake := &fakeLLM{response: "```json\n" + validLLMResponse + "\n```"}
	svc := newTestService(t, fake)

	got, err := svc.Analyze(context.Background(), "fenced response text")
	require.NoError(t, err)
	assert.Equal(t, "A text about Go compilers.", got.Summary)
}

func TestGetAnalysis(t *testing.T) {
	fake := &fakeLLM{response: validLLMResponse}
	svc := newTestService(t, fake)

	created, err := svc.Analyze(context.Background(), "some text to fetch later")
	require.NoError(t, err)

	got, err := svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)

	_, err = svc.Get(context.Background(), 9999)
	assert.True(t, errors.Is(err, db.ErrNotFound))
}

func TestSearchDefaults(t *testing.T) {
	fake := &fakeLLM{response: validLLMResponse}
	svc := newTestService(t, fake)

	_, err := svc.Analyze(context.Background(), "searchable text about compilers")
	require.NoError(t, err)

	result, err := svc.Search(context.Background(), SearchOptions{Topic: "compilers"})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Total)
	require.Len(t, result.Analyses, 1)

	// No filters returns everything.
	result, err = svc.Search(context.Background(), SearchOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Total)
}

func TestParseLLMResult(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"valid", validLLMResponse, false},
		{"fenced", "```json\n{\"summary\": \"ok\"}\n```", false},
		{"bare fence", "```\n{\"summary\": \"ok\"}\n```", false},
		{"empty object", "{}", false},
		{"not json", "hello", true},
		{"truncated", `{"summary": "cut`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseLLMResult(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
