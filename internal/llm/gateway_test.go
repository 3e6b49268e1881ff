package llm

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/raphaelgruber/textlens/internal/config"
	"github.com/tmc/langchaingo/llms"
)

// fakeModel scripts GenerateContent responses per call.
type fakeModel struct {
	calls    int
	messages [][]llms.MessageContent
	options  [][]llms.CallOption

	// respond decides the outcome of call n (1-based).
	respond func(n int, ctx context.Context) (*llms.ContentResponse, error)
}

func (f *fakeModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	f.calls++
	f.messages = append(f.messages, messages)
	f.options = append(f.options, options)
	return f.respond(f.calls, ctx)
}

func (f *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return "", errors.New("not implemented")
}

func textResponse(s string) *llms.ContentResponse {
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: s}},
	}
}

func newTestClient(model llms.Model, bk backend, sleeper func(time.Duration)) *Client {
	return &Client{
		model:          model,
		backend:        bk,
		modelName:      "test-model",
		defaultTimeout: time.Second,
		defaultRetries: DefaultMaxRetries,
		sleeper:        sleeper,
	}
}

func TestCompleteRequiresSystemPrompt(t *testing.T) {
	fake := &fakeModel{respond: func(int, context.Context) (*llms.ContentResponse, error) {
		return textResponse("never"), nil
	}}
	c := newTestClient(fake, chatBackend{}, nil)

	_, err := c.Complete(context.Background(), Request{Prompt: "hi"})
	if !errors.Is(err, ErrSystemPromptRequired) {
		t.Fatalf("expected ErrSystemPromptRequired, got %v", err)
	}
	if fake.calls != 0 {
		t.Errorf("expected no backend calls, got %d", fake.calls)
	}
}

func TestCompleteTrimsResponse(t *testing.T) {
	fake := &fakeModel{respond: func(int, context.Context) (*llms.ContentResponse, error) {
		return textResponse("  {\"ok\": true}\n"), nil
	}}
	c := newTestClient(fake, chatBackend{}, nil)

	got, err := c.Complete(context.Background(), Request{
		Prompt:       "analyze",
		SystemPrompt: "you are a test",
		MaxRetries:   -1,
	})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if got != "{\"ok\": true}" {
		t.Errorf("Complete() = %q, want trimmed payload", got)
	}
}

func TestChatBackendUsesJSONMode(t *testing.T) {
	fake := &fakeModel{respond: func(int, context.Context) (*llms.ContentResponse, error) {
		return textResponse("{}"), nil
	}}
	c := newTestClient(fake, chatBackend{}, nil)

	_, err := c.Complete(context.Background(), Request{
		Prompt:       "p",
		SystemPrompt: "s",
		Format:       FormatJSON,
		MaxRetries:   -1,
	})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}

	applied := llms.CallOptions{}
	for _, opt := range fake.options[0] {
		opt(&applied)
	}
	if !applied.JSONMode {
		t.Error("expected JSON mode option for chat-completions backend")
	}

	// System prompt must pass through unmodified: JSON is requested via
	// the native option, not the message text.
	system := fake.messages[0][0]
	if text, ok := system.Parts[0].(llms.TextContent); !ok || text.Text != "s" {
		t.Errorf("system message altered: %v", system.Parts[0])
	}
}

func TestMessagesBackendEncodesJSONInSystemPrompt(t *testing.T) {
	tests := []struct {
		name       string
		system     string
		format     Format
		wantSuffix bool
	}{
		{"json requested", "you are a test", FormatJSON, true},
		{"text requested", "you are a test", FormatText, false},
		{"already demands JSON", "always output JSON", FormatJSON, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeModel{respond: func(int, context.Context) (*llms.ContentResponse, error) {
				return textResponse("{}"), nil
			}}
			c := newTestClient(fake, messagesBackend{}, nil)

			_, err := c.Complete(context.Background(), Request{
				Prompt:       "p",
				SystemPrompt: tt.system,
				Format:       tt.format,
				MaxRetries:   -1,
			})
			if err != nil {
				t.Fatalf("Complete() error = %v", err)
			}

			applied := llms.CallOptions{}
			for _, opt := range fake.options[0] {
				opt(&applied)
			}
			if applied.JSONMode {
				t.Error("messages backend must not use native JSON mode")
			}

			system := fake.messages[0][0].Parts[0].(llms.TextContent).Text
			if got := strings.HasSuffix(system, jsonInstruction); got != tt.wantSuffix {
				t.Errorf("system prompt %q: instruction appended = %v, want %v", system, got, tt.wantSuffix)
			}
		})
	}
}

func TestCompleteTimeoutIsDistinct(t *testing.T) {
	fake := &fakeModel{respond: func(_ int, ctx context.Context) (*llms.ContentResponse, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	c := newTestClient(fake, chatBackend{}, nil)

	_, err := c.Complete(context.Background(), Request{
		Prompt:       "p",
		SystemPrompt: "s",
		Timeout:      10 * time.Millisecond,
		MaxRetries:   -1,
	})
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	if fake.calls != 1 {
		t.Errorf("expected exactly 1 attempt, got %d", fake.calls)
	}
}

func TestCompleteRetriesTransientFailures(t *testing.T) {
	fake := &fakeModel{respond: func(n int, _ context.Context) (*llms.ContentResponse, error) {
		if n < 3 {
			return nil, errors.New("connection reset")
		}
		return textResponse("recovered"), nil
	}}

	var delays []time.Duration
	c := newTestClient(fake, chatBackend{}, func(d time.Duration) {
		delays = append(delays, d)
	})

	got, err := c.Complete(context.Background(), Request{
		Prompt:       "p",
		SystemPrompt: "s",
		MaxRetries:   3,
	})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if got != "recovered" {
		t.Errorf("Complete() = %q", got)
	}
	if fake.calls != 3 {
		t.Errorf("expected 3 attempts, got %d", fake.calls)
	}
	if len(delays) != 2 || delays[0] != time.Second || delays[1] != 2*time.Second {
		t.Errorf("unexpected backoff delays %v", delays)
	}
}

func TestCompleteExhaustsRetries(t *testing.T) {
	fake := &fakeModel{respond: func(int, context.Context) (*llms.ContentResponse, error) {
		return nil, errors.New("boom")
	}}
	c := newTestClient(fake, chatBackend{}, func(time.Duration) {})

	_, err := c.Complete(context.Background(), Request{
		Prompt:       "p",
		SystemPrompt: "s",
		MaxRetries:   2,
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if fake.calls != 3 {
		t.Errorf("expected 3 attempts, got %d", fake.calls)
	}
	if !strings.Contains(err.Error(), "after 3 attempts") {
		t.Errorf("error %q should mention exhausted attempts", err)
	}
}

func TestCompleteDoesNotRetryCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	fake := &fakeModel{respond: func(int, context.Context) (*llms.ContentResponse, error) {
		cancel()
		return nil, context.Canceled
	}}
	c := newTestClient(fake, chatBackend{}, func(time.Duration) {
		t.Error("backoff sleep must not happen after cancellation")
	})

	_, err := c.Complete(ctx, Request{Prompt: "p", SystemPrompt: "s", MaxRetries: 3})
	if err == nil {
		t.Fatal("expected error")
	}
	if fake.calls != 1 {
		t.Errorf("expected 1 attempt, got %d", fake.calls)
	}
}

func TestBackoffDelay(t *testing.T) {
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{4, 8 * time.Second},
		{5, 10 * time.Second},
		{9, 10 * time.Second},
	}
	for _, tt := range tests {
		if got := backoffDelay(tt.attempt); got != tt.want {
			t.Errorf("backoffDelay(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestNewClientRejectsUnknownModel(t *testing.T) {
	cfg := config.Config{LLMModel: "gpt-99-turbo"}
	_, err := NewClient(cfg)
	if !errors.Is(err, ErrUnsupportedModel) {
		t.Fatalf("expected ErrUnsupportedModel, got %v", err)
	}
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	_, err := NewClient(config.Config{LLMModel: "gpt-4o"})
	if err == nil {
		t.Fatal("expected error for missing OpenAI key")
	}
	_, err = NewClient(config.Config{LLMModel: "claude-3-5-sonnet"})
	if err == nil {
		t.Fatal("expected error for missing Anthropic key")
	}
}
