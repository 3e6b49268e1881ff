// Package llm wraps remote text-completion calls with a uniform contract
// across two backend protocols, enforcing per-call timeouts, retrying
// transient failures with exponential backoff, and optionally rate-limiting
// outbound requests.
package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/raphaelgruber/textlens/internal/config"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/openai"
	"golang.org/x/time/rate"
)

// Sentinel errors. Use errors.Is to classify failures.
var (
	// ErrTimeout indicates the call exceeded its wall-clock budget. It is
	// distinct from other failures so callers can choose a different
	// retry or backoff strategy.
	ErrTimeout = errors.New("llm call timed out")

	// ErrSystemPromptRequired indicates a missing system prompt. Model
	// behavior is unreliable without an explicit instruction role, so
	// this is a configuration error rather than a silent default.
	ErrSystemPromptRequired = errors.New("system prompt is required")

	// ErrUnsupportedModel indicates the configured model has no entry in
	// the static model table.
	ErrUnsupportedModel = errors.New("unsupported model")
)

// Format selects the requested response encoding.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// Defaults applied to zero-valued request fields.
const (
	DefaultMaxTokens  = 4000
	DefaultTimeout    = 120 * time.Second
	DefaultMaxRetries = 3

	retryBaseDelay = 1 * time.Second
	retryMaxDelay  = 10 * time.Second
)

// Request describes one completion call.
type Request struct {
	Prompt       string
	SystemPrompt string
	Temperature  float64
	// MaxTokens defaults to DefaultMaxTokens when zero.
	MaxTokens int
	Format    Format
	// MaxRetries is the number of additional attempts after the first.
	// Zero means the client default; negative disables retries.
	MaxRetries int
	// Timeout bounds each attempt; zero means the client default.
	Timeout time.Duration
}

type apiType string

const (
	apiChatCompletions apiType = "chat_completions"
	apiMessages        apiType = "messages"
)

type modelConfig struct {
	api     apiType
	modelID string
}

// modelConfigs maps the configured model name onto its protocol family and
// provider model identifier. Extend this table to support new models.
var modelConfigs = map[string]modelConfig{
	"gpt-4o":            {api: apiChatCompletions, modelID: "gpt-4o"},
	"gpt-4o-mini":       {api: apiChatCompletions, modelID: "gpt-4o-mini"},
	"claude-3-5-sonnet": {api: apiMessages, modelID: "claude-3-5-sonnet-latest"},
	"claude-3-5-haiku":  {api: apiMessages, modelID: "claude-3-5-haiku-latest"},
}

// SupportedModels lists the model names the gateway accepts, sorted.
func SupportedModels() []string {
	names := make([]string, 0, len(modelConfigs))
	for name := range modelConfigs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Client issues completion requests against one statically selected backend.
type Client struct {
	model     llms.Model
	backend   backend
	modelName string

	limiter        *rate.Limiter
	defaultTimeout time.Duration
	defaultRetries int
	sleeper        func(time.Duration)
}

// Option customizes the client.
type Option func(*Client)

// WithSleeper overrides how retry backoff sleeps are performed (for tests).
func WithSleeper(sleeper func(time.Duration)) Option {
	return func(c *Client) {
		c.sleeper = sleeper
	}
}

// NewClient creates a gateway for the model named in cfg. The backend
// protocol is decided here, once, from the static model table.
func NewClient(cfg config.Config, opts ...Option) (*Client, error) {
	mc, ok := modelConfigs[cfg.LLMModel]
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %s)",
			ErrUnsupportedModel, cfg.LLMModel, strings.Join(SupportedModels(), ", "))
	}

	var model llms.Model
	var bk backend
	var err error

	switch mc.api {
	case apiChatCompletions:
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("OpenAI API key required for model %q", cfg.LLMModel)
		}
		openaiOpts := []openai.Option{
			openai.WithToken(cfg.OpenAIAPIKey),
			openai.WithModel(mc.modelID),
		}
		if cfg.OpenAIBaseURL != "" {
			openaiOpts = append(openaiOpts, openai.WithBaseURL(cfg.OpenAIBaseURL))
		}
		model, err = openai.New(openaiOpts...)
		if err != nil {
			return nil, fmt.Errorf("create openai model: %w", err)
		}
		bk = chatBackend{}

	case apiMessages:
		if cfg.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("Anthropic API key required for model %q", cfg.LLMModel)
		}
		model, err = anthropic.New(
			anthropic.WithToken(cfg.AnthropicAPIKey),
			anthropic.WithModel(mc.modelID),
		)
		if err != nil {
			return nil, fmt.Errorf("create anthropic model: %w", err)
		}
		bk = messagesBackend{}
	}

	c := &Client{
		model:          model,
		backend:        bk,
		modelName:      cfg.LLMModel,
		defaultTimeout: cfg.LLMTimeout,
		defaultRetries: cfg.LLMMaxRetries,
	}
	if c.defaultTimeout <= 0 {
		c.defaultTimeout = DefaultTimeout
	}
	if c.defaultRetries == 0 {
		c.defaultRetries = DefaultMaxRetries
	}
	if cfg.LLMRequestsPerMinute > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(float64(cfg.LLMRequestsPerMinute)/60.0), 1)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.modelName
}

// Backend returns the protocol family name in use.
func (c *Client) Backend() string {
	return c.backend.Name()
}

// Complete issues the request, returning the trimmed response text. It never
// parses JSON; when Format is FormatJSON the backend encodes the structured
// output contract and the caller parses the result.
//
// Transient failures (timeouts, transport faults) are retried up to
// MaxRetries additional attempts with exponential backoff. Context
// cancellation and configuration errors are never retried.
func (c *Client) Complete(ctx context.Context, req Request) (string, error) {
	if strings.TrimSpace(req.SystemPrompt) == "" {
		return "", ErrSystemPromptRequired
	}
	if req.MaxTokens <= 0 {
		req.MaxTokens = DefaultMaxTokens
	}
	if req.Format == "" {
		req.Format = FormatText
	}
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = c.defaultTimeout
	}
	retries := req.MaxRetries
	if retries == 0 {
		retries = c.defaultRetries
	}
	if retries < 0 {
		retries = 0
	}
	attempts := retries + 1

	messages := c.backend.BuildMessages(req)
	opts := c.backend.CallOptions(req)

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return "", fmt.Errorf("llm rate limit: %w", err)
			}
		}

		slog.Debug("calling llm",
			"backend", c.backend.Name(),
			"model", c.modelName,
			"attempt", attempt,
			"attempts", attempts,
			"timeout", timeout,
			"prompt_len", len(req.Prompt))

		content, err := c.callOnce(ctx, messages, opts, timeout)
		if err == nil {
			return content, nil
		}
		lastErr = err

		if !retryable(ctx, err) || attempt == attempts {
			break
		}

		delay := backoffDelay(attempt)
		slog.Warn("llm call failed, retrying",
			"attempt", attempt, "delay", delay, "error", err)
		if err := c.sleep(ctx, delay); err != nil {
			return "", err
		}
	}

	if attempts > 1 && retryable(ctx, lastErr) {
		return "", fmt.Errorf("llm call failed after %d attempts: %w", attempts, lastErr)
	}
	return "", lastErr
}

// callOnce runs a single attempt under its own deadline. When the deadline
// elapses the in-flight request is cancelled (best effort, via the context)
// and the distinct ErrTimeout is returned.
func (c *Client) callOnce(ctx context.Context, messages []llms.MessageContent, opts []llms.CallOption, timeout time.Duration) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := c.model.GenerateContent(callCtx, messages, opts...)
	if err != nil {
		// Distinguish our per-call deadline from cancellation of the
		// parent context.
		if callCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
			return "", fmt.Errorf("%w after %s", ErrTimeout, timeout)
		}
		return "", fmt.Errorf("generate content: %w", err)
	}

	content, err := c.backend.Unwrap(resp)
	if err != nil {
		return "", fmt.Errorf("unwrap response: %w", err)
	}
	return strings.TrimSpace(content), nil
}

// retryable reports whether err is worth another attempt. Cancellation of
// the caller's context never is; timeouts and transport faults are.
func retryable(ctx context.Context, err error) bool {
	if err == nil || ctx.Err() != nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	return true
}

// backoffDelay doubles from the base each attempt, capped at retryMaxDelay.
func backoffDelay(attempt int) time.Duration {
	delay := retryBaseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= retryMaxDelay {
			return retryMaxDelay
		}
	}
	return delay
}

func (c *Client) sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	if c.sleeper != nil {
		c.sleeper(delay)
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
