package llm

import (
	"errors"
	"strings"

	"github.com/tmc/langchaingo/llms"
)

// jsonInstruction is appended to the system message for backends without
// native structured-output support when JSON is requested.
const jsonInstruction = " Respond with a valid JSON object."

// backend adapts one remote protocol family: it decides how the role-tagged
// message list and call options encode a request, and how the provider's
// response unwraps into plain text. Selection is static per model name and
// happens once at client construction.
type backend interface {
	Name() string
	BuildMessages(req Request) []llms.MessageContent
	CallOptions(req Request) []llms.CallOption
	Unwrap(resp *llms.ContentResponse) (string, error)
}

// chatBackend speaks the chat-completions protocol, which supports
// structured output natively via JSON mode.
type chatBackend struct{}

func (chatBackend) Name() string { return "chat_completions" }

func (chatBackend) BuildMessages(req Request) []llms.MessageContent {
	return []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, req.SystemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, req.Prompt),
	}
}

func (chatBackend) CallOptions(req Request) []llms.CallOption {
	opts := []llms.CallOption{
		llms.WithTemperature(req.Temperature),
		llms.WithMaxTokens(req.MaxTokens),
	}
	if req.Format == FormatJSON {
		opts = append(opts, llms.WithJSONMode())
	}
	return opts
}

func (chatBackend) Unwrap(resp *llms.ContentResponse) (string, error) {
	return firstChoice(resp)
}

// messagesBackend speaks the structured-message protocol. It has no JSON
// mode, so a JSON response is requested through the system message instead —
// the same contract, encoded for the backend.
type messagesBackend struct{}

func (messagesBackend) Name() string { return "messages" }

func (messagesBackend) BuildMessages(req Request) []llms.MessageContent {
	system := req.SystemPrompt
	if req.Format == FormatJSON && !strings.Contains(system, "JSON") {
		system += jsonInstruction
	}
	return []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, system),
		llms.TextParts(llms.ChatMessageTypeHuman, req.Prompt),
	}
}

func (messagesBackend) CallOptions(req Request) []llms.CallOption {
	return []llms.CallOption{
		llms.WithTemperature(req.Temperature),
		llms.WithMaxTokens(req.MaxTokens),
	}
}

func (messagesBackend) Unwrap(resp *llms.ContentResponse) (string, error) {
	return firstChoice(resp)
}

func firstChoice(resp *llms.ContentResponse) (string, error) {
	if resp == nil || len(resp.Choices) == 0 {
		return "", errors.New("no response choices")
	}
	return resp.Choices[0].Content, nil
}
