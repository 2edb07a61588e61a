// Package openai provides an llm.Client implementation backed by the
// OpenAI Chat Completions API via github.com/openai/openai-go, grounded on
// the teacher's features/model/openai adapter shape (translate a message
// list + options into a chat completion, then map the response back).
package openai

import (
	"context"
	"errors"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/flowkit/agentcore/corerr"
	"github.com/flowkit/agentcore/llm"
)

// ChatClient captures the subset of the openai-go client used by the
// adapter, so tests can substitute a mock.
type ChatClient interface {
	New(ctx context.Context, body openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
}

// Options configures the OpenAI adapter.
type Options struct {
	DefaultModel string
}

// Client implements llm.Client via the OpenAI Chat Completions API.
type Client struct {
	chat  ChatClient
	model string
}

// New builds a Client from a chat-completions client and options.
func New(chat ChatClient, opts Options) (*Client, error) {
	if chat == nil {
		return nil, errors.New("openai client is required")
	}
	modelID := strings.TrimSpace(opts.DefaultModel)
	if modelID == "" {
		return nil, errors.New("default model is required")
	}
	return &Client{chat: chat, model: modelID}, nil
}

// NewFromAPIKey constructs a client using the default openai-go HTTP
// client, authenticated with apiKey via option.WithAPIKey (apiKey must be
// non-blank).
func NewFromAPIKey(apiKey, defaultModel string) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("api key is required")
	}
	oc := openai.NewClient(option.WithAPIKey(apiKey))
	return New(&oc.Chat.Completions, Options{DefaultModel: defaultModel})
}

// Generate implements llm.Client.
func (c *Client) Generate(ctx context.Context, messages []llm.Message) (llm.Response, error) {
	if len(messages) == 0 {
		return llm.Response{}, errors.New("messages are required")
	}
	params := openai.ChatCompletionNewParams{
		Model:    c.model,
		Messages: encodeMessages(messages),
	}
	resp, err := c.chat.New(ctx, params)
	if err != nil {
		return llm.Response{}, corerr.Wrap(corerr.TransientIO, "openai.generate", err)
	}
	return decodeResponse(resp), nil
}

// Embed implements llm.Client but does not call the OpenAI embeddings API:
// this adapter holds only a chat-completions client, so Embed always
// returns a corerr.Config error.
func (c *Client) Embed(context.Context, string) (llm.Embedding, error) {
	return llm.Embedding{}, corerr.New(corerr.Config, "openai: embeddings require a dedicated embeddings client, not yet wired")
}

// ListModels implements llm.Client with the statically configured default.
func (c *Client) ListModels(context.Context) ([]string, error) {
	return []string{c.model}, nil
}

// IsModelAvailable implements llm.Client.
func (c *Client) IsModelAvailable(ctx context.Context, name string) (bool, error) {
	models, err := c.ListModels(ctx)
	if err != nil {
		return false, err
	}
	for _, m := range models {
		if m == name {
			return true, nil
		}
	}
	return false, nil
}

func encodeMessages(messages []llm.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case llm.RoleSystem:
			out = append(out, openai.SystemMessage(m.Content))
		case llm.RoleUser:
			out = append(out, openai.UserMessage(m.Content))
		case llm.RoleAssistant:
			out = append(out, openai.AssistantMessage(m.Content))
		case llm.RoleTool:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}

func decodeResponse(resp *openai.ChatCompletion) llm.Response {
	var text, finish string
	if len(resp.Choices) > 0 {
		text = resp.Choices[0].Message.Content
		finish = string(resp.Choices[0].FinishReason)
	}
	return llm.Response{
		Text:         text,
		TokensUsed:   int(resp.Usage.TotalTokens),
		Model:        resp.Model,
		FinishReason: finish,
	}
}
