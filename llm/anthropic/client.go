// Package anthropic provides an llm.Client implementation backed by the
// Anthropic Claude Messages API, grounded on the teacher's
// features/model/anthropic adapter but narrowed to this module's simpler
// llm.Message/llm.Response shape (no tool-call/thinking translation).
package anthropic

import (
	"context"
	"errors"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/flowkit/agentcore/corerr"
	"github.com/flowkit/agentcore/llm"
)

// MessagesClient captures the subset of the Anthropic SDK used by the
// adapter, so tests can substitute a mock in place of *sdk.MessageService.
type MessagesClient interface {
	New(ctx context.Context, body sdk.MessageNewParams, opts ...option.RequestOption) (*sdk.Message, error)
}

// Options configures the Anthropic adapter.
type Options struct {
	// DefaultModel is used when a caller does not otherwise pin a model.
	DefaultModel string
	MaxTokens    int
	Temperature  float64
}

// Client implements llm.Client on top of Anthropic Claude Messages.
type Client struct {
	msg          MessagesClient
	defaultModel string
	maxTokens    int
	temperature  float64
}

// New builds a Client from an Anthropic Messages client and options.
func New(msg MessagesClient, opts Options) (*Client, error) {
	if msg == nil {
		return nil, errors.New("anthropic client is required")
	}
	if opts.DefaultModel == "" {
		return nil, errors.New("default model identifier is required")
	}
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	return &Client{msg: msg, defaultModel: opts.DefaultModel, maxTokens: maxTokens, temperature: opts.Temperature}, nil
}

// NewFromAPIKey constructs a client using the default Anthropic HTTP
// client, authenticated with apiKey (which must be non-empty).
func NewFromAPIKey(apiKey, defaultModel string) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("api key is required")
	}
	ac := sdk.NewClient(option.WithAPIKey(apiKey))
	return New(&ac.Messages, Options{DefaultModel: defaultModel})
}

// Generate implements llm.Client.
func (c *Client) Generate(ctx context.Context, messages []llm.Message) (llm.Response, error) {
	msgs, system, err := encodeMessages(messages)
	if err != nil {
		return llm.Response{}, corerr.Wrap(corerr.InvariantViolation, "anthropic.encode_messages", err)
	}
	params := sdk.MessageNewParams{
		MaxTokens: int64(c.maxTokens),
		Messages:  msgs,
		Model:     sdk.Model(c.defaultModel),
	}
	if system != "" {
		params.System = []sdk.TextBlockParam{{Text: system}}
	}
	if c.temperature > 0 {
		params.Temperature = sdk.Float(c.temperature)
	}

	resp, err := c.msg.New(ctx, params)
	if err != nil {
		return llm.Response{}, corerr.Wrap(corerr.TransientIO, "anthropic.generate", err)
	}
	return decodeResponse(resp), nil
}

// Embed is not supported by the Messages API; Anthropic has no first-party
// embeddings endpoint, so this always returns a Config error directing
// callers toward a dedicated embeddings provider.
func (c *Client) Embed(context.Context, string) (llm.Embedding, error) {
	return llm.Embedding{}, corerr.New(corerr.Config, "anthropic: embeddings are not supported, use a dedicated embeddings provider")
}

// ListModels implements llm.Client with the statically known default.
func (c *Client) ListModels(context.Context) ([]string, error) {
	return []string{c.defaultModel}, nil
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

func encodeMessages(messages []llm.Message) ([]sdk.MessageParam, string, error) {
	var system string
	var out []sdk.MessageParam
	for _, m := range messages {
		switch m.Role {
		case llm.RoleSystem:
			system = m.Content
		case llm.RoleUser:
			out = append(out, sdk.NewUserMessage(sdk.NewTextBlock(m.Content)))
		case llm.RoleAssistant:
			out = append(out, sdk.NewAssistantMessage(sdk.NewTextBlock(m.Content)))
		case llm.RoleTool:
			out = append(out, sdk.NewUserMessage(sdk.NewTextBlock(m.Content)))
		default:
			return nil, "", errors.New("anthropic: unknown message role " + string(m.Role))
		}
	}
	return out, system, nil
}

func decodeResponse(resp *sdk.Message) llm.Response {
	var text string
	for _, block := range resp.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	return llm.Response{
		Text:         text,
		TokensUsed:   int(resp.Usage.InputTokens + resp.Usage.OutputTokens),
		Model:        string(resp.Model),
		FinishReason: string(resp.StopReason),
	}
}
