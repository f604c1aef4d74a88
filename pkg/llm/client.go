// Package llm wraps generative AI providers behind a single Client
// interface and gates every call through per-key quota tracking, key
// rotation, and classified retry.
package llm

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// CompletionResult is a provider response plus its token accounting.
// Token counts come from the provider when reported; TotalTokens is
// always populated (estimated when the provider omits usage).
type CompletionResult struct {
	Text             string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Client is the minimal surface the extraction pipeline needs from a
// generative AI provider.
type Client interface {
	// Complete sends a prompt with an optional system message and returns
	// the model's text response with token usage.
	Complete(ctx context.Context, prompt, system string) (*CompletionResult, error)

	// Model returns the model identifier in use.
	Model() string
}

// Options configures a provider client.
type Options struct {
	Model       string
	Endpoint    string // Base URL for OpenAI-compatible providers
	Temperature float64
	MaxTokens   int
}

// openAIClient talks to any OpenAI-compatible chat completion endpoint,
// including Gemini's compatibility surface.
type openAIClient struct {
	client *openai.Client
	opts   Options
}

var _ Client = (*openAIClient)(nil)

// NewOpenAIClient creates a client for an OpenAI-compatible endpoint.
func NewOpenAIClient(apiKey string, opts Options) (Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if opts.Model == "" {
		return nil, fmt.Errorf("model is required")
	}

	cfg := openai.DefaultConfig(apiKey)
	if opts.Endpoint != "" {
		cfg.BaseURL = opts.Endpoint
	}

	return &openAIClient{
		client: openai.NewClientWithConfig(cfg),
		opts:   opts,
	}, nil
}

func (c *openAIClient) Complete(ctx context.Context, prompt, system string) (*CompletionResult, error) {
	var messages []openai.ChatCompletionMessage
	if system != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: system,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt,
	})

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.opts.Model,
		Messages:    messages,
		Temperature: float32(c.opts.Temperature),
		MaxTokens:   c.opts.MaxTokens,
	})
	if err != nil {
		return nil, ClassifyError(err)
	}

	if len(resp.Choices) == 0 {
		return nil, NewError(KindTransient, "provider returned no choices", true, nil)
	}

	result := &CompletionResult{
		Text:             resp.Choices[0].Message.Content,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
	}
	if result.TotalTokens == 0 {
		result.TotalTokens = EstimateTokensForUsage(prompt, system, result.Text)
	}
	return result, nil
}

func (c *openAIClient) Model() string {
	return c.opts.Model
}

// EstimateTokensForUsage approximates total token usage from raw text when
// the provider omits usage data. Four characters per token.
func EstimateTokensForUsage(prompt, system, response string) int {
	total := len(prompt) + len(system) + len(response)
	return (total + 3) / 4
}
