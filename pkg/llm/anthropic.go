package llm

import (
	"context"
	"fmt"

	anthropic "github.com/liushuangls/go-anthropic/v2"
)

// anthropicClient talks to the Anthropic Messages API.
type anthropicClient struct {
	client *anthropic.Client
	opts   Options
}

var _ Client = (*anthropicClient)(nil)

// NewAnthropicClient creates a client for the Anthropic Messages API.
func NewAnthropicClient(apiKey string, opts Options) (Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if opts.Model == "" {
		return nil, fmt.Errorf("model is required")
	}

	return &anthropicClient{
		client: anthropic.NewClient(apiKey),
		opts:   opts,
	}, nil
}

func (c *anthropicClient) Complete(ctx context.Context, prompt, system string) (*CompletionResult, error) {
	maxTokens := c.opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 2048
	}

	temp := float32(c.opts.Temperature)
	resp, err := c.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:  anthropic.Model(c.opts.Model),
		System: system,
		Messages: []anthropic.Message{
			anthropic.NewUserTextMessage(prompt),
		},
		MaxTokens:   maxTokens,
		Temperature: &temp,
	})
	if err != nil {
		return nil, ClassifyError(err)
	}

	if len(resp.Content) == 0 {
		return nil, NewError(KindTransient, "provider returned no content", true, nil)
	}

	result := &CompletionResult{
		Text:             resp.Content[0].GetText(),
		PromptTokens:     resp.Usage.InputTokens,
		CompletionTokens: resp.Usage.OutputTokens,
		TotalTokens:      resp.Usage.InputTokens + resp.Usage.OutputTokens,
	}
	if result.TotalTokens == 0 {
		result.TotalTokens = EstimateTokensForUsage(prompt, system, result.Text)
	}
	return result, nil
}

func (c *anthropicClient) Model() string {
	return c.opts.Model
}
