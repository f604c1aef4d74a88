package llm

import (
	"fmt"

	"github.com/leadforge/leadforge-engine/pkg/config"
)

// NewClientFactory returns a constructor that builds a provider client for a
// single API key. The gate calls it once per key in the rotation pool and
// caches the results.
func NewClientFactory(cfg config.AIConfig) (func(apiKey string) (Client, error), error) {
	opts := Options{
		Model:       cfg.Model,
		Endpoint:    cfg.Endpoint,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
	}

	switch cfg.Provider {
	case "openai":
		return func(apiKey string) (Client, error) {
			return NewOpenAIClient(apiKey, opts)
		}, nil
	case "anthropic":
		return func(apiKey string) (Client, error) {
			return NewAnthropicClient(apiKey, opts)
		}, nil
	default:
		return nil, fmt.Errorf("unsupported AI provider: %s", cfg.Provider)
	}
}
