package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadforge/leadforge-engine/pkg/config"
)

func TestNewOpenAIClient_Validation(t *testing.T) {
	_, err := NewOpenAIClient("", Options{Model: "gemini-2.0-flash"})
	assert.Error(t, err)

	_, err = NewOpenAIClient("key", Options{})
	assert.Error(t, err)

	c, err := NewOpenAIClient("key", Options{Model: "gemini-2.0-flash"})
	require.NoError(t, err)
	assert.Equal(t, "gemini-2.0-flash", c.Model())
}

func TestNewAnthropicClient_Validation(t *testing.T) {
	_, err := NewAnthropicClient("", Options{Model: "claude-sonnet-4-20250514"})
	assert.Error(t, err)

	c, err := NewAnthropicClient("key", Options{Model: "claude-sonnet-4-20250514"})
	require.NoError(t, err)
	assert.Equal(t, "claude-sonnet-4-20250514", c.Model())
}

func TestNewClientFactory(t *testing.T) {
	factory, err := NewClientFactory(config.AIConfig{Provider: "openai", Model: "gemini-2.0-flash"})
	require.NoError(t, err)
	client, err := factory("some-key")
	require.NoError(t, err)
	assert.Equal(t, "gemini-2.0-flash", client.Model())

	factory, err = NewClientFactory(config.AIConfig{Provider: "anthropic", Model: "claude-sonnet-4-20250514"})
	require.NoError(t, err)
	client, err = factory("some-key")
	require.NoError(t, err)
	assert.Equal(t, "claude-sonnet-4-20250514", client.Model())

	_, err = NewClientFactory(config.AIConfig{Provider: "bedrock", Model: "x"})
	assert.Error(t, err)
}

func TestEstimateTokensForUsage(t *testing.T) {
	assert.Equal(t, 0, EstimateTokensForUsage("", "", ""))
	assert.Equal(t, 3, EstimateTokensForUsage("abcd", "efgh", "ijkl"))
	assert.Equal(t, 1, EstimateTokensForUsage("ab", "", ""))
}
