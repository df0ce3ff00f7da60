package ai_test

import (
	"context"
	"testing"
	"time"

	"github.com/kiranshivaraju/compass/internal/ai"
	"github.com/kiranshivaraju/compass/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseConfig() config.AIConfig {
	return config.AIConfig{
		InferenceTimeout: 5 * time.Second,
		Gemini:           config.GeminiConfig{APIKey: "test-key", Model: "gemini-1.5-flash", EmbeddingModel: "text-embedding-004"},
		Ollama:           config.OllamaConfig{BaseURL: "http://localhost:11434", Model: "llama3"},
		VLLM:             config.VLLMConfig{BaseURL: "http://localhost:8000/v1", Model: "mistral-7b"},
		OpenAI:           config.OpenAIConfig{APIKey: "sk-test", Model: "gpt-4o-mini", EmbeddingModel: "text-embedding-3-small"},
		Anthropic:        config.AnthropicConfig{APIKey: "sk-ant-test", Model: "claude-sonnet-4-5-20250929"},
	}
}

func TestNewProvider_Known(t *testing.T) {
	for _, name := range []string{"gemini", "ollama", "vllm", "openai", "anthropic", "offline"} {
		t.Run(name, func(t *testing.T) {
			p, err := ai.NewProvider(context.Background(), baseConfig(), name)
			require.NoError(t, err)
			assert.Equal(t, name, p.Name())
			assert.IsType(t, &ai.Guarded{}, p)
		})
	}
}

func TestNewProvider_Unknown(t *testing.T) {
	_, err := ai.NewProvider(context.Background(), baseConfig(), "unknown-provider")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown AI provider")
	assert.Contains(t, err.Error(), "unknown-provider")
}

func TestNewProvider_Empty(t *testing.T) {
	_, err := ai.NewProvider(context.Background(), baseConfig(), "")
	require.Error(t, err)
}

func TestNewProvider_AnthropicEmbedUnsupported(t *testing.T) {
	p, err := ai.NewProvider(context.Background(), baseConfig(), "anthropic")
	require.NoError(t, err)

	_, err = p.Embed(context.Background(), []string{"hello"})
	assert.ErrorIs(t, err, ai.ErrEmbeddingsUnsupported)
}
