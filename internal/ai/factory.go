package ai

import (
	"context"
	"fmt"

	"github.com/kiranshivaraju/compass/internal/ai/anthropic"
	"github.com/kiranshivaraju/compass/internal/ai/gemini"
	"github.com/kiranshivaraju/compass/internal/ai/ollama"
	"github.com/kiranshivaraju/compass/internal/ai/openai"
	"github.com/kiranshivaraju/compass/internal/ai/vllm"
	"github.com/kiranshivaraju/compass/internal/config"
	"github.com/kiranshivaraju/compass/pkg/models"
)

// NewProvider constructs the named AI provider, wrapped by Guard using the
// timeout and rate settings from cfg. Called once per role at server startup:
// once for cfg.Provider and, when it differs, once for cfg.EmbeddingProvider.
func NewProvider(ctx context.Context, cfg config.AIConfig, name string) (models.AIProvider, error) {
	raw, err := newRaw(ctx, cfg, name)
	if err != nil {
		return nil, err
	}
	return Guard(raw, GuardOptions{
		Timeout:           cfg.InferenceTimeout,
		RequestsPerSecond: cfg.RequestsPerSecond,
		Burst:             cfg.Burst,
	}), nil
}

func newRaw(ctx context.Context, cfg config.AIConfig, name string) (models.AIProvider, error) {
	switch name {
	case "gemini":
		return gemini.NewProvider(ctx, cfg.Gemini)
	case "ollama":
		return ollama.NewProvider(cfg.Ollama)
	case "vllm":
		return vllm.NewProvider(cfg.VLLM), nil
	case "openai":
		return openai.NewProvider(cfg.OpenAI), nil
	case "anthropic":
		return anthropic.NewProvider(cfg.Anthropic)
	case "offline":
		return Offline{}, nil
	default:
		return nil, fmt.Errorf("unknown AI provider %q: must be one of gemini, ollama, vllm, openai, anthropic, offline", name)
	}
}
