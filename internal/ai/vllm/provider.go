// Package vllm configures the OpenAI-compatible client for a vLLM server.
package vllm

import (
	"github.com/kiranshivaraju/compass/internal/ai/openai"
	"github.com/kiranshivaraju/compass/internal/config"
)

// vLLM ignores the key unless started with --api-key; the SDK requires one.
const placeholderKey = "EMPTY"

// NewProvider returns a provider that talks to vLLM's /v1 endpoints.
func NewProvider(cfg config.VLLMConfig) *openai.Provider {
	return openai.NewCompatible("vllm", cfg.BaseURL, placeholderKey, cfg.Model)
}
