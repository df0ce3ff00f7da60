// Package anthropic implements models.AIProvider for Claude models via langchaingo.
package anthropic

import (
	"context"
	"errors"
	"fmt"

	"github.com/kiranshivaraju/compass/internal/config"
	"github.com/kiranshivaraju/compass/pkg/models"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
)

// Provider implements models.AIProvider using Anthropic. It has no
// embeddings endpoint, so Embed always fails.
type Provider struct {
	llm   *anthropic.LLM
	model string
}

func NewProvider(cfg config.AnthropicConfig) (*Provider, error) {
	llm, err := anthropic.New(anthropic.WithToken(cfg.APIKey), anthropic.WithModel(cfg.Model))
	if err != nil {
		return nil, fmt.Errorf("creating anthropic client: %w", err)
	}
	return &Provider{llm: llm, model: cfg.Model}, nil
}

func (p *Provider) Name() string { return "anthropic" }

func (p *Provider) Generate(ctx context.Context, req models.CompletionRequest) (models.Completion, error) {
	var msgs []llms.MessageContent
	if req.System != "" {
		msgs = append(msgs, llms.TextParts(llms.ChatMessageTypeSystem, req.System))
	}
	msgs = append(msgs, llms.TextParts(llms.ChatMessageTypeHuman, req.Prompt))

	var opts []llms.CallOption
	if req.Temperature > 0 {
		opts = append(opts, llms.WithTemperature(req.Temperature))
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 2048
	}
	opts = append(opts, llms.WithMaxTokens(maxTokens))

	resp, err := p.llm.GenerateContent(ctx, msgs, opts...)
	if err != nil {
		return models.Completion{}, fmt.Errorf("anthropic generate: %w", err)
	}
	if len(resp.Choices) == 0 {
		return models.Completion{}, fmt.Errorf("anthropic generate: no choices returned")
	}
	return models.Completion{Text: resp.Choices[0].Content, Model: p.model}, nil
}

func (p *Provider) Embed(_ context.Context, _ []string) ([][]float32, error) {
	return nil, fmt.Errorf("anthropic embeddings: %w", errors.ErrUnsupported)
}

var _ models.AIProvider = (*Provider)(nil)
