// Package ollama implements models.AIProvider for a local Ollama server via langchaingo.
package ollama

import (
	"context"
	"fmt"

	"github.com/kiranshivaraju/compass/internal/config"
	"github.com/kiranshivaraju/compass/pkg/models"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
)

// Provider implements models.AIProvider using Ollama.
type Provider struct {
	llm   *ollama.LLM
	model string
}

func NewProvider(cfg config.OllamaConfig) (*Provider, error) {
	llm, err := ollama.New(ollama.WithModel(cfg.Model), ollama.WithServerURL(cfg.BaseURL))
	if err != nil {
		return nil, fmt.Errorf("creating ollama client: %w", err)
	}
	return &Provider{llm: llm, model: cfg.Model}, nil
}

func (p *Provider) Name() string { return "ollama" }

func (p *Provider) Generate(ctx context.Context, req models.CompletionRequest) (models.Completion, error) {
	resp, err := p.llm.GenerateContent(ctx, messages(req), callOptions(req)...)
	if err != nil {
		return models.Completion{}, fmt.Errorf("ollama generate: %w", err)
	}
	if len(resp.Choices) == 0 {
		return models.Completion{}, fmt.Errorf("ollama generate: no choices returned")
	}
	return models.Completion{Text: resp.Choices[0].Content, Model: p.model}, nil
}

func (p *Provider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	vecs, err := p.llm.CreateEmbedding(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("ollama embed: %w", err)
	}
	return vecs, nil
}

func messages(req models.CompletionRequest) []llms.MessageContent {
	var msgs []llms.MessageContent
	if req.System != "" {
		msgs = append(msgs, llms.TextParts(llms.ChatMessageTypeSystem, req.System))
	}
	return append(msgs, llms.TextParts(llms.ChatMessageTypeHuman, req.Prompt))
}

func callOptions(req models.CompletionRequest) []llms.CallOption {
	var opts []llms.CallOption
	if req.Temperature > 0 {
		opts = append(opts, llms.WithTemperature(req.Temperature))
	}
	if req.MaxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(req.MaxTokens))
	}
	if req.JSON {
		opts = append(opts, llms.WithJSONMode())
	}
	return opts
}

var _ models.AIProvider = (*Provider)(nil)
