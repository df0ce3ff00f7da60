// Package openai implements models.AIProvider on the official OpenAI SDK.
// It also serves any OpenAI-compatible endpoint through NewCompatible.
package openai

import (
	"context"
	"errors"
	"fmt"

	"github.com/kiranshivaraju/compass/internal/config"
	"github.com/kiranshivaraju/compass/pkg/models"
	openai "github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
)

// Provider implements models.AIProvider using OpenAI chat completions and embeddings.
type Provider struct {
	client         openai.Client
	name           string
	model          string
	embeddingModel string
}

func NewProvider(cfg config.OpenAIConfig) *Provider {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &Provider{
		client:         openai.NewClient(opts...),
		name:           "openai",
		model:          cfg.Model,
		embeddingModel: cfg.EmbeddingModel,
	}
}

// NewCompatible builds a provider for a self-hosted server speaking the
// OpenAI wire protocol. The same model serves chat and embeddings.
func NewCompatible(name, baseURL, apiKey, model string) *Provider {
	return &Provider{
		client:         openai.NewClient(option.WithBaseURL(baseURL), option.WithAPIKey(apiKey)),
		name:           name,
		model:          model,
		embeddingModel: model,
	}
}

func (p *Provider) Name() string { return p.name }

func (p *Provider) Generate(ctx context.Context, req models.CompletionRequest) (models.Completion, error) {
	var msgs []openai.ChatCompletionMessageParamUnion
	if req.System != "" {
		msgs = append(msgs, openai.SystemMessage(req.System))
	}
	msgs = append(msgs, openai.UserMessage(req.Prompt))

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(p.model),
		Messages: msgs,
	}
	if req.Temperature > 0 {
		params.Temperature = openai.Float(req.Temperature)
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return models.Completion{}, fmt.Errorf("%s chat completion: %w", p.name, describe(err))
	}
	if len(resp.Choices) == 0 {
		return models.Completion{}, fmt.Errorf("%s chat completion: no choices returned", p.name)
	}
	return models.Completion{Text: resp.Choices[0].Message.Content, Model: resp.Model}, nil
}

func (p *Provider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := p.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
		Model: openai.EmbeddingModel(p.embeddingModel),
	})
	if err != nil {
		return nil, fmt.Errorf("%s embeddings: %w", p.name, describe(err))
	}
	out := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || int(d.Index) >= len(out) {
			continue
		}
		vec := make([]float32, len(d.Embedding))
		for i, v := range d.Embedding {
			vec[i] = float32(v)
		}
		out[d.Index] = vec
	}
	return out, nil
}

// describe keeps the status code of API errors in the message.
func describe(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return fmt.Errorf("status %d: %w", apiErr.StatusCode, err)
	}
	return err
}

var _ models.AIProvider = (*Provider)(nil)
