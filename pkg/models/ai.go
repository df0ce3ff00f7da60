// Package models contains shared data models used across the Compass codebase.
package models

import "context"

// AIProvider is the core interface that all language-model integrations must implement.
// Never call specific AI providers directly; inject this interface.
type AIProvider interface {
	// Generate sends a single prompt and returns the model's text reply.
	Generate(ctx context.Context, req CompletionRequest) (Completion, error)
	// Embed returns one embedding vector per input text, in input order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	// Name returns the provider identifier (e.g., "gemini", "openai").
	Name() string
}

// CompletionRequest is the input to a single text generation call.
type CompletionRequest struct {
	System      string
	Prompt      string
	JSON        bool // ask the provider for a JSON-only reply where supported
	MaxTokens   int
	Temperature float64
}

// Completion is the text returned by a provider.
type Completion struct {
	Text  string
	Model string
}
