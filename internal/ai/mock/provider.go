package mock

import (
	"context"
	"sync"

	"github.com/kiranshivaraju/compass/internal/ai"
	"github.com/kiranshivaraju/compass/pkg/models"
)

// CannedAnalysis is the reply NewMockProvider gives to every Generate call.
const CannedAnalysis = `{
  "project_name": "Mock Venture",
  "business_category": "technology",
  "target_market": "UAE",
  "launch_mode": "Product launch",
  "required_services": ["web_development", "digital_marketing"],
  "complexity": "Medium",
  "budget_tier": "Growth"
}`

// MockProvider satisfies models.AIProvider for testing.
type MockProvider struct {
	Name_        string
	GenerateFunc func(ctx context.Context, req models.CompletionRequest) (models.Completion, error)
	EmbedFunc    func(ctx context.Context, texts []string) ([][]float32, error)

	mu       sync.Mutex
	requests []models.CompletionRequest
}

func (m *MockProvider) Name() string { return m.Name_ }

func (m *MockProvider) Generate(ctx context.Context, req models.CompletionRequest) (models.Completion, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, req)
	}
	return models.Completion{}, nil
}

// Requests returns every Generate request received so far, in order.
func (m *MockProvider) Requests() []models.CompletionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.CompletionRequest(nil), m.requests...)
}

func (m *MockProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if m.EmbedFunc != nil {
		return m.EmbedFunc(ctx, texts)
	}
	return nil, nil
}

// NewMockProvider returns a MockProvider with sensible default responses:
// a fixed analysis JSON for Generate and hash embeddings for Embed.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		Name_: "mock",
		GenerateFunc: func(_ context.Context, _ models.CompletionRequest) (models.Completion, error) {
			return models.Completion{Text: CannedAnalysis, Model: "mock-v1"}, nil
		},
		EmbedFunc: func(ctx context.Context, texts []string) ([][]float32, error) {
			return ai.Offline{}.Embed(ctx, texts)
		},
	}
}

// NewReplyProvider returns a MockProvider whose Generate always answers text.
func NewReplyProvider(text string) *MockProvider {
	p := NewMockProvider()
	p.GenerateFunc = func(_ context.Context, _ models.CompletionRequest) (models.Completion, error) {
		return models.Completion{Text: text, Model: "mock-v1"}, nil
	}
	return p
}

// NewFailingProvider returns a MockProvider that always returns the given error.
func NewFailingProvider(err error) *MockProvider {
	return &MockProvider{
		Name_: "mock-failing",
		GenerateFunc: func(_ context.Context, _ models.CompletionRequest) (models.Completion, error) {
			return models.Completion{}, err
		},
		EmbedFunc: func(_ context.Context, _ []string) ([][]float32, error) {
			return nil, err
		},
	}
}

// NewTimeoutProvider returns a MockProvider that blocks until context is cancelled.
func NewTimeoutProvider() *MockProvider {
	return &MockProvider{
		Name_: "mock-timeout",
		GenerateFunc: func(ctx context.Context, _ models.CompletionRequest) (models.Completion, error) {
			<-ctx.Done()
			return models.Completion{}, ai.ErrInferenceTimeout
		},
		EmbedFunc: func(ctx context.Context, _ []string) ([][]float32, error) {
			<-ctx.Done()
			return nil, ai.ErrInferenceTimeout
		},
	}
}

// Compile-time check that MockProvider implements AIProvider.
var _ models.AIProvider = (*MockProvider)(nil)
