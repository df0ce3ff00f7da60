package vector

import (
	"context"
	"math"
	"sort"
	"sync"
)

// MemoryClient is an in-process Client with exact cosine search. It backs
// tests and single-node development runs without a ChromaDB server.
type MemoryClient struct {
	mu          sync.RWMutex
	collections map[string]map[string]Document
	// Err, when set, is returned by every call.
	Err error
}

func NewMemoryClient() *MemoryClient {
	return &MemoryClient{collections: make(map[string]map[string]Document)}
}

func (m *MemoryClient) Ready(_ context.Context) error { return m.Err }

func (m *MemoryClient) EnsureCollection(_ context.Context, name string) (string, error) {
	if m.Err != nil {
		return "", m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.collections[name]; !ok {
		m.collections[name] = make(map[string]Document)
	}
	return name, nil
}

func (m *MemoryClient) Upsert(ctx context.Context, collection string, docs []Document) error {
	if _, err := m.EnsureCollection(ctx, collection); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range docs {
		m.collections[collection][d.ID] = d
	}
	return nil
}

func (m *MemoryClient) Query(ctx context.Context, collection string, embedding []float32, n int) ([]Match, error) {
	if _, err := m.EnsureCollection(ctx, collection); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Match, 0, len(m.collections[collection]))
	for _, d := range m.collections[collection] {
		out = append(out, Match{
			ID:       d.ID,
			Document: d.Text,
			Metadata: d.Metadata,
			Distance: cosineDistance(embedding, d.Embedding),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Distance != out[j].Distance {
			return out[i].Distance < out[j].Distance
		}
		return out[i].ID < out[j].ID
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out, nil
}

func (m *MemoryClient) Count(ctx context.Context, collection string) (int, error) {
	if _, err := m.EnsureCollection(ctx, collection); err != nil {
		return 0, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.collections[collection]), nil
}

func (m *MemoryClient) IDs(ctx context.Context, collection string) ([]string, error) {
	if _, err := m.EnsureCollection(ctx, collection); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.collections[collection]))
	for id := range m.collections[collection] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (m *MemoryClient) Delete(ctx context.Context, collection string, ids []string) error {
	if _, err := m.EnsureCollection(ctx, collection); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		delete(m.collections[collection], id)
	}
	return nil
}

func cosineDistance(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 2
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(na)*math.Sqrt(nb))
}

var _ Client = (*MemoryClient)(nil)
