package ai

import (
	"context"
	"hash/fnv"
	"math"
	"strings"

	"github.com/kiranshivaraju/compass/pkg/models"
)

// EmbeddingDims is the vector width produced by HashEmbedding.
const EmbeddingDims = 64

// Offline is a provider for running without model credentials. Generate
// always fails, which sends analysis down the keyword fallback; Embed
// returns deterministic bag-of-words hash vectors, which keeps vector
// matching usable in development.
type Offline struct{}

func (Offline) Name() string { return "offline" }

func (Offline) Generate(_ context.Context, _ models.CompletionRequest) (models.Completion, error) {
	return models.Completion{}, ErrProviderUnavailable
}

func (Offline) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = HashEmbedding(t, EmbeddingDims)
	}
	return out, nil
}

// HashEmbedding folds the lowercased words of text into a unit vector of
// the given width. Texts sharing words land close together under cosine
// distance.
func HashEmbedding(text string, dims int) []float32 {
	vec := make([]float32, dims)
	for _, w := range strings.Fields(strings.ToLower(text)) {
		w = strings.Trim(w, ".,;:!?()[]{}\"'")
		if w == "" {
			continue
		}
		h := fnv.New32a()
		_, _ = h.Write([]byte(w))
		vec[h.Sum32()%uint32(dims)]++
	}
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vec
	}
	n := float32(math.Sqrt(norm))
	for i := range vec {
		vec[i] /= n
	}
	return vec
}

var _ models.AIProvider = Offline{}
