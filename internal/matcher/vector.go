package matcher

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/kiranshivaraju/compass/internal/catalog"
	"github.com/kiranshivaraju/compass/internal/metrics"
	"github.com/kiranshivaraju/compass/internal/vector"
	"github.com/kiranshivaraju/compass/pkg/models"
	"github.com/kiranshivaraju/compass/pkg/vectorquery"
)

const defaultCandidates = 10

// VectorDeps wires the vector matcher.
type VectorDeps struct {
	Index      vector.Client
	Embedder   models.AIProvider
	Collection string
	Threshold  float64
	Candidates int
}

// Vector ranks agencies by embedding similarity against the agency collection.
type Vector struct {
	catalog *catalog.Catalog
	deps    VectorDeps
	queries vectorquery.QueryBuilder
}

func NewVector(cat *catalog.Catalog, deps VectorDeps) *Vector {
	if deps.Candidates < 1 {
		deps.Candidates = defaultCandidates
	}
	if deps.Collection == "" {
		deps.Collection = "agencies"
	}
	return &Vector{catalog: cat, deps: deps}
}

func (v *Vector) Name() string { return "vector" }

// FindMatches embeds one query per service and keeps the closest agencies.
// Any index or embedding failure yields the default showcase.
func (v *Vector) FindMatches(ctx context.Context, req Request) map[string][]models.MatchResult {
	out, err := v.find(ctx, req)
	if err != nil {
		slog.Warn("vector agency match failed, using default agencies",
			"error", err,
			"industry", req.Industry,
			"services", req.Services,
		)
		metrics.MatchStrategy.WithLabelValues(v.Name(), "default").Inc()
		return DefaultShowcase(v.catalog, req)
	}
	metrics.MatchStrategy.WithLabelValues(v.Name(), "ok").Inc()
	return out
}

func (v *Vector) find(ctx context.Context, req Request) (map[string][]models.MatchResult, error) {
	keys := make([]string, 0, len(req.Services))
	seen := make(map[string]bool, len(req.Services))
	for _, s := range req.Services {
		k := catalog.NormalizeKey(s)
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		keys = append(keys, k)
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("no services to match")
	}

	texts := make([]string, len(keys))
	for i, k := range keys {
		texts[i] = v.queries.BuildAgencyQuery(vectorquery.AgencyParams{
			Service:     k,
			Industry:    req.Industry,
			Description: req.Description,
		})
	}
	embeddings, err := v.deps.Embedder.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embedding agency queries: %w", err)
	}
	if len(embeddings) != len(keys) {
		return nil, fmt.Errorf("embedding agency queries: got %d vectors for %d texts", len(embeddings), len(keys))
	}

	out := make(map[string][]models.MatchResult, len(keys))
	for i, k := range keys {
		matches, err := v.deps.Index.Query(ctx, v.deps.Collection, embeddings[i], v.deps.Candidates)
		if err != nil {
			return nil, fmt.Errorf("querying %s for %s: %w", v.deps.Collection, k, err)
		}
		out[k] = rank(v.score(matches, req.Industry))
	}
	return out, nil
}

// score converts index matches to results, applying the priority-industry
// boost and the similarity threshold. Order follows the index.
func (v *Vector) score(matches []vector.Match, industry string) []models.MatchResult {
	boost := v.catalog.PriorityBoost(industry)
	seen := make(map[string]bool, len(matches))
	results := make([]models.MatchResult, 0, len(matches))
	for _, m := range matches {
		a := vector.AgencyFromMatch(m)
		if seen[a.ID] {
			continue
		}
		sim := vector.Similarity(m.Distance)
		if boost > 1 && hasExpertise(a, industry) {
			sim = math.Min(1, sim*boost)
		}
		if sim < v.deps.Threshold {
			continue
		}
		seen[a.ID] = true
		results = append(results, result(a, int(math.Round(sim*100))))
	}
	return results
}
