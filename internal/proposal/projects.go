package proposal

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/kiranshivaraju/compass/internal/catalog"
	"github.com/kiranshivaraju/compass/internal/vector"
	"github.com/kiranshivaraju/compass/pkg/models"
	"github.com/kiranshivaraju/compass/pkg/vectorquery"
)

const MaxSimilarProjects = 5

// ProjectSearch configures similar-project lookups against the project collection.
type ProjectSearch struct {
	Index      vector.Client
	Embedder   models.AIProvider
	Collection string
	Threshold  float64
}

// SimilarProjects returns up to MaxSimilarProjects past projects closest to
// profile, best first.
func (s *Service) SimilarProjects(ctx context.Context, profile models.ClientProfile) ([]models.SimilarProject, error) {
	if s.search.Index == nil || s.search.Embedder == nil {
		return []models.SimilarProject{}, nil
	}

	query := s.queries.BuildProfileQuery(vectorquery.ProfileParams{
		Industry:     profile.Industry,
		Description:  profile.CompanyDescription,
		Services:     profile.Services,
		Technologies: profile.TechStack,
		CompanySize:  profile.CompanySize,
	})
	embeddings, err := s.search.Embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embedding profile query: %w", err)
	}
	if len(embeddings) != 1 {
		return nil, fmt.Errorf("embedding profile query: got %d vectors", len(embeddings))
	}

	matches, err := s.search.Index.Query(ctx, s.collection(), embeddings[0], MaxSimilarProjects)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", s.collection(), err)
	}
	return s.rankProjects(matches, profile.Industry), nil
}

func (s *Service) collection() string {
	if s.search.Collection == "" {
		return "projects"
	}
	return s.search.Collection
}

// rankProjects applies the priority-industry boost and the threshold.
func (s *Service) rankProjects(matches []vector.Match, industry string) []models.SimilarProject {
	boost := s.catalog.PriorityBoost(industry)
	out := make([]models.SimilarProject, 0, len(matches))
	for _, m := range matches {
		p := vector.ProjectFromMatch(m)
		sim := vector.Similarity(m.Distance)
		if boost > 1 && catalog.NormalizeKey(p.IndustryVertical) == catalog.NormalizeKey(industry) {
			sim = math.Min(1, sim*boost)
		}
		if sim < s.search.Threshold {
			continue
		}
		out = append(out, models.SimilarProject{Project: p, Similarity: math.Round(sim*1000) / 1000})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Similarity > out[j].Similarity })
	if len(out) > MaxSimilarProjects {
		out = out[:MaxSimilarProjects]
	}
	return out
}
