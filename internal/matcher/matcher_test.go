package matcher_test

import (
	"context"
	"errors"
	"testing"

	"github.com/kiranshivaraju/compass/internal/ai/mock"
	"github.com/kiranshivaraju/compass/internal/catalog"
	"github.com/kiranshivaraju/compass/internal/matcher"
	"github.com/kiranshivaraju/compass/internal/vector"
	"github.com/kiranshivaraju/compass/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertRanked(t *testing.T, results []models.MatchResult) {
	t.Helper()
	assert.LessOrEqual(t, len(results), matcher.MaxPerService)
	for i, r := range results {
		assert.GreaterOrEqual(t, r.MatchScore, 0)
		assert.LessOrEqual(t, r.MatchScore, 100)
		assert.NotEmpty(t, r.WhyChoose)
		if i > 0 {
			assert.GreaterOrEqual(t, results[i-1].MatchScore, r.MatchScore)
		}
	}
}

// --- why_choose ---

func TestWhyChoose(t *testing.T) {
	tests := []struct {
		name   string
		agency models.AgencyRecord
		want   string
	}{
		{"specialization first", models.AgencyRecord{Specialization: "retail", NotableClients: []string{"Noon"}}, "Specialists in retail"},
		{"notable client", models.AgencyRecord{NotableClients: []string{"Noon", "Careem"}, Awards: []string{"Gold"}}, "Trusted by Noon"},
		{"award", models.AgencyRecord{Awards: []string{"Cannes Lion"}}, "Award-winning Cannes Lion"},
		{"unique approach", models.AgencyRecord{UniqueApproach: "Local first"}, "Local first"},
		{"nothing", models.AgencyRecord{}, "Proven expertise in your industry"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, matcher.WhyChoose(tt.agency))
		})
	}
}

// --- static ---

func TestStatic_FindMatches(t *testing.T) {
	m := matcher.NewStatic(catalog.MustLoad())
	req := matcher.Request{
		Services: []string{"web_development", "Brand Identity", "web_development"},
		Industry: "retail",
		Tier:     models.TierGrowth,
		Location: "Dubai",
	}

	got := m.FindMatches(context.Background(), req)
	require.Len(t, got, 2)
	require.Contains(t, got, "web_development")
	require.Contains(t, got, "brand_identity")
	for _, results := range got {
		require.NotEmpty(t, results)
		assertRanked(t, results)
	}
	assert.Equal(t, "static", m.Name())
}

func TestStatic_Deterministic(t *testing.T) {
	m := matcher.NewStatic(catalog.MustLoad())
	req := matcher.Request{Services: []string{"digital_marketing"}, Industry: "perfume", Tier: models.TierStarter}

	first := m.FindMatches(context.Background(), req)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, m.FindMatches(context.Background(), req))
	}
}

func TestStatic_UnknownServiceOmitted(t *testing.T) {
	m := matcher.NewStatic(catalog.MustLoad())

	got := m.FindMatches(context.Background(), matcher.Request{Services: []string{"web_development", "time_travel"}})
	assert.Contains(t, got, "web_development")
	assert.NotContains(t, got, "time_travel")
}

func TestStatic_NothingMatchesReturnsDefault(t *testing.T) {
	cat := catalog.MustLoad()
	m := matcher.NewStatic(cat)

	got := m.FindMatches(context.Background(), matcher.Request{Services: []string{"time_travel"}})
	require.Len(t, got, 1)
	results := got[catalog.DefaultCategory]
	require.Len(t, results, len(cat.DefaultAgencies()))
	assertRanked(t, results)
}

// --- vector ---

var queryVec = []float32{1, 0, 0}

func seed(t *testing.T, idx *vector.MemoryClient, agencies map[string][]float32, records map[string]models.AgencyRecord) {
	t.Helper()
	docs := make([]vector.Document, 0, len(agencies))
	for docID, emb := range agencies {
		rec := records[docID]
		docs = append(docs, vector.Document{
			ID:        docID,
			Embedding: emb,
			Text:      rec.Name,
			Metadata:  vector.AgencyMetadata(rec),
		})
	}
	require.NoError(t, idx.Upsert(context.Background(), "agencies", docs))
}

func fixedEmbedder() *mock.MockProvider {
	p := mock.NewMockProvider()
	p.EmbedFunc = func(_ context.Context, texts []string) ([][]float32, error) {
		out := make([][]float32, len(texts))
		for i := range texts {
			out[i] = queryVec
		}
		return out, nil
	}
	return p
}

func TestVector_ScoresBySimilarity(t *testing.T) {
	idx := vector.NewMemoryClient()
	seed(t, idx,
		map[string][]float32{
			"doc-a": {1, 0, 0},  // distance 0
			"doc-b": {0, 1, 0},  // distance 1
			"doc-c": {-1, 0, 0}, // distance 2
		},
		map[string]models.AgencyRecord{
			"doc-a": {ID: "a", Name: "Alpha", Specialization: "retail apps"},
			"doc-b": {ID: "b", Name: "Beta"},
			"doc-c": {ID: "c", Name: "Gamma"},
		},
	)
	m := matcher.NewVector(catalog.MustLoad(), matcher.VectorDeps{
		Index:     idx,
		Embedder:  fixedEmbedder(),
		Threshold: 0.05,
	})

	got := m.FindMatches(context.Background(), matcher.Request{Services: []string{"web_development"}, Industry: "perfume"})
	results := got["web_development"]
	require.Len(t, results, 2, "zero-similarity agency is dropped")
	assert.Equal(t, "a", results[0].Agency.ID)
	assert.Equal(t, 100, results[0].MatchScore)
	assert.Equal(t, "Specialists in retail apps", results[0].WhyChoose)
	assert.Equal(t, "b", results[1].Agency.ID)
	assert.Equal(t, 50, results[1].MatchScore)
}

func TestVector_PriorityIndustryBoost(t *testing.T) {
	idx := vector.NewMemoryClient()
	seed(t, idx,
		map[string][]float32{
			"doc-a": {0, 1, 0},
			"doc-b": {0, 0, 1},
		},
		map[string]models.AgencyRecord{
			"doc-a": {ID: "a", Name: "Alpha", IndustryExpertise: []string{"Healthcare"}},
			"doc-b": {ID: "b", Name: "Beta", IndustryExpertise: []string{"fashion"}},
		},
	)
	m := matcher.NewVector(catalog.MustLoad(), matcher.VectorDeps{Index: idx, Embedder: fixedEmbedder(), Threshold: 0.05})

	results := m.FindMatches(context.Background(), matcher.Request{Services: []string{"web_development"}, Industry: "healthcare"})["web_development"]
	require.Len(t, results, 2)
	assert.Equal(t, "a", results[0].Agency.ID)
	assert.Equal(t, 75, results[0].MatchScore)
	assert.Equal(t, 50, results[1].MatchScore)
}

func TestVector_DeduplicatesByAgency(t *testing.T) {
	idx := vector.NewMemoryClient()
	seed(t, idx,
		map[string][]float32{
			"doc-1": {1, 0, 0},
			"doc-2": {1, 0.1, 0},
		},
		map[string]models.AgencyRecord{
			"doc-1": {ID: "same", Name: "Alpha"},
			"doc-2": {ID: "same", Name: "Alpha"},
		},
	)
	m := matcher.NewVector(catalog.MustLoad(), matcher.VectorDeps{Index: idx, Embedder: fixedEmbedder()})

	results := m.FindMatches(context.Background(), matcher.Request{Services: []string{"brand_identity"}})["brand_identity"]
	require.Len(t, results, 1)
	assert.Equal(t, "same", results[0].Agency.ID)
}

func TestVector_CapsAtThree(t *testing.T) {
	idx := vector.NewMemoryClient()
	embs := map[string][]float32{}
	recs := map[string]models.AgencyRecord{}
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		embs["doc-"+id] = []float32{1, 0, 0}
		recs["doc-"+id] = models.AgencyRecord{ID: id, Name: id}
	}
	seed(t, idx, embs, recs)
	m := matcher.NewVector(catalog.MustLoad(), matcher.VectorDeps{Index: idx, Embedder: fixedEmbedder()})

	got := m.FindMatches(context.Background(), matcher.Request{Services: []string{"web_development", "digital_marketing"}})
	require.Len(t, got, 2)
	for _, results := range got {
		assert.Len(t, results, matcher.MaxPerService)
		assertRanked(t, results)
	}
}

func TestVector_IndexUnreachableReturnsDefault(t *testing.T) {
	cat := catalog.MustLoad()
	idx := vector.NewMemoryClient()
	idx.Err = vector.ErrUnreachable
	m := matcher.NewVector(cat, matcher.VectorDeps{Index: idx, Embedder: fixedEmbedder()})

	got := m.FindMatches(context.Background(), matcher.Request{Services: []string{"web_development"}, Industry: "retail"})
	require.Len(t, got, 1)
	results := got[catalog.DefaultCategory]
	require.Len(t, results, 3)
	var ids []string
	for _, r := range results {
		ids = append(ids, r.Agency.ID)
	}
	assert.ElementsMatch(t, []string{"agency_1", "agency_2", "agency_4"}, ids)
}

func TestVector_EmbeddingFailureReturnsDefault(t *testing.T) {
	m := matcher.NewVector(catalog.MustLoad(), matcher.VectorDeps{
		Index:    vector.NewMemoryClient(),
		Embedder: mock.NewFailingProvider(errors.New("embedding service down")),
	})

	got := m.FindMatches(context.Background(), matcher.Request{Services: []string{"web_development"}})
	assert.Contains(t, got, catalog.DefaultCategory)
}

func TestNew_SelectsStrategy(t *testing.T) {
	cat := catalog.MustLoad()
	deps := matcher.VectorDeps{Index: vector.NewMemoryClient(), Embedder: fixedEmbedder()}

	assert.Equal(t, "static", matcher.New("static", cat, deps).Name())
	assert.Equal(t, "vector", matcher.New("vector", cat, deps).Name())
	assert.Equal(t, "static", matcher.New("vector", cat, matcher.VectorDeps{}).Name())
}

// --- competitors and vendors ---

func TestCompetitors_TopThree(t *testing.T) {
	cat := catalog.MustLoad()

	got := matcher.Competitors(cat, "perfume")
	require.Len(t, got, 3)
	assert.Equal(t, "Swiss Arabian", got[0].Name)
	assert.Equal(t, models.CompetitorInspirational, got[0].Type)

	general := matcher.Competitors(cat, "quantum knitting")
	assert.Equal(t, "Competitor A", general[0].Name)
}

func TestVendors(t *testing.T) {
	cat := catalog.MustLoad()

	assert.NotEmpty(t, matcher.Vendors(cat, "Perfume"))
	assert.Empty(t, matcher.Vendors(cat, "technology"))
}
