package blueprint

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kiranshivaraju/compass/internal/analyzer"
	"github.com/kiranshivaraju/compass/internal/catalog"
	"github.com/kiranshivaraju/compass/internal/matcher"
	"github.com/kiranshivaraju/compass/internal/metrics"
	"github.com/kiranshivaraju/compass/pkg/models"
)

// Analyzer is the analysis step of the pipeline.
type Analyzer interface {
	Analyze(ctx context.Context, description string, c analyzer.Context) (models.AnalysisResult, error)
}

// Service runs the blueprint pipeline: analyze, match, assemble, store.
type Service struct {
	analyzer  Analyzer
	matcher   matcher.Matcher
	assembler *Assembler
	store     Store
	catalog   *catalog.Catalog
}

func NewService(a Analyzer, m matcher.Matcher, asm *Assembler, store Store, cat *catalog.Catalog) *Service {
	return &Service{analyzer: a, matcher: m, assembler: asm, store: store, catalog: cat}
}

// Generate builds and stores a blueprint for input. The only input error
// is analyzer.ErrEmptyDescription; upstream model and index failures are
// absorbed by the analyzer and matcher.
func (s *Service) Generate(ctx context.Context, input models.ProjectInput) (models.Blueprint, error) {
	input = input.WithDefaults()

	result, err := s.analyzer.Analyze(ctx, input.Description, analyzer.Context{
		Industry: input.BusinessType,
		Location: input.Location,
		Budget:   input.Budget,
		Timeline: input.Timeline,
	})
	if err != nil {
		return models.Blueprint{}, err
	}
	analysis := result.Analysis()

	industry := analysis.BusinessCategory
	if industry == "" {
		industry = input.BusinessType
	}

	matches := s.matcher.FindMatches(ctx, matcher.Request{
		Services:    analysis.RequiredServices,
		Industry:    industry,
		Tier:        analysis.BudgetTier,
		Location:    input.Location,
		Description: input.Description,
	})
	competitors := matcher.Competitors(s.catalog, industry)
	vendors := matcher.Vendors(s.catalog, industry)

	if err := ctx.Err(); err != nil {
		return models.Blueprint{}, err
	}

	bp := s.assembler.Assemble(Parts{
		Input:       input,
		Analysis:    result,
		Matches:     matches,
		Competitors: competitors,
		Vendors:     vendors,
	})
	if err := s.store.Save(ctx, bp); err != nil {
		return models.Blueprint{}, fmt.Errorf("storing blueprint: %w", err)
	}

	metrics.BlueprintsGenerated.Inc()
	slog.Info("blueprint generated",
		"blueprint_id", bp.ID,
		"analysis_source", bp.AnalysisSource,
		"template", bp.TemplateKey,
		"matcher", s.matcher.Name(),
	)
	return bp, nil
}

// Get returns a stored blueprint or ErrNotFound.
func (s *Service) Get(ctx context.Context, id string) (models.Blueprint, error) {
	return s.store.Get(ctx, id)
}

// Ping checks the blueprint store.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}
