// Package analyzer turns a free-text business idea into a BusinessAnalysis,
// using the language model when it answers well and a deterministic local
// generator when it does not.
package analyzer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kiranshivaraju/compass/internal/catalog"
	"github.com/kiranshivaraju/compass/internal/metrics"
	"github.com/kiranshivaraju/compass/pkg/models"
)

var (
	ErrEmptyDescription = errors.New("business description is required")
	ErrNoObject         = errors.New("model reply contains no JSON object")
	ErrSchema           = errors.New("model reply does not match the analysis schema")
)

// Context is the optional structured input that accompanies a description.
type Context struct {
	Industry string
	Location string
	Budget   string
	Timeline string
}

// Analyzer produces business analyses. It is safe for concurrent use.
type Analyzer struct {
	provider models.AIProvider
	catalog  *catalog.Catalog
}

func New(provider models.AIProvider, cat *catalog.Catalog) *Analyzer {
	return &Analyzer{provider: provider, catalog: cat}
}

// Analyze returns models.Parsed when the model reply decodes and validates,
// and models.Fallback otherwise. The only error is ErrEmptyDescription.
func (a *Analyzer) Analyze(ctx context.Context, description string, c Context) (models.AnalysisResult, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, ErrEmptyDescription
	}

	fallback := Generate(a.catalog, description, c)

	completion, err := a.provider.Generate(ctx, models.CompletionRequest{
		System:      systemPrompt,
		Prompt:      buildPrompt(description, c, a.catalog.ServiceKeys()),
		JSON:        true,
		MaxTokens:   2048,
		Temperature: 0.7,
	})
	if err != nil {
		return a.fallback(fallback, fmt.Errorf("calling %s: %w", a.provider.Name(), err)), nil
	}

	parsed, err := a.parse(completion.Text, fallback)
	if err != nil {
		return a.fallback(fallback, err), nil
	}

	metrics.AnalysisSource.WithLabelValues(models.SourceModel).Inc()
	return models.Parsed{Value: parsed, Model: completion.Model}, nil
}

func (a *Analyzer) fallback(v models.BusinessAnalysis, reason error) models.Fallback {
	slog.Warn("business analysis fell back to local generator", "error", reason, "project_name", v.ProjectName)
	metrics.AnalysisSource.WithLabelValues(models.SourceFallback).Inc()
	return models.Fallback{Value: v, Reason: reason}
}

// parse extracts, validates and decodes the model reply. Blank optional
// fields are filled from the local analysis of the same input.
func (a *Analyzer) parse(reply string, local models.BusinessAnalysis) (models.BusinessAnalysis, error) {
	obj, ok := ExtractObject(reply)
	if !ok {
		return models.BusinessAnalysis{}, ErrNoObject
	}
	if err := validate(obj); err != nil {
		return models.BusinessAnalysis{}, err
	}

	var v models.BusinessAnalysis
	if err := json.Unmarshal([]byte(obj), &v); err != nil {
		return models.BusinessAnalysis{}, fmt.Errorf("decoding analysis: %w", err)
	}

	v.ProjectName = strings.TrimSpace(v.ProjectName)
	v.BusinessCategory = catalog.NormalizeKey(v.BusinessCategory)
	if v.BusinessCategory == "" {
		v.BusinessCategory = local.BusinessCategory
	}
	v.RequiredServices = a.knownServices(v.RequiredServices)
	if len(v.RequiredServices) == 0 {
		v.RequiredServices = local.RequiredServices
	}
	v.BudgetTier = normalizeTier(v.BudgetTier)
	if v.BudgetTier == "" {
		v.BudgetTier = local.BudgetTier
	}
	if strings.TrimSpace(v.TargetMarket) == "" {
		v.TargetMarket = local.TargetMarket
	}
	if strings.TrimSpace(v.LaunchMode) == "" {
		v.LaunchMode = local.LaunchMode
	}
	if strings.TrimSpace(v.Complexity) == "" {
		v.Complexity = local.Complexity
	}
	return v, nil
}

// knownServices normalizes keys, drops unknown ones and deduplicates.
func (a *Analyzer) knownServices(in []string) []string {
	keys := make([]string, 0, len(in))
	for _, s := range in {
		k := catalog.NormalizeKey(s)
		if _, ok := a.catalog.Service(k); ok {
			keys = append(keys, k)
		}
	}
	return models.DedupeStrings(keys)
}

func normalizeTier(t string) string {
	switch strings.ToLower(strings.TrimSpace(t)) {
	case "starter":
		return models.TierStarter
	case "growth":
		return models.TierGrowth
	case "enterprise":
		return models.TierEnterprise
	default:
		return ""
	}
}
