// Package blueprint assembles, stores and serves business blueprints.
package blueprint

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/kiranshivaraju/compass/internal/catalog"
	"github.com/kiranshivaraju/compass/pkg/budget"
	"github.com/kiranshivaraju/compass/pkg/models"
)

// MaxServiceRecommendations caps the service list on a blueprint.
const MaxServiceRecommendations = 5

const maxMatchesPerService = 3

// Parts are the pipeline outputs an Assembler combines.
type Parts struct {
	Input       models.ProjectInput
	Analysis    models.AnalysisResult
	Matches     map[string][]models.MatchResult
	Competitors []models.Competitor
	Vendors     []models.Vendor
}

// Assembler builds blueprints from pipeline outputs. It performs no I/O.
type Assembler struct {
	catalog *catalog.Catalog
	now     func() time.Time
	newID   IDSource
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithClock sets the generation clock.
func WithClock(now func() time.Time) Option {
	return func(a *Assembler) { a.now = now }
}

// WithIDSource sets the blueprint id generator.
func WithIDSource(src IDSource) Option {
	return func(a *Assembler) { a.newID = src }
}

func NewAssembler(cat *catalog.Catalog, opts ...Option) *Assembler {
	a := &Assembler{catalog: cat, now: time.Now, newID: NewID}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Assemble combines the parts into a blueprint. A matching industry template
// supplies phases, budget and timeline verbatim. Model phases only replace
// the default template's.
func (a *Assembler) Assemble(p Parts) models.Blueprint {
	analysis := p.Analysis.Analysis()
	if len(analysis.RequiredServices) == 0 {
		analysis.RequiredServices = append([]string(nil), models.DefaultServices...)
	}

	tmpl := a.catalog.SelectTemplate(strings.TrimSpace(p.Input.Description + " " + p.Input.BusinessType))
	phases := tmpl.Phases
	if tmpl.Key == a.catalog.DefaultTemplate.Key && len(analysis.Phases) > 0 {
		phases = analysis.Phases
	}
	phases = append([]models.ProjectPhase(nil), phases...)

	budgetEstimate := tmpl.BudgetEstimate
	if budgetEstimate == "" {
		budgetEstimate = a.catalog.BudgetForTier(analysis.BudgetTier)
	}
	timeline := tmpl.TimelineEstimate
	if timeline == "" {
		timeline = a.timeline(phases)
	}

	now := a.now().UTC()
	return models.Blueprint{
		ID:                     a.newID(now),
		Input:                  p.Input,
		Analysis:               analysis,
		AnalysisSource:         p.Analysis.Source(),
		TemplateKey:            tmpl.Key,
		Phases:                 phases,
		ServiceRecommendations: a.recommendations(analysis.RequiredServices),
		AgencyShowcase:         showcase(p.Matches),
		Competitors:            nonNil(p.Competitors),
		ExternalVendors:        nonNil(p.Vendors),
		NextSteps:              append([]string(nil), a.catalog.NextSteps...),
		BudgetEstimate:         budgetEstimate,
		TimelineEstimate:       timeline,
		GeneratedAt:            now,
	}
}

// timeline sums the phase durations. Any unreadable duration makes the
// total unknown.
func (a *Assembler) timeline(phases []models.ProjectPhase) string {
	total := 0
	for _, ph := range phases {
		w, ok := budget.Weeks(ph.Duration)
		if !ok {
			return a.catalog.DefaultTimeline
		}
		total += w
	}
	if total == 0 {
		return a.catalog.DefaultTimeline
	}
	return fmt.Sprintf("%d weeks", total)
}

func (a *Assembler) recommendations(services []string) []models.ServiceRecommendation {
	out := make([]models.ServiceRecommendation, 0, len(services))
	for _, key := range services {
		if s, ok := a.catalog.Service(key); ok {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PriorityScore > out[j].PriorityScore
	})
	if len(out) > MaxServiceRecommendations {
		out = out[:MaxServiceRecommendations]
	}
	return out
}

func showcase(matches map[string][]models.MatchResult) map[string][]models.MatchResult {
	out := make(map[string][]models.MatchResult, len(matches))
	for svc, list := range matches {
		if len(list) > maxMatchesPerService {
			list = list[:maxMatchesPerService]
		}
		out[svc] = append([]models.MatchResult(nil), list...)
	}
	return out
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
