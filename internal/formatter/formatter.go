// Package formatter prepares a blueprint for display in English or Arabic.
package formatter

import (
	"math"
	"sort"

	"github.com/kiranshivaraju/compass/internal/catalog"
	"github.com/kiranshivaraju/compass/pkg/budget"
	"github.com/kiranshivaraju/compass/pkg/models"
)

const (
	DirectionLTR = "ltr"
	DirectionRTL = "rtl"
)

// FormattedBlueprint is a blueprint laid out for one display language.
type FormattedBlueprint struct {
	BlueprintID      string                         `json:"blueprint_id"`
	Language         string                         `json:"language"`
	Direction        string                         `json:"direction"`
	RTL              bool                           `json:"rtl"`
	Title            string                         `json:"title"`
	ProjectName      string                         `json:"project_name"`
	Overview         Overview                       `json:"overview"`
	Sections         []Section                      `json:"sections"`
	Labels           map[string]string              `json:"labels"`
	Phases           []Phase                        `json:"phases"`
	Services         []models.ServiceRecommendation `json:"services"`
	Agencies         []ShowcaseGroup                `json:"agencies"`
	Competitors      []models.Competitor            `json:"competitors"`
	Vendors          []models.Vendor                `json:"vendors"`
	NextSteps        []string                       `json:"next_steps"`
	BudgetEstimate   string                         `json:"budget_estimate"`
	TimelineEstimate string                         `json:"timeline_estimate"`
	Chart            Chart                          `json:"chart"`
	AnalysisSource   string                         `json:"analysis_source"`
	GeneratedAt      string                         `json:"generated_at"`
}

// Overview summarizes the business analysis.
type Overview struct {
	Description  string `json:"description"`
	ClientName   string `json:"client_name,omitempty"`
	Location     string `json:"location"`
	Category     string `json:"business_category"`
	TargetMarket string `json:"target_market"`
	LaunchMode   string `json:"launch_mode"`
	Complexity   string `json:"complexity"`
	BudgetTier   string `json:"budget_tier"`
}

// Section is a titled, iconed heading in display order.
type Section struct {
	Key   string `json:"key"`
	Title string `json:"title"`
	Icon  string `json:"icon"`
}

// Phase is a numbered project phase.
type Phase struct {
	Number int `json:"number"`
	models.ProjectPhase
}

// ShowcaseGroup lists the matched agencies for one service.
type ShowcaseGroup struct {
	Service     string               `json:"service"`
	ServiceName string               `json:"service_name"`
	Matches     []models.MatchResult `json:"matches"`
}

// Chart is bar-chart data: one point per phase and the total.
type Chart struct {
	Points []ChartPoint `json:"points"`
	Total  ChartPoint   `json:"total"`
}

type ChartPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// Formatter lays out blueprints. Output depends only on its inputs.
type Formatter struct {
	catalog *catalog.Catalog
}

func New(cat *catalog.Catalog) *Formatter {
	return &Formatter{catalog: cat}
}

// Format lays bp out for language. Unknown languages fall back to English.
func (f *Formatter) Format(bp models.Blueprint, language string) FormattedBlueprint {
	lang, loc := localeFor(language)

	direction := DirectionLTR
	if loc.rtl {
		direction = DirectionRTL
	}

	sections := make([]Section, 0, len(sectionOrder))
	for _, key := range sectionOrder {
		sections = append(sections, Section{Key: key, Title: loc.sections[key], Icon: icons[key]})
	}

	labels := make(map[string]string, len(loc.labels))
	for k, v := range loc.labels {
		labels[k] = v
	}

	phases := make([]Phase, len(bp.Phases))
	for i, ph := range bp.Phases {
		phases[i] = Phase{Number: i + 1, ProjectPhase: ph}
	}

	nextSteps := make([]string, len(bp.NextSteps))
	for i, step := range bp.NextSteps {
		if t, ok := loc.nextSteps[step]; ok {
			step = t
		}
		nextSteps[i] = step
	}

	return FormattedBlueprint{
		BlueprintID: bp.ID,
		Language:    lang,
		Direction:   direction,
		RTL:         loc.rtl,
		Title:       loc.title,
		ProjectName: bp.Analysis.ProjectName,
		Overview: Overview{
			Description:  bp.Input.Description,
			ClientName:   bp.Input.ClientName,
			Location:     bp.Input.Location,
			Category:     bp.Analysis.BusinessCategory,
			TargetMarket: bp.Analysis.TargetMarket,
			LaunchMode:   bp.Analysis.LaunchMode,
			Complexity:   bp.Analysis.Complexity,
			BudgetTier:   bp.Analysis.BudgetTier,
		},
		Sections:         sections,
		Labels:           labels,
		Phases:           phases,
		Services:         nonNil(bp.ServiceRecommendations),
		Agencies:         f.showcase(bp.AgencyShowcase),
		Competitors:      nonNil(bp.Competitors),
		Vendors:          nonNil(bp.ExternalVendors),
		NextSteps:        nextSteps,
		BudgetEstimate:   bp.BudgetEstimate,
		TimelineEstimate: bp.TimelineEstimate,
		Chart:            chart(bp.Phases, loc.totalLabel),
		AnalysisSource:   bp.AnalysisSource,
		GeneratedAt:      bp.GeneratedAt.UTC().Format("2006-01-02 15:04 UTC"),
	}
}

// showcase flattens the service map in sorted key order.
func (f *Formatter) showcase(m map[string][]models.MatchResult) []ShowcaseGroup {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]ShowcaseGroup, 0, len(keys))
	for _, k := range keys {
		name := k
		if s, ok := f.catalog.Service(k); ok {
			name = s.Name
		}
		out = append(out, ShowcaseGroup{Service: k, ServiceName: name, Matches: nonNil(m[k])})
	}
	return out
}

// chart values are range midpoints; unreadable budgets chart as zero.
func chart(phases []models.ProjectPhase, totalLabel string) Chart {
	points := make([]ChartPoint, len(phases))
	var total float64
	for i, ph := range phases {
		v, _ := budget.Midpoint(ph.BudgetRange)
		v = math.Round(v)
		points[i] = ChartPoint{Label: ph.Name, Value: v}
		total += v
	}
	return Chart{Points: points, Total: ChartPoint{Label: totalLabel, Value: total}}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
