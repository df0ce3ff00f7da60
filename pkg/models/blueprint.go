package models

import "time"

// ProjectPhase is one stage of a project plan.
type ProjectPhase struct {
	Name                    string   `json:"name"                     yaml:"name"`
	Objective               string   `json:"objective"                yaml:"objective"`
	Deliverables            []string `json:"deliverables"             yaml:"deliverables"`
	CreativeRecommendations []string `json:"creative_recommendations" yaml:"creative_recommendations"`
	Duration                string   `json:"duration"                 yaml:"duration"`
	BudgetRange             string   `json:"budget_range"             yaml:"budget_range"`
}

// ServiceRecommendation describes one service line suggested for the project.
type ServiceRecommendation struct {
	Key           string `json:"key"            yaml:"key"`
	Name          string `json:"name"           yaml:"name"`
	Description   string `json:"description"    yaml:"description"`
	EstimatedCost string `json:"estimated_cost" yaml:"estimated_cost"`
	Timeline      string `json:"timeline"       yaml:"timeline"`
	PriorityScore int    `json:"priority_score" yaml:"priority_score"`
}

// Blueprint is the aggregate business plan returned to callers and kept in
// the blueprint store.
type Blueprint struct {
	ID                     string                   `json:"blueprint_id"`
	Input                  ProjectInput             `json:"input"`
	Analysis               BusinessAnalysis         `json:"analysis"`
	AnalysisSource         string                   `json:"analysis_source"`
	TemplateKey            string                   `json:"template"`
	Phases                 []ProjectPhase           `json:"phases"`
	ServiceRecommendations []ServiceRecommendation  `json:"service_recommendations"`
	AgencyShowcase         map[string][]MatchResult `json:"agency_showcase"`
	Competitors            []Competitor             `json:"competitors"`
	ExternalVendors        []Vendor                 `json:"external_vendors"`
	NextSteps              []string                 `json:"next_steps"`
	BudgetEstimate         string                   `json:"budget_estimate"`
	TimelineEstimate       string                   `json:"timeline_estimate"`
	GeneratedAt            time.Time                `json:"generated_at"`
}
