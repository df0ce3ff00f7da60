package models

import "time"

// Availability values recognised by the scorer.
const AvailabilityImmediate = "immediate"

// Competitor types.
const (
	CompetitorDirect        = "Direct"
	CompetitorAdjacent      = "Adjacent"
	CompetitorInspirational = "Inspirational"
)

// AgencyRecord is read-only reference data describing a delivery partner.
type AgencyRecord struct {
	ID                string     `db:"id"                  json:"id"                  yaml:"id"`
	Name              string     `db:"name"                json:"name"                yaml:"name"`
	ServiceLines      []string   `db:"service_lines"       json:"service_lines"       yaml:"service_lines"`
	Strengths         []string   `db:"key_strengths"       json:"key_strengths"       yaml:"key_strengths"`
	Experience        string     `db:"relevant_experience" json:"relevant_experience" yaml:"relevant_experience"`
	Availability      string     `db:"availability"        json:"availability"        yaml:"availability"`
	BudgetComfortZone string     `db:"budget_comfort_zone" json:"budget_comfort_zone" yaml:"budget_comfort_zone"`
	IndustryExpertise []string   `db:"industry_expertise"  json:"industry_expertise"  yaml:"industry_expertise"`
	Location          string     `db:"location"            json:"location"            yaml:"location"`
	Specialization    string     `db:"specialization"      json:"specialization,omitempty"   yaml:"specialization"`
	NotableClients    []string   `db:"notable_clients"     json:"notable_clients,omitempty"  yaml:"notable_clients"`
	Awards            []string   `db:"awards"              json:"awards,omitempty"           yaml:"awards"`
	UniqueApproach    string     `db:"unique_approach"     json:"unique_approach,omitempty"  yaml:"unique_approach"`
	DeletedAt         *time.Time `db:"deleted_at"          json:"-"                   yaml:"-"`
}

// MatchResult is an agency scored against one request.
type MatchResult struct {
	Agency     AgencyRecord `json:"agency"`
	MatchScore int          `json:"match_score"`
	WhyChoose  string       `json:"why_choose"`
}

// Competitor is a market reference shown on a blueprint.
type Competitor struct {
	Name         string `json:"name"              yaml:"name"`
	Location     string `json:"location"          yaml:"location"`
	Industry     string `json:"industry"          yaml:"industry"`
	Type         string `json:"type"              yaml:"type"`
	Website      string `json:"website,omitempty" yaml:"website"`
	MarketLeader bool   `json:"-"                 yaml:"market_leader"`
	SimilarSize  bool   `json:"-"                 yaml:"similar_size"`
}

// Vendor is a non-agency supplier (packaging, manufacturing) relevant to physical products.
type Vendor struct {
	Name     string `json:"name"     yaml:"name"`
	Category string `json:"category" yaml:"category"`
	Location string `json:"location" yaml:"location"`
}

// ClampScore bounds a match score to [0,100].
func ClampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
