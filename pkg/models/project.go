package models

import "time"

// Supported display languages.
const (
	LanguageEnglish = "en"
	LanguageArabic  = "ar"
)

const (
	DefaultLocation    = "UAE"
	DefaultInvolvement = "Do it for me"
)

// ProjectInput is the inbound description of a business idea. It is created
// from a request and consumed once by the blueprint pipeline.
type ProjectInput struct {
	Description           string `json:"business_idea"`
	ClientName            string `json:"client_name,omitempty"`
	BusinessType          string `json:"business_type,omitempty"`
	Location              string `json:"location"`
	Budget                string `json:"budget,omitempty"`
	Timeline              string `json:"timeline,omitempty"`
	InvolvementPreference string `json:"involvement_preference"`
	Objectives            string `json:"objectives,omitempty"`
	ExistingElements      string `json:"existing_elements,omitempty"`
	Language              string `json:"language"`
}

// WithDefaults fills the optional fields that have a documented default.
func (p ProjectInput) WithDefaults() ProjectInput {
	if p.Location == "" {
		p.Location = DefaultLocation
	}
	if p.InvolvementPreference == "" {
		p.InvolvementPreference = DefaultInvolvement
	}
	if p.Language == "" {
		p.Language = LanguageEnglish
	}
	return p
}

// Project is a past portfolio project, used as reference material when
// matching new clients and writing proposals.
type Project struct {
	ID               string     `db:"id"                json:"id"`
	Name             string     `db:"name"              json:"project_name"`
	Description      string     `db:"description"       json:"project_description"`
	IndustryVertical string     `db:"industry_vertical" json:"industry_vertical"`
	Technologies     []string   `db:"technologies"      json:"technologies"`
	ClientName       string     `db:"client_name"       json:"client_name,omitempty"`
	Outcome          string     `db:"outcome"           json:"outcome,omitempty"`
	DeletedAt        *time.Time `db:"deleted_at"        json:"-"`
	CreatedAt        time.Time  `db:"created_at"        json:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at"        json:"updated_at"`
}

// SimilarProject is a Project returned by a vector query, with its similarity in [0,1].
type SimilarProject struct {
	Project
	Similarity float64 `json:"similarity_score"`
}
