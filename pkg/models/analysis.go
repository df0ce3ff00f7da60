package models

// Budget tiers used by the analyzer and the estimate tables.
const (
	TierStarter    = "Starter"
	TierGrowth     = "Growth"
	TierEnterprise = "Enterprise"
)

// Analysis sources recorded on a blueprint.
const (
	SourceModel    = "model"
	SourceFallback = "fallback"
)

// DefaultServices is used whenever no service can be detected.
var DefaultServices = []string{"web_development", "digital_marketing", "brand_identity"}

// BusinessAnalysis is the structured reading of a business idea.
type BusinessAnalysis struct {
	ProjectName      string         `json:"project_name"`
	BusinessCategory string         `json:"business_category"`
	TargetMarket     string         `json:"target_market"`
	LaunchMode       string         `json:"launch_mode"`
	RequiredServices []string       `json:"required_services"`
	Complexity       string         `json:"complexity"`
	BudgetTier       string         `json:"budget_tier"`
	Phases           []ProjectPhase `json:"phases,omitempty"`
}

// AnalysisResult is either Parsed (model output decoded and validated) or
// Fallback (produced locally). Use a type switch to tell them apart.
type AnalysisResult interface {
	Analysis() BusinessAnalysis
	Source() string
}

// Parsed wraps an analysis decoded from the model's reply.
type Parsed struct {
	Value BusinessAnalysis
	Model string
}

func (p Parsed) Analysis() BusinessAnalysis { return p.Value }
func (p Parsed) Source() string             { return SourceModel }

// Fallback wraps an analysis generated deterministically from the description.
type Fallback struct {
	Value  BusinessAnalysis
	Reason error
}

func (f Fallback) Analysis() BusinessAnalysis { return f.Value }
func (f Fallback) Source() string             { return SourceFallback }

var (
	_ AnalysisResult = Parsed{}
	_ AnalysisResult = Fallback{}
)

// DedupeStrings returns values with duplicates and blanks removed, keeping first-seen order.
func DedupeStrings(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
