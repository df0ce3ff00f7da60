// Package matcher ranks delivery agencies against the services a business
// needs, either from the static catalog or from the vector index.
package matcher

import (
	"context"
	"sort"

	"github.com/kiranshivaraju/compass/internal/catalog"
	"github.com/kiranshivaraju/compass/pkg/models"
)

// MaxPerService caps the matches returned for each service.
const MaxPerService = 3

// MaxCompetitors caps the competitors shown on a blueprint.
const MaxCompetitors = 3

const defaultWhyChoose = "Proven expertise in your industry"

// Request is everything a matcher may use to rank agencies.
type Request struct {
	Services    []string
	Industry    string
	Tier        string
	Location    string
	Description string
}

// Matcher returns up to MaxPerService agencies for each requested service.
// Implementations never fail: on upstream errors they return the catalog
// default showcase under catalog.DefaultCategory.
type Matcher interface {
	FindMatches(ctx context.Context, req Request) map[string][]models.MatchResult
	Name() string
}

// New returns the matcher for a configured strategy name. Anything other
// than "static" needs a vector client and an embedding provider.
func New(strategy string, cat *catalog.Catalog, deps VectorDeps) Matcher {
	if strategy == "static" || deps.Index == nil || deps.Embedder == nil {
		return NewStatic(cat)
	}
	return NewVector(cat, deps)
}

// WhyChoose picks the most specific selling point an agency record carries.
func WhyChoose(a models.AgencyRecord) string {
	switch {
	case a.Specialization != "":
		return "Specialists in " + a.Specialization
	case len(a.NotableClients) > 0 && a.NotableClients[0] != "":
		return "Trusted by " + a.NotableClients[0]
	case len(a.Awards) > 0 && a.Awards[0] != "":
		return "Award-winning " + a.Awards[0]
	case a.UniqueApproach != "":
		return a.UniqueApproach
	default:
		return defaultWhyChoose
	}
}

// Competitors returns the top competitors for an industry.
func Competitors(cat *catalog.Catalog, industry string) []models.Competitor {
	list := cat.CompetitorsFor(industry)
	if len(list) > MaxCompetitors {
		list = list[:MaxCompetitors]
	}
	return list
}

// Vendors returns external suppliers for physical-product industries.
func Vendors(cat *catalog.Catalog, industry string) []models.Vendor {
	return cat.VendorsFor(industry)
}

// DefaultShowcase scores the catalog default agencies for req.
func DefaultShowcase(cat *catalog.Catalog, req Request) map[string][]models.MatchResult {
	defaults := cat.DefaultAgencies()
	results := make([]models.MatchResult, 0, len(defaults))
	for _, a := range defaults {
		results = append(results, result(a, staticScore(cat, a, req)))
	}
	return map[string][]models.MatchResult{catalog.DefaultCategory: rank(results)}
}

func result(a models.AgencyRecord, score int) models.MatchResult {
	return models.MatchResult{
		Agency:     a,
		MatchScore: models.ClampScore(score),
		WhyChoose:  WhyChoose(a),
	}
}

// rank orders by score, keeping input order on ties, and caps the list.
func rank(results []models.MatchResult) []models.MatchResult {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].MatchScore > results[j].MatchScore
	})
	if len(results) > MaxPerService {
		results = results[:MaxPerService]
	}
	return results
}

// hasExpertise reports whether the agency lists industry among its expertise.
func hasExpertise(a models.AgencyRecord, industry string) bool {
	key := catalog.NormalizeKey(industry)
	if key == "" {
		return false
	}
	for _, e := range a.IndustryExpertise {
		if catalog.NormalizeKey(e) == key {
			return true
		}
	}
	return false
}
