package matcher

import (
	"context"
	"hash/fnv"
	"math"
	"strings"

	"github.com/kiranshivaraju/compass/internal/catalog"
	"github.com/kiranshivaraju/compass/internal/metrics"
	"github.com/kiranshivaraju/compass/pkg/budget"
	"github.com/kiranshivaraju/compass/pkg/models"
)

const (
	baseScore      = 70
	budgetBonus    = 10
	industryBonus  = 10
	locationBonus  = 5
	immediateBonus = 5
	jitterSpan     = 5
)

// Static scores catalog agencies with fixed rules.
type Static struct {
	catalog *catalog.Catalog
}

func NewStatic(cat *catalog.Catalog) *Static {
	return &Static{catalog: cat}
}

func (s *Static) Name() string { return "static" }

// FindMatches returns catalog agencies per service. Services no agency
// offers are left out of the map.
func (s *Static) FindMatches(_ context.Context, req Request) map[string][]models.MatchResult {
	out := make(map[string][]models.MatchResult, len(req.Services))
	for _, svc := range req.Services {
		key := catalog.NormalizeKey(svc)
		if _, done := out[key]; done {
			continue
		}
		agencies := s.catalog.AgenciesFor(key)
		if len(agencies) == 0 {
			continue
		}
		results := make([]models.MatchResult, 0, len(agencies))
		for _, a := range agencies {
			results = append(results, result(a, staticScore(s.catalog, a, req)))
		}
		out[key] = rank(results)
	}
	if len(out) == 0 {
		metrics.MatchStrategy.WithLabelValues(s.Name(), "default").Inc()
		return DefaultShowcase(s.catalog, req)
	}
	metrics.MatchStrategy.WithLabelValues(s.Name(), "ok").Inc()
	return out
}

func staticScore(cat *catalog.Catalog, a models.AgencyRecord, req Request) int {
	score := baseScore
	if budgetOverlaps(a.BudgetComfortZone, cat.BudgetForTier(req.Tier)) {
		score += budgetBonus
	}
	if hasExpertise(a, req.Industry) {
		score += industryBonus
	}
	if req.Location != "" && strings.Contains(strings.ToLower(a.Location), strings.ToLower(req.Location)) {
		score += locationBonus
	}
	if strings.EqualFold(strings.TrimSpace(a.Availability), models.AvailabilityImmediate) {
		score += immediateBonus
	}
	return models.ClampScore(score + jitter(a.ID, req.Industry))
}

// jitter is a stable offset in [-jitterSpan, jitterSpan] per agency and industry.
func jitter(agencyID, industry string) int {
	h := fnv.New32a()
	h.Write([]byte(agencyID + "|" + catalog.NormalizeKey(industry)))
	return int(h.Sum32()%(2*jitterSpan+1)) - jitterSpan
}

// budgetOverlaps reports whether the agency's comfort zone intersects the
// tier range. A single-amount tier such as "AED 150,000+" has no upper bound.
func budgetOverlaps(comfortZone, tierRange string) bool {
	zoneLo, zoneHi, ok := bounds(comfortZone)
	if !ok {
		return false
	}
	tierLo, tierHi, ok := bounds(tierRange)
	if !ok {
		return false
	}
	return zoneLo <= tierHi && zoneHi >= tierLo
}

func bounds(s string) (lo, hi float64, ok bool) {
	a := budget.Amounts(s)
	switch len(a) {
	case 0:
		return 0, 0, false
	case 1:
		return a[0], math.Inf(1), true
	default:
		lo, hi = a[0], a[1]
		if lo > hi {
			lo, hi = hi, lo
		}
		return lo, hi, true
	}
}
