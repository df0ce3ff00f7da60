package matcher

import (
	"testing"

	"github.com/kiranshivaraju/compass/internal/catalog"
	"github.com/stretchr/testify/assert"
)

func TestBudgetOverlaps(t *testing.T) {
	tests := []struct {
		zone, tier string
		want       bool
	}{
		{"AED 20,000 - 100,000", "AED 60,000 - 150,000", true},
		{"AED 10,000 - 50,000", "AED 60,000 - 150,000", false},
		{"AED 50,000 - 500,000", "AED 150,000+", true},
		{"AED 10,000 - 60,000", "AED 150,000+", false},
		{"AED 10,000 - 60,000", "AED 30,000 - 60,000", true},
		{"negotiable", "AED 30,000 - 60,000", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, budgetOverlaps(tt.zone, tt.tier), "%s vs %s", tt.zone, tt.tier)
	}
}

func TestJitterRange(t *testing.T) {
	for _, id := range []string{"agency_1", "agency_2", "agency_3", "x", ""} {
		for _, ind := range []string{"", "retail", "perfume", "Food Beverage"} {
			j := jitter(id, ind)
			assert.GreaterOrEqual(t, j, -jitterSpan)
			assert.LessOrEqual(t, j, jitterSpan)
			assert.Equal(t, j, jitter(id, ind))
		}
	}
}

func TestStaticScoreBounds(t *testing.T) {
	cat := catalog.MustLoad()
	for _, a := range cat.Agencies {
		s := staticScore(cat, a, Request{Industry: "retail", Tier: "Growth", Location: "Dubai"})
		assert.GreaterOrEqual(t, s, baseScore-jitterSpan)
		assert.LessOrEqual(t, s, 100)
	}
}
