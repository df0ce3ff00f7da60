// Package catalog holds the static reference data used by the blueprint
// pipeline: agencies, competitors, service details, vendors and phase templates.
package catalog

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"github.com/kiranshivaraju/compass/pkg/models"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultData []byte

// DefaultCategory is the showcase key used when agency matching falls back.
const DefaultCategory = "default"

// GeneralIndustry is the competitor list used when an industry has none of its own.
const GeneralIndustry = "general"

// DefaultPriorityFactor multiplies similarity for priority-industry matches
// when the catalog sets no priority_boost.
const DefaultPriorityFactor = 1.5

// Template is a canned phase plan for one industry.
type Template struct {
	Key              string                `yaml:"key"`
	Category         string                `yaml:"category"`
	Keywords         []string              `yaml:"keywords"`
	Qualifiers       []string              `yaml:"qualifiers"`
	BudgetEstimate   string                `yaml:"budget_estimate"`
	TimelineEstimate string                `yaml:"timeline_estimate"`
	Phases           []models.ProjectPhase `yaml:"phases"`
}

// Catalog is the parsed reference dataset. It is read-only after Load.
type Catalog struct {
	DefaultBudget      string                         `yaml:"default_budget"`
	DefaultTimeline    string                         `yaml:"default_timeline"`
	BudgetTiers        map[string]string              `yaml:"budget_tiers"`
	PriorityIndustries []string                       `yaml:"priority_industries"`
	PriorityFactor     float64                        `yaml:"priority_boost"`
	NextSteps          []string                       `yaml:"next_steps"`
	Services           []models.ServiceRecommendation `yaml:"services"`
	Agencies           []models.AgencyRecord          `yaml:"agencies"`
	DefaultAgencyIDs   []string                       `yaml:"default_agencies"`
	Competitors        map[string][]models.Competitor `yaml:"competitors"`
	Vendors            map[string][]models.Vendor     `yaml:"vendors"`
	DefaultTemplate    Template                       `yaml:"default_template"`
	Templates          []Template                     `yaml:"templates"`

	servicesByKey map[string]models.ServiceRecommendation
	agenciesByID  map[string]models.AgencyRecord
}

// Load parses the embedded catalog.
func Load() (*Catalog, error) {
	return Parse(defaultData)
}

// MustLoad is Load for package-level initialisation in tests and tools.
func MustLoad() *Catalog {
	c, err := Load()
	if err != nil {
		panic(err)
	}
	return c
}

// Parse decodes a YAML catalog and checks it is usable.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if c.PriorityFactor == 0 {
		c.PriorityFactor = DefaultPriorityFactor
	}
	if c.PriorityFactor < 1 {
		return nil, fmt.Errorf("catalog: priority_boost must be at least 1, got %v", c.PriorityFactor)
	}
	if len(c.DefaultTemplate.Phases) == 0 {
		return nil, fmt.Errorf("catalog: default template has no phases")
	}
	for _, t := range c.Templates {
		if len(t.Phases) == 0 {
			return nil, fmt.Errorf("catalog: template %q has no phases", t.Key)
		}
		if len(t.Keywords) == 0 {
			return nil, fmt.Errorf("catalog: template %q has no keywords", t.Key)
		}
	}

	c.servicesByKey = make(map[string]models.ServiceRecommendation, len(c.Services))
	for _, s := range c.Services {
		c.servicesByKey[s.Key] = s
	}
	c.agenciesByID = make(map[string]models.AgencyRecord, len(c.Agencies))
	for _, a := range c.Agencies {
		c.agenciesByID[a.ID] = a
	}
	for _, id := range c.DefaultAgencyIDs {
		if _, ok := c.agenciesByID[id]; !ok {
			return nil, fmt.Errorf("catalog: default agency %q is not defined", id)
		}
	}
	return &c, nil
}

// Service returns the details for a service key.
func (c *Catalog) Service(key string) (models.ServiceRecommendation, bool) {
	s, ok := c.servicesByKey[NormalizeKey(key)]
	return s, ok
}

// AgenciesFor returns every agency offering the given service, in catalog order.
func (c *Catalog) AgenciesFor(service string) []models.AgencyRecord {
	key := NormalizeKey(service)
	var out []models.AgencyRecord
	for _, a := range c.Agencies {
		for _, sl := range a.ServiceLines {
			if NormalizeKey(sl) == key {
				out = append(out, a)
				break
			}
		}
	}
	return out
}

// DefaultAgencies returns the agencies shown when no match can be computed.
func (c *Catalog) DefaultAgencies() []models.AgencyRecord {
	out := make([]models.AgencyRecord, 0, len(c.DefaultAgencyIDs))
	for _, id := range c.DefaultAgencyIDs {
		out = append(out, c.agenciesByID[id])
	}
	return out
}

// Agency returns the agency with the given id.
func (c *Catalog) Agency(id string) (models.AgencyRecord, bool) {
	a, ok := c.agenciesByID[id]
	return a, ok
}

// CompetitorsFor returns competitors for an industry, falling back to the
// general list. Types are derived from the market flags.
func (c *Catalog) CompetitorsFor(industry string) []models.Competitor {
	list, ok := c.Competitors[NormalizeKey(industry)]
	if !ok || len(list) == 0 {
		list = c.Competitors[GeneralIndustry]
	}
	out := make([]models.Competitor, len(list))
	for i, comp := range list {
		comp.Type = CompetitorType(comp)
		out[i] = comp
	}
	return out
}

// VendorsFor returns external vendors for an industry, or nil when the
// industry does not involve physical products.
func (c *Catalog) VendorsFor(industry string) []models.Vendor {
	return c.Vendors[NormalizeKey(industry)]
}

// BudgetForTier returns the budget range string for a tier.
func (c *Catalog) BudgetForTier(tier string) string {
	if b, ok := c.BudgetTiers[tier]; ok {
		return b
	}
	return c.DefaultBudget
}

// IsPriorityIndustry reports whether matches in this industry get a similarity boost.
func (c *Catalog) IsPriorityIndustry(industry string) bool {
	key := NormalizeKey(industry)
	for _, p := range c.PriorityIndustries {
		if p == key {
			return true
		}
	}
	return false
}

// PriorityBoost returns the similarity multiplier for matches in industry:
// PriorityFactor for priority industries, 1 otherwise.
func (c *Catalog) PriorityBoost(industry string) float64 {
	if c.IsPriorityIndustry(industry) {
		return c.PriorityFactor
	}
	return 1
}

// ServiceKeys returns every known service key, sorted.
func (c *Catalog) ServiceKeys() []string {
	keys := make([]string, 0, len(c.servicesByKey))
	for k := range c.servicesByKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// CompetitorType classifies a competitor by its market position.
func CompetitorType(c models.Competitor) string {
	switch {
	case c.MarketLeader:
		return models.CompetitorInspirational
	case c.SimilarSize:
		return models.CompetitorDirect
	default:
		return models.CompetitorAdjacent
	}
}

// NormalizeKey lowercases a label and joins its words with underscores,
// so "Web Development" and "web_development" compare equal.
func NormalizeKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "-", " ")
	return strings.Join(strings.Fields(s), "_")
}
