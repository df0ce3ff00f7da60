package analyzer

import (
	"hash/fnv"
	"strings"
	"unicode"

	"github.com/kiranshivaraju/compass/internal/catalog"
	"github.com/kiranshivaraju/compass/pkg/budget"
	"github.com/kiranshivaraju/compass/pkg/models"
)

var nameSuffixes = []string{"Ventures", "Studio", "Collective", "Labs", "House", "Works", "Co.", "Hub"}

var stopWords = map[string]bool{
	"a": true, "an": true, "the": true, "and": true, "for": true, "with": true, "of": true,
	"in": true, "on": true, "to": true, "my": true, "our": true, "we": true, "i": true,
	"want": true, "would": true, "like": true, "need": true, "start": true, "open": true,
	"opening": true, "launch": true, "build": true, "create": true, "new": true, "idea": true,
	"business": true, "company": true, "brand": true, "is": true, "are": true, "be": true,
	"that": true, "this": true, "help": true, "me": true, "us": true, "plan": true, "planning": true,
}

type keywordRule struct {
	keywords []string
	values   []string
}

// Ordered: earlier rules contribute their services first.
var serviceRules = []keywordRule{
	{[]string{"app", "apps", "mobile", "ios", "android"}, []string{"mobile_app_development", "api_development"}},
	{[]string{"website", "web", "online store", "e-commerce", "ecommerce", "landing page"}, []string{"web_development", "ui_ux_design"}},
	{[]string{"platform", "saas", "api", "integration", "marketplace", "software"}, []string{"api_development", "web_development"}},
	{[]string{"sustainable", "sustainability", "eco", "eco-friendly", "green", "organic"}, []string{"sustainability_consulting"}},
	{[]string{"brand", "branding", "logo", "identity", "rebrand"}, []string{"brand_identity"}},
	{[]string{"marketing", "social media", "instagram", "tiktok", "campaign", "promotion", "seo", "ads"}, []string{"digital_marketing"}},
	{[]string{"content", "video", "photography", "blog", "influencer"}, []string{"content_creation"}},
	{[]string{"packaging", "bottle", "bottles", "label"}, []string{"packaging_design"}},
	{[]string{"consulting", "strategy", "business plan", "feasibility", "market research"}, []string{"business_consulting"}},
	{[]string{"perfume", "perfumes", "fragrance", "oud", "cosmetics"}, []string{"brand_identity", "packaging_design", "digital_marketing"}},
	{[]string{"restaurant", "cafe", "café", "bakery", "food truck"}, []string{"brand_identity", "digital_marketing", "content_creation"}},
	{[]string{"hotel", "resort", "glamping", "camp"}, []string{"web_development", "digital_marketing", "content_creation"}},
}

// Ordered: the first matching rule names the category.
var categoryRules = []keywordRule{
	{[]string{"perfume", "perfumes", "fragrance", "oud", "attar"}, []string{"perfume"}},
	{[]string{"restaurant", "cafe", "café", "food", "bakery", "kitchen", "catering", "coffee"}, []string{"food_beverage"}},
	{[]string{"hotel", "glamping", "resort", "camp", "hostel", "tourism"}, []string{"hospitality"}},
	{[]string{"clinic", "health", "healthcare", "medical", "hospital", "wellness"}, []string{"healthcare"}},
	{[]string{"school", "education", "tutor", "tutoring", "academy", "learning"}, []string{"education"}},
	{[]string{"bank", "finance", "fintech", "payments", "insurance"}, []string{"finance"}},
	{[]string{"fashion", "clothing", "apparel", "abaya", "boutique", "jewelry"}, []string{"fashion"}},
	{[]string{"app", "apps", "software", "saas", "tech", "platform", "ai"}, []string{"technology"}},
	{[]string{"factory", "manufacturing", "production line"}, []string{"manufacturing"}},
	{[]string{"shop", "store", "retail", "supermarket"}, []string{"retail"}},
}

var (
	luxuryWords   = []string{"luxury", "premium", "high-end", "exclusive", "haute", "bespoke"}
	starterWords  = []string{"small", "side project", "home-based", "bootstrapped", "low budget", "mvp"}
	onlineWords   = []string{"online", "e-commerce", "ecommerce", "app", "website", "digital", "platform", "saas", "delivery"}
	physicalWords = []string{"store", "shop", "boutique", "restaurant", "cafe", "café", "bakery", "showroom", "mall", "hotel", "resort", "clinic", "kiosk"}
)

// Generate builds an analysis from description and context alone. The same
// input always yields the same analysis.
func Generate(cat *catalog.Catalog, description string, c Context) models.BusinessAnalysis {
	lower := strings.ToLower(description)

	services := detectServices(cat, lower)
	category := detectCategory(lower, c.Industry)
	tier := detectTier(lower, c.Budget)

	location := strings.TrimSpace(c.Location)
	if location == "" {
		location = models.DefaultLocation
	}

	return models.BusinessAnalysis{
		ProjectName:      projectName(description),
		BusinessCategory: category,
		TargetMarket:     "Customers in " + location,
		LaunchMode:       launchMode(lower),
		RequiredServices: services,
		Complexity:       complexity(len(services), tier),
		BudgetTier:       tier,
	}
}

// projectName combines the first significant word of the description with a
// suffix chosen by hashing the whole description.
func projectName(description string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(strings.ToLower(description)))
	suffix := nameSuffixes[h.Sum32()%uint32(len(nameSuffixes))]

	for _, w := range strings.FieldsFunc(description, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-'
	}) {
		if len(w) < 3 || stopWords[strings.ToLower(w)] {
			continue
		}
		return titleCase(w) + " " + suffix
	}
	return "Business " + suffix
}

func titleCase(w string) string {
	runes := []rune(strings.ToLower(w))
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

func detectServices(cat *catalog.Catalog, lower string) []string {
	var out []string
	for _, r := range serviceRules {
		if !catalog.ContainsAny(lower, r.keywords) {
			continue
		}
		for _, key := range r.values {
			if _, ok := cat.Service(key); ok {
				out = append(out, key)
			}
		}
	}
	out = models.DedupeStrings(out)
	if len(out) == 0 {
		return append([]string(nil), models.DefaultServices...)
	}
	return out
}

func detectCategory(lower, industry string) string {
	if k := catalog.NormalizeKey(industry); k != "" {
		return k
	}
	for _, r := range categoryRules {
		if catalog.ContainsAny(lower, r.keywords) {
			return r.values[0]
		}
	}
	return catalog.GeneralIndustry
}

// detectTier reads the budget figure when one is given, otherwise the wording.
func detectTier(lower, budgetText string) string {
	if v, ok := budget.Max(budgetText); ok {
		switch {
		case v < 60_000:
			return models.TierStarter
		case v < 150_000:
			return models.TierGrowth
		default:
			return models.TierEnterprise
		}
	}
	switch {
	case catalog.ContainsAny(lower, luxuryWords):
		return models.TierEnterprise
	case catalog.ContainsAny(lower, starterWords):
		return models.TierStarter
	default:
		return models.TierGrowth
	}
}

func launchMode(lower string) string {
	online := catalog.ContainsAny(lower, onlineWords)
	physical := catalog.ContainsAny(lower, physicalWords)
	switch {
	case online && !physical:
		return "Online-first"
	case physical && !online:
		return "Retail-only"
	default:
		return "Hybrid"
	}
}

func complexity(services int, tier string) string {
	switch {
	case tier == models.TierEnterprise || services > 4:
		return "High"
	case services > 2:
		return "Medium"
	default:
		return "Low"
	}
}
