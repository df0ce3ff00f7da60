package proposal

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/kiranshivaraju/compass/internal/analyzer"
	"github.com/kiranshivaraju/compass/internal/catalog"
	"github.com/kiranshivaraju/compass/pkg/models"
	"github.com/xeipuuv/gojsonschema"
)

const (
	MaxWebsiteChars    = 6000
	MaxSocialChars     = 2000
	FallbackConfidence = 0.3
)

const profileSchema = `{
  "type": "object",
  "required": ["company_description", "industry"],
  "properties": {
    "company_description": {"type": "string"},
    "services":            {"type": "array", "items": {"type": "string"}},
    "tech_stack":          {"type": "array", "items": {"type": "string"}},
    "company_size":        {"type": "string"},
    "industry":            {"type": "string"},
    "recent_news":         {"type": "array", "items": {"type": "string"}},
    "social_presence":     {"type": "object", "additionalProperties": {"type": "string"}},
    "confidence_score":    {"type": "number", "minimum": 0, "maximum": 1}
  }
}`

var schema = func() *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(profileSchema))
	if err != nil {
		panic(fmt.Sprintf("proposal: invalid profile schema: %v", err))
	}
	return s
}()

type keywordRule struct {
	keywords []string
	value    string
}

var industryRules = []keywordRule{
	{[]string{"clinic", "clinics", "hospital", "hospitals", "patient", "patients", "healthcare", "medical", "pharmacy"}, "healthcare"},
	{[]string{"bank", "banking", "fintech", "payments", "wallet", "lending"}, "finance"},
	{[]string{"insurance", "insurer", "claims", "policyholders"}, "insurance"},
	{[]string{"school", "university", "students", "learning", "courses", "academy"}, "education"},
	{[]string{"hotel", "resort", "travel", "tourism", "restaurant", "hospitality"}, "hospitality"},
	{[]string{"shop", "store", "retail", "e-commerce", "ecommerce", "fashion", "boutique"}, "retail"},
	{[]string{"logistics", "shipping", "delivery", "freight", "warehouse"}, "logistics"},
	{[]string{"real estate", "property", "properties", "developer", "apartments"}, "real_estate"},
	{[]string{"software", "saas", "cloud", "platform", "app", "technology"}, "technology"},
}

var serviceRules = []keywordRule{
	{[]string{"consulting", "advisory", "strategy"}, "Consulting"},
	{[]string{"design", "branding", "creative"}, "Design"},
	{[]string{"development", "engineering", "software"}, "Software Development"},
	{[]string{"marketing", "advertising", "seo", "campaigns"}, "Marketing"},
	{[]string{"support", "maintenance", "managed services"}, "Support"},
	{[]string{"delivery", "shipping", "logistics"}, "Delivery"},
	{[]string{"training", "courses", "workshops"}, "Training"},
}

var techKeywords = []string{
	"AWS", "Azure", "GCP", "Kubernetes", "Docker", "React", "Angular", "Vue", "Node.js",
	"Python", "Java", "Go", "PHP", "WordPress", "Shopify", "Salesforce", "SAP", "Flutter",
}

// ExtractProfile asks the model for a structured profile of the client from
// the scraped website text and social snippets keyed by platform. Any model,
// parse or schema failure yields FallbackProfile.
func (s *Service) ExtractProfile(ctx context.Context, website string, social map[string]string) (models.ClientProfile, string) {
	website = clip(website, MaxWebsiteChars)
	capped := make(map[string]string, len(social))
	for platform, text := range social {
		capped[platform] = clip(text, MaxSocialChars)
	}

	completion, err := s.provider.Generate(ctx, models.CompletionRequest{
		System:      profileSystemPrompt,
		Prompt:      buildProfilePrompt(website, capped),
		JSON:        true,
		MaxTokens:   1024,
		Temperature: 0.2,
	})
	if err != nil {
		slog.Warn("profile extraction failed, using keyword profile", "provider", s.provider.Name(), "error", err)
		return FallbackProfile(website, capped), models.SourceFallback
	}

	profile, err := parseProfile(completion.Text)
	if err != nil {
		slog.Warn("profile extraction returned an unusable reply, using keyword profile", "error", err)
		return FallbackProfile(website, capped), models.SourceFallback
	}
	return profile, models.SourceModel
}

func parseProfile(text string) (models.ClientProfile, error) {
	obj, ok := analyzer.ExtractObject(text)
	if !ok {
		return models.ClientProfile{}, analyzer.ErrNoObject
	}
	result, err := schema.Validate(gojsonschema.NewStringLoader(obj))
	if err != nil {
		return models.ClientProfile{}, fmt.Errorf("validating profile: %w", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return models.ClientProfile{}, fmt.Errorf("%w: %s", ErrProfileSchema, strings.Join(msgs, "; "))
	}

	var p models.ClientProfile
	if err := json.Unmarshal([]byte(obj), &p); err != nil {
		return models.ClientProfile{}, fmt.Errorf("decoding profile: %w", err)
	}
	return normalizeProfile(p), nil
}

func normalizeProfile(p models.ClientProfile) models.ClientProfile {
	p.CompanyDescription = strings.TrimSpace(p.CompanyDescription)
	p.Industry = strings.TrimSpace(p.Industry)
	if p.CompanySize == "" {
		p.CompanySize = "unknown"
	}
	p.Services = nonNil(p.Services)
	p.TechStack = nonNil(p.TechStack)
	p.RecentNews = nonNil(p.RecentNews)
	if p.SocialPresence == nil {
		p.SocialPresence = map[string]string{}
	}
	p.ConfidenceScore = math.Max(0, math.Min(1, p.ConfidenceScore))
	return p
}

// FallbackProfile builds a profile from keyword matches in the scraped text.
func FallbackProfile(website string, social map[string]string) models.ClientProfile {
	var all strings.Builder
	all.WriteString(website)
	platforms := make([]string, 0, len(social))
	for platform := range social {
		platforms = append(platforms, platform)
	}
	sort.Strings(platforms)
	for _, platform := range platforms {
		all.WriteString(" ")
		all.WriteString(social[platform])
	}
	text := strings.ToLower(all.String())

	industry := "general"
	for _, r := range industryRules {
		if catalog.ContainsAny(text, r.keywords) {
			industry = r.value
			break
		}
	}

	services := []string{}
	for _, r := range serviceRules {
		if catalog.ContainsAny(text, r.keywords) {
			services = append(services, r.value)
		}
	}

	tech := []string{}
	for _, kw := range techKeywords {
		if catalog.ContainsWord(text, strings.ToLower(kw)) {
			tech = append(tech, kw)
		}
	}

	presence := make(map[string]string, len(platforms))
	for _, platform := range platforms {
		presence[platform] = "Profile found"
	}

	return models.ClientProfile{
		CompanyDescription: clip(firstSentence(website), 300),
		Services:           services,
		TechStack:          tech,
		CompanySize:        "unknown",
		Industry:           industry,
		RecentNews:         []string{},
		SocialPresence:     presence,
		ConfidenceScore:    FallbackConfidence,
	}
}

func firstSentence(text string) string {
	text = strings.TrimSpace(text)
	if i := strings.IndexAny(text, ".!?"); i >= 0 {
		return text[:i+1]
	}
	return text
}

// clip truncates s to n runes.
func clip(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
