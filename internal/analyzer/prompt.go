package analyzer

import (
	"fmt"
	"strings"
)

const systemPrompt = "You are a senior business strategist for a creative agency network in the Middle East. " +
	"You read business ideas and answer with a single JSON object and nothing else."

func buildPrompt(description string, c Context, serviceKeys []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "BUSINESS IDEA: %s\n", description)
	fmt.Fprintf(&b, "INDUSTRY: %s\n", orUnknown(c.Industry))
	fmt.Fprintf(&b, "LOCATION: %s\n", orUnknown(c.Location))
	fmt.Fprintf(&b, "BUDGET RANGE: %s\n", orUnknown(c.Budget))
	fmt.Fprintf(&b, "TIMELINE: %s\n\n", orUnknown(c.Timeline))

	b.WriteString("Return exactly one JSON object with these fields:\n")
	b.WriteString(`{
  "project_name": "a short, memorable name for the venture",
  "business_category": "one industry word, e.g. perfume, food_beverage, hospitality, technology, fashion, retail",
  "target_market": "primary audience and geography",
  "launch_mode": "Online-first, Retail-only or Hybrid",
  "required_services": ["service keys from the list below"],
  "complexity": "Low, Medium or High",
  "budget_tier": "Starter, Growth or Enterprise",
  "phases": [
    {
      "name": "phase name",
      "objective": "what the phase achieves",
      "deliverables": ["deliverable"],
      "creative_recommendations": ["idea with a wow factor"],
      "duration": "N weeks",
      "budget_range": "AED X - Y"
    }
  ]
}
`)
	fmt.Fprintf(&b, "\nAllowed service keys: %s\n", strings.Join(serviceKeys, ", "))
	b.WriteString("Phases are optional; include 3 to 6 only if you can tailor them to this idea.\n")
	b.WriteString("Return valid JSON only, with no markdown fences or commentary.")
	return b.String()
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return "not specified"
	}
	return s
}
