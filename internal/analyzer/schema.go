package analyzer

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

const analysisSchema = `{
  "type": "object",
  "required": ["project_name", "business_category", "required_services"],
  "properties": {
    "project_name":      {"type": "string", "minLength": 1},
    "business_category": {"type": "string"},
    "target_market":     {"type": "string"},
    "launch_mode":       {"type": "string"},
    "required_services": {"type": "array", "items": {"type": "string"}},
    "complexity":        {"type": "string"},
    "budget_tier":       {"type": "string"},
    "phases": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["name"],
        "properties": {
          "name":                     {"type": "string", "minLength": 1},
          "objective":                {"type": "string"},
          "deliverables":             {"type": "array", "items": {"type": "string"}},
          "creative_recommendations": {"type": "array", "items": {"type": "string"}},
          "duration":                 {"type": "string"},
          "budget_range":             {"type": "string"}
        }
      }
    }
  }
}`

var schema = mustCompile(analysisSchema)

func mustCompile(src string) *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic(fmt.Sprintf("analyzer: invalid schema: %v", err))
	}
	return s
}

// validate checks doc against the analysis schema. The returned error lists
// every violation.
func validate(doc string) error {
	result, err := schema.Validate(gojsonschema.NewStringLoader(doc))
	if err != nil {
		return fmt.Errorf("validating analysis: %w", err)
	}
	if result.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("%w: %s", ErrSchema, strings.Join(msgs, "; "))
}
