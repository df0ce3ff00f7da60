package catalog

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// SelectTemplate returns the first registered template whose keywords (and
// qualifiers, when the template has any) occur in text, or the default template.
func (c *Catalog) SelectTemplate(text string) Template {
	lower := strings.ToLower(text)
	for _, t := range c.Templates {
		if !ContainsAny(lower, t.Keywords) {
			continue
		}
		if len(t.Qualifiers) > 0 && !ContainsAny(lower, t.Qualifiers) {
			continue
		}
		return t
	}
	return c.DefaultTemplate
}

// TemplateForIndustry returns the unqualified template for an industry
// category, then the first template whose keywords match the industry name,
// then the default template.
func (c *Catalog) TemplateForIndustry(industry string) Template {
	key := NormalizeKey(industry)
	for _, t := range c.Templates {
		if t.Category == key && len(t.Qualifiers) == 0 {
			return t
		}
	}
	return c.SelectTemplate(strings.ReplaceAll(key, "_", " "))
}

// Template returns a registered template by key.
func (c *Catalog) Template(key string) (Template, bool) {
	if key == c.DefaultTemplate.Key {
		return c.DefaultTemplate, true
	}
	for _, t := range c.Templates {
		if t.Key == key {
			return t, true
		}
	}
	return Template{}, false
}

// ContainsAny reports whether any keyword occurs in text as a whole word or phrase.
// text is expected to be lowercased already.
func ContainsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if ContainsWord(text, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// ContainsWord reports whether word occurs in text bounded by non-alphanumeric
// runes, so "app" matches "an app idea" but not "apparel".
func ContainsWord(text, word string) bool {
	if word == "" {
		return false
	}
	for offset := 0; offset <= len(text)-len(word); {
		i := strings.Index(text[offset:], word)
		if i < 0 {
			return false
		}
		start := offset + i
		end := start + len(word)
		if boundaryBefore(text, start) && boundaryAfter(text, end) {
			return true
		}
		_, size := utf8.DecodeRuneInString(text[start:])
		offset = start + size
	}
	return false
}

func boundaryBefore(text string, i int) bool {
	if i == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(text[:i])
	return !isWordRune(r)
}

func boundaryAfter(text string, i int) bool {
	if i >= len(text) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(text[i:])
	return !isWordRune(r)
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
