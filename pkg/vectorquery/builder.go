// Package vectorquery builds the natural-language query and document texts
// that are embedded for vector search. Query and document texts share one
// layout so that they embed close together.
package vectorquery

import (
	"fmt"
	"strings"
)

// QueryBuilder constructs search texts.
// All methods are pure functions with no side effects.
// Zero value is ready to use.
type QueryBuilder struct{}

// ProfileParams describes a client for similar-project search.
type ProfileParams struct {
	Industry     string
	Description  string
	Services     []string
	Technologies []string
	CompanySize  string
}

// AgencyParams describes a service need for agency search.
type AgencyParams struct {
	Service     string
	Industry    string
	Description string
}

// AgencyDocParams describes an agency record to be embedded.
type AgencyDocParams struct {
	Name         string
	ServiceLines []string
	Industries   []string
	Strengths    []string
	Experience   string
	Location     string
}

// ProjectDocParams describes a past project to be embedded.
type ProjectDocParams struct {
	Name         string
	Industry     string
	Description  string
	Technologies []string
	Outcome      string
}

// BuildProfileQuery returns "Industry: .. Business: .. Services: .. Technologies: .. Company size: ..",
// omitting empty parts.
func (b QueryBuilder) BuildProfileQuery(p ProfileParams) string {
	parts := []string{
		b.field("Industry", p.Industry),
		b.field("Business", p.Description),
		b.list("Services", p.Services),
		b.list("Technologies", p.Technologies),
		b.field("Company size", p.CompanySize),
	}
	return b.join(parts)
}

// BuildAgencyQuery returns the text used to find agencies for one service.
func (b QueryBuilder) BuildAgencyQuery(p AgencyParams) string {
	parts := []string{
		b.field("Services", humanize(p.Service)),
		b.field("Industry", p.Industry),
		b.field("Business", p.Description),
	}
	return b.join(parts)
}

// BuildAgencyDocument returns the indexed text for an agency.
func (b QueryBuilder) BuildAgencyDocument(p AgencyDocParams) string {
	services := make([]string, len(p.ServiceLines))
	for i, s := range p.ServiceLines {
		services[i] = humanize(s)
	}
	parts := []string{
		b.field("Agency", p.Name),
		b.list("Services", services),
		b.list("Industry", p.Industries),
		b.list("Strengths", p.Strengths),
		b.field("Experience", p.Experience),
		b.field("Location", p.Location),
	}
	return b.join(parts)
}

// BuildProjectDocument returns the indexed text for a past project.
func (b QueryBuilder) BuildProjectDocument(p ProjectDocParams) string {
	parts := []string{
		b.field("Project", p.Name),
		b.field("Industry", p.Industry),
		b.field("Business", p.Description),
		b.list("Technologies", p.Technologies),
		b.field("Outcome", p.Outcome),
	}
	return b.join(parts)
}

func (b QueryBuilder) field(label, value string) string {
	value = strings.Join(strings.Fields(value), " ")
	if value == "" {
		return ""
	}
	return fmt.Sprintf("%s: %s", label, value)
}

func (b QueryBuilder) list(label string, values []string) string {
	kept := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			kept = append(kept, v)
		}
	}
	if len(kept) == 0 {
		return ""
	}
	return fmt.Sprintf("%s: %s", label, strings.Join(kept, ", "))
}

func (b QueryBuilder) join(parts []string) string {
	kept := parts[:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}

// humanize turns a service key such as "web_development" into "web development".
func humanize(key string) string {
	return strings.ReplaceAll(strings.TrimSpace(key), "_", " ")
}
