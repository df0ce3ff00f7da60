package vector

import (
	"strings"

	"github.com/kiranshivaraju/compass/pkg/models"
)

// ChromaDB metadata is flat, so list fields are stored joined with listSep.
const listSep = "|"

// AgencyMetadata flattens an agency into collection metadata.
func AgencyMetadata(a models.AgencyRecord) map[string]any {
	return map[string]any{
		"type":                "agency",
		"agency_id":           a.ID,
		"name":                a.Name,
		"service_lines":       strings.Join(a.ServiceLines, listSep),
		"key_strengths":       strings.Join(a.Strengths, listSep),
		"relevant_experience": a.Experience,
		"availability":        a.Availability,
		"budget_comfort_zone": a.BudgetComfortZone,
		"industry_expertise":  strings.Join(a.IndustryExpertise, listSep),
		"location":            a.Location,
		"specialization":      a.Specialization,
		"notable_clients":     strings.Join(a.NotableClients, listSep),
		"awards":              strings.Join(a.Awards, listSep),
		"unique_approach":     a.UniqueApproach,
	}
}

// AgencyFromMatch rebuilds the agency stored by AgencyMetadata.
func AgencyFromMatch(m Match) models.AgencyRecord {
	id := m.MetaString("agency_id")
	if id == "" {
		id = m.ID
	}
	return models.AgencyRecord{
		ID:                id,
		Name:              m.MetaString("name"),
		ServiceLines:      m.metaList("service_lines"),
		Strengths:         m.metaList("key_strengths"),
		Experience:        m.MetaString("relevant_experience"),
		Availability:      m.MetaString("availability"),
		BudgetComfortZone: m.MetaString("budget_comfort_zone"),
		IndustryExpertise: m.metaList("industry_expertise"),
		Location:          m.MetaString("location"),
		Specialization:    m.MetaString("specialization"),
		NotableClients:    m.metaList("notable_clients"),
		Awards:            m.metaList("awards"),
		UniqueApproach:    m.MetaString("unique_approach"),
	}
}

// ProjectMetadata flattens a portfolio project into collection metadata.
func ProjectMetadata(p models.Project) map[string]any {
	return map[string]any{
		"type":                "project",
		"project_id":          p.ID,
		"project_name":        p.Name,
		"project_description": p.Description,
		"industry_vertical":   p.IndustryVertical,
		"technologies":        strings.Join(p.Technologies, listSep),
		"client_name":         p.ClientName,
		"outcome":             p.Outcome,
	}
}

// ProjectFromMatch rebuilds the project stored by ProjectMetadata.
func ProjectFromMatch(m Match) models.Project {
	id := m.MetaString("project_id")
	if id == "" {
		id = m.ID
	}
	return models.Project{
		ID:               id,
		Name:             m.MetaString("project_name"),
		Description:      m.MetaString("project_description"),
		IndustryVertical: m.MetaString("industry_vertical"),
		Technologies:     m.metaList("technologies"),
		ClientName:       m.MetaString("client_name"),
		Outcome:          m.MetaString("outcome"),
	}
}

func (m Match) metaList(key string) []string {
	s := m.MetaString(key)
	if s == "" {
		return nil
	}
	return strings.Split(s, listSep)
}
