package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/kiranshivaraju/compass/internal/api/response"
	"github.com/kiranshivaraju/compass/internal/catalog"
	"github.com/kiranshivaraju/compass/internal/matcher"
	"github.com/kiranshivaraju/compass/pkg/models"
)

// IndexStats reports document counts per vector collection.
type IndexStats interface {
	CollectionStats(ctx context.Context) (map[string]int, error)
}

// NewServiceCategoriesHandler returns an http.HandlerFunc for GET /api/service-categories.
func NewServiceCategoriesHandler(cat *catalog.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		keys := cat.ServiceKeys()
		categories := make([]models.ServiceRecommendation, 0, len(keys))
		for _, k := range keys {
			if s, ok := cat.Service(k); ok {
				categories = append(categories, s)
			}
		}
		response.JSON(w, map[string]any{"categories": categories})
	}
}

// NewCompetitorsHandler returns an http.HandlerFunc for GET /api/competitors/{industry}.
// Unknown industries get the general competitor list.
func NewCompetitorsHandler(cat *catalog.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		industry := catalog.NormalizeKey(chi.URLParam(r, "industry"))
		response.JSON(w, map[string]any{
			"industry":    industry,
			"competitors": matcher.Competitors(cat, industry),
		})
	}
}

// NewAgenciesByServiceHandler returns an http.HandlerFunc for GET /api/agencies/{service_category}.
func NewAgenciesByServiceHandler(cat *catalog.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		service := catalog.NormalizeKey(chi.URLParam(r, "service_category"))
		agencies := cat.AgenciesFor(service)
		if agencies == nil {
			agencies = []models.AgencyRecord{}
		}
		response.JSON(w, map[string]any{
			"service_category": service,
			"agencies":         agencies,
		})
	}
}

// NewProjectPhasesHandler returns an http.HandlerFunc for GET /api/project-phases/{industry}.
func NewProjectPhasesHandler(cat *catalog.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		industry := catalog.NormalizeKey(chi.URLParam(r, "industry"))
		tmpl := cat.TemplateForIndustry(industry)
		response.JSON(w, map[string]any{
			"industry":          industry,
			"template":          tmpl.Key,
			"phases":            tmpl.Phases,
			"budget_estimate":   tmpl.BudgetEstimate,
			"timeline_estimate": tmpl.TimelineEstimate,
		})
	}
}

// NewIndexStatsHandler returns an http.HandlerFunc for GET /api/chroma-stats.
func NewIndexStatsHandler(idx IndexStats) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		counts, err := idx.CollectionStats(r.Context())
		if err != nil {
			slog.Warn("vector index stats unavailable", "error", err)
			response.Error(w, http.StatusServiceUnavailable, "VECTOR_STORE_UNAVAILABLE",
				"The vector store is not reachable", nil)
			return
		}
		total := 0
		for _, n := range counts {
			total += n
		}
		response.JSON(w, map[string]any{
			"collections":     counts,
			"total_documents": total,
		})
	}
}
