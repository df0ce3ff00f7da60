package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	mw "github.com/kiranshivaraju/compass/internal/api/middleware"
	"github.com/kiranshivaraju/compass/internal/api/response"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// publicGroup is the rate limit bucket shared by the public POST endpoints.
const publicGroup = "public"

// Dependencies holds all handler and middleware dependencies for the router.
type Dependencies struct {
	Auth      *mw.Auth
	RateLimit *mw.RateLimit
	Metrics   http.Handler // serves /metrics; promhttp.Handler() when nil

	HealthHandler               http.HandlerFunc
	GenerateBlueprintHandler    http.HandlerFunc
	GetBlueprintHandler         http.HandlerFunc
	DownloadBlueprintHandler    http.HandlerFunc
	MatchmakingHandler          http.HandlerFunc
	ConciergeHandler            http.HandlerFunc
	GenerateProposalHandler     http.HandlerFunc
	RegenerateSectionHandler    http.HandlerFunc
	TriggerVectorizationHandler http.HandlerFunc
	VectorizationStatusHandler  http.HandlerFunc
	AnalyzeClientHandler        http.HandlerFunc
	ServiceCategoriesHandler    http.HandlerFunc
	CompetitorsHandler          http.HandlerFunc
	AgenciesByServiceHandler    http.HandlerFunc
	ProjectPhasesHandler        http.HandlerFunc
	IndexStatsHandler           http.HandlerFunc
}

// NewRouter builds the Chi router with middleware stack and all routes.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(mw.Logger)
	r.Use(mw.Recovery)
	r.Use(mw.Metrics)

	metricsHandler := deps.Metrics
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}
	r.Method(http.MethodGet, "/metrics", metricsHandler)

	r.Get("/api/health", orNotImplemented(deps.HealthHandler))
	r.Get("/api/blueprint/{id}", orNotImplemented(deps.GetBlueprintHandler))
	r.Post("/api/blueprint/{id}/download", orNotImplemented(deps.DownloadBlueprintHandler))
	r.Get("/api/vectorization-status", orNotImplemented(deps.VectorizationStatusHandler))
	r.Get("/api/chroma-stats", orNotImplemented(deps.IndexStatsHandler))

	// Reference data
	r.Get("/api/service-categories", orNotImplemented(deps.ServiceCategoriesHandler))
	r.Get("/api/competitors/{industry}", orNotImplemented(deps.CompetitorsHandler))
	r.Get("/api/agencies/{service_category}", orNotImplemented(deps.AgenciesByServiceHandler))
	r.Get("/api/project-phases/{industry}", orNotImplemented(deps.ProjectPhasesHandler))

	// Public writes, rate limited per client IP
	r.Group(func(r chi.Router) {
		if deps.RateLimit != nil {
			r.Use(deps.RateLimit.Limit(publicGroup))
		}

		r.Post("/api/generate-blueprint", orNotImplemented(deps.GenerateBlueprintHandler))
		r.Post("/api/request-matchmaking", orNotImplemented(deps.MatchmakingHandler))
		r.Post("/api/book-concierge", orNotImplemented(deps.ConciergeHandler))
		r.Post("/api/generate-proposal", orNotImplemented(deps.GenerateProposalHandler))
		r.Post("/api/regenerate-section", orNotImplemented(deps.RegenerateSectionHandler))
		r.Post("/api/analyze-client", orNotImplemented(deps.AnalyzeClientHandler))
	})

	// Admin routes
	r.Group(func(r chi.Router) {
		r.Use(deps.Auth.Authenticate)
		r.Use(deps.Auth.RequireScope(mw.ScopeAdmin))

		r.Post("/api/trigger-vectorization", orNotImplemented(deps.TriggerVectorizationHandler))
	})

	return r
}

// orNotImplemented returns the handler if non-nil, or a 501 placeholder.
func orNotImplemented(h http.HandlerFunc) http.HandlerFunc {
	if h != nil {
		return h
	}
	return func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotImplemented, "NOT_IMPLEMENTED", "Endpoint not yet implemented", nil)
	}
}
