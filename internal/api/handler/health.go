package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/kiranshivaraju/compass/internal/api/response"
)

const healthCheckTimeout = 3 * time.Second

const (
	statusOK       = "ok"
	statusDegraded = "degraded"
)

// Check is one dependency probed by the health endpoint. Only Critical
// checks turn the response into a 503.
type Check struct {
	Name     string
	Ping     func(ctx context.Context) error
	Critical bool
}

// NewHealthHandler returns an http.HandlerFunc for GET /api/health.
// startup reports the state of the startup vectorization run and may be nil.
func NewHealthHandler(checks []Check, startup func() string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()

		services := make(map[string]string, len(checks))
		status := statusOK
		critical := false
		for _, c := range checks {
			services[c.Name] = statusOK
			if err := c.Ping(ctx); err != nil {
				services[c.Name] = statusDegraded
				status = statusDegraded
				critical = critical || c.Critical
			}
		}

		if critical {
			response.Error(w, http.StatusServiceUnavailable, "DEGRADED",
				"One or more services degraded", services)
			return
		}

		body := map[string]any{
			"status":   status,
			"services": services,
		}
		if startup != nil {
			body["startup_vectorization"] = startup()
		}
		response.JSON(w, body)
	}
}
