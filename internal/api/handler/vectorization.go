package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/compass/internal/api/middleware"
	"github.com/kiranshivaraju/compass/internal/api/response"
	"github.com/kiranshivaraju/compass/internal/store"
	"github.com/kiranshivaraju/compass/internal/vectorsync"
	"github.com/kiranshivaraju/compass/pkg/models"
)

// TriggerManual labels jobs started through the API.
const TriggerManual = "api"

// Vectorizer starts and reports on vector index syncs.
type Vectorizer interface {
	Trigger(ctx context.Context, trigger string) (*models.Job, error)
	Status(ctx context.Context) (vectorsync.Status, error)
	Job(ctx context.Context, id uuid.UUID) (*models.Job, error)
}

// NewTriggerVectorizationHandler returns an http.HandlerFunc for POST /api/trigger-vectorization.
func NewTriggerVectorizationHandler(v Vectorizer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		job, err := v.Trigger(r.Context(), TriggerManual)
		if err != nil {
			if errors.Is(err, vectorsync.ErrAlreadyRunning) {
				response.Error(w, http.StatusConflict, response.CodeConflict,
					"Vectorization is already running", nil)
				return
			}
			response.Internal(w, r, err)
			return
		}
		keyID, _ := middleware.GetAPIKeyID(r)
		slog.Info("vectorization triggered", "job_id", job.ID, "api_key_id", keyID)
		response.Accepted(w, map[string]any{
			"job_id":  job.ID,
			"status":  job.Status,
			"message": "Vectorization started",
		})
	}
}

// NewVectorizationStatusHandler returns an http.HandlerFunc for GET /api/vectorization-status.
// With ?job_id= it returns that job instead of the overall status.
func NewVectorizationStatusHandler(v Vectorizer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if raw := r.URL.Query().Get("job_id"); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				response.BadRequest(w, "Invalid job_id")
				return
			}
			job, err := v.Job(r.Context(), id)
			if errors.Is(err, store.ErrNotFound) {
				response.NotFound(w, "Job not found")
				return
			}
			if err != nil {
				response.Internal(w, r, err)
				return
			}
			response.JSON(w, job)
			return
		}

		st, err := v.Status(r.Context())
		if err != nil {
			response.Internal(w, r, err)
			return
		}
		response.JSON(w, st)
	}
}
