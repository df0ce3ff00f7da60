package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/kiranshivaraju/compass/internal/analyzer"
	"github.com/kiranshivaraju/compass/internal/api/response"
	"github.com/kiranshivaraju/compass/internal/blueprint"
	"github.com/kiranshivaraju/compass/internal/formatter"
	"github.com/kiranshivaraju/compass/internal/render"
	"github.com/kiranshivaraju/compass/pkg/models"
)

// Blueprints generates and loads blueprints.
type Blueprints interface {
	Generate(ctx context.Context, input models.ProjectInput) (models.Blueprint, error)
	Get(ctx context.Context, id string) (models.Blueprint, error)
}

// Formatter lays a blueprint out for one display language.
type Formatter interface {
	Format(bp models.Blueprint, language string) formatter.FormattedBlueprint
}

// PDFRenderer writes a PDF for a formatted blueprint and returns its path.
type PDFRenderer interface {
	RenderPDF(ctx context.Context, fb formatter.FormattedBlueprint) (string, error)
}

type generateResponse struct {
	BlueprintID   string                       `json:"blueprint_id"`
	Blueprint     formatter.FormattedBlueprint `json:"blueprint"`
	ShareableLink string                       `json:"shareable_link"`
}

// NewGenerateBlueprintHandler returns an http.HandlerFunc for POST /api/generate-blueprint.
// linkBase prefixes the shareable link and may be empty for a relative link.
func NewGenerateBlueprintHandler(svc Blueprints, f Formatter, linkBase string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input models.ProjectInput
		if !decodeJSON(w, r, &input) {
			return
		}
		if strings.TrimSpace(input.Description) == "" {
			response.BadRequest(w, "Business idea is required")
			return
		}

		bp, err := svc.Generate(r.Context(), input)
		if err != nil {
			if errors.Is(err, analyzer.ErrEmptyDescription) {
				response.BadRequest(w, "Business idea is required")
				return
			}
			response.Internal(w, r, err)
			return
		}

		response.JSON(w, generateResponse{
			BlueprintID:   bp.ID,
			Blueprint:     f.Format(bp, bp.Input.Language),
			ShareableLink: linkBase + "/blueprint/" + bp.ID,
		})
	}
}

// NewGetBlueprintHandler returns an http.HandlerFunc for GET /api/blueprint/{id}.
// ?language= overrides the language the blueprint was generated in.
func NewGetBlueprintHandler(svc Blueprints, f Formatter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bp, ok := loadBlueprint(w, r, svc)
		if !ok {
			return
		}
		response.JSON(w, f.Format(bp, language(r, bp)))
	}
}

// NewDownloadBlueprintHandler returns an http.HandlerFunc for
// POST /api/blueprint/{id}/download. The rendered file is removed once sent.
func NewDownloadBlueprintHandler(svc Blueprints, f Formatter, pdf PDFRenderer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bp, ok := loadBlueprint(w, r, svc)
		if !ok {
			return
		}

		path, err := pdf.RenderPDF(r.Context(), f.Format(bp, language(r, bp)))
		if err != nil {
			slog.Error("pdf render failed", "blueprint_id", bp.ID, "error", err)
			response.Error(w, http.StatusInternalServerError, "PDF_RENDER_FAILED",
				"Failed to generate PDF", nil)
			return
		}
		defer os.RemoveAll(filepath.Dir(path))

		file, err := os.Open(path)
		if err != nil {
			response.Internal(w, r, err)
			return
		}
		defer file.Close()

		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", `attachment; filename="`+render.FileName(bp.ID)+`"`)
		if info, err := file.Stat(); err == nil {
			w.Header().Set("Content-Length", strconv.FormatInt(info.Size(), 10))
		}
		w.WriteHeader(http.StatusOK)
		if _, err := io.Copy(w, file); err != nil {
			slog.Warn("streaming pdf failed", "blueprint_id", bp.ID, "error", err)
		}
	}
}

func loadBlueprint(w http.ResponseWriter, r *http.Request, svc Blueprints) (models.Blueprint, bool) {
	id := chi.URLParam(r, "id")
	bp, err := svc.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, blueprint.ErrNotFound) {
			response.NotFound(w, "Blueprint not found")
			return models.Blueprint{}, false
		}
		response.Internal(w, r, err)
		return models.Blueprint{}, false
	}
	return bp, true
}

func language(r *http.Request, bp models.Blueprint) string {
	if lang := strings.TrimSpace(r.URL.Query().Get("language")); lang != "" {
		return lang
	}
	return bp.Input.Language
}
