package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/kiranshivaraju/compass/internal/ai"
	"github.com/kiranshivaraju/compass/internal/api/response"
	"github.com/kiranshivaraju/compass/internal/proposal"
	"github.com/kiranshivaraju/compass/pkg/models"
)

// Proposer generates client proposals.
type Proposer interface {
	Generate(ctx context.Context, req proposal.Request) (*models.Proposal, error)
	RegenerateSection(ctx context.Context, req proposal.SectionRequest) (proposal.SectionResult, error)
}

// NewGenerateProposalHandler returns an http.HandlerFunc for POST /api/generate-proposal.
func NewGenerateProposalHandler(svc Proposer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req proposal.Request
		if !decodeJSON(w, r, &req) {
			return
		}
		p, err := svc.Generate(r.Context(), req)
		if err != nil {
			if errors.Is(err, proposal.ErrClientNameRequired) {
				response.BadRequest(w, "Client name is required")
				return
			}
			response.Internal(w, r, err)
			return
		}
		response.JSON(w, p)
	}
}

// ClientAnalyzer profiles a prospective client without drafting a proposal.
type ClientAnalyzer interface {
	AnalyzeClient(ctx context.Context, req proposal.Request) (*proposal.ClientAnalysis, error)
}

// NewAnalyzeClientHandler returns an http.HandlerFunc for POST /api/analyze-client.
func NewAnalyzeClientHandler(svc ClientAnalyzer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req proposal.Request
		if !decodeJSON(w, r, &req) {
			return
		}
		res, err := svc.AnalyzeClient(r.Context(), req)
		if err != nil {
			switch {
			case errors.Is(err, proposal.ErrClientNameRequired):
				response.BadRequest(w, "Client name is required")
			case errors.Is(err, proposal.ErrWebsiteRequired):
				response.BadRequest(w, "Website is required")
			default:
				response.Internal(w, r, err)
			}
			return
		}
		response.JSON(w, res)
	}
}

// NewRegenerateSectionHandler returns an http.HandlerFunc for POST /api/regenerate-section.
func NewRegenerateSectionHandler(svc Proposer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req proposal.SectionRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		res, err := svc.RegenerateSection(r.Context(), req)
		if err != nil {
			switch {
			case errors.Is(err, proposal.ErrSectionRequired):
				response.BadRequest(w, "Section name is required")
			case errors.Is(err, ai.ErrInferenceTimeout), errors.Is(err, context.DeadlineExceeded):
				response.Error(w, http.StatusGatewayTimeout, "AI_INFERENCE_TIMEOUT",
					"Section generation took too long and was cancelled", nil)
			case errors.Is(err, ai.ErrProviderUnavailable), errors.Is(err, ai.ErrInvalidResponse):
				response.Error(w, http.StatusBadGateway, "AI_PROVIDER_UNAVAILABLE",
					"The AI provider is not available", nil)
			default:
				response.Internal(w, r, err)
			}
			return
		}
		response.JSON(w, res)
	}
}
