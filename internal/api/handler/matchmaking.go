package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/kiranshivaraju/compass/internal/api/response"
	"github.com/kiranshivaraju/compass/internal/blueprint"
	"github.com/kiranshivaraju/compass/internal/matchmaking"
)

// Matchmaker records matchmaking and concierge requests.
type Matchmaker interface {
	RequestMatchmaking(ctx context.Context, in matchmaking.MatchmakingInput) (matchmaking.Ticket, error)
	BookConcierge(ctx context.Context, in matchmaking.ConciergeInput) (matchmaking.Booking, error)
}

// NewMatchmakingHandler returns an http.HandlerFunc for POST /api/request-matchmaking.
func NewMatchmakingHandler(svc Matchmaker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in matchmaking.MatchmakingInput
		if !decodeJSON(w, r, &in) {
			return
		}
		ticket, err := svc.RequestMatchmaking(r.Context(), in)
		if err != nil {
			writeMatchmakingError(w, r, err)
			return
		}
		response.JSON(w, ticket)
	}
}

// NewConciergeHandler returns an http.HandlerFunc for POST /api/book-concierge.
func NewConciergeHandler(svc Matchmaker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in matchmaking.ConciergeInput
		if !decodeJSON(w, r, &in) {
			return
		}
		booking, err := svc.BookConcierge(r.Context(), in)
		if err != nil {
			writeMatchmakingError(w, r, err)
			return
		}
		response.JSON(w, booking)
	}
}

func writeMatchmakingError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, matchmaking.ErrContactRequired):
		response.BadRequest(w, "Contact email is required")
	case errors.Is(err, blueprint.ErrNotFound):
		response.NotFound(w, "Blueprint not found")
	default:
		response.Internal(w, r, err)
	}
}
