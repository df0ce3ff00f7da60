package proposal

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/kiranshivaraju/compass/pkg/models"
)

// ClientAnalysis is the research half of a proposal: the extracted profile
// and the past projects closest to it.
type ClientAnalysis struct {
	ClientName       string                  `json:"client_name"`
	Profile          models.ClientProfile    `json:"scraped_data"`
	ProfileSource    string                  `json:"profile_source"`
	MatchedProjects  []models.SimilarProject `json:"matched_projects"`
	AnalyzedAt       time.Time               `json:"analysis_timestamp"`
	ProcessingTimeMs int64                   `json:"processing_time_ms"`
}

// AnalyzeClient scrapes the client's pages, extracts a profile and finds
// similar projects without drafting a proposal. Search failures leave
// MatchedProjects empty.
func (s *Service) AnalyzeClient(ctx context.Context, req Request) (*ClientAnalysis, error) {
	req.ClientName = strings.TrimSpace(req.ClientName)
	if req.ClientName == "" {
		return nil, ErrClientNameRequired
	}
	if strings.TrimSpace(req.Website) == "" {
		return nil, ErrWebsiteRequired
	}
	start := time.Now()

	website, social := s.research(ctx, req)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	profile, source := s.ExtractProfile(ctx, website, social)
	similar, err := s.SimilarProjects(ctx, profile)
	if err != nil {
		slog.Warn("similar project search failed", "client", req.ClientName, "error", err)
		similar = []models.SimilarProject{}
	}

	elapsed := time.Since(start)
	slog.Info("client analyzed",
		"client", req.ClientName,
		"profile_source", source,
		"matched_projects", len(similar),
		"duration_ms", elapsed.Milliseconds(),
	)
	return &ClientAnalysis{
		ClientName:       req.ClientName,
		Profile:          profile,
		ProfileSource:    source,
		MatchedProjects:  similar,
		AnalyzedAt:       s.now(),
		ProcessingTimeMs: elapsed.Milliseconds(),
	}, nil
}
