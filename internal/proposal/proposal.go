// Package proposal researches a prospective client and drafts a sales
// proposal from their web presence and the most similar past projects.
package proposal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kiranshivaraju/compass/internal/catalog"
	"github.com/kiranshivaraju/compass/pkg/models"
	"github.com/kiranshivaraju/compass/pkg/vectorquery"
	"golang.org/x/sync/errgroup"
)

var (
	ErrClientNameRequired = errors.New("client name is required")
	ErrWebsiteRequired    = errors.New("website is required")
	ErrSectionRequired    = errors.New("section name is required")
	ErrProfileSchema      = errors.New("model reply does not match the profile schema")
)

// Section headers, in the order the proposal presents them.
var Sections = []string{
	"EXECUTIVE SUMMARY",
	"UNDERSTANDING YOUR BUSINESS",
	"PROPOSED SOLUTION",
	"WHY US",
	"TECHNOLOGY APPROACH",
	"PROJECT TIMELINE & APPROACH",
	"NEXT STEPS",
}

// maxConcurrentScrapes bounds the fetches made for one proposal.
const maxConcurrentScrapes = 4

// Scraper fetches page text. Implementations never fail; unreachable pages
// come back with OK=false.
type Scraper interface {
	Scrape(ctx context.Context, url string) models.ScrapedPage
}

// Request is the input to Generate.
type Request struct {
	ClientName         string   `json:"client_name"`
	Website            string   `json:"website"`
	SocialURLs         []string `json:"social_urls"`
	CustomRequirements string   `json:"custom_requirements"`
}

// SectionRequest asks for one section to be rewritten.
type SectionRequest struct {
	Section      string `json:"section_name"`
	Context      string `json:"context"`
	Requirements string `json:"requirements"`
}

// SectionResult is a regenerated section.
type SectionResult struct {
	Section       string    `json:"section_name"`
	Content       string    `json:"section_content"`
	RegeneratedAt time.Time `json:"regenerated_at"`
}

// Service generates proposals. It is safe for concurrent use.
type Service struct {
	provider models.AIProvider
	scraper  Scraper
	catalog  *catalog.Catalog
	search   ProjectSearch
	queries  vectorquery.QueryBuilder
	now      func() time.Time
}

func NewService(provider models.AIProvider, scraper Scraper, cat *catalog.Catalog, search ProjectSearch) *Service {
	return &Service{
		provider: provider,
		scraper:  scraper,
		catalog:  cat,
		search:   search,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Generate scrapes the client's pages, extracts a profile, finds similar
// projects and drafts the proposal. Model failures produce a templated
// proposal; the only errors are validation errors and cancellation.
func (s *Service) Generate(ctx context.Context, req Request) (*models.Proposal, error) {
	req.ClientName = strings.TrimSpace(req.ClientName)
	if req.ClientName == "" {
		return nil, ErrClientNameRequired
	}
	start := time.Now()

	website, social := s.research(ctx, req)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	profile, profileSource := s.ExtractProfile(ctx, website, social)

	similar, err := s.SimilarProjects(ctx, profile)
	if err != nil {
		slog.Warn("similar project search failed", "client", req.ClientName, "error", err)
		similar = []models.SimilarProject{}
	}

	content, source := s.draft(ctx, req, profile, similar)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p := &models.Proposal{
		ClientName:      req.ClientName,
		Profile:         profile,
		SimilarProjects: similar,
		Content:         content,
		Sections:        ParseSections(content),
		WordCount:       len(strings.Fields(content)),
		Source:          source,
		GeneratedAt:     s.now(),
	}
	slog.Info("proposal generated",
		"client", req.ClientName,
		"source", source,
		"profile_source", profileSource,
		"similar_projects", len(similar),
		"word_count", p.WordCount,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return p, nil
}

// research scrapes the website and social links concurrently. It returns the
// website text and the readable social text keyed by platform.
func (s *Service) research(ctx context.Context, req Request) (string, map[string]string) {
	urls := make([]string, 0, len(req.SocialURLs)+1)
	if w := strings.TrimSpace(req.Website); w != "" {
		urls = append(urls, w)
	}
	for _, u := range req.SocialURLs {
		if u = strings.TrimSpace(u); u != "" {
			urls = append(urls, u)
		}
	}

	pages := make([]models.ScrapedPage, len(urls))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentScrapes)
	for i, u := range urls {
		g.Go(func() error {
			pages[i] = s.scraper.Scrape(gctx, u)
			return nil
		})
	}
	_ = g.Wait()

	var website string
	social := make(map[string]string)
	for i, page := range pages {
		if i == 0 && strings.TrimSpace(req.Website) != "" {
			website = page.Content
			continue
		}
		if !page.OK {
			continue
		}
		if prev, ok := social[page.Platform]; ok {
			social[page.Platform] = prev + " " + page.Content
		} else {
			social[page.Platform] = page.Content
		}
	}
	return website, social
}

func (s *Service) draft(ctx context.Context, req Request, profile models.ClientProfile, similar []models.SimilarProject) (string, string) {
	completion, err := s.provider.Generate(ctx, models.CompletionRequest{
		System:      proposalSystemPrompt,
		Prompt:      buildProposalPrompt(req, profile, similar),
		MaxTokens:   4096,
		Temperature: 0.7,
	})
	if err == nil && strings.TrimSpace(completion.Text) != "" {
		return strings.TrimSpace(completion.Text), models.SourceModel
	}
	if err == nil {
		err = errors.New("empty reply")
	}
	slog.Warn("proposal generation fell back to template", "client", req.ClientName, "provider", s.provider.Name(), "error", err)
	return FallbackProposal(req.ClientName, profile, similar), models.SourceFallback
}

// RegenerateSection rewrites a single section. Model errors are returned
// wrapped so callers can tell unavailability from timeouts.
func (s *Service) RegenerateSection(ctx context.Context, req SectionRequest) (SectionResult, error) {
	section := strings.TrimSpace(req.Section)
	if section == "" {
		return SectionResult{}, ErrSectionRequired
	}

	completion, err := s.provider.Generate(ctx, models.CompletionRequest{
		System:      proposalSystemPrompt,
		Prompt:      buildSectionPrompt(section, req.Context, req.Requirements),
		MaxTokens:   1024,
		Temperature: 0.7,
	})
	if err != nil {
		return SectionResult{}, fmt.Errorf("regenerating section %q: %w", section, err)
	}
	return SectionResult{
		Section:       section,
		Content:       strings.TrimSpace(completion.Text),
		RegeneratedAt: s.now(),
	}, nil
}

// ParseSections splits markdown content on lines starting with '#'. Text
// before the first header is dropped.
func ParseSections(content string) []models.ProposalSection {
	sections := []models.ProposalSection{}
	var current *models.ProposalSection
	var body []string

	flush := func() {
		if current == nil {
			return
		}
		current.Content = strings.TrimSpace(strings.Join(body, "\n"))
		sections = append(sections, *current)
	}

	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") {
			flush()
			current = &models.ProposalSection{Title: strings.TrimSpace(strings.TrimLeft(trimmed, "#"))}
			body = body[:0]
			continue
		}
		if current != nil {
			body = append(body, line)
		}
	}
	flush()
	return sections
}
