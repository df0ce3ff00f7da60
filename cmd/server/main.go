// Package main is the entrypoint for the Compass API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kiranshivaraju/compass/internal/ai"
	"github.com/kiranshivaraju/compass/internal/analyzer"
	"github.com/kiranshivaraju/compass/internal/api"
	"github.com/kiranshivaraju/compass/internal/api/handler"
	mw "github.com/kiranshivaraju/compass/internal/api/middleware"
	"github.com/kiranshivaraju/compass/internal/blueprint"
	"github.com/kiranshivaraju/compass/internal/cache"
	"github.com/kiranshivaraju/compass/internal/catalog"
	"github.com/kiranshivaraju/compass/internal/config"
	"github.com/kiranshivaraju/compass/internal/formatter"
	"github.com/kiranshivaraju/compass/internal/matcher"
	"github.com/kiranshivaraju/compass/internal/matchmaking"
	"github.com/kiranshivaraju/compass/internal/proposal"
	"github.com/kiranshivaraju/compass/internal/render"
	"github.com/kiranshivaraju/compass/internal/scraper"
	"github.com/kiranshivaraju/compass/internal/store"
	"github.com/kiranshivaraju/compass/internal/vector"
	"github.com/kiranshivaraju/compass/internal/vectorsync"
	"github.com/kiranshivaraju/compass/pkg/models"
	_ "go.uber.org/automaxprocs"
)

const shutdownTimeout = 30 * time.Second

// writeTimeout covers proposal generation, which scrapes several pages and
// then waits on the model.
const writeTimeout = 3 * time.Minute

func main() {
	slog.SetDefault(newLogger(slog.LevelInfo))

	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func newLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}

func run() error {
	// 1. Load config, fail fast on invalid config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	slog.SetDefault(newLogger(cfg.Server.LogLevel))
	slog.Info("config loaded",
		"ai_provider", cfg.AI.Provider,
		"embedding_provider", cfg.AI.EmbeddingProvider,
		"match_strategy", cfg.Vector.MatchStrategy,
		"blueprint_store", cfg.Blueprint.Store,
		"env", cfg.Server.Env,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Connect to database and run migrations
	pool, err := store.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()
	slog.Info("database connected")

	if err := store.RunMigrations(cfg.Database.URL, cfg.Database.MigrationsDir); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	slog.Info("database migrations applied")
	pgStore := store.NewPostgresStore(pool)

	// 3. Create Redis cache
	redisCache, err := cache.NewRedisCache(cfg.Redis.URL)
	if err != nil {
		return fmt.Errorf("create redis cache: %w", err)
	}
	defer redisCache.Close()

	if err := redisCache.Ping(ctx); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	slog.Info("redis connected")

	// 4. Reference data and AI providers
	cat, err := catalog.Load()
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	provider, embedder, err := newProviders(ctx, cfg.AI)
	if err != nil {
		return err
	}
	slog.Info("AI providers initialized", "provider", provider.Name(), "embedder", embedder.Name())

	// 5. Vector index and sync
	index := vector.NewHTTPClient(cfg.Vector.BaseURL(), cfg.Vector.APIKey, cfg.Vector.Timeout)
	syncer := vectorsync.New(pgStore, index, embedder, vectorsync.Options{
		AgencyCollection:  cfg.Vector.AgencyCollection,
		ProjectCollection: cfg.Vector.ProjectCollection,
		BatchSize:         cfg.Vector.BatchSize,
	})

	if n, err := vectorsync.SeedCatalogAgencies(ctx, pgStore, cat); err != nil {
		slog.Warn("seeding catalog agencies failed", "error", err)
	} else {
		slog.Info("catalog agencies seeded", "count", n)
	}

	syncDone := make(chan struct{})
	go func() {
		defer close(syncDone)
		startupSync(ctx, cfg.Vector.SyncOnStartup, syncer)
	}()

	// 6. Services
	blueprints := newBlueprintStore(cfg.Blueprint, redisCache)
	agencyMatcher := matcher.New(cfg.Vector.MatchStrategy, cat, matcher.VectorDeps{
		Index:      index,
		Embedder:   embedder,
		Collection: cfg.Vector.AgencyCollection,
		Threshold:  cfg.Vector.SimilarityThreshold,
		Candidates: cfg.Vector.MatchCandidates,
	})
	blueprintSvc := blueprint.NewService(
		analyzer.New(provider, cat),
		agencyMatcher,
		blueprint.NewAssembler(cat),
		blueprints,
		cat,
	)
	proposalSvc := proposal.NewService(provider, scraper.New(cfg.Scraper), cat, proposal.ProjectSearch{
		Index:      index,
		Embedder:   embedder,
		Collection: cfg.Vector.ProjectCollection,
		Threshold:  cfg.Vector.SimilarityThreshold,
	})
	notifier, err := newNotifier(ctx, cfg.Notify)
	if err != nil {
		return fmt.Errorf("create notifier: %w", err)
	}
	matchmakingSvc := matchmaking.NewService(pgStore, blueprints, notifier,
		matchmaking.WithCalendarBase(cfg.Concierge.CalendarBase))
	display := formatter.New(cat)
	pdf := render.NewRenderer(render.Wkhtmltopdf{
		Path:    cfg.Render.ConverterPath,
		Timeout: cfg.Render.Timeout,
	}, "")

	// 7. Build router with dependencies
	health := handler.NewHealthHandler([]handler.Check{
		{Name: "blueprint_store", Ping: blueprints.Ping, Critical: true},
		{Name: "database", Ping: pgStore.Ping},
		{Name: "cache", Ping: redisCache.Ping},
		{Name: "vector_store", Ping: index.Ready},
	}, syncer.StartupState)

	router := api.NewRouter(api.Dependencies{
		Auth:      mw.NewAuth(pgStore),
		RateLimit: mw.NewRateLimit(redisCache, cfg.RateLimit.RequestsPerMinute),

		HealthHandler:               health,
		GenerateBlueprintHandler:    handler.NewGenerateBlueprintHandler(blueprintSvc, display, cfg.Server.BaseURL),
		GetBlueprintHandler:         handler.NewGetBlueprintHandler(blueprintSvc, display),
		DownloadBlueprintHandler:    handler.NewDownloadBlueprintHandler(blueprintSvc, display, pdf),
		MatchmakingHandler:          handler.NewMatchmakingHandler(matchmakingSvc),
		ConciergeHandler:            handler.NewConciergeHandler(matchmakingSvc),
		GenerateProposalHandler:     handler.NewGenerateProposalHandler(proposalSvc),
		RegenerateSectionHandler:    handler.NewRegenerateSectionHandler(proposalSvc),
		TriggerVectorizationHandler: handler.NewTriggerVectorizationHandler(syncer),
		VectorizationStatusHandler:  handler.NewVectorizationStatusHandler(syncer),
		AnalyzeClientHandler:        handler.NewAnalyzeClientHandler(proposalSvc),
		ServiceCategoriesHandler:    handler.NewServiceCategoriesHandler(cat),
		CompetitorsHandler:          handler.NewCompetitorsHandler(cat),
		AgenciesByServiceHandler:    handler.NewAgenciesByServiceHandler(cat),
		ProjectPhasesHandler:        handler.NewProjectPhasesHandler(cat),
		IndexStatsHandler:           handler.NewIndexStatsHandler(syncer),
	})

	// 8. Start HTTP server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		slog.Info("shutdown signal received, draining connections...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	<-syncDone
	syncer.Wait()

	slog.Info("server stopped gracefully")
	return nil
}

// newProviders builds the generation provider and, when configured
// separately, the embedding provider. Both are the same instance otherwise.
func newProviders(ctx context.Context, cfg config.AIConfig) (models.AIProvider, models.AIProvider, error) {
	provider, err := ai.NewProvider(ctx, cfg, cfg.Provider)
	if err != nil {
		return nil, nil, fmt.Errorf("create AI provider: %w", err)
	}
	if cfg.EmbeddingProvider == "" || cfg.EmbeddingProvider == cfg.Provider {
		return provider, provider, nil
	}
	embedder, err := ai.NewProvider(ctx, cfg, cfg.EmbeddingProvider)
	if err != nil {
		return nil, nil, fmt.Errorf("create embedding provider: %w", err)
	}
	return provider, embedder, nil
}

// newBlueprintStore selects the blueprint store named in cfg.
func newBlueprintStore(cfg config.BlueprintConfig, c cache.Cache) blueprint.Store {
	if cfg.Store == "memory" {
		return blueprint.NewMemoryStore(cfg.TTL, cfg.MaxEntries)
	}
	return blueprint.NewCacheStore(c, cfg.TTL)
}

// newNotifier picks the team notification channel. The log channel needs no credentials.
func newNotifier(ctx context.Context, cfg config.NotifyConfig) (matchmaking.Notifier, error) {
	if cfg.Channel != "ses" {
		return matchmaking.LogNotifier{}, nil
	}
	return matchmaking.NewSESNotifier(ctx, cfg.SESRegion, cfg.FromEmail, cfg.TeamEmails)
}

// startupSync runs the startup vectorization, or records that it is disabled.
func startupSync(ctx context.Context, enabled bool, s *vectorsync.Syncer) {
	if !enabled {
		s.DisableStartup()
		slog.Info("startup vectorization disabled")
		return
	}
	if err := s.Startup(ctx); err != nil {
		slog.Warn("startup vectorization failed, agency matching will use the catalog", "error", err)
	}
}
