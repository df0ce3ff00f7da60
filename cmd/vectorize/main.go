// Command vectorize seeds the catalog agencies and runs one full sync of
// agencies and projects into the vector index, then exits.
//
//	vectorize [-projects portfolio.yaml]
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kiranshivaraju/compass/internal/ai"
	"github.com/kiranshivaraju/compass/internal/catalog"
	"github.com/kiranshivaraju/compass/internal/config"
	"github.com/kiranshivaraju/compass/internal/store"
	"github.com/kiranshivaraju/compass/internal/vector"
	"github.com/kiranshivaraju/compass/internal/vectorsync"
	_ "go.uber.org/automaxprocs"
)

const (
	readyAttempts = 30
	readyInterval = 2 * time.Second
)

type readier interface {
	Ready(ctx context.Context) error
}

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	if err := run(); err != nil {
		slog.Error("vectorization failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	projectsFile := flag.String("projects", "", "YAML file of portfolio projects to import before syncing")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Server.LogLevel})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := store.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	if err := store.RunMigrations(cfg.Database.URL, cfg.Database.MigrationsDir); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	pgStore := store.NewPostgresStore(pool)

	cat, err := catalog.Load()
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	embedder, err := ai.NewProvider(ctx, cfg.AI, cfg.AI.EmbeddingProvider)
	if err != nil {
		return fmt.Errorf("create embedding provider: %w", err)
	}

	index := vector.NewHTTPClient(cfg.Vector.BaseURL(), cfg.Vector.APIKey, cfg.Vector.Timeout)
	if err := waitReady(ctx, index, readyAttempts, readyInterval); err != nil {
		return err
	}

	seeded, err := vectorsync.SeedCatalogAgencies(ctx, pgStore, cat)
	if err != nil {
		return fmt.Errorf("seed catalog agencies: %w", err)
	}
	slog.Info("catalog agencies seeded", "count", seeded)

	if *projectsFile != "" {
		data, err := os.ReadFile(*projectsFile)
		if err != nil {
			return fmt.Errorf("read projects file: %w", err)
		}
		created, skipped, err := importProjects(ctx, pgStore, data)
		if err != nil {
			return fmt.Errorf("import projects: %w", err)
		}
		slog.Info("projects imported", "created", created, "skipped", skipped)
	}

	syncer := vectorsync.New(pgStore, index, embedder, vectorsync.Options{
		AgencyCollection:  cfg.Vector.AgencyCollection,
		ProjectCollection: cfg.Vector.ProjectCollection,
		BatchSize:         cfg.Vector.BatchSize,
	})
	n, err := syncer.Run(ctx, "cli")
	if err != nil {
		return fmt.Errorf("run sync: %w", err)
	}
	slog.Info("vectorization complete", "documents", n, "embedder", embedder.Name())
	return nil
}

// waitReady polls r until it answers, making at most attempts calls spaced
// interval apart.
func waitReady(ctx context.Context, r readier, attempts int, interval time.Duration) error {
	var err error
	for i := 1; i <= attempts; i++ {
		if err = r.Ready(ctx); err == nil {
			return nil
		}
		slog.Info("waiting for vector store", "attempt", i, "of", attempts, "error", err)
		if i == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
	return fmt.Errorf("vector store not ready after %d attempts: %w", attempts, err)
}
