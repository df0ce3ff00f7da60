package main

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/kiranshivaraju/compass/internal/blueprint"
	"github.com/kiranshivaraju/compass/internal/cache"
	"github.com/kiranshivaraju/compass/internal/config"
	"github.com/kiranshivaraju/compass/internal/matchmaking"
	"github.com/kiranshivaraju/compass/internal/vector"
	"github.com/kiranshivaraju/compass/internal/vectorsync"
	"github.com/kiranshivaraju/compass/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ─── run() config validation tests ──────────────────────────────────────────

func TestRun_FailsOnMissingConfig(t *testing.T) {
	clearConfigEnv(t)

	err := run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load config")
}

func TestRun_FailsOnInvalidDatabaseURL(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("DATABASE_URL", "not-a-valid-url")
	t.Setenv("REDIS_URL", "redis://localhost:6379")
	t.Setenv("AI_PROVIDER", "offline")

	err := run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connect database")
}

// ─── wiring helpers ─────────────────────────────────────────────────────────

func TestNewProviders_SharedWhenSame(t *testing.T) {
	provider, embedder, err := newProviders(context.Background(), config.AIConfig{
		Provider:          "offline",
		EmbeddingProvider: "offline",
	})
	require.NoError(t, err)
	assert.Same(t, provider, embedder)
	assert.Equal(t, "offline", provider.Name())
}

func TestNewProviders_UnknownProvider(t *testing.T) {
	_, _, err := newProviders(context.Background(), config.AIConfig{Provider: "skynet"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create AI provider")
}

func TestNewBlueprintStore_Memory(t *testing.T) {
	s := newBlueprintStore(config.BlueprintConfig{Store: "memory", TTL: time.Hour, MaxEntries: 2}, nil)

	_, ok := s.(*blueprint.MemoryStore)
	assert.True(t, ok, "got %T", s)
}

func TestNewBlueprintStore_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	c, err := cache.NewRedisCache("redis://" + mr.Addr())
	require.NoError(t, err)
	defer c.Close()

	s := newBlueprintStore(config.BlueprintConfig{Store: "redis", TTL: time.Hour}, c)
	_, ok := s.(*blueprint.CacheStore)
	require.True(t, ok, "got %T", s)

	ctx := context.Background()
	require.NoError(t, s.Save(ctx, models.Blueprint{ID: "BP-20260305-ABC123"}))
	got, err := s.Get(ctx, "BP-20260305-ABC123")
	require.NoError(t, err)
	assert.Equal(t, "BP-20260305-ABC123", got.ID)
	assert.True(t, mr.Exists(cache.BlueprintKey("BP-20260305-ABC123")))
}

func TestStartupSync_Disabled(t *testing.T) {
	s := vectorsync.New(nil, vector.NewMemoryClient(), nil, vectorsync.Options{})

	startupSync(context.Background(), false, s)

	assert.Equal(t, vectorsync.StartupDisabled, s.StartupState())
}

func TestNewNotifier(t *testing.T) {
	n, err := newNotifier(context.Background(), config.NotifyConfig{Channel: "log"})
	require.NoError(t, err)
	assert.IsType(t, matchmaking.LogNotifier{}, n)

	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test")
	n, err = newNotifier(context.Background(), config.NotifyConfig{
		Channel:    "ses",
		SESRegion:  "me-central-1",
		FromEmail:  "compass@example.com",
		TeamEmails: []string{"team@example.com"},
	})
	require.NoError(t, err)
	assert.IsType(t, &matchmaking.EmailNotifier{}, n)
}

// ─── shutdown timeout constant test ─────────────────────────────────────────

func TestShutdownTimeout(t *testing.T) {
	assert.Equal(t, 30*time.Second, shutdownTimeout)
}

// ─── helper: clear env ──────────────────────────────────────────────────────

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"DATABASE_URL", "REDIS_URL", "AI_PROVIDER", "AI_EMBEDDING_PROVIDER",
		"GEMINI_API_KEY", "OPENAI_API_KEY", "ANTHROPIC_API_KEY",
	} {
		t.Setenv(key, "")
	}
}
