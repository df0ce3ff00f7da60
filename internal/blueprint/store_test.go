package blueprint

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/kiranshivaraju/compass/internal/cache"
	"github.com/kiranshivaraju/compass/pkg/models"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestMemoryStore(ttl time.Duration, maxEntries int) (*MemoryStore, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	s := NewMemoryStore(ttl, maxEntries)
	s.now = clock.now
	return s, clock
}

func TestMemoryStore_SaveGet(t *testing.T) {
	s, _ := newTestMemoryStore(time.Hour, 10)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, models.Blueprint{ID: "BP-1", BudgetEstimate: "AED 1"}))

	got, err := s.Get(ctx, "BP-1")
	require.NoError(t, err)
	assert.Equal(t, "AED 1", got.BudgetEstimate)

	_, err = s.Get(ctx, "BP-missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_TTL(t *testing.T) {
	s, clock := newTestMemoryStore(time.Hour, 10)
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, models.Blueprint{ID: "BP-1"}))

	clock.advance(59 * time.Minute)
	_, err := s.Get(ctx, "BP-1")
	require.NoError(t, err)

	clock.advance(time.Minute)
	_, err = s.Get(ctx, "BP-1")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 0, s.Len())
}

func TestMemoryStore_EvictsOldest(t *testing.T) {
	s, clock := newTestMemoryStore(time.Hour, 2)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, models.Blueprint{ID: "BP-1"}))
	clock.advance(time.Second)
	require.NoError(t, s.Save(ctx, models.Blueprint{ID: "BP-2"}))
	clock.advance(time.Second)
	require.NoError(t, s.Save(ctx, models.Blueprint{ID: "BP-3"}))

	assert.Equal(t, 2, s.Len())
	_, err := s.Get(ctx, "BP-1")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Get(ctx, "BP-3")
	assert.NoError(t, err)
}

func TestMemoryStore_OverwriteDoesNotEvict(t *testing.T) {
	s, _ := newTestMemoryStore(time.Hour, 2)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, models.Blueprint{ID: "BP-1"}))
	require.NoError(t, s.Save(ctx, models.Blueprint{ID: "BP-2"}))
	require.NoError(t, s.Save(ctx, models.Blueprint{ID: "BP-2", TemplateKey: "app"}))

	assert.Equal(t, 2, s.Len())
	got, err := s.Get(ctx, "BP-2")
	require.NoError(t, err)
	assert.Equal(t, "app", got.TemplateKey)
}

func TestCacheStore_RoundTripAndExpiry(t *testing.T) {
	mr := miniredis.RunT(t)
	rc := cache.NewRedisCacheFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	s := NewCacheStore(rc, time.Hour)
	ctx := context.Background()

	bp := models.Blueprint{
		ID:               "BP-20260101-AAAAAA",
		Phases:           []models.ProjectPhase{{Name: "Discovery & Strategy"}},
		BudgetEstimate:   "AED 60,000 - 150,000",
		TimelineEstimate: "15 weeks",
	}
	require.NoError(t, s.Save(ctx, bp))
	require.NoError(t, s.Ping(ctx))

	got, err := s.Get(ctx, bp.ID)
	require.NoError(t, err)
	assert.Equal(t, bp.Phases, got.Phases)
	assert.Equal(t, bp.BudgetEstimate, got.BudgetEstimate)

	mr.FastForward(2 * time.Hour)
	_, err = s.Get(ctx, bp.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCacheStore_CorruptEntry(t *testing.T) {
	mr := miniredis.RunT(t)
	rc := cache.NewRedisCacheFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	s := NewCacheStore(rc, time.Hour)

	require.NoError(t, mr.Set(cache.BlueprintKey("BP-X"), "{not json"))
	_, err := s.Get(context.Background(), "BP-X")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}
