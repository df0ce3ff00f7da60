package blueprint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/kiranshivaraju/compass/internal/cache"
	"github.com/kiranshivaraju/compass/pkg/models"
)

// ErrNotFound is returned when no blueprint exists for an id, including
// blueprints that have expired.
var ErrNotFound = errors.New("blueprint not found")

// Store keeps generated blueprints for later retrieval and download.
type Store interface {
	Save(ctx context.Context, bp models.Blueprint) error
	Get(ctx context.Context, id string) (models.Blueprint, error)
	Ping(ctx context.Context) error
}

// CacheStore keeps blueprints as JSON in the Redis cache with a TTL.
type CacheStore struct {
	cache cache.Cache
	ttl   time.Duration
}

func NewCacheStore(c cache.Cache, ttl time.Duration) *CacheStore {
	return &CacheStore{cache: c, ttl: ttl}
}

func (s *CacheStore) Save(ctx context.Context, bp models.Blueprint) error {
	data, err := json.Marshal(bp)
	if err != nil {
		return fmt.Errorf("encoding blueprint %s: %w", bp.ID, err)
	}
	if err := s.cache.Set(ctx, cache.BlueprintKey(bp.ID), data, s.ttl); err != nil {
		return fmt.Errorf("saving blueprint %s: %w", bp.ID, err)
	}
	return nil
}

func (s *CacheStore) Get(ctx context.Context, id string) (models.Blueprint, error) {
	data, found, err := s.cache.Get(ctx, cache.BlueprintKey(id))
	if err != nil {
		return models.Blueprint{}, fmt.Errorf("loading blueprint %s: %w", id, err)
	}
	if !found {
		return models.Blueprint{}, ErrNotFound
	}
	var bp models.Blueprint
	if err := json.Unmarshal(data, &bp); err != nil {
		return models.Blueprint{}, fmt.Errorf("decoding blueprint %s: %w", id, err)
	}
	return bp, nil
}

func (s *CacheStore) Ping(ctx context.Context) error {
	return s.cache.Ping(ctx)
}

// MemoryStore is an in-process Store bounded by TTL and entry count. When
// full, the oldest entry is evicted.
type MemoryStore struct {
	mu         sync.Mutex
	entries    map[string]memoryEntry
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
}

type memoryEntry struct {
	blueprint models.Blueprint
	storedAt  time.Time
}

func NewMemoryStore(ttl time.Duration, maxEntries int) *MemoryStore {
	return &MemoryStore{
		entries:    make(map[string]memoryEntry),
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

func (s *MemoryStore) Save(_ context.Context, bp models.Blueprint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.expireLocked(now)
	if _, exists := s.entries[bp.ID]; !exists && s.maxEntries > 0 {
		for len(s.entries) >= s.maxEntries {
			s.evictOldestLocked()
		}
	}
	s.entries[bp.ID] = memoryEntry{blueprint: bp, storedAt: now}
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (models.Blueprint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return models.Blueprint{}, ErrNotFound
	}
	if s.expired(e, s.now()) {
		delete(s.entries, id)
		return models.Blueprint{}, ErrNotFound
	}
	return e.blueprint, nil
}

func (s *MemoryStore) Ping(_ context.Context) error { return nil }

// Len returns the number of stored entries, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *MemoryStore) expired(e memoryEntry, now time.Time) bool {
	return s.ttl > 0 && now.Sub(e.storedAt) >= s.ttl
}

func (s *MemoryStore) expireLocked(now time.Time) {
	for id, e := range s.entries {
		if s.expired(e, now) {
			delete(s.entries, id)
		}
	}
}

func (s *MemoryStore) evictOldestLocked() {
	var oldestID string
	var oldest time.Time
	for id, e := range s.entries {
		if oldestID == "" || e.storedAt.Before(oldest) || (e.storedAt.Equal(oldest) && id < oldestID) {
			oldestID, oldest = id, e.storedAt
		}
	}
	delete(s.entries, oldestID)
}

var (
	_ Store = (*CacheStore)(nil)
	_ Store = (*MemoryStore)(nil)
)
