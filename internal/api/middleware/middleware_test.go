package middleware_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	mw "github.com/kiranshivaraju/compass/internal/api/middleware"
	"github.com/kiranshivaraju/compass/internal/metrics"
	"github.com/kiranshivaraju/compass/pkg/models"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// --- Mock KeyStore ---

type mockKeyStore struct {
	keys    []*models.APIKey
	err     error
	touched chan uuid.UUID
}

func (m *mockKeyStore) GetAPIKeyByPrefix(_ context.Context, _ string) ([]*models.APIKey, error) {
	return m.keys, m.err
}

func (m *mockKeyStore) UpdateAPIKeyLastUsed(_ context.Context, id uuid.UUID) error {
	if m.touched != nil {
		m.touched <- id
	}
	return nil
}

// --- Mock Counter ---

type mockCounter struct {
	mu       sync.Mutex
	counters map[string]int64
	keys     []string
	err      error
}

func newMockCounter() *mockCounter {
	return &mockCounter{counters: make(map[string]int64)}
}

func (m *mockCounter) IncrWithExpiry(_ context.Context, key string, _ time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	m.keys = append(m.keys, key)
	m.counters[key]++
	return m.counters[key], nil
}

// --- helpers ---

func okHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}
}

func hashKey(t *testing.T, rawKey string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(rawKey), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func errBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body["error"].(map[string]any)
}

func bearer(req *http.Request, key string) *http.Request {
	req.Header.Set("Authorization", "Bearer "+key)
	return req
}

// ========================================
// Auth Middleware Tests
// ========================================

func TestAuth_MissingAuthHeader(t *testing.T) {
	auth := mw.NewAuth(&mockKeyStore{})
	handler := auth.Authenticate(okHandler())

	req := httptest.NewRequest("GET", "/test", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "INVALID_TOKEN", errBody(t, w)["code"])
}

func TestAuth_InvalidBearerFormat(t *testing.T) {
	auth := mw.NewAuth(&mockKeyStore{})
	handler := auth.Authenticate(okHandler())

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "Basic abc123")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuth_KeyTooShort(t *testing.T) {
	auth := mw.NewAuth(&mockKeyStore{})
	handler := auth.Authenticate(okHandler())

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, bearer(httptest.NewRequest("GET", "/test", nil), "short"))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuth_KeyNotFound(t *testing.T) {
	auth := mw.NewAuth(&mockKeyStore{keys: []*models.APIKey{}})
	handler := auth.Authenticate(okHandler())

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, bearer(httptest.NewRequest("GET", "/test", nil), "cp_test1234567890"))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuth_LookupError(t *testing.T) {
	auth := mw.NewAuth(&mockKeyStore{err: errors.New("pq: connection refused")})
	handler := auth.Authenticate(okHandler())

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, bearer(httptest.NewRequest("GET", "/test", nil), "cp_test1234567890"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := errBody(t, w)
	assert.Equal(t, "INTERNAL_ERROR", body["code"])
	assert.NotContains(t, body["message"], "connection refused")
}

func TestAuth_WrongPassword(t *testing.T) {
	rawKey := "cp_test1234567890abcdef"
	ks := &mockKeyStore{keys: []*models.APIKey{{
		ID:        uuid.New(),
		KeyHash:   hashKey(t, "different_key_entirely"),
		KeyPrefix: rawKey[:8],
		Scopes:    []string{"read"},
	}}}
	handler := mw.NewAuth(ks).Authenticate(okHandler())

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, bearer(httptest.NewRequest("GET", "/test", nil), rawKey))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuth_ValidKey(t *testing.T) {
	rawKey := "cp_test1234567890abcdef"
	keyID := uuid.New()
	ks := &mockKeyStore{
		keys: []*models.APIKey{{
			ID:        keyID,
			KeyHash:   hashKey(t, rawKey),
			KeyPrefix: rawKey[:8],
			Scopes:    []string{"read", "admin"},
		}},
		touched: make(chan uuid.UUID, 1),
	}
	auth := mw.NewAuth(ks)

	var (
		gotID     uuid.UUID
		gotOK     bool
		gotPrefix string
	)
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID, gotOK = mw.GetAPIKeyID(r)
		gotPrefix, _ = mw.GetKeyPrefix(r)
		w.WriteHeader(http.StatusOK)
	})
	handler := auth.Authenticate(inner)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, bearer(httptest.NewRequest("GET", "/test", nil), rawKey))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, gotOK)
	assert.Equal(t, keyID, gotID)
	assert.Equal(t, "cp_test1", gotPrefix)

	select {
	case id := <-ks.touched:
		assert.Equal(t, keyID, id)
	case <-time.After(2 * time.Second):
		t.Fatal("last_used_at was not updated")
	}
}

func TestAuth_RequireScope_Allowed(t *testing.T) {
	rawKey := "cp_admin_1234567890abcdef"
	ks := &mockKeyStore{keys: []*models.APIKey{{
		ID:        uuid.New(),
		KeyHash:   hashKey(t, rawKey),
		KeyPrefix: rawKey[:8],
		Scopes:    []string{"read", mw.ScopeAdmin},
	}}}
	auth := mw.NewAuth(ks)

	handler := auth.Authenticate(auth.RequireScope(mw.ScopeAdmin)(okHandler()))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, bearer(httptest.NewRequest("GET", "/test", nil), rawKey))

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuth_RequireScope_Denied(t *testing.T) {
	rawKey := "cp_read__1234567890abcdef"
	ks := &mockKeyStore{keys: []*models.APIKey{{
		ID:        uuid.New(),
		KeyHash:   hashKey(t, rawKey),
		KeyPrefix: rawKey[:8],
		Scopes:    []string{"read"},
	}}}
	auth := mw.NewAuth(ks)

	handler := auth.Authenticate(auth.RequireScope(mw.ScopeAdmin)(okHandler()))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, bearer(httptest.NewRequest("GET", "/test", nil), rawKey))

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "FORBIDDEN", errBody(t, w)["code"])
}

// ========================================
// Rate Limit Middleware Tests
// ========================================

func TestRateLimit_AllowsUnderLimit(t *testing.T) {
	mc := newMockCounter()
	handler := mw.NewRateLimit(mc, 30).Limit("public")(okHandler())

	req := httptest.NewRequest("POST", "/api/generate-blueprint", nil)
	req.RemoteAddr = "203.0.113.7:51234"
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "30", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "29", w.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, w.Header().Get("X-RateLimit-Reset"))

	require.Len(t, mc.keys, 1)
	assert.Contains(t, mc.keys[0], "ratelimit:public:203.0.113.7:")
}

func TestRateLimit_RejectsOverLimit(t *testing.T) {
	mc := newMockCounter()
	handler := mw.NewRateLimit(mc, 2).Limit("public")(okHandler())

	codes := make([]int, 0, 3)
	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest("POST", "/api/book-concierge", nil)
		req.RemoteAddr = "198.51.100.1:4000"
		last = httptest.NewRecorder()
		handler.ServeHTTP(last, req)
		codes = append(codes, last.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
	assert.Equal(t, "0", last.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, last.Header().Get("Retry-After"))
	assert.Equal(t, "RATE_LIMIT_EXCEEDED", errBody(t, last)["code"])
}

func TestRateLimit_CountsClientsSeparately(t *testing.T) {
	mc := newMockCounter()
	handler := mw.NewRateLimit(mc, 1).Limit("public")(okHandler())

	for _, addr := range []string{"192.0.2.1:1000", "192.0.2.2:1000"} {
		req := httptest.NewRequest("POST", "/api/request-matchmaking", nil)
		req.RemoteAddr = addr
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code, addr)
	}
}

func TestRateLimit_FailsOpen(t *testing.T) {
	mc := newMockCounter()
	mc.err = errors.New("redis: connection refused")
	handler := mw.NewRateLimit(mc, 1).Limit("public")(okHandler())

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("POST", "/api/generate-proposal", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("X-RateLimit-Limit"))
}

func TestRateLimit_DefaultLimit(t *testing.T) {
	handler := mw.NewRateLimit(newMockCounter(), 0).Limit("public")(okHandler())

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("POST", "/test", nil))

	assert.Equal(t, "30", w.Header().Get("X-RateLimit-Limit"))
}

// ========================================
// Recovery Middleware Tests
// ========================================

func TestRecovery_CatchesPanic(t *testing.T) {
	panicking := http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		panic("something went wrong")
	})

	handler := mw.Recovery(panicking)

	req := httptest.NewRequest("GET", "/test", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "INTERNAL_ERROR", errBody(t, w)["code"])
}

func TestRecovery_NoPanic(t *testing.T) {
	handler := mw.Recovery(okHandler())

	req := httptest.NewRequest("GET", "/test", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

// ========================================
// Logging and Metrics Middleware Tests
// ========================================

func TestLogger_SetsStatus(t *testing.T) {
	handler := mw.Logger(okHandler())

	req := httptest.NewRequest("GET", "/test", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLogger_LevelByStatus(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	handler := mw.Logger(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream"))
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("POST", "/api/regenerate-section", nil))

	var entry map[string]any
	for _, line := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		var e map[string]any
		if json.Unmarshal(line, &e) == nil && e["msg"] == "request" {
			entry = e
		}
	}
	require.NotNil(t, entry, "no request log line in %q", buf.String())
	assert.Equal(t, "ERROR", entry["level"])
	assert.Equal(t, float64(http.StatusBadGateway), entry["status"])
	assert.Equal(t, float64(len("upstream")), entry["bytes"])
}

func TestMetrics_LabelsByRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(mw.Metrics)
	r.Get("/api/metrics-test/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	counter := metrics.HTTPRequests.WithLabelValues("/api/metrics-test/{id}", "GET", "404")
	before := testutil.ToFloat64(counter)

	for _, id := range []string{"a", "b"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest("GET", "/api/metrics-test/"+id, nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
	}

	assert.Equal(t, before+2, testutil.ToFloat64(counter))
}

func TestNewAPIKey_AuthenticatesAgainstItsRecord(t *testing.T) {
	raw, key, err := mw.NewAPIKey("ops", []string{mw.ScopeAdmin})
	require.NoError(t, err)

	assert.True(t, len(raw) > 8)
	assert.Equal(t, raw[:8], key.KeyPrefix)
	assert.NotContains(t, key.KeyHash, raw)
	assert.Equal(t, "ops", key.Name)

	auth := mw.NewAuth(&mockKeyStore{keys: []*models.APIKey{key}})
	handler := auth.Authenticate(auth.RequireScope(mw.ScopeAdmin)(okHandler()))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, bearer(httptest.NewRequest("POST", "/api/trigger-vectorization", nil), raw))
	assert.Equal(t, http.StatusOK, w.Code)

	other, _, err := mw.NewAPIKey("ops", nil)
	require.NoError(t, err)
	assert.NotEqual(t, raw, other)
}
