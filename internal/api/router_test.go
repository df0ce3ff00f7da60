package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/compass/internal/api"
	mw "github.com/kiranshivaraju/compass/internal/api/middleware"
	"github.com/kiranshivaraju/compass/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// --- stub key store ---

type stubKeyStore struct {
	keys []*models.APIKey
}

func (s *stubKeyStore) GetAPIKeyByPrefix(_ context.Context, _ string) ([]*models.APIKey, error) {
	return s.keys, nil
}
func (s *stubKeyStore) UpdateAPIKeyLastUsed(_ context.Context, _ uuid.UUID) error { return nil }

// --- stub counter ---

type stubCounter struct {
	count int64
}

func (c *stubCounter) IncrWithExpiry(_ context.Context, _ string, _ time.Duration) (int64, error) {
	c.count++
	return c.count, nil
}

// --- router tests ---

func ok(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"data":{}}`))
}

func newTestRouter(t *testing.T, keys ...*models.APIKey) http.Handler {
	t.Helper()
	return api.NewRouter(api.Dependencies{
		Auth:                        mw.NewAuth(&stubKeyStore{keys: keys}),
		RateLimit:                   mw.NewRateLimit(&stubCounter{}, 2),
		HealthHandler:               ok,
		GenerateBlueprintHandler:    ok,
		GetBlueprintHandler:         ok,
		TriggerVectorizationHandler: ok,
		ServiceCategoriesHandler:    ok,
		CompetitorsHandler:          ok,
		AgenciesByServiceHandler:    ok,
		ProjectPhasesHandler:        ok,
		IndexStatsHandler:           ok,
	})
}

func apiKey(t *testing.T, raw string, scopes ...string) *models.APIKey {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(raw), bcrypt.MinCost)
	require.NoError(t, err)
	return &models.APIKey{ID: uuid.New(), KeyHash: string(h), KeyPrefix: raw[:8], Scopes: scopes}
}

func TestRouter_PublicEndpoints(t *testing.T) {
	router := newTestRouter(t)

	for _, ep := range []struct{ method, path string }{
		{"GET", "/api/health"},
		{"GET", "/api/blueprint/BP-20260305-ABC123"},
		{"POST", "/api/generate-blueprint"},
		{"GET", "/api/service-categories"},
		{"GET", "/api/competitors/perfume"},
		{"GET", "/api/agencies/web_development"},
		{"GET", "/api/project-phases/hospitality"},
		{"GET", "/api/chroma-stats"},
	} {
		t.Run(ep.method+" "+ep.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(ep.method, ep.path, nil))
			assert.Equal(t, http.StatusOK, w.Code)
		})
	}
}

func TestRouter_UnwiredEndpointsReturn501(t *testing.T) {
	router := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("POST", "/api/book-concierge", nil))
	assert.Equal(t, http.StatusNotImplemented, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("POST", "/api/analyze-client", nil))
	assert.Equal(t, http.StatusNotImplemented, w.Code)
}

func TestRouter_TriggerVectorization_RequiresAuth(t *testing.T) {
	router := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("POST", "/api/trigger-vectorization", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	errObj := body["error"].(map[string]any)
	assert.Equal(t, "INVALID_TOKEN", errObj["code"])
}

func TestRouter_TriggerVectorization_RequiresAdminScope(t *testing.T) {
	reader := "cp_read__1234567890abcdef"
	admin := "cp_admin_1234567890abcdef"
	router := newTestRouter(t, apiKey(t, reader, "read"), apiKey(t, admin, mw.ScopeAdmin))

	req := httptest.NewRequest("POST", "/api/trigger-vectorization", nil)
	req.Header.Set("Authorization", "Bearer "+reader)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	req = httptest.NewRequest("POST", "/api/trigger-vectorization", nil)
	req.Header.Set("Authorization", "Bearer "+admin)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_PublicWritesAreRateLimited(t *testing.T) {
	router := newTestRouter(t)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("POST", "/api/generate-blueprint", nil))
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	// Reads are not limited.
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/blueprint/BP-20260305-ABC123", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_Metrics(t *testing.T) {
	router := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/health", nil))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "compass_http_requests_total"))
}

func TestRouter_NotFound(t *testing.T) {
	router := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/nonexistent", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
}
