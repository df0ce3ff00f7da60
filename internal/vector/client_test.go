package vector

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

// --- helpers ---

func chromaServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	return httptest.NewServer(handler)
}

func newTestClient(t *testing.T, baseURL string) *HTTPClient {
	t.Helper()
	return NewHTTPClient(baseURL+"/api/v1", "secret", 5*time.Second)
}

func writeCollection(w http.ResponseWriter, id string) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(collectionResponse{ID: id, Name: "agencies"})
}

// --- Ready ---

func TestReady_OK(t *testing.T) {
	ts := chromaServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/heartbeat" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("unexpected auth header: %q", got)
		}
		w.Write([]byte(`{"nanosecond heartbeat": 1}`))
	})
	defer ts.Close()

	if err := newTestClient(t, ts.URL).Ready(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestReady_BadStatus(t *testing.T) {
	ts := chromaServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	defer ts.Close()

	err := newTestClient(t, ts.URL).Ready(context.Background())
	if !errors.Is(err, ErrUnreachable) {
		t.Fatalf("expected ErrUnreachable, got %v", err)
	}
}

func TestReady_ConnectionRefused(t *testing.T) {
	c := NewHTTPClient("http://127.0.0.1:1/api/v1", "", time.Second)
	err := c.Ready(context.Background())
	if !errors.Is(err, ErrUnreachable) {
		t.Fatalf("expected ErrUnreachable, got %v", err)
	}
}

// --- EnsureCollection ---

func TestEnsureCollection_CachesID(t *testing.T) {
	var calls int32
	ts := chromaServer(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		if r.Method != http.MethodPost || r.URL.Path != "/api/v1/collections" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var body createCollectionRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if body.Name != "agencies" || !body.GetOrCreate {
			t.Errorf("unexpected body: %+v", body)
		}
		if body.Metadata["hnsw:space"] != "cosine" {
			t.Errorf("expected cosine space, got %v", body.Metadata)
		}
		writeCollection(w, "c-123")
	})
	defer ts.Close()

	c := newTestClient(t, ts.URL)
	for i := 0; i < 3; i++ {
		id, err := c.EnsureCollection(context.Background(), "agencies")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if id != "c-123" {
			t.Errorf("expected c-123, got %s", id)
		}
	}
	if calls != 1 {
		t.Errorf("expected 1 create call, got %d", calls)
	}
}

func TestEnsureCollection_ServerError(t *testing.T) {
	ts := chromaServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"boom"}`, http.StatusInternalServerError)
	})
	defer ts.Close()

	_, err := newTestClient(t, ts.URL).EnsureCollection(context.Background(), "agencies")
	if !errors.Is(err, ErrQuery) {
		t.Fatalf("expected ErrQuery, got %v", err)
	}
}

// --- Upsert ---

func TestUpsert_SendsParallelArrays(t *testing.T) {
	ts := chromaServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/collections":
			writeCollection(w, "c-1")
		case "/api/v1/collections/c-1/upsert":
			var body upsertRequest
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if len(body.IDs) != 2 || len(body.Embeddings) != 2 || len(body.Documents) != 2 || len(body.Metadatas) != 2 {
				t.Errorf("arrays not parallel: %+v", body)
			}
			if body.IDs[1] != "agency_2" || body.Metadatas[1]["name"] != "Beta" {
				t.Errorf("unexpected second doc: %v %v", body.IDs[1], body.Metadatas[1])
			}
			w.Write([]byte("true"))
		default:
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
	})
	defer ts.Close()

	err := newTestClient(t, ts.URL).Upsert(context.Background(), "agencies", []Document{
		{ID: "agency_1", Embedding: []float32{1, 0}, Text: "Alpha", Metadata: map[string]any{"name": "Alpha"}},
		{ID: "agency_2", Embedding: []float32{0, 1}, Text: "Beta", Metadata: map[string]any{"name": "Beta"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestUpsert_EmptyIsNoop(t *testing.T) {
	ts := chromaServer(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("no request expected, got %s", r.URL.Path)
	})
	defer ts.Close()

	if err := newTestClient(t, ts.URL).Upsert(context.Background(), "agencies", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// --- Query ---

func TestQuery_ParsesFirstRow(t *testing.T) {
	ts := chromaServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/collections":
			writeCollection(w, "c-1")
		case "/api/v1/collections/c-1/query":
			var body queryRequest
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.NResults != 5 || len(body.QueryEmbeddings) != 1 {
				t.Errorf("unexpected body: %+v", body)
			}
			w.Write([]byte(`{
				"ids": [["agency_3", "agency_1"]],
				"documents": [["Tech", "Creative"]],
				"metadatas": [[{"name": "TechFlow"}, {"name": "Creative Minds"}]],
				"distances": [[0.2, 0.9]]
			}`))
		default:
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
	})
	defer ts.Close()

	matches, err := newTestClient(t, ts.URL).Query(context.Background(), "agencies", []float32{1, 0}, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}
	if matches[0].ID != "agency_3" || matches[0].MetaString("name") != "TechFlow" || matches[0].Distance != 0.2 {
		t.Errorf("unexpected first match: %+v", matches[0])
	}
	if matches[1].Document != "Creative" {
		t.Errorf("unexpected second document: %q", matches[1].Document)
	}
}

func TestQuery_EmptyResult(t *testing.T) {
	ts := chromaServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v1/collections" {
			writeCollection(w, "c-1")
			return
		}
		w.Write([]byte(`{"ids": [], "documents": [], "metadatas": [], "distances": []}`))
	})
	defer ts.Close()

	matches, err := newTestClient(t, ts.URL).Query(context.Background(), "agencies", []float32{1}, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("expected no matches, got %d", len(matches))
	}
}

func TestQuery_Timeout(t *testing.T) {
	ts := chromaServer(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		writeCollection(w, "c-1")
	})
	defer ts.Close()

	c := NewHTTPClient(ts.URL+"/api/v1", "", 50*time.Millisecond)
	_, err := c.Query(context.Background(), "agencies", []float32{1}, 3)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}

// --- Count ---

func TestCount(t *testing.T) {
	ts := chromaServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/collections":
			writeCollection(w, "c-9")
		case "/api/v1/collections/c-9/count":
			w.Write([]byte("42"))
		default:
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
	})
	defer ts.Close()

	n, err := newTestClient(t, ts.URL).Count(context.Background(), "projects")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 42 {
		t.Errorf("expected 42, got %d", n)
	}
}

func TestIDs_ListsCollection(t *testing.T) {
	ts := chromaServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/collections":
			writeCollection(w, "c-3")
		case "/api/v1/collections/c-3/get":
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"ids":["a","b"],"documents":null,"metadatas":null}`))
		default:
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
	})
	defer ts.Close()

	ids, err := newTestClient(t, ts.URL).IDs(context.Background(), "projects")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ids) != 2 || ids[0] != "a" || ids[1] != "b" {
		t.Errorf("unexpected ids: %v", ids)
	}
}

func TestDelete_SendsIDs(t *testing.T) {
	ts := chromaServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/collections":
			writeCollection(w, "c-4")
		case "/api/v1/collections/c-4/delete":
			var body deleteRequest
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if len(body.IDs) != 1 || body.IDs[0] != "stale" {
				t.Errorf("unexpected ids: %v", body.IDs)
			}
			w.Write([]byte("[]"))
		default:
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
	})
	defer ts.Close()

	if err := newTestClient(t, ts.URL).Delete(context.Background(), "projects", []string{"stale"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDelete_EmptyIsNoop(t *testing.T) {
	ts := chromaServer(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("no request expected, got %s", r.URL.Path)
	})
	defer ts.Close()

	if err := newTestClient(t, ts.URL).Delete(context.Background(), "projects", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// --- Similarity ---

func TestSimilarity(t *testing.T) {
	cases := map[float64]float64{0: 1, 1: 0.5, 2: 0, 3: 0, -1: 1}
	for d, want := range cases {
		if got := Similarity(d); got != want {
			t.Errorf("Similarity(%v) = %v, want %v", d, got, want)
		}
	}
}

// --- MemoryClient ---

func TestMemoryClient_QueryOrdersByDistance(t *testing.T) {
	m := NewMemoryClient()
	ctx := context.Background()
	err := m.Upsert(ctx, "agencies", []Document{
		{ID: "a", Embedding: []float32{1, 0}},
		{ID: "b", Embedding: []float32{0, 1}},
		{ID: "c", Embedding: []float32{1, 1}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	matches, err := m.Query(ctx, "agencies", []float32{1, 0}, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(matches) != 2 || matches[0].ID != "a" || matches[1].ID != "c" {
		t.Errorf("unexpected order: %+v", matches)
	}

	n, _ := m.Count(ctx, "agencies")
	if n != 3 {
		t.Errorf("expected 3, got %d", n)
	}
}

func TestMemoryClient_Delete(t *testing.T) {
	m := NewMemoryClient()
	ctx := context.Background()
	if err := m.Upsert(ctx, "projects", []Document{{ID: "a"}, {ID: "b"}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := m.Delete(ctx, "projects", []string{"a", "missing"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ids, _ := m.IDs(ctx, "projects")
	if len(ids) != 1 || ids[0] != "b" {
		t.Errorf("unexpected ids after delete: %v", ids)
	}
}

func TestMemoryClient_Err(t *testing.T) {
	m := NewMemoryClient()
	m.Err = ErrUnreachable
	if _, err := m.Query(context.Background(), "x", nil, 1); !errors.Is(err, ErrUnreachable) {
		t.Fatalf("expected ErrUnreachable, got %v", err)
	}
}
