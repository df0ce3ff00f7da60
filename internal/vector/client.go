// Package vector is a small client for the ChromaDB REST API (v1), covering
// the collection, upsert and query calls used for agency and project search.
package vector

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// Sentinel errors for vector store failures.
var (
	ErrUnreachable = errors.New("vector store unreachable")
	ErrQuery       = errors.New("vector store query error")
	ErrTimeout     = errors.New("vector store timeout")
)

// Client is the interface for the vector store.
type Client interface {
	// EnsureCollection creates the collection if needed and returns its id.
	EnsureCollection(ctx context.Context, name string) (string, error)
	Upsert(ctx context.Context, collection string, docs []Document) error
	Query(ctx context.Context, collection string, embedding []float32, n int) ([]Match, error)
	Count(ctx context.Context, collection string) (int, error)
	// IDs lists every document id in the collection.
	IDs(ctx context.Context, collection string) ([]string, error)
	Delete(ctx context.Context, collection string, ids []string) error
	Ready(ctx context.Context) error
}

// Document is one record written to a collection. Metadata values must be
// strings, numbers or booleans.
type Document struct {
	ID        string
	Embedding []float32
	Text      string
	Metadata  map[string]any
}

// Match is one query hit. Distance is cosine distance in [0, 2].
type Match struct {
	ID       string
	Document string
	Metadata map[string]any
	Distance float64
}

// Similarity converts a cosine distance into a score in [0, 1].
func Similarity(distance float64) float64 {
	s := 1 - distance/2
	if s < 0 {
		return 0
	}
	if s > 1 {
		return 1
	}
	return s
}

// MetaString returns a string metadata value, or "".
func (m Match) MetaString(key string) string {
	if v, ok := m.Metadata[key].(string); ok {
		return v
	}
	return ""
}

// HTTPClient implements Client using ChromaDB's HTTP API.
type HTTPClient struct {
	baseURL string
	apiKey  string
	client  *http.Client

	mu  sync.RWMutex
	ids map[string]string
}

// NewHTTPClient creates a client for baseURL, e.g. http://localhost:8000/api/v1.
func NewHTTPClient(baseURL, apiKey string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
		ids:     make(map[string]string),
	}
}

func (c *HTTPClient) Ready(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodGet, "/heartbeat", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: heartbeat status %d", ErrUnreachable, resp.StatusCode)
	}
	return nil
}

func (c *HTTPClient) EnsureCollection(ctx context.Context, name string) (string, error) {
	c.mu.RLock()
	id, ok := c.ids[name]
	c.mu.RUnlock()
	if ok {
		return id, nil
	}

	body := createCollectionRequest{
		Name:        name,
		Metadata:    map[string]any{"hnsw:space": "cosine"},
		GetOrCreate: true,
	}
	resp, err := c.do(ctx, http.MethodPost, "/collections", body)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return "", err
	}

	var coll collectionResponse
	if err := json.NewDecoder(resp.Body).Decode(&coll); err != nil {
		return "", fmt.Errorf("decoding collection response: %w", err)
	}
	if coll.ID == "" {
		return "", fmt.Errorf("%w: collection %q returned no id", ErrQuery, name)
	}

	c.mu.Lock()
	c.ids[name] = coll.ID
	c.mu.Unlock()
	return coll.ID, nil
}

func (c *HTTPClient) Upsert(ctx context.Context, collection string, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}
	id, err := c.EnsureCollection(ctx, collection)
	if err != nil {
		return err
	}

	body := upsertRequest{
		IDs:        make([]string, len(docs)),
		Embeddings: make([][]float32, len(docs)),
		Documents:  make([]string, len(docs)),
		Metadatas:  make([]map[string]any, len(docs)),
	}
	for i, d := range docs {
		body.IDs[i] = d.ID
		body.Embeddings[i] = d.Embedding
		body.Documents[i] = d.Text
		body.Metadatas[i] = d.Metadata
	}

	resp, err := c.do(ctx, http.MethodPost, "/collections/"+url.PathEscape(id)+"/upsert", body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return checkStatus(resp)
}

func (c *HTTPClient) Query(ctx context.Context, collection string, embedding []float32, n int) ([]Match, error) {
	id, err := c.EnsureCollection(ctx, collection)
	if err != nil {
		return nil, err
	}

	body := queryRequest{
		QueryEmbeddings: [][]float32{embedding},
		NResults:        n,
		Include:         []string{"metadatas", "documents", "distances"},
	}
	resp, err := c.do(ctx, http.MethodPost, "/collections/"+url.PathEscape(id)+"/query", body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var qr queryResponse
	if err := json.NewDecoder(resp.Body).Decode(&qr); err != nil {
		return nil, fmt.Errorf("decoding query response: %w", err)
	}
	return qr.matches(), nil
}

func (c *HTTPClient) Count(ctx context.Context, collection string) (int, error) {
	id, err := c.EnsureCollection(ctx, collection)
	if err != nil {
		return 0, err
	}

	resp, err := c.do(ctx, http.MethodGet, "/collections/"+url.PathEscape(id)+"/count", nil)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return 0, err
	}

	var n int
	if err := json.NewDecoder(resp.Body).Decode(&n); err != nil {
		return 0, fmt.Errorf("decoding count response: %w", err)
	}
	return n, nil
}

func (c *HTTPClient) IDs(ctx context.Context, collection string) ([]string, error) {
	id, err := c.EnsureCollection(ctx, collection)
	if err != nil {
		return nil, err
	}

	resp, err := c.do(ctx, http.MethodPost, "/collections/"+url.PathEscape(id)+"/get", getRequest{Include: []string{}})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var gr getResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return nil, fmt.Errorf("decoding get response: %w", err)
	}
	if gr.IDs == nil {
		return []string{}, nil
	}
	return gr.IDs, nil
}

func (c *HTTPClient) Delete(ctx context.Context, collection string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	id, err := c.EnsureCollection(ctx, collection)
	if err != nil {
		return err
	}

	resp, err := c.do(ctx, http.MethodPost, "/collections/"+url.PathEscape(id)+"/delete", deleteRequest{IDs: ids})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return checkStatus(resp)
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var r io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding request: %w", err)
		}
		r = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, classifyError(err)
	}
	return resp, nil
}

// checkStatus turns a non-2xx response into ErrQuery, including a snippet of the body.
func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return fmt.Errorf("%w: status %d: %s", ErrQuery, resp.StatusCode, strings.TrimSpace(string(snippet)))
}

// classifyError maps transport-level errors to sentinel errors.
func classifyError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}

	return fmt.Errorf("%w: %v", ErrUnreachable, err)
}

// --- ChromaDB wire types ---

type createCollectionRequest struct {
	Name        string         `json:"name"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	GetOrCreate bool           `json:"get_or_create"`
}

type collectionResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type upsertRequest struct {
	IDs        []string         `json:"ids"`
	Embeddings [][]float32      `json:"embeddings"`
	Documents  []string         `json:"documents"`
	Metadatas  []map[string]any `json:"metadatas"`
}

type queryRequest struct {
	QueryEmbeddings [][]float32 `json:"query_embeddings"`
	NResults        int         `json:"n_results"`
	Include         []string    `json:"include"`
}

type getRequest struct {
	Include []string `json:"include"`
}

type getResponse struct {
	IDs []string `json:"ids"`
}

type deleteRequest struct {
	IDs []string `json:"ids"`
}

type queryResponse struct {
	IDs       [][]string         `json:"ids"`
	Documents [][]string         `json:"documents"`
	Metadatas [][]map[string]any `json:"metadatas"`
	Distances [][]float64        `json:"distances"`
}

// matches flattens the first (and only) query row.
func (q queryResponse) matches() []Match {
	if len(q.IDs) == 0 {
		return []Match{}
	}
	ids := q.IDs[0]
	out := make([]Match, 0, len(ids))
	for i, id := range ids {
		m := Match{ID: id}
		if len(q.Documents) > 0 && i < len(q.Documents[0]) {
			m.Document = q.Documents[0][i]
		}
		if len(q.Metadatas) > 0 && i < len(q.Metadatas[0]) {
			m.Metadata = q.Metadatas[0][i]
		}
		if len(q.Distances) > 0 && i < len(q.Distances[0]) {
			m.Distance = q.Distances[0][i]
		}
		out = append(out, m)
	}
	return out
}

// Compile-time check that HTTPClient implements Client.
var _ Client = (*HTTPClient)(nil)
