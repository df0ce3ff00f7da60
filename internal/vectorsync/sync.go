// Package vectorsync copies agencies and past projects from Postgres into the
// vector index, either at startup or as a background job triggered over HTTP.
package vectorsync

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/compass/internal/catalog"
	"github.com/kiranshivaraju/compass/internal/metrics"
	"github.com/kiranshivaraju/compass/internal/store"
	"github.com/kiranshivaraju/compass/internal/vector"
	"github.com/kiranshivaraju/compass/pkg/models"
	"github.com/kiranshivaraju/compass/pkg/vectorquery"
)

// ErrAlreadyRunning is returned by Trigger while a sync is in progress.
var ErrAlreadyRunning = errors.New("vectorization already running")

// DefaultBatchSize is the number of documents embedded per provider call.
const DefaultBatchSize = 32

// Startup states reported by Status.
const (
	StartupPending   = "pending"
	StartupCompleted = "completed"
	StartupFailed    = "failed"
	StartupDisabled  = "disabled"
)

// Store is the subset of store.Store the syncer reads from and records jobs in.
type Store interface {
	ListAgencies(ctx context.Context) ([]*models.AgencyRecord, error)
	ListProjects(ctx context.Context) ([]*models.Project, error)
	UpsertAgency(ctx context.Context, agency *models.AgencyRecord) error
	CreateJob(ctx context.Context, job *models.Job) error
	GetJob(ctx context.Context, id uuid.UUID) (*models.Job, error)
	GetLatestJob(ctx context.Context, jobType string) (*models.Job, error)
	UpdateJobStatus(ctx context.Context, id uuid.UUID, status string, opts ...store.JobUpdateOption) error
}

// Options configures a Syncer. Zero fields take defaults.
type Options struct {
	AgencyCollection  string
	ProjectCollection string
	BatchSize         int
}

// Status is the snapshot returned by GET /api/vectorization-status.
type Status struct {
	Running              bool           `json:"running"`
	StartupVectorization string         `json:"startup_vectorization"`
	LatestJob            *models.Job    `json:"latest_job,omitempty"`
	Collections          map[string]int `json:"collections"`
	IndexError           string         `json:"index_error,omitempty"`
}

// Syncer runs vectorization jobs. At most one runs at a time.
type Syncer struct {
	store    Store
	index    vector.Client
	embedder models.AIProvider
	builder  vectorquery.QueryBuilder

	agencyCollection  string
	projectCollection string
	batchSize         int

	running atomic.Bool
	wg      sync.WaitGroup

	mu      sync.RWMutex
	startup string
}

// New creates a Syncer.
func New(s Store, index vector.Client, embedder models.AIProvider, opts Options) *Syncer {
	if opts.AgencyCollection == "" {
		opts.AgencyCollection = "agencies"
	}
	if opts.ProjectCollection == "" {
		opts.ProjectCollection = "projects"
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	return &Syncer{
		store:             s,
		index:             index,
		embedder:          embedder,
		agencyCollection:  opts.AgencyCollection,
		projectCollection: opts.ProjectCollection,
		batchSize:         opts.BatchSize,
		startup:           StartupPending,
	}
}

// DocumentID returns the stable index id for a record of the given kind.
func DocumentID(kind, key string) string {
	sum := sha256.Sum256([]byte(kind + ":" + key))
	return fmt.Sprintf("%x", sum)
}

// SeedCatalogAgencies upserts every catalog agency into the store by name.
func SeedCatalogAgencies(ctx context.Context, s Store, cat *catalog.Catalog) (int, error) {
	for i := range cat.Agencies {
		a := cat.Agencies[i]
		if err := s.UpsertAgency(ctx, &a); err != nil {
			return i, fmt.Errorf("seeding agency %q: %w", a.Name, err)
		}
	}
	return len(cat.Agencies), nil
}

// Trigger records a pending job and runs it in the background. The job
// outlives ctx's cancellation.
func (s *Syncer) Trigger(ctx context.Context, trigger string) (*models.Job, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, ErrAlreadyRunning
	}
	job, err := s.newJob(ctx, trigger)
	if err != nil {
		s.running.Store(false)
		return nil, err
	}

	snapshot := *job
	bg := context.WithoutCancel(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.running.Store(false)
		_ = s.execute(bg, job)
	}()
	return &snapshot, nil
}

// Run records a job and runs it synchronously, returning the number of
// documents written.
func (s *Syncer) Run(ctx context.Context, trigger string) (int, error) {
	if !s.running.CompareAndSwap(false, true) {
		return 0, ErrAlreadyRunning
	}
	defer s.running.Store(false)

	job, err := s.newJob(ctx, trigger)
	if err != nil {
		return 0, err
	}
	if err := s.execute(ctx, job); err != nil {
		return 0, err
	}
	return job.DocumentCount, nil
}

// Startup runs the sync performed when the server boots and remembers its outcome.
func (s *Syncer) Startup(ctx context.Context) error {
	_, err := s.Run(ctx, "startup")
	state := StartupCompleted
	if err != nil {
		state = StartupFailed
	}
	s.setStartup(state)
	return err
}

// DisableStartup marks the startup sync as skipped.
func (s *Syncer) DisableStartup() { s.setStartup(StartupDisabled) }

// Wait blocks until background jobs started by Trigger have finished.
func (s *Syncer) Wait() { s.wg.Wait() }

// Running reports whether a sync is in progress.
func (s *Syncer) Running() bool { return s.running.Load() }

// StartupState returns the outcome of the startup sync.
func (s *Syncer) StartupState() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.startup
}

// Status reports the latest job and the document count of each collection.
// An unreachable index is reported in IndexError rather than failing.
func (s *Syncer) Status(ctx context.Context) (Status, error) {
	st := Status{
		Running:              s.Running(),
		StartupVectorization: s.StartupState(),
	}

	job, err := s.store.GetLatestJob(ctx, models.JobTypeVectorization)
	switch {
	case err == nil:
		st.LatestJob = job
	case !errors.Is(err, store.ErrNotFound):
		return Status{}, fmt.Errorf("loading latest job: %w", err)
	}

	counts, err := s.CollectionStats(ctx)
	if err != nil {
		st.IndexError = err.Error()
	}
	st.Collections = counts
	return st, nil
}

// CollectionStats returns the document count of each synced collection. On
// error the counts gathered so far are returned with it.
func (s *Syncer) CollectionStats(ctx context.Context) (map[string]int, error) {
	counts := make(map[string]int, 2)
	for _, coll := range []string{s.agencyCollection, s.projectCollection} {
		n, err := s.index.Count(ctx, coll)
		if err != nil {
			return counts, fmt.Errorf("counting %s: %w", coll, err)
		}
		counts[coll] = n
	}
	return counts, nil
}

// Job returns a vectorization job by id, or store.ErrNotFound.
func (s *Syncer) Job(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	job, err := s.store.GetJob(ctx, id)
	if err != nil {
		return nil, err
	}
	if job.Type != models.JobTypeVectorization {
		return nil, store.ErrNotFound
	}
	return job, nil
}

func (s *Syncer) setStartup(state string) {
	s.mu.Lock()
	s.startup = state
	s.mu.Unlock()
}

func (s *Syncer) newJob(ctx context.Context, trigger string) (*models.Job, error) {
	now := time.Now().UTC()
	job := &models.Job{
		ID:        uuid.New(),
		Type:      models.JobTypeVectorization,
		Status:    models.JobStatusPending,
		Trigger:   trigger,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateJob(ctx, job); err != nil {
		return nil, fmt.Errorf("creating vectorization job: %w", err)
	}
	return job, nil
}

// execute moves job through running to completed or failed.
func (s *Syncer) execute(ctx context.Context, job *models.Job) error {
	metrics.VectorizationRunning.Set(1)
	defer metrics.VectorizationRunning.Set(0)

	start := time.Now()
	if err := s.store.UpdateJobStatus(ctx, job.ID, models.JobStatusRunning); err != nil {
		err = fmt.Errorf("starting vectorization job: %w", err)
		job.Status = models.JobStatusFailed
		if uerr := s.store.UpdateJobStatus(ctx, job.ID, models.JobStatusFailed,
			store.WithErrorMessage(err.Error())); uerr != nil {
			slog.Error("failed to record vectorization failure", "job_id", job.ID, "error", uerr)
		}
		return err
	}
	job.Status = models.JobStatusRunning

	total, err := s.syncAll(ctx)
	if err != nil {
		slog.Error("vectorization failed", "job_id", job.ID, "trigger", job.Trigger, "error", err)
		job.Status = models.JobStatusFailed
		if uerr := s.store.UpdateJobStatus(ctx, job.ID, models.JobStatusFailed,
			store.WithErrorMessage(err.Error()), store.WithDocumentCount(total)); uerr != nil {
			slog.Error("failed to record vectorization failure", "job_id", job.ID, "error", uerr)
		}
		return err
	}

	job.Status = models.JobStatusCompleted
	job.DocumentCount = total
	if err := s.store.UpdateJobStatus(ctx, job.ID, models.JobStatusCompleted, store.WithDocumentCount(total)); err != nil {
		return fmt.Errorf("completing vectorization job: %w", err)
	}
	slog.Info("vectorization completed",
		"job_id", job.ID,
		"trigger", job.Trigger,
		"documents", total,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

func (s *Syncer) syncAll(ctx context.Context) (int, error) {
	agencies, err := s.store.ListAgencies(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing agencies: %w", err)
	}
	docs := make([]vector.Document, 0, len(agencies))
	for _, a := range agencies {
		text := s.builder.BuildAgencyDocument(vectorquery.AgencyDocParams{
			Name:         a.Name,
			ServiceLines: a.ServiceLines,
			Industries:   a.IndustryExpertise,
			Strengths:    a.Strengths,
			Experience:   a.Experience,
			Location:     a.Location,
		})
		docs = append(docs, vector.Document{
			ID:       DocumentID("agency", a.ID),
			Text:     text,
			Metadata: vector.AgencyMetadata(*a),
		})
	}
	written, err := s.write(ctx, s.agencyCollection, docs)
	if err != nil {
		return written, err
	}

	projects, err := s.store.ListProjects(ctx)
	if err != nil {
		return written, fmt.Errorf("listing projects: %w", err)
	}
	docs = make([]vector.Document, 0, len(projects))
	for _, p := range projects {
		text := s.builder.BuildProjectDocument(vectorquery.ProjectDocParams{
			Name:         p.Name,
			Industry:     p.IndustryVertical,
			Description:  p.Description,
			Technologies: p.Technologies,
			Outcome:      p.Outcome,
		})
		docs = append(docs, vector.Document{
			ID:       DocumentID("project", p.ID),
			Text:     text,
			Metadata: vector.ProjectMetadata(*p),
		})
	}
	n, err := s.write(ctx, s.projectCollection, docs)
	return written + n, err
}

// write embeds docs in batches and upserts each batch into collection.
func (s *Syncer) write(ctx context.Context, collection string, docs []vector.Document) (int, error) {
	if _, err := s.index.EnsureCollection(ctx, collection); err != nil {
		return 0, fmt.Errorf("ensuring collection %s: %w", collection, err)
	}

	written := 0
	for start := 0; start < len(docs); start += s.batchSize {
		end := min(start+s.batchSize, len(docs))
		batch := docs[start:end]

		texts := make([]string, len(batch))
		for i, d := range batch {
			texts[i] = d.Text
		}
		embeddings, err := s.embedder.Embed(ctx, texts)
		if err != nil {
			return written, fmt.Errorf("embedding %s batch: %w", collection, err)
		}
		if len(embeddings) != len(batch) {
			return written, fmt.Errorf("embedding %s batch: got %d vectors for %d documents",
				collection, len(embeddings), len(batch))
		}
		for i := range batch {
			batch[i].Embedding = embeddings[i]
		}

		if err := s.index.Upsert(ctx, collection, batch); err != nil {
			return written, fmt.Errorf("upserting %s batch: %w", collection, err)
		}
		written += len(batch)
		metrics.VectorizedDocuments.WithLabelValues(collection).Add(float64(len(batch)))
	}

	if err := s.prune(ctx, collection, docs); err != nil {
		return written, err
	}
	return written, nil
}

// prune deletes documents whose records no longer exist in the store.
func (s *Syncer) prune(ctx context.Context, collection string, live []vector.Document) error {
	ids, err := s.index.IDs(ctx, collection)
	if err != nil {
		return fmt.Errorf("listing %s ids: %w", collection, err)
	}
	keep := make(map[string]struct{}, len(live))
	for _, d := range live {
		keep[d.ID] = struct{}{}
	}
	var stale []string
	for _, id := range ids {
		if _, ok := keep[id]; !ok {
			stale = append(stale, id)
		}
	}
	if len(stale) == 0 {
		return nil
	}
	if err := s.index.Delete(ctx, collection, stale); err != nil {
		return fmt.Errorf("deleting stale %s documents: %w", collection, err)
	}
	slog.Info("removed stale vector documents", "collection", collection, "count", len(stale))
	return nil
}
