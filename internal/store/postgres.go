package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kiranshivaraju/compass/pkg/models"
)

// PostgresStore implements the Store interface using pgx/v5.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// --- API Keys ---

const apiKeyColumns = `id, name, key_hash, key_prefix, scopes, last_used_at, deleted_at, created_at, updated_at`

func scanAPIKeys(rows pgx.Rows) ([]*models.APIKey, error) {
	defer rows.Close()
	var keys []*models.APIKey
	for rows.Next() {
		var k models.APIKey
		if err := rows.Scan(&k.ID, &k.Name, &k.KeyHash, &k.KeyPrefix, &k.Scopes,
			&k.LastUsedAt, &k.DeletedAt, &k.CreatedAt, &k.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan api key: %w", err)
		}
		keys = append(keys, &k)
	}
	return keys, rows.Err()
}

func (s *PostgresStore) GetAPIKeyByPrefix(ctx context.Context, prefix string) ([]*models.APIKey, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+apiKeyColumns+` FROM api_keys WHERE key_prefix = $1 AND deleted_at IS NULL`, prefix)
	if err != nil {
		return nil, fmt.Errorf("get api key by prefix: %w", err)
	}
	return scanAPIKeys(rows)
}

func (s *PostgresStore) UpdateAPIKeyLastUsed(ctx context.Context, id uuid.UUID) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE api_keys SET last_used_at = NOW(), updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("update api key last used: %w", err)
	}
	return nil
}

func (s *PostgresStore) CreateAPIKey(ctx context.Context, key *models.APIKey) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO api_keys (id, name, key_hash, key_prefix, scopes, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		key.ID, key.Name, key.KeyHash, key.KeyPrefix, key.Scopes, key.CreatedAt, key.UpdatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create api key: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListAPIKeys(ctx context.Context) ([]*models.APIKey, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+apiKeyColumns+` FROM api_keys WHERE deleted_at IS NULL ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list api keys: %w", err)
	}
	return scanAPIKeys(rows)
}

func (s *PostgresStore) RevokeAPIKey(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE api_keys SET deleted_at = NOW(), updated_at = NOW()
		 WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("revoke api key: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Agencies ---

// UpsertAgency inserts an agency or refreshes the existing row with the same name.
// A previously soft-deleted agency stays deleted.
func (s *PostgresStore) UpsertAgency(ctx context.Context, a *models.AgencyRecord) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO agencies (id, name, service_lines, key_strengths, relevant_experience, availability,
		   budget_comfort_zone, industry_expertise, location, specialization, notable_clients, awards, unique_approach)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		 ON CONFLICT (name) DO UPDATE SET
		   service_lines = EXCLUDED.service_lines,
		   key_strengths = EXCLUDED.key_strengths,
		   relevant_experience = EXCLUDED.relevant_experience,
		   availability = EXCLUDED.availability,
		   budget_comfort_zone = EXCLUDED.budget_comfort_zone,
		   industry_expertise = EXCLUDED.industry_expertise,
		   location = EXCLUDED.location,
		   specialization = EXCLUDED.specialization,
		   notable_clients = EXCLUDED.notable_clients,
		   awards = EXCLUDED.awards,
		   unique_approach = EXCLUDED.unique_approach,
		   updated_at = NOW()`,
		a.ID, a.Name, textArray(a.ServiceLines), textArray(a.Strengths), a.Experience, a.Availability,
		a.BudgetComfortZone, textArray(a.IndustryExpertise), a.Location, a.Specialization,
		textArray(a.NotableClients), textArray(a.Awards), a.UniqueApproach)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("upsert agency: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListAgencies(ctx context.Context) ([]*models.AgencyRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, service_lines, key_strengths, relevant_experience, availability, budget_comfort_zone,
		   industry_expertise, location, specialization, notable_clients, awards, unique_approach, deleted_at
		 FROM agencies WHERE deleted_at IS NULL ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list agencies: %w", err)
	}
	defer rows.Close()

	var agencies []*models.AgencyRecord
	for rows.Next() {
		var a models.AgencyRecord
		if err := rows.Scan(&a.ID, &a.Name, &a.ServiceLines, &a.Strengths, &a.Experience, &a.Availability,
			&a.BudgetComfortZone, &a.IndustryExpertise, &a.Location, &a.Specialization,
			&a.NotableClients, &a.Awards, &a.UniqueApproach, &a.DeletedAt); err != nil {
			return nil, fmt.Errorf("scan agency: %w", err)
		}
		agencies = append(agencies, &a)
	}
	return agencies, rows.Err()
}

// --- Projects ---

func (s *PostgresStore) CreateProject(ctx context.Context, p *models.Project) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO projects (id, name, description, industry_vertical, technologies, client_name, outcome, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		p.ID, p.Name, p.Description, p.IndustryVertical, textArray(p.Technologies), p.ClientName, p.Outcome,
		p.CreatedAt, p.UpdatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create project: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListProjects(ctx context.Context) ([]*models.Project, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, description, industry_vertical, technologies, client_name, outcome, deleted_at, created_at, updated_at
		 FROM projects WHERE deleted_at IS NULL ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []*models.Project
	for rows.Next() {
		var p models.Project
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.IndustryVertical, &p.Technologies,
			&p.ClientName, &p.Outcome, &p.DeletedAt, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, &p)
	}
	return projects, rows.Err()
}

// --- Jobs ---

const jobColumns = `id, type, status, trigger, document_count, error_message, started_at, completed_at, created_at, updated_at`

func scanJob(row pgx.Row) (*models.Job, error) {
	var j models.Job
	err := row.Scan(&j.ID, &j.Type, &j.Status, &j.Trigger, &j.DocumentCount, &j.ErrorMessage,
		&j.StartedAt, &j.CompletedAt, &j.CreatedAt, &j.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &j, nil
}

func (s *PostgresStore) CreateJob(ctx context.Context, job *models.Job) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO jobs (id, type, status, trigger, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		job.ID, job.Type, job.Status, job.Trigger, job.CreatedAt, job.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create job: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetJob(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	j, err := scanJob(s.pool.QueryRow(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = $1`, id))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return j, err
}

// GetLatestJob returns the most recently created job of a type.
func (s *PostgresStore) GetLatestJob(ctx context.Context, jobType string) (*models.Job, error) {
	j, err := scanJob(s.pool.QueryRow(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE type = $1 ORDER BY created_at DESC LIMIT 1`, jobType))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("get latest job: %w", err)
	}
	return j, err
}

var validTransitions = map[string][]string{
	models.JobStatusPending: {models.JobStatusRunning, models.JobStatusFailed},
	models.JobStatusRunning: {models.JobStatusCompleted, models.JobStatusFailed},
}

func (s *PostgresStore) UpdateJobStatus(ctx context.Context, id uuid.UUID, status string, opts ...JobUpdateOption) error {
	params := &jobUpdateParams{}
	for _, opt := range opts {
		opt(params)
	}

	// Fetch current status
	var currentStatus string
	err := s.pool.QueryRow(ctx, `SELECT status FROM jobs WHERE id = $1`, id).Scan(&currentStatus)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("get job status: %w", err)
	}

	// Validate transition
	allowed := validTransitions[currentStatus]
	valid := false
	for _, a := range allowed {
		if a == status {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("invalid job status transition: %s -> %s", currentStatus, status)
	}

	now := time.Now().UTC()
	query := `UPDATE jobs SET status = $2, updated_at = $3`
	args := []any{id, status, now}
	argIdx := 4

	if status == models.JobStatusRunning {
		query += fmt.Sprintf(", started_at = $%d", argIdx)
		args = append(args, now)
		argIdx++
	}
	if status == models.JobStatusCompleted || status == models.JobStatusFailed {
		query += fmt.Sprintf(", completed_at = $%d", argIdx)
		args = append(args, now)
		argIdx++
	}
	if params.ErrorMessage != nil {
		query += fmt.Sprintf(", error_message = $%d", argIdx)
		args = append(args, *params.ErrorMessage)
		argIdx++
	}
	if params.DocumentCount != nil {
		query += fmt.Sprintf(", document_count = $%d", argIdx)
		args = append(args, *params.DocumentCount)
		argIdx++
	}

	query += " WHERE id = $1"

	_, err = s.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update job status: %w", err)
	}
	return nil
}

// --- Matchmaking & Concierge ---

func (s *PostgresStore) CreateMatchmakingRequest(ctx context.Context, r *models.MatchmakingRequest) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO matchmaking_requests (id, ticket_id, blueprint_id, service_lines, confirmed_budget, confirmed_timeline, contact, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		r.ID, r.TicketID, r.BlueprintID, textArray(r.ServiceLines), r.ConfirmedBudget, r.ConfirmedTimeline,
		r.Contact, r.CreatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create matchmaking request: %w", err)
	}
	return nil
}

func (s *PostgresStore) CreateConciergeBooking(ctx context.Context, b *models.ConciergeBooking) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO concierge_bookings (id, booking_id, blueprint_id, contact, preferred_at, notes, calendar_link, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		b.ID, b.BookingID, b.BlueprintID, b.Contact, b.PreferredAt, b.Notes, b.CalendarLink, b.CreatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create concierge booking: %w", err)
	}
	return nil
}

// textArray keeps NOT NULL array columns from receiving a nil slice.
func textArray(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

// isDuplicateKeyError checks if a pgx error is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return false
}
