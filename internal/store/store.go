package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/compass/pkg/models"
)

var ErrNotFound = errors.New("resource not found")
var ErrDuplicateKey = errors.New("duplicate key violation")

// Store is the data access interface. All database operations go through here.
type Store interface {
	Ping(ctx context.Context) error

	GetAPIKeyByPrefix(ctx context.Context, prefix string) ([]*models.APIKey, error)
	UpdateAPIKeyLastUsed(ctx context.Context, id uuid.UUID) error
	CreateAPIKey(ctx context.Context, key *models.APIKey) error
	ListAPIKeys(ctx context.Context) ([]*models.APIKey, error)
	RevokeAPIKey(ctx context.Context, id uuid.UUID) error

	UpsertAgency(ctx context.Context, agency *models.AgencyRecord) error
	ListAgencies(ctx context.Context) ([]*models.AgencyRecord, error)

	CreateProject(ctx context.Context, project *models.Project) error
	ListProjects(ctx context.Context) ([]*models.Project, error)

	CreateJob(ctx context.Context, job *models.Job) error
	GetJob(ctx context.Context, id uuid.UUID) (*models.Job, error)
	GetLatestJob(ctx context.Context, jobType string) (*models.Job, error)
	UpdateJobStatus(ctx context.Context, id uuid.UUID, status string, opts ...JobUpdateOption) error

	CreateMatchmakingRequest(ctx context.Context, req *models.MatchmakingRequest) error
	CreateConciergeBooking(ctx context.Context, booking *models.ConciergeBooking) error
}

type jobUpdateParams struct {
	ErrorMessage  *string
	DocumentCount *int
}

type JobUpdateOption func(*jobUpdateParams)

func WithErrorMessage(msg string) JobUpdateOption {
	return func(p *jobUpdateParams) {
		p.ErrorMessage = &msg
	}
}

func WithDocumentCount(n int) JobUpdateOption {
	return func(p *jobUpdateParams) {
		p.DocumentCount = &n
	}
}

// ApplyJobUpdate copies the fields carried by opts onto job.
func ApplyJobUpdate(job *models.Job, opts ...JobUpdateOption) {
	params := &jobUpdateParams{}
	for _, opt := range opts {
		opt(params)
	}
	if params.ErrorMessage != nil {
		msg := *params.ErrorMessage
		job.ErrorMessage = &msg
	}
	if params.DocumentCount != nil {
		job.DocumentCount = *params.DocumentCount
	}
}
