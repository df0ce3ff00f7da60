package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	JobStatusPending   = "pending"
	JobStatusRunning   = "running"
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
)

// JobTypeVectorization is the only background job type.
const JobTypeVectorization = "vectorization"

// Job tracks a background vectorization run. POST /api/trigger-vectorization
// returns the job; GET /api/vectorization-status reports the latest one.
type Job struct {
	ID            uuid.UUID  `db:"id"             json:"id"`
	Type          string     `db:"type"           json:"type"`
	Status        string     `db:"status"         json:"status"`
	Trigger       string     `db:"trigger"        json:"trigger"`
	DocumentCount int        `db:"document_count" json:"document_count"`
	ErrorMessage  *string    `db:"error_message"  json:"error_message,omitempty"`
	StartedAt     *time.Time `db:"started_at"     json:"started_at,omitempty"`
	CompletedAt   *time.Time `db:"completed_at"   json:"completed_at,omitempty"`
	CreatedAt     time.Time  `db:"created_at"     json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at"     json:"updated_at"`
}
