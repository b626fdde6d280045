package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/leads-import-worker/constants"
)

// ImportJob represents one row of import_jobs for data transfer between layers.
type ImportJob struct {
	ID        uuid.UUID           `json:"id"`
	FilePath  string              `json:"file_path"`
	Status    constants.JobStatus `json:"status"`
	Error     *string             `json:"error,omitempty"`
	CreatedAt time.Time           `json:"created_at"`
}
