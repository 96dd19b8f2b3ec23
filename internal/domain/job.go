package domain

import "time"

// JobStatus represents the lifecycle state of an archive job.
// Values include JobStatusPending, JobStatusRunning, JobStatusCompleted, and JobStatusFailed.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// ArchiveJob is the ledger row recorded for every archiving run.
type ArchiveJob struct {
	ID           string     `gorm:"type:text;primaryKey" json:"id"`
	Subdomain    string     `gorm:"type:text;not null;index" json:"subdomain"`
	Status       JobStatus  `gorm:"default:pending" json:"status"`
	ArtifactPath string     `json:"artifact_path,omitempty"`
	ArtifactURL  string     `json:"artifact_url,omitempty"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	ErrorLog     string     `json:"error_log,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// TableName returns the database table name for ArchiveJob.
func (ArchiveJob) TableName() string {
	return "archive_jobs"
}
