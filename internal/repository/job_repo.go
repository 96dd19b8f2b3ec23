package repository

import (
	"context"
	"time"

	"github.com/timmy/hearth/internal/domain"
	"gorm.io/gorm"
)

// JobRepository handles archive job ledger operations.
type JobRepository struct {
	db *gorm.DB
}

// NewJobRepository creates a new JobRepository.
// Parameters:
//   - db: GORM database handle used for queries.
// Returns:
//   - *JobRepository: repository instance bound to db.
func NewJobRepository(db *gorm.DB) *JobRepository {
	return &JobRepository{db: db}
}

// Create inserts a new job record.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - job: job record to persist.
// Returns:
//   - error: non-nil if the insert fails.
func (r *JobRepository) Create(ctx context.Context, job *domain.ArchiveJob) error {
	return r.db.WithContext(ctx).Create(job).Error
}

// MarkRunning transitions a job to running and stamps its start time.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: job ID.
// Returns:
//   - error: non-nil if the update fails.
func (r *JobRepository) MarkRunning(ctx context.Context, id string) error {
	now := time.Now()
	return r.db.WithContext(ctx).Model(&domain.ArchiveJob{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     domain.JobStatusRunning,
			"started_at": &now,
		}).Error
}

// MarkCompleted transitions a job to completed and records the artifact.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: job ID.
//   - artifactPath: local path of the produced zip.
//   - artifactURL: object storage URL of the zip, empty when not uploaded.
// Returns:
//   - error: non-nil if the update fails.
func (r *JobRepository) MarkCompleted(ctx context.Context, id, artifactPath, artifactURL string) error {
	now := time.Now()
	return r.db.WithContext(ctx).Model(&domain.ArchiveJob{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":        domain.JobStatusCompleted,
			"artifact_path": artifactPath,
			"artifact_url":  artifactURL,
			"completed_at":  &now,
		}).Error
}

// MarkFailed transitions a job to failed and records the error.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: job ID.
//   - errLog: failure description.
// Returns:
//   - error: non-nil if the update fails.
func (r *JobRepository) MarkFailed(ctx context.Context, id, errLog string) error {
	now := time.Now()
	return r.db.WithContext(ctx).Model(&domain.ArchiveJob{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":       domain.JobStatusFailed,
			"error_log":    errLog,
			"completed_at": &now,
		}).Error
}

// GetByID retrieves a job by its ID.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: job ID.
// Returns:
//   - *domain.ArchiveJob: job record if found.
//   - error: non-nil if lookup fails.
func (r *JobRepository) GetByID(ctx context.Context, id string) (*domain.ArchiveJob, error) {
	var job domain.ArchiveJob
	if err := r.db.WithContext(ctx).First(&job, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

// LatestBySubdomain retrieves the most recent job for a subdomain.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - subdomain: account subdomain.
// Returns:
//   - *domain.ArchiveJob: latest job record if any.
//   - error: non-nil if lookup fails.
func (r *JobRepository) LatestBySubdomain(ctx context.Context, subdomain string) (*domain.ArchiveJob, error) {
	var job domain.ArchiveJob
	if err := r.db.WithContext(ctx).
		Where("subdomain = ?", subdomain).
		Order("created_at DESC").
		First(&job).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

// List retrieves jobs ordered by creation time, newest first.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - limit: maximum number of records to return.
//   - offset: number of records to skip.
// Returns:
//   - []domain.ArchiveJob: matching job records.
//   - error: non-nil if the query fails.
func (r *JobRepository) List(ctx context.Context, limit, offset int) ([]domain.ArchiveJob, error) {
	var jobs []domain.ArchiveJob
	if err := r.db.WithContext(ctx).
		Limit(limit).
		Offset(offset).
		Order("created_at DESC").
		Find(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}
