// Package manager owns the registry of running archive jobs, at most one per
// subdomain, and records every run in the job ledger.
package manager

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/timmy/hearth/internal/archiver"
	"github.com/timmy/hearth/internal/config"
	"github.com/timmy/hearth/internal/domain"
	"github.com/timmy/hearth/internal/logger"
	"github.com/timmy/hearth/internal/repository"
	"github.com/timmy/hearth/internal/storage"
)

var (
	// ErrAlreadyRunning is returned by Start when the subdomain already has a
	// registered job under the same token.
	ErrAlreadyRunning = errors.New("archive already running for subdomain")

	// ErrTokenMismatch is returned when the subdomain has a registered job
	// under a different token.
	ErrTokenMismatch = errors.New("token does not match running archive")

	// ErrUnknownJob is returned when no job is registered for the
	// (subdomain, token) pair.
	ErrUnknownJob = errors.New("no archive registered for subdomain and token")
)

// entry is one registered job and its ledger row.
type entry struct {
	job      *archiver.Job
	ledgerID string

	// Written once by the run goroutine, read under the manager lock.
	runErr      error
	artifactURL string
	finished    bool
}

// Manager registers at most one archive job per subdomain. A finished job
// stays registered until Cleanup so its artifact remains downloadable.
type Manager struct {
	cfg   *config.Config
	repo  *repository.JobRepository
	store storage.ObjectStorage
	log   *logger.Logger

	mu   sync.Mutex
	jobs map[string]*entry
}

// New creates a Manager.
// Parameters:
//   - cfg: full application configuration.
//   - repo: job ledger repository.
//   - store: artifact object storage, nil when uploads are disabled.
//   - log: base logger.
// Returns:
//   - *Manager: manager with an empty registry.
func New(cfg *config.Config, repo *repository.JobRepository, store storage.ObjectStorage, log *logger.Logger) *Manager {
	return &Manager{
		cfg:   cfg,
		repo:  repo,
		store: store,
		log:   log,
		jobs:  make(map[string]*entry),
	}
}

// Start registers and launches a job for the subdomain. The run proceeds in
// the background; Start returns as soon as the job is registered.
// Parameters:
//   - ctx: context for the ledger writes; the run itself uses its own context.
//   - subdomain: account subdomain to archive.
//   - token: API token presented by the caller.
// Returns:
//   - error: nil when a new job started, ErrAlreadyRunning or ErrTokenMismatch
//     when the subdomain is already registered.
func (m *Manager) Start(ctx context.Context, subdomain, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.jobs[subdomain]; ok {
		if e.job.Token != token {
			return ErrTokenMismatch
		}
		return ErrAlreadyRunning
	}

	job, err := archiver.New(&m.cfg.Archive, subdomain, token, m.log)
	if err != nil {
		return fmt.Errorf("failed to create archive job: %w", err)
	}

	ledgerID := uuid.New().String()
	e := &entry{job: job, ledgerID: ledgerID}

	if err := m.repo.Create(ctx, &domain.ArchiveJob{
		ID:        ledgerID,
		Subdomain: subdomain,
		Status:    domain.JobStatusPending,
	}); err != nil {
		return fmt.Errorf("failed to record job: %w", err)
	}

	m.jobs[subdomain] = e
	go m.run(e)

	return nil
}

// run drives one job to completion and settles its ledger row.
func (m *Manager) run(e *entry) {
	log := m.log.WithFields(logger.Fields{
		logger.FieldJobID:     e.ledgerID,
		logger.FieldSubdomain: e.job.Subdomain,
	})
	ctx := log.WithContext(context.Background())

	if err := m.repo.MarkRunning(ctx, e.ledgerID); err != nil {
		log.WithError(err).Error("Failed to mark job running")
	}

	runErr := e.job.Run(ctx)

	var artifactURL string
	if runErr == nil && m.store != nil {
		artifactURL, runErr = m.uploadArtifact(ctx, e.job)
	}

	if runErr != nil {
		log.WithError(runErr).Error("Archive job failed")
		if err := m.repo.MarkFailed(ctx, e.ledgerID, runErr.Error()); err != nil {
			log.WithError(err).Error("Failed to mark job failed")
		}
	} else {
		if err := m.repo.MarkCompleted(ctx, e.ledgerID, e.job.ZipPath(), artifactURL); err != nil {
			log.WithError(err).Error("Failed to mark job completed")
		}
	}

	m.mu.Lock()
	e.runErr = runErr
	e.artifactURL = artifactURL
	e.finished = true
	m.mu.Unlock()
}

// uploadArtifact pushes the finished zip to the artifact store and returns
// its public URL.
func (m *Manager) uploadArtifact(ctx context.Context, job *archiver.Job) (string, error) {
	f, err := os.Open(job.ZipPath())
	if err != nil {
		return "", fmt.Errorf("failed to open artifact: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("failed to stat artifact: %w", err)
	}

	key := filepath.Base(job.ZipPath())
	contentType := mime.TypeByExtension(".zip")
	if contentType == "" {
		contentType = "application/zip"
	}

	logger.CtxInfo(ctx, "Uploading artifact %s (%d bytes)", key, info.Size())
	if err := m.store.Upload(ctx, key, f, info.Size(), contentType); err != nil {
		return "", fmt.Errorf("failed to upload artifact: %w", err)
	}
	return m.store.GetURL(key), nil
}

// Status is the progress view of one registered job.
type Status struct {
	Stages      []archiver.StageProgress
	Finished    bool
	Err         error
	ArtifactURL string
}

// Progress returns the job's progress snapshot.
// Parameters:
//   - subdomain: account subdomain.
//   - token: API token presented by the caller.
// Returns:
//   - *Status: stage tuples plus terminal flags.
//   - error: ErrUnknownJob when the pair matches no registered job.
func (m *Manager) Progress(subdomain, token string) (*Status, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, err := m.lookup(subdomain, token)
	if err != nil {
		return nil, err
	}

	return &Status{
		Stages:      e.job.Progress().Snapshot(),
		Finished:    e.finished && e.runErr == nil,
		Err:         e.runErr,
		ArtifactURL: e.artifactURL,
	}, nil
}

// ArtifactPath returns the local path of the finished zip.
// Parameters:
//   - subdomain: account subdomain.
//   - token: API token presented by the caller.
// Returns:
//   - string: zip path.
//   - error: ErrUnknownJob when the pair matches no registered job, or a
//     descriptive error when the job has not finished successfully.
func (m *Manager) ArtifactPath(subdomain, token string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, err := m.lookup(subdomain, token)
	if err != nil {
		return "", err
	}
	if !e.finished || e.runErr != nil {
		return "", fmt.Errorf("archive for %s is not complete", subdomain)
	}
	return e.job.ZipPath(), nil
}

// Cleanup deletes the job's working directory and forgets the job. The
// ledger row is kept as the historical record.
// Parameters:
//   - subdomain: account subdomain.
//   - token: API token presented by the caller.
// Returns:
//   - error: ErrUnknownJob when the pair matches no registered job, or the
//     filesystem error from removing the working directory.
func (m *Manager) Cleanup(subdomain, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, err := m.lookup(subdomain, token)
	if err != nil {
		return err
	}

	if err := e.job.Cleanup(); err != nil {
		return fmt.Errorf("failed to remove working directory: %w", err)
	}
	delete(m.jobs, subdomain)
	return nil
}

// lookup returns the entry for the pair. Caller holds mu.
func (m *Manager) lookup(subdomain, token string) (*entry, error) {
	e, ok := m.jobs[subdomain]
	if !ok || e.job.Token != token {
		return nil, ErrUnknownJob
	}
	return e, nil
}
