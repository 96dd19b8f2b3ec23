// Package archiver implements the fetch/cache/render/compress pipeline for
// one chat subdomain. A Job owns a working directory and a persisted state
// record; interrupted runs resume from whatever the state marks complete.
package archiver

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/timmy/hearth/internal/client"
	"github.com/timmy/hearth/internal/config"
	"github.com/timmy/hearth/internal/domain"
	"github.com/timmy/hearth/internal/logger"
	"github.com/timmy/hearth/internal/state"
)

// Job is one archiving run, keyed by (subdomain, token).
type Job struct {
	Subdomain string
	Token     string

	cfg    *config.ArchiveConfig
	remote *client.Client
	store  *state.Store
	log    *logger.Logger

	workDir string

	// Clock is injectable so tests can pin "today".
	now func() time.Time

	rooms       []*domain.Room
	transcripts []*transcriptTask

	// Discovery state fed by transcript scanning; guarded by mu because
	// pool workers append concurrently.
	mu         sync.Mutex
	users      map[int64]*domain.User
	userIDs    []int64
	seenUsers  map[int64]struct{}
	uploadRefs []*domain.Message

	progress *Progress
}

// New creates a job rooted at {data root}/{subdomain}, loading any persisted
// state from a previous interrupted run.
func New(cfg *config.ArchiveConfig, subdomain, token string, log *logger.Logger) (*Job, error) {
	workDir := filepath.Join(cfg.DataRoot, subdomain)
	if err := os.MkdirAll(workDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create working directory: %w", err)
	}

	log = log.WithFields(logger.Fields{logger.FieldSubdomain: subdomain})

	store := state.Load(filepath.Join(workDir, "state.json"), log)
	if err := store.SetSubdomain(subdomain); err != nil {
		return nil, fmt.Errorf("failed to persist state: %w", err)
	}

	return &Job{
		Subdomain: subdomain,
		Token:     token,
		cfg:       cfg,
		remote: client.New(&client.Config{
			Subdomain: subdomain,
			Token:     token,
			APIDomain: cfg.APIDomain,
			BaseURL:   cfg.BaseURL,
			UserAgent: cfg.UserAgent,
		}),
		store:     store,
		log:       log,
		workDir:   workDir,
		now:       time.Now,
		users:     make(map[int64]*domain.User),
		seenUsers: make(map[int64]struct{}),
		progress:  newProgress(),
	}, nil
}

// Progress returns the job's progress view.
func (j *Job) Progress() *Progress {
	return j.progress
}

// WorkDir returns the job's working directory.
func (j *Job) WorkDir() string {
	return j.workDir
}

// ArchiveDir is the root of the rendered static site.
func (j *Job) ArchiveDir() string {
	return filepath.Join(j.workDir, "archive")
}

// ZipPath is the final artifact location.
func (j *Job) ZipPath() string {
	return filepath.Join(j.workDir, j.Subdomain+".zip")
}

// Cleanup recursively deletes the working directory.
func (j *Job) Cleanup() error {
	return os.RemoveAll(j.workDir)
}

func (j *Job) roomsPath() string {
	return filepath.Join(j.workDir, "rooms.json")
}

func (j *Job) userPath(userID int64) string {
	return filepath.Join(j.workDir, "users", strconv.FormatInt(userID, 10)+".json")
}

func (j *Job) transcriptPath(roomID int64, dayKey string) string {
	return filepath.Join(j.workDir, "rooms", strconv.FormatInt(roomID, 10), "transcripts", dayKey+".json")
}

func (j *Job) uploadDir(roomID, uploadID int64) string {
	return filepath.Join(j.workDir, "rooms", strconv.FormatInt(roomID, 10),
		"uploads", strconv.FormatInt(uploadID, 10))
}
