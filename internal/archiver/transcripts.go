package archiver

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/timmy/hearth/internal/domain"
	"github.com/timmy/hearth/internal/logger"
)

// transcriptTask is one (room, calendar day) fetch unit.
type transcriptTask struct {
	room *domain.Room
	date time.Time
	year int
	// month and day stay unpadded in keys and cache filenames; rendered
	// page paths are zero-padded separately.
	month int
	day   int
	key   string
	path  string
	today bool
}

func dayKey(year, month, day int) string {
	return fmt.Sprintf("%d-%d-%d", year, month, day)
}

// buildTranscriptTasks enumerates one task per room per calendar day from the
// room's creation date, truncated to local midnight, through today inclusive.
// The list is recomputed every run.
func (j *Job) buildTranscriptTasks() {
	now := j.now()
	j.transcripts = j.transcripts[:0]

	for _, room := range j.rooms {
		created := room.CreatedAt.In(now.Location())
		d := time.Date(created.Year(), created.Month(), created.Day(), 0, 0, 0, 0, now.Location())

		for d.Before(now) {
			y, m, day := d.Year(), int(d.Month()), d.Day()
			key := dayKey(y, m, day)
			j.transcripts = append(j.transcripts, &transcriptTask{
				room:  room,
				date:  d,
				year:  y,
				month: m,
				day:   day,
				key:   key,
				path:  j.transcriptPath(room.ID, key),
				today: sameDay(d, now),
			})
			d = d.AddDate(0, 0, 1)
		}
	}
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

// fetchTranscripts runs every transcript task under the bounded pool and
// scans each fetched document for referenced users and uploads.
func (j *Job) fetchTranscripts(ctx context.Context) error {
	j.buildTranscriptTasks()
	j.progress.start(StageTranscripts, int64(len(j.transcripts)))

	return runPool(ctx, j.cfg.TranscriptWorkers, j.transcripts, func(ctx context.Context, t *transcriptTask) error {
		transcript, err := j.loadTranscript(ctx, t)
		if err != nil {
			return err
		}
		j.scanTranscript(transcript)
		j.progress.unitDone(StageTranscripts)
		return nil
	})
}

// loadTranscript returns the transcript for one task. A day the state marks
// complete is read from the local cache, falling back to the remote fetch
// when the cached file is missing or unparseable. Today is always treated as
// stale and fetched remotely, so same-day reruns pick up new messages.
func (j *Job) loadTranscript(ctx context.Context, t *transcriptTask) (*domain.Transcript, error) {
	if j.store.TranscriptComplete(t.room.ID, t.key) && !t.today {
		data, err := os.ReadFile(t.path)
		if err == nil {
			var transcript domain.Transcript
			if err := json.Unmarshal(data, &transcript); err == nil {
				return &transcript, nil
			}
		}
		logger.CtxWarn(ctx, "Cached transcript %s for room %d unreadable, refetching", t.key, t.room.ID)
	}

	return j.fetchTranscriptRemote(ctx, t)
}

// loadTranscriptCached reads the cached transcript file unconditionally,
// today's included, falling back to the remote fetch only when the file is
// missing or unparseable. The render pass uses it so a fully materialized
// cache renders without further network traffic.
func (j *Job) loadTranscriptCached(ctx context.Context, t *transcriptTask) (*domain.Transcript, error) {
	data, err := os.ReadFile(t.path)
	if err == nil {
		var transcript domain.Transcript
		if err := json.Unmarshal(data, &transcript); err == nil {
			return &transcript, nil
		}
	}
	logger.CtxWarn(ctx, "Cached transcript %s for room %d unreadable, refetching", t.key, t.room.ID)
	return j.fetchTranscriptRemote(ctx, t)
}

func (j *Job) fetchTranscriptRemote(ctx context.Context, t *transcriptTask) (*domain.Transcript, error) {
	path := fmt.Sprintf("room/%d/transcript/%d/%d/%d.json", t.room.ID, t.year, t.month, t.day)
	logger.CtxDebug(ctx, "Fetching transcript %s for room %d", t.key, t.room.ID)

	var transcript domain.Transcript
	if err := j.remote.FetchJSON(ctx, path, &transcript); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(t.path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create transcript directory: %w", err)
	}
	data, err := json.MarshalIndent(&transcript, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode transcript: %w", err)
	}
	if err := os.WriteFile(t.path, data, 0644); err != nil {
		return nil, fmt.Errorf("failed to cache transcript: %w", err)
	}
	if err := j.store.MarkTranscriptComplete(t.room.ID, t.key); err != nil {
		return nil, fmt.Errorf("failed to persist state: %w", err)
	}

	return &transcript, nil
}
