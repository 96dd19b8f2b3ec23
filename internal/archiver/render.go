package archiver

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/timmy/hearth/internal/domain"
	"github.com/timmy/hearth/internal/render"
)

// renderArchive draws the static site from the local cache. One progress unit
// is emitted per rendered day page; room indexes and the site index are not
// counted separately.
func (j *Job) renderArchive(ctx context.Context) error {
	j.progress.start(StageRender, int64(len(j.transcripts)))

	days := make([]*render.Day, 0, len(j.transcripts))
	for _, t := range j.transcripts {
		task := t
		days = append(days, &render.Day{
			Room: task.room,
			Date: task.date,
			Load: func(ctx context.Context) (*domain.Transcript, error) {
				return j.loadTranscriptCached(ctx, task)
			},
		})
	}

	r := &render.Renderer{
		OutDir:  j.ArchiveDir(),
		Rooms:   j.rooms,
		Days:    days,
		User:    j.User,
		Uploads: j,
		Log:     j.log,
		OnPage: func() {
			j.progress.unitDone(StageRender)
		},
	}
	return r.Render(ctx)
}

// Status implements render.UploadSource from the persisted state record.
func (j *Job) Status(roomID, uploadID int64) render.UploadStatus {
	st := j.store.Upload(roomID, uploadID)
	return render.UploadStatus{
		NotFound: st.NotFound,
		Fetched:  st.Complete,
	}
}

// Descriptor implements render.UploadSource by reading the cached upload.json.
func (j *Job) Descriptor(roomID, uploadID int64) (*domain.Upload, error) {
	data, err := os.ReadFile(filepath.Join(j.uploadDir(roomID, uploadID), "upload.json"))
	if err != nil {
		return nil, err
	}
	var env domain.UploadEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, err
	}
	if env.Upload == nil {
		return nil, fmt.Errorf("upload descriptor %d is empty", uploadID)
	}
	return env.Upload, nil
}

// PayloadPath implements render.UploadSource.
func (j *Job) PayloadPath(roomID, uploadID int64, name string) string {
	return filepath.Join(j.uploadDir(roomID, uploadID), name)
}
