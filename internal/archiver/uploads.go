package archiver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/timmy/hearth/internal/client"
	"github.com/timmy/hearth/internal/domain"
	"github.com/timmy/hearth/internal/logger"
)

// fetchUploads downloads every upload referenced during transcript scanning.
// Per upload the state machine is: descriptor cached (json), payload
// downloaded (complete), or deleted upstream (notFound). Complete and
// notFound are terminal: reprocessing them is a no-op with no I/O.
func (j *Job) fetchUploads(ctx context.Context) error {
	j.progress.start(StageUploads, int64(len(j.uploadRefs)))

	return runPool(ctx, j.cfg.UploadWorkers, j.uploadRefs, func(ctx context.Context, msg *domain.Message) error {
		if err := j.fetchUpload(ctx, msg); err != nil {
			return err
		}
		j.progress.unitDone(StageUploads)
		return nil
	})
}

func (j *Job) fetchUpload(ctx context.Context, msg *domain.Message) error {
	st := j.store.Upload(msg.RoomID, msg.ID)
	if st.Done() {
		logger.CtxDebug(ctx, "Skipping upload %d (complete=%t notFound=%t)", msg.ID, st.Complete, st.NotFound)
		return nil
	}

	upload, err := j.uploadDescriptor(ctx, msg, st.JSON)
	if err != nil {
		return err
	}
	if upload == nil {
		// Deleted upstream; recorded as terminal, rendered as a placeholder.
		return nil
	}

	logger.CtxDebug(ctx, "Downloading %s (%d bytes)", upload.Name, upload.ByteSize)

	payload, err := j.remote.FetchBytes(ctx, upload.FullURL)
	if err != nil {
		return err
	}
	dest := filepath.Join(j.uploadDir(msg.RoomID, msg.ID), upload.Name)
	if err := os.WriteFile(dest, payload, 0644); err != nil {
		return fmt.Errorf("failed to write upload payload: %w", err)
	}
	if err := j.store.MarkUploadComplete(msg.RoomID, msg.ID); err != nil {
		return fmt.Errorf("failed to persist state: %w", err)
	}
	return nil
}

// uploadDescriptor obtains the upload's JSON descriptor, from the local cache
// when the state says it is already fetched, from the remote API otherwise.
// A nil descriptor with nil error means the upload no longer exists.
func (j *Job) uploadDescriptor(ctx context.Context, msg *domain.Message, cached bool) (*domain.Upload, error) {
	jsonPath := filepath.Join(j.uploadDir(msg.RoomID, msg.ID), "upload.json")

	if cached {
		data, err := os.ReadFile(jsonPath)
		if err == nil {
			var env domain.UploadEnvelope
			if err := json.Unmarshal(data, &env); err == nil && env.Upload != nil {
				return env.Upload, nil
			}
		}
		logger.CtxWarn(ctx, "Cached upload descriptor %d unreadable, refetching", msg.ID)
	}

	var env domain.UploadEnvelope
	err := j.remote.FetchJSON(ctx, fmt.Sprintf("room/%d/messages/%d/upload.json", msg.RoomID, msg.ID), &env)
	if err != nil && !errors.Is(err, client.ErrNotFound) {
		return nil, err
	}
	if err != nil || env.Upload == nil {
		logger.CtxInfo(ctx, "Upload %d not found", msg.ID)
		if err := j.store.MarkUploadNotFound(msg.RoomID, msg.ID); err != nil {
			return nil, fmt.Errorf("failed to persist state: %w", err)
		}
		return nil, nil
	}

	env.Upload.SanitizeName()

	if err := os.MkdirAll(filepath.Dir(jsonPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	data, err := json.MarshalIndent(&env, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode upload descriptor: %w", err)
	}
	if err := os.WriteFile(jsonPath, data, 0644); err != nil {
		return nil, fmt.Errorf("failed to cache upload descriptor: %w", err)
	}
	if err := j.store.MarkUploadJSON(msg.RoomID, msg.ID); err != nil {
		return nil, fmt.Errorf("failed to persist state: %w", err)
	}

	return env.Upload, nil
}
