package archiver

import (
	"context"
	"fmt"
	"time"

	"github.com/timmy/hearth/internal/compress"
	"github.com/timmy/hearth/internal/logger"
)

// Run drives the pipeline to completion: rooms, transcripts, users, uploads,
// render, compress. Stages run strictly in sequence; the first stage error
// aborts the job and leaves the persisted state exactly as it was, so the
// next invocation resumes cleanly. No stage is retried automatically.
func (j *Job) Run(ctx context.Context) error {
	start := time.Now()

	type stageFn struct {
		stage Stage
		name  string
		run   func(context.Context) error
	}

	stages := []stageFn{
		{StageRooms, "rooms", j.fetchRooms},
		{StageTranscripts, "transcripts", j.fetchTranscripts},
		{StageUsers, "users", j.fetchUsers},
		{StageUploads, "uploads", j.fetchUploads},
		{StageRender, "render", j.renderArchive},
		{StageCompress, "compress", j.compressArchive},
	}

	for _, s := range stages {
		stageCtx := logger.WithField(ctx, logger.FieldStage, s.name)
		logger.CtxInfo(stageCtx, "Stage started")

		if err := s.run(stageCtx); err != nil {
			logger.CtxError(stageCtx, "Stage failed: %v", err)
			return fmt.Errorf("%s stage: %w", s.name, err)
		}

		j.progress.complete(s.stage)
		logger.CtxInfo(stageCtx, "Stage finished")
	}

	j.log.WithFields(logger.Fields{
		logger.FieldDurationMs: time.Since(start).Milliseconds(),
	}).Info("Archive run completed")

	return nil
}

// compressArchive walks the rendered tree and streams it into the final zip,
// emitting one progress unit per file.
func (j *Job) compressArchive(ctx context.Context) error {
	files, err := compress.ListFiles(j.ArchiveDir())
	if err != nil {
		return err
	}

	j.progress.start(StageCompress, int64(len(files)))

	return compress.Create(ctx, j.ArchiveDir(), j.ZipPath(), files, func(name string) {
		j.progress.unitDone(StageCompress)
	})
}
