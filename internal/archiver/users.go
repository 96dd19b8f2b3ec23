package archiver

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/timmy/hearth/internal/domain"
	"github.com/timmy/hearth/internal/logger"
)

// fetchUsers retrieves every user referenced by a fetched message. The set is
// known only after the transcript stage. Users are deliberately not tracked
// in the state record: display names are cheap to refetch and may change.
func (j *Job) fetchUsers(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Join(j.workDir, "users"), 0755); err != nil {
		return fmt.Errorf("failed to create users directory: %w", err)
	}

	j.progress.start(StageUsers, int64(len(j.userIDs)))

	return runPool(ctx, j.cfg.UserWorkers, j.userIDs, func(ctx context.Context, id int64) error {
		logger.CtxDebug(ctx, "Fetching user %d", id)

		var env domain.UserEnvelope
		if err := j.remote.FetchJSON(ctx, fmt.Sprintf("users/%d.json", id), &env); err != nil {
			return err
		}

		data, err := json.MarshalIndent(&env, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode user %d: %w", id, err)
		}
		if err := os.WriteFile(j.userPath(id), data, 0644); err != nil {
			return fmt.Errorf("failed to cache user %d: %w", id, err)
		}

		j.mu.Lock()
		j.users[id] = env.User
		j.mu.Unlock()

		j.progress.unitDone(StageUsers)
		return nil
	})
}

// User returns a fetched user by ID, or nil when unknown.
func (j *Job) User(id int64) *domain.User {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.users[id]
}
