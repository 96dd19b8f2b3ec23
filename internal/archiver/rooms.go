package archiver

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/timmy/hearth/internal/domain"
	"github.com/timmy/hearth/internal/logger"
)

// fetchRooms materializes the room list: from the local cache when the state
// marks it complete, from the remote API otherwise. A corrupt cache heals
// itself by falling back to the remote fetch.
func (j *Job) fetchRooms(ctx context.Context) error {
	j.progress.start(StageRooms, 1)

	if j.store.RoomsComplete() {
		data, err := os.ReadFile(j.roomsPath())
		if err == nil {
			var list domain.RoomList
			if err := json.Unmarshal(data, &list); err == nil {
				j.rooms = list.Rooms
				j.progress.unitDone(StageRooms)
				return nil
			}
		}
		logger.CtxWarn(ctx, "Cached room list unreadable, refetching")
	}

	var list domain.RoomList
	if err := j.remote.FetchJSON(ctx, "rooms.json", &list); err != nil {
		return err
	}

	data, err := json.MarshalIndent(&list, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode room list: %w", err)
	}
	if err := os.WriteFile(j.roomsPath(), data, 0644); err != nil {
		return fmt.Errorf("failed to cache room list: %w", err)
	}
	if err := j.store.MarkRoomsComplete(); err != nil {
		return fmt.Errorf("failed to persist state: %w", err)
	}

	j.rooms = list.Rooms
	j.progress.unitDone(StageRooms)

	logger.CtxInfo(ctx, "Fetched %d rooms", len(list.Rooms))
	return nil
}
