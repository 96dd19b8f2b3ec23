package archiver

import (
	"testing"
	"time"

	"github.com/timmy/hearth/internal/domain"
)

func TestDayKeyUnpadded(t *testing.T) {
	if got := dayKey(2024, 3, 5); got != "2024-3-5" {
		t.Errorf("dayKey = %q, want unpadded 2024-3-5", got)
	}
	if got := dayKey(2024, 11, 25); got != "2024-11-25" {
		t.Errorf("dayKey = %q", got)
	}
}

func TestBuildTranscriptTasks(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

	j := &Job{
		now: func() time.Time { return now },
		rooms: []*domain.Room{
			{ID: 1, Name: "Dev", CreatedAt: time.Date(2024, 5, 7, 16, 45, 0, 0, time.UTC)},
		},
	}
	j.buildTranscriptTasks()

	// Creation day through today inclusive, regardless of creation time of day.
	wantKeys := []string{"2024-5-7", "2024-5-8", "2024-5-9", "2024-5-10"}
	if len(j.transcripts) != len(wantKeys) {
		t.Fatalf("got %d tasks, want %d", len(j.transcripts), len(wantKeys))
	}
	for i, task := range j.transcripts {
		if task.key != wantKeys[i] {
			t.Errorf("task %d key = %q, want %q", i, task.key, wantKeys[i])
		}
		wantToday := i == len(wantKeys)-1
		if task.today != wantToday {
			t.Errorf("task %s today = %v, want %v", task.key, task.today, wantToday)
		}
	}
}

func TestBuildTranscriptTasksRoomCreatedToday(t *testing.T) {
	now := time.Date(2024, 5, 10, 23, 59, 0, 0, time.UTC)

	j := &Job{
		now: func() time.Time { return now },
		rooms: []*domain.Room{
			{ID: 1, CreatedAt: time.Date(2024, 5, 10, 1, 0, 0, 0, time.UTC)},
		},
	}
	j.buildTranscriptTasks()

	if len(j.transcripts) != 1 {
		t.Fatalf("got %d tasks, want 1", len(j.transcripts))
	}
	if !j.transcripts[0].today {
		t.Error("the single task must be flagged today")
	}
}

func TestBuildTranscriptTasksMultipleRooms(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

	j := &Job{
		now: func() time.Time { return now },
		rooms: []*domain.Room{
			{ID: 1, CreatedAt: time.Date(2024, 5, 9, 0, 0, 0, 0, time.UTC)},
			{ID: 2, CreatedAt: time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)},
		},
	}
	j.buildTranscriptTasks()

	if len(j.transcripts) != 3 {
		t.Fatalf("got %d tasks, want 2 for room 1 + 1 for room 2", len(j.transcripts))
	}
}
