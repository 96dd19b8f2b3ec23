package state

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/timmy/hearth/internal/logger"
)

func testLogger() *logger.Logger {
	return logger.New(&logger.Config{Level: "error", Format: "text", ServiceName: "test"})
}

func TestLoadMissingFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	s := Load(path, testLogger())

	if s.RoomsComplete() {
		t.Error("fresh state should not have rooms complete")
	}
	if s.TranscriptComplete(1, "2024-1-5") {
		t.Error("fresh state should not have transcripts complete")
	}
}

func TestLoadCorruptFileRestartsFromScratch(t *testing.T) {
	testCases := []struct {
		name    string
		content string
	}{
		{name: "truncated json", content: `{"rooms": {"complete": tr`},
		{name: "not json at all", content: "hello world"},
		{name: "empty file", content: ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "state.json")
			if err := os.WriteFile(path, []byte(tc.content), 0644); err != nil {
				t.Fatal(err)
			}

			s := Load(path, testLogger())

			if s.RoomsComplete() {
				t.Error("corrupt state should restart from scratch")
			}
		})
	}
}

func TestRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	s := Load(path, testLogger())
	if err := s.SetSubdomain("acme"); err != nil {
		t.Fatal(err)
	}
	if err := s.MarkRoomsComplete(); err != nil {
		t.Fatal(err)
	}
	if err := s.MarkTranscriptComplete(42, "2024-1-5"); err != nil {
		t.Fatal(err)
	}
	if err := s.MarkUploadJSON(42, 900); err != nil {
		t.Fatal(err)
	}
	if err := s.MarkUploadComplete(42, 900); err != nil {
		t.Fatal(err)
	}
	if err := s.MarkUploadNotFound(42, 901); err != nil {
		t.Fatal(err)
	}

	// A second load must see everything the first store flushed.
	reloaded := Load(path, testLogger())

	if !reloaded.RoomsComplete() {
		t.Error("rooms completion lost across reload")
	}
	if !reloaded.TranscriptComplete(42, "2024-1-5") {
		t.Error("transcript completion lost across reload")
	}
	if reloaded.TranscriptComplete(42, "2024-1-6") {
		t.Error("unmarked transcript reported complete")
	}
	if u := reloaded.Upload(42, 900); !u.JSON || !u.Complete || u.NotFound {
		t.Errorf("upload 900 state = %+v, want json+complete", u)
	}
	if u := reloaded.Upload(42, 901); !u.NotFound || !u.Done() {
		t.Errorf("upload 901 state = %+v, want terminal notFound", u)
	}
	if u := reloaded.Upload(42, 902); u.Done() {
		t.Errorf("unknown upload reported done: %+v", u)
	}
}

func TestEveryMutationFlushesToDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	s := Load(path, testLogger())
	if err := s.MarkTranscriptComplete(7, "2023-12-31"); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("state file not written: %v", err)
	}

	var onDisk State
	if err := json.Unmarshal(data, &onDisk); err != nil {
		t.Fatalf("state file not valid JSON: %v", err)
	}
	if ts := onDisk.Transcripts["7"]["2023-12-31"]; ts == nil || !ts.Complete {
		t.Errorf("on-disk transcripts = %+v, want 7/2023-12-31 complete", onDisk.Transcripts)
	}
}

func TestUploadStateDone(t *testing.T) {
	testCases := []struct {
		name string
		st   UploadState
		want bool
	}{
		{name: "zero", st: UploadState{}, want: false},
		{name: "json only", st: UploadState{JSON: true}, want: false},
		{name: "complete", st: UploadState{JSON: true, Complete: true}, want: true},
		{name: "not found", st: UploadState{NotFound: true}, want: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.st.Done(); got != tc.want {
				t.Errorf("Done() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestConcurrentMarks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	s := Load(path, testLogger())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int64) {
			defer wg.Done()
			if err := s.MarkTranscriptComplete(n%4, "2024-2-1"); err != nil {
				t.Errorf("MarkTranscriptComplete: %v", err)
			}
			if err := s.MarkUploadComplete(n%4, n); err != nil {
				t.Errorf("MarkUploadComplete: %v", err)
			}
		}(int64(i))
	}
	wg.Wait()

	reloaded := Load(path, testLogger())
	for i := int64(0); i < 20; i++ {
		if !reloaded.Upload(i%4, i).Complete {
			t.Errorf("upload %d lost in concurrent flush", i)
		}
	}
	for r := int64(0); r < 4; r++ {
		if !reloaded.TranscriptComplete(r, "2024-2-1") {
			t.Errorf("transcript for room %d lost in concurrent flush", r)
		}
	}
}
