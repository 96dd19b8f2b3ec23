package archiver

import (
	"archive/zip"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/timmy/hearth/internal/config"
	"github.com/timmy/hearth/internal/domain"
	"github.com/timmy/hearth/internal/logger"
)

// fakeAPI is an in-process stand-in for the chat service, serving a single
// room with three days of history and counting every request path.
type fakeAPI struct {
	srv *httptest.Server

	mu   sync.Mutex
	hits map[string]int
}

var testNow = time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

func newFakeAPI(t *testing.T) *fakeAPI {
	f := &fakeAPI{hits: make(map[string]int)}

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.hits[r.URL.Path]++
		f.mu.Unlock()

		if user, pass, ok := r.BasicAuth(); !ok || user != "tok" || pass != "X" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		switch {
		case r.URL.Path == "/rooms.json":
			writeJSON(w, map[string]interface{}{
				"rooms": []map[string]interface{}{{
					"id":         1,
					"name":       "Dev",
					"topic":      "builds",
					"created_at": "2024-05-08T09:30:00Z",
				}},
			})
		case r.URL.Path == "/room/1/transcript/2024/5/8.json":
			writeJSON(w, transcriptDoc(
				textMsg(1, 100, "good morning"),
				textMsg(2, 101, "hello"),
			))
		case r.URL.Path == "/room/1/transcript/2024/5/9.json":
			writeJSON(w, transcriptDoc(
				uploadMsg(500, 100, "pic?.png"),
				uploadMsg(501, 101, "gone.txt"),
				textMsg(502, 100, "see attachments"),
			))
		case r.URL.Path == "/room/1/transcript/2024/5/10.json":
			writeJSON(w, transcriptDoc(
				textMsg(600, 100, "still going"),
			))
		case r.URL.Path == "/users/100.json":
			writeJSON(w, map[string]interface{}{"user": map[string]interface{}{"id": 100, "name": "Alice"}})
		case r.URL.Path == "/users/101.json":
			writeJSON(w, map[string]interface{}{"user": map[string]interface{}{"id": 101, "name": "Bob"}})
		case r.URL.Path == "/room/1/messages/500/upload.json":
			writeJSON(w, map[string]interface{}{"upload": map[string]interface{}{
				"id":           500,
				"room_id":      1,
				"name":         "pic?.png",
				"byte_size":    9,
				"content_type": "image/png",
				"full_url":     f.srv.URL + "/files/pic.png",
			}})
		case r.URL.Path == "/room/1/messages/501/upload.json":
			// Deleted upstream.
			http.NotFound(w, r)
		case r.URL.Path == "/files/pic.png":
			w.Write([]byte("png-bytes"))
		default:
			http.NotFound(w, r)
		}
	})

	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeAPI) count(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits[path]
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func transcriptDoc(msgs ...map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{"messages": msgs}
}

func textMsg(id, user int64, body string) map[string]interface{} {
	return map[string]interface{}{
		"id": id, "room_id": 1, "user_id": user,
		"type": "TextMessage", "body": body,
		"created_at": "2024-05-08T10:00:00Z",
	}
}

func uploadMsg(id, user int64, body string) map[string]interface{} {
	return map[string]interface{}{
		"id": id, "room_id": 1, "user_id": user,
		"type": "UploadMessage", "body": body,
		"created_at": "2024-05-09T10:00:00Z",
	}
}

func testJob(t *testing.T, api *fakeAPI, dataRoot string) *Job {
	cfg := &config.ArchiveConfig{
		BaseURL:           api.srv.URL,
		DataRoot:          dataRoot,
		UserAgent:         "Campfire Archiver",
		TranscriptWorkers: 4,
		UserWorkers:       2,
		UploadWorkers:     2,
	}
	log := logger.New(&logger.Config{Level: "error", Format: "text", ServiceName: "test"})

	j, err := New(cfg, "acme", "tok", log)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	j.now = func() time.Time { return testNow }
	return j
}

func TestRunProducesArchive(t *testing.T) {
	api := newFakeAPI(t)
	dataRoot := t.TempDir()

	j := testJob(t, api, dataRoot)
	if err := j.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if !j.Progress().Finished() {
		t.Error("progress should report the terminal stage complete")
	}
	snap := j.Progress().Snapshot()
	if len(snap) != 6 {
		t.Fatalf("snapshot has %d stages, want 6", len(snap))
	}
	for _, s := range snap {
		if !s.Done {
			t.Errorf("stage %q not done after Run", s.Title)
		}
		if s.DoneUnits != s.TotalUnits {
			t.Errorf("stage %q units %d/%d", s.Title, s.DoneUnits, s.TotalUnits)
		}
	}

	// Rendered tree.
	dayPage := filepath.Join(j.ArchiveDir(), "1", "2024", "05", "08.html")
	html, err := os.ReadFile(dayPage)
	if err != nil {
		t.Fatalf("missing rendered day page: %v", err)
	}
	if !strings.Contains(string(html), "good morning") || !strings.Contains(string(html), "Alice") {
		t.Error("day page lacks message body or author")
	}

	// The upload payload lands under its sanitized name, in the cache and in
	// the rendered tree.
	cached := filepath.Join(j.WorkDir(), "rooms", "1", "uploads", "500", "pic_.png")
	if _, err := os.Stat(cached); err != nil {
		t.Errorf("cached upload payload missing: %v", err)
	}
	copied := filepath.Join(j.ArchiveDir(), "1", "uploads", "500", "pic_.png")
	if _, err := os.Stat(copied); err != nil {
		t.Errorf("rendered upload payload missing: %v", err)
	}

	// The deleted upload renders a placeholder.
	day2, err := os.ReadFile(filepath.Join(j.ArchiveDir(), "1", "2024", "05", "09.html"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(day2), "[deleted]") {
		t.Error("deleted upload placeholder missing from rendered page")
	}

	// The zip holds the whole tree.
	zr, err := zip.OpenReader(j.ZipPath())
	if err != nil {
		t.Fatalf("artifact unreadable: %v", err)
	}
	defer zr.Close()

	names := make(map[string]bool, len(zr.File))
	for _, zf := range zr.File {
		names[zf.Name] = true
	}
	for _, want := range []string{"index.html", "style.css", "1/index.html", "1/2024/05/08.html", "1/uploads/500/pic_.png"} {
		if !names[want] {
			t.Errorf("artifact missing %s", want)
		}
	}
}

func TestRenderReadsFromCache(t *testing.T) {
	api := newFakeAPI(t)

	j := testJob(t, api, t.TempDir())
	if err := j.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	// A single run fetches each day exactly once, today included; the render
	// pass works off the cache the transcript stage just wrote.
	for _, path := range []string{
		"/room/1/transcript/2024/5/8.json",
		"/room/1/transcript/2024/5/10.json",
	} {
		if got := api.count(path); got != 1 {
			t.Errorf("%s fetched %d times in one run, want 1", path, got)
		}
	}
}

func TestRerunResumesFromState(t *testing.T) {
	api := newFakeAPI(t)
	dataRoot := t.TempDir()

	j1 := testJob(t, api, dataRoot)
	if err := j1.Run(context.Background()); err != nil {
		t.Fatalf("first Run: %v", err)
	}

	roomsHits := api.count("/rooms.json")
	day1Hits := api.count("/room/1/transcript/2024/5/8.json")
	uploadJSONHits := api.count("/room/1/messages/500/upload.json")
	payloadHits := api.count("/files/pic.png")
	goneHits := api.count("/room/1/messages/501/upload.json")

	j2 := testJob(t, api, dataRoot)
	if err := j2.Run(context.Background()); err != nil {
		t.Fatalf("second Run: %v", err)
	}

	// Completed work is served from the cache: no rooms refetch, no past-day
	// transcript refetch, no upload descriptor or payload traffic at all.
	if got := api.count("/rooms.json"); got != roomsHits {
		t.Errorf("rooms.json fetched again on rerun: %d -> %d", roomsHits, got)
	}
	if got := api.count("/room/1/transcript/2024/5/8.json"); got != day1Hits {
		t.Errorf("completed past day refetched on rerun: %d -> %d", day1Hits, got)
	}
	if got := api.count("/room/1/messages/500/upload.json"); got != uploadJSONHits {
		t.Errorf("completed upload descriptor refetched: %d -> %d", uploadJSONHits, got)
	}
	if got := api.count("/files/pic.png"); got != payloadHits {
		t.Errorf("completed upload payload refetched: %d -> %d", payloadHits, got)
	}
	if got := api.count("/room/1/messages/501/upload.json"); got != goneHits {
		t.Errorf("not-found upload reprobed on rerun: %d -> %d", goneHits, got)
	}

	// Today is always treated as stale.
	if got := api.count("/room/1/transcript/2024/5/10.json"); got <= 1 {
		t.Errorf("today's transcript should be refetched on rerun, got %d hits total", got)
	}
}

func TestCorruptCachedTranscriptSelfHeals(t *testing.T) {
	api := newFakeAPI(t)
	dataRoot := t.TempDir()

	j1 := testJob(t, api, dataRoot)
	if err := j1.Run(context.Background()); err != nil {
		t.Fatalf("first Run: %v", err)
	}

	// Corrupt a completed day's cache file.
	path := filepath.Join(dataRoot, "acme", "rooms", "1", "transcripts", "2024-5-8.json")
	if err := os.WriteFile(path, []byte("{corrupt"), 0644); err != nil {
		t.Fatal(err)
	}
	before := api.count("/room/1/transcript/2024/5/8.json")

	j2 := testJob(t, api, dataRoot)
	if err := j2.Run(context.Background()); err != nil {
		t.Fatalf("second Run: %v", err)
	}

	if got := api.count("/room/1/transcript/2024/5/8.json"); got != before+1 {
		t.Errorf("corrupt cache should trigger exactly one refetch: %d -> %d", before, got)
	}

	// The refetched document must be parseable again.
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var tr domain.Transcript
	if err := json.Unmarshal(data, &tr); err != nil {
		t.Errorf("healed cache still corrupt: %v", err)
	}
}

func TestCorruptStateRestartsFromScratch(t *testing.T) {
	api := newFakeAPI(t)
	dataRoot := t.TempDir()

	j1 := testJob(t, api, dataRoot)
	if err := j1.Run(context.Background()); err != nil {
		t.Fatalf("first Run: %v", err)
	}

	if err := os.WriteFile(filepath.Join(dataRoot, "acme", "state.json"), []byte("not json"), 0644); err != nil {
		t.Fatal(err)
	}
	before := api.count("/room/1/transcript/2024/5/8.json")

	j2 := testJob(t, api, dataRoot)
	if err := j2.Run(context.Background()); err != nil {
		t.Fatalf("second Run: %v", err)
	}

	if got := api.count("/room/1/transcript/2024/5/8.json"); got <= before {
		t.Error("with a corrupt state record, past days must be refetched")
	}
}

func TestCleanupRemovesWorkDir(t *testing.T) {
	api := newFakeAPI(t)
	dataRoot := t.TempDir()

	j := testJob(t, api, dataRoot)
	if err := j.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if err := j.Cleanup(); err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	if _, err := os.Stat(j.WorkDir()); !os.IsNotExist(err) {
		t.Errorf("working directory still present: %v", err)
	}
}

func TestRunAbortsOnServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cfg := &config.ArchiveConfig{
		BaseURL:           srv.URL,
		DataRoot:          t.TempDir(),
		TranscriptWorkers: 2,
		UserWorkers:       2,
		UploadWorkers:     2,
	}
	log := logger.New(&logger.Config{Level: "error", Format: "text", ServiceName: "test"})

	j, err := New(cfg, "acme", "tok", log)
	if err != nil {
		t.Fatal(err)
	}

	err = j.Run(context.Background())
	if err == nil {
		t.Fatal("Run should fail when the room list cannot be fetched")
	}
	if !strings.Contains(err.Error(), "rooms stage") {
		t.Errorf("error should name the failing stage: %v", err)
	}
	if j.Progress().Finished() {
		t.Error("failed run must not report completion")
	}
}

func TestRunPoolPropagatesFirstError(t *testing.T) {
	items := []int{1, 2, 3, 4, 5, 6, 7, 8}
	boom := fmt.Errorf("item 4 broke")

	err := runPool(context.Background(), 3, items, func(ctx context.Context, n int) error {
		if n == 4 {
			return boom
		}
		return nil
	})
	if err != boom {
		t.Errorf("runPool error = %v, want the worker's error", err)
	}
}

func TestRunPoolHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := runPool(ctx, 2, []int{1, 2, 3}, func(ctx context.Context, n int) error {
		return nil
	})
	if err == nil {
		t.Error("cancelled pool should surface the context error")
	}
}
