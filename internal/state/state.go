// Package state persists per-entity completion flags for an archive job.
// The record is the sole source of truth for "has this entity been durably
// fetched"; every mutation rewrites the whole file synchronously so an
// interrupted run can resume without re-downloading finished work.
package state

import (
	"encoding/json"
	"os"
	"strconv"
	"sync"

	"github.com/timmy/hearth/internal/logger"
)

// RoomsState tracks the room-list fetch.
type RoomsState struct {
	Complete bool `json:"complete"`
}

// TranscriptState tracks one (room, day) transcript fetch.
type TranscriptState struct {
	Complete bool `json:"complete"`
}

// UploadState tracks one upload's descriptor and payload fetches.
type UploadState struct {
	JSON     bool `json:"json,omitempty"`
	Complete bool `json:"complete,omitempty"`
	NotFound bool `json:"notFound,omitempty"`
}

// Done reports whether the upload needs no further work.
func (u UploadState) Done() bool {
	return u.Complete || u.NotFound
}

// State is the serialized completion record. Maps are keyed by decimal
// entity IDs and by unpadded "YYYY-M-D" day keys.
type State struct {
	Subdomain   string                                 `json:"subdomain,omitempty"`
	Rooms       RoomsState                             `json:"rooms"`
	Transcripts map[string]map[string]*TranscriptState `json:"transcripts,omitempty"`
	Uploads     map[string]map[string]*UploadState     `json:"uploads,omitempty"`
}

func newState() *State {
	return &State{
		Transcripts: make(map[string]map[string]*TranscriptState),
		Uploads:     make(map[string]map[string]*UploadState),
	}
}

// Store owns the state file. All mutations take the store lock across
// mutate+save, so concurrent pool workers cannot interleave two half-written
// files even though they touch disjoint keys.
type Store struct {
	path string

	mu    sync.Mutex
	state *State
}

// Load reads the persisted state at path, returning an empty state when the
// file is absent or unparseable. A corrupt file is logged and discarded; the
// job simply restarts from scratch.
func Load(path string, log *logger.Logger) *Store {
	st := newState()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if jsonErr := json.Unmarshal(data, st); jsonErr != nil {
			log.WithError(jsonErr).WithField("path", path).
				Warn("Unable to read state file; a half-complete archive will restart from scratch")
			st = newState()
		}
	case !os.IsNotExist(err):
		log.WithError(err).WithField("path", path).
			Warn("Unable to read state file; a half-complete archive will restart from scratch")
	}

	if st.Transcripts == nil {
		st.Transcripts = make(map[string]map[string]*TranscriptState)
	}
	if st.Uploads == nil {
		st.Uploads = make(map[string]map[string]*UploadState)
	}

	return &Store{path: path, state: st}
}

// SetSubdomain records the owning subdomain in the state file.
func (s *Store) SetSubdomain(subdomain string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Subdomain = subdomain
	return s.save()
}

// RoomsComplete reports whether the room list has been durably fetched.
func (s *Store) RoomsComplete() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Rooms.Complete
}

// MarkRoomsComplete flags the room list as fetched and flushes.
func (s *Store) MarkRoomsComplete() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Rooms.Complete = true
	return s.save()
}

// TranscriptComplete reports whether the (room, day) transcript is cached.
func (s *Store) TranscriptComplete(roomID int64, dayKey string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	room := s.state.Transcripts[key(roomID)]
	if room == nil {
		return false
	}
	t := room[dayKey]
	return t != nil && t.Complete
}

// MarkTranscriptComplete flags one (room, day) transcript as fetched and flushes.
func (s *Store) MarkTranscriptComplete(roomID int64, dayKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	room := s.state.Transcripts[key(roomID)]
	if room == nil {
		room = make(map[string]*TranscriptState)
		s.state.Transcripts[key(roomID)] = room
	}
	room[dayKey] = &TranscriptState{Complete: true}
	return s.save()
}

// Upload returns the recorded state for one upload.
func (s *Store) Upload(roomID, uploadID int64) UploadState {
	s.mu.Lock()
	defer s.mu.Unlock()
	room := s.state.Uploads[key(roomID)]
	if room == nil {
		return UploadState{}
	}
	u := room[key(uploadID)]
	if u == nil {
		return UploadState{}
	}
	return *u
}

// MarkUploadJSON flags the upload's descriptor as cached and flushes.
func (s *Store) MarkUploadJSON(roomID, uploadID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upload(roomID, uploadID).JSON = true
	return s.save()
}

// MarkUploadComplete flags the upload's payload as downloaded and flushes.
func (s *Store) MarkUploadComplete(roomID, uploadID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upload(roomID, uploadID).Complete = true
	return s.save()
}

// MarkUploadNotFound records the upload as deleted upstream and flushes.
// This is a terminal outcome, not a failure.
func (s *Store) MarkUploadNotFound(roomID, uploadID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upload(roomID, uploadID).NotFound = true
	return s.save()
}

// upload returns the mutable entry, allocating as needed. Caller holds mu.
func (s *Store) upload(roomID, uploadID int64) *UploadState {
	room := s.state.Uploads[key(roomID)]
	if room == nil {
		room = make(map[string]*UploadState)
		s.state.Uploads[key(roomID)] = room
	}
	u := room[key(uploadID)]
	if u == nil {
		u = &UploadState{}
		room[key(uploadID)] = u
	}
	return u
}

// save overwrites the whole state file. Caller holds mu.
func (s *Store) save() error {
	data, err := json.MarshalIndent(s.state, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0644)
}

func key(id int64) string {
	return strconv.FormatInt(id, 10)
}
