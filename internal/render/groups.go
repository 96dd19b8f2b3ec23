package render

import "github.com/timmy/hearth/internal/domain"

// RunGroup is a rendering-time grouping of consecutive conversational
// messages by the same author. The persisted transcript is never regrouped.
type RunGroup struct {
	UserID   int64
	Messages []*domain.Message
}

// Entry is one item of a regrouped transcript: either a run group or a
// standalone non-conversational message.
type Entry struct {
	Group   *RunGroup
	Message *domain.Message
}

// Regroup merges consecutive conversational messages (text, paste, upload,
// tweet, sound) by the same author into run groups. An author change or a
// non-conversational message closes the current run.
func Regroup(msgs []*domain.Message) []Entry {
	var out []Entry
	var run []*domain.Message
	var runUser int64

	flush := func() {
		if len(run) > 0 {
			out = append(out, Entry{Group: &RunGroup{UserID: runUser, Messages: run}})
			run = nil
		}
	}

	for _, msg := range msgs {
		if msg.Kind.Conversational() {
			if len(run) > 0 && msg.UserID == runUser {
				run = append(run, msg)
				continue
			}
			flush()
			run = []*domain.Message{msg}
			runUser = msg.UserID
			continue
		}
		flush()
		out = append(out, Entry{Message: msg})
	}
	flush()

	return out
}
