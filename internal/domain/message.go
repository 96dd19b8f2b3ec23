package domain

import "time"

// MessageKind identifies the variant of a transcript message.
// The remote API reports it as a "type" string; the set below covers the
// kinds the renderer knows how to draw. Anything else falls through to the
// renderer's empty fallback.
type MessageKind string

const (
	KindText      MessageKind = "TextMessage"
	KindPaste     MessageKind = "PasteMessage"
	KindUpload    MessageKind = "UploadMessage"
	KindTweet     MessageKind = "TweetMessage"
	KindSound     MessageKind = "SoundMessage"
	KindEnter     MessageKind = "EnterMessage"
	KindLeave     MessageKind = "LeaveMessage"
	KindKick      MessageKind = "KickMessage"
	KindTopic     MessageKind = "TopicChangeMessage"
	KindTimestamp MessageKind = "TimestampMessage"
)

// Conversational reports whether messages of this kind merge into
// same-author run groups when rendered.
func (k MessageKind) Conversational() bool {
	switch k {
	case KindText, KindPaste, KindUpload, KindTweet, KindSound:
		return true
	}
	return false
}

// Message is one entry of a per-day transcript.
type Message struct {
	ID        int64       `json:"id"`
	RoomID    int64       `json:"room_id"`
	UserID    int64       `json:"user_id"`
	Kind      MessageKind `json:"type"`
	Body      string      `json:"body"`
	CreatedAt time.Time   `json:"created_at"`

	// Tweet metadata, present on TweetMessage only.
	Tweet *Tweet `json:"tweet,omitempty"`
}

// Tweet carries the embedded tweet fields of a TweetMessage.
type Tweet struct {
	ID              int64  `json:"id"`
	Message         string `json:"message"`
	AuthorUsername  string `json:"author_username"`
	AuthorAvatarURL string `json:"author_avatar_url"`
}

// Transcript is the payload of one per-day transcript document.
type Transcript struct {
	Messages []*Message `json:"messages"`
}
