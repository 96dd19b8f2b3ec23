package domain

import "strings"

// Upload is the descriptor of a file attached to an UploadMessage, as
// returned by room/{room}/messages/{id}/upload.json.
type Upload struct {
	ID          int64  `json:"id"`
	RoomID      int64  `json:"room_id"`
	Name        string `json:"name"`
	ByteSize    int64  `json:"byte_size"`
	ContentType string `json:"content_type"`
	FullURL     string `json:"full_url"`
}

// UploadEnvelope is the wire wrapper around an upload descriptor. A response
// with a nil Upload means the file was deleted upstream.
type UploadEnvelope struct {
	Upload *Upload `json:"upload"`
}

// SanitizeName rewrites the stored filename so it is safe to use as a local
// path component. Question marks confuse both the filesystem cache and the
// generated links.
func (u *Upload) SanitizeName() {
	u.Name = strings.ReplaceAll(u.Name, "?", "_")
}

// IsImage reports whether the payload should render as an inline image.
func (u *Upload) IsImage() bool {
	return strings.HasPrefix(u.ContentType, "image/")
}
