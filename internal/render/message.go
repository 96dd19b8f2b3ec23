package render

import (
	"bytes"
	"fmt"
	"html/template"
	"net/url"
	"os"
	"path/filepath"

	"github.com/timmy/hearth/internal/domain"
)

// messageView is the payload handed to a message-kind template.
type messageView struct {
	Msg  *domain.Message
	User *domain.User
	Body template.HTML
	Time string
}

// renderMessage dispatches a message to the template matching its kind.
// Upload messages are drawn directly because they also copy the payload into
// the tree. An unrecognized kind is logged and renders as the empty string
// rather than failing the page.
func (r *Renderer) renderMessage(msg *domain.Message) template.HTML {
	if msg.Kind == domain.KindUpload {
		return r.uploadMessageHTML(msg)
	}

	tmpl := pageTemplates.Lookup(string(msg.Kind) + ".tmpl")
	if tmpl == nil {
		r.Log.WithField("kind", string(msg.Kind)).Warn("No template for message kind")
		return ""
	}

	view := messageView{
		Msg:  msg,
		User: r.User(msg.UserID),
		Body: template.HTML(Linkify(msg.Body)),
		Time: msg.CreatedAt.Format("15:04"),
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, view); err != nil {
		r.Log.WithError(err).WithField("kind", string(msg.Kind)).Warn("Message template failed")
		return ""
	}
	return template.HTML(buf.String())
}

// uploadMessageHTML copies the cached payload into the rendered tree and
// links to it. A not-found upload renders the original text plus a deleted
// marker instead.
func (r *Renderer) uploadMessageHTML(msg *domain.Message) template.HTML {
	st := r.Uploads.Status(msg.RoomID, msg.ID)
	if st.NotFound || !st.Fetched {
		return template.HTML(fmt.Sprintf(
			`<div class="upload"><span class="txt">%s</span><span class="deleted">[deleted]</span></div>`,
			escapeHTML(msg.Body)))
	}

	upload, err := r.Uploads.Descriptor(msg.RoomID, msg.ID)
	if err != nil {
		r.Log.WithError(err).WithField("upload_id", msg.ID).Warn("Upload descriptor unreadable")
		return template.HTML(fmt.Sprintf(`<div class="upload"><span class="txt">%s</span></div>`, escapeHTML(msg.Body)))
	}

	src := r.Uploads.PayloadPath(msg.RoomID, msg.ID, upload.Name)
	dest := filepath.Join(r.OutDir, fmt.Sprintf("%d", msg.RoomID), "uploads", fmt.Sprintf("%d", msg.ID), upload.Name)
	if err := copyFile(src, dest); err != nil {
		r.Log.WithError(err).WithField("upload_id", msg.ID).Warn("Upload payload copy failed")
		return template.HTML(fmt.Sprintf(`<div class="upload"><span class="txt">%s</span></div>`, escapeHTML(msg.Body)))
	}

	// Relative to the day page at {room}/{year}/{month}/{day}.html.
	rel := fmt.Sprintf("../../uploads/%d/%s", msg.ID, upload.Name)
	href := (&url.URL{Path: rel}).String()

	body := escapeHTML(msg.Body)
	if upload.IsImage() {
		body = fmt.Sprintf(`<img src="%s"/>`, href)
	}

	return template.HTML(fmt.Sprintf(`<div class="upload"><a href="%s" target="_blank">%s</a></div>`, href, body))
}

func copyFile(src, dest string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return err
	}
	return os.WriteFile(dest, data, 0644)
}
