// Package render turns a job's fully materialized local cache into a
// self-contained static HTML tree: one index page, one page per room, and
// one page per (room, day) transcript, with uploads copied alongside.
package render

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"time"

	"github.com/timmy/hearth/internal/domain"
	"github.com/timmy/hearth/internal/logger"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

//go:embed assets/style.css
var styleCSS []byte

//go:embed assets/emoji-16.png
var emojiSheet []byte

var pageTemplates = template.Must(template.ParseFS(templateFS, "templates/*.tmpl"))

// Day is one renderable (room, calendar day) transcript. Load reads the
// cached document; the renderer never mutates it.
type Day struct {
	Room *domain.Room
	Date time.Time
	Load func(ctx context.Context) (*domain.Transcript, error)
}

// UploadStatus mirrors the persisted upload lifecycle for rendering.
type UploadStatus struct {
	NotFound bool
	Fetched  bool
}

// UploadSource gives the renderer access to cached upload descriptors and
// payloads without knowing the cache layout.
type UploadSource interface {
	Status(roomID, uploadID int64) UploadStatus
	Descriptor(roomID, uploadID int64) (*domain.Upload, error)
	PayloadPath(roomID, uploadID int64, name string) string
}

// Renderer holds everything needed to draw the archive tree.
type Renderer struct {
	OutDir  string
	Rooms   []*domain.Room
	Days    []*Day
	User    func(id int64) *domain.User
	Uploads UploadSource
	Log     *logger.Logger

	// OnPage is invoked once per rendered day page, for progress tracking.
	OnPage func()
}

// Render writes the static assets and every page. Rooms and days render
// sequentially; ordering within a room follows the chronological day list.
func (r *Renderer) Render(ctx context.Context) error {
	if err := os.MkdirAll(r.OutDir, 0755); err != nil {
		return fmt.Errorf("failed to create archive directory: %w", err)
	}
	if err := os.WriteFile(filepath.Join(r.OutDir, "style.css"), styleCSS, 0644); err != nil {
		return fmt.Errorf("failed to write stylesheet: %w", err)
	}
	if err := os.WriteFile(filepath.Join(r.OutDir, "emoji-16.png"), emojiSheet, 0644); err != nil {
		return fmt.Errorf("failed to write emoji sheet: %w", err)
	}

	for _, room := range r.Rooms {
		if err := r.renderRoom(ctx, room); err != nil {
			return err
		}
	}

	return r.renderIndex()
}

// navRef is a relative link between transcript pages.
type navRef struct {
	Href  string
	Label string
}

// dayPage is the template payload for one transcript page.
type dayPage struct {
	Room    *domain.Room
	Date    time.Time
	Title   string
	Entries []entryView
	Prev    *navRef
	Next    *navRef
}

// entryView is either a run group or a standalone message, prerendered.
type entryView struct {
	User     *domain.User
	Messages []template.HTML
	Single   template.HTML
}

// roomPage is the template payload for a room's index.
type roomPage struct {
	Room  *domain.Room
	Years []yearView
}

type yearView struct {
	Year int
	Days []dayLink
}

type dayLink struct {
	Href     string
	Label    string
	Messages int
}

// pagePath returns a day page's path relative to the room directory, with
// zero-padded month and day.
func pagePath(d time.Time) string {
	return fmt.Sprintf("%d/%02d/%02d.html", d.Year(), int(d.Month()), d.Day())
}

func (r *Renderer) renderRoom(ctx context.Context, room *domain.Room) error {
	roomDir := filepath.Join(r.OutDir, fmt.Sprintf("%d", room.ID))
	if err := os.MkdirAll(roomDir, 0755); err != nil {
		return fmt.Errorf("failed to create room directory: %w", err)
	}

	var days []*Day
	for _, d := range r.Days {
		if d.Room.ID == room.ID {
			days = append(days, d)
		}
	}

	for i, day := range days {
		var prev, next *navRef
		if i > 0 {
			prev = &navRef{Href: "../../" + pagePath(days[i-1].Date), Label: days[i-1].Date.Format("January 2, 2006")}
		}
		if i < len(days)-1 {
			next = &navRef{Href: "../../" + pagePath(days[i+1].Date), Label: days[i+1].Date.Format("January 2, 2006")}
		}
		if err := r.renderDay(ctx, room, day, prev, next); err != nil {
			return err
		}
	}

	page := roomPage{Room: room}
	for _, day := range days {
		year := day.Date.Year()
		if len(page.Years) == 0 || page.Years[len(page.Years)-1].Year != year {
			page.Years = append(page.Years, yearView{Year: year})
		}
		yv := &page.Years[len(page.Years)-1]
		count := 0
		if byDay := room.Activity[year]; byDay != nil {
			count = byDay[fmt.Sprintf("%d/%d", int(day.Date.Month()), day.Date.Day())]
		}
		yv.Days = append(yv.Days, dayLink{
			Href:     pagePath(day.Date),
			Label:    day.Date.Format("January 2, 2006"),
			Messages: count,
		})
	}

	return r.writePage(filepath.Join(roomDir, "index.html"), "room.tmpl", page)
}

func (r *Renderer) renderDay(ctx context.Context, room *domain.Room, day *Day, prev, next *navRef) error {
	transcript, err := day.Load(ctx)
	if err != nil {
		return err
	}

	room.RecordActivity(day.Date.Year(), int(day.Date.Month()), day.Date.Day(), len(transcript.Messages))

	page := dayPage{
		Room:  room,
		Date:  day.Date,
		Title: fmt.Sprintf("%s — %s", room.Name, day.Date.Format("January 2, 2006")),
		Prev:  prev,
		Next:  next,
	}

	for _, entry := range Regroup(transcript.Messages) {
		if entry.Group != nil {
			ev := entryView{User: r.User(entry.Group.UserID)}
			for _, msg := range entry.Group.Messages {
				ev.Messages = append(ev.Messages, r.renderMessage(msg))
			}
			page.Entries = append(page.Entries, ev)
			continue
		}
		page.Entries = append(page.Entries, entryView{Single: r.renderMessage(entry.Message)})
	}

	out := filepath.Join(r.OutDir, fmt.Sprintf("%d", room.ID), pagePath(day.Date))
	if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
		return fmt.Errorf("failed to create page directory: %w", err)
	}
	if err := r.writePage(out, "transcript.tmpl", page); err != nil {
		return err
	}

	if r.OnPage != nil {
		r.OnPage()
	}
	return nil
}

func (r *Renderer) renderIndex() error {
	return r.writePage(filepath.Join(r.OutDir, "index.html"), "index.tmpl", struct {
		Rooms []*domain.Room
	}{Rooms: r.Rooms})
}

func (r *Renderer) writePage(path, tmpl string, data interface{}) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	if err := pageTemplates.ExecuteTemplate(f, tmpl, data); err != nil {
		return fmt.Errorf("failed to render %s: %w", tmpl, err)
	}
	return nil
}
