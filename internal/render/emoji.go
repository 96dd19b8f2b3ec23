package render

import (
	_ "embed"
	"encoding/json"
	"strings"
	"sync"
)

// The emoji dataset maps shortcode names to sprite-sheet coordinates on the
// bundled 16px-grid sheet. It is a fixed lookup table consulted during
// rendering only.

//go:embed assets/emoji.json
var emojiJSON []byte

// Emoji is one entry of the sprite lookup table.
type Emoji struct {
	ShortName  string   `json:"short_name"`
	ShortNames []string `json:"short_names"`
	SheetX     int      `json:"sheet_x"`
	SheetY     int      `json:"sheet_y"`
}

var (
	emojiOnce  sync.Once
	emojiIndex map[string]*Emoji
)

// lookupEmoji resolves a shortcode by short name or alias, case-insensitively.
// Returns nil for unknown codes, which the caller leaves verbatim.
func lookupEmoji(code string) *Emoji {
	emojiOnce.Do(func() {
		var table []*Emoji
		if err := json.Unmarshal(emojiJSON, &table); err != nil {
			// A broken embedded table renders every shortcode verbatim.
			emojiIndex = map[string]*Emoji{}
			return
		}
		emojiIndex = make(map[string]*Emoji, len(table))
		for _, e := range table {
			emojiIndex[e.ShortName] = e
			for _, alias := range e.ShortNames {
				if _, ok := emojiIndex[alias]; !ok {
					emojiIndex[alias] = e
				}
			}
		}
	})
	return emojiIndex[strings.ToLower(code)]
}
