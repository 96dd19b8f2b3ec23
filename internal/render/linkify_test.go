package render

import (
	"strings"
	"testing"
)

func TestLinkifyEscapesMetacharacters(t *testing.T) {
	got := Linkify(`a < b & c > "d"`)
	want := `a &lt; b &amp; c &gt; &quot;d&quot;`
	if got != want {
		t.Errorf("Linkify = %q, want %q", got, want)
	}
}

func TestLinkifyBareURL(t *testing.T) {
	got := Linkify("see https://example.com/page for details")
	want := `see <a href="https://example.com/page" target="_blank">https://example.com/page</a> for details`
	if got != want {
		t.Errorf("Linkify = %q, want %q", got, want)
	}
}

func TestLinkifyURLAtStart(t *testing.T) {
	got := Linkify("https://example.com and more")
	if !strings.HasPrefix(got, `<a href="https://example.com"`) {
		t.Errorf("URL at string start not linked: %q", got)
	}
}

func TestLinkifySingleImageCollapses(t *testing.T) {
	testCases := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "png",
			in:   "https://example.com/cat.png",
			want: `<a href="https://example.com/cat.png" target="_blank"><img src="https://example.com/cat.png" /></a>`,
		},
		{
			name: "jpeg case-insensitive",
			in:   "https://example.com/dog.JPEG",
			want: `<a href="https://example.com/dog.JPEG" target="_blank"><img src="https://example.com/dog.JPEG" /></a>`,
		},
		{
			name: "cloud short link",
			in:   "https://cl.ly/abc123",
			want: `<a href="https://cl.ly/abc123" target="_blank"><img src="https://cl.ly/abc123/i.png" /></a>`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Linkify(tc.in); got != tc.want {
				t.Errorf("Linkify(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestLinkifyImageWithTextGetsTrailingBlock(t *testing.T) {
	got := Linkify("look at this https://example.com/cat.png amazing")

	if !strings.Contains(got, `<a href="https://example.com/cat.png" target="_blank">https://example.com/cat.png</a>`) {
		t.Errorf("image URL not autolinked inline: %q", got)
	}
	// The image block is appended after the body, hoisted out of the
	// surrounding span.
	wantSuffix := `</span><div><a href="https://example.com/cat.png" target="_blank"><img src="https://example.com/cat.png" /></a></div><span>`
	if !strings.HasSuffix(got, wantSuffix) {
		t.Errorf("missing trailing image block: %q", got)
	}
}

func TestLinkifyCloudLinkWithText(t *testing.T) {
	got := Linkify("screenshot https://cl.ly/xyz here")

	if !strings.Contains(got, `<a href="https://cl.ly/xyz" target="_blank">https://cl.ly/xyz</a>`) {
		t.Errorf("cl.ly link not anchored: %q", got)
	}
	if !strings.Contains(got, `<img src="https://cl.ly/xyz/i.png" />`) {
		t.Errorf("cl.ly preview image missing: %q", got)
	}
}

func TestLinkifyMultipleImages(t *testing.T) {
	got := Linkify("https://a.example/1.png and https://b.example/2.gif")

	if n := strings.Count(got, "<div>"); n != 2 {
		t.Errorf("want 2 image blocks, got %d in %q", n, got)
	}
	// Two images never collapse to the single-image form: the text between
	// the links survives.
	if !strings.Contains(got, " and ") {
		t.Errorf("multi-image body must keep its text: %q", got)
	}
	if strings.HasPrefix(got, "<a href=") && strings.HasSuffix(got, "</a>") && strings.Count(got, "<a ") == 1 {
		t.Errorf("multi-image body collapsed to single-image form: %q", got)
	}
}

func TestLinkifyEmojiShortcode(t *testing.T) {
	got := Linkify("ship it :fire:")
	want := `ship it <span class="emoji" style="background-position:-224px -32px;"></span>`
	if got != want {
		t.Errorf("Linkify = %q, want %q", got, want)
	}
}

func TestLinkifyEmojiAlias(t *testing.T) {
	got := Linkify(":thumbsup:")
	if !strings.Contains(got, `class="emoji"`) {
		t.Errorf("alias shortcode not resolved: %q", got)
	}
}

func TestLinkifyUnknownShortcodeVerbatim(t *testing.T) {
	got := Linkify("totally :notarealemoji: fine")
	want := "totally :notarealemoji: fine"
	if got != want {
		t.Errorf("Linkify = %q, want %q", got, want)
	}
}

func TestLinkifyPlainTextUntouched(t *testing.T) {
	in := "just a normal message"
	if got := Linkify(in); got != in {
		t.Errorf("Linkify(%q) = %q", in, got)
	}
}
