package render

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	htmlEscaper = strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
	)

	// Bare URLs are delimited by whitespace or parens; anchors produced by an
	// earlier pass are safe because their URLs end up preceded by a quote or
	// a tag bracket, never a delimiter.
	cloudLinkRe = regexp.MustCompile(`(?i)(^|[\s\r\t()])(https?://cl\.ly/[^\s\r\t()]+)`)
	bareURLRe   = regexp.MustCompile(`(?i)(^|[\s\r\t()])(https?://[^\s\r\t()]+)`)
	imageExtRe  = regexp.MustCompile(`(?i)\.(png|jpg|gif|jpeg)$`)
	shortcodeRe = regexp.MustCompile(`:([a-z0-9\-_]+):`)
)

func escapeHTML(s string) string {
	return htmlEscaper.Replace(s)
}

// Linkify renders a plain message body as markup: HTML metacharacters are
// escaped first, bare URLs become anchors (cl.ly short links and image URLs
// additionally produce trailing image blocks), and :name: emoji shortcodes
// become sprite-positioned spans. A message whose entire content is a single
// image URL collapses to one image wrapped in a link, with no duplicate text.
func Linkify(s string) string {
	str := escapeHTML(s)
	original := str

	// [href, image source] pairs collected while autolinking.
	var imgs [][2]string

	str = cloudLinkRe.ReplaceAllStringFunc(str, func(m string) string {
		parts := cloudLinkRe.FindStringSubmatch(m)
		prefix, link := parts[1], parts[2]
		imgs = append(imgs, [2]string{link, link + "/i.png"})
		return prefix + anchor(link)
	})

	str = bareURLRe.ReplaceAllStringFunc(str, func(m string) string {
		parts := bareURLRe.FindStringSubmatch(m)
		prefix, link := parts[1], parts[2]
		if imageExtRe.MatchString(link) {
			imgs = append(imgs, [2]string{link, link})
		}
		return prefix + anchor(link)
	})

	// Special case: if the text is *only* an image, don't show the link text.
	if len(imgs) == 1 && original == imgs[0][0] {
		return fmt.Sprintf(`<a href="%s" target="_blank"><img src="%s" /></a>`, imgs[0][0], imgs[0][1])
	}

	str = shortcodeRe.ReplaceAllStringFunc(str, func(m string) string {
		code := m[1 : len(m)-1]
		e := lookupEmoji(code)
		if e == nil {
			return m
		}
		return fmt.Sprintf(`<span class="emoji" style="background-position:-%dpx -%dpx;"></span>`,
			e.SheetX*16, e.SheetY*16)
	})

	if len(imgs) > 0 {
		var blocks strings.Builder
		// The body sits inside a span; close it around the image blocks so
		// they become siblings rather than inline content.
		blocks.WriteString("</span>")
		for _, img := range imgs {
			fmt.Fprintf(&blocks, `<div><a href="%s" target="_blank"><img src="%s" /></a></div>`, img[0], img[1])
		}
		blocks.WriteString("<span>")
		str += blocks.String()
	}

	return str
}

func anchor(link string) string {
	return fmt.Sprintf(`<a href="%s" target="_blank">%s</a>`, link, link)
}
