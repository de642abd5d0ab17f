package util

import (
	"crypto/rand"
	_ "embed"
	"fmt"
	"html"
	"regexp"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

//go:embed version.txt
var embeddedVersion string

// ULID range sentinels used as default pagination cursors.
const (
	MinULID = "00000000000000000000000000"
	MaxULID = "7ZZZZZZZZZZZZZZZZZZZZZZZZZ"
)

// NewULID returns a fresh lexicographically sortable id in its canonical
// 26-character form.
func NewULID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now().UTC()), rand.Reader).String()
}

// ParseULID validates a candidate cursor. The canonical form is
// case-insensitive on input, so the returned string is normalized.
func ParseULID(s string) (string, error) {
	id, err := ulid.ParseStrict(strings.ToUpper(s))
	if err != nil {
		return "", fmt.Errorf("invalid ulid %q: %w", s, err)
	}
	return id.String(), nil
}

func GetVersion() string {
	return strings.TrimSpace(embeddedVersion)
}

func GetNameAndVersion() string {
	return fmt.Sprintf("%s / %s", Name, GetVersion())
}

// Truncate shortens text to max runes, appending an ellipsis when cut.
func Truncate(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max]) + "…"
}

var markdownLinkRe = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)

// MarkdownLinksToHTML converts Markdown links [text](url) to HTML <a> tags
func MarkdownLinksToHTML(text string) string {
	return markdownLinkRe.ReplaceAllStringFunc(text, func(match string) string {
		matches := markdownLinkRe.FindStringSubmatch(match)
		if len(matches) == 3 {
			linkText := html.EscapeString(matches[1])
			linkURL := html.EscapeString(matches[2])
			return fmt.Sprintf(`<a href="%s" target="_blank" rel="noopener noreferrer">%s</a>`, linkURL, linkText)
		}
		return match
	})
}

// RenderContentHTML turns stored article markdown-ish text into the HTML
// published in ActivityStreams content fields and on the blog pages.
func RenderContentHTML(text string) string {
	paragraphs := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n\n")
	var b strings.Builder
	for _, p := range paragraphs {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		// Brackets survive escaping, so link conversion runs on the
		// escaped text without re-escaping its anchors.
		escaped := html.EscapeString(p)
		escaped = strings.ReplaceAll(escaped, "\n", "<br>")
		escaped = markdownLinkRe.ReplaceAllString(escaped, `<a href="$2" target="_blank" rel="noopener noreferrer">$1</a>`)
		b.WriteString("<p>")
		b.WriteString(escaped)
		b.WriteString("</p>")
	}
	return b.String()
}
