package web

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	mdRenderer    goldmark.Markdown
	htmlSanitizer *bluemonday.Policy
)

// itemLinePattern matches lines that reference a verifiable item.
var itemLinePattern = regexp.MustCompile(`retroachievements\.org/(game|achievement)/[0-9]+`)

func init() {
	mdRenderer = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(html.WithUnsafe()),
	)

	htmlSanitizer = bluemonday.UGCPolicy()
}

// RenderMarkdown converts a markdown string to sanitized HTML.
// Returns empty string for empty input.
func RenderMarkdown(src string) string {
	if src == "" {
		return ""
	}

	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(src), &buf); err != nil {
		return htmlSanitizer.Sanitize(src)
	}

	return htmlSanitizer.Sanitize(buf.String())
}

// RenderSubmissionLines converts submission text into HTML with one <span>
// per line, classed by what the line references:
//   - line-game: links a game
//   - line-achievement: links an achievement
//   - line-text: anything else
func RenderSubmissionLines(text string) string {
	if text == "" {
		return ""
	}

	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	var buf strings.Builder
	buf.Grow(len(text) * 2)

	for i, line := range lines {
		if i > 0 {
			buf.WriteByte('\n')
		}

		buf.WriteString(`<span class="`)
		buf.WriteString(classForSubmissionLine(line))
		buf.WriteString(`">`)
		buf.WriteString(htmlSanitizer.Sanitize(line))
		buf.WriteString(`</span>`)
	}

	return buf.String()
}

func classForSubmissionLine(line string) string {
	m := itemLinePattern.FindStringSubmatch(line)
	if m == nil {
		return "line-text"
	}
	return "line-" + m[1]
}
