// Package templates holds the page layout shared by every GUI page.
package templates

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

// Layout wraps body in the full HTML document.
func Layout(title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if err := LayoutStart(title).Render(ctx, w); err != nil {
			return err
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		return LayoutEnd().Render(ctx, w)
	})
}

// LayoutStart renders the document head and opens <main>. Streaming pages
// render it, then their content piecewise, then LayoutEnd.
func LayoutStart(title string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		pw := NewPageWriter(w)
		pw.Write(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		pw.Write(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		pw.Write(`<title>`, templ.EscapeString(title), ` · raverify</title>`)
		pw.Write(`<link rel="stylesheet" href="/static/style.css">`)
		pw.Write(`</head><body><header class="site-header"><a href="/">raverify</a></header><main>`)
		return pw.Err()
	})
}

// LayoutEnd closes the document opened by LayoutStart.
func LayoutEnd() templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := io.WriteString(w, `</main></body></html>`)
		return err
	})
}

// PageWriter writes string fragments and keeps the first error, so component
// bodies read top to bottom like markup.
type PageWriter struct {
	w   io.Writer
	err error
}

// NewPageWriter wraps w.
func NewPageWriter(w io.Writer) *PageWriter {
	return &PageWriter{w: w}
}

// Write writes each part in order. It is a no-op after the first error.
func (p *PageWriter) Write(parts ...string) {
	for _, s := range parts {
		if p.err != nil {
			return
		}
		_, p.err = io.WriteString(p.w, s)
	}
}

// Component renders c in place.
func (p *PageWriter) Component(ctx context.Context, c templ.Component) {
	if p.err != nil {
		return
	}
	p.err = c.Render(ctx, p.w)
}

// Err returns the first write error.
func (p *PageWriter) Err() error {
	return p.err
}

// Attr escapes s for use inside a double-quoted attribute.
func Attr(s string) string {
	return templ.EscapeString(s)
}
