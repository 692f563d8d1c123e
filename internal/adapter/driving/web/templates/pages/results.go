package pages

import (
	"context"
	"io"
	"strconv"

	"github.com/a-h/templ"

	"github.com/ericfisherdev/raverify/internal/adapter/driving/web/templates"
	vm "github.com/ericfisherdev/raverify/internal/adapter/driving/web/viewmodel"
)

// ResultsHeader opens the results list. Rows follow one at a time as they
// are verified; ResultsFooter closes the list.
func ResultsHeader(m vm.ResultsViewModel) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		pw := templates.NewPageWriter(w)
		esc := templ.EscapeString[string]

		pw.Write(`<section class="results-header"><h1>Verifying `, esc(m.Username))
		if m.Alt != "" {
			pw.Write(` <small>(alt: `, esc(m.Alt), `)</small>`)
		}
		pw.Write(`</h1>`)
		if m.Window != "" {
			pw.Write(`<p class="window">`, esc(m.Window), `</p>`)
		}
		pw.Write(`<p class="count">`, strconv.Itoa(m.ItemCount), ` items</p>`)
		if m.SubmissionHTML != "" {
			pw.Write(`<details class="submission"><summary>Submission</summary><pre>`)
			pw.Component(ctx, templ.Raw(m.SubmissionHTML))
			pw.Write(`</pre></details>`)
		}
		pw.Write(`</section><ol class="results">`)
		return pw.Err()
	})
}

// ResultRow renders one verified item.
func ResultRow(r vm.ResultRowViewModel) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		pw := templates.NewPageWriter(w)
		esc := templ.EscapeString[string]
		attr := templates.Attr

		pw.Write(`<li class="result `, attr(r.Classes), `" data-index="`, strconv.Itoa(r.Index), `" data-kind="`, attr(r.Kind), `">`)
		pw.Write(`<span class="symbol">`, esc(r.Symbol), `</span>`)
		if r.IconURL != "" {
			pw.Write(`<img class="icon" alt="" loading="lazy" src="`, attr(r.IconURL), `">`)
		}
		pw.Write(`<a class="title" href="`, attr(r.URL), `" rel="noopener" target="_blank">`, esc(r.Title), `</a>`)
		pw.Write(`<span class="timestamp">`, esc(r.Timestamp), `</span></li>`)
		return pw.Err()
	})
}

// ResultsFooter closes the results list and renders the run summary.
func ResultsFooter(s vm.RunSummaryViewModel, backURL string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		pw := templates.NewPageWriter(w)
		esc := templ.EscapeString[string]

		pw.Write(`</ol><section class="summary">`)
		if s.Error != "" {
			pw.Write(`<div class="banner error" role="alert">`, esc(s.Error), `</div>`)
		}
		pw.Write(`<p>`, strconv.Itoa(s.Passed), ` of `, strconv.Itoa(s.Items), ` verified</p>`)
		if s.RunID != "" {
			pw.Write(`<p class="run-id">run `, esc(s.RunID), `</p>`)
		}
		pw.Write(`<a href="`, templates.Attr(backURL), `">Back to the form</a></section>`)
		return pw.Err()
	})
}
