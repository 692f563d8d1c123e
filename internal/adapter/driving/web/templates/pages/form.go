// Package pages contains the GUI page components.
package pages

import (
	"context"
	"io"

	"github.com/a-h/templ"

	"github.com/ericfisherdev/raverify/internal/adapter/driving/web/templates"
	vm "github.com/ericfisherdev/raverify/internal/adapter/driving/web/viewmodel"
)

// SubmissionForm renders the submission form page body: banners, the form,
// the credential modal, the share link and the options panel.
func SubmissionForm(m vm.FormViewModel) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		pw := templates.NewPageWriter(w)
		esc := templ.EscapeString[string]
		attr := templates.Attr

		if m.Error != "" {
			pw.Write(`<div class="banner error" role="alert">`, esc(m.Error), `</div>`)
		}
		if m.Notice != "" {
			pw.Write(`<div class="banner notice" role="status">`, esc(m.Notice), `</div>`)
		}

		pw.Write(`<form id="submission" method="post" action="/verify" class="submission-form">`)
		pw.Write(`<input type="hidden" name="csrf_token" value="`, attr(m.CSRFToken), `">`)
		pw.Write(`<label>Username <input name="username" required value="`, attr(m.Username), `"></label>`)
		pw.Write(`<label>Alt account <input name="alt" value="`, attr(m.Alt), `"></label>`)
		pw.Write(`<fieldset class="dates"><label><input type="checkbox" name="check_date"`, checked(m.CheckDate), `> Check dates</label>`)
		pw.Write(`<label>From <input type="date" name="start_date" value="`, attr(m.StartDate), `"></label>`)
		pw.Write(`<label>To <input type="date" name="end_date" value="`, attr(m.EndDate), `"></label></fieldset>`)
		pw.Write(`<label>Submission <textarea name="submission" rows="12">`, esc(m.Submission), `</textarea></label>`)

		if m.NeedsCredential {
			pw.Component(ctx, credentialModal(m))
		}

		pw.Write(`<div class="actions"><button type="submit">Verify</button>`)
		pw.Write(`<button type="submit" formaction="/share" formnovalidate>Share link</button></div>`)
		pw.Write(`</form>`)

		if m.ShareURL != "" {
			pw.Write(`<section class="share"><label>Share link <input readonly value="`, attr(m.ShareURL), `" onfocus="this.select()"></label>`)
			pw.Write(`<a href="`, attr(m.ShareURL), `">open</a></section>`)
		}
		if m.PreviewHTML != "" {
			pw.Write(`<section class="preview"><h2>Preview</h2>`)
			pw.Component(ctx, templ.Raw(m.PreviewHTML))
			pw.Write(`</section>`)
		}

		pw.Component(ctx, optionsPanel(m))
		return pw.Err()
	})
}

// credentialModal asks for the web API credential. Its fields belong to the
// verify form so one submit carries both.
func credentialModal(m vm.FormViewModel) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		pw := templates.NewPageWriter(w)
		open := ""
		if m.ShowCredentialModal {
			open = " open"
		}
		pw.Write(`<details class="credential-modal"`, open, `><summary>RetroAchievements web API key</summary>`)
		pw.Write(`<p>Your key is sent only to RetroAchievements and never included in share links.</p>`)
		pw.Write(`<label>Your username <input name="ra_username" autocomplete="username"></label>`)
		pw.Write(`<label>Web API key <input type="password" name="ra_key" autocomplete="off"></label>`)
		if m.CanSaveCredential {
			pw.Write(`<label><input type="checkbox" name="ra_save"> Remember on this server</label>`)
		}
		pw.Write(`</details>`)
		return pw.Err()
	})
}

func optionsPanel(m vm.FormViewModel) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		pw := templates.NewPageWriter(w)
		attr := templates.Attr

		pw.Write(`<section class="options"><h2>Options</h2>`)
		pw.Write(`<form method="post" action="/options">`)
		pw.Write(`<input type="hidden" name="csrf_token" value="`, attr(m.CSRFToken), `">`)
		pw.Write(`<label>Date format <select name="date_format">`)
		for _, opt := range m.DateFormats {
			selected := ""
			if opt.Selected {
				selected = " selected"
			}
			pw.Write(`<option value="`, attr(opt.Value), `"`, selected, `>`, templ.EscapeString(opt.Label), `</option>`)
		}
		pw.Write(`</select></label><button type="submit">Save</button></form>`)

		if !m.NeedsCredential {
			pw.Write(`<form method="post" action="/auth/clear">`)
			pw.Write(`<input type="hidden" name="csrf_token" value="`, attr(m.CSRFToken), `">`)
			pw.Write(`<button type="submit">Forget stored API key</button></form>`)
		}
		pw.Write(`</section>`)
		return pw.Err()
	})
}

func checked(b bool) string {
	if b {
		return " checked"
	}
	return ""
}
