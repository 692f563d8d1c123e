// Package web implements the HTML GUI driving adapter using templ components.
package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ericfisherdev/raverify/internal/adapter/driving/web/templates"
	"github.com/ericfisherdev/raverify/internal/adapter/driving/web/templates/pages"
	vm "github.com/ericfisherdev/raverify/internal/adapter/driving/web/viewmodel"
	"github.com/ericfisherdev/raverify/internal/application"
	"github.com/ericfisherdev/raverify/internal/domain/model"
)

// maxFormBytes bounds posted form bodies.
const maxFormBytes = 1 << 20

// Handler is the web GUI driving adapter that serves HTML via templ components.
type Handler struct {
	runner        *application.Runner
	credSvc       *application.CredentialService
	publicURL     string
	mediaBaseURL  string
	canPersist    bool
	secureCookies bool
	now           func() time.Time
	logger        *slog.Logger
}

// NewHandler creates a Handler with all required dependencies. canPersist
// reports whether a credential can be stored (an encryption key is set).
func NewHandler(
	runner *application.Runner,
	credSvc *application.CredentialService,
	publicURL string,
	mediaBaseURL string,
	canPersist bool,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		runner:        runner,
		credSvc:       credSvc,
		publicURL:     publicURL,
		mediaBaseURL:  mediaBaseURL,
		canPersist:    canPersist,
		secureCookies: strings.HasPrefix(publicURL, "https://"),
		now:           time.Now,
		logger:        logger,
	}
}

// Index renders the submission form, prefilled from a share link when the
// query carries one. A corrupt link shows an error and the default form.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	prefs := h.preferences(r.Context())
	defaults := model.DefaultSnapshot(h.now())

	snap, _, err := application.ImportSubmissionQuery(r.URL.Query(), defaults)
	form := toFormViewModel(snap, prefs)
	if err != nil {
		h.logger.Info("ignoring corrupt share link", "error", err)
		form = toFormViewModel(defaults, prefs)
		form.Error = "This share link is damaged and could not be loaded."
	}

	h.renderForm(w, r, http.StatusOK, form)
}

// Verify validates the posted submission, asks for a credential through the
// modal when none is stored, then streams the results page one row at a time.
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	prefs := h.preferences(ctx)

	snap, err := snapshotFromRequest(r)
	if err != nil {
		h.renderFormError(w, r, http.StatusBadRequest, formFromRequest(r, prefs), err)
		return
	}

	req := application.RequestFromSnapshot(snap, prefs.DateFormat)
	if err := h.runner.Validate(req); err != nil {
		h.renderFormError(w, r, http.StatusBadRequest, formFromRequest(r, prefs), err)
		return
	}

	auth, err := h.credSvc.GetOrPrompt(ctx, formPrompter(r))
	if err != nil {
		form := formFromRequest(r, prefs)
		form.ShowCredentialModal = true
		h.renderFormError(w, r, statusForError(err), form, err)
		return
	}

	rc := http.NewResponseController(w)
	// A run paces its items, so it easily outlives the server write timeout.
	if err := rc.SetWriteDeadline(time.Time{}); err != nil && !errors.Is(err, http.ErrNotSupported) {
		h.logger.Debug("clearing write deadline failed", "error", err)
	}

	started := false
	start := func() error {
		started = true
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		w.WriteHeader(http.StatusOK)
		if err := templates.LayoutStart("Results").Render(ctx, w); err != nil {
			return err
		}
		return pages.ResultsHeader(toResultsViewModel(req, snap.SubmissionText)).Render(ctx, w)
	}

	summary, runErr := h.runner.Run(ctx, auth, req, func(row model.ResultRow) error {
		if !started {
			if err := start(); err != nil {
				return err
			}
		}
		if err := pages.ResultRow(toResultRowViewModel(row, h.mediaBaseURL)).Render(ctx, w); err != nil {
			return err
		}
		return flush(rc)
	})

	if !started {
		if runErr != nil {
			h.renderFormError(w, r, statusForError(runErr), formFromRequest(r, prefs), runErr)
			return
		}
		if err := start(); err != nil {
			h.logger.Warn("failed to write results page", "error", err)
			return
		}
	}
	if runErr != nil {
		h.logger.Warn("verification stream ended early", "run_id", summary.RunID, "error", runErr)
	}

	footer := templates.NewPageWriter(w)
	footer.Component(ctx, pages.ResultsFooter(toRunSummaryViewModel(summary, runErr), "/"))
	footer.Component(ctx, templates.LayoutEnd())
	if err := footer.Err(); err != nil {
		h.logger.Warn("failed to write results footer", "run_id", summary.RunID, "error", err)
		return
	}
	_ = flush(rc)
}

// Share renders the form again with a share link for the posted submission.
func (h *Handler) Share(w http.ResponseWriter, r *http.Request) {
	prefs := h.preferences(r.Context())

	snap, err := snapshotFromRequest(r)
	if err != nil {
		h.renderFormError(w, r, http.StatusBadRequest, formFromRequest(r, prefs), err)
		return
	}

	link, err := application.ShareURL(h.publicURL, snap)
	if err != nil {
		h.logger.Error("failed to build share link", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	form := toFormViewModel(snap, prefs)
	form.ShareURL = link
	form.PreviewHTML = RenderMarkdown(snap.SubmissionText)
	h.renderForm(w, r, http.StatusOK, form)
}

// Options stores the posted date format and returns to the form.
func (h *Handler) Options(w http.ResponseWriter, r *http.Request) {
	err := h.credSvc.SetPreference(r.Context(), application.PreferenceDateFormat, r.PostFormValue("date_format"))
	if err != nil {
		prefs := h.preferences(r.Context())
		h.renderFormError(w, r, statusForError(err), toFormViewModel(model.DefaultSnapshot(h.now()), prefs), err)
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// ClearAuth forgets the stored credential and returns to the form.
func (h *Handler) ClearAuth(w http.ResponseWriter, r *http.Request) {
	if err := h.credSvc.Clear(r.Context()); err != nil {
		h.logger.Error("failed to clear credential", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) preferences(ctx context.Context) model.Preferences {
	prefs, err := h.credSvc.Preferences(ctx)
	if err != nil {
		h.logger.Warn("failed to load preferences, using defaults", "error", err)
		return model.DefaultPreferences()
	}
	return prefs
}

func (h *Handler) renderFormError(w http.ResponseWriter, r *http.Request, status int, form vm.FormViewModel, err error) {
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", "error", err)
		form.Error = "Something went wrong. Please try again."
	} else {
		form.Error = userMessage(err)
	}
	h.renderForm(w, r, status, form)
}

func (h *Handler) renderForm(w http.ResponseWriter, r *http.Request, status int, form vm.FormViewModel) {
	form.CSRFToken = csrfToken(w, r, h.secureCookies)
	form.NeedsCredential = !h.credSvc.HasCredential(r.Context())
	form.CanSaveCredential = h.canPersist

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)

	layout := templates.Layout("Verify a submission", pages.SubmissionForm(form))
	if err := layout.Render(r.Context(), w); err != nil {
		h.logger.Error("failed to render form", "error", err)
	}
}

// formPrompter reads the credential modal fields of the posted form.
func formPrompter(r *http.Request) application.Prompter {
	return application.PrompterFunc(func(context.Context) (model.Credential, bool, error) {
		username := r.PostFormValue("ra_username")
		key := r.PostFormValue("ra_key")
		if username == "" && key == "" {
			return model.Credential{}, false, application.ErrCredentialRequired
		}
		return model.Credential{Username: username, WebAPIKey: key}, r.PostFormValue("ra_save") != "", nil
	})
}

// statusForError maps application and domain errors to HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, application.ErrRunInProgress):
		return http.StatusConflict
	case errors.Is(err, application.ErrCredentialRequired),
		errors.Is(err, application.ErrIncompleteCredential):
		return http.StatusUnauthorized
	case errors.Is(err, application.ErrInvalidRequest),
		errors.Is(err, application.ErrNoItems),
		errors.Is(err, model.ErrInvalidDateFormat),
		errors.Is(err, model.ErrMissingStartDate),
		errors.Is(err, model.ErrInvalidDateRange):
		return http.StatusBadRequest
	case errors.Is(err, context.Canceled):
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}

// userMessage phrases an input error for the form banner.
func userMessage(err error) string {
	switch {
	case errors.Is(err, application.ErrCredentialRequired):
		return "Enter your RetroAchievements username and web API key to verify."
	case errors.Is(err, application.ErrIncompleteCredential):
		return "Both the username and the web API key are required."
	case errors.Is(err, application.ErrRunInProgress):
		return "Another verification is running. Try again when it has finished."
	case errors.Is(err, application.ErrNoItems):
		return "The submission contains no game or achievement links."
	case errors.Is(err, model.ErrMissingStartDate):
		return "Pick a start date or turn off date checking."
	case errors.Is(err, model.ErrInvalidDateRange):
		return "The end date is before the start date."
	default:
		return err.Error()
	}
}

func flush(rc *http.ResponseController) error {
	if err := rc.Flush(); err != nil && !errors.Is(err, http.ErrNotSupported) {
		return err
	}
	return nil
}

// limitForm bounds the body of form posts before they are parsed.
func limitForm(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
		next(w, r)
	}
}
