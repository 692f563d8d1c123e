package httphandler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/ericfisherdev/raverify/internal/application"
	"github.com/ericfisherdev/raverify/internal/domain/model"
)

// Request headers carrying a credential when none is stored.
const (
	HeaderUsername = "X-RA-Username"
	HeaderKey      = "X-RA-Key"
	HeaderSave     = "X-RA-Save"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// Handler is the HTTP driving adapter that serves the JSON API.
type Handler struct {
	runner       *application.Runner
	credSvc      *application.CredentialService
	publicURL    string
	mediaBaseURL string
	now          func() time.Time
	logger       *slog.Logger
}

// NewHandler creates a Handler with all required dependencies.
func NewHandler(
	runner *application.Runner,
	credSvc *application.CredentialService,
	publicURL string,
	mediaBaseURL string,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		runner:       runner,
		credSvc:      credSvc,
		publicURL:    publicURL,
		mediaBaseURL: mediaBaseURL,
		now:          time.Now,
		logger:       logger,
	}
}

// RegisterAPIRoutes registers all /api/v1 routes on mux.
func RegisterAPIRoutes(mux *http.ServeMux, h *Handler) {
	mux.HandleFunc("POST /api/v1/verify", h.Verify)
	mux.HandleFunc("POST /api/v1/submissions/export", h.ExportSubmission)
	mux.HandleFunc("GET /api/v1/submissions/import", h.ImportSubmission)
	mux.HandleFunc("DELETE /api/v1/credentials", h.ClearCredential)
	mux.HandleFunc("GET /api/v1/preferences/{key}", h.GetPreference)
	mux.HandleFunc("PUT /api/v1/preferences/{key}", h.SetPreference)
	mux.HandleFunc("GET /api/v1/health", h.Health)
}

// NewServeMux creates an http.Handler with the API routes registered and
// wrapped with logging and recovery middleware.
func NewServeMux(h *Handler, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()
	RegisterAPIRoutes(mux, h)
	return ApplyMiddleware(mux, logger)
}

// Verify runs a verification and streams one NDJSON line per result row,
// followed by a summary line. Errors detected before the first row map to a
// regular JSON error response.
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	var body SubmissionRequest
	if err := decodeBody(w, r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	snap, err := toSnapshot(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	prefs, err := h.credSvc.Preferences(r.Context())
	if err != nil {
		h.logger.Error("failed to load preferences", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	req := application.RequestFromSnapshot(snap, prefs.DateFormat)
	if err := h.runner.Validate(req); err != nil {
		h.writeAppError(w, err)
		return
	}

	auth, err := h.credSvc.GetOrPrompt(r.Context(), headerPrompter(r))
	if err != nil {
		h.writeAppError(w, err)
		return
	}

	rc := http.NewResponseController(w)
	// A run paces its items, so it easily outlives the server write timeout.
	if err := rc.SetWriteDeadline(time.Time{}); err != nil && !errors.Is(err, http.ErrNotSupported) {
		h.logger.Debug("clearing write deadline failed", "error", err)
	}

	started := false
	enc := json.NewEncoder(w)
	render := func(row model.ResultRow) error {
		if !started {
			startStream(w)
			started = true
		}
		if err := enc.Encode(toResultLine(row, h.mediaBaseURL)); err != nil {
			return err
		}
		return flush(rc)
	}

	summary, err := h.runner.Run(r.Context(), auth, req, render)
	if err != nil {
		if !started {
			h.writeAppError(w, err)
			return
		}
		h.logger.Warn("verification stream ended early", "run_id", summary.RunID, "error", err)
		return
	}

	if !started {
		startStream(w)
	}
	if err := enc.Encode(toSummaryLine(summary)); err != nil {
		h.logger.Warn("failed to write run summary", "run_id", summary.RunID, "error", err)
		return
	}
	_ = flush(rc)
}

// ExportSubmission encodes the posted submission into a share link.
func (h *Handler) ExportSubmission(w http.ResponseWriter, r *http.Request) {
	var body SubmissionRequest
	if err := decodeBody(w, r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	snap, err := toSnapshot(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	link, err := application.ShareURL(h.publicURL, snap)
	if err != nil {
		h.logger.Error("failed to export submission", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	q, err := application.ExportSubmission(snap)
	if err != nil {
		h.logger.Error("failed to export submission", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, ExportResponse{
		URL:     link,
		Data:    q.Get(application.QueryParamData),
		Version: int(application.CurrentSubmissionVersion),
	})
}

// ImportSubmission decodes the data and v query parameters into a submission.
func (h *Handler) ImportSubmission(w http.ResponseWriter, r *http.Request) {
	snap, ok, err := application.ImportSubmissionQuery(r.URL.Query(), model.DefaultSnapshot(h.now()))
	if !ok {
		writeError(w, http.StatusBadRequest, "missing data parameter")
		return
	}
	if err != nil {
		h.writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toSubmissionResponse(snap))
}

// ClearCredential removes the stored web API credential.
func (h *Handler) ClearCredential(w http.ResponseWriter, r *http.Request) {
	if err := h.credSvc.Clear(r.Context()); err != nil {
		h.logger.Error("failed to clear credential", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetPreference returns one preference value.
func (h *Handler) GetPreference(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")

	value, err := h.credSvc.GetPreference(r.Context(), key)
	if err != nil {
		h.writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, PreferenceResponse{Key: key, Value: value})
}

// SetPreference updates one preference value.
func (h *Handler) SetPreference(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")

	var body SetPreferenceRequest
	if err := decodeBody(w, r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := h.credSvc.SetPreference(r.Context(), key, body.Value); err != nil {
		h.writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, PreferenceResponse{Key: key, Value: body.Value})
}

// Health returns the service status.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Time:   formatHealthTime(h.now()),
	})
}

// writeAppError maps application and domain errors to HTTP status codes.
// User input errors echo their message; anything unexpected is logged and
// reported as a generic 500.
func (h *Handler) writeAppError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, application.ErrRunInProgress):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, application.ErrCredentialRequired),
		errors.Is(err, application.ErrIncompleteCredential):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, application.ErrUnknownPreference):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, application.ErrInvalidRequest),
		errors.Is(err, application.ErrNoItems),
		errors.Is(err, application.ErrCorruptSubmission),
		errors.Is(err, model.ErrMissingStartDate),
		errors.Is(err, model.ErrInvalidDateRange),
		errors.Is(err, model.ErrInvalidDateFormat):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, context.Canceled):
		h.logger.Info("request cancelled by client")
	default:
		h.logger.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// headerPrompter supplies the credential from request headers when none is
// stored. X-RA-Save opts into persisting it.
func headerPrompter(r *http.Request) application.Prompter {
	return application.PrompterFunc(func(context.Context) (model.Credential, bool, error) {
		username := r.Header.Get(HeaderUsername)
		key := r.Header.Get(HeaderKey)
		if username == "" && key == "" {
			return model.Credential{}, false, application.ErrCredentialRequired
		}
		save, _ := strconv.ParseBool(r.Header.Get(HeaderSave))
		return model.Credential{Username: username, WebAPIKey: key}, save, nil
	})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(v)
}

func startStream(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)
}

func flush(rc *http.ResponseController) error {
	if err := rc.Flush(); err != nil && !errors.Is(err, http.ErrNotSupported) {
		return err
	}
	return nil
}
