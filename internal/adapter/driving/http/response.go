package httphandler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ericfisherdev/raverify/internal/application"
	"github.com/ericfisherdev/raverify/internal/domain/model"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error string `json:"error"`
}

// SubmissionRequest is the JSON form of a submission: the body of the verify
// and export endpoints and the result of import. Dates use YYYY-MM-DD.
// A missing checkDate means true.
type SubmissionRequest struct {
	Username   string `json:"username"`
	Alt        string `json:"alt"`
	StartDate  string `json:"startDate"`
	EndDate    string `json:"endDate"`
	CheckDate  *bool  `json:"checkDate,omitempty"`
	Submission string `json:"submission"`
}

// StatusResponse mirrors model.Status.
type StatusResponse struct {
	Success  bool `json:"success"`
	Mastered bool `json:"mastered"`
	Alt      bool `json:"alt"`
}

// ResultLine is one NDJSON line of a verification stream.
type ResultLine struct {
	Type      string         `json:"type"`
	Index     int            `json:"index"`
	Kind      string         `json:"kind"`
	ID        string         `json:"id"`
	URL       string         `json:"url"`
	Status    StatusResponse `json:"status"`
	Classes   string         `json:"classes"`
	Symbol    string         `json:"symbol"`
	Title     string         `json:"title"`
	IconURL   string         `json:"icon_url"`
	Timestamp string         `json:"timestamp"`
}

// SummaryLine is the last NDJSON line of a completed verification stream.
type SummaryLine struct {
	Type       string `json:"type"`
	RunID      string `json:"run_id"`
	Items      int    `json:"items"`
	Passed     int    `json:"passed"`
	DurationMS int64  `json:"duration_ms"`
}

// ExportResponse is returned by the export endpoint.
type ExportResponse struct {
	URL     string `json:"url"`
	Data    string `json:"data"`
	Version int    `json:"version"`
}

// PreferenceResponse is the JSON form of one preference.
type PreferenceResponse struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// SetPreferenceRequest is the JSON body of the preference update endpoint.
type SetPreferenceRequest struct {
	Value string `json:"value"`
}

// HealthResponse is the JSON representation of the health check endpoint.
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

const (
	lineTypeResult  = "result"
	lineTypeSummary = "summary"
)

// toResultLine converts a result row to its NDJSON representation.
func toResultLine(row model.ResultRow, mediaBaseURL string) ResultLine {
	res := row.Result
	return ResultLine{
		Type:  lineTypeResult,
		Index: row.Index,
		Kind:  string(row.Item.Kind),
		ID:    row.Item.ID,
		URL:   row.Item.URL(),
		Status: StatusResponse{
			Success:  res.Status.Success,
			Mastered: res.Status.Mastered,
			Alt:      res.Status.Alt,
		},
		Classes:   res.Status.Classes(),
		Symbol:    res.Status.Symbol(),
		Title:     res.Title,
		IconURL:   res.IconURL(mediaBaseURL),
		Timestamp: res.Timestamp,
	}
}

// toSummaryLine converts a run summary to its NDJSON representation.
func toSummaryLine(s application.RunSummary) SummaryLine {
	return SummaryLine{
		Type:       lineTypeSummary,
		RunID:      s.RunID,
		Items:      s.Items,
		Passed:     s.Passed,
		DurationMS: s.Duration.Milliseconds(),
	}
}

// toSubmissionResponse converts a snapshot to its JSON representation.
func toSubmissionResponse(snap model.SubmissionSnapshot) SubmissionRequest {
	checkDate := snap.CheckDate
	return SubmissionRequest{
		Username:   snap.Username,
		Alt:        snap.AltUsername,
		StartDate:  model.FormatDate(snap.StartDate),
		EndDate:    model.FormatDate(snap.EndDate),
		CheckDate:  &checkDate,
		Submission: snap.SubmissionText,
	}
}

// toSnapshot converts a submission body to a snapshot. Empty dates stay zero.
func toSnapshot(req SubmissionRequest) (model.SubmissionSnapshot, error) {
	start, err := model.ParseDate(req.StartDate)
	if err != nil {
		return model.SubmissionSnapshot{}, err
	}
	end, err := model.ParseDate(req.EndDate)
	if err != nil {
		return model.SubmissionSnapshot{}, err
	}

	checkDate := true
	if req.CheckDate != nil {
		checkDate = *req.CheckDate
	}

	return model.SubmissionSnapshot{
		Username:       req.Username,
		AltUsername:    req.Alt,
		StartDate:      start,
		EndDate:        end,
		SubmissionText: req.Submission,
		CheckDate:      checkDate,
	}, nil
}

func formatHealthTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
