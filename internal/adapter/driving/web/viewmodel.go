package web

import (
	"net/http"
	"strconv"

	vm "github.com/ericfisherdev/raverify/internal/adapter/driving/web/viewmodel"
	"github.com/ericfisherdev/raverify/internal/application"
	"github.com/ericfisherdev/raverify/internal/domain/model"
)

// dateFormatLabels are the select labels of the date format option, by index.
var dateFormatLabels = []string{
	model.DateFormatISO:     "YYYY-MM-DD",
	model.DateFormatUSSlash: "MM/DD/YYYY",
	model.DateFormatEUSlash: "DD/MM/YYYY",
	model.DateFormatUSDash:  "MM-DD-YYYY",
	model.DateFormatEUDash:  "DD-MM-YYYY",
}

// toFormViewModel converts a snapshot to the form state.
func toFormViewModel(snap model.SubmissionSnapshot, prefs model.Preferences) vm.FormViewModel {
	return vm.FormViewModel{
		Username:    snap.Username,
		Alt:         snap.AltUsername,
		StartDate:   model.FormatDate(snap.StartDate),
		EndDate:     model.FormatDate(snap.EndDate),
		CheckDate:   snap.CheckDate,
		Submission:  snap.SubmissionText,
		DateFormats: toDateFormatOptions(prefs.DateFormat),
	}
}

// formFromRequest echoes the posted form fields back unchanged, so a rejected
// submission keeps what the user typed.
func formFromRequest(r *http.Request, prefs model.Preferences) vm.FormViewModel {
	return vm.FormViewModel{
		Username:    r.PostFormValue("username"),
		Alt:         r.PostFormValue("alt"),
		StartDate:   r.PostFormValue("start_date"),
		EndDate:     r.PostFormValue("end_date"),
		CheckDate:   r.PostFormValue("check_date") != "",
		Submission:  r.PostFormValue("submission"),
		DateFormats: toDateFormatOptions(prefs.DateFormat),
	}
}

// snapshotFromRequest parses the posted form fields.
func snapshotFromRequest(r *http.Request) (model.SubmissionSnapshot, error) {
	start, err := model.ParseDate(r.PostFormValue("start_date"))
	if err != nil {
		return model.SubmissionSnapshot{}, err
	}
	end, err := model.ParseDate(r.PostFormValue("end_date"))
	if err != nil {
		return model.SubmissionSnapshot{}, err
	}

	return model.SubmissionSnapshot{
		Username:       r.PostFormValue("username"),
		AltUsername:    r.PostFormValue("alt"),
		StartDate:      start,
		EndDate:        end,
		SubmissionText: r.PostFormValue("submission"),
		CheckDate:      r.PostFormValue("check_date") != "",
	}, nil
}

func toDateFormatOptions(selected model.DateFormat) []vm.OptionViewModel {
	opts := make([]vm.OptionViewModel, 0, len(dateFormatLabels))
	for i, label := range dateFormatLabels {
		opts = append(opts, vm.OptionViewModel{
			Value:    strconv.Itoa(i),
			Label:    label,
			Selected: model.DateFormat(i) == selected,
		})
	}
	return opts
}

// toResultsViewModel builds the header of a results page.
func toResultsViewModel(req application.VerificationRequest, submission string) vm.ResultsViewModel {
	window := ""
	if req.CheckDate {
		window = "From " + model.FormatDate(req.StartDate)
		if !req.EndDate.IsZero() {
			window += " to " + model.FormatDate(req.EndDate)
		}
	}

	return vm.ResultsViewModel{
		Username:       req.Username,
		Alt:            req.AltUsername,
		Window:         window,
		ItemCount:      len(req.Items),
		SubmissionHTML: RenderSubmissionLines(submission),
		BackURL:        "/",
	}
}

// toResultRowViewModel converts one result row for rendering.
func toResultRowViewModel(row model.ResultRow, mediaBaseURL string) vm.ResultRowViewModel {
	return vm.ResultRowViewModel{
		Index:     row.Index,
		Kind:      string(row.Item.Kind),
		URL:       row.Item.URL(),
		Symbol:    row.Result.Status.Symbol(),
		Classes:   row.Result.Status.Classes(),
		Title:     row.Result.Title,
		IconURL:   row.Result.IconURL(mediaBaseURL),
		Timestamp: row.Result.Timestamp,
	}
}

// toRunSummaryViewModel converts the outcome of a run for the results footer.
func toRunSummaryViewModel(s application.RunSummary, runErr error) vm.RunSummaryViewModel {
	out := vm.RunSummaryViewModel{
		RunID:  s.RunID,
		Items:  s.Items,
		Passed: s.Passed,
	}
	if runErr != nil {
		out.Error = "Verification stopped early: " + runErr.Error()
	}
	return out
}
