// Package viewmodel defines presentation-ready structs for templ components.
// View models decouple template rendering from domain model types.
package viewmodel

// FormViewModel holds the submission form state plus everything the page
// around it shows (banners, share link, credential modal, options).
type FormViewModel struct {
	CSRFToken string

	Username   string
	Alt        string
	StartDate  string // YYYY-MM-DD
	EndDate    string // YYYY-MM-DD
	CheckDate  bool
	Submission string

	Error    string // banner shown above the form
	Notice   string
	ShareURL string

	// NeedsCredential is true when no credential is stored; the modal fields
	// are then part of the verify form. ShowCredentialModal opens it.
	NeedsCredential     bool
	ShowCredentialModal bool
	CanSaveCredential   bool

	DateFormats []OptionViewModel
	PreviewHTML string // sanitized HTML, empty when there is nothing to preview
}

// OptionViewModel is one <option> of a select element.
type OptionViewModel struct {
	Value    string
	Label    string
	Selected bool
}

// ResultsViewModel holds the header of a streamed results page.
type ResultsViewModel struct {
	Username       string
	Alt            string
	Window         string // human readable date window, empty when unchecked
	ItemCount      int
	SubmissionHTML string
	BackURL        string
}

// ResultRowViewModel holds presentation-ready data for one verified item.
type ResultRowViewModel struct {
	Index     int
	Kind      string
	URL       string
	Symbol    string
	Classes   string
	Title     string
	IconURL   string
	Timestamp string
}

// RunSummaryViewModel holds the footer of a results page.
type RunSummaryViewModel struct {
	RunID  string
	Items  int
	Passed int
	Error  string // set when the run ended early
}
