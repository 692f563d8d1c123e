package model

import "strings"

// TimestampUnavailable is rendered when the remote reports no award or unlock date.
const TimestampUnavailable = "N/A"

// Status is the outcome of verifying one item. Mastered implies Success;
// Alt marks a success that was earned on the alternate account.
type Status struct {
	Success  bool
	Mastered bool
	Alt      bool
}

// Classes returns the status as space-separated tags ("success mastered alt",
// "failure"), suitable for CSS classes.
func (s Status) Classes() string {
	if !s.Success {
		return "failure"
	}
	tags := []string{"success"}
	if s.Mastered {
		tags = append(tags, "mastered")
	}
	if s.Alt {
		tags = append(tags, "alt")
	}
	return strings.Join(tags, " ")
}

// Symbol returns the single-character headline mark for a result row.
func (s Status) Symbol() string {
	switch {
	case s.Success && s.Alt:
		return "A"
	case s.Success:
		return "✓"
	default:
		return "X"
	}
}

// VerificationResult is what the UI renders for one item.
// IconPath is a suffix relative to the remote media host.
type VerificationResult struct {
	Status    Status
	Title     string
	IconPath  string
	Timestamp string
}

// IconURL joins the icon path onto mediaBaseURL. Returns "" when no icon is known.
func (r VerificationResult) IconURL(mediaBaseURL string) string {
	if r.IconPath == "" {
		return ""
	}
	return strings.TrimRight(mediaBaseURL, "/") + "/" + strings.TrimLeft(r.IconPath, "/")
}

// ResultRow pairs a verified item with its result, in render order.
type ResultRow struct {
	Index  int
	Item   VerificationItem
	Result VerificationResult
}
