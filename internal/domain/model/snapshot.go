package model

import "time"

// SubmissionSnapshot is the complete exportable form state. It never carries
// the Credential.
type SubmissionSnapshot struct {
	Username       string
	AltUsername    string
	StartDate      time.Time
	EndDate        time.Time
	SubmissionText string
	CheckDate      bool
}

// DefaultSnapshot returns the form defaults for the given moment: date checking
// on, start at the first day of the current month and end today (UTC).
func DefaultSnapshot(now time.Time) SubmissionSnapshot {
	y, m, d := now.UTC().Date()
	return SubmissionSnapshot{
		StartDate: time.Date(y, m, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(y, m, d, 0, 0, 0, 0, time.UTC),
		CheckDate: true,
	}
}

// Items returns the verification items referenced by the submission text.
func (s SubmissionSnapshot) Items() []VerificationItem {
	return ParseItems(s.SubmissionText)
}
