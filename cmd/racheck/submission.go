package main

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ericfisherdev/raverify/internal/application"
	"github.com/ericfisherdev/raverify/internal/domain/model"
)

// submissionFlags are the form fields shared by verify and share.
type submissionFlags struct {
	username    string
	alt         string
	start       string
	end         string
	noDateCheck bool
	link        string
}

func (f *submissionFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVarP(&f.username, "user", "u", "", "player to verify")
	fs.StringVar(&f.alt, "alt", "", "alternate account checked when the player fails")
	fs.StringVar(&f.start, "start", "", "first qualifying day (YYYY-MM-DD, default first of this month)")
	fs.StringVar(&f.end, "end", "", "last qualifying day (YYYY-MM-DD, default today)")
	fs.BoolVar(&f.noDateCheck, "no-date-check", false, "accept awards and unlocks from any date")
	fs.StringVar(&f.link, "link", "", "start from a share link instead of the defaults")
}

// snapshot builds the submission from, in increasing precedence, the
// defaults for now, the share link and the explicitly set flags. The
// submission text is read from args[0] ("-" for stdin) when given.
func (f *submissionFlags) snapshot(cmd *cobra.Command, args []string, now time.Time) (model.SubmissionSnapshot, error) {
	snap := model.DefaultSnapshot(now)

	if f.link != "" {
		imported, err := importLink(f.link, snap)
		if err != nil {
			return model.SubmissionSnapshot{}, err
		}
		snap = imported
	}

	fs := cmd.Flags()
	if fs.Changed("user") {
		snap.Username = f.username
	}
	if fs.Changed("alt") {
		snap.AltUsername = f.alt
	}
	if fs.Changed("start") {
		t, err := model.ParseDate(f.start)
		if err != nil {
			return model.SubmissionSnapshot{}, fmt.Errorf("--start: %w", err)
		}
		snap.StartDate = t
	}
	if fs.Changed("end") {
		t, err := model.ParseDate(f.end)
		if err != nil {
			return model.SubmissionSnapshot{}, fmt.Errorf("--end: %w", err)
		}
		snap.EndDate = t
	}
	if fs.Changed("no-date-check") {
		snap.CheckDate = !f.noDateCheck
	}

	if len(args) > 0 {
		text, err := readSubmission(cmd.InOrStdin(), args[0])
		if err != nil {
			return model.SubmissionSnapshot{}, err
		}
		snap.SubmissionText = text
	}
	return snap, nil
}

// importLink decodes the submission carried by a share link.
func importLink(link string, defaults model.SubmissionSnapshot) (model.SubmissionSnapshot, error) {
	u, err := url.Parse(link)
	if err != nil {
		return model.SubmissionSnapshot{}, fmt.Errorf("parsing link: %w", err)
	}

	snap, found, err := application.ImportSubmissionQuery(u.Query(), defaults)
	if err != nil {
		return model.SubmissionSnapshot{}, err
	}
	if !found {
		return model.SubmissionSnapshot{}, fmt.Errorf("link %q carries no submission", link)
	}
	return snap, nil
}

func readSubmission(stdin io.Reader, path string) (string, error) {
	if path == "-" {
		b, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("reading submission from stdin: %w", err)
		}
		return string(b), nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading submission: %w", err)
	}
	return string(b), nil
}
