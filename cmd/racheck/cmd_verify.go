package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/ericfisherdev/raverify/internal/application"
	"github.com/ericfisherdev/raverify/internal/domain/model"
)

// errNotAllVerified makes --strict runs exit non-zero.
var errNotAllVerified = errors.New("not every item verified")

func newVerifyCmd() *cobra.Command {
	var (
		flags  submissionFlags
		strict bool
	)

	verifyCmd := &cobra.Command{
		Use:   "verify [FILE|-]",
		Short: "Check every game and achievement link of a submission",
		Long: `Check every game and achievement link of a submission.

Games are checked first, then achievements, one item at a time. Each result
line starts with a status mark:
  ✓  earned within the date window
  A  earned on the alternate account
  X  not earned, outside the window, or the lookup failed

The submission text is read from FILE, or from stdin when FILE is "-".`,
		Example: `  racheck verify --user alice --start 2024-01-01 --end 2024-01-31 entry.txt
  racheck verify --link 'http://localhost:8080/?data=...&v=1'`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(cmd, args, &flags, strict)
		},
	}
	flags.register(verifyCmd)
	verifyCmd.Flags().BoolVar(&strict, "strict", false, "exit non-zero unless every item verified")
	return verifyCmd
}

func runVerify(cmd *cobra.Command, args []string, flags *submissionFlags, strict bool) error {
	ctx := cmd.Context()

	snap, err := flags.snapshot(cmd, args, time.Now())
	if err != nil {
		return err
	}

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	prefs, err := a.credSvc.Preferences(ctx)
	if err != nil {
		return err
	}

	req := application.RequestFromSnapshot(snap, prefs.DateFormat)
	if err := a.runner.Validate(req); err != nil {
		return err
	}

	var prompter application.Prompter = newTerminalPrompter(cmd.InOrStdin(), cmd.ErrOrStderr(), a.cfg.HasSecretKey())
	if readsStdin(args) {
		prompter = ttyPrompter(cmd.ErrOrStderr(), a.cfg.HasSecretKey())
	}
	auth, err := a.credSvc.GetOrPrompt(ctx, prompter)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	summary, err := a.runner.Run(ctx, auth, req, func(row model.ResultRow) error {
		return printResultRow(out, row)
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "\n%d of %d verified (%s)\n", summary.Passed, summary.Items, summary.Duration.Round(time.Millisecond))
	if strict && summary.Passed < summary.Items {
		return errNotAllVerified
	}
	return nil
}

// readsStdin reports whether the submission text comes from stdin.
func readsStdin(args []string) bool {
	return len(args) > 0 && args[0] == "-"
}

func printResultRow(w io.Writer, row model.ResultRow) error {
	res := row.Result
	tags := res.Status.Classes()
	_, err := fmt.Fprintf(w, "%s  %-11s %s  %s  [%s]  %s\n",
		res.Status.Symbol(), row.Item.Kind, res.Title, res.Timestamp, tags, row.Item.URL())
	return err
}
