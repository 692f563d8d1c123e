package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ericfisherdev/raverify/internal/application"
	"github.com/ericfisherdev/raverify/internal/config"
	"github.com/ericfisherdev/raverify/internal/domain/model"
)

func newShareCmd() *cobra.Command {
	var flags submissionFlags

	shareCmd := &cobra.Command{
		Use:   "share [FILE|-]",
		Short: "Print a share link that reopens the submission",
		Long: `Print a link to the raverify web form prefilled with the submission.

The link base is RAVERIFY_PUBLIC_URL. The web API key is never part of it.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := flags.snapshot(cmd, args, time.Now())
			if err != nil {
				return err
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			link, err := application.ShareURL(cfg.PublicURL, snap)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), link)
			return nil
		},
	}
	flags.register(shareCmd)
	return shareCmd
}

func newOpenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "open URL",
		Short: "Decode a share link and print the submission it carries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := importLink(args[0], model.DefaultSnapshot(time.Now()))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "username:   %s\n", snap.Username)
			fmt.Fprintf(out, "alt:        %s\n", snap.AltUsername)
			fmt.Fprintf(out, "check date: %t\n", snap.CheckDate)
			fmt.Fprintf(out, "start:      %s\n", model.FormatDate(snap.StartDate))
			fmt.Fprintf(out, "end:        %s\n", model.FormatDate(snap.EndDate))
			fmt.Fprintf(out, "items:      %d\n\n", len(snap.Items()))
			fmt.Fprintln(out, snap.SubmissionText)
			return nil
		},
	}
}
