package main

import (
	"github.com/spf13/cobra"
)

// newRootCmd builds the racheck command tree. A fresh tree per call keeps
// flag state out of package globals.
func newRootCmd() *cobra.Command {
	var verbose bool

	rootCmd := &cobra.Command{
		Use:   "racheck",
		Short: "Verify RetroAchievements submissions",
		Long: `racheck checks the game and achievement links of a submission against
the RetroAchievements web API.

Configuration is read from RAVERIFY_* environment variables, shared with the
raverify server. Set RAVERIFY_SECRET_KEY to remember your web API key
between runs.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			setupLogging(cmd.ErrOrStderr(), verbose)
		},
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log remote calls and retries")

	authCmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage the stored web API credential",
	}
	authCmd.AddCommand(newAuthClearCmd())

	optionsCmd := &cobra.Command{
		Use:   "options",
		Short: "Read or change display preferences",
		Long: `Read or change display preferences.

Known keys:
  dateFormat - 0 YYYY-MM-DD, 1 MM/DD/YYYY, 2 DD/MM/YYYY, 3 MM-DD-YYYY, 4 DD-MM-YYYY`,
	}
	optionsCmd.AddCommand(newOptionsGetCmd(), newOptionsSetCmd())

	rootCmd.AddCommand(
		newVerifyCmd(),
		newShareCmd(),
		newOpenCmd(),
		authCmd,
		optionsCmd,
	)
	return rootCmd
}
