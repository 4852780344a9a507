// Command replay runs parse files from disk through the replay engine and
// prints their reports as JSON.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/gyaneshwarpardhi/logreplay/internal/log"
)

func newRootCmd() *cobra.Command {
	var level string
	root := &cobra.Command{
		Use:           "replay",
		Short:         "Replay combat logs through analysis modules",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			log.Configure(log.Config{Level: level, Output: cmd.ErrOrStderr(), Service: "replay"})
		},
	}
	root.PersistentFlags().StringVar(&level, "log-level", "warn", "log level (debug, info, warn, error)")
	root.AddCommand(newRunCmd(), newModulesCmd())
	return root
}

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		root.PrintErrln("Error:", err)
		os.Exit(1)
	}
}
