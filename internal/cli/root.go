package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "jdwptap",
	Short: "Decode and record JDWP Composite event traffic",
	Long: "jdwptap decodes the Composite event packets a JVM sends its debugger.\n" +
		"A relay tees live sessions into capture files, a spool daemon decodes\n" +
		"and journals them, and offline commands decode, replay, and query the\n" +
		"recorded events.",
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
