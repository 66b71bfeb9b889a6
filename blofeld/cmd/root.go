// Package cmd provides the command-line interface for BLOFELD.
package cmd

import (
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "blofeld",
		Short: "BLOFELD simulates disease outbreaks in managed herds.",
		Long: `BLOFELD simulates disease outbreaks in managed herds. Events ` +
			`are proposed by disease and regulation modules and drawn one ` +
			`at a time in proportion to their rates.`,
		SilenceUsage: true,
	}

	root.AddCommand(newRunCmd(), newReportCmd())

	return root
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		atexit.Exit(1)
	}

	atexit.Exit(0)
}

func newLogger(level log.Level) *log.Logger {
	return log.NewWithOptions(os.Stderr, log.Options{
		Level:           level,
		ReportTimestamp: true,
		Prefix:          "blofeld",
	})
}
