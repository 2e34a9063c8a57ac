// Package cli wires the refinery commands: running a pipeline, inspecting
// stored runs, and managing configuration and the event database.
package cli

import (
	"github.com/spf13/cobra"
)

var version = "dev"

func SetVersion(v string) {
	version = v
}

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "refinery",
	Short: "refinery — iterative multi-agent document refinement",
	Long: `refinery runs a document through a loop of drafting, fact-checking,
review, and editing stages until its quality score converges or the
iteration cap is reached.

All state is stored in ~/.refinery/ (SQLite for events, JSON for run results).`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(dbCmd)
}
