package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lucasnoah/refinery/internal/pipeline"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := pipeline.DefaultStore()
		if err != nil {
			return fmt.Errorf("open run store: %w", err)
		}

		runs, err := store.List()
		if err != nil {
			return fmt.Errorf("list runs: %w", err)
		}
		if len(runs) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No runs found.")
			return nil
		}

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "%-10s %-10s %-6s %-8s %s\n", "RUN", "STATUS", "ITERS", "SCORE", "TOPIC")
		fmt.Fprintf(w, "%-10s %-10s %-6s %-8s %s\n",
			strings.Repeat("-", 10),
			strings.Repeat("-", 10),
			strings.Repeat("-", 6),
			strings.Repeat("-", 8),
			strings.Repeat("-", 5))
		for _, r := range runs {
			fmt.Fprintf(w, "%-10s %-10s %-6d %-8.4f %s\n",
				r.RunID, runStatus(r.Converged, r.TerminatedByCap), r.Iterations, r.ConvergenceScore, r.Topic)
		}
		return nil
	},
}
