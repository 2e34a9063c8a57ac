package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lucasnoah/refinery/internal/pipeline"
)

var showArtifactOnly bool

// runStatus renders the terminal disposition of a stored run. A run that is
// neither converged nor capped was aborted by a failure.
func runStatus(converged, capped bool) string {
	switch {
	case converged:
		return "converged"
	case capped:
		return "capped"
	default:
		return "failed"
	}
}

var showCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show a stored run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := pipeline.DefaultStore()
		if err != nil {
			return fmt.Errorf("open run store: %w", err)
		}

		res, err := store.Get(args[0])
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		if showArtifactOnly {
			fmt.Fprintln(w, res.FinalArtifact)
			return nil
		}

		status := runStatus(res.Converged, res.TerminatedByCap)
		fmt.Fprintf(w, "Run %s: %s\n", res.RunID, res.Topic)
		fmt.Fprintf(w, "  Status:     %s\n", status)
		fmt.Fprintf(w, "  Iterations: %d\n", res.Iterations)
		fmt.Fprintf(w, "  Score:      %.4f\n", res.ConvergenceScore)
		for _, m := range sortedMetrics(res.Scores) {
			fmt.Fprintf(w, "    %-20s %.4f\n", m+":", res.Scores[m])
		}

		fmt.Fprintln(w, "  History:")
		for _, rec := range res.History {
			line := fmt.Sprintf("    round %d  %-10s %s", rec.Round, rec.Stage, rec.Status)
			if rec.Reason != "" {
				line += "  (" + rec.Reason + ")"
			}
			fmt.Fprintln(w, line)
		}
		return nil
	},
}

func init() {
	showCmd.Flags().BoolVar(&showArtifactOnly, "artifact", false, "print only the final artifact")
}
