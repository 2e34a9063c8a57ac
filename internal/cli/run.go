package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lucasnoah/refinery/internal/agents"
	"github.com/lucasnoah/refinery/internal/config"
	"github.com/lucasnoah/refinery/internal/db"
	"github.com/lucasnoah/refinery/internal/eval"
	"github.com/lucasnoah/refinery/internal/llm"
	"github.com/lucasnoah/refinery/internal/logging"
	"github.com/lucasnoah/refinery/internal/orchestrator"
	"github.com/lucasnoah/refinery/internal/pipeline"
	"github.com/lucasnoah/refinery/internal/stage"
)

var runRequirements string

var runCmd = &cobra.Command{
	Use:   "run <topic>",
	Short: "Run the refinement pipeline on a topic",
	Long: `Run drafts a document on the given topic and iterates it through the
configured stages until the convergence threshold is met or the iteration
cap is exhausted. The result is stored under ~/.refinery/runs/.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if errs := config.Validate(cfg); len(errs) > 0 {
			for _, e := range errs {
				cmd.PrintErrf("  - %s\n", e)
			}
			return fmt.Errorf("config has %d validation error(s)", len(errs))
		}

		log, err := logging.New(verbose)
		if err != nil {
			return err
		}
		defer log.Sync()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		return runPipeline(ctx, cmd, cfg, log, args[0], runRequirements)
	},
}

func runPipeline(ctx context.Context, cmd *cobra.Command, cfg *config.Config, log *zap.Logger, topic, requirements string) error {
	client, err := buildClient(ctx, cfg)
	if err != nil {
		return err
	}

	registry, err := agents.BuildRegistry(cfg, client)
	if err != nil {
		return fmt.Errorf("build stage registry: %w", err)
	}

	engine, err := eval.NewEngine(eval.NewHeuristicScorer(), cfg.Evaluation.Weights)
	if err != nil {
		return fmt.Errorf("build evaluation engine: %w", err)
	}

	store, err := pipeline.DefaultStore()
	if err != nil {
		return fmt.Errorf("open run store: %w", err)
	}

	dbPath, err := db.DefaultDBPath()
	if err != nil {
		return err
	}
	eventDB, err := db.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open event database: %w", err)
	}
	defer eventDB.Close()
	if err := eventDB.Migrate(); err != nil {
		return fmt.Errorf("migrate event database: %w", err)
	}

	maxAttempts, backoff, timeout := cfg.Pipeline.RetryDefaults()
	orch, err := orchestrator.New(registry, engine, orchestrator.Options{
		MaxIterations: cfg.Pipeline.MaxIterations,
		Threshold:     cfg.Pipeline.ConvergenceThreshold,
		Retry:         stageRetry(maxAttempts, backoff, timeout),
		Logger:        log,
		Recorder:      &dbRecorder{db: eventDB, log: log},
	})
	if err != nil {
		return err
	}

	runID := uuid.NewString()[:8]
	st := pipeline.NewState(runID, topic, requirements)

	if err := eventDB.LogRunEvent(runID, 0, "", "run_started", topic); err != nil {
		log.Warn("log run start", zap.Error(err))
	}
	cmd.Printf("Run %s started: %s\n", runID, topic)

	runErr := orch.Run(ctx, st)

	if err := store.Save(st.Result()); err != nil {
		log.Error("save run result", zap.String("run_id", runID), zap.Error(err))
		if runErr == nil {
			return fmt.Errorf("save run result: %w", err)
		}
	}

	if runErr != nil {
		cmd.PrintErrf("Run %s failed after %d iteration(s): %v\n", runID, st.Iteration, runErr)
		return runErr
	}

	printSummary(cmd, store, st)
	return nil
}

// buildClient picks the completion backend from config. The gemini provider
// reads its key from the configured environment variable; the heuristic
// provider needs no credentials.
func buildClient(ctx context.Context, cfg *config.Config) (llm.Client, error) {
	switch cfg.LLM.Provider {
	case "heuristic":
		return llm.NewOfflineClient(), nil
	case "gemini":
		key := os.Getenv(cfg.LLM.APIKeyEnv)
		if key == "" {
			return nil, fmt.Errorf("environment variable %s is not set", cfg.LLM.APIKeyEnv)
		}
		return llm.NewGeminiClient(ctx, key, cfg.LLM.Model)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.LLM.Provider)
	}
}

func printSummary(cmd *cobra.Command, store *pipeline.Store, st *pipeline.State) {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "\nRun %s %s after %d iteration(s).\n",
		st.RunID, runStatus(st.Converged, st.TerminatedByCap), st.Iteration)
	fmt.Fprintf(w, "  Convergence score: %.4f\n", st.ConvergenceScore)
	for _, m := range sortedMetrics(st.Scores) {
		fmt.Fprintf(w, "  %-20s %.4f\n", m+":", st.Scores[m])
	}
	fmt.Fprintf(w, "  Artifact: %s\n", filepath.Join(store.BaseDir(), st.RunID, "artifact.md"))
}

func stageRetry(maxAttempts int, backoff, timeout time.Duration) stage.RetryPolicy {
	return stage.RetryPolicy{
		MaxAttempts: maxAttempts,
		Backoff:     backoff,
		Timeout:     timeout,
	}
}

func sortedMetrics(scores map[string]float64) []string {
	metrics := make([]string, 0, len(scores))
	for m := range scores {
		metrics = append(metrics, m)
	}
	sort.Strings(metrics)
	return metrics
}

// dbRecorder persists orchestrator events; logging failures must not abort
// the run, so errors are only logged.
type dbRecorder struct {
	db  *db.DB
	log *zap.Logger
}

func (r *dbRecorder) RecordEvent(runID string, round int, stage, event, detail string) {
	if err := r.db.LogRunEvent(runID, round, stage, event, detail); err != nil {
		r.log.Warn("log run event", zap.String("event", event), zap.Error(err))
	}
}

func (r *dbRecorder) RecordScores(runID string, round int, scores map[string]float64) {
	if err := r.db.LogRoundScores(runID, round, scores); err != nil {
		r.log.Warn("log round scores", zap.Int("round", round), zap.Error(err))
	}
}

func init() {
	runCmd.Flags().StringVarP(&runRequirements, "requirements", "r", "", "additional requirements for the document")
	runCmd.Flags().StringVarP(&configFile, "config", "c", "", "path to refinery config file")
}
