package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/bigflow/internal/engine"
	"github.com/roach88/bigflow/internal/graph"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
}

// ReplayEvaluationResult compares one logged evaluation with the replay.
type ReplayEvaluationResult struct {
	ID            string  `json:"id"`
	Seq           int64   `json:"seq"`
	LoggedTotal   float64 `json:"logged_total"`
	EngineVersion string  `json:"engine_version"`
	Deterministic bool    `json:"deterministic"`
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	LayoutID         string                   `json:"layout_id"`
	ReplayedTotal    float64                  `json:"replayed_total"`
	CycleHits        int                      `json:"cycle_hits"`
	Evaluations      []ReplayEvaluationResult `json:"evaluations"`
	AllDeterministic bool                     `json:"all_deterministic"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay <layout-id>",
		Short: "Re-evaluate a stored layout and verify determinism",
		Long: `Restore a stored layout, evaluate it again and compare the result with
every evaluation logged for it.

Exit codes:
  0 - Every logged evaluation matches the replay
  1 - Determinism verification failed (differences detected)
  2 - Command error (database or layout not found, etc.)

Examples:
  bigflow replay --db ./bigflow.db 3f2a...
  bigflow replay --db ./bigflow.db 3f2a... --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runReplay(opts *ReplayOptions, layoutID string, cmd *cobra.Command) error {
	logger := opts.Logger()

	h, err := loadHistory(cmd.Context(), opts.Database, layoutID)
	if err != nil {
		return err
	}

	st, err := graph.Restore(h.Snapshot, graph.WithLogger(logger))
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to restore layout", err)
	}
	res := engine.New(st, engine.WithLogger(logger)).Evaluate()

	result := ReplayResult{
		LayoutID:         h.LayoutID,
		ReplayedTotal:    res.Total,
		CycleHits:        len(res.CycleHits),
		Evaluations:      make([]ReplayEvaluationResult, 0, len(h.Evaluations)),
		AllDeterministic: true,
	}
	for _, ev := range h.Evaluations {
		same := ev.Total == res.Total && ev.CycleHits == len(res.CycleHits) && ev.Resolutions == res.Resolutions
		if !same {
			result.AllDeterministic = false
			logger.Warn("replay mismatch",
				"evaluation_id", ev.ID,
				"seq", ev.Seq,
				"logged_total", ev.Total,
				"replayed_total", res.Total,
			)
		}
		result.Evaluations = append(result.Evaluations, ReplayEvaluationResult{
			ID:            ev.ID,
			Seq:           ev.Seq,
			LoggedTotal:   ev.Total,
			EngineVersion: ev.EngineVersion,
			Deterministic: same,
		})
	}

	f := newFormatter(opts.RootOptions, cmd)
	if f.JSON() {
		if !result.AllDeterministic {
			return f.Failure(ErrCodeDeterminism, "determinism verification failed", result)
		}
		return f.Success(result)
	}
	return outputReplayText(cmd, result, opts.Verbose)
}

// outputReplayText outputs the replay result as text.
func outputReplayText(cmd *cobra.Command, result ReplayResult, verbose bool) error {
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "Replay of layout %s: total %g\n", result.LayoutID, result.ReplayedTotal)
	if verbose && result.CycleHits > 0 {
		fmt.Fprintf(w, "  Cycle hits: %d\n", result.CycleHits)
	}
	fmt.Fprintln(w)

	if len(result.Evaluations) == 0 {
		fmt.Fprintln(w, "No evaluations recorded.")
		return nil
	}

	for _, ev := range result.Evaluations {
		mark := "✓"
		if !ev.Deterministic {
			mark = "✗"
		}
		fmt.Fprintf(w, "%s #%d %s logged %g\n", mark, ev.Seq, ev.ID, ev.LoggedTotal)
		if verbose {
			fmt.Fprintf(w, "  Engine: %s\n", ev.EngineVersion)
		}
	}
	fmt.Fprintln(w)

	if result.AllDeterministic {
		fmt.Fprintln(w, "✓ All evaluations verified deterministic")
		return nil
	}

	fmt.Fprintln(w, "✗ Determinism verification failed")
	return NewExitError(ExitFailure, "determinism verification failed")
}
