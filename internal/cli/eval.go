package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/bigflow/internal/engine"
	"github.com/roach88/bigflow/internal/ir"
	"github.com/roach88/bigflow/internal/level"
	"github.com/roach88/bigflow/internal/metrics"
	"github.com/roach88/bigflow/internal/store"
)

// EvalOptions holds flags for the eval command.
type EvalOptions struct {
	*RootOptions
	Elapsed    float64
	Database   string
	MetricsOut string

	// IDGenerator allows overriding the evaluation id generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	IDGenerator engine.IDGenerator
}

// SinkReport is the flow delivered to one named sink.
type SinkReport struct {
	Name string  `json:"name"`
	Flow float64 `json:"flow"`
}

// EvalReport is the outcome of evaluating a level.
type EvalReport struct {
	Level         string       `json:"level"`
	Total         float64      `json:"total"`
	Target        float64      `json:"target"`
	Status        string       `json:"status"`
	TimeRemaining float64      `json:"time_remaining"`
	Sinks         []SinkReport `json:"sinks"`
	CycleHits     int          `json:"cycle_hits"`
	Resolutions   int          `json:"resolutions"`
	LayoutID      string       `json:"layout_id,omitempty"`
	EvaluationID  string       `json:"evaluation_id,omitempty"`
}

// NewEvalCommand creates the eval command.
func NewEvalCommand(rootOpts *RootOptions) *cobra.Command {
	return newEvalCommand(&EvalOptions{RootOptions: rootOpts})
}

func newEvalCommand(opts *EvalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "eval <level-file>",
		Short: "Evaluate the flow of a level",
		Long: `Build a level from a YAML or CUE definition, evaluate the total flow
reaching its sinks and check it against the level objective.

With --db the layout and the evaluation are recorded in a SQLite database
for later replay. With --metrics-out the Prometheus metrics of the run are
written to a textfile.

Exit codes:
  0 - Level evaluated (whatever its status)
  2 - Command error (level not found or invalid, database error, etc.)

Examples:
  bigflow eval ./levels/starter.yaml
  bigflow eval ./levels/starter.cue --elapsed 30
  bigflow eval ./levels/starter.yaml --db ./bigflow.db --metrics-out ./bigflow.prom`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEval(opts, args[0], cmd)
		},
	}

	cmd.Flags().Float64Var(&opts.Elapsed, "elapsed", 0, "seconds elapsed before the objective check")
	cmd.Flags().StringVar(&opts.Database, "db", "", "record layout and evaluation in this SQLite database")
	cmd.Flags().StringVar(&opts.MetricsOut, "metrics-out", "", "write Prometheus metrics to this textfile")

	return cmd
}

func runEval(opts *EvalOptions, levelPath string, cmd *cobra.Command) error {
	if opts.Elapsed < 0 {
		return NewExitError(ExitCommandError, fmt.Sprintf("--elapsed must not be negative, got %g", opts.Elapsed))
	}
	logger := opts.Logger()

	def, err := level.Load(levelPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load level", err)
	}

	sessionOpts := []level.SessionOption{level.WithLogger(logger)}
	var m *metrics.Metrics
	if opts.MetricsOut != "" {
		if m, err = metrics.New(nil); err != nil {
			return WrapExitError(ExitCommandError, "failed to create metrics", err)
		}
		sessionOpts = append(sessionOpts, level.WithObserver(m.ObserveConnection))
	}

	session, err := level.NewSession(def, sessionOpts...)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to build level", err)
	}

	session.Tick(opts.Elapsed)
	res := session.Evaluate()
	status := session.Check()

	report := newEvalReport(session, res)
	report.Status = status.String()

	if opts.Database != "" {
		gen := opts.IDGenerator
		if gen == nil {
			gen = engine.UUIDv7Generator{}
		}
		ev, err := recordEvaluation(cmd.Context(), opts.Database, def.Name, session.Store().Snapshot(), res, gen)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to record evaluation", err)
		}
		report.LayoutID = ev.LayoutID
		report.EvaluationID = ev.ID
		logger.Info("evaluation recorded",
			"evaluation_id", ev.ID,
			"layout_id", ev.LayoutID,
			"seq", ev.Seq,
		)
	}

	if m != nil {
		m.ObserveEvaluation(res)
		if err := m.WriteTextfile(opts.MetricsOut); err != nil {
			return WrapExitError(ExitCommandError, "failed to write metrics", err)
		}
	}

	if f := newFormatter(opts.RootOptions, cmd); f.JSON() {
		return f.Success(report)
	}
	return outputEvalText(cmd, report)
}

func newEvalReport(session *level.Session, res *engine.Result) EvalReport {
	def := session.Definition()
	report := EvalReport{
		Level:         def.Name,
		Total:         res.Total,
		Target:        def.TargetFlow,
		TimeRemaining: session.Remaining(),
		Sinks:         make([]SinkReport, 0, len(res.Sinks)),
		CycleHits:     len(res.CycleHits),
		Resolutions:   res.Resolutions,
	}
	for _, s := range res.Sinks {
		report.Sinks = append(report.Sinks, SinkReport{
			Name: nodeName(session, s.Node),
			Flow: s.Flow,
		})
	}
	return report
}

// recordEvaluation stores the layout (idempotently) and appends one
// evaluation record after the highest seq in the database.
func recordEvaluation(ctx context.Context, dbPath, levelName string, snap ir.Snapshot, res *engine.Result, gen engine.IDGenerator) (ir.Evaluation, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return ir.Evaluation{}, err
	}
	defer st.Close()

	layoutID, err := st.SaveLayout(ctx, snap)
	if err != nil {
		return ir.Evaluation{}, err
	}
	last, err := st.LastSeq(ctx)
	if err != nil {
		return ir.Evaluation{}, err
	}
	clock := engine.NewClockAt(last)

	ev := ir.Evaluation{
		ID:            gen.Generate(),
		LayoutID:      layoutID,
		Level:         levelName,
		Total:         res.Total,
		CycleHits:     len(res.CycleHits),
		Resolutions:   res.Resolutions,
		Seq:           clock.Next(),
		EngineVersion: ir.EngineVersion,
	}
	if err := st.WriteEvaluation(ctx, ev); err != nil {
		return ir.Evaluation{}, err
	}
	return ev, nil
}

// nodeName returns the definition name of id, falling back to its "#n"
// form for nodes that have none.
func nodeName(session *level.Session, id ir.NodeID) string {
	if name := session.Layout().Name(id); name != "" {
		return name
	}
	return id.String()
}

func outputEvalText(cmd *cobra.Command, report EvalReport) error {
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "Level: %s\n", report.Level)
	fmt.Fprintf(w, "Total flow: %g / %g (%s)\n", report.Total, report.Target, report.Status)
	fmt.Fprintf(w, "Time remaining: %gs\n", report.TimeRemaining)
	fmt.Fprintln(w, "Sinks:")
	for _, s := range report.Sinks {
		fmt.Fprintf(w, "  %s: %g\n", s.Name, s.Flow)
	}
	if report.CycleHits > 0 {
		fmt.Fprintf(w, "Cycle hits: %d\n", report.CycleHits)
	}
	if report.LayoutID != "" {
		fmt.Fprintf(w, "Layout: %s\n", report.LayoutID)
		fmt.Fprintf(w, "Evaluation: %s\n", report.EvaluationID)
	}
	return nil
}
