package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/bigflow/internal/ir"
	"github.com/roach88/bigflow/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database string
}

// HistoryResult lists the evaluations logged for one layout.
type HistoryResult struct {
	LayoutID    string          `json:"layout_id"`
	Nodes       int             `json:"nodes"`
	Edges       int             `json:"edges"`
	Evaluations []ir.Evaluation `json:"evaluations"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history <layout-id>",
		Short: "List evaluations recorded for a layout",
		Long: `List the evaluations recorded for a stored layout, in log order.

Layouts and evaluations are recorded by "bigflow eval --db".

Examples:
  bigflow history --db ./bigflow.db 3f2a...
  bigflow history --db ./bigflow.db 3f2a... --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runHistory(opts *HistoryOptions, layoutID string, cmd *cobra.Command) error {
	h, err := loadHistory(cmd.Context(), opts.Database, layoutID)
	if err != nil {
		return err
	}

	result := HistoryResult{
		LayoutID:    h.LayoutID,
		Nodes:       len(h.Snapshot.Nodes),
		Edges:       len(h.Snapshot.Edges),
		Evaluations: h.Evaluations,
	}

	if f := newFormatter(opts.RootOptions, cmd); f.JSON() {
		return f.Success(result)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Layout: %s (%d nodes, %d edges)\n", result.LayoutID, result.Nodes, result.Edges)
	if len(result.Evaluations) == 0 {
		fmt.Fprintln(w, "No evaluations recorded.")
		return nil
	}
	fmt.Fprintln(w)
	for _, ev := range result.Evaluations {
		fmt.Fprintf(w, "  #%d %s level=%s total=%g cycle_hits=%d engine=%s\n",
			ev.Seq, ev.ID, ev.Level, ev.Total, ev.CycleHits, ev.EngineVersion)
	}
	return nil
}

// loadHistory opens the database read path shared by history and replay.
// Missing layouts are command errors.
func loadHistory(ctx context.Context, dbPath, layoutID string) (store.LayoutHistory, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return store.LayoutHistory{}, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	h, err := st.History(ctx, layoutID)
	if errors.Is(err, store.ErrNotFound) {
		return h, NewExitError(ExitCommandError, fmt.Sprintf("layout not found: %s", layoutID))
	}
	if err != nil {
		return h, WrapExitError(ExitCommandError, "failed to load history", err)
	}
	return h, nil
}
