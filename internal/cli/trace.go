package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/bigflow/internal/engine"
	"github.com/roach88/bigflow/internal/level"
)

// NodeTrace is one resolved node, in resolution order.
type NodeTrace struct {
	Step   int     `json:"step"`
	Name   string  `json:"name"`
	Kind   string  `json:"kind"`
	Output float64 `json:"output"`
}

// CycleTrace is one connection cut by cycle detection: From's output was
// still being resolved, so it contributed 0 to To.
type CycleTrace struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// TraceResult holds the complete trace output.
type TraceResult struct {
	Level     string       `json:"level"`
	Total     float64      `json:"total"`
	Nodes     []NodeTrace  `json:"nodes"`
	Unreached []string     `json:"unreached"`
	CycleHits []CycleTrace `json:"cycle_hits"`
	Stats     TraceStats   `json:"stats"`
}

// TraceStats holds summary statistics for the trace.
type TraceStats struct {
	Nodes       int `json:"nodes"`
	Edges       int `json:"edges"`
	Resolutions int `json:"resolutions"`
	MemoHits    int `json:"memo_hits"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trace <level-file>",
		Short: "Show how flow resolves through a level",
		Long: `Evaluate a level and show every node's output in resolution order.

The output includes:
- Nodes: each resolved node with its kind and output, upstream first
- Unreached: nodes no sink depends on
- Cycles: connections cut because they closed a cycle
- Stats: graph size, resolutions and memo hits

Examples:
  bigflow trace ./levels/starter.yaml
  bigflow trace ./levels/starter.cue --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runTrace(opts *RootOptions, levelPath string, cmd *cobra.Command) error {
	def, err := level.Load(levelPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load level", err)
	}
	session, err := level.NewSession(def, level.WithLogger(opts.Logger()))
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to build level", err)
	}

	result := buildTrace(session, session.Evaluate())

	if f := newFormatter(opts, cmd); f.JSON() {
		return f.Success(result)
	}
	return outputTraceText(cmd, result)
}

func buildTrace(session *level.Session, res *engine.Result) TraceResult {
	st := session.Store()
	result := TraceResult{
		Level:     session.Definition().Name,
		Total:     res.Total,
		Nodes:     make([]NodeTrace, 0, len(res.Order)),
		Unreached: []string{},
		CycleHits: make([]CycleTrace, 0, len(res.CycleHits)),
		Stats: TraceStats{
			Nodes:       st.Len(),
			Edges:       st.EdgeCount(),
			Resolutions: res.Resolutions,
			MemoHits:    res.MemoHits,
		},
	}

	for i, id := range res.Order {
		node, _ := st.LookupNode(id)
		result.Nodes = append(result.Nodes, NodeTrace{
			Step:   i + 1,
			Name:   nodeName(session, id),
			Kind:   string(node.Kind),
			Output: res.Outputs[id],
		})
	}

	for _, node := range st.Nodes() {
		if _, ok := res.Output(node.ID); !ok {
			result.Unreached = append(result.Unreached, nodeName(session, node.ID))
		}
	}

	for _, hit := range res.CycleHits {
		result.CycleHits = append(result.CycleHits, CycleTrace{
			From: nodeName(session, hit.Node),
			To:   nodeName(session, hit.Via),
		})
	}
	return result
}

// outputTraceText outputs the trace result as text.
func outputTraceText(cmd *cobra.Command, result TraceResult) error {
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "Trace for level: %s\n", result.Level)
	fmt.Fprintf(w, "Total flow: %g\n", result.Total)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Resolution ===")
	if len(result.Nodes) == 0 {
		fmt.Fprintln(w, "  (no sinks)")
	}
	for _, n := range result.Nodes {
		fmt.Fprintf(w, "  %d. %s (%s) = %g\n", n.Step, n.Name, n.Kind, n.Output)
	}
	fmt.Fprintln(w)

	if len(result.Unreached) > 0 {
		fmt.Fprintln(w, "=== Unreached ===")
		for _, name := range result.Unreached {
			fmt.Fprintf(w, "  %s\n", name)
		}
		fmt.Fprintln(w)
	}

	if len(result.CycleHits) > 0 {
		fmt.Fprintln(w, "=== Cycles ===")
		for _, c := range result.CycleHits {
			fmt.Fprintf(w, "  %s -> %s cut (contributed 0)\n", c.From, c.To)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "=== Stats ===")
	fmt.Fprintf(w, "  Nodes:       %d\n", result.Stats.Nodes)
	fmt.Fprintf(w, "  Edges:       %d\n", result.Stats.Edges)
	fmt.Fprintf(w, "  Resolutions: %d\n", result.Stats.Resolutions)
	fmt.Fprintf(w, "  Memo hits:   %d\n", result.Stats.MemoHits)

	return nil
}
