package engine

import (
	"log/slog"

	"github.com/roach88/bigflow/internal/ir"
)

// Graph is the read-only view of a pipeline the evaluator needs.
// Implemented by *graph.Store.
type Graph interface {
	// Nodes returns every node ordered by id.
	Nodes() []ir.Node
	// LookupNode returns the node registered under id.
	LookupNode(id ir.NodeID) (ir.Node, bool)
	// Incoming returns the sources feeding id, one entry per edge.
	Incoming(id ir.NodeID) []ir.NodeID
}

// Adjuster scales a node's computed output, e.g. for failures or power-ups.
// Factor returns false when the node is unaffected.
type Adjuster interface {
	Factor(id ir.NodeID) (float64, bool)
}

// Evaluator computes delivered flow for a graph.
//
// An Evaluator keeps no state between calls: every evaluation re-reads the
// graph, so nodes and edges added since the last call are always reflected.
type Evaluator struct {
	graph     Graph
	logger    *slog.Logger
	onResolve func(ir.NodeID)
	adjuster  Adjuster
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithLogger sets the logger for evaluation diagnostics.
// Default: slog.Default()
func WithLogger(logger *slog.Logger) Option {
	return func(e *Evaluator) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithResolveHook installs fn, called once for each non-memoized resolution.
// Used for instrumentation; fn must not mutate the graph.
func WithResolveHook(fn func(ir.NodeID)) Option {
	return func(e *Evaluator) {
		e.onResolve = fn
	}
}

// WithAdjuster installs an output adjuster. Without one, outputs follow the
// per-kind arithmetic exactly.
func WithAdjuster(a Adjuster) Option {
	return func(e *Evaluator) {
		e.adjuster = a
	}
}

// New creates an Evaluator over g.
func New(g Graph, opts ...Option) *Evaluator {
	e := &Evaluator{
		graph:  g,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// CalculateFlow returns the total output delivered to all sinks.
// It never fails; cycles and dangling references contribute 0.
func (e *Evaluator) CalculateFlow() float64 {
	return e.Evaluate().Total
}

// Evaluate runs one evaluation and returns its full detail.
func (e *Evaluator) Evaluate() *Result {
	ev := &evaluation{
		Evaluator: e,
		memo:      make(map[ir.NodeID]float64),
		path:      newInProgress(),
		result:    newResult(),
		unknown:   make(map[ir.Kind]bool),
	}

	for _, n := range e.graph.Nodes() {
		if n.Kind != ir.KindSink {
			continue
		}
		flow := ev.resolve(n.ID, NoNode)
		ev.result.Sinks = append(ev.result.Sinks, SinkFlow{Node: n.ID, Flow: flow})
		ev.result.Total += flow
	}

	r := ev.result
	r.Outputs = ev.memo
	e.logger.Debug("flow evaluated",
		"total_flow", r.Total,
		"sinks", len(r.Sinks),
		"resolutions", r.Resolutions,
		"memo_hits", r.MemoHits,
		"cycle_hits", len(r.CycleHits),
	)
	return r
}

// evaluation holds the per-call memo and in-progress set.
type evaluation struct {
	*Evaluator
	memo    map[ir.NodeID]float64
	path    *inProgress
	result  *Result
	unknown map[ir.Kind]bool // kinds already reported as pass-through
}

// resolve returns the output of id; via is the node whose input is being
// summed (NoNode for sinks).
func (ev *evaluation) resolve(id, via ir.NodeID) float64 {
	if out, ok := ev.memo[id]; ok {
		ev.result.MemoHits++
		return out
	}

	if ev.path.Contains(id) {
		// Transient zero: id's own resolution is still unwinding and will
		// write its memo entry itself.
		ev.result.CycleHits = append(ev.result.CycleHits, CycleHit{Node: id, Via: via})
		ev.logger.Debug("cycle detected",
			"node_id", int(id),
			"via_id", int(via),
			"depth", ev.path.Depth(),
		)
		return 0
	}

	node, ok := ev.graph.LookupNode(id)
	if !ok {
		ev.logger.Debug("dangling reference contributes nothing",
			"node_id", int(id),
			"via_id", int(via),
		)
		return 0
	}

	ev.path.Enter(id)
	ev.result.Resolutions++
	if ev.onResolve != nil {
		ev.onResolve(id)
	}

	out := ev.compute(node)
	if ev.adjuster != nil {
		if f, ok := ev.adjuster.Factor(id); ok {
			out *= f
		}
	}

	ev.path.Leave(id)
	ev.memo[id] = out
	ev.result.Order = append(ev.result.Order, id)
	return out
}

// compute applies the per-kind arithmetic to node.
func (ev *evaluation) compute(node ir.Node) float64 {
	if node.Kind == ir.KindSource {
		return node.Params.GenerationRate
	}

	var in float64
	for _, src := range ev.graph.Incoming(node.ID) {
		in += ev.resolve(src, node.ID)
	}

	switch node.Kind {
	case ir.KindFilter:
		return in * node.Params.Throughput
	case ir.KindAggregate, ir.KindSink:
		return in
	default:
		if !ev.unknown[node.Kind] {
			ev.unknown[node.Kind] = true
			ev.logger.Debug("unrecognized kind evaluated as pass-through",
				"kind", string(node.Kind),
				"node_id", int(node.ID),
			)
		}
		return in
	}
}
