package engine

import "github.com/roach88/bigflow/internal/ir"

// SinkFlow is the output delivered to one sink.
type SinkFlow struct {
	Node ir.NodeID `json:"node"`
	Flow float64   `json:"flow"`
}

// Result is the detailed outcome of one evaluation.
type Result struct {
	// Total is the sum of every sink's output.
	Total float64 `json:"total"`

	// Sinks lists each sink's output in id order.
	Sinks []SinkFlow `json:"sinks"`

	// Outputs is the evaluation memo: the resolved output of every node
	// reached from a sink. Unreached nodes are absent.
	Outputs map[ir.NodeID]float64 `json:"outputs"`

	// Order lists nodes in the order their resolution completed
	// (post-order from the sinks). Each node appears once.
	Order []ir.NodeID `json:"order"`

	// CycleHits lists every short-circuited resolution, in encounter order.
	CycleHits []CycleHit `json:"cycle_hits,omitempty"`

	// Resolutions counts non-memoized resolutions. It equals len(Order).
	Resolutions int `json:"resolutions"`

	// MemoHits counts resolutions served from the memo.
	MemoHits int `json:"memo_hits"`
}

func newResult() *Result {
	return &Result{
		Sinks:   []SinkFlow{},
		Outputs: make(map[ir.NodeID]float64),
		Order:   []ir.NodeID{},
	}
}

// Output returns the resolved output of id, if it was reached.
func (r *Result) Output(id ir.NodeID) (float64, bool) {
	v, ok := r.Outputs[id]
	return v, ok
}

// SinkOutput returns the output of the sink id, if id is a sink.
func (r *Result) SinkOutput(id ir.NodeID) (float64, bool) {
	for _, s := range r.Sinks {
		if s.Node == id {
			return s.Flow, true
		}
	}
	return 0, false
}
