package ir

import "fmt"

// NodeID identifies a node within one graph store.
// IDs are dense, start at 0 and are assigned in registration order.
type NodeID int

// String implements fmt.Stringer.
func (id NodeID) String() string {
	return fmt.Sprintf("#%d", int(id))
}

// Kind tags the behaviour of a node during flow evaluation.
//
// The set is closed for the kinds the evaluator special-cases. Other values
// are representable so that levels authored for newer builds still load;
// the evaluator treats them as pass-through.
type Kind string

const (
	// KindSource emits its generation rate regardless of input.
	KindSource Kind = "source"
	// KindFilter scales its summed input by its throughput.
	KindFilter Kind = "filter"
	// KindAggregate passes its summed input through unchanged.
	KindAggregate Kind = "aggregate"
	// KindSink passes its summed input through and is counted in the total.
	KindSink Kind = "sink"
)

// Known reports whether k is one of the explicitly handled kinds.
func (k Kind) Known() bool {
	switch k {
	case KindSource, KindFilter, KindAggregate, KindSink:
		return true
	default:
		return false
	}
}

// Params holds the kind-specific numeric parameters of a node.
// Source reads GenerationRate, Filter reads Throughput; other kinds read neither.
type Params struct {
	GenerationRate float64 `json:"generation_rate"`
	Throughput     float64 `json:"throughput"`
}

// Node is a typed graph vertex.
type Node struct {
	ID     NodeID `json:"id"`
	Kind   Kind   `json:"kind"`
	Label  string `json:"label,omitempty"`
	Params Params `json:"params"`
}

// Edge is a directed flow connection from one node into another.
// Parallel edges with identical endpoints are distinct edges.
type Edge struct {
	From NodeID `json:"from"`
	To   NodeID `json:"to"`
}

// Snapshot is a complete copy of a graph: nodes ordered by id and edges in
// the order they were connected. Replaying a snapshot reproduces the graph.
type Snapshot struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}
