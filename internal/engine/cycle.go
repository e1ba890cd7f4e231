package engine

import "github.com/roach88/bigflow/internal/ir"

// NoNode marks the absence of a node, e.g. the caller of a sink resolution.
const NoNode ir.NodeID = -1

// CycleHit records one short-circuited resolution.
//
// Node was already being resolved further up the active path, so the edge
// Node -> Via closed a cycle. That edge contributed 0 to Via's input.
type CycleHit struct {
	Node ir.NodeID `json:"node"`
	Via  ir.NodeID `json:"via"`
}

// inProgress tracks the nodes on the active resolution path.
//
// It exists purely for cycle detection. Membership is cleared as each
// resolution unwinds, so a node reached again later through an unrelated
// path is served from the memo rather than reported as a cycle.
type inProgress struct {
	active map[ir.NodeID]struct{}
}

func newInProgress() *inProgress {
	return &inProgress{active: make(map[ir.NodeID]struct{})}
}

// Contains reports whether id is on the active path.
func (p *inProgress) Contains(id ir.NodeID) bool {
	_, ok := p.active[id]
	return ok
}

// Enter marks id as being resolved.
func (p *inProgress) Enter(id ir.NodeID) {
	p.active[id] = struct{}{}
}

// Leave clears id once its resolution is complete.
func (p *inProgress) Leave(id ir.NodeID) {
	delete(p.active, id)
}

// Depth returns the number of nodes on the active path.
func (p *inProgress) Depth() int {
	return len(p.active)
}
