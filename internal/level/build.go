package level

import (
	"fmt"

	"github.com/roach88/bigflow/internal/graph"
	"github.com/roach88/bigflow/internal/ir"
)

// Layout maps node names from a definition to the ids the store assigned.
type Layout struct {
	ids   map[string]ir.NodeID
	names map[ir.NodeID]string
}

func newLayout() *Layout {
	return &Layout{
		ids:   make(map[string]ir.NodeID),
		names: make(map[ir.NodeID]string),
	}
}

// ID returns the id registered for name.
func (l *Layout) ID(name string) (ir.NodeID, bool) {
	id, ok := l.ids[name]
	return id, ok
}

// Name returns the definition name of id, or "" for nodes added later.
func (l *Layout) Name(id ir.NodeID) string {
	return l.names[id]
}

// Len returns the number of named nodes.
func (l *Layout) Len() int {
	return len(l.ids)
}

// Build validates def and populates s with its nodes and connections, both
// in declaration order. Node labels are set to the definition names.
//
// s is normally empty; when it is not, new ids continue after the existing
// ones. On error s may hold a partial layout.
func Build(def *Definition, s *graph.Store) (*Layout, error) {
	if err := def.Validate(); err != nil {
		return nil, fmt.Errorf("invalid level %q: %w", def.Name, err)
	}

	layout := newLayout()
	for _, n := range def.Nodes {
		id := s.RegisterNodeLabeled(n.Name, n.Kind, n.Params)
		layout.ids[n.Name] = id
		layout.names[id] = n.Name
	}

	for i, c := range def.Connections {
		if err := s.Connect(layout.ids[c.From], layout.ids[c.To]); err != nil {
			return nil, fmt.Errorf("connections[%d] %s -> %s: %w", i, c.From, c.To, err)
		}
	}
	return layout, nil
}
