package graph

import (
	"fmt"
	"log/slog"

	"github.com/roach88/bigflow/internal/ir"
)

// Store owns the nodes of one pipeline and the directed adjacency between them.
type Store struct {
	nodes []ir.Node     // arena, indexed by NodeID
	out   [][]ir.NodeID // out[id] = targets of id, in connection order
	in    [][]ir.NodeID // in[id] = sources of id, in connection order
	edges []ir.Edge     // every committed edge, in connection order

	notifier *Notifier
	logger   *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for registration and connection diagnostics.
// Default: slog.Default()
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates an empty Store.
func New(opts ...Option) *Store {
	s := &Store{
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.notifier = newNotifier(s.logger)
	return s
}

// RegisterNode adds a node of the given kind and returns its id.
//
// Ids start at 0 and strictly increase, so registration never collides and
// never fails. Parameters are stored as given, without validation.
func (s *Store) RegisterNode(kind ir.Kind, params ir.Params) ir.NodeID {
	return s.RegisterNodeLabeled("", kind, params)
}

// RegisterNodeLabeled is RegisterNode with a display label.
// Labels are informational; they are not required to be unique.
func (s *Store) RegisterNodeLabeled(label string, kind ir.Kind, params ir.Params) ir.NodeID {
	id := ir.NodeID(len(s.nodes))
	s.nodes = append(s.nodes, ir.Node{
		ID:     id,
		Kind:   kind,
		Label:  label,
		Params: params,
	})
	s.out = append(s.out, nil)
	s.in = append(s.in, nil)

	s.logger.Debug("node registered",
		"node_id", int(id),
		"kind", string(kind),
		"label", label,
	)
	return id
}

// Connect adds a directed edge from -> to.
//
// Returns *UnknownNodeError if either id is not registered; in that case no
// state changes and no observer runs. Connecting the same pair twice creates
// two parallel edges.
func (s *Store) Connect(from, to ir.NodeID) error {
	var missing []ir.NodeID
	if !s.has(from) {
		missing = append(missing, from)
	}
	if !s.has(to) {
		missing = append(missing, to)
	}
	if len(missing) > 0 {
		err := &UnknownNodeError{From: from, To: to, Missing: missing}
		s.logger.Warn("connection rejected",
			"from_id", int(from),
			"to_id", int(to),
			"error", err,
		)
		return err
	}

	// Commit both directions together so in stays the inverse of out
	s.out[from] = append(s.out[from], to)
	s.in[to] = append(s.in[to], from)
	s.edges = append(s.edges, ir.Edge{From: from, To: to})

	s.logger.Debug("connection created",
		"from_id", int(from),
		"to_id", int(to),
		"edges", len(s.edges),
	)

	s.notifier.publish(s.nodes[from], s.nodes[to])
	return nil
}

// LookupNode returns the node registered under id.
// Returns false for unknown ids; never panics.
func (s *Store) LookupNode(id ir.NodeID) (ir.Node, bool) {
	if !s.has(id) {
		return ir.Node{}, false
	}
	return s.nodes[id], true
}

// Len returns the number of registered nodes.
func (s *Store) Len() int {
	return len(s.nodes)
}

// EdgeCount returns the number of committed edges, parallel edges included.
func (s *Store) EdgeCount() int {
	return len(s.edges)
}

// Nodes returns a copy of all nodes ordered by id.
func (s *Store) Nodes() []ir.Node {
	out := make([]ir.Node, len(s.nodes))
	copy(out, s.nodes)
	return out
}

// Outgoing returns a copy of the targets of id, in connection order.
// Unknown ids yield nil.
func (s *Store) Outgoing(id ir.NodeID) []ir.NodeID {
	if !s.has(id) {
		return nil
	}
	return cloneIDs(s.out[id])
}

// Incoming returns a copy of the sources of id, in connection order.
// A source connected twice appears twice. Unknown ids yield nil.
func (s *Store) Incoming(id ir.NodeID) []ir.NodeID {
	if !s.has(id) {
		return nil
	}
	return cloneIDs(s.in[id])
}

// Edges returns a copy of every edge in connection order.
func (s *Store) Edges() []ir.Edge {
	out := make([]ir.Edge, len(s.edges))
	copy(out, s.edges)
	return out
}

// Snapshot returns a complete copy of the graph.
func (s *Store) Snapshot() ir.Snapshot {
	return ir.Snapshot{
		Nodes: s.Nodes(),
		Edges: s.Edges(),
	}
}

// Subscribe registers a connection observer on this Store.
func (s *Store) Subscribe(fn Observer) Subscription {
	return s.notifier.Subscribe(fn)
}

// Unsubscribe removes a connection observer from this Store.
func (s *Store) Unsubscribe(sub Subscription) bool {
	return s.notifier.Unsubscribe(sub)
}

// Restore rebuilds a Store from a snapshot by replaying its registrations and
// connections in order. Snapshot node ids must be dense and ordered, matching
// the ids the Store would assign.
func Restore(snap ir.Snapshot, opts ...Option) (*Store, error) {
	s := New(opts...)
	for i, n := range snap.Nodes {
		if n.ID != ir.NodeID(i) {
			return nil, fmt.Errorf("restore: node at position %d has id %d, want %d", i, int(n.ID), i)
		}
		s.RegisterNodeLabeled(n.Label, n.Kind, n.Params)
	}
	for i, e := range snap.Edges {
		if err := s.Connect(e.From, e.To); err != nil {
			return nil, fmt.Errorf("restore: edge %d: %w", i, err)
		}
	}
	return s, nil
}

func (s *Store) has(id ir.NodeID) bool {
	return id >= 0 && int(id) < len(s.nodes)
}

func cloneIDs(ids []ir.NodeID) []ir.NodeID {
	if len(ids) == 0 {
		return nil
	}
	out := make([]ir.NodeID, len(ids))
	copy(out, ids)
	return out
}
