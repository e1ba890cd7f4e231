package graph

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/bigflow/internal/ir"
)

func TestRegisterNode_AssignsDenseIncreasingIDs(t *testing.T) {
	s := New()

	a := s.RegisterNode(ir.KindSource, ir.Params{GenerationRate: 5})
	b := s.RegisterNode(ir.KindFilter, ir.Params{Throughput: 0.5})
	c := s.RegisterNode(ir.KindSink, ir.Params{})

	assert.Equal(t, ir.NodeID(0), a)
	assert.Equal(t, ir.NodeID(1), b)
	assert.Equal(t, ir.NodeID(2), c)
	assert.Equal(t, 3, s.Len())
}

func TestRegisterNode_StoresParamsUnvalidated(t *testing.T) {
	s := New()

	id := s.RegisterNode(ir.KindFilter, ir.Params{Throughput: 1.5})
	neg := s.RegisterNode(ir.KindSource, ir.Params{GenerationRate: -3})

	n, ok := s.LookupNode(id)
	require.True(t, ok)
	assert.Equal(t, 1.5, n.Params.Throughput)

	n, ok = s.LookupNode(neg)
	require.True(t, ok)
	assert.Equal(t, -3.0, n.Params.GenerationRate)
}

func TestRegisterNodeLabeled(t *testing.T) {
	s := New()

	id := s.RegisterNodeLabeled("ingest", ir.KindSource, ir.Params{GenerationRate: 20})

	n, ok := s.LookupNode(id)
	require.True(t, ok)
	assert.Equal(t, "ingest", n.Label)
	assert.Equal(t, ir.KindSource, n.Kind)
	assert.Equal(t, id, n.ID)
}

func TestLookupNode_Missing(t *testing.T) {
	s := New()
	s.RegisterNode(ir.KindSink, ir.Params{})

	for _, id := range []ir.NodeID{-1, 1, 9999} {
		n, ok := s.LookupNode(id)
		assert.False(t, ok, "id %d should not be found", id)
		assert.Equal(t, ir.Node{}, n)
	}
}

func TestConnect_UpdatesBothAdjacencies(t *testing.T) {
	s := New()
	src := s.RegisterNode(ir.KindSource, ir.Params{GenerationRate: 1})
	agg := s.RegisterNode(ir.KindAggregate, ir.Params{})
	sink := s.RegisterNode(ir.KindSink, ir.Params{})

	require.NoError(t, s.Connect(src, agg))
	require.NoError(t, s.Connect(agg, sink))

	assert.Equal(t, []ir.NodeID{agg}, s.Outgoing(src))
	assert.Equal(t, []ir.NodeID{sink}, s.Outgoing(agg))
	assert.Nil(t, s.Outgoing(sink))

	assert.Nil(t, s.Incoming(src))
	assert.Equal(t, []ir.NodeID{src}, s.Incoming(agg))
	assert.Equal(t, []ir.NodeID{agg}, s.Incoming(sink))

	assert.Equal(t, []ir.Edge{{From: src, To: agg}, {From: agg, To: sink}}, s.Edges())
	assert.Equal(t, 2, s.EdgeCount())
}

func TestConnect_UnknownTarget(t *testing.T) {
	s := New()
	valid := s.RegisterNode(ir.KindSource, ir.Params{GenerationRate: 3})

	err := s.Connect(valid, 9999)
	require.Error(t, err)
	assert.True(t, IsUnknownNode(err))

	var ue *UnknownNodeError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, []ir.NodeID{9999}, ue.Missing)
	assert.Equal(t, ErrCodeUnknownNode, ue.Code())

	// Nothing was recorded
	assert.Nil(t, s.Outgoing(valid))
	assert.Zero(t, s.EdgeCount())
}

func TestConnect_UnknownSource(t *testing.T) {
	s := New()
	valid := s.RegisterNode(ir.KindSink, ir.Params{})

	err := s.Connect(-1, valid)
	require.Error(t, err)
	assert.True(t, IsUnknownNode(err))
	assert.Nil(t, s.Incoming(valid))
}

func TestConnect_BothUnknown(t *testing.T) {
	s := New()

	err := s.Connect(7, 8)
	var ue *UnknownNodeError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, []ir.NodeID{7, 8}, ue.Missing)
	assert.Contains(t, err.Error(), "UNKNOWN_NODE")
}

func TestConnect_DuplicateEdgesPreserved(t *testing.T) {
	s := New()
	x := s.RegisterNode(ir.KindSource, ir.Params{GenerationRate: 2})
	y := s.RegisterNode(ir.KindAggregate, ir.Params{})

	require.NoError(t, s.Connect(x, y))
	require.NoError(t, s.Connect(x, y))

	assert.Equal(t, []ir.NodeID{x, x}, s.Incoming(y))
	assert.Equal(t, []ir.NodeID{y, y}, s.Outgoing(x))
	assert.Equal(t, 2, s.EdgeCount())
}

func TestConnect_SelfLoopAllowed(t *testing.T) {
	s := New()
	a := s.RegisterNode(ir.KindAggregate, ir.Params{})

	require.NoError(t, s.Connect(a, a))
	assert.Equal(t, []ir.NodeID{a}, s.Incoming(a))
	assert.Equal(t, []ir.NodeID{a}, s.Outgoing(a))
}

func TestAccessors_ReturnCopies(t *testing.T) {
	s := New()
	a := s.RegisterNode(ir.KindSource, ir.Params{GenerationRate: 1})
	b := s.RegisterNode(ir.KindSink, ir.Params{})
	require.NoError(t, s.Connect(a, b))

	s.Incoming(b)[0] = 42
	s.Outgoing(a)[0] = 42
	s.Nodes()[0].Kind = ir.KindSink
	s.Edges()[0].To = 42

	assert.Equal(t, []ir.NodeID{a}, s.Incoming(b))
	assert.Equal(t, []ir.NodeID{b}, s.Outgoing(a))
	n, _ := s.LookupNode(a)
	assert.Equal(t, ir.KindSource, n.Kind)
	assert.Equal(t, []ir.Edge{{From: a, To: b}}, s.Edges())
}

func TestSnapshotRestore_RoundTrip(t *testing.T) {
	s := New()
	src := s.RegisterNodeLabeled("src", ir.KindSource, ir.Params{GenerationRate: 4})
	f := s.RegisterNodeLabeled("f", ir.KindFilter, ir.Params{Throughput: 0.25})
	sink := s.RegisterNodeLabeled("sink", ir.KindSink, ir.Params{})
	require.NoError(t, s.Connect(src, f))
	require.NoError(t, s.Connect(f, sink))
	require.NoError(t, s.Connect(f, sink))

	snap := s.Snapshot()
	restored, err := Restore(snap)
	require.NoError(t, err)

	assert.Equal(t, snap, restored.Snapshot())
	assert.Equal(t, []ir.NodeID{f, f}, restored.Incoming(sink))
}

func TestRestore_RejectsSparseIDs(t *testing.T) {
	_, err := Restore(ir.Snapshot{
		Nodes: []ir.Node{{ID: 0, Kind: ir.KindSource}, {ID: 5, Kind: ir.KindSink}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "position 1")
}

func TestRestore_RejectsDanglingEdge(t *testing.T) {
	_, err := Restore(ir.Snapshot{
		Nodes: []ir.Node{{ID: 0, Kind: ir.KindSource}},
		Edges: []ir.Edge{{From: 0, To: 3}},
	})
	require.Error(t, err)
	assert.True(t, IsUnknownNode(err))
}

func TestStore_LogsRejectedConnection(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	s := New(WithLogger(logger))
	a := s.RegisterNode(ir.KindSource, ir.Params{})

	_ = s.Connect(a, 12)

	out := buf.String()
	assert.Contains(t, out, "node registered")
	assert.Contains(t, out, "connection rejected")
	assert.Contains(t, out, "to_id=12")
}

func TestStores_AreIndependent(t *testing.T) {
	s1 := New()
	s2 := New()

	var hits1, hits2 int
	s1.Subscribe(func(from, to ir.Node) { hits1++ })
	s2.Subscribe(func(from, to ir.Node) { hits2++ })

	a := s1.RegisterNode(ir.KindSource, ir.Params{})
	b := s1.RegisterNode(ir.KindSink, ir.Params{})
	require.NoError(t, s1.Connect(a, b))

	assert.Equal(t, 1, hits1)
	assert.Equal(t, 0, hits2)
	assert.Equal(t, 0, s2.Len())
}
