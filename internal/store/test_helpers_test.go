package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/bigflow/internal/ir"
)

// createTestStore opens a fresh database in a temp dir.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// sampleSnapshot is source(10) -> filter(0.5) -> sink, plus a parallel edge.
func sampleSnapshot() ir.Snapshot {
	return ir.Snapshot{
		Nodes: []ir.Node{
			{ID: 0, Kind: ir.KindSource, Label: "ingest", Params: ir.Params{GenerationRate: 10}},
			{ID: 1, Kind: ir.KindFilter, Label: "clean", Params: ir.Params{Throughput: 0.5}},
			{ID: 2, Kind: ir.KindSink, Label: "warehouse"},
		},
		Edges: []ir.Edge{
			{From: 0, To: 1},
			{From: 1, To: 2},
			{From: 1, To: 2},
		},
	}
}

func createTestEvaluation(id, layoutID string, total float64, seq int64) ir.Evaluation {
	return ir.Evaluation{
		ID:            id,
		LayoutID:      layoutID,
		Level:         "starter",
		Total:         total,
		Seq:           seq,
		EngineVersion: ir.EngineVersion,
	}
}
