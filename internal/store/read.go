package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/bigflow/internal/ir"
)

// LoadLayout returns the snapshot stored under id: nodes ordered by id,
// edges in insertion order. Returns ErrNotFound for unknown ids.
//
// The snapshot is re-hashed after reading; a mismatch means the rows were
// altered outside this package and is reported as an error.
func (s *Store) LoadLayout(ctx context.Context, id string) (ir.Snapshot, error) {
	var version string
	err := s.db.QueryRowContext(ctx, `SELECT layout_version FROM layouts WHERE id = ?`, id).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return ir.Snapshot{}, fmt.Errorf("layout %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return ir.Snapshot{}, fmt.Errorf("load layout: %w", err)
	}
	if version != ir.LayoutVersion {
		return ir.Snapshot{}, fmt.Errorf("load layout %s: unsupported layout version %q", id, version)
	}

	nodes, err := s.readNodes(ctx, id)
	if err != nil {
		return ir.Snapshot{}, err
	}
	edges, err := s.readEdges(ctx, id)
	if err != nil {
		return ir.Snapshot{}, err
	}
	snap := ir.Snapshot{Nodes: nodes, Edges: edges}

	got, err := ir.LayoutHash(snap)
	if err != nil {
		return ir.Snapshot{}, fmt.Errorf("load layout %s: %w", id, err)
	}
	if got != id {
		return ir.Snapshot{}, fmt.Errorf("load layout %s: content hash mismatch (got %s)", id, got)
	}
	return snap, nil
}

func (s *Store) readNodes(ctx context.Context, layoutID string) ([]ir.Node, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT node_id, kind, label, generation_rate, throughput
		FROM layout_nodes
		WHERE layout_id = ?
		ORDER BY node_id ASC
	`, layoutID)
	if err != nil {
		return nil, fmt.Errorf("query layout nodes: %w", err)
	}
	defer rows.Close()

	nodes := []ir.Node{}
	for rows.Next() {
		var (
			n    ir.Node
			id   int
			kind string
		)
		if err := rows.Scan(&id, &kind, &n.Label, &n.Params.GenerationRate, &n.Params.Throughput); err != nil {
			return nil, fmt.Errorf("scan layout node: %w", err)
		}
		n.ID = ir.NodeID(id)
		n.Kind = ir.Kind(kind)
		nodes = append(nodes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate layout nodes: %w", err)
	}
	return nodes, nil
}

func (s *Store) readEdges(ctx context.Context, layoutID string) ([]ir.Edge, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT from_id, to_id
		FROM layout_edges
		WHERE layout_id = ?
		ORDER BY position ASC
	`, layoutID)
	if err != nil {
		return nil, fmt.Errorf("query layout edges: %w", err)
	}
	defer rows.Close()

	edges := []ir.Edge{}
	for rows.Next() {
		var from, to int
		if err := rows.Scan(&from, &to); err != nil {
			return nil, fmt.Errorf("scan layout edge: %w", err)
		}
		edges = append(edges, ir.Edge{From: ir.NodeID(from), To: ir.NodeID(to)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate layout edges: %w", err)
	}
	return edges, nil
}

// ListEvaluations returns the evaluations logged for layoutID.
// Ordered by seq ASC, id ASC COLLATE BINARY.
// Returns an empty slice (not nil) when none exist.
func (s *Store) ListEvaluations(ctx context.Context, layoutID string) ([]ir.Evaluation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, layout_id, level, total, cycle_hits, resolutions, seq, engine_version
		FROM evaluations
		WHERE layout_id = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, layoutID)
	if err != nil {
		return nil, fmt.Errorf("query evaluations: %w", err)
	}
	defer rows.Close()

	evals := []ir.Evaluation{}
	for rows.Next() {
		var ev ir.Evaluation
		if err := rows.Scan(
			&ev.ID,
			&ev.LayoutID,
			&ev.Level,
			&ev.Total,
			&ev.CycleHits,
			&ev.Resolutions,
			&ev.Seq,
			&ev.EngineVersion,
		); err != nil {
			return nil, fmt.Errorf("scan evaluation: %w", err)
		}
		evals = append(evals, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate evaluations: %w", err)
	}
	return evals, nil
}

// LastSeq returns the highest evaluation seq in the log, or 0 when empty.
// Callers resume their logical clock from it.
func (s *Store) LastSeq(ctx context.Context) (int64, error) {
	var seq sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(seq) FROM evaluations`).Scan(&seq); err != nil {
		return 0, fmt.Errorf("last seq: %w", err)
	}
	return seq.Int64, nil
}
