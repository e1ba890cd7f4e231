package store

import (
	"context"
	"fmt"

	"github.com/roach88/bigflow/internal/ir"
)

// SaveLayout stores snap under its content hash and returns the id.
// Saving a layout that is already stored is a no-op returning the same id.
func (s *Store) SaveLayout(ctx context.Context, snap ir.Snapshot) (string, error) {
	id, err := ir.LayoutHash(snap)
	if err != nil {
		return "", fmt.Errorf("save layout: %w", err)
	}
	canonical, err := marshalSnapshot(snap)
	if err != nil {
		return "", fmt.Errorf("save layout: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("save layout: begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO layouts (id, layout_version, snapshot, node_count, edge_count)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, id, ir.LayoutVersion, canonical, len(snap.Nodes), len(snap.Edges))
	if err != nil {
		return "", fmt.Errorf("save layout: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		// Same content already stored.
		return id, nil
	}

	for _, n := range snap.Nodes {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO layout_nodes (layout_id, node_id, kind, label, generation_rate, throughput)
			VALUES (?, ?, ?, ?, ?, ?)
		`, id, int(n.ID), string(n.Kind), n.Label, n.Params.GenerationRate, n.Params.Throughput)
		if err != nil {
			return "", fmt.Errorf("save layout: node %d: %w", n.ID, err)
		}
	}

	for i, e := range snap.Edges {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO layout_edges (layout_id, position, from_id, to_id)
			VALUES (?, ?, ?, ?)
		`, id, i, int(e.From), int(e.To))
		if err != nil {
			return "", fmt.Errorf("save layout: edge %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("save layout: commit: %w", err)
	}
	return id, nil
}

// WriteEvaluation appends an evaluation record.
// Uses ON CONFLICT(id) DO NOTHING: rewriting the same id is silently ignored.
// The referenced layout must already be stored (foreign key).
func (s *Store) WriteEvaluation(ctx context.Context, ev ir.Evaluation) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO evaluations
		(id, layout_id, level, total, cycle_hits, resolutions, seq, engine_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		ev.ID,
		ev.LayoutID,
		ev.Level,
		ev.Total,
		ev.CycleHits,
		ev.Resolutions,
		ev.Seq,
		ev.EngineVersion,
	)
	if err != nil {
		return fmt.Errorf("write evaluation: %w", err)
	}
	return nil
}
