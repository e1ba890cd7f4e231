package store

import (
	"context"
	"fmt"

	"github.com/roach88/bigflow/internal/ir"
)

// LayoutHistory is a stored layout together with its evaluation log.
type LayoutHistory struct {
	LayoutID    string
	Snapshot    ir.Snapshot
	Evaluations []ir.Evaluation
	LastSeq     int64 // Highest seq among Evaluations, 0 if none
}

// History loads a layout and every evaluation logged against it.
// Returns ErrNotFound (wrapped) for unknown layouts.
func (s *Store) History(ctx context.Context, layoutID string) (LayoutHistory, error) {
	h := LayoutHistory{LayoutID: layoutID}

	snap, err := s.LoadLayout(ctx, layoutID)
	if err != nil {
		return h, fmt.Errorf("history: %w", err)
	}
	h.Snapshot = snap

	evals, err := s.ListEvaluations(ctx, layoutID)
	if err != nil {
		return h, fmt.Errorf("history: %w", err)
	}
	h.Evaluations = evals

	for _, ev := range evals {
		if ev.Seq > h.LastSeq {
			h.LastSeq = ev.Seq
		}
	}
	return h, nil
}

// Totals returns the distinct totals recorded in h, in log order.
// A deterministic engine produces exactly one.
func (h LayoutHistory) Totals() []float64 {
	var totals []float64
	seen := make(map[float64]bool)
	for _, ev := range h.Evaluations {
		if !seen[ev.Total] {
			seen[ev.Total] = true
			totals = append(totals, ev.Total)
		}
	}
	return totals
}
