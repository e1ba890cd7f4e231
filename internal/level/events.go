package level

import (
	"errors"
	"fmt"

	"github.com/roach88/bigflow/internal/graph"
	"github.com/roach88/bigflow/internal/ir"
)

// ErrUnknownPowerUp is returned by ApplyPowerUp for unrecognized kinds.
var ErrUnknownPowerUp = errors.New("unknown power-up")

// Power-up kinds.
const (
	PowerUpTurbo = "turbo"
)

// Event factors.
const (
	FailureFactor = 0.5
	TurboFactor   = 2.0
)

// effects holds the active output factor per node.
// Implements engine.Adjuster.
type effects map[ir.NodeID]float64

func (e effects) Factor(id ir.NodeID) (float64, bool) {
	f, ok := e[id]
	return f, ok
}

func (e effects) apply(id ir.NodeID, factor float64) float64 {
	cur, ok := e[id]
	if !ok {
		cur = 1
	}
	cur *= factor
	e[id] = cur
	return cur
}

// TriggerFailure halves the output of id. Repeated failures stack.
func (s *Session) TriggerFailure(id ir.NodeID) error {
	if _, ok := s.store.LookupNode(id); !ok {
		return &graph.UnknownNodeError{Op: "trigger failure", Missing: []ir.NodeID{id}}
	}

	factor := s.effects.apply(id, FailureFactor)
	s.logger.Warn("node failure triggered",
		"node_id", int(id),
		"factor", factor,
	)
	return nil
}

// ApplyPowerUp applies the named power-up to id. "turbo" doubles its output.
// Effects stack multiplicatively with failures and earlier power-ups.
func (s *Session) ApplyPowerUp(kind string, id ir.NodeID) error {
	var factor float64
	switch kind {
	case PowerUpTurbo:
		factor = TurboFactor
	default:
		return fmt.Errorf("%q: %w", kind, ErrUnknownPowerUp)
	}

	if _, ok := s.store.LookupNode(id); !ok {
		return &graph.UnknownNodeError{Op: "apply power-up " + kind, Missing: []ir.NodeID{id}}
	}

	total := s.effects.apply(id, factor)
	s.logger.Info("power-up applied",
		"power_up", kind,
		"node_id", int(id),
		"factor", total,
	)
	return nil
}

// Factor returns the combined effect factor on id, 1 when unaffected.
func (s *Session) Factor(id ir.NodeID) float64 {
	if f, ok := s.effects[id]; ok {
		return f
	}
	return 1
}
