package harness

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"sort"

	"github.com/roach88/bigflow/internal/engine"
	"github.com/roach88/bigflow/internal/ir"
	"github.com/roach88/bigflow/internal/level"
)

// Harness runs one scenario against a fresh session with a deterministic
// clock and evaluation id.
type Harness struct {
	session *level.Session
	clock   *engine.Clock
	ids     engine.IDGenerator
}

// DefaultEvaluationID is recorded when a scenario does not pin an id.
const DefaultEvaluationID = "test-eval-default"

// Run executes a scenario and returns its result.
//
// Errors are returned only when the scenario cannot be run at all (level
// fails to load, a setup step is rejected). Unmet expectations are reported
// in Result.Errors with Pass false.
//
// Execution flow:
//  1. Load the level and start a session
//  2. Apply connections, then events, in order
//  3. Advance the clock by Elapsed
//  4. Evaluate and record the trace
//  5. Check status, expectations and assertions
func Run(scenario *Scenario) (*Result, error) {
	def, err := level.Load(scenario.LevelPath())
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}

	session, err := level.NewSession(def, level.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}

	evaluationID := scenario.EvaluationID
	if evaluationID == "" {
		evaluationID = DefaultEvaluationID
	}
	h := &Harness{
		session: session,
		clock:   engine.NewClock(),
		ids:     engine.NewFixedGenerator(evaluationID),
	}

	result := NewResult()
	result.EvaluationID = h.ids.Generate()

	if err := h.applySetup(scenario, result); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}

	session.Tick(scenario.Elapsed)
	h.recordEvaluation(session.Evaluate(), result)

	result.Status = session.Check().String()
	result.Budget = session.Budget()

	checkExpect(scenario.Expect, result)
	for _, a := range scenario.Assertions {
		if err := runAssertion(result, a); err != nil {
			result.AddError(err.Error())
		}
	}
	return result, nil
}

func (h *Harness) applySetup(scenario *Scenario, result *Result) error {
	for i, w := range scenario.Connections {
		if err := h.session.ConnectNames(w.From, w.To); err != nil {
			return fmt.Errorf("connections[%d]: %w", i, err)
		}
		result.addTrace(TraceEvent{Type: TraceConnect, Node: w.From, Target: w.To, Seq: h.clock.Next()})
	}

	for i, ev := range scenario.Events {
		id, ok := h.session.Layout().ID(ev.Node)
		if !ok {
			return fmt.Errorf("events[%d]: unknown node %q", i, ev.Node)
		}

		switch ev.Type {
		case EventFailure:
			if err := h.session.TriggerFailure(id); err != nil {
				return fmt.Errorf("events[%d]: %w", i, err)
			}
			result.addTrace(TraceEvent{Type: TraceFailure, Node: ev.Node, Seq: h.clock.Next()})
		case EventPowerUp:
			if err := h.session.ApplyPowerUp(ev.PowerUp, id); err != nil {
				return fmt.Errorf("events[%d]: %w", i, err)
			}
			result.addTrace(TraceEvent{Type: TracePowerUp, Node: ev.Node, Kind: ev.PowerUp, Seq: h.clock.Next()})
		}
	}
	return nil
}

func (h *Harness) recordEvaluation(res *engine.Result, result *Result) {
	store := h.session.Store()

	for _, id := range res.Order {
		node, _ := store.LookupNode(id)
		out := res.Outputs[id]
		name := h.name(id)
		result.Outputs[name] = out
		result.addTrace(TraceEvent{
			Type:   TraceResolve,
			Node:   name,
			Kind:   string(node.Kind),
			Output: floatPtr(out),
			Seq:    h.clock.Next(),
		})
	}

	for _, hit := range res.CycleHits {
		result.addTrace(TraceEvent{
			Type:   TraceCycle,
			Node:   h.name(hit.Node),
			Target: h.name(hit.Via),
			Seq:    h.clock.Next(),
		})
	}

	for _, s := range res.Sinks {
		result.Sinks[h.name(s.Node)] = s.Flow
	}
	result.Total = res.Total
	result.CycleHits = len(res.CycleHits)
	result.addTrace(TraceEvent{Type: TraceTotal, Output: floatPtr(res.Total), Seq: h.clock.Next()})
}

// name returns the definition name of id, or its "#n" form.
func (h *Harness) name(id ir.NodeID) string {
	if n := h.session.Layout().Name(id); n != "" {
		return n
	}
	return id.String()
}

func checkExpect(exp Expect, result *Result) {
	if exp.Total != nil && !approxEqual(*exp.Total, result.Total) {
		result.AddError(fmt.Sprintf("total: expected %g, got %g", *exp.Total, result.Total))
	}

	names := make([]string, 0, len(exp.Sinks))
	for name := range exp.Sinks {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		want := exp.Sinks[name]
		got, ok := result.Sinks[name]
		if !ok {
			result.AddError(fmt.Sprintf("sinks[%s]: not a sink", name))
			continue
		}
		if !approxEqual(want, got) {
			result.AddError(fmt.Sprintf("sinks[%s]: expected %g, got %g", name, want, got))
		}
	}

	if exp.CycleHits != nil && *exp.CycleHits != result.CycleHits {
		result.AddError(fmt.Sprintf("cycle_hits: expected %d, got %d", *exp.CycleHits, result.CycleHits))
	}
	if exp.Status != "" && exp.Status != result.Status {
		result.AddError(fmt.Sprintf("status: expected %s, got %s", exp.Status, result.Status))
	}
	if exp.Budget != nil && !approxEqual(*exp.Budget, result.Budget) {
		result.AddError(fmt.Sprintf("budget: expected %g, got %g", *exp.Budget, result.Budget))
	}
}

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) <= Tolerance
}
