package harness

import (
	"fmt"
	"strings"
)

// Assertion validates a property of the evaluation trace.
type Assertion struct {
	// Type specifies the assertion type:
	// - "output": Node resolved to Value
	// - "resolution_order": Nodes completed resolution in this relative order
	// - "unreached": Node was never resolved
	// - "cycle_hit": Node was short-circuited while resolving Via
	Type string `yaml:"type"`

	// Node is the node name (output, unreached, cycle_hit).
	Node string `yaml:"node,omitempty"`

	// Via is the node whose input was cut (cycle_hit).
	Via string `yaml:"via,omitempty"`

	// Value is the expected output (output).
	Value *float64 `yaml:"value,omitempty"`

	// Nodes is the expected relative order (resolution_order).
	Nodes []string `yaml:"nodes,omitempty"`
}

// Assertion type constants.
const (
	AssertOutput          = "output"
	AssertResolutionOrder = "resolution_order"
	AssertUnreached       = "unreached"
	AssertCycleHit        = "cycle_hit"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Trace    []TraceEvent
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nResolution trace:\n")
	for _, ev := range e.Trace {
		if ev.Type == TraceResolve {
			fmt.Fprintf(&buf, "  [%d] %s (%s) = %g\n", ev.Seq, ev.Node, ev.Kind, *ev.Output)
		}
	}
	return buf.String()
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertOutput:
		if a.Node == "" || a.Value == nil {
			return fmt.Errorf("assertions[%d]: node and value are required for output", index)
		}
	case AssertResolutionOrder:
		if len(a.Nodes) < 2 {
			return fmt.Errorf("assertions[%d]: at least two nodes are required for resolution_order", index)
		}
	case AssertUnreached:
		if a.Node == "" {
			return fmt.Errorf("assertions[%d]: node is required for unreached", index)
		}
	case AssertCycleHit:
		if a.Node == "" || a.Via == "" {
			return fmt.Errorf("assertions[%d]: node and via are required for cycle_hit", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}

func runAssertion(result *Result, a Assertion) error {
	switch a.Type {
	case AssertOutput:
		return assertOutput(result, a)
	case AssertResolutionOrder:
		return assertResolutionOrder(result.Trace, a)
	case AssertUnreached:
		return assertUnreached(result, a)
	case AssertCycleHit:
		return assertCycleHit(result.Trace, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

func assertOutput(result *Result, a Assertion) error {
	got, ok := result.Outputs[a.Node]
	if !ok {
		return &AssertionError{
			Type:     AssertOutput,
			Expected: fmt.Sprintf("%s = %g", a.Node, *a.Value),
			Actual:   "node was not resolved",
			Trace:    result.Trace,
		}
	}
	if !approxEqual(*a.Value, got) {
		return &AssertionError{
			Type:     AssertOutput,
			Expected: fmt.Sprintf("%s = %g", a.Node, *a.Value),
			Actual:   fmt.Sprintf("%s = %g", a.Node, got),
			Trace:    result.Trace,
		}
	}
	return nil
}

// assertResolutionOrder checks that nodes completed in the given relative
// order. Other resolutions may be interleaved.
func assertResolutionOrder(trace []TraceEvent, a Assertion) error {
	positions := make(map[string]int)
	for i, ev := range trace {
		if ev.Type == TraceResolve {
			positions[ev.Node] = i + 1
		}
	}

	for _, node := range a.Nodes {
		if positions[node] == 0 {
			return &AssertionError{
				Type:     AssertResolutionOrder,
				Expected: fmt.Sprintf("all nodes resolved: %v", a.Nodes),
				Actual:   fmt.Sprintf("missing node: %s", node),
				Trace:    trace,
			}
		}
	}

	for i := 1; i < len(a.Nodes); i++ {
		prev, curr := a.Nodes[i-1], a.Nodes[i]
		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     AssertResolutionOrder,
				Expected: fmt.Sprintf("nodes in order: %v", a.Nodes),
				Actual: fmt.Sprintf("%s (pos %d) should be before %s (pos %d)",
					prev, positions[prev], curr, positions[curr]),
				Trace: trace,
			}
		}
	}
	return nil
}

func assertUnreached(result *Result, a Assertion) error {
	if got, ok := result.Outputs[a.Node]; ok {
		return &AssertionError{
			Type:     AssertUnreached,
			Expected: fmt.Sprintf("%s never resolved", a.Node),
			Actual:   fmt.Sprintf("%s resolved to %g", a.Node, got),
			Trace:    result.Trace,
		}
	}
	return nil
}

func assertCycleHit(trace []TraceEvent, a Assertion) error {
	for _, ev := range trace {
		if ev.Type == TraceCycle && ev.Node == a.Node && ev.Target == a.Via {
			return nil
		}
	}
	return &AssertionError{
		Type:     AssertCycleHit,
		Expected: fmt.Sprintf("cycle hit on %s while resolving %s", a.Node, a.Via),
		Actual:   "not found in trace",
		Trace:    trace,
	}
}
