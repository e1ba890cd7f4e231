package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTrace() []TraceEvent {
	return []TraceEvent{
		{Type: TraceResolve, Node: "src", Kind: "source", Output: floatPtr(10), Seq: 1},
		{Type: TraceResolve, Node: "a", Kind: "aggregate", Output: floatPtr(10), Seq: 2},
		{Type: TraceResolve, Node: "out", Kind: "sink", Output: floatPtr(10), Seq: 3},
		{Type: TraceCycle, Node: "a", Target: "a", Seq: 4},
	}
}

func TestAssertResolutionOrder(t *testing.T) {
	trace := sampleTrace()

	assert.NoError(t, assertResolutionOrder(trace, Assertion{Nodes: []string{"src", "out"}}))

	err := assertResolutionOrder(trace, Assertion{Nodes: []string{"out", "src"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out (pos 3) should be before src (pos 1)")

	err = assertResolutionOrder(trace, Assertion{Nodes: []string{"src", "ghost"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing node: ghost")
}

func TestAssertCycleHit(t *testing.T) {
	trace := sampleTrace()

	assert.NoError(t, assertCycleHit(trace, Assertion{Node: "a", Via: "a"}))
	assert.Error(t, assertCycleHit(trace, Assertion{Node: "a", Via: "src"}))
}

func TestAssertionError_IncludesResolutionTrace(t *testing.T) {
	err := &AssertionError{Type: AssertOutput, Expected: "x", Actual: "y", Trace: sampleTrace()}

	msg := err.Error()
	assert.Contains(t, msg, "Assertion failed: output")
	assert.Contains(t, msg, "[2] a (aggregate) = 10")
	assert.NotContains(t, msg, "cycle")
}

func TestRunAssertion_Output(t *testing.T) {
	result := NewResult()
	result.Outputs["a"] = 10

	assert.NoError(t, runAssertion(result, Assertion{Type: AssertOutput, Node: "a", Value: floatPtr(10)}))

	err := runAssertion(result, Assertion{Type: AssertOutput, Node: "a", Value: floatPtr(11)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "a = 10")

	assert.NoError(t, runAssertion(result, Assertion{Type: AssertUnreached, Node: "b"}))
}
