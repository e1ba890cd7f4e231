package level

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/bigflow/internal/graph"
	"github.com/roach88/bigflow/internal/ir"
)

func newStarter(t *testing.T, opts ...SessionOption) *Session {
	t.Helper()
	def, err := Load("testdata/starter.yaml")
	require.NoError(t, err)
	s, err := NewSession(def, opts...)
	require.NoError(t, err)
	return s
}

func id(t *testing.T, s *Session, name string) ir.NodeID {
	t.Helper()
	v, ok := s.Layout().ID(name)
	require.True(t, ok, "node %q", name)
	return v
}

func TestSession_Start(t *testing.T) {
	s := newStarter(t)

	assert.Equal(t, 60.0, s.Remaining())
	assert.Equal(t, 100.0, s.Budget())
	assert.Equal(t, StatusActive, s.Status())
	assert.InDelta(t, 16.0, s.Flow(), 1e-9)
	assert.Equal(t, StatusActive, s.Check())
}

func TestSession_ConnectChargesCost(t *testing.T) {
	s := newStarter(t)

	require.NoError(t, s.ConnectNames("backup", "merge"))

	assert.Equal(t, 75.0, s.Budget())
	assert.InDelta(t, 26.0, s.Flow(), 1e-9)
}

func TestSession_ObserverSeesBuildConnections(t *testing.T) {
	var seen []string
	s := newStarter(t, WithObserver(func(from, to ir.Node) {
		seen = append(seen, from.Label+"->"+to.Label)
	}))

	require.NoError(t, s.ConnectNames("backup", "merge"))
	assert.Equal(t, []string{
		"ingest->clean",
		"clean->merge",
		"merge->warehouse",
		"backup->merge",
	}, seen)
}

func TestSession_ConnectInsufficientBudget(t *testing.T) {
	s := newStarter(t)
	require.True(t, s.Spend(90))
	edges := s.Store().EdgeCount()

	err := s.Connect(id(t, s, "backup"), id(t, s, "merge"))

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInsufficientBudget))
	assert.Equal(t, 10.0, s.Budget())
	assert.Equal(t, edges, s.Store().EdgeCount())
}

func TestSession_ConnectUnknownNodeIsFree(t *testing.T) {
	s := newStarter(t)

	err := s.Connect(id(t, s, "backup"), 99)

	require.Error(t, err)
	assert.True(t, graph.IsUnknownNode(err))
	assert.Equal(t, 100.0, s.Budget())
}

func TestSession_ConnectNamesUnknown(t *testing.T) {
	s := newStarter(t)

	err := s.ConnectNames("backup", "lake")

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "to", ve.Field)
}

func TestSession_Spend(t *testing.T) {
	s := newStarter(t)

	assert.True(t, s.Spend(40))
	assert.Equal(t, 60.0, s.Budget())
	assert.False(t, s.Spend(61))
	assert.False(t, s.Spend(-5))
	assert.True(t, s.Spend(60))
	assert.Equal(t, 0.0, s.Budget())
}

func TestSession_WinOnTarget(t *testing.T) {
	s := newStarter(t)
	require.NoError(t, s.ConnectNames("backup", "merge"))
	require.NoError(t, s.ApplyPowerUp(PowerUpTurbo, id(t, s, "clean")))

	assert.InDelta(t, 42.0, s.Flow(), 1e-9)
	assert.Equal(t, StatusWon, s.Check())

	// Finished sessions keep their status.
	s.Tick(1000)
	assert.Equal(t, StatusWon, s.Check())
	assert.Equal(t, 60.0, s.Remaining())
}

func TestSession_LossCheckedBeforeWin(t *testing.T) {
	s := newStarter(t)
	require.NoError(t, s.ApplyPowerUp(PowerUpTurbo, id(t, s, "clean")))
	require.GreaterOrEqual(t, s.Flow(), s.Definition().TargetFlow)

	s.Tick(60)

	assert.Equal(t, StatusLost, s.Check())
}

func TestSession_StaysActiveBelowTarget(t *testing.T) {
	s := newStarter(t)

	s.Tick(59.5)

	assert.Equal(t, StatusActive, s.Check())
	assert.InDelta(t, 0.5, s.Remaining(), 1e-9)
}

func TestSession_FailureHalvesOutput(t *testing.T) {
	s := newStarter(t)
	clean := id(t, s, "clean")

	require.NoError(t, s.TriggerFailure(clean))
	assert.InDelta(t, 8.0, s.Flow(), 1e-9)
	assert.Equal(t, 0.5, s.Factor(clean))

	require.NoError(t, s.TriggerFailure(clean))
	assert.InDelta(t, 4.0, s.Flow(), 1e-9)
}

func TestSession_EffectsStack(t *testing.T) {
	s := newStarter(t)
	clean := id(t, s, "clean")

	require.NoError(t, s.TriggerFailure(clean))
	require.NoError(t, s.ApplyPowerUp(PowerUpTurbo, clean))

	assert.Equal(t, 1.0, s.Factor(clean))
	assert.InDelta(t, 16.0, s.Flow(), 1e-9)
	assert.Equal(t, 1.0, s.Factor(id(t, s, "ingest")))
}

func TestSession_EventErrors(t *testing.T) {
	s := newStarter(t)

	err := s.ApplyPowerUp("swap-stream", id(t, s, "clean"))
	assert.True(t, errors.Is(err, ErrUnknownPowerUp))

	err = s.ApplyPowerUp(PowerUpTurbo, 42)
	assert.True(t, graph.IsUnknownNode(err))

	err = s.TriggerFailure(42)
	assert.True(t, graph.IsUnknownNode(err))

	assert.InDelta(t, 16.0, s.Flow(), 1e-9)
}

func TestSession_EvaluateReportsPerSink(t *testing.T) {
	s := newStarter(t)

	res := s.Evaluate()

	require.Len(t, res.Sinks, 1)
	assert.Equal(t, id(t, s, "warehouse"), res.Sinks[0].Node)
}

func TestSession_InvalidDefinition(t *testing.T) {
	def := validDefinition()
	def.Nodes = append(def.Nodes, def.Nodes[0])

	_, err := NewSession(def)
	require.Error(t, err)
	assert.True(t, graph.IsDuplicateRegistration(err))
}

func TestSession_LogsLifecycle(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	s := newStarter(t, WithLogger(logger))
	s.Tick(61)
	s.Check()

	out := buf.String()
	assert.Contains(t, out, "level started")
	assert.Contains(t, out, "level_name=starter")
	assert.Contains(t, out, "status=lost")
}

func TestSession_WarnsOnUnknownKind(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	def := &Definition{
		Name: "odd",
		Nodes: []NodeDef{
			{Name: "src", Kind: ir.KindSource, Params: ir.Params{GenerationRate: 4}},
			{Name: "mystery", Kind: "compressor"},
			{Name: "out", Kind: ir.KindSink},
		},
		Connections: []ConnectionDef{{From: "src", To: "mystery"}, {From: "mystery", To: "out"}},
	}
	s, err := NewSession(def, WithLogger(logger))
	require.NoError(t, err)

	assert.Equal(t, 4.0, s.Flow())
	assert.Contains(t, buf.String(), "level=WARN")
	assert.Contains(t, buf.String(), "node=mystery kind=compressor")
	assert.NotContains(t, buf.String(), "node=src")
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "active", StatusActive.String())
	assert.Equal(t, "won", StatusWon.String())
	assert.Equal(t, "lost", StatusLost.String())
	assert.Equal(t, "Status(9)", Status(9).String())
}
