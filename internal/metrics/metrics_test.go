package metrics

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/bigflow/internal/engine"
	"github.com/roach88/bigflow/internal/graph"
	"github.com/roach88/bigflow/internal/ir"
)

func TestObserveConnection_AsObserver(t *testing.T) {
	m, err := New(nil)
	require.NoError(t, err)

	s := graph.New()
	s.Subscribe(m.ObserveConnection)
	src := s.RegisterNode(ir.KindSource, ir.Params{GenerationRate: 5})
	out := s.RegisterNode(ir.KindSink, ir.Params{})
	require.NoError(t, s.Connect(src, out))
	require.NoError(t, s.Connect(src, out))
	require.Error(t, s.Connect(src, 99))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.connections.WithLabelValues("source", "sink")))
}

func TestObserveEvaluation(t *testing.T) {
	m, err := New(nil)
	require.NoError(t, err)

	s := graph.New()
	src := s.RegisterNode(ir.KindSource, ir.Params{GenerationRate: 5})
	a := s.RegisterNode(ir.KindAggregate, ir.Params{})
	out := s.RegisterNode(ir.KindSink, ir.Params{})
	require.NoError(t, s.Connect(src, a))
	require.NoError(t, s.Connect(a, a))
	require.NoError(t, s.Connect(a, out))

	res := engine.New(s).Evaluate()
	m.ObserveEvaluation(res)
	m.ObserveEvaluation(res)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.evaluations))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.cycleHits))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.lastTotal))
	assert.Equal(t, 1, testutil.CollectAndCount(m.resolutions))
}

func TestNew_DuplicateRegistrationFails(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := New(reg)
	require.NoError(t, err)

	_, err = New(reg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "register metrics")
}

func TestWriteTextfile(t *testing.T) {
	m, err := New(nil)
	require.NoError(t, err)
	m.ObserveEvaluation(&engine.Result{Total: 12, Resolutions: 4})

	path := filepath.Join(t.TempDir(), "bigflow.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "bigflow_evaluations_total 1")
	assert.Contains(t, string(data), "bigflow_last_total_flow 12")
	assert.Contains(t, string(data), "bigflow_evaluation_resolutions_count 1")
}
