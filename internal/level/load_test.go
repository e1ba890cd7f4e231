package level

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/bigflow/internal/ir"
)

func TestLoad_YAML(t *testing.T) {
	def, err := Load("testdata/starter.yaml")
	require.NoError(t, err)

	assert.Equal(t, "starter", def.Name)
	assert.Equal(t, 30.0, def.TargetFlow)
	assert.Equal(t, 60.0, def.TimeLimit)
	assert.Equal(t, 100.0, def.InitialBudget)
	assert.Equal(t, 25.0, def.ConnectionCost)
	require.Len(t, def.Nodes, 5)
	assert.Equal(t, NodeDef{Name: "ingest", Kind: ir.KindSource, Params: ir.Params{GenerationRate: 20}}, def.Nodes[0])
	assert.Equal(t, NodeDef{Name: "backup", Kind: ir.KindSource, Params: ir.Params{GenerationRate: 10}}, def.Nodes[1])
	assert.Equal(t, NodeDef{Name: "clean", Kind: ir.KindFilter, Params: ir.Params{Throughput: 0.8}}, def.Nodes[2])
	assert.Equal(t, []ConnectionDef{
		{From: "ingest", To: "clean"},
		{From: "clean", To: "merge"},
		{From: "merge", To: "warehouse"},
	}, def.Connections)
}

func TestLoad_CUEMatchesYAML(t *testing.T) {
	fromYAML, err := Load("testdata/starter.yaml")
	require.NoError(t, err)
	fromCUE, err := Load("testdata/starter.cue")
	require.NoError(t, err)

	assert.Equal(t, fromYAML, fromCUE)
}

func TestParseYAML_Defaults(t *testing.T) {
	def, err := ParseYAML([]byte(`
name: bare
nodes:
  - {name: s, kind: source}
  - {name: f, kind: filter}
  - {name: a, kind: aggregate, throughput: 3}
`))
	require.NoError(t, err)

	assert.Equal(t, DefaultTargetFlow, def.TargetFlow)
	assert.Equal(t, DefaultTimeLimit, def.TimeLimit)
	assert.Equal(t, DefaultInitialBudget, def.InitialBudget)
	assert.Equal(t, 0.0, def.ConnectionCost)
	assert.Equal(t, ir.Params{GenerationRate: 20}, def.Nodes[0].Params)
	assert.Equal(t, ir.Params{Throughput: 0.8}, def.Nodes[1].Params)
	assert.Equal(t, ir.Params{Throughput: 3}, def.Nodes[2].Params, "explicit values are kept on any kind")
	assert.Empty(t, def.Connections)
}

func TestParseYAML_ExplicitZeroIsKept(t *testing.T) {
	def, err := ParseYAML([]byte(`
name: zero
target_flow: 0
nodes:
  - {name: s, kind: source, generation_rate: 0}
`))
	require.NoError(t, err)

	assert.Equal(t, 0.0, def.TargetFlow)
	assert.Equal(t, 0.0, def.Nodes[0].Params.GenerationRate)
}

func TestParseYAML_RejectsUnknownFields(t *testing.T) {
	_, err := ParseYAML([]byte(`
name: typo
targetflow: 10
nodes: []
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestParseCUE_SchemaViolations(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"negative time limit", `name: "x", time_limit: -5, nodes: []`},
		{"empty node name", `name: "x", nodes: [{name: "", kind: "source"}]`},
		{"wrong type", `name: "x", target_flow: "lots", nodes: []`},
		{"syntax", `name: "x" nodes: [`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCUE([]byte(tt.src), "bad.cue")
			require.Error(t, err)
			var le *LoadError
			assert.ErrorAs(t, err, &le)
		})
	}
}

func TestParseCUE_UnknownKindAllowed(t *testing.T) {
	def, err := ParseCUE([]byte(`
name: "future"
nodes: [{name: "s", kind: "splitter"}]
`), "future.cue")
	require.NoError(t, err)

	assert.Equal(t, ir.Kind("splitter"), def.Nodes[0].Kind)
	assert.Equal(t, ir.Params{}, def.Nodes[0].Params)
}

func TestLoad_UnsupportedExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "level.json")
	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported level file extension")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_ValidatesAfterParsing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dup.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
name: dup
nodes:
  - {name: a, kind: source}
  - {name: a, kind: sink}
`), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid level")
}
