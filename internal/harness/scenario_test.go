package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadScenario_ResolvesLevelPath(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/turbo_wins.yaml")
	require.NoError(t, err)

	assert.Equal(t, "turbo_wins", s.Name)
	assert.Equal(t, filepath.Join("testdata", "levels", "starter.yaml"), s.LevelPath())
	assert.Equal(t, []Wire{{From: "backup", To: "merge"}}, s.Connections)
	assert.Equal(t, []Event{{Type: EventPowerUp, Node: "clean", PowerUp: "turbo"}}, s.Events)
	require.NotNil(t, s.Expect.Total)
	assert.Equal(t, 42.0, *s.Expect.Total)
	assert.Equal(t, map[string]float64{"warehouse": 42}, s.Expect.Sinks)
}

func TestLoadScenario_MissingLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
name: x
description: x
level: nowhere.yaml
`), 0o644))

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "level file not found")
}

func TestParseScenario_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"unknown field", "name: x\ndescription: x\nlevel: l.yaml\nexpect: {totl: 1}\n", "failed to parse YAML"},
		{"missing name", "description: x\nlevel: l.yaml\n", "name is required"},
		{"missing description", "name: x\nlevel: l.yaml\n", "description is required"},
		{"missing level", "name: x\ndescription: x\n", "level is required"},
		{"negative elapsed", "name: x\ndescription: x\nlevel: l.yaml\nelapsed: -1\n", "elapsed must not be negative"},
		{"bad event type", "name: x\ndescription: x\nlevel: l.yaml\nevents: [{type: meteor, node: a}]\n", `unknown event type "meteor"`},
		{"power_up without kind", "name: x\ndescription: x\nlevel: l.yaml\nevents: [{type: power_up, node: a}]\n", "power_up is required"},
		{"event without node", "name: x\ndescription: x\nlevel: l.yaml\nevents: [{type: failure}]\n", "node is required"},
		{"half wire", "name: x\ndescription: x\nlevel: l.yaml\nconnections: [{from: a}]\n", "from and to are required"},
		{"bad status", "name: x\ndescription: x\nlevel: l.yaml\nexpect: {status: paused}\n", `unknown status "paused"`},
		{"bad assertion", "name: x\ndescription: x\nlevel: l.yaml\nassertions: [{type: vibes}]\n", `unknown assertion type "vibes"`},
		{"short order", "name: x\ndescription: x\nlevel: l.yaml\nassertions: [{type: resolution_order, nodes: [a]}]\n", "at least two nodes"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
