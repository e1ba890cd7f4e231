package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/bigflow/internal/level"
)

// Scenario defines a flow conformance scenario: a level, optional events
// applied before evaluation, and the expected outcome.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Level is the path to a .yaml, .yml or .cue level file.
	// Relative paths are resolved against the scenario file's directory.
	Level string `yaml:"level"`

	// Connections are extra wires made through the session (and charged to
	// its budget) before evaluation, in order.
	Connections []Wire `yaml:"connections,omitempty"`

	// Events are failures and power-ups applied before evaluation, in order.
	Events []Event `yaml:"events,omitempty"`

	// Elapsed advances the level clock before the status check, in seconds.
	Elapsed float64 `yaml:"elapsed,omitempty"`

	// Expect is the expected outcome. Omitted fields are not checked.
	Expect Expect `yaml:"expect"`

	// Assertions are additional checks on the evaluation trace.
	Assertions []Assertion `yaml:"assertions,omitempty"`

	// EvaluationID pins the id recorded in the trace.
	// Defaults to DefaultEvaluationID.
	EvaluationID string `yaml:"evaluation_id,omitempty"`

	// dir is the scenario file's directory, for resolving Level.
	dir string
}

// Wire names one connection by node name.
type Wire struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// Event is one failure or power-up.
type Event struct {
	// Type is "failure" or "power_up".
	Type string `yaml:"type"`

	// Node is the target node's name.
	Node string `yaml:"node"`

	// PowerUp is the power-up kind (used by power_up).
	PowerUp string `yaml:"power_up,omitempty"`
}

// Event type constants.
const (
	EventFailure = "failure"
	EventPowerUp = "power_up"
)

// Expect lists expected evaluation results.
type Expect struct {
	Total     *float64           `yaml:"total,omitempty"`
	Sinks     map[string]float64 `yaml:"sinks,omitempty"`
	CycleHits *int               `yaml:"cycle_hits,omitempty"`
	Status    string             `yaml:"status,omitempty"`
	Budget    *float64           `yaml:"budget,omitempty"`
}

// Tolerance is the absolute difference allowed between expected and
// actual flow values.
const Tolerance = 1e-9

// LevelPath returns the level path resolved against the scenario directory.
func (s *Scenario) LevelPath() string {
	if filepath.IsAbs(s.Level) || s.dir == "" {
		return s.Level
	}
	return filepath.Join(s.dir, s.Level)
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed, contains unknown
// fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}
	scenario.dir = filepath.Dir(path)

	if _, err := os.Stat(scenario.LevelPath()); err != nil {
		return nil, fmt.Errorf("invalid scenario: level file not found: %s", scenario.LevelPath())
	}
	return scenario, nil
}

// ParseScenario decodes scenario YAML with strict field checking.
// The level path is left unresolved.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Level == "" {
		return fmt.Errorf("level is required")
	}
	if s.Elapsed < 0 {
		return fmt.Errorf("elapsed must not be negative")
	}

	for i, w := range s.Connections {
		if w.From == "" || w.To == "" {
			return fmt.Errorf("connections[%d]: from and to are required", i)
		}
	}

	for i, ev := range s.Events {
		if ev.Node == "" {
			return fmt.Errorf("events[%d]: node is required", i)
		}
		switch ev.Type {
		case EventFailure:
		case EventPowerUp:
			if ev.PowerUp == "" {
				return fmt.Errorf("events[%d]: power_up is required for power_up events", i)
			}
		default:
			return fmt.Errorf("events[%d]: unknown event type %q", i, ev.Type)
		}
	}

	switch s.Expect.Status {
	case "", level.StatusActive.String(), level.StatusWon.String(), level.StatusLost.String():
	default:
		return fmt.Errorf("expect.status: unknown status %q", s.Expect.Status)
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}
	return nil
}
