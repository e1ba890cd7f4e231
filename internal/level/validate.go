package level

import (
	"errors"
	"fmt"

	"github.com/roach88/bigflow/internal/graph"
)

// ValidationError describes one problem with a definition.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks a definition and returns every problem found, joined.
//
// Duplicate node names are reported as *graph.DuplicateRegistrationError so
// callers can use graph.IsDuplicateRegistration. Unknown kinds are accepted
// and evaluate as pass-through; node parameters are not range checked.
func (d *Definition) Validate() error {
	var errs []error

	if d.Name == "" {
		errs = append(errs, &ValidationError{Field: "name", Message: "name is required"})
	}

	for _, f := range []struct {
		field string
		value float64
	}{
		{"target_flow", d.TargetFlow},
		{"time_limit", d.TimeLimit},
		{"initial_budget", d.InitialBudget},
		{"connection_cost", d.ConnectionCost},
	} {
		if f.value < 0 {
			errs = append(errs, &ValidationError{Field: f.field, Message: fmt.Sprintf("must not be negative, got %g", f.value)})
		}
	}

	seen := make(map[string]bool, len(d.Nodes))
	for i, n := range d.Nodes {
		field := fmt.Sprintf("nodes[%d]", i)
		switch {
		case n.Name == "":
			errs = append(errs, &ValidationError{Field: field + ".name", Message: "name is required"})
		case seen[n.Name]:
			errs = append(errs, fmt.Errorf("%s: %w", field, &graph.DuplicateRegistrationError{Name: n.Name}))
		default:
			seen[n.Name] = true
		}
		if n.Kind == "" {
			errs = append(errs, &ValidationError{Field: field + ".kind", Message: "kind is required"})
		}
	}

	for i, c := range d.Connections {
		field := fmt.Sprintf("connections[%d]", i)
		if !seen[c.From] {
			errs = append(errs, &ValidationError{Field: field + ".from", Message: fmt.Sprintf("unknown node %q", c.From)})
		}
		if !seen[c.To] {
			errs = append(errs, &ValidationError{Field: field + ".to", Message: fmt.Sprintf("unknown node %q", c.To)})
		}
	}

	return errors.Join(errs...)
}
