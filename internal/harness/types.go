package harness

// Trace event types.
const (
	TraceConnect = "connect"
	TraceFailure = "failure"
	TracePowerUp = "power_up"
	TraceResolve = "resolve"
	TraceCycle   = "cycle"
	TraceTotal   = "total"
)

// TraceEvent is one step of a scenario run.
//
// Setup steps (connect, failure, power_up) come first in the order they
// were applied, then every resolution in completion order, then cycle hits
// in encounter order, then the total.
type TraceEvent struct {
	Type   string   `json:"type"`
	Node   string   `json:"node,omitempty"`
	Target string   `json:"target,omitempty"` // connect: destination; cycle: the node whose input was cut
	Kind   string   `json:"kind,omitempty"`   // resolve: node kind; power_up: power-up kind
	Output *float64 `json:"output,omitempty"` // resolve and total
	Seq    int64    `json:"seq"`
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every expectation and assertion held.
	Pass bool `json:"pass"`

	// EvaluationID is the id stamped on this run.
	EvaluationID string `json:"evaluation_id"`

	// Trace lists the run's steps; see TraceEvent.
	Trace []TraceEvent `json:"trace"`

	// Errors lists failed expectations and assertions. Empty if Pass.
	Errors []string `json:"errors,omitempty"`

	Total     float64            `json:"total"`
	Sinks     map[string]float64 `json:"sinks"`
	Outputs   map[string]float64 `json:"outputs"`
	CycleHits int                `json:"cycle_hits"`
	Status    string             `json:"status"`
	Budget    float64            `json:"budget"`
}

// NewResult creates a passing result with empty collections.
func NewResult() *Result {
	return &Result{
		Pass:    true,
		Trace:   []TraceEvent{},
		Errors:  []string{},
		Sinks:   make(map[string]float64),
		Outputs: make(map[string]float64),
	}
}

// AddError records a failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

func (r *Result) addTrace(ev TraceEvent) {
	r.Trace = append(r.Trace, ev)
}

func floatPtr(v float64) *float64 {
	return &v
}
