package level

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/bigflow/internal/engine"
	"github.com/roach88/bigflow/internal/graph"
	"github.com/roach88/bigflow/internal/ir"
)

// ErrInsufficientBudget is returned when an action costs more than the
// remaining budget. Nothing is changed.
var ErrInsufficientBudget = errors.New("insufficient budget")

// Status is the objective state of a session.
type Status int

const (
	StatusActive Status = iota
	StatusWon
	StatusLost
)

func (s Status) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusWon:
		return "won"
	case StatusLost:
		return "lost"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Session is one play-through of a level.
//
// Not safe for concurrent use: like the store it wraps, a session expects a
// single driving goroutine.
type Session struct {
	def       *Definition
	store     *graph.Store
	layout    *Layout
	evaluator *engine.Evaluator
	effects   effects
	remaining float64
	budget    float64
	status    Status
	logger    *slog.Logger
}

// SessionOption configures a Session.
type SessionOption func(*sessionConfig)

type sessionConfig struct {
	logger     *slog.Logger
	observers []graph.Observer
}

// WithLogger sets the logger used by the session, its store and evaluator.
// Default: slog.Default()
func WithLogger(logger *slog.Logger) SessionOption {
	return func(c *sessionConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithObserver subscribes fn to the session's store before the level is
// built, so it also sees the definition's own connections.
func WithObserver(fn graph.Observer) SessionOption {
	return func(c *sessionConfig) {
		c.observers = append(c.observers, fn)
	}
}

// NewSession builds def into a fresh store and starts the clock and budget
// at the definition's limits.
func NewSession(def *Definition, opts ...SessionOption) (*Session, error) {
	cfg := sessionConfig{logger: slog.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}

	store := graph.New(graph.WithLogger(cfg.logger))
	for _, fn := range cfg.observers {
		store.Subscribe(fn)
	}
	layout, err := Build(def, store)
	if err != nil {
		return nil, err
	}

	s := &Session{
		def:       def,
		store:     store,
		layout:    layout,
		effects:   make(effects),
		remaining: def.TimeLimit,
		budget:    def.InitialBudget,
		logger:    cfg.logger.With("level_name", def.Name),
	}

	s.evaluator = engine.New(store, engine.WithLogger(cfg.logger), engine.WithAdjuster(s.effects))

	s.logger.Info("level started",
		"nodes", store.Len(),
		"edges", store.EdgeCount(),
		"time_limit", def.TimeLimit,
		"budget", def.InitialBudget,
	)
	for _, n := range def.Nodes {
		if !n.Kind.Known() {
			s.logger.Warn("unknown node kind, evaluating as pass-through", "node", n.Name, "kind", string(n.Kind))
		}
	}
	return s, nil
}

// Definition returns the level being played.
func (s *Session) Definition() *Definition { return s.def }

// Store returns the session's graph. Mutations made directly on it bypass
// budget accounting.
func (s *Session) Store() *graph.Store { return s.store }

// Layout returns the name mapping of the definition's nodes.
func (s *Session) Layout() *Layout { return s.layout }

// Remaining returns the time left, in seconds. It may be negative.
func (s *Session) Remaining() float64 { return s.remaining }

// Budget returns the unspent budget.
func (s *Session) Budget() float64 { return s.budget }

// Status returns the status from the last Check.
func (s *Session) Status() Status { return s.status }

// Tick advances the level clock by elapsed seconds. Ticks after the session
// has finished are ignored.
func (s *Session) Tick(elapsed float64) {
	if s.status != StatusActive {
		return
	}
	s.remaining -= elapsed
}

// Evaluate runs the evaluator with the session's active effects.
func (s *Session) Evaluate() *engine.Result {
	return s.evaluator.Evaluate()
}

// Flow returns the total flow currently delivered to sinks.
func (s *Session) Flow() float64 {
	return s.evaluator.CalculateFlow()
}

// Check updates and returns the objective status. Running out of time is
// checked first, so reaching the target on the final tick still loses.
func (s *Session) Check() Status {
	if s.status != StatusActive {
		return s.status
	}

	if s.remaining <= 0 {
		s.finish(StatusLost, 0)
		return s.status
	}

	if flow := s.Flow(); flow >= s.def.TargetFlow {
		s.finish(StatusWon, flow)
	}
	return s.status
}

func (s *Session) finish(status Status, flow float64) {
	s.status = status
	s.logger.Info("level finished",
		"status", status.String(),
		"total_flow", flow,
		"time_remaining", s.remaining,
		"budget", s.budget,
	)
}

// Spend deducts amount when the budget covers it and reports whether it did.
// Negative amounts are refused.
func (s *Session) Spend(amount float64) bool {
	if amount < 0 || amount > s.budget {
		return false
	}
	s.budget -= amount
	return true
}

// Connect wires from to to, charging the level's connection cost.
// The budget is checked before the store is touched and charged only when
// the connection succeeds.
func (s *Session) Connect(from, to ir.NodeID) error {
	cost := s.def.ConnectionCost
	if cost > s.budget {
		s.logger.Warn("connection refused",
			"from_id", int(from),
			"to_id", int(to),
			"cost", cost,
			"budget", s.budget,
		)
		return fmt.Errorf("connect %d -> %d costs %g, budget %g: %w", from, to, cost, s.budget, ErrInsufficientBudget)
	}

	if err := s.store.Connect(from, to); err != nil {
		return err
	}
	s.budget -= cost
	return nil
}

// ConnectNames is Connect addressed by definition names.
func (s *Session) ConnectNames(from, to string) error {
	fromID, ok := s.layout.ID(from)
	if !ok {
		return &ValidationError{Field: "from", Message: fmt.Sprintf("unknown node %q", from)}
	}
	toID, ok := s.layout.ID(to)
	if !ok {
		return &ValidationError{Field: "to", Message: fmt.Sprintf("unknown node %q", to)}
	}
	return s.Connect(fromID, toID)
}
