// Package metrics exposes Prometheus collectors for graph construction and
// flow evaluation.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/roach88/bigflow/internal/engine"
	"github.com/roach88/bigflow/internal/ir"
)

const namespace = "bigflow"

// Metrics holds the bigflow collectors registered on one registry.
type Metrics struct {
	registry    *prometheus.Registry
	evaluations prometheus.Counter
	connections *prometheus.CounterVec
	cycleHits   prometheus.Counter
	lastTotal   prometheus.Gauge
	resolutions prometheus.Histogram
}

// New creates the collectors and registers them on reg.
// A nil reg gets a fresh registry.
func New(reg *prometheus.Registry) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	m := &Metrics{
		registry: reg,
		evaluations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evaluations_total",
			Help:      "Flow evaluations performed.",
		}),
		connections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connections_total",
			Help:      "Connections committed, by source and target kind.",
		}, []string{"from_kind", "to_kind"}),
		cycleHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycle_hits_total",
			Help:      "Resolutions short-circuited by a cycle.",
		}),
		lastTotal: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_total_flow",
			Help:      "Total flow delivered to sinks by the most recent evaluation.",
		}),
		resolutions: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "evaluation_resolutions",
			Help:      "Non-memoized node resolutions per evaluation.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}),
	}

	for _, c := range []prometheus.Collector{
		m.evaluations,
		m.connections,
		m.cycleHits,
		m.lastTotal,
		m.resolutions,
	} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
	}
	return m, nil
}

// ObserveConnection counts a committed connection.
// Its signature matches graph.Observer so it can be subscribed directly.
func (m *Metrics) ObserveConnection(from, to ir.Node) {
	m.connections.WithLabelValues(string(from.Kind), string(to.Kind)).Inc()
}

// ObserveEvaluation records one evaluation result.
func (m *Metrics) ObserveEvaluation(res *engine.Result) {
	m.evaluations.Inc()
	m.cycleHits.Add(float64(len(res.CycleHits)))
	m.lastTotal.Set(res.Total)
	m.resolutions.Observe(float64(res.Resolutions))
}

// WriteTextfile writes the registry in the text exposition format, for the
// node_exporter textfile collector. The file is replaced atomically.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
