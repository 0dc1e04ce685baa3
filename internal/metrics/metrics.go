// Package metrics exposes search progress as Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/talgya/tradesim/internal/engine"
)

const namespace = "tradesim"

// Metrics holds the planner's collectors on their own registry.
type Metrics struct {
	Registry *prometheus.Registry

	steps          *prometheus.CounterVec
	commits        *prometheus.CounterVec
	runs           *prometheus.CounterVec
	bestUtility    *prometheus.GaugeVec
	currentUtility *prometheus.GaugeVec
	currentDepth   *prometheus.GaugeVec
	runDuration    prometheus.Histogram
}

// New registers every collector on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		// Labels: state (at_node, backtracking, terminated)
		steps: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "steps_total",
			Help:      "Walker transitions by resulting state",
		}, []string{"state"}),

		// Labels: kind (Create, Transfer)
		commits: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "commits_total",
			Help:      "Committed actions by kind",
		}, []string{"kind"}),

		// Labels: outcome (terminated, budget, error)
		runs: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Finished runs by outcome",
		}, []string{"outcome"}),

		bestUtility: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "best_global_utility",
			Help:      "Global utility of the best node found so far",
		}, []string{"run"}),

		currentUtility: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "current_global_utility",
			Help:      "Global utility at the walker's current node",
		}, []string{"run"}),

		currentDepth: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "current_depth",
			Help:      "Depth of the walker's current node",
		}, []string{"run"}),

		runDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of finished runs",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
		}),
	}
}

// ObserveStep records one walker transition for run.
func (m *Metrics) ObserveStep(run string, r engine.StepResult) {
	m.steps.WithLabelValues(r.State.String()).Inc()
	if r.Committed != nil {
		m.commits.WithLabelValues(r.Committed.Action.Kind().String()).Inc()
	}
	if r.State != engine.StateTerminated {
		m.currentUtility.WithLabelValues(run).Set(r.GlobalUtility)
		m.currentDepth.WithLabelValues(run).Set(float64(r.Depth))
	}
}

// ObserveBest records a new best node for run.
func (m *Metrics) ObserveBest(run string, s *engine.Snapshot) {
	m.bestUtility.WithLabelValues(run).Set(s.GlobalUtility)
}

// ObserveRun records a finished run. A nil err with a non-terminated
// summary means the budget ran out or the run was cancelled.
func (m *Metrics) ObserveRun(sum engine.Summary, err error) {
	outcome := "budget"
	switch {
	case err != nil:
		outcome = "error"
	case sum.Terminated:
		outcome = "terminated"
	}
	m.runs.WithLabelValues(outcome).Inc()
	m.runDuration.Observe(sum.Elapsed.Seconds())
}
