package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/talgya/tradesim/internal/economy"
	"github.com/talgya/tradesim/internal/engine"
)

func TestObserveStep(t *testing.T) {
	m := New()

	m.ObserveStep("r1", engine.StepResult{
		State:         engine.StateAtNode,
		Depth:         3,
		GlobalUtility: 2.5,
		Committed:     &engine.Step{Action: economy.Create{Agent: "A", Template: "T", Multiplier: 1}},
	})
	m.ObserveStep("r1", engine.StepResult{State: engine.StateBacktracking, Depth: 2, GlobalUtility: 2.5})
	m.ObserveStep("r1", engine.StepResult{State: engine.StateTerminated})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.steps.WithLabelValues("at_node")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.steps.WithLabelValues("backtracking")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.steps.WithLabelValues("terminated")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.commits.WithLabelValues("Create")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.currentDepth.WithLabelValues("r1")))
	assert.Equal(t, 2.5, testutil.ToFloat64(m.currentUtility.WithLabelValues("r1")))
}

func TestObserveBestAndRun(t *testing.T) {
	m := New()
	m.ObserveBest("r1", &engine.Snapshot{GlobalUtility: 4})
	assert.Equal(t, 4.0, testutil.ToFloat64(m.bestUtility.WithLabelValues("r1")))

	m.ObserveRun(engine.Summary{Terminated: true, Elapsed: time.Second}, nil)
	m.ObserveRun(engine.Summary{}, nil)
	m.ObserveRun(engine.Summary{}, errors.New("boom"))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("terminated")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("budget")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("error")))

	n, err := testutil.GatherAndCount(m.Registry, "tradesim_run_duration_seconds")
	assert.NoError(t, err)
	assert.Equal(t, 1, n)
}
