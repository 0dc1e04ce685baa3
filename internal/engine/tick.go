// Package engine provides the anytime search: turn schedule, repeat guard,
// shadow pricing, ranking, the tree walker and the loop that drives it.
package engine

import (
	"context"
	"log/slog"
	"time"
)

// Engine drives a walker forward one step at a time.
type Engine struct {
	Walker *Walker
	Budget int // Maximum steps; 0 runs until the walker terminates

	// Callbacks, set before Run.
	OnStep func(r StepResult, remaining int) // After every step
	OnBest func(s *Snapshot)                 // When a new best node is found
}

// Summary describes a finished run.
type Summary struct {
	Stats      Stats         `json:"stats"`
	Terminated bool          `json:"terminated"` // Search exhausted before the budget
	Elapsed    time.Duration `json:"elapsed"`
	Best       *Snapshot     `json:"-"`
}

// NewEngine creates an engine for w with the given step budget.
func NewEngine(w *Walker, budget int) *Engine {
	return &Engine{Walker: w, Budget: budget}
}

// Run steps the walker until it terminates, the budget is spent or ctx is
// cancelled. Cancellation is not an error: the best snapshot so far stands.
func (e *Engine) Run(ctx context.Context) (Summary, error) {
	start := time.Now()
	remaining := e.Budget
	slog.Debug("search started", "budget", e.Budget, "max_depth", e.Walker.Schedule().MaxDepth())

	for e.Budget == 0 || remaining > 0 {
		if err := ctx.Err(); err != nil {
			slog.Info("search cancelled", "steps", e.Walker.Stats().Steps)
			break
		}
		remaining--

		res, err := e.Walker.Step()
		if err != nil {
			return e.summary(start), err
		}
		if e.OnStep != nil {
			e.OnStep(res, remaining)
		}
		if res.NewBest && e.OnBest != nil {
			e.OnBest(e.Walker.Best())
		}
		if res.State == StateTerminated {
			break
		}
	}

	sum := e.summary(start)
	slog.Debug("search stopped", "steps", sum.Stats.Steps, "terminated", sum.Terminated, "elapsed", sum.Elapsed)
	return sum, nil
}

func (e *Engine) summary(start time.Time) Summary {
	return Summary{
		Stats:      e.Walker.Stats(),
		Terminated: e.Walker.Terminated(),
		Elapsed:    time.Since(start),
		Best:       e.Walker.Best(),
	}
}
