package api

import (
	"sort"
	"sync"
	"time"

	"github.com/talgya/tradesim/internal/engine"
)

// RunStatus is the live view of one run.
type RunStatus struct {
	RunID         string    `json:"run_id"`
	Seed          int64     `json:"seed"`
	State         string    `json:"state"`
	Steps         int       `json:"steps"`
	Commits       int       `json:"commits"`
	Backtracks    int       `json:"backtracks"`
	Remaining     int       `json:"remaining"`
	Depth         int       `json:"depth"`
	GlobalUtility float64   `json:"global_utility"`
	BestUtility   float64   `json:"best_utility"`
	BestDepth     int       `json:"best_depth"`
	Done          bool      `json:"done"`
	Error         string    `json:"error,omitempty"`
	StartedAt     time.Time `json:"started_at"`
}

// Progress collects walker progress for the status API. Walkers publish
// from their own goroutines; readers get copies.
type Progress struct {
	mu    sync.RWMutex
	runs  map[string]*RunStatus
	paths map[string][]engine.Transaction
	order []string
}

// NewProgress creates an empty tracker.
func NewProgress() *Progress {
	return &Progress{
		runs:  make(map[string]*RunStatus),
		paths: make(map[string][]engine.Transaction),
	}
}

// Start registers a run.
func (p *Progress) Start(runID string, seed int64, initialUtility float64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.runs[runID]; !ok {
		p.order = append(p.order, runID)
	}
	p.runs[runID] = &RunStatus{
		RunID:         runID,
		Seed:          seed,
		State:         engine.StateAtNode.String(),
		Depth:         1,
		GlobalUtility: initialUtility,
		BestUtility:   initialUtility,
		StartedAt:     time.Now(),
	}
}

// Step records one walker transition.
func (p *Progress) Step(runID string, r engine.StepResult, remaining int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	s, ok := p.runs[runID]
	if !ok {
		return
	}
	s.Steps++
	s.State = r.State.String()
	s.Remaining = remaining
	if r.Committed != nil {
		s.Commits++
	}
	if r.State == engine.StateBacktracking {
		s.Backtracks++
	}
	if r.State != engine.StateTerminated {
		s.Depth = r.Depth
		s.GlobalUtility = r.GlobalUtility
	}
}

// Best records a new best node.
func (p *Progress) Best(runID string, snap *engine.Snapshot) {
	path := engine.Transactions(snap.Path)

	p.mu.Lock()
	defer p.mu.Unlock()

	s, ok := p.runs[runID]
	if !ok {
		return
	}
	s.BestUtility = snap.GlobalUtility
	s.BestDepth = snap.Depth
	p.paths[runID] = path
}

// Finish marks a run as done.
func (p *Progress) Finish(runID string, sum engine.Summary) {
	p.finish(runID, sum, "")
}

// Fail marks a run as done with the error that stopped it.
func (p *Progress) Fail(runID string, sum engine.Summary, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	p.finish(runID, sum, msg)
}

func (p *Progress) finish(runID string, sum engine.Summary, errMsg string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	s, ok := p.runs[runID]
	if !ok {
		return
	}
	s.Done = true
	s.Error = errMsg
	s.Steps = sum.Stats.Steps
	s.Commits = sum.Stats.Commits
	s.Backtracks = sum.Stats.Backtracks
	if sum.Terminated {
		s.State = engine.StateTerminated.String()
	}
}

// Runs returns a copy of every run's status in start order.
func (p *Progress) Runs() []RunStatus {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]RunStatus, 0, len(p.order))
	for _, id := range p.order {
		out = append(out, *p.runs[id])
	}
	return out
}

// BestPath returns the best path of runID, or of the run with the highest
// best utility when runID is empty.
func (p *Progress) BestPath(runID string) (RunStatus, []engine.Transaction, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if runID == "" {
		ids := append([]string(nil), p.order...)
		sort.SliceStable(ids, func(i, j int) bool {
			return p.runs[ids[i]].BestUtility > p.runs[ids[j]].BestUtility
		})
		if len(ids) == 0 {
			return RunStatus{}, nil, false
		}
		runID = ids[0]
	}
	s, ok := p.runs[runID]
	if !ok {
		return RunStatus{}, nil, false
	}
	path := append([]engine.Transaction(nil), p.paths[runID]...)
	return *s, path, true
}
