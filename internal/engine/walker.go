package engine

import (
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/talgya/tradesim/internal/economy"
)

// State is the walker's position in its state machine.
type State uint8

const (
	StateAtNode State = iota
	StateBacktracking
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateAtNode:
		return "at_node"
	case StateBacktracking:
		return "backtracking"
	case StateTerminated:
		return "terminated"
	}
	return "unknown"
}

// Config is the immutable search configuration for one walker.
type Config struct {
	MaxDepth       int
	Options        economy.OptionParams
	Policy         Policy
	ReduceFraction float64
	Seed           int64
}

// Validate checks the configuration before a walker is built.
func (c Config) Validate() error {
	if _, err := ParsePolicy(string(c.Policy)); err != nil {
		return err
	}
	if c.ReduceFraction < 0 || c.ReduceFraction >= 1 {
		return fmt.Errorf("reduce fraction %v outside [0, 1)", c.ReduceFraction)
	}
	if c.Options.MaxRepeats < 0 {
		return fmt.Errorf("max repeats %d is negative", c.Options.MaxRepeats)
	}
	return nil
}

// StepResult describes one state-machine transition.
type StepResult struct {
	State         State
	Depth         int
	Agent         string
	GlobalUtility float64
	Committed     *Step // Set when the step committed an action
	NewBest       bool
}

// Stats counts walker activity.
type Stats struct {
	Steps      int `json:"steps"`
	Commits    int `json:"commits"`
	Backtracks int `json:"backtracks"`
}

// Walker is the anytime depth-bounded search. Each Step commits the top
// ranked option, descends, or backtracks. Backtracking moves the traversal
// position only: committed ledger changes stay in place.
type Walker struct {
	cfg      Config
	catalog  *economy.Catalog
	sched    Schedule
	world    *World
	initial  *World
	frontier *Frontier
	rng      *rand.Rand

	root    *Node
	current *Node
	nextID  NodeID
	journal []Step
	best    *Snapshot
	stats   Stats
}

// NewWalker prepares a walker rooted at the given world. Initial utilities
// are computed at discount 1.0; the world is owned by the walker from here.
func NewWalker(cfg Config, cat *economy.Catalog, world *World) (*Walker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	sched, err := BuildSchedule(cfg.MaxDepth, world.Names())
	if err != nil {
		return nil, err
	}
	if err := world.UpdateUtilities(DiscountNear); err != nil {
		return nil, fmt.Errorf("initial utility: %w", err)
	}

	w := &Walker{
		cfg:      cfg,
		catalog:  cat,
		sched:    sched,
		world:    world,
		initial:  world.Clone(),
		frontier: NewFrontier(),
		rng:      rand.New(rand.NewSource(cfg.Seed)),
	}
	w.root = w.newNode(1, nil, world.GlobalUtility(), nil)
	w.current = w.root
	return w, nil
}

func (w *Walker) newNode(depth int, parent *Node, utility float64, produced *Step) *Node {
	w.nextID++
	return &Node{
		ID:            w.nextID,
		Depth:         depth,
		Agent:         w.sched.At(depth),
		Parent:        parent,
		GlobalUtility: utility,
		Pending:       make(map[string][]ScoredOption),
		Produced:      produced,
	}
}

// Options enumerates, prices and ranks the acting country's options at n.
// Only the live ledgers' clones are mutated.
func (w *Walker) Options(n *Node) ([]ScoredOption, error) {
	l, err := w.world.Ledger(n.Agent)
	if err != nil {
		return nil, err
	}
	actions := economy.EnumerateOptions(l, w.catalog, w.world.Names(), n.Branch(), w.frontier, w.cfg.Options)
	scored, err := priceAll(w.world, w.catalog, actions, w.sched.DiscountRate(n.Depth))
	if err != nil {
		return nil, err
	}
	return w.cfg.Policy.Rank(scored, w.rng, w.cfg.ReduceFraction), nil
}

// Step performs one transition and reports whether the search terminated.
// An error is fatal for the run.
func (w *Walker) Step() (StepResult, error) {
	n := w.current
	if n == nil {
		return StepResult{State: StateTerminated}, nil
	}
	w.stats.Steps++

	if n.Depth == w.sched.MaxDepth() {
		return w.backtrack(), nil
	}

	opts, err := w.Options(n)
	if err != nil {
		return StepResult{}, fmt.Errorf("options at depth %d for %s: %w", n.Depth, n.Agent, err)
	}
	n.Pending[n.Agent] = opts

	if len(opts) == 0 {
		if n.Depth == 1 {
			w.current = nil
			slog.Debug("root exhausted", "steps", w.stats.Steps)
			return StepResult{State: StateTerminated, Depth: n.Depth, GlobalUtility: n.GlobalUtility}, nil
		}
		return w.backtrack(), nil
	}

	return w.commit(n, opts[0])
}

func (w *Walker) commit(n *Node, opt ScoredOption) (StepResult, error) {
	if err := apply(w.world, w.catalog, opt.Action, w.sched.DiscountRate(n.Depth)); err != nil {
		return StepResult{}, fmt.Errorf("commit %s at depth %d: %w", opt.Action, n.Depth, err)
	}
	global := w.world.GlobalUtility()
	w.frontier.Record(n.Branch(), opt.Action)
	n.removePending()

	step := Step{
		Seq:           len(w.journal),
		Depth:         n.Depth,
		Action:        opt.Action,
		Score:         opt.Score,
		GlobalUtility: global,
	}
	w.journal = append(w.journal, step)
	w.stats.Commits++

	child := w.newNode(n.Depth+1, n, global, &step)
	w.current = child

	res := StepResult{
		State:         StateAtNode,
		Depth:         child.Depth,
		Agent:         child.Agent,
		GlobalUtility: global,
		Committed:     &step,
	}
	if w.best == nil || global > w.best.GlobalUtility {
		w.best = w.snapshot(child)
		res.NewBest = true
	}

	slog.Debug("commit", "depth", n.Depth, "action", opt.Action.String(), "score", opt.Score, "global_utility", global)
	return res, nil
}

func (w *Walker) backtrack() StepResult {
	w.stats.Backtracks++
	parent := w.current.Parent
	w.current = parent
	if parent == nil {
		return StepResult{State: StateBacktracking}
	}
	return StepResult{
		State:         StateBacktracking,
		Depth:         parent.Depth,
		Agent:         parent.Agent,
		GlobalUtility: parent.GlobalUtility,
	}
}

func (w *Walker) snapshot(n *Node) *Snapshot {
	journal := make([]Step, len(w.journal))
	copy(journal, w.journal)
	return &Snapshot{
		NodeID:        n.ID,
		Depth:         n.Depth,
		GlobalUtility: n.GlobalUtility,
		World:         w.world.Clone(),
		Path:          n.Path(),
		Journal:       journal,
		FoundAtStep:   w.stats.Steps,
	}
}

// Current returns the node the walker is at, nil once terminated.
func (w *Walker) Current() *Node { return w.current }

// Best returns the best snapshot so far, nil before the first commit.
func (w *Walker) Best() *Snapshot { return w.best }

// Terminated reports whether the search has finished.
func (w *Walker) Terminated() bool { return w.current == nil }

// Stats returns activity counters.
func (w *Walker) Stats() Stats { return w.stats }

// Frontier exposes the repeat guard (read-only use).
func (w *Walker) Frontier() *Frontier { return w.frontier }

// Schedule returns the turn schedule.
func (w *Walker) Schedule() Schedule { return w.sched }

// World returns the live world. Callers must not mutate it.
func (w *Walker) World() *World { return w.world }

// Initial returns a copy of the world as it was before the first commit.
func (w *Walker) Initial() *World { return w.initial.Clone() }

// InitialUtility returns the root's global utility.
func (w *Walker) InitialUtility() float64 { return w.root.GlobalUtility }

// Journal returns every commit so far.
func (w *Walker) Journal() []Step {
	out := make([]Step, len(w.journal))
	copy(out, w.journal)
	return out
}
