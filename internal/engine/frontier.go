package engine

import "github.com/talgya/tradesim/internal/economy"

// Frontier counts how often each action was committed at each branch.
// Counts only grow, and backtracking never resets them, so they cap how
// many times the same action can be chosen at a decision point.
type Frontier struct {
	counts map[economy.BranchID]map[economy.Action]int
	total  int
}

// NewFrontier creates an empty frontier.
func NewFrontier() *Frontier {
	return &Frontier{counts: make(map[economy.BranchID]map[economy.Action]int)}
}

// Record increments the count for action at branch and returns the new count.
func (f *Frontier) Record(branch economy.BranchID, a economy.Action) int {
	seen, ok := f.counts[branch]
	if !ok {
		seen = make(map[economy.Action]int)
		f.counts[branch] = seen
	}
	seen[a]++
	f.total++
	return seen[a]
}

// Count returns how often action was committed at branch.
func (f *Frontier) Count(branch economy.BranchID, a economy.Action) int {
	return f.counts[branch][a]
}

// Branches returns the number of branches with at least one record.
func (f *Frontier) Branches() int {
	return len(f.counts)
}

// Total returns the number of records across all branches.
func (f *Frontier) Total() int {
	return f.total
}
