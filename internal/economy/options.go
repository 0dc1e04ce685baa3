package economy

import "sort"

// BranchID identifies a decision point for repeat counting.
type BranchID uint64

// RootBranch is the branch identity of the root node, which has no parent.
const RootBranch BranchID = 0

// RepeatCounter reports how often an action was already committed at a
// branch. The search engine's frontier satisfies it.
type RepeatCounter interface {
	Count(branch BranchID, a Action) int
}

// OptionParams bounds option enumeration.
type OptionParams struct {
	CreateMultipliers []float64 // Tried largest first
	TransferMinimums  []float64 // Tried largest first
	MaxRepeats        int
}

// EnumerateOptions lists the legal actions for the ledger's country.
//
// A Create is kept while its repeat count at the branch is <= MaxRepeats;
// a Transfer only while its count is < MaxRepeats. Neither may leave the
// acting country without a positive Population.
func EnumerateOptions(l *Ledger, cat *Catalog, agents []string, branch BranchID, guard RepeatCounter, p OptionParams) []Action {
	var options []Action

	multipliers := descending(p.CreateMultipliers)
	for _, name := range cat.Names() {
		t, _ := cat.Get(name)
		for _, mult := range multipliers {
			ok, _ := l.CheckFeasible(t, mult)
			if !ok {
				continue
			}
			if !keepsPopulation(l, t.Delta(mult)[PopulationResource]) {
				continue
			}
			a := Create{Agent: l.Name, Template: name, Multiplier: mult}
			if guard.Count(branch, a) <= p.MaxRepeats {
				options = append(options, a)
			}
		}
	}

	minimums := descending(p.TransferMinimums)
	for _, resource := range l.ResourceNames() {
		if !l.Weights.Transferable(resource) {
			continue
		}
		held := l.Held(resource)
		for _, minimum := range minimums {
			if held < minimum {
				continue
			}
			if resource == PopulationResource && !keepsPopulation(l, -minimum) {
				continue
			}
			for _, other := range agents {
				if other == l.Name {
					continue
				}
				a := Transfer{From: l.Name, To: other, Resource: resource, Amount: minimum}
				if guard.Count(branch, a) < p.MaxRepeats {
					options = append(options, a)
				}
			}
		}
	}

	return options
}

// keepsPopulation reports whether Population stays positive after change.
func keepsPopulation(l *Ledger, change float64) bool {
	return l.Held(PopulationResource)+change > 0
}

func descending(in []float64) []float64 {
	out := make([]float64, len(in))
	copy(out, in)
	sort.Sort(sort.Reverse(sort.Float64Slice(out)))
	return out
}
