package engine

import (
	"fmt"

	"github.com/talgya/tradesim/internal/economy"
)

// Replay re-applies a commit journal to a copy of initial, using the
// discount of each commit's depth. Replaying a snapshot's journal against
// the walker's initial world reproduces the snapshot's ledgers exactly.
func Replay(initial *World, cat *economy.Catalog, sched Schedule, journal []Step) (*World, error) {
	w := initial.Clone()
	for _, s := range journal {
		if err := apply(w, cat, s.Action, sched.DiscountRate(s.Depth)); err != nil {
			return nil, fmt.Errorf("replay step %d: %w", s.Seq, err)
		}
	}
	return w, nil
}
