package engine

import (
	"fmt"

	"github.com/talgya/tradesim/internal/economy"
)

// World is the arena of country ledgers for one run, addressed by stable
// index. The walker owns it exclusively; shadow pricing works on clones.
type World struct {
	ledgers []*economy.Ledger
	index   map[string]int
}

// NewWorld builds a world from ledgers in turn order.
func NewWorld(ledgers []*economy.Ledger) (*World, error) {
	w := &World{
		ledgers: make([]*economy.Ledger, 0, len(ledgers)),
		index:   make(map[string]int, len(ledgers)),
	}
	for _, l := range ledgers {
		if _, dup := w.index[l.Name]; dup {
			return nil, fmt.Errorf("world: duplicate agent %q", l.Name)
		}
		w.index[l.Name] = len(w.ledgers)
		w.ledgers = append(w.ledgers, l)
	}
	return w, nil
}

// Ledger returns the live ledger for an agent.
func (w *World) Ledger(name string) (*economy.Ledger, error) {
	i := w.Index(name)
	if i < 0 {
		return nil, fmt.Errorf("%w: %q", economy.ErrUnknownAgent, name)
	}
	return w.ledgers[i], nil
}

// Index returns the arena slot of an agent, or -1.
func (w *World) Index(name string) int {
	i, ok := w.index[name]
	if !ok {
		return -1
	}
	return i
}

// At returns the ledger in slot i.
func (w *World) At(i int) *economy.Ledger {
	return w.ledgers[i]
}

// Len returns the number of agents.
func (w *World) Len() int {
	return len(w.ledgers)
}

// Names returns agent names in arena order.
func (w *World) Names() []string {
	names := make([]string, len(w.ledgers))
	for i, l := range w.ledgers {
		names[i] = l.Name
	}
	return names
}

// Clone deep-copies every ledger.
func (w *World) Clone() *World {
	c := &World{
		ledgers: make([]*economy.Ledger, len(w.ledgers)),
		index:   make(map[string]int, len(w.index)),
	}
	for i, l := range w.ledgers {
		c.ledgers[i] = l.Clone()
	}
	for name, i := range w.index {
		c.index[name] = i
	}
	return c
}

// GlobalUtility is the mean of every ledger's current utility.
func (w *World) GlobalUtility() float64 {
	if len(w.ledgers) == 0 {
		return 0
	}
	sum := 0.0
	for _, l := range w.ledgers {
		sum += l.Utility
	}
	return sum / float64(len(w.ledgers))
}

// UpdateUtilities recomputes every ledger's utility at discount.
func (w *World) UpdateUtilities(discount float64) error {
	for _, l := range w.ledgers {
		if err := l.UpdateUtility(discount); err != nil {
			return err
		}
	}
	return nil
}
