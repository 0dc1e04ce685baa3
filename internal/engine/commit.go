package engine

import (
	"fmt"

	"github.com/talgya/tradesim/internal/economy"
)

// InsufficientError reports a commit that would spend more than is held.
// The option generator filters these out, so seeing one means an
// invariant was broken.
type InsufficientError struct {
	Agent    string
	Resource string
	Required float64
	Held     float64
}

func (e *InsufficientError) Error() string {
	return fmt.Sprintf("insufficient %s for %s: need %g, hold %g (deficit %g)",
		e.Resource, e.Agent, e.Required, e.Held, e.Held-e.Required)
}

// apply commits an action to the ledgers of w, then refreshes the utility
// of every mutated ledger at discount. It fails before mutating anything
// when the actor cannot cover the cost.
func apply(w *World, cat *economy.Catalog, a economy.Action, discount float64) error {
	switch a := a.(type) {
	case economy.Create:
		l, err := w.Ledger(a.Agent)
		if err != nil {
			return err
		}
		t, ok := cat.Get(a.Template)
		if !ok {
			return fmt.Errorf("%w: %q", economy.ErrUnknownTemplate, a.Template)
		}
		if ok, shortfalls := l.CheckFeasible(t, a.Multiplier); !ok {
			s := shortfalls[0]
			required := t.Inputs[s.Resource] * a.Multiplier
			return &InsufficientError{Agent: a.Agent, Resource: s.Resource, Required: required, Held: required + s.Deficit}
		}
		l.ApplyDelta(t.Delta(a.Multiplier))
		return l.UpdateUtility(discount)

	case economy.Transfer:
		src, err := w.Ledger(a.From)
		if err != nil {
			return err
		}
		dst, err := w.Ledger(a.To)
		if err != nil {
			return err
		}
		if held := src.Held(a.Resource); held < a.Amount {
			return &InsufficientError{Agent: a.From, Resource: a.Resource, Required: a.Amount, Held: held}
		}
		src.ApplyDelta(a.Debit())
		dst.ApplyDelta(a.Credit())
		if err := src.UpdateUtility(discount); err != nil {
			return err
		}
		return dst.UpdateUtility(discount)
	}
	return fmt.Errorf("apply: unsupported action %T", a)
}
