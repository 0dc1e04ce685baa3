package engine

import (
	"fmt"

	"github.com/talgya/tradesim/internal/economy"
)

// ScoredOption is a candidate action with its shadow utility score.
type ScoredOption struct {
	Action economy.Action `json:"action"`
	Score  float64        `json:"score"`
}

// ShadowPrice scores an action on cloned ledgers; the live ledgers in w are
// never touched.
//
// A Create scores the actor's post-action utility. A Transfer scores the
// receiver's post-transfer utility minus the sender's.
func ShadowPrice(w *World, cat *economy.Catalog, a economy.Action, discount float64) (float64, error) {
	switch a := a.(type) {
	case economy.Create:
		l, err := w.Ledger(a.Agent)
		if err != nil {
			return 0, err
		}
		t, ok := cat.Get(a.Template)
		if !ok {
			return 0, fmt.Errorf("%w: %q", economy.ErrUnknownTemplate, a.Template)
		}
		shadow := l.Clone()
		shadow.ApplyDelta(t.Delta(a.Multiplier))
		if err := shadow.UpdateUtility(discount); err != nil {
			return 0, err
		}
		return shadow.Utility, nil

	case economy.Transfer:
		src, err := w.Ledger(a.From)
		if err != nil {
			return 0, err
		}
		dst, err := w.Ledger(a.To)
		if err != nil {
			return 0, err
		}
		shadowSrc, shadowDst := src.Clone(), dst.Clone()
		shadowSrc.ApplyDelta(a.Debit())
		shadowDst.ApplyDelta(a.Credit())
		if err := shadowSrc.UpdateUtility(discount); err != nil {
			return 0, err
		}
		if err := shadowDst.UpdateUtility(discount); err != nil {
			return 0, err
		}
		return shadowDst.Utility - shadowSrc.Utility, nil
	}
	return 0, fmt.Errorf("shadow price: unsupported action %T", a)
}

// priceAll scores every candidate in generation order.
func priceAll(w *World, cat *economy.Catalog, actions []economy.Action, discount float64) ([]ScoredOption, error) {
	scored := make([]ScoredOption, 0, len(actions))
	for _, a := range actions {
		score, err := ShadowPrice(w, cat, a, discount)
		if err != nil {
			return nil, fmt.Errorf("price %s: %w", a, err)
		}
		scored = append(scored, ScoredOption{Action: a, Score: score})
	}
	return scored, nil
}
