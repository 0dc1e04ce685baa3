package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/talgya/tradesim/internal/economy"
)

func TestFrontierCounts(t *testing.T) {
	f := NewFrontier()
	a := economy.Create{Agent: "A", Template: "CreateAlloys", Multiplier: 10}
	b := economy.Transfer{From: "A", To: "B", Resource: "Water", Amount: 100}

	assert.Equal(t, 0, f.Count(economy.RootBranch, a))
	assert.Equal(t, 1, f.Record(economy.RootBranch, a))
	assert.Equal(t, 2, f.Record(economy.RootBranch, a))
	assert.Equal(t, 1, f.Record(5, a))
	f.Record(economy.RootBranch, b)

	assert.Equal(t, 2, f.Count(economy.RootBranch, a))
	assert.Equal(t, 1, f.Count(5, a))
	assert.Equal(t, 1, f.Count(economy.RootBranch, b))
	assert.Equal(t, 0, f.Count(5, b))
	assert.Equal(t, 2, f.Branches())
	assert.Equal(t, 4, f.Total())
}

func TestFrontierKeysOnActionValue(t *testing.T) {
	f := NewFrontier()
	f.Record(1, economy.Create{Agent: "A", Template: "T", Multiplier: 10})

	// An equal value built separately hits the same counter.
	assert.Equal(t, 1, f.Count(1, economy.Create{Agent: "A", Template: "T", Multiplier: 10}))
	assert.Equal(t, 0, f.Count(1, economy.Create{Agent: "A", Template: "T", Multiplier: 20}))
}
