package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/tradesim/internal/economy"
)

func TestNewWorldRejectsDuplicates(t *testing.T) {
	w := testWeights()
	a := economy.NewLedger("A", map[string]float64{economy.PopulationResource: 1}, w)
	_, err := NewWorld([]*economy.Ledger{a, a.Clone()})
	assert.Error(t, err)
}

func TestWorldLookup(t *testing.T) {
	world := testWorld(t)
	assert.Equal(t, []string{"A", "B"}, world.Names())
	assert.Equal(t, 1, world.Index("B"))
	assert.Equal(t, -1, world.Index("Z"))

	_, err := world.Ledger("Z")
	assert.ErrorIs(t, err, economy.ErrUnknownAgent)
}

func TestWorldCloneIsDeep(t *testing.T) {
	world := testWorld(t)
	c := world.Clone()
	c.At(0).Resources["Water"] = 1

	a, err := world.Ledger("A")
	require.NoError(t, err)
	assert.Equal(t, 500.0, a.Resources["Water"])
}
