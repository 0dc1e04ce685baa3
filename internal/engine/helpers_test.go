package engine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/talgya/tradesim/internal/economy"
)

func testWeights() *economy.WeightTable {
	w := economy.NewWeightTable()
	w.Set("Water", 1, true)
	w.Set("Alloys", 2, false)
	w.Set("MetallicElements", 0, false)
	w.Set(economy.PopulationResource, 0, false)
	return w
}

func testCatalog(t *testing.T) *economy.Catalog {
	t.Helper()
	cat, err := economy.NewCatalog(map[string]economy.Template{
		"CreateAlloys": {
			Inputs:  map[string]float64{"MetallicElements": 2, "Water": 1},
			Outputs: map[string]float64{"Alloys": 1},
		},
	})
	require.NoError(t, err)
	return cat
}

func testWorld(t *testing.T) *World {
	t.Helper()
	w := testWeights()
	a := economy.NewLedger("A", map[string]float64{
		economy.PopulationResource: 100,
		"Water":                    500,
		"MetallicElements":         300,
	}, w)
	b := economy.NewLedger("B", map[string]float64{
		economy.PopulationResource: 100,
		"Water":                    0,
		"MetallicElements":         50,
	}, w)
	world, err := NewWorld([]*economy.Ledger{a, b})
	require.NoError(t, err)
	require.NoError(t, world.UpdateUtilities(1))
	return world
}

func testConfig(depth int) Config {
	return Config{
		MaxDepth: depth,
		Options: economy.OptionParams{
			CreateMultipliers: []float64{100, 10},
			TransferMinimums:  []float64{200, 100},
			MaxRepeats:        1,
		},
		Policy: PolicyUtilityFirst,
		Seed:   7,
	}
}
