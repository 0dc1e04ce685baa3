// Synthetic world-state generation using layered simplex noise.
// Each country's holding of each resource is sampled from its own point in
// noise space, so neighbouring countries get correlated but distinct stocks.

package world

import (
	"math"
	"math/rand"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/talgya/tradesim/internal/economy"
)

// GenConfig holds world generation parameters.
type GenConfig struct {
	Agents    []string
	Resources []string           // Column order of the generated table
	Base      map[string]float64 // Mean stock per resource; missing => DefaultBase
	Seed      int64              // Random seed (0 = random)
	Octaves   int
	Frequency float64
}

// DefaultBase is the stock scale for resources without an explicit base.
const DefaultBase = 500

// DefaultGenConfig returns the four-country world the planner ships with.
func DefaultGenConfig() GenConfig {
	return GenConfig{
		Agents: []string{"Atlantis", "Brobdingnag", "Carpania", "Dinotopia"},
		Resources: []string{
			economy.PopulationResource,
			"MetallicElements",
			"Timber",
			"Water",
			"Alloys",
			"Electronics",
			"Housing",
		},
		Base: map[string]float64{
			economy.PopulationResource: 1000,
			"MetallicElements":         800,
			"Timber":                   600,
			"Water":                    1200,
			"Alloys":                   100,
			"Electronics":              50,
			"Housing":                  200,
		},
		Octaves:   3,
		Frequency: 0.35,
	}
}

// SmallGenConfig returns a two-country world for rapid iteration.
func SmallGenConfig() GenConfig {
	cfg := DefaultGenConfig()
	cfg.Agents = cfg.Agents[:2]
	cfg.Resources = []string{economy.PopulationResource, "MetallicElements", "Water"}
	cfg.Seed = 42
	return cfg
}

// Generate creates a world-state table. Quantities are base × (0.25 + n)
// where n is normalized octave noise, rounded to whole units. Population
// is never below 1.
func Generate(cfg GenConfig) *StateTable {
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Int63()
	}
	octaves := cfg.Octaves
	if octaves < 1 {
		octaves = 1
	}
	freq := cfg.Frequency
	if freq <= 0 {
		freq = 0.35
	}

	// Two noise layers: one for the stock level, one that scatters
	// countries across the plane.
	stockNoise := opensimplex.NewNormalized(seed)
	scatter := opensimplex.NewNormalized(seed + 1)

	t := NewStateTable(append([]string(nil), cfg.Resources...))
	for i, agent := range cfg.Agents {
		// Countries sit on a jittered line so their samples differ even
		// when they share a resource index.
		ax := float64(i)*3.1 + scatter.Eval2(float64(i), 0.5)*2
		for j, resource := range cfg.Resources {
			base, ok := cfg.Base[resource]
			if !ok {
				base = DefaultBase
			}
			n := octaveNoise(stockNoise, ax, float64(j)*1.7, octaves, freq, 0.5)
			qty := math.Round(base * (0.25 + n))
			if resource == economy.PopulationResource && qty < 1 {
				qty = 1
			}
			t.Set(agent, resource, qty)
		}
	}
	return t
}

// octaveNoise generates fractal noise by layering multiple frequencies.
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return total / maxVal
}

// Totals returns the summed stock of each resource across countries.
func Totals(t *StateTable) map[string]float64 {
	totals := make(map[string]float64, len(t.Resources))
	for _, agent := range t.Agents {
		for r, q := range t.Rows[agent] {
			totals[r] += q
		}
	}
	return totals
}
