// Package economy provides the per-country resource ledger, the template
// catalog, the action model and legal-option enumeration.
package economy

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// PopulationResource is the resource every ledger must hold; utility is
// expressed per head of population.
const PopulationResource = "Population"

var (
	// ErrNoPopulation is returned when a ledger has no positive Population.
	ErrNoPopulation = errors.New("population missing or not positive")
	// ErrUnknownAgent is returned when a country name has no ledger.
	ErrUnknownAgent = errors.New("unknown agent")
)

// Delta is a signed change to apply to a ledger, keyed by resource name.
type Delta map[string]float64

// Shortfall records a resource that is insufficient for a template.
// Deficit is held minus required, so it is always negative.
type Shortfall struct {
	Resource string  `json:"resource"`
	Deficit  float64 `json:"deficit"`
}

// Ledger holds the resources of a single country.
type Ledger struct {
	Name      string             `json:"name"`
	Resources map[string]float64 `json:"resources"`
	Weights   *WeightTable       `json:"-"` // Shared, read-only
	Utility   float64            `json:"utility"`
}

// NewLedger creates a ledger with a private copy of resources.
func NewLedger(name string, resources map[string]float64, weights *WeightTable) *Ledger {
	res := make(map[string]float64, len(resources))
	for r, q := range resources {
		res[r] = q
	}
	if weights == nil {
		weights = NewWeightTable()
	}
	return &Ledger{
		Name:      name,
		Resources: res,
		Weights:   weights,
	}
}

// Held returns the quantity of a resource, 0 when absent.
func (l *Ledger) Held(resource string) float64 {
	return l.Resources[resource]
}

// Has reports whether the resource is present at all.
func (l *Ledger) Has(resource string) bool {
	_, ok := l.Resources[resource]
	return ok
}

// ApplyDelta adds d to the ledger in place. Resources not yet held are
// created with exactly the delta value. Sufficiency is the caller's job.
func (l *Ledger) ApplyDelta(d Delta) {
	for r, q := range d {
		l.Resources[r] += q
	}
}

// ComputeUtility returns Σ(quantity × weight) / Population × discount.
// Resources are summed in name order so the result is reproducible.
// Population must be positive and finite.
func (l *Ledger) ComputeUtility(discount float64) (float64, error) {
	pop, ok := l.Resources[PopulationResource]
	if !ok || !(pop > 0) || math.IsInf(pop, 1) {
		return 0, fmt.Errorf("%s: %w (population=%v)", l.Name, ErrNoPopulation, pop)
	}

	total := 0.0
	for _, r := range l.ResourceNames() {
		total += l.Resources[r] * l.Weights.Weight(r)
	}
	return total / pop * discount, nil
}

// UpdateUtility recomputes and stores the ledger's current utility.
func (l *Ledger) UpdateUtility(discount float64) error {
	u, err := l.ComputeUtility(discount)
	if err != nil {
		return err
	}
	l.Utility = u
	return nil
}

// CheckFeasible reports whether the template can run mult times with the
// resources currently held. Every short input is listed.
func (l *Ledger) CheckFeasible(t Template, mult float64) (bool, []Shortfall) {
	var shortfalls []Shortfall
	for _, r := range sortedKeys(t.Inputs) {
		required := t.Inputs[r] * mult
		if !l.Has(r) {
			shortfalls = append(shortfalls, Shortfall{Resource: r, Deficit: -required})
			continue
		}
		if held := l.Held(r); held < required {
			shortfalls = append(shortfalls, Shortfall{Resource: r, Deficit: held - required})
		}
	}
	return len(shortfalls) == 0, shortfalls
}

// Clone returns an isolated copy. The weight table is shared because it is
// never mutated after load.
func (l *Ledger) Clone() *Ledger {
	c := NewLedger(l.Name, l.Resources, l.Weights)
	c.Utility = l.Utility
	return c
}

// ResourceNames returns held resource names in sorted order.
func (l *Ledger) ResourceNames() []string {
	return sortedKeys(l.Resources)
}

func (l *Ledger) String() string {
	return fmt.Sprintf("Ledger(%s, resources=%d, utility=%.4f)", l.Name, len(l.Resources), l.Utility)
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
