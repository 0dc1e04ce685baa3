package economy

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownTemplate is returned when an action names a template the
// catalog does not hold.
var ErrUnknownTemplate = errors.New("unknown template")

// Template is a blueprint: spending Inputs yields Outputs, both per unit.
type Template struct {
	Name    string             `json:"-"`
	Inputs  map[string]float64 `json:"Inputs"`
	Outputs map[string]float64 `json:"Outputs"`
}

// Cost returns the inputs consumed at the given multiplier.
func (t Template) Cost(mult float64) Delta {
	return scale(t.Inputs, mult)
}

// Yield returns the outputs produced at the given multiplier.
func (t Template) Yield(mult float64) Delta {
	return scale(t.Outputs, mult)
}

// Delta returns the net ledger change (outputs − inputs) at mult.
func (t Template) Delta(mult float64) Delta {
	d := t.Yield(mult)
	for r, q := range t.Cost(mult) {
		d[r] -= q
	}
	return d
}

func scale(m map[string]float64, mult float64) Delta {
	d := make(Delta, len(m))
	for r, q := range m {
		d[r] = q * mult
	}
	return d
}

// Catalog is the read-only set of templates for a run. It is shared by
// every ledger and every branch of the search.
type Catalog struct {
	byName map[string]Template
	names  []string
}

// NewCatalog builds a catalog; template names come from the map keys.
func NewCatalog(templates map[string]Template) (*Catalog, error) {
	c := &Catalog{
		byName: make(map[string]Template, len(templates)),
		names:  make([]string, 0, len(templates)),
	}
	for name, t := range templates {
		if name == "" {
			return nil, fmt.Errorf("catalog: empty template name")
		}
		if len(t.Outputs) == 0 {
			return nil, fmt.Errorf("catalog: template %q has no outputs", name)
		}
		t.Name = name
		c.byName[name] = t
		c.names = append(c.names, name)
	}
	sort.Strings(c.names)
	return c, nil
}

// Get looks up a template by name.
func (c *Catalog) Get(name string) (Template, bool) {
	t, ok := c.byName[name]
	return t, ok
}

// Names returns template names in deterministic order.
func (c *Catalog) Names() []string {
	out := make([]string, len(c.names))
	copy(out, c.names)
	return out
}

// Len returns the number of templates.
func (c *Catalog) Len() int {
	return len(c.names)
}
