// Package world loads and generates the inputs of a planning run: the
// initial world state, the resource weights and the template catalog.
package world

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/talgya/tradesim/internal/economy"
)

// ErrNotFinite is returned for a NaN or infinite numeric cell.
var ErrNotFinite = errors.New("number is not finite")

// StateTable is the initial world state: one row of resource quantities per
// country. Column order is kept so the table can be written back unchanged.
type StateTable struct {
	Resources []string                      // Column order
	Agents    []string                      // Row order
	Rows      map[string]map[string]float64 // agent -> resource -> quantity
}

// NewStateTable creates an empty table with the given columns.
func NewStateTable(resources []string) *StateTable {
	return &StateTable{
		Resources: resources,
		Rows:      make(map[string]map[string]float64),
	}
}

// Set records one quantity, adding the agent row on first use.
func (t *StateTable) Set(agent, resource string, qty float64) {
	row, ok := t.Rows[agent]
	if !ok {
		row = make(map[string]float64)
		t.Rows[agent] = row
		t.Agents = append(t.Agents, agent)
	}
	row[resource] = qty
}

// LoadWorldState reads a world-state CSV. The first column names the
// country, the header names the resources. An empty cell means the country
// does not hold that resource at all.
func LoadWorldState(path string) (*StateTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open world state: %w", err)
	}
	defer f.Close()

	t, err := ReadWorldState(f)
	if err != nil {
		return nil, fmt.Errorf("world state %s: %w", path, err)
	}
	return t, nil
}

// ReadWorldState parses the world-state CSV format from r.
func ReadWorldState(r io.Reader) (*StateTable, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) < 2 {
		return nil, errors.New("header needs a name column and at least one resource")
	}
	t := NewStateTable(append([]string(nil), header[1:]...))

	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		agent := strings.TrimSpace(rec[0])
		if agent == "" {
			return nil, fmt.Errorf("line %d: empty country name", line)
		}
		if _, dup := t.Rows[agent]; dup {
			return nil, fmt.Errorf("line %d: duplicate country %q", line, agent)
		}
		t.Rows[agent] = make(map[string]float64)
		t.Agents = append(t.Agents, agent)

		for i, cell := range rec[1:] {
			cell = strings.TrimSpace(cell)
			if cell == "" {
				continue
			}
			q, err := parseNumber(cell)
			if err != nil {
				return nil, fmt.Errorf("line %d, %s: %w", line, t.Resources[i], err)
			}
			t.Rows[agent][t.Resources[i]] = q
		}
	}
	return t, nil
}

// parseNumber parses a numeric cell. NaN and infinities are rejected.
func parseNumber(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %q", ErrNotFinite, s)
	}
	return v, nil
}

// WriteWorldState writes t in the format LoadWorldState reads.
func WriteWorldState(path string, t *StateTable) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create world state: %w", err)
	}
	if err := writeState(f, t); err != nil {
		f.Close()
		return fmt.Errorf("write world state: %w", err)
	}
	return f.Close()
}

func writeState(w io.Writer, t *StateTable) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(append([]string{"Country"}, t.Resources...)); err != nil {
		return err
	}
	for _, agent := range t.Agents {
		rec := make([]string, 0, len(t.Resources)+1)
		rec = append(rec, agent)
		for _, r := range t.Resources {
			q, ok := t.Rows[agent][r]
			if !ok {
				rec = append(rec, "")
				continue
			}
			rec = append(rec, strconv.FormatFloat(q, 'f', -1, 64))
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// BuildLedgers creates one ledger per agent, in agent order, with initial
// utility computed at discount 1.0.
func BuildLedgers(t *StateTable, weights *economy.WeightTable, agents []string) ([]*economy.Ledger, error) {
	ledgers := make([]*economy.Ledger, 0, len(agents))
	for _, name := range agents {
		row, ok := t.Rows[name]
		if !ok {
			return nil, fmt.Errorf("country %q not in world state: %w", name, economy.ErrUnknownAgent)
		}
		l := economy.NewLedger(name, row, weights)
		if err := l.UpdateUtility(1.0); err != nil {
			return nil, err
		}
		ledgers = append(ledgers, l)
	}
	return ledgers, nil
}
