package world

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/talgya/tradesim/internal/economy"
)

// LoadWeights reads a resource-weight CSV: one row per resource with
// Weight and Transferable columns, in any column order.
func LoadWeights(path string) (*economy.WeightTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open weights: %w", err)
	}
	defer f.Close()

	w, err := ReadWeights(f)
	if err != nil {
		return nil, fmt.Errorf("weights %s: %w", path, err)
	}
	return w, nil
}

// ReadWeights parses the resource-weight CSV format from r.
func ReadWeights(r io.Reader) (*economy.WeightTable, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	weightCol, transferCol := -1, -1
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "weight":
			weightCol = i
		case "transferable":
			transferCol = i
		}
	}
	if weightCol < 1 || transferCol < 1 {
		return nil, fmt.Errorf("header %v: need a resource column, Weight and Transferable", header)
	}

	table := economy.NewWeightTable()
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		resource := strings.TrimSpace(rec[0])
		if resource == "" {
			return nil, fmt.Errorf("line %d: empty resource name", line)
		}
		weight, err := parseNumber(strings.TrimSpace(rec[weightCol]))
		if err != nil {
			return nil, fmt.Errorf("line %d, %s weight: %w", line, resource, err)
		}
		transferable, err := parseBool(rec[transferCol])
		if err != nil {
			return nil, fmt.Errorf("line %d, %s transferable: %w", line, resource, err)
		}
		table.Set(resource, weight, transferable)
	}
	return table, nil
}

// parseBool accepts true/false and 1/0 in any case.
func parseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1":
		return true, nil
	case "false", "0":
		return false, nil
	}
	return false, fmt.Errorf("not a boolean: %q", s)
}
