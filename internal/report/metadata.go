package report

import (
	"fmt"
	"os"
	"strings"
)

// Metadata summarises a run's best node.
type Metadata struct {
	RunID          string
	GlobalUtility  float64
	InitialUtility float64
	MaxDepth       int
	BestDepth      int
	SortStrategy   string
	Seed           int64
	Steps          int
	CatalogDigest  string
}

// String renders the metadata file body.
func (m Metadata) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Final Global Utility %v\n", m.GlobalUtility)
	fmt.Fprintf(&b, "Utility Delta (from Initial State): %v\n", m.GlobalUtility-m.InitialUtility)
	fmt.Fprintf(&b, "Max Depth: %d\n", m.MaxDepth)
	fmt.Fprintf(&b, "Best Depth: %d\n", m.BestDepth)
	fmt.Fprintf(&b, "Sort Strategy: %s\n", m.SortStrategy)
	fmt.Fprintf(&b, "Run ID: %s\n", m.RunID)
	fmt.Fprintf(&b, "Seed: %d\n", m.Seed)
	fmt.Fprintf(&b, "Steps: %d\n", m.Steps)
	fmt.Fprintf(&b, "Catalog Digest: %s\n", m.CatalogDigest)
	return b.String()
}

// WriteMetadata replaces the metadata file at path.
func WriteMetadata(path string, m Metadata) error {
	if err := os.WriteFile(path, []byte(m.String()), 0o644); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}
	return nil
}
