package economy

// WeightTable holds the per-resource utility weight and transferability.
// Resources missing from the table weigh 0 and cannot be transferred.
type WeightTable struct {
	weights      map[string]float64
	transferable map[string]bool
}

// NewWeightTable creates an empty table.
func NewWeightTable() *WeightTable {
	return &WeightTable{
		weights:      make(map[string]float64),
		transferable: make(map[string]bool),
	}
}

// Set records the weight and transferability of a resource.
// Only loaders call this; the table is read-only once a run starts.
func (w *WeightTable) Set(resource string, weight float64, transferable bool) {
	w.weights[resource] = weight
	w.transferable[resource] = transferable
}

// Weight returns the utility weight of a resource (0 when unknown).
func (w *WeightTable) Weight(resource string) float64 {
	return w.weights[resource]
}

// Transferable reports whether a resource may move between countries.
func (w *WeightTable) Transferable(resource string) bool {
	return w.transferable[resource]
}

// Len returns the number of resources with an explicit entry.
func (w *WeightTable) Len() int {
	return len(w.weights)
}
