package sketch

// Ideal is the exact reference counter every sketch is measured against.
// It never drops or approximates; memory grows with the number of distinct
// flows observed in an epoch and resets on Clear.
type Ideal struct {
	counts map[string]uint64
}

// NewIdeal creates an empty exact counter.
func NewIdeal() *Ideal {
	return &Ideal{counts: make(map[string]uint64)}
}

// Update adds delta to key's exact count, inserting it at 0 first if new.
func (id *Ideal) Update(key []byte, delta uint32) {
	k := string(key)
	if _, ok := id.counts[k]; !ok {
		id.counts[k] = 0
	}
	id.counts[k] += uint64(delta)
}

// Query returns key's exact count, or 0 if it was never observed.
func (id *Ideal) Query(key []byte) uint64 {
	return id.counts[string(key)]
}

// Clear resets the reference to empty.
func (id *Ideal) Clear() {
	id.counts = make(map[string]uint64)
}

// MemoryFootprint is not a meaningful bound for the exact reference; it
// reports the live map's approximate size for diagnostics only.
func (id *Ideal) MemoryFootprint() uint64 {
	// string header + map bucket overhead aren't tracked precisely; this
	// is a rough accounting, not a budget the reference is held to.
	return uint64(len(id.counts)) * 8
}

// Keys returns every flow key observed so far, as raw bytes. The metrics
// layer (internal/metrics) iterates this set once per epoch to query every
// sketch under test.
func (id *Ideal) Keys() [][]byte {
	keys := make([][]byte, 0, len(id.counts))
	for k := range id.counts {
		keys = append(keys, []byte(k))
	}
	return keys
}

// TotalPackets sums the exact count across every flow, used to derive the
// heavy-hitter threshold for an epoch (spec.md §6).
func (id *Ideal) TotalPackets() uint64 {
	var total uint64
	for _, c := range id.counts {
		total += c
	}
	return total
}

// Len reports the number of distinct flows observed.
func (id *Ideal) Len() int {
	return len(id.counts)
}
