package sketch

import "sketchbench/internal/hashing"

const bytesPerCounterHP = 4

type hpSlot struct {
	key      []byte
	count    uint32
	occupied bool
}

// HashPipe is a k-stage flow-table pipeline with "always evict the smaller
// count" semantics (spec.md §4.6). keySize is the fixed byte width of the
// flow keys it will be fed; width is derived from the memory budget,
// num_stages, and keySize so that each stage's slot table fits the budget.
type HashPipe struct {
	numStages uint32
	w         uint32
	keySize   uint32
	stages    [][]hpSlot
	hash      *hashing.Family
}

// NewHashPipe builds a HashPipe with numStages pipeline stages, sized to
// fit memBytes for flow keys of keySize bytes.
func NewHashPipe(numStages uint32, memBytes uint64, keySize uint32) (*HashPipe, error) {
	if numStages == 0 {
		return nil, ErrInvalidConfig
	}
	bytesPerSlot := uint64(keySize) + bytesPerCounterHP
	w, err := widthFromMemory(memBytes, numStages, uint32(bytesPerSlot))
	if err != nil {
		return nil, err
	}

	stages := make([][]hpSlot, numStages)
	for i := range stages {
		row := make([]hpSlot, w)
		for j := range row {
			row[j].key = make([]byte, keySize)
		}
		stages[i] = row
	}

	return &HashPipe{
		numStages: numStages,
		w:         w,
		keySize:   keySize,
		stages:    stages,
		hash:      hashing.NewFamily(numStages),
	}, nil
}

func (h *HashPipe) Update(key []byte, delta uint32) {
	// A key already held in a later stage accumulates there, so a key never
	// occupies more than one slot across the pipeline.
	for stage := uint32(1); stage < h.numStages; stage++ {
		slot := &h.stages[stage][h.hash.Index(int(stage), key, h.w)]
		if slot.occupied && sliceEqual(slot.key, key) {
			saturatingAddU32(&slot.count, delta)
			return
		}
	}

	idx0 := h.hash.Index(0, key, h.w)
	slot0 := &h.stages[0][idx0]

	if !slot0.occupied {
		slot0.occupied = true
		copy(slot0.key, key)
		slot0.count = delta
		return
	}
	if slot0.occupied && sliceEqual(slot0.key, key) {
		saturatingAddU32(&slot0.count, delta)
		return
	}

	// Carry the displaced occupant forward, install the new key here.
	carryKey := append([]byte(nil), slot0.key...)
	carryCount := slot0.count
	copy(slot0.key, key)
	slot0.count = delta

	for stage := uint32(1); stage < h.numStages; stage++ {
		idx := h.hash.Index(int(stage), carryKey, h.w)
		slot := &h.stages[stage][idx]

		if !slot.occupied {
			slot.occupied = true
			copy(slot.key, carryKey)
			slot.count = carryCount
			return
		}
		if sliceEqual(slot.key, carryKey) {
			saturatingAddU32(&slot.count, carryCount)
			return
		}
		if slot.count < carryCount {
			// The larger count survives in the slot; the evicted
			// occupant becomes the new carry.
			nextKey := append([]byte(nil), slot.key...)
			nextCount := slot.count
			copy(slot.key, carryKey)
			slot.count = carryCount
			carryKey = nextKey
			carryCount = nextCount
			continue
		}
		// Slot holds the larger count already; the carry is dropped.
		return
	}
	// Fell off the end of the pipeline: carry is discarded.
}

func (h *HashPipe) Query(key []byte) uint64 {
	var total uint64
	for stage := uint32(0); stage < h.numStages; stage++ {
		idx := h.hash.Index(int(stage), key, h.w)
		slot := &h.stages[stage][idx]
		if slot.occupied && sliceEqual(slot.key, key) {
			total += uint64(slot.count)
		}
	}
	return total
}

func (h *HashPipe) Clear() {
	for _, row := range h.stages {
		for i := range row {
			row[i].occupied = false
			row[i].count = 0
			for b := range row[i].key {
				row[i].key[b] = 0
			}
		}
	}
}

func (h *HashPipe) MemoryFootprint() uint64 {
	bytesPerSlot := uint64(h.keySize) + bytesPerCounterHP
	return uint64(h.numStages) * uint64(h.w) * bytesPerSlot
}

func sliceEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
