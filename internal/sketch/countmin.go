package sketch

import "sketchbench/internal/hashing"

// bytesPerCounterCM is the width of one Count-Min cell: a uint32 counter.
const bytesPerCounterCM = 4

// CountMin is a d x w non-negative counter matrix with a min estimator
// (spec.md §4.4). w is derived from the memory budget and row count so
// that d*w*sizeof(uint32) <= memBytes.
type CountMin struct {
	d, w  uint32
	table [][]uint32
	hash  *hashing.Family
}

// NewCountMin builds a CountMin sketch with d rows, sized to fit within
// memBytes. Returns ErrInvalidConfig if that would leave zero columns.
func NewCountMin(d uint32, memBytes uint64) (*CountMin, error) {
	w, err := widthFromMemory(memBytes, d, bytesPerCounterCM)
	if err != nil {
		return nil, err
	}
	return &CountMin{
		d:     d,
		w:     w,
		table: newMatrix(d, w),
		hash:  hashing.NewFamily(d),
	}, nil
}

func (c *CountMin) Update(key []byte, delta uint32) {
	for r := uint32(0); r < c.d; r++ {
		idx := c.hash.Index(int(r), key, c.w)
		saturatingAddU32(&c.table[r][idx], delta)
	}
}

func (c *CountMin) Query(key []byte) uint64 {
	var est uint32
	for r := uint32(0); r < c.d; r++ {
		idx := c.hash.Index(int(r), key, c.w)
		v := c.table[r][idx]
		if r == 0 || v < est {
			est = v
		}
	}
	return uint64(est)
}

func (c *CountMin) Clear() {
	clearMatrix(c.table)
}

func (c *CountMin) MemoryFootprint() uint64 {
	return uint64(c.d) * uint64(c.w) * bytesPerCounterCM
}
