package sketch

import (
	"math"

	"sketchbench/internal/hashing"
)

const bytesPerCounterCS = 4

// CountSketch is a d x w signed-counter matrix with a median estimator
// (spec.md §4.5).
type CountSketch struct {
	d, w  uint32
	table [][]int32
	hash  *hashing.Family
}

// NewCountSketch builds a CountSketch with d rows, sized to fit memBytes.
func NewCountSketch(d uint32, memBytes uint64) (*CountSketch, error) {
	w, err := widthFromMemory(memBytes, d, bytesPerCounterCS)
	if err != nil {
		return nil, err
	}
	return &CountSketch{
		d:     d,
		w:     w,
		table: newSignedMatrix(d, w),
		hash:  hashing.NewFamily(d),
	}, nil
}

func (c *CountSketch) Update(key []byte, delta uint32) {
	for r := uint32(0); r < c.d; r++ {
		idx := c.hash.Index(int(r), key, c.w)
		s := c.hash.Sign(int(r), key)
		v := int64(c.table[r][idx]) + int64(s)*int64(delta)
		if v > math.MaxInt32 {
			v = math.MaxInt32
		} else if v < math.MinInt32 {
			v = math.MinInt32
		}
		c.table[r][idx] = int32(v)
	}
}

func (c *CountSketch) Query(key []byte) uint64 {
	estimates := make([]int64, c.d)
	for r := uint32(0); r < c.d; r++ {
		idx := c.hash.Index(int(r), key, c.w)
		s := c.hash.Sign(int(r), key)
		estimates[r] = int64(s) * int64(c.table[r][idx])
	}
	m := median(estimates)
	if m < 0 {
		return 0
	}
	return uint64(m)
}

func (c *CountSketch) Clear() {
	clearSignedMatrix(c.table)
}

func (c *CountSketch) MemoryFootprint() uint64 {
	return uint64(c.d) * uint64(c.w) * bytesPerCounterCS
}
