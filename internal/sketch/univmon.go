package sketch

import "sketchbench/internal/hashing"

// UnivMon is an L-level cascade of sampled CountSketch instances used for
// universal-stream estimation (spec.md §4.8). Level l samples a key iff the
// bottom l bits of a dedicated hash are all zero, so deeper levels see an
// exponentially sparser subset of the stream; memory is split across
// levels proportionally to 1/2^l.
type UnivMon struct {
	l      uint32
	levels []*CountSketch
	gHash  *hashing.Family
}

// NewUnivMon builds a UnivMon cascade with l levels, each a rowsPerLevel-row
// CountSketch, splitting memBytes across levels by the fixed 1/2^l
// schedule.
func NewUnivMon(l uint32, memBytes uint64, rowsPerLevel uint32) (*UnivMon, error) {
	if l == 0 {
		return nil, ErrInvalidConfig
	}

	var denom float64
	for i := uint32(0); i < l; i++ {
		denom += 1.0 / float64(uint64(1)<<i)
	}

	levels := make([]*CountSketch, l)
	for i := uint32(0); i < l; i++ {
		share := (1.0 / float64(uint64(1)<<i)) / denom
		levelMem := uint64(float64(memBytes) * share)
		cs, err := NewCountSketch(rowsPerLevel, levelMem)
		if err != nil {
			return nil, err
		}
		levels[i] = cs
	}

	return &UnivMon{l: l, levels: levels, gHash: hashing.NewFamily(1)}, nil
}

// sampled reports whether key is included at level l: the bottom l bits of
// the dedicated sampling hash G(key) are all zero. Level 0 always samples
// (the empty bit mask is trivially all-zero), and the predicate is nested:
// sampled(l+1, k) implies sampled(l, k).
func (u *UnivMon) sampled(level uint32, key []byte) bool {
	if level == 0 {
		return true
	}
	g := u.gHash.Hash64(0, key)
	mask := (uint64(1) << level) - 1
	return g&mask == 0
}

func (u *UnivMon) Update(key []byte, delta uint32) {
	for l := uint32(0); l < u.l; l++ {
		if !u.sampled(l, key) {
			break // nested predicate: false here means false at every deeper level too
		}
		u.levels[l].Update(key, delta)
	}
}

// Query answers a point query for key using the top-level (level 0)
// CountSketch, per spec.md §4.8.
func (u *UnivMon) Query(key []byte) uint64 {
	return u.levels[0].Query(key)
}

func (u *UnivMon) Clear() {
	for _, lvl := range u.levels {
		lvl.Clear()
	}
}

func (u *UnivMon) MemoryFootprint() uint64 {
	var total uint64
	for _, lvl := range u.levels {
		total += lvl.MemoryFootprint()
	}
	return total
}

// UniversalEstimate computes the universal-sketch recursion described in
// spec.md §4.8 for an arbitrary monotone function g of frequency (e.g.
// g(x)=x for a total-count estimate, g(x)=x*x for an L2-norm estimate),
// restricted to the candidate key set (in practice the Ideal reference's
// observed flows, since UnivMon's CountSketch levels cannot enumerate their
// own keys). This is the "universal streaming" capability the cascade
// exists for; point-query accuracy against Ideal only exercises level 0.
func (u *UnivMon) UniversalEstimate(keys [][]byte, g func(uint64) float64) float64 {
	var y float64
	for l := int(u.l) - 1; l >= 0; l-- {
		var sum float64
		for _, k := range keys {
			if !u.sampled(uint32(l), k) {
				continue
			}
			if l+1 < int(u.l) && u.sampled(uint32(l+1), k) {
				continue // counted at a deeper level already
			}
			sum += g(u.levels[l].Query(k))
		}
		if l == int(u.l)-1 {
			y = sum
		} else {
			y = 2*y + sum
		}
	}
	return y
}
