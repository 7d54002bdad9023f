package sketch

import "sketchbench/internal/hashing"

// keyHashBits is B in spec.md §4.9: the width, in bits, of the key-hash
// space SketchLearn decomposes flows over.
const keyHashBits = 32

const bytesPerCounterSL = 4

// defaultTheta is the default bit-acceptance threshold from spec.md §4.9.
const defaultTheta = 0.5

// SketchLearn separates flows sharing a hash bucket by fitting the
// per-bit distribution of a dedicated key hash (spec.md §4.9). For each
// bit position b of the hash, it tracks how much of the total mass landing
// in a bucket came from keys whose bit b was 1; bits where that fraction is
// near 0 or 1 are discriminating and are used to reconstruct a query key's
// share of the bucket.
type SketchLearn struct {
	d, w  uint32
	theta float64
	total [][]uint32            // T[r][j]
	bits  [keyHashBits][][]uint32 // R[b][r][j]
	hash  *hashing.Family
}

// NewSketchLearn builds a SketchLearn sketch with d rows, sized to fit
// memBytes across the total-count matrix and the keyHashBits per-bit
// matrices.
func NewSketchLearn(d uint32, memBytes uint64) (*SketchLearn, error) {
	w, err := widthFromMemory(memBytes, d, bytesPerCounterSL*(keyHashBits+1))
	if err != nil {
		return nil, err
	}

	sl := &SketchLearn{
		d:     d,
		w:     w,
		theta: defaultTheta,
		total: newMatrix(d, w),
		hash:  hashing.NewFamily(d),
	}
	for b := range sl.bits {
		sl.bits[b] = newMatrix(d, w)
	}
	return sl, nil
}

func (s *SketchLearn) Update(key []byte, delta uint32) {
	h := uint32(s.hash.Hash64(0, key))
	for r := uint32(0); r < s.d; r++ {
		j := s.hash.Index(int(r), key, s.w)
		saturatingAddU32(&s.total[r][j], delta)
		for b := 0; b < keyHashBits; b++ {
			if (h>>uint(b))&1 == 1 {
				saturatingAddU32(&s.bits[b][r][j], delta)
			}
		}
	}
}

func (s *SketchLearn) Query(key []byte) uint64 {
	h := uint32(s.hash.Hash64(0, key))
	estimates := make([]int64, s.d)

	for r := uint32(0); r < s.d; r++ {
		j := s.hash.Index(int(r), key, s.w)
		total := s.total[r][j]
		if total == 0 {
			estimates[r] = 0
			continue
		}

		product := 1.0
		for b := 0; b < keyHashBits; b++ {
			p := float64(s.bits[b][r][j]) / float64(total)
			weight := p - 0.5
			if weight < 0 {
				weight = -weight
			}
			if weight < s.theta {
				continue
			}
			observedBit := (h >> uint(b)) & 1
			majorityIsOne := p > 0.5
			matched := (observedBit == 1) == majorityIsOne
			pMajority := p
			if !majorityIsOne {
				pMajority = 1 - p
			}
			if matched {
				product *= pMajority
			} else {
				product *= 1 - pMajority
			}
		}

		estimates[r] = int64(float64(total) * product)
	}

	m := median(estimates)
	if m < 0 {
		return 0
	}
	return uint64(m)
}

func (s *SketchLearn) Clear() {
	clearMatrix(s.total)
	for b := range s.bits {
		clearMatrix(s.bits[b])
	}
}

func (s *SketchLearn) MemoryFootprint() uint64 {
	return uint64(s.d) * uint64(s.w) * bytesPerCounterSL * (keyHashBits + 1)
}
