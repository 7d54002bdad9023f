// Package sketch implements the bounded-memory flow-measurement data
// structures the evaluation harness drives: CountMin, CountSketch,
// HashPipe, ElasticSketch, UnivMon, SketchLearn and FlowRadar, plus the
// exact Ideal reference they are measured against.
//
// Every sketch implements Sketch. The harness (internal/driver) clears all
// of them at the start of an epoch, feeds every packet's flow key through
// Update in timestamp order, and then Query()s every key the Ideal
// reference saw.
package sketch

import "errors"

// ErrInvalidConfig is returned by a constructor when its parameters would
// allocate zero rows, zero columns, or otherwise can't produce a usable
// sketch. It is the only error condition a sketch ever surfaces; Update and
// Query are infallible by design (see package driver).
var ErrInvalidConfig = errors.New("sketch: invalid config")

// Sketch is the common contract every flow-measurement data structure in
// this package satisfies.
type Sketch interface {
	// Update adds delta to the running count for key. Idempotent under
	// delta=0. Never returns an error: overflow saturates at the
	// counter's max value rather than wrapping or failing.
	Update(key []byte, delta uint32)

	// Query returns a non-negative estimate of the total delta applied to
	// key since the last Clear. Unknown keys return 0, never an error.
	Query(key []byte) uint64

	// Clear resets the sketch to the state immediately following
	// construction, without reallocating its backing storage.
	Clear()

	// MemoryFootprint reports the total bytes of all counter/table/bitmap
	// arrays the sketch owns, not including per-object Go overhead.
	MemoryFootprint() uint64
}

// HeavyHitters is implemented by sketches that can enumerate the keys
// whose estimate is at or above a threshold without a full decode.
type HeavyHitters interface {
	HeavyHitters(threshold uint64) [][]byte
}

// Decoder is implemented by sketches that can recover the full
// key -> count mapping they've accumulated (FlowRadar).
type Decoder interface {
	// Decode returns the recovered key -> count map and reports whether
	// every inserted key was successfully recovered. A false return means
	// decoding stopped with residual, un-peelable state; the returned map
	// is still the best partial result obtained.
	Decode() (counts map[string]uint64, complete bool)
}

// saturatingAddU32 adds delta to counter in place, clamping at
// math.MaxUint32 instead of wrapping, per the overflow semantics in
// spec.md §4.11.
func saturatingAddU32(counter *uint32, delta uint32) {
	const max = ^uint32(0)
	if delta > max-*counter {
		*counter = max
		return
	}
	*counter += delta
}

// widthFromMemory computes w = floor(M / (rows * bytesPerCounter)),
// shared by every row/column sized sketch (CountMin, CountSketch, the
// ElasticSketch light part, SketchLearn's matrices). Returns
// ErrInvalidConfig if the result is zero.
func widthFromMemory(memBytes uint64, rows uint32, bytesPerCounter uint32) (uint32, error) {
	if rows == 0 {
		return 0, ErrInvalidConfig
	}
	w := memBytes / (uint64(rows) * uint64(bytesPerCounter))
	if w == 0 {
		return 0, ErrInvalidConfig
	}
	if w > uint64(^uint32(0)) {
		w = uint64(^uint32(0))
	}
	return uint32(w), nil
}

// newMatrix allocates a d x w uint32 counter matrix.
func newMatrix(d, w uint32) [][]uint32 {
	m := make([][]uint32, d)
	for i := range m {
		m[i] = make([]uint32, w)
	}
	return m
}

// clearMatrix zeroes a matrix in place without reallocating.
func clearMatrix(m [][]uint32) {
	for i := range m {
		for j := range m[i] {
			m[i][j] = 0
		}
	}
}

// newSignedMatrix allocates a d x w int32 counter matrix.
func newSignedMatrix(d, w uint32) [][]int32 {
	m := make([][]int32, d)
	for i := range m {
		m[i] = make([]int32, w)
	}
	return m
}

func clearSignedMatrix(m [][]int32) {
	for i := range m {
		for j := range m[i] {
			m[i][j] = 0
		}
	}
}

func median(vals []int64) int64 {
	// Simple insertion sort: d (the row count) is always small (single
	// digits in practice), so an O(d^2) sort is cheaper than pulling in
	// sort.Slice's overhead per query.
	sorted := append([]int64(nil), vals...)
	for i := 1; i < len(sorted); i++ {
		v := sorted[i]
		j := i - 1
		for j >= 0 && sorted[j] > v {
			sorted[j+1] = sorted[j]
			j--
		}
		sorted[j+1] = v
	}
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
