// Package hashing provides the seeded hash family the sketches are built on.
//
// Every sketch in internal/sketch needs d (or num_stages, or L, ...)
// independent hash functions over a flow key's byte encoding. Rather than
// have each sketch roll its own seeding, they all draw from the same
// Family: H_i(key) -> uint32 and S_i(key) -> {-1,+1}.
package hashing

import (
	"math/bits"
	"math/rand/v2"
)

const (
	c1_32 uint32 = 0xcc9e2d51
	c2_32 uint32 = 0x1b873593
)

// MurmurHash3 computes the seeded 32-bit MurmurHash3 (x86_32) of data.
func MurmurHash3(data []byte, seed uint32) (h1 uint32) {
	h1 = seed
	clen := uint32(len(data))
	for len(data) >= 4 {
		k1 := uint32(data[0]) | uint32(data[1])<<8 | uint32(data[2])<<16 | uint32(data[3])<<24
		data = data[4:]

		k1 *= c1_32
		k1 = bits.RotateLeft32(k1, 15)
		k1 *= c2_32

		h1 ^= k1
		h1 = bits.RotateLeft32(h1, 13)
		h1 = h1*5 + 0xe6546b64
	}

	var k1 uint32
	switch len(data) {
	case 3:
		k1 ^= uint32(data[2]) << 16
		fallthrough
	case 2:
		k1 ^= uint32(data[1]) << 8
		fallthrough
	case 1:
		k1 ^= uint32(data[0])
		k1 *= c1_32
		k1 = bits.RotateLeft32(k1, 15)
		k1 *= c2_32
		h1 ^= k1
	}

	h1 ^= clen

	h1 ^= h1 >> 16
	h1 *= 0x85ebca6b
	h1 ^= h1 >> 13
	h1 *= 0xc2b2ae35
	h1 ^= h1 >> 16

	return h1
}

// MurmurHash3_64 widens MurmurHash3 to 64 bits by hashing with two distinct
// seeds derived from the caller's seed and packing the two halves together.
// Used where a sketch needs a wide hash over the key-hash bit space (e.g.
// UnivMon's sampling hash, SketchLearn's per-bit decomposition).
func MurmurHash3_64(data []byte, seed uint32) uint64 {
	lo := MurmurHash3(data, seed)
	hi := MurmurHash3(data, seed^0x9e3779b9)
	return uint64(hi)<<32 | uint64(lo)
}

// Family is a set of d independently seeded hash functions plus a matching
// set of sign functions, fixed for the lifetime of a sketch.
type Family struct {
	seeds     []uint32
	signSeeds []uint32
}

// NewFamily creates a Family of n independent hash/sign function pairs.
// Seeds are drawn once at construction; the same Family instance must be
// reused for every update/query against a given sketch so estimates stay
// consistent across calls.
func NewFamily(n uint32) *Family {
	seeds := make([]uint32, n)
	signSeeds := make([]uint32, n)
	for i := range seeds {
		seeds[i] = rand.Uint32()
		signSeeds[i] = rand.Uint32()
	}
	return &Family{seeds: seeds, signSeeds: signSeeds}
}

// Len reports how many independent hash functions this family carries.
func (f *Family) Len() int { return len(f.seeds) }

// Index returns H_i(key) mod m.
func (f *Family) Index(i int, key []byte, m uint32) uint32 {
	return MurmurHash3(key, f.seeds[i]) % m
}

// Hash64 returns a 64-bit value for H_i(key), used where the sketch needs
// more than mod-m bucketing (e.g. a key-hash bit decomposition).
func (f *Family) Hash64(i int, key []byte) uint64 {
	return MurmurHash3_64(key, f.seeds[i])
}

// Sign returns S_i(key) in {-1, +1}, derived from one bit of a seed distinct
// from the bucketing seed for the same row.
func (f *Family) Sign(i int, key []byte) int32 {
	h := MurmurHash3(key, f.signSeeds[i])
	if h&1 == 0 {
		return 1
	}
	return -1
}
