package sketch

import "sketchbench/internal/hashing"

const bytesPerFlowRadarCell = 8 // numFlows(4) + packetCount(4), plus keySize for flow_xor

// bloomFilter is a fixed-size bit array with k independent hash functions,
// the membership test FlowRadar uses to decide whether a key has already
// contributed to the counting table.
type bloomFilter struct {
	bits  []uint64 // packed bit array
	nBits uint64
	hash  *hashing.Family
}

func newBloomFilter(nBits uint64, k uint32) *bloomFilter {
	words := (nBits + 63) / 64
	return &bloomFilter{
		bits:  make([]uint64, words),
		nBits: nBits,
		hash:  hashing.NewFamily(k),
	}
}

func (b *bloomFilter) indices(key []byte) []uint64 {
	idx := make([]uint64, b.hash.Len())
	for i := 0; i < b.hash.Len(); i++ {
		idx[i] = b.hash.Hash64(i, key) % b.nBits
	}
	return idx
}

func (b *bloomFilter) test(key []byte) bool {
	for _, i := range b.indices(key) {
		if b.bits[i/64]&(1<<(i%64)) == 0 {
			return false
		}
	}
	return true
}

func (b *bloomFilter) add(key []byte) {
	for _, i := range b.indices(key) {
		b.bits[i/64] |= 1 << (i % 64)
	}
}

func (b *bloomFilter) clear() {
	for i := range b.bits {
		b.bits[i] = 0
	}
}

type frCell struct {
	flowXor     []byte
	numFlows    uint32
	packetCount uint32
}

// FlowRadar pairs a Bloom filter of observed keys with a 3-field
// invertible counting table, decoded by peeling (spec.md §4.10).
type FlowRadar struct {
	keySize uint32
	kCT     uint32
	bf      *bloomFilter
	table   []frCell
	ctHash  *hashing.Family
}

// NewFlowRadar builds a FlowRadar sketch. bfPercentage of memBytes goes to
// the Bloom filter (bfNumHashes hash functions); the remainder is split
// into counting-table cells (ctNumHashes hashes per key), sized for keys
// of keySize bytes.
func NewFlowRadar(memBytes uint64, bfPercentage float64, bfNumHashes, ctNumHashes uint32, keySize uint32) (*FlowRadar, error) {
	if bfPercentage <= 0 || bfPercentage >= 1 || bfNumHashes == 0 || ctNumHashes == 0 {
		return nil, ErrInvalidConfig
	}

	bfBytes := uint64(bfPercentage * float64(memBytes))
	bfBits := bfBytes * 8
	if bfBits == 0 {
		return nil, ErrInvalidConfig
	}

	ctBytes := memBytes - bfBytes
	cellSize := uint64(keySize) + bytesPerFlowRadarCell
	m := ctBytes / cellSize
	if m == 0 {
		return nil, ErrInvalidConfig
	}

	table := make([]frCell, m)
	for i := range table {
		table[i].flowXor = make([]byte, keySize)
	}

	return &FlowRadar{
		keySize: keySize,
		kCT:     ctNumHashes,
		bf:      newBloomFilter(bfBits, bfNumHashes),
		table:   table,
		ctHash:  hashing.NewFamily(ctNumHashes),
	}, nil
}

func (fr *FlowRadar) cellIndices(key []byte) []uint32 {
	idx := make([]uint32, fr.kCT)
	for i := uint32(0); i < fr.kCT; i++ {
		idx[i] = fr.ctHash.Index(int(i), key, uint32(len(fr.table)))
	}
	return idx
}

func (fr *FlowRadar) Update(key []byte, delta uint32) {
	alreadyPresent := fr.bf.test(key)
	indices := fr.cellIndices(key)

	if !alreadyPresent {
		fr.bf.add(key)
		for _, idx := range indices {
			cell := &fr.table[idx]
			xorInto(cell.flowXor, key)
			cell.numFlows++
		}
	}

	for _, idx := range indices {
		saturatingAddU32(&fr.table[idx].packetCount, delta)
	}
}

func (fr *FlowRadar) Query(key []byte) uint64 {
	if !fr.bf.test(key) {
		return 0
	}

	indices := fr.cellIndices(key)
	var min uint32
	minSet := false
	for _, idx := range indices {
		cell := &fr.table[idx]
		if cell.numFlows == 1 && sliceEqual(cell.flowXor, key) {
			return uint64(cell.packetCount)
		}
		if !minSet || cell.packetCount < min {
			min = cell.packetCount
			minSet = true
		}
	}
	return uint64(min)
}

// Decode recovers every flow the counting table can still peel (spec.md
// §4.10, testable property 6). It does not consult the Bloom filter.
func (fr *FlowRadar) Decode() (map[string]uint64, bool) {
	counts := make(map[string]uint64)

	for {
		peeled := false
		for i := range fr.table {
			cell := &fr.table[i]
			if cell.numFlows != 1 {
				continue
			}
			key := append([]byte(nil), cell.flowXor...)
			packetCount := cell.packetCount
			counts[string(key)] = uint64(packetCount)

			for _, idx := range fr.cellIndices(key) {
				c := &fr.table[idx]
				xorInto(c.flowXor, key)
				c.numFlows--
				c.packetCount -= packetCount
			}
			peeled = true
		}
		if !peeled {
			break
		}
	}

	complete := true
	for i := range fr.table {
		if fr.table[i].numFlows != 0 {
			complete = false
			break
		}
	}

	return counts, complete
}

func (fr *FlowRadar) Clear() {
	fr.bf.clear()
	for i := range fr.table {
		for b := range fr.table[i].flowXor {
			fr.table[i].flowXor[b] = 0
		}
		fr.table[i].numFlows = 0
		fr.table[i].packetCount = 0
	}
}

func (fr *FlowRadar) MemoryFootprint() uint64 {
	cellSize := uint64(fr.keySize) + bytesPerFlowRadarCell
	return uint64(len(fr.bf.bits))*8 + uint64(len(fr.table))*cellSize
}

func xorInto(dst, src []byte) {
	for i := range dst {
		dst[i] ^= src[i]
	}
}
