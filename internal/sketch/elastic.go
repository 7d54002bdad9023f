package sketch

import "sketchbench/internal/hashing"

const bytesPerVote = 4 // vote_positive or vote_negative

type esEntry struct {
	key           []byte
	votePositive  uint32
	voteNegative  uint32
	occupied      bool
	hot           bool
}

// ElasticSketch pairs a "heavy part" of cuckoo-style buckets with a "light
// part" Count-Min absorbing evicted residuals (spec.md §4.7).
type ElasticSketch struct {
	keySize uint32
	lambda  uint32
	buckets uint32
	heavy   [][]esEntry
	light   *CountMin
	hash    *hashing.Family // bucket-selection hash H_H
}

// NewElasticSketch builds an ElasticSketch. heavyMemBytes bounds the heavy
// part (buckets of lambda entries each); the light part gets
// totalMemBytes-heavyMemBytes split across lightRows Count-Min rows.
func NewElasticSketch(heavyMemBytes uint64, lambda uint32, totalMemBytes uint64, lightRows uint32, keySize uint32) (*ElasticSketch, error) {
	if lambda == 0 || totalMemBytes <= heavyMemBytes {
		return nil, ErrInvalidConfig
	}

	entrySize := uint64(keySize) + 2*bytesPerVote + 1
	buckets := heavyMemBytes / (uint64(lambda) * entrySize)
	if buckets == 0 {
		return nil, ErrInvalidConfig
	}

	light, err := NewCountMin(lightRows, totalMemBytes-heavyMemBytes)
	if err != nil {
		return nil, err
	}

	heavy := make([][]esEntry, buckets)
	for i := range heavy {
		row := make([]esEntry, lambda)
		for j := range row {
			row[j].key = make([]byte, keySize)
		}
		heavy[i] = row
	}

	return &ElasticSketch{
		keySize: keySize,
		lambda:  lambda,
		buckets: uint32(buckets),
		heavy:   heavy,
		light:   light,
		hash:    hashing.NewFamily(1),
	}, nil
}

func (e *ElasticSketch) bucketFor(key []byte) []esEntry {
	idx := e.hash.Index(0, key, e.buckets)
	return e.heavy[idx]
}

func (e *ElasticSketch) Update(key []byte, delta uint32) {
	bucket := e.bucketFor(key)

	for i := range bucket {
		if bucket[i].occupied && sliceEqual(bucket[i].key, key) {
			saturatingAddU32(&bucket[i].votePositive, delta)
			return
		}
	}

	for i := range bucket {
		if !bucket[i].occupied {
			bucket[i].occupied = true
			copy(bucket[i].key, key)
			bucket[i].votePositive = delta
			bucket[i].voteNegative = 0
			bucket[i].hot = false
			return
		}
	}

	// No match, no free slot: apply delta insertions one at a time so the
	// integer ejection condition matches the per-packet source semantics.
	// Units after the first go through Update again, so once key wins the
	// slot its remaining units are counted there.
	if delta == 0 {
		return
	}
	e.contend(bucket, key)
	for d := uint32(1); d < delta; d++ {
		e.Update(key, 1)
	}
}

// contend runs a single insertion's worth of the min-vote contention and
// possible eviction described in spec.md §4.7.
func (e *ElasticSketch) contend(bucket []esEntry, key []byte) {
	minIdx := 0
	for i := 1; i < len(bucket); i++ {
		if bucket[i].votePositive < bucket[minIdx].votePositive {
			minIdx = i
		}
	}

	min := &bucket[minIdx]
	min.voteNegative++

	if min.votePositive > 0 && min.voteNegative/min.votePositive >= e.lambda {
		e.light.Update(min.key, min.votePositive)
		copy(min.key, key)
		min.votePositive = 1
		min.voteNegative = 0
		min.hot = true
		min.occupied = true
	}
}

func (e *ElasticSketch) Query(key []byte) uint64 {
	bucket := e.bucketFor(key)
	for i := range bucket {
		if bucket[i].occupied && sliceEqual(bucket[i].key, key) {
			est := uint64(bucket[i].votePositive)
			if bucket[i].hot {
				est += e.light.Query(key)
			}
			return est
		}
	}
	return e.light.Query(key)
}

func (e *ElasticSketch) Clear() {
	for _, bucket := range e.heavy {
		for i := range bucket {
			bucket[i].occupied = false
			bucket[i].votePositive = 0
			bucket[i].voteNegative = 0
			bucket[i].hot = false
			for b := range bucket[i].key {
				bucket[i].key[b] = 0
			}
		}
	}
	e.light.Clear()
}

func (e *ElasticSketch) MemoryFootprint() uint64 {
	entrySize := uint64(e.keySize) + 2*bytesPerVote + 1
	return uint64(e.buckets)*uint64(e.lambda)*entrySize + e.light.MemoryFootprint()
}
