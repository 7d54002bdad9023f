package sketch

import "testing"

func TestHashPipeInvalidConfig(t *testing.T) {
	if _, err := NewHashPipe(0, 1024, 8); err != ErrInvalidConfig {
		t.Fatalf("expected ErrInvalidConfig for zero stages, got %v", err)
	}
	if _, err := NewHashPipe(4, 4, 8); err != ErrInvalidConfig {
		t.Fatalf("expected ErrInvalidConfig for undersized memory, got %v", err)
	}
}

func TestHashPipeClearIsZero(t *testing.T) {
	hp, err := NewHashPipe(4, 4096, 8)
	if err != nil {
		t.Fatal(err)
	}
	key := []byte("flowkey1")
	hp.Update(key, 3)
	hp.Clear()
	if got := hp.Query(key); got != 0 {
		t.Fatalf("Query after Clear = %d, want 0", got)
	}
}

// TestHashPipeEvictionScenario pins spec.md §8 scenario (c): num_stages=2,
// width forced to 1 so every key collides into the same stage-0 and
// stage-1 slot.
func TestHashPipeEvictionScenario(t *testing.T) {
	const keySize = 8
	// width = floor(M / (numStages*(keySize+4))) = 1 when M = numStages*(keySize+4)
	memBytes := uint64(2 * (keySize + 4))
	hp, err := NewHashPipe(2, memBytes, keySize)
	if err != nil {
		t.Fatal(err)
	}
	if hp.w != 1 {
		t.Fatalf("expected width=1, got %d", hp.w)
	}

	k1 := []byte("flow0001")
	k2 := []byte("flow0002")
	k3 := []byte("flow0003")

	for i := 0; i < 10; i++ {
		hp.Update(k1, 1)
	}
	hp.Update(k2, 1)
	hp.Update(k3, 1)

	if got := hp.Query(k1); got != 10 {
		t.Fatalf("Query(k1) = %d, want 10 (survives the pipeline)", got)
	}
	if got := hp.Query(k2); got != 0 {
		t.Fatalf("Query(k2) = %d, want 0 (dropped carry)", got)
	}
	if got := hp.Query(k3); got != 1 {
		t.Fatalf("Query(k3) = %d, want 1", got)
	}
}

// TestHashPipeUniqueness is testable property 4: a live key never occupies
// more than one stage×slot at once.
func TestHashPipeUniqueness(t *testing.T) {
	hp, err := NewHashPipe(4, 1<<14, 8)
	if err != nil {
		t.Fatal(err)
	}

	keys := make([][]byte, 30)
	for i := range keys {
		keys[i] = []byte{'k', 'e', 'y', byte(i), byte(i >> 8), 0, 0, 0}
	}
	for i := 0; i < 500; i++ {
		hp.Update(keys[i%len(keys)], 1)
	}

	seen := make(map[string]int)
	for s := range hp.stages {
		for slot := range hp.stages[s] {
			entry := hp.stages[s][slot]
			if !entry.occupied {
				continue
			}
			seen[string(entry.key)]++
		}
	}
	for k, count := range seen {
		if count > 1 {
			t.Fatalf("key %q occupies %d stage slots simultaneously, want at most 1", k, count)
		}
	}
}

func TestHashPipeMemoryFootprintWithinBudget(t *testing.T) {
	const budget = uint64(4096)
	hp, err := NewHashPipe(4, budget, 8)
	if err != nil {
		t.Fatal(err)
	}
	if hp.MemoryFootprint() > budget {
		t.Fatalf("MemoryFootprint() = %d exceeds budget %d", hp.MemoryFootprint(), budget)
	}
}
