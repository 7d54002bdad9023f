package sketch

import "testing"

func TestCountMinInvalidConfig(t *testing.T) {
	if _, err := NewCountMin(4, 3); err != ErrInvalidConfig {
		t.Fatalf("expected ErrInvalidConfig for undersized memory, got %v", err)
	}
	if _, err := NewCountMin(0, 1024); err != ErrInvalidConfig {
		t.Fatalf("expected ErrInvalidConfig for zero rows, got %v", err)
	}
}

func TestCountMinClearIsZero(t *testing.T) {
	cm, err := NewCountMin(4, 1<<16)
	if err != nil {
		t.Fatal(err)
	}
	cm.Update([]byte("flow-a"), 5)
	cm.Clear()
	if got := cm.Query([]byte("flow-a")); got != 0 {
		t.Fatalf("Query after Clear = %d, want 0", got)
	}
}

func TestCountMinSingleFlowExact(t *testing.T) {
	cm, err := NewCountMin(4, 1<<16)
	if err != nil {
		t.Fatal(err)
	}
	const reps = 10000
	key := []byte("only-flow")
	for i := 0; i < reps; i++ {
		cm.Update(key, 1)
	}
	if got := cm.Query(key); got != reps {
		t.Fatalf("Query = %d, want %d (sole flow, no collisions possible)", got, reps)
	}
}

// TestCountMinCollisionBoundary pins spec.md §8 scenario (b): with d=1,w=1
// every key collides into the single cell, so two keys' counts simply sum.
func TestCountMinCollisionBoundary(t *testing.T) {
	cm, err := NewCountMin(1, 4) // d=1, w = floor(4/(1*4)) = 1
	if err != nil {
		t.Fatal(err)
	}
	if cm.w != 1 {
		t.Fatalf("expected w=1, got %d", cm.w)
	}

	k1, k2 := []byte("flow-1"), []byte("flow-2")
	for i := 0; i < 100; i++ {
		cm.Update(k1, 1)
	}
	for i := 0; i < 50; i++ {
		cm.Update(k2, 1)
	}

	if got := cm.Query(k1); got != 150 {
		t.Fatalf("Query(k1) = %d, want 150", got)
	}
	if got := cm.Query(k2); got != 150 {
		t.Fatalf("Query(k2) = %d, want 150", got)
	}
}

// TestCountMinNeverUndercounts is testable property 2: Count-Min never
// reports less than the true count.
func TestCountMinNeverUndercounts(t *testing.T) {
	cm, err := NewCountMin(4, 2048)
	if err != nil {
		t.Fatal(err)
	}
	ideal := NewIdeal()

	flows := [][]byte{[]byte("a"), []byte("b"), []byte("c"), []byte("d"), []byte("e")}
	for i, f := range flows {
		reps := (i + 1) * 7
		for r := 0; r < reps; r++ {
			cm.Update(f, 1)
			ideal.Update(f, 1)
		}
	}

	for _, f := range flows {
		if got, want := cm.Query(f), ideal.Query(f); got < want {
			t.Fatalf("Query(%s) = %d < true count %d", f, got, want)
		}
	}
}

func TestCountMinMemoryFootprintWithinBudget(t *testing.T) {
	const budget = uint64(4096)
	cm, err := NewCountMin(4, budget)
	if err != nil {
		t.Fatal(err)
	}
	if cm.MemoryFootprint() > budget {
		t.Fatalf("MemoryFootprint() = %d exceeds budget %d", cm.MemoryFootprint(), budget)
	}
}

func TestCountMinSaturates(t *testing.T) {
	cm, err := NewCountMin(1, 4)
	if err != nil {
		t.Fatal(err)
	}
	key := []byte("k")
	cm.Update(key, ^uint32(0)-1)
	cm.Update(key, 10)
	if got := cm.Query(key); got != uint64(^uint32(0)) {
		t.Fatalf("Query = %d, want saturated max %d", got, ^uint32(0))
	}
}
