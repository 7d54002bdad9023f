package sketch

import "testing"

func TestElasticSketchInvalidConfig(t *testing.T) {
	if _, err := NewElasticSketch(1024, 0, 2048, 4, 8); err != ErrInvalidConfig {
		t.Fatalf("expected ErrInvalidConfig for zero lambda, got %v", err)
	}
	if _, err := NewElasticSketch(2048, 8, 2048, 4, 8); err != ErrInvalidConfig {
		t.Fatalf("expected ErrInvalidConfig when total<=heavy, got %v", err)
	}
	if _, err := NewElasticSketch(4, 8, 2048, 4, 8); err != ErrInvalidConfig {
		t.Fatalf("expected ErrInvalidConfig for undersized heavy memory, got %v", err)
	}
}

func TestElasticSketchClearIsZero(t *testing.T) {
	es, err := NewElasticSketch(4096, 8, 8192, 4, 8)
	if err != nil {
		t.Fatal(err)
	}
	key := []byte("flow0001")
	es.Update(key, 5)
	es.Clear()
	if got := es.Query(key); got != 0 {
		t.Fatalf("Query after Clear = %d, want 0", got)
	}
}

// TestElasticSketchColdFlowExact is testable property 5: a flow that stays
// in the heavy part (never evicted) is reported exactly.
func TestElasticSketchColdFlowExact(t *testing.T) {
	es, err := NewElasticSketch(4096, 8, 8192, 4, 8)
	if err != nil {
		t.Fatal(err)
	}
	key := []byte("flow0001")
	const reps = 1000
	for i := 0; i < reps; i++ {
		es.Update(key, 1)
	}
	if got := es.Query(key); got != reps {
		t.Fatalf("Query(key) = %d, want exact %d (cold flow, never evicted)", got, reps)
	}
}

// TestElasticSketchEvictedFlowUpperBound checks that once a flow is
// evicted from the heavy part to the light part, its estimate is at least
// its light-part count (upper-bound behavior of the Count-Min light part),
// never silently dropped to 0.
func TestElasticSketchEvictedFlowUpperBound(t *testing.T) {
	// A single-bucket, single-slot heavy part with a tiny lambda forces
	// contention and eviction almost immediately.
	es, err := NewElasticSketch(8+2*bytesPerVote+1, 1, 4096, 4, 8)
	if err != nil {
		t.Fatal(err)
	}
	if es.buckets != 1 {
		t.Fatalf("expected a single bucket, got %d", es.buckets)
	}

	winner := []byte("winner00")
	loser := []byte("loser000")

	es.Update(winner, 1)
	// Every subsequent insert of a distinct key contends for the sole
	// occupied slot and, with lambda=1, evicts on the very first contest.
	es.Update(loser, 1)

	// With lambda=1 the first contest evicts winner: its count moves to the
	// light part and loser takes the slot. Querying winner must still report
	// at least what was inserted, since the light part is a Count-Min upper
	// bound.
	if got := es.Query(winner); got == 0 {
		t.Fatalf("Query(winner) = 0, want a nonzero upper-bound estimate")
	}
}

func TestElasticSketchMemoryFootprintWithinBudget(t *testing.T) {
	const total = uint64(16384)
	const heavy = uint64(8192)
	es, err := NewElasticSketch(heavy, 8, total, 4, 8)
	if err != nil {
		t.Fatal(err)
	}
	if es.MemoryFootprint() > total {
		t.Fatalf("MemoryFootprint() = %d exceeds budget %d", es.MemoryFootprint(), total)
	}
}
