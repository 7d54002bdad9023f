package sketch

import "testing"

func TestFlowRadarInvalidConfig(t *testing.T) {
	if _, err := NewFlowRadar(4096, 0, 3, 3, 8); err != ErrInvalidConfig {
		t.Fatalf("expected ErrInvalidConfig for bfPercentage<=0, got %v", err)
	}
	if _, err := NewFlowRadar(4096, 1, 3, 3, 8); err != ErrInvalidConfig {
		t.Fatalf("expected ErrInvalidConfig for bfPercentage>=1, got %v", err)
	}
	if _, err := NewFlowRadar(4096, 0.5, 0, 3, 8); err != ErrInvalidConfig {
		t.Fatalf("expected ErrInvalidConfig for zero bf hashes, got %v", err)
	}
}

func TestFlowRadarClearIsZero(t *testing.T) {
	fr, err := NewFlowRadar(8192, 0.3, 3, 3, 8)
	if err != nil {
		t.Fatal(err)
	}
	key := []byte("flow0001")
	fr.Update(key, 5)
	fr.Clear()
	if got := fr.Query(key); got != 0 {
		t.Fatalf("Query after Clear = %d, want 0", got)
	}
}

func TestFlowRadarUnseenKeyIsZero(t *testing.T) {
	fr, err := NewFlowRadar(8192, 0.3, 3, 3, 8)
	if err != nil {
		t.Fatal(err)
	}
	if got := fr.Query([]byte("never-seen")); got != 0 {
		t.Fatalf("Query(unseen) = %d, want 0", got)
	}
}

// TestFlowRadarDecodeDisjointFlows pins spec.md §8 scenario (d): with ample
// counting-table capacity, a handful of flows land in disjoint cells and
// decode exactly and completely.
func TestFlowRadarDecodeDisjointFlows(t *testing.T) {
	fr, err := NewFlowRadar(1<<16, 0.3, 3, 3, 8)
	if err != nil {
		t.Fatal(err)
	}

	flows := map[string]uint32{
		"flowAAAA": 10,
		"flowBBBB": 25,
		"flowCCCC": 7,
	}
	for k, c := range flows {
		for i := uint32(0); i < c; i++ {
			fr.Update([]byte(k), 1)
		}
	}

	counts, complete := fr.Decode()
	if !complete {
		t.Fatalf("Decode() complete = false, want true with ample table capacity")
	}
	if len(counts) != len(flows) {
		t.Fatalf("Decode() recovered %d flows, want %d", len(counts), len(flows))
	}
	for k, want := range flows {
		got, ok := counts[k]
		if !ok {
			t.Fatalf("Decode() missing flow %q", k)
		}
		if got != uint64(want) {
			t.Fatalf("Decode()[%q] = %d, want %d", k, got, want)
		}
	}
}

// TestFlowRadarDecodeNeverDoubleCountsCollidingCell exercises the pointer-
// aliasing hazard in the peeling loop: when a peeled cell's own index
// reappears among the indices it's subtracted from, the packet count used
// for the subtraction must be the value captured before peeling began, not
// a partially-mutated read.
func TestFlowRadarDecodeNeverDoubleCountsCollidingCell(t *testing.T) {
	fr, err := NewFlowRadar(1<<14, 0.3, 3, 2, 8)
	if err != nil {
		t.Fatal(err)
	}
	flows := map[string]uint32{
		"flow0001": 40,
		"flow0002": 15,
		"flow0003": 60,
		"flow0004": 3,
	}
	for k, c := range flows {
		for i := uint32(0); i < c; i++ {
			fr.Update([]byte(k), 1)
		}
	}

	counts, _ := fr.Decode()
	for k, want := range flows {
		if got, ok := counts[k]; ok && got != uint64(want) {
			t.Fatalf("Decode()[%q] = %d, want %d", k, got, want)
		}
	}
}

func TestFlowRadarMemoryFootprintWithinBudget(t *testing.T) {
	const budget = uint64(1 << 16)
	fr, err := NewFlowRadar(budget, 0.3, 3, 3, 8)
	if err != nil {
		t.Fatal(err)
	}
	if fr.MemoryFootprint() > budget {
		t.Fatalf("MemoryFootprint() = %d exceeds budget %d", fr.MemoryFootprint(), budget)
	}
}
