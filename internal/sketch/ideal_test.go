package sketch

import "testing"

func TestIdealExactCounts(t *testing.T) {
	id := NewIdeal()
	id.Update([]byte("a"), 3)
	id.Update([]byte("a"), 4)
	id.Update([]byte("b"), 1)

	if got := id.Query([]byte("a")); got != 7 {
		t.Fatalf("Query(a) = %d, want 7", got)
	}
	if got := id.Query([]byte("b")); got != 1 {
		t.Fatalf("Query(b) = %d, want 1", got)
	}
	if got := id.Query([]byte("never-seen")); got != 0 {
		t.Fatalf("Query(unseen) = %d, want 0", got)
	}
}

func TestIdealClearIsZero(t *testing.T) {
	id := NewIdeal()
	id.Update([]byte("a"), 3)
	id.Clear()
	if got := id.Query([]byte("a")); got != 0 {
		t.Fatalf("Query after Clear = %d, want 0", got)
	}
	if id.Len() != 0 {
		t.Fatalf("Len() after Clear = %d, want 0", id.Len())
	}
}

func TestIdealKeysAndLen(t *testing.T) {
	id := NewIdeal()
	id.Update([]byte("a"), 1)
	id.Update([]byte("b"), 1)
	id.Update([]byte("c"), 1)

	if id.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", id.Len())
	}
	keys := id.Keys()
	if len(keys) != 3 {
		t.Fatalf("len(Keys()) = %d, want 3", len(keys))
	}
	seen := map[string]bool{}
	for _, k := range keys {
		seen[string(k)] = true
	}
	for _, want := range []string{"a", "b", "c"} {
		if !seen[want] {
			t.Fatalf("Keys() missing %q", want)
		}
	}
}

func TestIdealTotalPackets(t *testing.T) {
	id := NewIdeal()
	id.Update([]byte("a"), 10)
	id.Update([]byte("b"), 20)
	id.Update([]byte("c"), 5)
	if got := id.TotalPackets(); got != 35 {
		t.Fatalf("TotalPackets() = %d, want 35", got)
	}
}
