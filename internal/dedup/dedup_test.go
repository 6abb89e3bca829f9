package dedup

import "testing"

func TestAdd(t *testing.T) {
	tab := New(2)
	verts := [][]uint32{{1, 2}, {3, 4}, {1, 2}, {5, 6}, {3, 4}, {1, 2}}
	want := []uint32{0, 1, 0, 2, 1, 0}
	for i, v := range verts {
		if got := tab.Add(v); got != want[i] {
			t.Errorf("Add(%v) = %d, want %d", v, got, want[i])
		}
	}
	if tab.Len() != 3 {
		t.Errorf("Len() = %d, want 3", tab.Len())
	}
	if tab.Hits() != 3 {
		t.Errorf("Hits() = %d, want 3", tab.Hits())
	}
	if v := tab.Vertex(2); v[0] != 5 || v[1] != 6 {
		t.Errorf("Vertex(2) = %v", v)
	}
}

func TestCollisionConfirmed(t *testing.T) {
	tab := New(1)
	a := tab.Add([]uint32{7})
	// Force a collision by planting b's hash bucket onto a's entry.
	key := tab.hash([]uint32{8})
	tab.buckets[key] = append(tab.buckets[key], a)
	if b := tab.Add([]uint32{8}); b == a {
		t.Error("distinct vertices merged on hash collision")
	}
}
